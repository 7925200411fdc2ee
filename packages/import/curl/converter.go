// Package curl converts curl command lines into saved requests.
package curl

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/restvars/packages/auth"
	"github.com/abdul-hamid-achik/restvars/packages/collection"
	"github.com/abdul-hamid-achik/restvars/packages/http"
)

// Converter converts curl commands to saved requests.
type Converter struct {
	detectAuth     bool
	collectionName string
}

// Option is a functional option for Converter.
type Option func(*Converter)

// WithAuthDetection configures whether -u and Authorization: Bearer headers
// are lifted into request auth instead of being kept as raw headers.
func WithAuthDetection(detect bool) Option {
	return func(c *Converter) {
		c.detectAuth = detect
	}
}

// WithCollectionName sets the collection name used by ConvertFile. The file
// name is used when empty.
func WithCollectionName(name string) Option {
	return func(c *Converter) {
		c.collectionName = name
	}
}

// NewConverter creates a new curl converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		detectAuth: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParsedCurl represents a parsed curl command.
type ParsedCurl struct {
	Method          string
	URL             string
	Headers         []http.Header
	Body            string
	BasicAuth       string
	Insecure        bool
	FollowRedirects bool
	Name            string
}

// Header returns the first header named key, case-insensitively.
func (p *ParsedCurl) Header(key string) (string, bool) {
	for _, h := range p.Headers {
		if strings.EqualFold(h.Key, key) {
			return h.Value, true
		}
	}
	return "", false
}

// ConvertCommand converts a single curl command to a saved request.
func (c *Converter) ConvertCommand(curlCmd string) (*collection.SavedRequest, error) {
	parsed, err := c.Parse(curlCmd)
	if err != nil {
		return nil, err
	}
	return c.ToRequest(parsed), nil
}

// ConvertFile converts a file of curl commands into a workspace holding one
// collection. Lines ending in a backslash continue the command and lines
// starting with # are ignored.
func (c *Converter) ConvertFile(path string) (*collection.Workspace, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var commands []string
	var currentCmd strings.Builder
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasSuffix(line, "\\") {
			currentCmd.WriteString(strings.TrimSuffix(line, "\\"))
			currentCmd.WriteString(" ")
			continue
		}

		currentCmd.WriteString(line)
		commands = append(commands, currentCmd.String())
		currentCmd.Reset()
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if currentCmd.Len() > 0 {
		commands = append(commands, currentCmd.String())
	}

	name := c.collectionName
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	col := collection.NewCollection(name)

	for i, cmd := range commands {
		req, err := c.ConvertCommand(cmd)
		if err != nil {
			return nil, fmt.Errorf("failed to convert command %d: %w", i+1, err)
		}
		col.AddRequest(*req)
	}

	return &collection.Workspace{Name: name, Collections: []collection.Collection{col}}, nil
}

// Parse parses a curl command string into a ParsedCurl struct.
func (c *Converter) Parse(curlCmd string) (*ParsedCurl, error) {
	parsed := &ParsedCurl{
		Method: "GET",
	}
	explicitMethod := false
	var data []string

	curlCmd = strings.TrimSpace(curlCmd)

	if strings.HasPrefix(curlCmd, "curl ") {
		curlCmd = strings.TrimPrefix(curlCmd, "curl ")
	} else if curlCmd == "curl" {
		return nil, fmt.Errorf("no URL specified")
	}

	tokens := tokenize(curlCmd)

	value := func(i int) (string, error) {
		if i+1 < len(tokens) {
			return tokens[i+1], nil
		}
		return "", fmt.Errorf("missing value for %s", tokens[i])
	}

	i := 0
	for i < len(tokens) {
		token := tokens[i]

		switch token {
		case "-X", "--request":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Method = strings.ToUpper(v)
			explicitMethod = true
			i += 2

		case "-H", "--header":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			if key, val, ok := strings.Cut(v, ":"); ok {
				parsed.Headers = append(parsed.Headers, http.Header{
					Key:   strings.TrimSpace(key),
					Value: strings.TrimSpace(val),
				})
			}
			i += 2

		case "-d", "--data", "--data-raw", "--data-binary", "--data-ascii", "--data-urlencode":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			data = append(data, v)
			i += 2

		case "--json":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			data = append(data, v)
			parsed.setDefaultHeader("Content-Type", "application/json")
			parsed.setDefaultHeader("Accept", "application/json")
			i += 2

		case "-u", "--user":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.BasicAuth = v
			i += 2

		case "-I", "--head":
			parsed.Method = "HEAD"
			explicitMethod = true
			i++

		case "-k", "--insecure":
			parsed.Insecure = true
			i++

		case "-L", "--location":
			parsed.FollowRedirects = true
			i++

		case "-A", "--user-agent", "-e", "--referer", "-b", "--cookie":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Headers = append(parsed.Headers, http.Header{Key: flagHeaders[token], Value: v})
			i += 2

		case "--url":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.URL = v
			i += 2

		default:
			switch {
			case strings.HasPrefix(token, "-"):
				// Skip unknown flags with potential values
				if i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "-") && !isURL(tokens[i+1]) {
					i += 2
				} else {
					i++
				}
			default:
				if parsed.URL == "" && isURL(token) {
					parsed.URL = token
				}
				i++
			}
		}
	}

	if parsed.URL == "" {
		return nil, fmt.Errorf("no URL found in curl command")
	}

	if len(data) > 0 {
		parsed.Body = strings.Join(data, "&")
		if !explicitMethod {
			parsed.Method = "POST"
		}
	}

	parsed.Name = generateName(parsed.URL, parsed.Method)

	return parsed, nil
}

var flagHeaders = map[string]string{
	"-A":           "User-Agent",
	"--user-agent": "User-Agent",
	"-e":           "Referer",
	"--referer":    "Referer",
	"-b":           "Cookie",
	"--cookie":     "Cookie",
}

func (p *ParsedCurl) setDefaultHeader(key, value string) {
	if _, ok := p.Header(key); !ok {
		p.Headers = append(p.Headers, http.Header{Key: key, Value: value})
	}
}

// ToRequest converts a ParsedCurl to a saved request. With auth detection
// on, -u becomes basic auth and a single Authorization: Bearer header
// becomes bearer auth; any other request is marked as inheriting.
func (c *Converter) ToRequest(parsed *ParsedCurl) *collection.SavedRequest {
	req := &collection.SavedRequest{
		Name:   parsed.Name,
		Method: parsed.Method,
		URL:    parsed.URL,
		Body:   parsed.Body,
	}

	headers := append([]http.Header(nil), parsed.Headers...)

	if !c.detectAuth {
		if parsed.BasicAuth != "" {
			applied := auth.Apply(basicAuth(parsed.BasicAuth))
			headers = append(headers, http.Header{Key: "Authorization", Value: applied.Headers["Authorization"]})
		}
		req.Headers = headers
		return req
	}

	if parsed.BasicAuth != "" {
		req.Auth = basicAuth(parsed.BasicAuth)
		req.Headers = headers
		return req
	}

	for i, h := range headers {
		if !strings.EqualFold(h.Key, "Authorization") {
			continue
		}
		scheme, token, ok := strings.Cut(strings.TrimSpace(h.Value), " ")
		token = strings.TrimSpace(token)
		if ok && strings.EqualFold(scheme, "Bearer") && token != "" {
			req.Auth = &auth.RequestAuth{
				Type:   auth.TypeBearer,
				Bearer: []auth.Param{{Key: "token", Value: token, Type: "string"}},
			}
			headers = append(headers[:i], headers[i+1:]...)
		}
		break
	}

	req.Headers = headers
	return req
}

func basicAuth(userinfo string) *auth.RequestAuth {
	user, pass, _ := strings.Cut(userinfo, ":")
	return &auth.RequestAuth{
		Type: auth.TypeBasic,
		Basic: []auth.Param{
			{Key: "username", Value: user, Type: "string"},
			{Key: "password", Value: pass, Type: "string"},
		},
	}
}

// tokenize splits a curl command into tokens, respecting quotes.
func tokenize(cmd string) []string {
	var tokens []string
	var current strings.Builder
	inSingleQuote := false
	inDoubleQuote := false
	escaped := false

	for _, r := range cmd {
		if escaped {
			current.WriteRune(r)
			escaped = false
			continue
		}

		switch r {
		case '\\':
			if inSingleQuote {
				current.WriteRune(r)
			} else {
				escaped = true
			}
		case '\'':
			if !inDoubleQuote {
				inSingleQuote = !inSingleQuote
			} else {
				current.WriteRune(r)
			}
		case '"':
			if !inSingleQuote {
				inDoubleQuote = !inDoubleQuote
			} else {
				current.WriteRune(r)
			}
		case ' ', '\t', '\n':
			if inSingleQuote || inDoubleQuote {
				current.WriteRune(r)
			} else if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// isURL checks if a string looks like a URL.
func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "{{")
}

var urlPathPattern = regexp.MustCompile(`^(?:https?://)?[^/]+(/[^?#]*)?`)

// generateName builds a request name from the method and URL path.
func generateName(url, method string) string {
	matches := urlPathPattern.FindStringSubmatch(url)

	path := "/"
	if len(matches) > 1 && matches[1] != "" {
		path = matches[1]
	}

	path = strings.Trim(path, "/")
	if path == "" {
		path = "root"
	}

	path = strings.ReplaceAll(path, "/", "_")
	path = strings.ReplaceAll(path, "-", "_")

	return strings.ToLower(method) + "_" + path
}
