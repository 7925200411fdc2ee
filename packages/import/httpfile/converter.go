package httpfile

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/restvars/packages/auth"
	"github.com/abdul-hamid-achik/restvars/packages/collection"
	"github.com/abdul-hamid-achik/restvars/packages/core/env"
	"github.com/abdul-hamid-achik/restvars/packages/http"
)

// Converter converts parsed .http files to restvars workspaces.
type Converter struct {
	collectionName string
	warnFunc       env.WarnFunc
}

// Option is a functional option for Converter.
type Option func(*Converter)

// WithCollectionName overrides the collection name, which defaults to the
// file name without its extension.
func WithCollectionName(name string) Option {
	return func(c *Converter) {
		c.collectionName = name
	}
}

// WithWarnFunc sets a function called for content that has no workspace
// equivalent.
func WithWarnFunc(fn env.WarnFunc) Option {
	return func(c *Converter) {
		c.warnFunc = fn
	}
}

// NewConverter creates a new .http converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Converter) warn(format string, args ...any) {
	if c.warnFunc != nil {
		c.warnFunc(format, args...)
	}
}

// ConvertFile parses and converts the file at path.
func (c *Converter) ConvertFile(path string) (*collection.Workspace, error) {
	file, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return c.Convert(file)
}

// Convert builds a workspace with one collection holding every request and,
// when the file declares variables, one environment with the same name.
func (c *Converter) Convert(file *File) (*collection.Workspace, error) {
	if len(file.Requests) == 0 {
		return nil, fmt.Errorf("no requests found")
	}

	name := c.collectionName
	if name == "" && file.Path != "" {
		base := filepath.Base(file.Path)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if name == "" {
		name = "requests"
	}

	col := collection.NewCollection(name)
	for i, r := range file.Requests {
		col.AddRequest(c.convertRequest(r, i+1))
	}

	ws := &collection.Workspace{Name: name, Collections: []collection.Collection{col}}
	if len(file.Variables) > 0 {
		e := env.Environment{Name: name}
		for _, v := range file.Variables {
			e.Set(v.Name, v.Value)
		}
		ws.Environments = append(ws.Environments, e)
	}
	return ws, nil
}

func (c *Converter) convertRequest(r *Request, index int) collection.SavedRequest {
	name := r.Name
	if name == "" {
		name = "request " + strconv.Itoa(index)
	}

	url := r.URL
	if len(r.QueryParams) > 0 {
		pairs := make([]string, 0, len(r.QueryParams))
		for _, q := range r.QueryParams {
			pairs = append(pairs, q.Key+"="+q.Value)
		}
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url += sep + strings.Join(pairs, "&")
	}

	req := collection.SavedRequest{
		Name:   name,
		Method: r.Method,
		URL:    url,
	}
	for _, h := range r.Headers {
		req.Headers = append(req.Headers, http.Header{Key: h.Key, Value: h.Value})
	}

	if body, contentType := c.convertBody(name, r.Body); body != "" {
		req.Body = body
		if contentType != "" && !hasHeader(req.Headers, "Content-Type") {
			req.Headers = append(req.Headers, http.Header{Key: "Content-Type", Value: contentType})
		}
	}

	req.Auth = c.convertAuth(name, r.Auth)
	req.TestScript = c.captureScript(name, r.Captures)

	for _, kind := range r.Ignored {
		c.warn("%s: %s block is not imported", name, kind)
	}
	return req
}

func (c *Converter) convertBody(name string, b *Body) (string, string) {
	if b == nil {
		return "", ""
	}
	switch b.ContentType {
	case BodyJSON:
		return b.Raw, "application/json"
	case BodyXML:
		return b.Raw, "application/xml"
	case BodyForm, BodyFormBlock:
		return b.Raw, "application/x-www-form-urlencoded"
	case BodyGraphQL:
		payload := struct {
			Query     string          `json:"query"`
			Variables json.RawMessage `json:"variables,omitempty"`
		}{Query: b.GraphQL.Query}
		if vars := strings.TrimSpace(b.GraphQL.Variables); vars != "" {
			if json.Valid([]byte(vars)) {
				payload.Variables = json.RawMessage(vars)
			} else {
				c.warn("%s: graphql variables are not valid JSON, dropped", name)
			}
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return "", ""
		}
		return string(data), "application/json"
	case BodyMultipart:
		c.warn("%s: multipart body is not imported", name)
		return "", ""
	}
	return b.Raw, ""
}

// convertAuth maps an @auth annotation. No annotation inherits the
// collection auth.
func (c *Converter) convertAuth(name string, a *AuthConfig) *auth.RequestAuth {
	if a == nil {
		return nil
	}
	param := func(key, value string) auth.Param {
		return auth.Param{Key: key, Value: value, Type: "string"}
	}
	arg := func(i int) string {
		if i < len(a.Params) {
			return a.Params[i]
		}
		return ""
	}

	switch a.Scheme {
	case "none", "noauth":
		return &auth.RequestAuth{Type: auth.TypeNoAuth}
	case "bearer":
		return &auth.RequestAuth{Type: auth.TypeBearer, Bearer: []auth.Param{param("token", arg(0))}}
	case "basic":
		return &auth.RequestAuth{Type: auth.TypeBasic, Basic: []auth.Param{
			param("username", arg(0)),
			param("password", arg(1)),
		}}
	case "apikey", "apikey-query":
		in := "header"
		if a.Scheme == "apikey-query" {
			in = "query"
		}
		return &auth.RequestAuth{Type: auth.TypeAPIKey, APIKey: []auth.Param{
			param("key", arg(0)),
			param("value", arg(1)),
			param("in", in),
		}}
	}
	c.warn("%s: unsupported auth scheme %q, falling back to inherit", name, a.Scheme)
	return nil
}

// captureScript renders body captures as variable assignments so the
// script mapping parser can read them back.
func (c *Converter) captureScript(name string, captures []*Capture) string {
	var lines []string
	for _, capture := range captures {
		if capture.Source != "body" || capture.Path == "" {
			c.warn("%s: %s capture %q is not imported", name, capture.Source, capture.Name)
			continue
		}
		lines = append(lines, fmt.Sprintf("pm.environment.set(%q, jsonData.%s);", capture.Name, capturePath(capture.Path)))
	}
	if len(lines) == 0 {
		return ""
	}
	return "var jsonData = pm.response.json();\n" + strings.Join(lines, "\n")
}

// capturePath turns body[0].id into 0.id.
func capturePath(path string) string {
	path = strings.NewReplacer("[", ".", "]", "").Replace(path)
	return strings.TrimPrefix(path, ".")
}

func hasHeader(headers []http.Header, key string) bool {
	for _, h := range headers {
		if strings.EqualFold(h.Key, key) {
			return true
		}
	}
	return false
}
