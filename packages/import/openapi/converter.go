// Package openapi converts OpenAPI 3 documents into a restvars workspace.
//
// Security schemes become collection auth whose parameters are placeholders,
// so the credential itself comes from a stored token at resolve time.
package openapi

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/restvars/packages/auth"
	"github.com/abdul-hamid-achik/restvars/packages/collection"
	"github.com/abdul-hamid-achik/restvars/packages/core/env"
	"github.com/abdul-hamid-achik/restvars/packages/http"
	"github.com/getkin/kin-openapi/openapi3"
)

// BaseURLVariable is the environment variable every imported URL starts with.
const BaseURLVariable = "baseUrl"

const defaultTokenName = "user_token"

var (
	pathParamPattern  = regexp.MustCompile(`\{([^{}]+)\}`)
	nonIdentCharacter = regexp.MustCompile(`[^A-Za-z0-9_]+`)
	underscoreRun     = regexp.MustCompile(`_{2,}`)
)

// Converter converts OpenAPI documents to restvars workspaces.
type Converter struct {
	baseURL     string
	tokenName   string
	includeTags []string
	excludeTags []string
	includeOnly []string
	warnFunc    env.WarnFunc
}

// Option is a functional option for Converter.
type Option func(*Converter)

// WithBaseURL overrides the base URL taken from the document's servers.
func WithBaseURL(url string) Option {
	return func(c *Converter) {
		c.baseURL = url
	}
}

// WithTokenName sets the placeholder used for bearer and oauth2 schemes.
func WithTokenName(name string) Option {
	return func(c *Converter) {
		if name != "" {
			c.tokenName = name
		}
	}
}

// WithTags keeps only operations carrying one of tags.
func WithTags(tags []string) Option {
	return func(c *Converter) {
		c.includeTags = tags
	}
}

// WithExcludeTags drops operations carrying one of tags.
func WithExcludeTags(tags []string) Option {
	return func(c *Converter) {
		c.excludeTags = tags
	}
}

// WithOperations keeps only the given operation IDs.
func WithOperations(ops []string) Option {
	return func(c *Converter) {
		c.includeOnly = ops
	}
}

// WithWarnFunc sets a function called for validation problems and
// security schemes that cannot be expressed as request auth.
func WithWarnFunc(fn env.WarnFunc) Option {
	return func(c *Converter) {
		c.warnFunc = fn
	}
}

// NewConverter creates a new OpenAPI converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		tokenName: defaultTokenName,
	}
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

// ConvertFile loads a JSON or YAML document from path and converts it.
func (c *Converter) ConvertFile(path string) (*collection.Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read OpenAPI document: %w", err)
	}
	return c.ConvertData(data)
}

// ConvertData parses a JSON or YAML document and converts it.
func (c *Converter) ConvertData(data []byte) (*collection.Workspace, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	return c.Convert(doc)
}

// Convert builds a workspace holding one collection named after the
// document title. Tagged operations are grouped into nested collections by
// their first tag. An environment carries the base URL.
func (c *Converter) Convert(doc *openapi3.T) (*collection.Workspace, error) {
	if doc == nil || doc.Paths == nil || doc.Paths.Len() == 0 {
		return nil, fmt.Errorf("invalid OpenAPI document: no paths")
	}
	if err := doc.Validate(context.Background()); err != nil {
		c.warn("OpenAPI validation: %v", err)
	}

	title := "OpenAPI"
	if doc.Info != nil && doc.Info.Title != "" {
		title = doc.Info.Title
	}

	schemes := openapi3.SecuritySchemes{}
	if doc.Components != nil && doc.Components.SecuritySchemes != nil {
		schemes = doc.Components.SecuritySchemes
	}

	root := collection.NewCollection(title)
	root.Auth = c.securityAuth(doc.Security, schemes)

	groups := make(map[string]int)
	paths := make([]string, 0, doc.Paths.Len())
	for path := range doc.Paths.Map() {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		item := doc.Paths.Value(path)
		if item == nil {
			continue
		}
		for _, method := range methods {
			op := item.GetOperation(method)
			if op == nil || !c.shouldInclude(op) {
				continue
			}

			req := c.convertOperation(path, method, op, item.Parameters, schemes)

			if len(op.Tags) == 0 {
				root.AddRequest(req)
				continue
			}
			idx, ok := groups[op.Tags[0]]
			if !ok {
				root.Collections = append(root.Collections, collection.NewCollection(op.Tags[0]))
				idx = len(root.Collections) - 1
				groups[op.Tags[0]] = idx
			}
			root.Collections[idx].AddRequest(req)
		}
	}

	ws := &collection.Workspace{
		Name:        title,
		Collections: []collection.Collection{root},
	}

	baseURL := c.baseURL
	if baseURL == "" {
		baseURL = serverURL(doc.Servers)
	}
	if baseURL != "" {
		e := env.Environment{Name: title}
		e.Set(BaseURLVariable, baseURL)
		ws.Environments = append(ws.Environments, e)
	}
	return ws, nil
}

var methods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}

// serverURL returns the first server URL with its variables replaced by
// their defaults.
func serverURL(servers openapi3.Servers) string {
	if len(servers) == 0 || servers[0] == nil {
		return ""
	}
	s := servers[0]
	u := s.URL
	for name, v := range s.Variables {
		if v != nil {
			u = strings.ReplaceAll(u, "{"+name+"}", v.Default)
		}
	}
	return strings.TrimSuffix(u, "/")
}

func (c *Converter) shouldInclude(op *openapi3.Operation) bool {
	if len(c.includeOnly) > 0 && !contains(c.includeOnly, op.OperationID) {
		return false
	}
	if len(c.includeTags) > 0 && !containsAny(c.includeTags, op.Tags) {
		return false
	}
	if len(c.excludeTags) > 0 && containsAny(c.excludeTags, op.Tags) {
		return false
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsAny(list, values []string) bool {
	for _, v := range values {
		if contains(list, v) {
			return true
		}
	}
	return false
}

func (c *Converter) convertOperation(path, method string, op *openapi3.Operation, shared openapi3.Parameters, schemes openapi3.SecuritySchemes) collection.SavedRequest {
	name := op.Summary
	if name == "" {
		name = op.OperationID
	}
	if name == "" {
		name = placeholderName(strings.ToLower(method) + "_" + path)
	}

	params := append(append(openapi3.Parameters{}, shared...), op.Parameters...)

	var query []string
	var headers []http.Header
	for _, ref := range params {
		if ref == nil || ref.Value == nil {
			continue
		}
		p := ref.Value
		switch p.In {
		case openapi3.ParameterInQuery:
			if p.Required {
				query = append(query, p.Name+"="+c.paramValue(p))
			}
		case openapi3.ParameterInHeader:
			headers = append(headers, http.Header{Key: p.Name, Value: c.paramValue(p)})
		}
	}

	url := "{{" + BaseURLVariable + "}}" + pathParamPattern.ReplaceAllString(path, "{{$1}}")
	if len(query) > 0 {
		url += "?" + strings.Join(query, "&")
	}

	req := collection.SavedRequest{
		Name:    name,
		Method:  method,
		URL:     url,
		Headers: headers,
	}

	if op.RequestBody != nil && op.RequestBody.Value != nil {
		contentType, body := requestBody(op.RequestBody.Value)
		if body != "" {
			req.Body = body
			if !hasHeader(req.Headers, "Content-Type") {
				req.Headers = append(req.Headers, http.Header{Key: "Content-Type", Value: contentType})
			}
		}
	}

	if op.Security != nil {
		if len(*op.Security) == 0 {
			req.Auth = &auth.RequestAuth{Type: auth.TypeNoAuth}
		} else {
			req.Auth = c.securityAuth(*op.Security, schemes)
		}
	}
	return req
}

// paramValue prefers a documented example and falls back to a placeholder
// named after the parameter.
func (c *Converter) paramValue(p *openapi3.Parameter) string {
	if p.Example != nil {
		return fmt.Sprintf("%v", p.Example)
	}
	if p.Schema != nil && p.Schema.Value != nil && p.Schema.Value.Example != nil {
		return fmt.Sprintf("%v", p.Schema.Value.Example)
	}
	return "{{" + placeholderName(p.Name) + "}}"
}

// placeholderName turns name into an identifier with single underscores
// between words, e.g. "get /users/{id}" becomes "get_users_id".
func placeholderName(name string) string {
	name = nonIdentCharacter.ReplaceAllString(name, "_")
	return strings.Trim(underscoreRun.ReplaceAllString(name, "_"), "_")
}

// securityAuth maps the first satisfiable requirement to request auth.
// Requirements are alternatives; only the first scheme of a requirement is
// used.
func (c *Converter) securityAuth(reqs openapi3.SecurityRequirements, schemes openapi3.SecuritySchemes) *auth.RequestAuth {
	for _, req := range reqs {
		names := make([]string, 0, len(req))
		for name := range req {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ref := schemes[name]
			if ref == nil || ref.Value == nil {
				c.warn("security scheme %q is not defined", name)
				continue
			}
			if a := c.schemeAuth(name, ref.Value); a != nil {
				return a
			}
		}
	}
	return nil
}

func (c *Converter) schemeAuth(name string, s *openapi3.SecurityScheme) *auth.RequestAuth {
	param := func(key, value string) auth.Param {
		return auth.Param{Key: key, Value: value, Type: "string"}
	}
	bearer := &auth.RequestAuth{Type: auth.TypeBearer, Bearer: []auth.Param{param("token", "{{"+c.tokenName+"}}")}}

	switch strings.ToLower(s.Type) {
	case "http":
		switch strings.ToLower(s.Scheme) {
		case "bearer":
			return bearer
		case "basic":
			return &auth.RequestAuth{Type: auth.TypeBasic, Basic: []auth.Param{
				param("username", "{{username}}"),
				param("password", "{{password}}"),
			}}
		}
	case "apikey":
		if s.In == "cookie" {
			break
		}
		in := "header"
		if s.In == "query" {
			in = "query"
		}
		return &auth.RequestAuth{Type: auth.TypeAPIKey, APIKey: []auth.Param{
			param("key", s.Name),
			param("value", "{{"+placeholderName(name)+"}}"),
			param("in", in),
		}}
	case "oauth2", "openidconnect":
		return bearer
	}
	c.warn("security scheme %q (%s) cannot be imported", name, s.Type)
	return nil
}

// requestBody returns a content type and an example body. JSON is
// preferred over form encodings.
func requestBody(rb *openapi3.RequestBody) (string, string) {
	types := make([]string, 0, len(rb.Content))
	for ct := range rb.Content {
		types = append(types, ct)
	}
	sort.Strings(types)

	for _, ct := range types {
		media := rb.Content[ct]
		if !strings.Contains(ct, "json") || media == nil {
			continue
		}
		if media.Example != nil {
			if data, err := json.Marshal(media.Example); err == nil {
				return "application/json", string(data)
			}
		}
		if media.Schema != nil && media.Schema.Value != nil {
			data, err := json.Marshal(exampleValue(media.Schema.Value, 0))
			if err == nil {
				return "application/json", string(data)
			}
		}
	}

	for _, ct := range types {
		media := rb.Content[ct]
		if !strings.Contains(ct, "form") || media == nil || media.Schema == nil || media.Schema.Value == nil {
			continue
		}
		if body := formBody(media.Schema.Value); body != "" {
			return "application/x-www-form-urlencoded", body
		}
	}
	return "", ""
}

func schemaType(s *openapi3.Schema) string {
	if s.Type == nil {
		if len(s.Properties) > 0 {
			return "object"
		}
		return ""
	}
	if types := s.Type.Slice(); len(types) > 0 {
		return types[0]
	}
	return ""
}

// exampleValue builds a JSON-marshalable example for s. Recursion stops at
// depth 5.
func exampleValue(s *openapi3.Schema, depth int) any {
	if s == nil || depth > 5 {
		return nil
	}
	if s.Example != nil {
		return s.Example
	}
	if len(s.Enum) > 0 {
		return s.Enum[0]
	}

	switch schemaType(s) {
	case "object":
		obj := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			if prop == nil {
				obj[name] = nil
				continue
			}
			obj[name] = exampleValue(prop.Value, depth+1)
		}
		return obj
	case "array":
		if s.Items != nil && s.Items.Value != nil {
			return []any{exampleValue(s.Items.Value, depth+1)}
		}
		return []any{}
	case "string":
		switch s.Format {
		case "date":
			return "2024-01-01"
		case "date-time":
			return "2024-01-01T00:00:00Z"
		case "email":
			return "user@example.com"
		case "uuid":
			return "{{$guid}}"
		}
		return "example"
	case "integer":
		if s.Min != nil {
			return int64(*s.Min)
		}
		return 1
	case "number":
		if s.Min != nil {
			return *s.Min
		}
		return 1.0
	case "boolean":
		return true
	}
	return nil
}

func formBody(s *openapi3.Schema) string {
	if len(s.Properties) == 0 {
		return ""
	}
	parts := make([]string, 0, len(s.Properties))
	for name, prop := range s.Properties {
		value := "{{" + placeholderName(name) + "}}"
		if prop != nil && prop.Value != nil && prop.Value.Example != nil {
			value = fmt.Sprintf("%v", prop.Value.Example)
		}
		parts = append(parts, name+"="+value)
	}
	sort.Strings(parts)
	return strings.Join(parts, "&")
}

func hasHeader(headers []http.Header, key string) bool {
	for _, h := range headers {
		if strings.EqualFold(h.Key, key) {
			return true
		}
	}
	return false
}
