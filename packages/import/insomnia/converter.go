// Package insomnia converts Insomnia v4 exports into a restvars workspace.
package insomnia

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/restvars/packages/auth"
	"github.com/abdul-hamid-achik/restvars/packages/collection"
	"github.com/abdul-hamid-achik/restvars/packages/core/env"
	"github.com/abdul-hamid-achik/restvars/packages/core/jsondoc"
	"github.com/abdul-hamid-achik/restvars/packages/http"
	"github.com/tidwall/gjson"
)

const (
	typeWorkspace    = "workspace"
	typeRequestGroup = "request_group"
	typeRequest      = "request"
	typeEnvironment  = "environment"
)

// Converter converts Insomnia exports to restvars workspaces.
type Converter struct {
	environments bool
	warnFunc     env.WarnFunc
}

// Option is a functional option for Converter.
type Option func(*Converter)

// WithEnvironments configures whether environment resources are imported.
func WithEnvironments(include bool) Option {
	return func(c *Converter) {
		c.environments = include
	}
}

// WithWarnFunc sets a function called for every resource that could not be
// imported as written.
func WithWarnFunc(fn env.WarnFunc) Option {
	return func(c *Converter) {
		c.warnFunc = fn
	}
}

// NewConverter creates a new Insomnia converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		environments: true,
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

// Export represents an Insomnia export file.
type Export struct {
	Type         string     `json:"_type"`
	ExportFormat int        `json:"__export_format"`
	Resources    []Resource `json:"resources"`
}

// Resource represents an Insomnia resource (request, folder, environment, etc).
type Resource struct {
	ID             string          `json:"_id"`
	Type           string          `json:"_type"`
	ParentID       string          `json:"parentId"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	MetaSortKey    float64         `json:"metaSortKey,omitempty"`
	Method         string          `json:"method,omitempty"`
	URL            string          `json:"url,omitempty"`
	Headers        []Header        `json:"headers,omitempty"`
	Body           *Body           `json:"body,omitempty"`
	Parameters     []Parameter     `json:"parameters,omitempty"`
	Authentication *Auth           `json:"authentication,omitempty"`
	Data           json.RawMessage `json:"data,omitempty"`
}

// Header represents an Insomnia header.
type Header struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Body represents an Insomnia request body.
type Body struct {
	MimeType string      `json:"mimeType,omitempty"`
	Text     string      `json:"text,omitempty"`
	Params   []Parameter `json:"params,omitempty"`
}

// Parameter represents an Insomnia query or form parameter.
type Parameter struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Auth represents Insomnia authentication.
type Auth struct {
	Type     string `json:"type"`
	Disabled bool   `json:"disabled,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Token    string `json:"token,omitempty"`
	Prefix   string `json:"prefix,omitempty"`
	Key      string `json:"key,omitempty"`
	Value    string `json:"value,omitempty"`
	AddTo    string `json:"addTo,omitempty"`
}

// ConvertFile converts an Insomnia export file to a workspace.
func (c *Converter) ConvertFile(path string) (*collection.Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return c.Convert(data)
}

// Convert converts Insomnia export JSON to a workspace. Every Insomnia
// workspace becomes a top-level collection and every folder a nested one.
// Resources whose parent is unknown land in a collection named "Imported".
func (c *Converter) Convert(data []byte) (*collection.Workspace, error) {
	var export Export
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to parse Insomnia export: %w", err)
	}
	if export.Type != "" && export.Type != "export" {
		return nil, fmt.Errorf("not an Insomnia export: _type is %q", export.Type)
	}

	children := make(map[string][]Resource)
	known := make(map[string]bool)
	var roots []Resource
	var environments []Resource

	for _, res := range export.Resources {
		switch res.Type {
		case typeWorkspace:
			roots = append(roots, res)
			known[res.ID] = true
		case typeRequestGroup:
			known[res.ID] = true
			children[res.ParentID] = append(children[res.ParentID], res)
		case typeRequest:
			children[res.ParentID] = append(children[res.ParentID], res)
		case typeEnvironment:
			environments = append(environments, res)
		}
	}

	ws := &collection.Workspace{}
	for _, root := range roots {
		col := collection.NewCollection(root.Name)
		c.fill(&col, root.ID, children)
		ws.Collections = append(ws.Collections, col)
	}

	var orphanParents []string
	for parentID := range children {
		if !known[parentID] {
			orphanParents = append(orphanParents, parentID)
		}
	}
	sort.Strings(orphanParents)

	orphans := collection.NewCollection("Imported")
	for _, parentID := range orphanParents {
		c.fill(&orphans, parentID, children)
	}
	if len(orphans.Requests) > 0 || len(orphans.Collections) > 0 {
		ws.Collections = append(ws.Collections, orphans)
	}

	if len(roots) > 0 {
		ws.Name = roots[0].Name
	} else {
		ws.Name = "Insomnia"
	}

	if c.environments {
		ws.Environments = c.convertEnvironments(environments)
	}

	return ws, nil
}

// fill adds the folders and requests under parentID to col, ordered by
// metaSortKey the way Insomnia displays them.
func (c *Converter) fill(col *collection.Collection, parentID string, children map[string][]Resource) {
	group := append([]Resource(nil), children[parentID]...)
	sort.SliceStable(group, func(i, j int) bool {
		return group[i].MetaSortKey < group[j].MetaSortKey
	})

	for _, res := range group {
		switch res.Type {
		case typeRequestGroup:
			folder := collection.NewCollection(res.Name)
			folder.Auth = c.convertAuth(res.Authentication, res.Name)
			c.fill(&folder, res.ID, children)
			col.Collections = append(col.Collections, folder)
		case typeRequest:
			col.AddRequest(c.convertRequest(res))
		}
	}
}

func (c *Converter) convertRequest(res Resource) collection.SavedRequest {
	req := collection.SavedRequest{
		Name:   res.Name,
		Method: strings.ToUpper(res.Method),
		URL:    convertVariable(res.URL),
		Auth:   c.convertAuth(res.Authentication, res.Name),
	}
	if req.Method == "" {
		req.Method = "GET"
	}

	var query []string
	for _, p := range res.Parameters {
		if p.Disabled {
			continue
		}
		query = append(query, p.Name+"="+convertVariable(p.Value))
	}
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(req.URL, "?") {
			sep = "&"
		}
		req.URL += sep + strings.Join(query, "&")
	}

	for _, h := range res.Headers {
		req.Headers = append(req.Headers, http.Header{
			Key:      h.Name,
			Value:    convertVariable(h.Value),
			Disabled: h.Disabled,
		})
	}

	if res.Body != nil {
		switch {
		case res.Body.Text != "":
			req.Body = convertVariable(res.Body.Text)
		case len(res.Body.Params) > 0:
			var form []string
			for _, p := range res.Body.Params {
				if p.Disabled {
					continue
				}
				form = append(form, p.Name+"="+convertVariable(p.Value))
			}
			req.Body = strings.Join(form, "&")
		}
		if res.Body.MimeType != "" && !hasHeader(req.Headers, "Content-Type") && req.Body != "" {
			req.Headers = append(req.Headers, http.Header{Key: "Content-Type", Value: res.Body.MimeType})
		}
	}

	return req
}

// convertAuth maps Insomnia authentication. An empty or missing block means
// inherit; a disabled block means no auth.
func (c *Converter) convertAuth(a *Auth, owner string) *auth.RequestAuth {
	if a == nil || a.Type == "" {
		return nil
	}
	if a.Disabled || a.Type == "none" {
		return &auth.RequestAuth{Type: auth.TypeNoAuth}
	}

	param := func(key, value string) auth.Param {
		return auth.Param{Key: key, Value: convertVariable(value), Type: "string"}
	}

	switch a.Type {
	case "bearer":
		if a.Prefix != "" && !strings.EqualFold(a.Prefix, "Bearer") {
			c.warn("%s: bearer prefix %q replaced with Bearer", owner, a.Prefix)
		}
		return &auth.RequestAuth{Type: auth.TypeBearer, Bearer: []auth.Param{param("token", a.Token)}}
	case "basic":
		return &auth.RequestAuth{Type: auth.TypeBasic, Basic: []auth.Param{
			param("username", a.Username),
			param("password", a.Password),
		}}
	case "apikey":
		in := "header"
		if a.AddTo == "queryParams" {
			in = "query"
		}
		return &auth.RequestAuth{Type: auth.TypeAPIKey, APIKey: []auth.Param{
			param("key", a.Key),
			param("value", a.Value),
			param("in", in),
		}}
	default:
		c.warn("%s: unsupported auth type %q, falling back to inherit", owner, a.Type)
		return nil
	}
}

// convertEnvironments returns the base environment followed by each
// sub-environment. Sub-environments carry the base variables after their
// own, so their values take precedence.
func (c *Converter) convertEnvironments(resources []Resource) []env.Environment {
	byID := make(map[string]*env.Environment, len(resources))
	for _, res := range resources {
		e := &env.Environment{ID: res.ID, Name: res.Name}
		if len(res.Data) > 0 {
			doc, ok := jsondoc.Parse(string(res.Data))
			if !ok || jsondoc.KindOf(doc) != jsondoc.KindObject {
				c.warn("environment %q: data is not a JSON object", res.Name)
			} else {
				flatten(e, "", doc)
			}
		}
		byID[res.ID] = e
	}

	var result []env.Environment
	for _, res := range resources {
		e := byID[res.ID]
		if parent, ok := byID[res.ParentID]; ok {
			e = env.Merge(e.Name, e, parent)
			e.ID = res.ID
		}
		result = append(result, *e)
	}
	return result
}

// flatten stores nested objects as dotted keys, matching {{ _.a.b }}.
func flatten(e *env.Environment, prefix string, obj gjson.Result) {
	for _, m := range jsondoc.Members(obj) {
		key := m.Key
		if prefix != "" {
			key = prefix + "." + m.Key
		}
		switch jsondoc.KindOf(m.Value) {
		case jsondoc.KindObject:
			flatten(e, key, m.Value)
		case jsondoc.KindString:
			e.Variables = append(e.Variables, env.Variable{Key: key, Value: convertVariable(m.Value.Str)})
		case jsondoc.KindNull:
			e.Variables = append(e.Variables, env.Variable{Key: key})
		default:
			e.Variables = append(e.Variables, env.Variable{Key: key, Value: m.Value.Raw})
		}
	}
}

func hasHeader(headers []http.Header, key string) bool {
	for _, h := range headers {
		if strings.EqualFold(h.Key, key) {
			return true
		}
	}
	return false
}

var (
	insomniaVariable = regexp.MustCompile(`\{\{\s*_\.([\w.]+)\s*\}\}`)
	paddedVariable   = regexp.MustCompile(`\{\{\s*([\w.$]+)\s*\}\}`)
)

// convertVariable rewrites Insomnia's {{ _.name }} syntax to {{name}} and
// trims padding inside other placeholders.
func convertVariable(s string) string {
	s = insomniaVariable.ReplaceAllString(s, "{{$1}}")
	return paddedVariable.ReplaceAllString(s, "{{$1}}")
}
