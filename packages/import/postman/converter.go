package postman

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/restvars/packages/auth"
	"github.com/abdul-hamid-achik/restvars/packages/collection"
	"github.com/abdul-hamid-achik/restvars/packages/core/env"
	"github.com/abdul-hamid-achik/restvars/packages/http"
)

// Converter converts Postman exports into restvars types.
type Converter struct {
	collectionVariables bool
	warnFunc            env.WarnFunc
}

// Option is a functional option for Converter.
type Option func(*Converter)

// WithCollectionVariables configures whether collection-level variables are
// imported as an environment named after the collection.
func WithCollectionVariables(include bool) Option {
	return func(c *Converter) {
		c.collectionVariables = include
	}
}

// WithWarnFunc sets a function called for every construct that could not
// be imported.
func WithWarnFunc(fn env.WarnFunc) Option {
	return func(c *Converter) {
		c.warnFunc = fn
	}
}

// NewConverter creates a new Postman converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{collectionVariables: true}
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

// ConvertFile reads and converts a collection export.
func (c *Converter) ConvertFile(path string) (*collection.Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return c.Convert(data)
}

// Convert converts a collection export into a single-collection workspace.
func (c *Converter) Convert(data []byte) (*collection.Workspace, error) {
	var pc Collection
	if err := json.Unmarshal(data, &pc); err != nil {
		return nil, fmt.Errorf("failed to parse Postman collection: %w", err)
	}
	if pc.Info.Name == "" && len(pc.Item) == 0 {
		return nil, fmt.Errorf("not a Postman collection: missing info and items")
	}

	name := pc.Info.Name
	if name == "" {
		name = "Imported Collection"
	}

	root := collection.NewCollection(name)
	root.Auth = c.convertAuth(pc.Auth, name)
	c.convertItems(&root, pc.Item, pc.Event)

	ws := &collection.Workspace{
		Name:        name,
		Collections: []collection.Collection{root},
	}

	if c.collectionVariables && len(pc.Variable) > 0 {
		environment := env.Environment{Name: name}
		for _, v := range pc.Variable {
			environment.Variables = append(environment.Variables, env.Variable{
				Key:      v.Key,
				Value:    string(v.Value),
				Disabled: v.Disabled,
			})
		}
		ws.Environments = append(ws.Environments, environment)
	}
	return ws, nil
}

// convertItems fills parent from items. Folder test scripts run before the
// scripts of the requests they contain, so inherited events are prepended.
func (c *Converter) convertItems(parent *collection.Collection, items []Item, inherited []Event) {
	for _, item := range items {
		if item.IsFolder() {
			folder := collection.NewCollection(item.Name)
			folder.Auth = c.convertAuth(item.Auth, item.Name)
			c.convertItems(&folder, item.Item, append(append([]Event(nil), inherited...), item.Event...))
			parent.Collections = append(parent.Collections, folder)
			continue
		}
		if item.Request == nil {
			c.warn("skipping item %q: no request", item.Name)
			continue
		}
		parent.AddRequest(c.convertRequest(item, inherited))
	}
}

func (c *Converter) convertRequest(item Item, inherited []Event) collection.SavedRequest {
	req := item.Request
	saved := collection.SavedRequest{
		Name:       item.Name,
		Method:     strings.ToUpper(req.Method),
		URL:        convertURL(req.URL),
		Auth:       c.convertAuth(req.Auth, item.Name),
		TestScript: testScript(append(append([]Event(nil), inherited...), item.Event...)),
	}
	if saved.Method == "" {
		saved.Method = "GET"
	}

	for _, h := range req.Header {
		saved.Headers = append(saved.Headers, http.Header{Key: h.Key, Value: h.Value, Disabled: h.Disabled})
	}

	if req.Body != nil {
		body, contentType := c.convertBody(req.Body, item.Name)
		saved.Body = body
		if contentType != "" && !hasHeader(saved.Headers, "Content-Type") {
			saved.Headers = append(saved.Headers, http.Header{Key: "Content-Type", Value: contentType})
		}
	}
	return saved
}

// convertURL prefers the raw form. A structured URL without raw text is
// rebuilt with query values left as written so placeholders survive.
func convertURL(u URL) string {
	if u.Raw != "" {
		return u.Raw
	}
	protocol := u.Protocol
	if protocol == "" {
		protocol = "https"
	}
	var b strings.Builder
	b.WriteString(protocol)
	b.WriteString("://")
	b.WriteString(strings.Join(u.Host, "."))
	if path := strings.Join(u.Path, "/"); path != "" {
		b.WriteByte('/')
		b.WriteString(path)
	}
	sep := "?"
	for _, q := range u.Query {
		if q.Disabled {
			continue
		}
		b.WriteString(sep)
		b.WriteString(q.Key)
		b.WriteByte('=')
		b.WriteString(q.Value)
		sep = "&"
	}
	return b.String()
}

func (c *Converter) convertBody(b *Body, itemName string) (string, string) {
	switch b.Mode {
	case "raw":
		return b.Raw, ""
	case "urlencoded":
		var parts []string
		for _, kv := range b.URLEncoded {
			if kv.Disabled {
				continue
			}
			parts = append(parts, kv.Key+"="+kv.Value)
		}
		return strings.Join(parts, "&"), "application/x-www-form-urlencoded"
	case "formdata":
		var parts []string
		for _, fd := range b.FormData {
			if fd.Disabled {
				continue
			}
			if fd.Type == "file" {
				c.warn("%s: skipping form file field %q", itemName, fd.Key)
				continue
			}
			parts = append(parts, fd.Key+"="+fd.Value)
		}
		return strings.Join(parts, "&"), "application/x-www-form-urlencoded"
	case "graphql":
		if b.GraphQL == nil {
			return "", ""
		}
		payload := map[string]any{"query": b.GraphQL.Query}
		if vars := strings.TrimSpace(b.GraphQL.Variables); vars != "" {
			payload["variables"] = json.RawMessage(vars)
		}
		data, err := json.Marshal(payload)
		if err != nil {
			c.warn("%s: invalid graphql variables: %v", itemName, err)
			return b.GraphQL.Query, ""
		}
		return string(data), "application/json"
	case "", "none":
		return "", ""
	default:
		c.warn("%s: unsupported body mode %q", itemName, b.Mode)
		return "", ""
	}
}

// convertAuth maps a Postman auth block. A missing block means inherit.
// Types restvars cannot apply are dropped to inherit with a warning.
func (c *Converter) convertAuth(a *Auth, owner string) *auth.RequestAuth {
	if a == nil {
		return nil
	}
	switch auth.Type(a.Type) {
	case auth.TypeNoAuth:
		return &auth.RequestAuth{Type: auth.TypeNoAuth}
	case auth.TypeBearer:
		return &auth.RequestAuth{Type: auth.TypeBearer, Bearer: convertParams(a.Bearer)}
	case auth.TypeBasic:
		return &auth.RequestAuth{Type: auth.TypeBasic, Basic: convertParams(a.Basic)}
	case auth.TypeAPIKey:
		return &auth.RequestAuth{Type: auth.TypeAPIKey, APIKey: convertParams(a.APIKey)}
	case auth.TypeInherit:
		return nil
	default:
		c.warn("%s: unsupported auth type %q, falling back to inherit", owner, a.Type)
		return nil
	}
}

func convertParams(params []Param) []auth.Param {
	if len(params) == 0 {
		return nil
	}
	result := make([]auth.Param, 0, len(params))
	for _, p := range params {
		typ := p.Type
		if typ == "" {
			typ = "string"
		}
		result = append(result, auth.Param{Key: p.Key, Value: string(p.Value), Type: typ})
	}
	return result
}

func testScript(events []Event) string {
	var blocks []string
	for _, e := range events {
		if e.Listen != "test" {
			continue
		}
		if script := strings.TrimSpace(strings.Join(e.Script.Exec, "\n")); script != "" {
			blocks = append(blocks, script)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func hasHeader(headers []http.Header, key string) bool {
	for _, h := range headers {
		if strings.EqualFold(h.Key, key) {
			return true
		}
	}
	return false
}

// ConvertEnvironmentFile reads and converts an environment export.
func (c *Converter) ConvertEnvironmentFile(path string) (*env.Environment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return c.ConvertEnvironment(data)
}

// ConvertEnvironment converts an environment export. Values without an
// enabled flag are enabled.
func (c *Converter) ConvertEnvironment(data []byte) (*env.Environment, error) {
	var pe Environment
	if err := json.Unmarshal(data, &pe); err != nil {
		return nil, fmt.Errorf("failed to parse Postman environment: %w", err)
	}
	if pe.Name == "" {
		return nil, fmt.Errorf("not a Postman environment: missing name")
	}

	environment := &env.Environment{ID: pe.ID, Name: pe.Name}
	for _, v := range pe.Values {
		if v.Key == "" {
			continue
		}
		environment.Variables = append(environment.Variables, env.Variable{
			Key:      v.Key,
			Value:    string(v.Value),
			Disabled: v.Enabled != nil && !*v.Enabled,
		})
	}
	return environment, nil
}
