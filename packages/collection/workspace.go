package collection

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/restvars/packages/auth"
	"github.com/abdul-hamid-achik/restvars/packages/core/env"
	"gopkg.in/yaml.v3"
)

// ErrRequestNotFound is returned when a request reference matches nothing.
var ErrRequestNotFound = errors.New("request not found")

// Workspace is the on-disk unit: collections plus environments.
type Workspace struct {
	Name         string            `json:"name,omitempty" yaml:"name,omitempty"`
	Collections  []Collection      `json:"collections" yaml:"collections"`
	Environments []env.Environment `json:"environments,omitempty" yaml:"environments,omitempty"`
}

// RequestRef locates a saved request together with its enclosing
// collections, outermost first.
type RequestRef struct {
	Request     *SavedRequest
	Collections []*Collection
}

// Path returns the slash-separated location of the request, e.g. "API/Auth/Login".
func (r RequestRef) Path() string {
	parts := make([]string, 0, len(r.Collections)+1)
	for _, c := range r.Collections {
		parts = append(parts, c.Name)
	}
	parts = append(parts, r.Request.Name)
	return strings.Join(parts, "/")
}

// CollectionAuth returns the auth the request would inherit. Each nested
// collection inherits from its parent unless it sets its own auth.
func (r RequestRef) CollectionAuth() *auth.RequestAuth {
	var inherited *auth.RequestAuth
	for _, c := range r.Collections {
		inherited = auth.Resolve(c.Auth, inherited)
	}
	return inherited
}

// Requests lists every request in the workspace in file order.
func (w *Workspace) Requests() []RequestRef {
	var refs []RequestRef
	for i := range w.Collections {
		collect(&w.Collections[i], nil, &refs)
	}
	return refs
}

func collect(c *Collection, parents []*Collection, refs *[]RequestRef) {
	chain := append(append([]*Collection(nil), parents...), c)
	for i := range c.Requests {
		*refs = append(*refs, RequestRef{Request: &c.Requests[i], Collections: chain})
	}
	for i := range c.Collections {
		collect(&c.Collections[i], chain, refs)
	}
}

// FindRequest looks a request up by ID, by full path, or by name. An
// ambiguous name returns the first match in file order.
func (w *Workspace) FindRequest(ref string) (RequestRef, error) {
	refs := w.Requests()
	for _, match := range []func(RequestRef) bool{
		func(r RequestRef) bool { return r.Request.ID == ref },
		func(r RequestRef) bool { return r.Path() == ref },
		func(r RequestRef) bool { return r.Request.Name == ref },
		func(r RequestRef) bool { return strings.EqualFold(r.Request.Name, ref) },
	} {
		for _, r := range refs {
			if match(r) {
				return r, nil
			}
		}
	}
	return RequestRef{}, fmt.Errorf("%w: %s", ErrRequestNotFound, ref)
}

// Environment returns the named environment, or nil.
func (w *Workspace) Environment(name string) *env.Environment {
	return env.Find(w.Environments, name)
}

// LoadWorkspace reads a YAML (or JSON) workspace file.
func LoadWorkspace(path string) (*Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read workspace: %w", err)
	}
	return ParseWorkspace(data)
}

// ParseWorkspace decodes workspace content.
func ParseWorkspace(data []byte) (*Workspace, error) {
	var w Workspace
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding workspace: %w", err)
	}
	return &w, nil
}

// Marshal encodes the workspace as YAML.
func (w *Workspace) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(w); err != nil {
		return nil, fmt.Errorf("encoding workspace: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the workspace to path as YAML.
func (w *Workspace) Save(path string) error {
	data, err := w.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("cannot write workspace: %w", err)
	}
	return nil
}
