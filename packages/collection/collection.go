package collection

import (
	"strings"
	"time"

	"github.com/abdul-hamid-achik/restvars/packages/auth"
	"github.com/abdul-hamid-achik/restvars/packages/http"
	"github.com/google/uuid"
)

// SavedRequest is a request stored in a collection.
type SavedRequest struct {
	ID           string            `json:"id" yaml:"id"`
	Name         string            `json:"name" yaml:"name"`
	Method       string            `json:"method" yaml:"method"`
	URL          string            `json:"url" yaml:"url"`
	Body         string            `json:"body,omitempty" yaml:"body,omitempty"`
	Headers      []http.Header     `json:"headers,omitempty" yaml:"headers,omitempty"`
	Auth         *auth.RequestAuth `json:"auth,omitempty" yaml:"auth,omitempty"`
	TestScript   string            `json:"testScript,omitempty" yaml:"testScript,omitempty"`
	CollectionID string            `json:"collectionId,omitempty" yaml:"collectionId,omitempty"`
	CreatedAt    time.Time         `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt    time.Time         `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// Collection groups requests and nested collections under a shared auth.
type Collection struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Auth        *auth.RequestAuth `json:"auth,omitempty" yaml:"auth,omitempty"`
	Requests    []SavedRequest    `json:"requests,omitempty" yaml:"requests,omitempty"`
	Collections []Collection      `json:"collections,omitempty" yaml:"collections,omitempty"`
	CreatedAt   time.Time         `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt   time.Time         `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// NewCollection creates an empty collection with a fresh ID.
func NewCollection(name string) Collection {
	now := time.Now()
	return Collection{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddRequest appends req, assigning an ID and timestamps when missing.
func (c *Collection) AddRequest(req SavedRequest) *SavedRequest {
	now := time.Now()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	if req.UpdatedAt.IsZero() {
		req.UpdatedAt = now
	}
	req.CollectionID = c.ID
	c.Requests = append(c.Requests, req)
	c.UpdatedAt = now
	return &c.Requests[len(c.Requests)-1]
}

// ToRequest converts a saved request into an unresolved http.Request.
func (s *SavedRequest) ToRequest() *http.Request {
	req := &http.Request{
		Name:   s.Name,
		Method: s.Method,
		URL:    http.RawURL(s.URL),
		Body:   s.Body,
		Auth:   s.Auth.Clone(),
	}
	if len(s.Headers) > 0 {
		req.Headers = append([]http.Header(nil), s.Headers...)
	}
	return req
}

// FromRequest converts an http.Request into a saved request without
// identity or timestamps.
func FromRequest(req *http.Request, name, collectionID string) SavedRequest {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = "GET"
	}
	saved := SavedRequest{
		Name:         name,
		Method:       method,
		URL:          req.URL.String(),
		Body:         req.Body,
		Auth:         req.Auth.Clone(),
		CollectionID: collectionID,
	}
	if len(req.Headers) > 0 {
		saved.Headers = append([]http.Header(nil), req.Headers...)
	}
	return saved
}
