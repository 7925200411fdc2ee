package http

import (
	"net/url"
	"strings"

	"github.com/abdul-hamid-achik/restvars/packages/auth"
)

// QueryParam is a single URL query parameter.
type QueryParam struct {
	Key      string `json:"key" yaml:"key"`
	Value    string `json:"value" yaml:"value"`
	Disabled bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// URL is a request URL in raw or structured form. When Raw is set the
// structured parts are ignored.
type URL struct {
	Raw      string       `json:"raw,omitempty" yaml:"raw,omitempty"`
	Protocol string       `json:"protocol,omitempty" yaml:"protocol,omitempty"`
	Host     []string     `json:"host,omitempty" yaml:"host,omitempty"`
	Path     []string     `json:"path,omitempty" yaml:"path,omitempty"`
	Query    []QueryParam `json:"query,omitempty" yaml:"query,omitempty"`
}

// RawURL wraps a plain URL string.
func RawURL(raw string) *URL {
	return &URL{Raw: raw}
}

// ParseURL splits a URL string into structured parts. Placeholders are kept
// as written; the Raw form is preserved alongside the parts.
func ParseURL(raw string) *URL {
	u := &URL{Raw: raw}

	rest := raw
	if scheme, after, ok := strings.Cut(rest, "://"); ok {
		u.Protocol = scheme
		rest = after
	}

	rest, query, _ := strings.Cut(rest, "?")
	host, path, _ := strings.Cut(rest, "/")
	if host != "" {
		u.Host = strings.Split(host, ".")
	}
	if path != "" {
		u.Path = strings.Split(path, "/")
	}

	if query != "" {
		for _, pair := range strings.Split(query, "&") {
			if pair == "" {
				continue
			}
			key, value, _ := strings.Cut(pair, "=")
			if v, err := url.QueryUnescape(value); err == nil {
				value = v
			}
			u.Query = append(u.Query, QueryParam{Key: key, Value: value})
		}
	}
	return u
}

// String returns the raw form, or the structured form rebuilt without
// substitution.
func (u *URL) String() string {
	if u == nil {
		return ""
	}
	if u.Raw != "" {
		return u.Raw
	}
	return buildURL(u, func(s string) string { return s })
}

// Header is a request header row. Disabled rows are kept for editing but
// never sent.
type Header struct {
	Key      string `json:"key" yaml:"key"`
	Value    string `json:"value" yaml:"value"`
	Disabled bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// Request is an unresolved request as authored by the user.
type Request struct {
	Name    string            `json:"name,omitempty" yaml:"name,omitempty"`
	Method  string            `json:"method" yaml:"method"`
	URL     *URL              `json:"url,omitempty" yaml:"url,omitempty"`
	Headers []Header          `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body    string            `json:"body,omitempty" yaml:"body,omitempty"`
	Auth    *auth.RequestAuth `json:"auth,omitempty" yaml:"auth,omitempty"`
}

func NewRequest(method, rawURL string) *Request {
	return &Request{
		Method: strings.ToUpper(method),
		URL:    RawURL(rawURL),
	}
}

// SetHeader replaces the first header with the same key (case-insensitive)
// or appends a new one.
func (r *Request) SetHeader(key, value string) *Request {
	for i := range r.Headers {
		if strings.EqualFold(r.Headers[i].Key, key) {
			r.Headers[i].Value = value
			r.Headers[i].Disabled = false
			return r
		}
	}
	r.Headers = append(r.Headers, Header{Key: key, Value: value})
	return r
}

func (r *Request) SetBody(body string) *Request {
	r.Body = body
	return r
}

// EnabledHeaders flattens header rows into a map, skipping disabled rows.
// Later rows win over earlier rows with the same key.
func EnabledHeaders(headers []Header) map[string]string {
	result := make(map[string]string, len(headers))
	for _, h := range headers {
		if h.Disabled {
			continue
		}
		result[h.Key] = h.Value
	}
	return result
}
