package http

import (
	"net/url"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/restvars/packages/auth"
	"github.com/abdul-hamid-achik/restvars/packages/core/env"
	"github.com/abdul-hamid-achik/restvars/packages/core/jsondoc"
)

// encodeURIComponent leaves these characters unescaped, url.QueryEscape does not.
var componentUnescapes = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeComponent percent-encodes a query value the way browsers encode
// URI components.
func EncodeComponent(s string) string {
	return componentUnescapes.Replace(url.QueryEscape(s))
}

// ResolveURL materializes a request URL. A raw URL is substituted directly.
// A structured URL is rebuilt first: disabled query parameters and parameters
// with an empty value are dropped, keys and values are substituted, values
// are percent-encoded, and the rebuilt string is substituted once more.
func ResolveURL(u *URL, r *env.Resolver) string {
	if u == nil {
		return ""
	}
	if u.Raw != "" {
		return r.Resolve(u.Raw)
	}
	return r.Resolve(buildURL(u, r.Resolve))
}

func buildURL(u *URL, resolve func(string) string) string {
	protocol := u.Protocol
	if protocol == "" {
		protocol = "http"
	}

	var b strings.Builder
	b.WriteString(protocol)
	b.WriteString("://")
	b.WriteString(strings.Join(u.Host, "."))

	if path := strings.Join(u.Path, "/"); path != "" {
		b.WriteByte('/')
		b.WriteString(path)
	}

	var pairs []string
	for _, q := range u.Query {
		if q.Disabled || q.Value == "" {
			continue
		}
		pairs = append(pairs, resolve(q.Key)+"="+EncodeComponent(resolve(q.Value)))
	}
	if len(pairs) > 0 {
		b.WriteByte('?')
		b.WriteString(strings.Join(pairs, "&"))
	}
	return b.String()
}

// ResolveBody substitutes placeholders in a request body. JSON bodies are
// walked recursively and only string values are substituted; the result is
// re-serialized compactly. Anything else is treated as plain text.
func ResolveBody(body string, r *env.Resolver) string {
	if body == "" {
		return ""
	}
	if resolved, ok := jsondoc.MapStrings(body, r.Resolve); ok {
		return resolved
	}
	return r.Resolve(body)
}

// ResolveHeaders substitutes both key and value of every header. Keys are
// visited in sorted order, so when two keys resolve to the same name the
// lexically last original key wins.
func ResolveHeaders(headers map[string]string, r *env.Resolver) map[string]string {
	result := make(map[string]string, len(headers))
	if len(headers) == 0 {
		return result
	}

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		result[r.Resolve(k)] = r.Resolve(headers[k])
	}
	return result
}

// ResolveAuth returns a copy of a with every bearer, basic and apikey
// parameter value substituted. Keys, parameter types and the auth type are
// left as they are.
func ResolveAuth(a *auth.RequestAuth, r *env.Resolver) *auth.RequestAuth {
	if a == nil {
		return nil
	}

	resolved := a.Clone()
	for _, params := range [][]auth.Param{resolved.Bearer, resolved.Basic, resolved.APIKey} {
		for i := range params {
			params[i].Value = r.Resolve(params[i].Value)
		}
	}
	return resolved
}

// Prepared is a request ready for dispatch.
type Prepared struct {
	Method        string            `json:"method"`
	URL           string            `json:"url"`
	Headers       map[string]string `json:"headers"`
	Body          string            `json:"body,omitempty"`
	Auth          *auth.RequestAuth `json:"auth,omitempty"`
	AuthInherited bool              `json:"authInherited"`
}

// Prepare picks the effective auth for req, resolves every surface and
// applies the auth to headers or query. Explicit request headers are never
// overridden by auth.
func Prepare(req *Request, collectionAuth *auth.RequestAuth, r *env.Resolver) *Prepared {
	effective := auth.Resolve(req.Auth, collectionAuth)

	p := &Prepared{
		Method:        strings.ToUpper(req.Method),
		URL:           ResolveURL(req.URL, r),
		Headers:       ResolveHeaders(EnabledHeaders(req.Headers), r),
		Body:          ResolveBody(req.Body, r),
		Auth:          ResolveAuth(effective, r),
		AuthInherited: auth.IsInherited(req.Auth, collectionAuth),
	}
	if p.Method == "" {
		p.Method = "GET"
	}

	applied := auth.Apply(p.Auth)
	for k, v := range applied.Headers {
		if !hasHeader(p.Headers, k) {
			p.Headers[k] = v
		}
	}
	if len(applied.Query) > 0 {
		p.URL = appendQuery(p.URL, applied.Query)
	}
	return p
}

func hasHeader(headers map[string]string, key string) bool {
	for k := range headers {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

func appendQuery(rawURL string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, EncodeComponent(k)+"="+EncodeComponent(params[k]))
	}

	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + strings.Join(pairs, "&")
}
