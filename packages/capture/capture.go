package capture

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/restvars/packages/auth"
	"github.com/abdul-hamid-achik/restvars/packages/core/jsondoc"
	"github.com/abdul-hamid-achik/restvars/packages/http"
	"github.com/tidwall/gjson"
)

const (
	DefaultAccessTokenName  = "user_token"
	DefaultRefreshTokenName = "refresh_token"
)

// DefaultFieldFragments are the key fragments that mark a property as a credential.
var DefaultFieldFragments = []string{
	"token",
	"access_token",
	"accessToken",
	"authToken",
	"bearerToken",
	"bearer_token",
	"apiKey",
	"api_key",
	"apikey",
	"api_token",
	"apiToken",
	"jwt",
	"jwtToken",
	"refresh_token",
	"refreshToken",
	"sessionToken",
	"session_token",
}

var (
	accessAliases  = map[string]bool{"token": true, "access_token": true, "accesstoken": true, "authtoken": true}
	refreshAliases = map[string]bool{"refresh_token": true, "refreshtoken": true}
	unsafeNameChar = regexp.MustCompile(`[^a-z0-9]`)
	keySeparators  = strings.NewReplacer("_", "", "-", "", " ", "")
)

// ExtractedToken is a credential candidate found in a response body.
type ExtractedToken struct {
	FieldName     string `json:"fieldName"`
	Value         string `json:"value"`
	JSONPath      string `json:"jsonPath"`
	SuggestedName string `json:"suggestedName"`
}

// Extractor scans responses for credential-shaped fields.
type Extractor struct {
	fragments   []string
	accessName  string
	refreshName string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithFieldFragments adds key fragments to the default set.
func WithFieldFragments(fragments ...string) Option {
	return func(e *Extractor) {
		for _, f := range fragments {
			if n := normalizeKey(f); n != "" {
				e.fragments = append(e.fragments, n)
			}
		}
	}
}

// WithAccessTokenName changes the name suggested for access-token aliases.
func WithAccessTokenName(name string) Option {
	return func(e *Extractor) {
		if name != "" {
			e.accessName = name
		}
	}
}

// WithRefreshTokenName changes the name suggested for refresh-token aliases.
func WithRefreshTokenName(name string) Option {
	return func(e *Extractor) {
		if name != "" {
			e.refreshName = name
		}
	}
}

func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		accessName:  DefaultAccessTokenName,
		refreshName: DefaultRefreshTokenName,
	}
	for _, f := range DefaultFieldFragments {
		e.fragments = append(e.fragments, normalizeKey(f))
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultExtractor = NewExtractor()

// ExtractTokens runs the default extractor.
func ExtractTokens(resp *http.Response) []ExtractedToken {
	return defaultExtractor.Extract(resp)
}

// SuggestName maps a field name to the default variable name.
func SuggestName(field string) string {
	return defaultExtractor.SuggestName(field)
}

// Extract returns the candidates of a 2xx response with a JSON body. Any
// other response yields no candidates.
func (e *Extractor) Extract(resp *http.Response) []ExtractedToken {
	if resp == nil || !resp.IsSuccess() || len(resp.Body) == 0 {
		return nil
	}
	doc, ok := resp.JSON()
	if !ok {
		return nil
	}
	return e.Scan(doc)
}

// Scan walks a parsed document and returns candidates in document order.
func (e *Extractor) Scan(doc gjson.Result) []ExtractedToken {
	var results []ExtractedToken
	switch jsondoc.KindOf(doc) {
	case jsondoc.KindObject:
		e.walkObject(doc, "", &results)
	case jsondoc.KindArray:
		e.walkArray(doc, "", &results)
	}
	return results
}

func (e *Extractor) walkObject(obj gjson.Result, path string, results *[]ExtractedToken) {
	for _, m := range jsondoc.Members(obj) {
		current := m.Key
		if path != "" {
			current = path + "." + m.Key
		}

		switch jsondoc.KindOf(m.Value) {
		case jsondoc.KindString:
			if m.Value.Str != "" && e.matches(m.Key) {
				*results = append(*results, ExtractedToken{
					FieldName:     m.Key,
					Value:         m.Value.Str,
					JSONPath:      current,
					SuggestedName: e.SuggestName(m.Key),
				})
			}
		case jsondoc.KindObject:
			e.walkObject(m.Value, current, results)
		case jsondoc.KindArray:
			e.walkArray(m.Value, current, results)
		}
	}
}

func (e *Extractor) walkArray(arr gjson.Result, path string, results *[]ExtractedToken) {
	for i, item := range jsondoc.Elements(arr) {
		current := path + "[" + strconv.Itoa(i) + "]"
		switch jsondoc.KindOf(item) {
		case jsondoc.KindObject:
			e.walkObject(item, current, results)
		case jsondoc.KindArray:
			e.walkArray(item, current, results)
		}
	}
}

func (e *Extractor) matches(key string) bool {
	normalized := normalizeKey(key)
	for _, f := range e.fragments {
		if strings.Contains(normalized, f) {
			return true
		}
	}
	return false
}

// SuggestName maps a field name to the variable name requests should use.
func (e *Extractor) SuggestName(field string) string {
	lower := strings.ToLower(field)
	switch {
	case accessAliases[lower]:
		return e.accessName
	case refreshAliases[lower]:
		return e.refreshName
	default:
		return unsafeNameChar.ReplaceAllString(lower, "_")
	}
}

func normalizeKey(key string) string {
	return keySeparators.Replace(strings.ToLower(key))
}

// ToDrafts converts candidates into token drafts named by their suggestion.
func ToDrafts(tokens []ExtractedToken) []auth.Draft {
	drafts := make([]auth.Draft, 0, len(tokens))
	for _, t := range tokens {
		drafts = append(drafts, auth.Draft{
			Name:   t.SuggestedName,
			Value:  t.Value,
			Source: auth.SourceExtracted,
		})
	}
	return drafts
}
