package env

import (
	"regexp"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/restvars/packages/auth"
	"github.com/abdul-hamid-achik/restvars/packages/builtin"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// WarnFunc is a function type for handling warnings
type WarnFunc func(format string, args ...any)

// Resolver substitutes {{name}} placeholders from auth tokens and an
// environment. Tokens take priority over environment variables.
//
// A Resolver is immutable after construction and safe for concurrent use.
type Resolver struct {
	environment *Environment
	tokens      []auth.Token
	dynamic     *builtin.Registry
	warnFunc    WarnFunc
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithWarnFunc sets a function to be called once per unresolved placeholder.
func WithWarnFunc(fn WarnFunc) Option {
	return func(r *Resolver) {
		r.warnFunc = fn
	}
}

// WithDynamicVariables enables $-prefixed dynamic variables. They are only
// consulted after tokens and environment variables.
func WithDynamicVariables(reg *builtin.Registry) Option {
	return func(r *Resolver) {
		r.dynamic = reg
	}
}

// NewResolver creates a resolver over an environment (may be nil) and a
// token list (may be empty).
func NewResolver(environment *Environment, tokens []auth.Token, opts ...Option) *Resolver {
	r := &Resolver{
		environment: environment,
		tokens:      append([]auth.Token(nil), tokens...),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Substitute resolves text against an environment and tokens with default options.
func Substitute(text string, environment *Environment, tokens []auth.Token) string {
	return NewResolver(environment, tokens).Resolve(text)
}

func (r *Resolver) warn(format string, args ...any) {
	if r.warnFunc != nil {
		r.warnFunc(format, args...)
	}
}

// Lookup returns the value a single identifier resolves to.
func (r *Resolver) Lookup(name string) (string, bool) {
	for _, t := range r.tokens {
		if t.Name == name {
			return t.Value, true
		}
	}
	if v, ok := r.environment.Get(name); ok {
		return v, true
	}
	if r.dynamic != nil && strings.HasPrefix(name, "$") {
		return r.dynamic.Lookup(name)
	}
	return "", false
}

// Resolve replaces every resolvable placeholder in text. Placeholders whose
// identifier is neither a token nor an enabled variable are left verbatim.
func (r *Resolver) Resolve(text string) string {
	if text == "" {
		return text
	}

	result := text
	for _, name := range Placeholders(text) {
		value, ok := r.Lookup(name)
		if !ok {
			r.warn("unresolved variable: %s", name)
			continue
		}
		pattern := regexp.MustCompile(`\{\{\s*` + regexp.QuoteMeta(name) + `\s*\}\}`)
		result = pattern.ReplaceAllLiteralString(result, value)
	}
	return result
}

// ResolveAll resolves every value of a map. Keys are left unchanged.
func (r *Resolver) ResolveAll(values map[string]string) map[string]string {
	result := make(map[string]string, len(values))
	for k, v := range values {
		result[k] = r.Resolve(v)
	}
	return result
}

// Unresolved returns the identifiers in text that this resolver cannot resolve.
func (r *Resolver) Unresolved(text string) []string {
	var missing []string
	for _, name := range Placeholders(text) {
		if _, ok := r.Lookup(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// HasUnresolved reports whether text contains a placeholder that cannot be resolved.
func (r *Resolver) HasUnresolved(text string) bool {
	return len(r.Unresolved(text)) > 0
}

// Names returns every identifier the resolver knows, tokens first, without duplicates.
func (r *Resolver) Names() []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, t := range r.tokens {
		add(t.Name)
	}
	for _, v := range r.environment.Enabled() {
		add(v.Key)
	}
	if r.dynamic != nil {
		for _, name := range r.dynamic.Names() {
			add(name)
		}
	}
	return names
}

// Suggest returns known identifiers close to name, best match first.
func (r *Resolver) Suggest(name string) []string {
	candidates := r.Names()
	if len(candidates) == 0 || name == "" {
		return nil
	}

	type scored struct {
		target   string
		distance int
	}
	seen := make(map[string]bool)
	var matches []scored

	for _, rank := range fuzzy.RankFindFold(name, candidates) {
		seen[rank.Target] = true
		matches = append(matches, scored{rank.Target, rank.Distance})
	}

	limit := len(name) / 3
	if limit < 2 {
		limit = 2
	}
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		if d := fuzzy.LevenshteinDistance(strings.ToLower(name), strings.ToLower(c)); d <= limit {
			matches = append(matches, scored{c, d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	result := make([]string, 0, len(matches))
	for _, m := range matches {
		result = append(result, m.target)
	}
	return result
}

// Placeholders returns the distinct trimmed identifiers of text in the
// order they first appear. Blank identifiers are skipped.
func Placeholders(text string) []string {
	matches := variablePattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimSpace(m[1])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
