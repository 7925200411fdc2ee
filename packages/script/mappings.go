package script

import (
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// TokenMapping records that a script wants the value at JSONPath in the
// next JSON response stored as VariableName.
type TokenMapping struct {
	VariableName string `json:"variableName"`
	JSONPath     string `json:"jsonPath"`
}

var jsonDataPattern = regexp.MustCompile(`jsonData\.([a-zA-Z0-9_.]+)`)

var scopeSetters = map[string]bool{
	"collectionVariables": true,
	"environment":         true,
	"globals":             true,
	"variables":           true,
}

var legacySetters = map[string]bool{
	"setEnvironmentVariable": true,
	"setGlobalVariable":      true,
}

// ParseTokenMappings extracts variable assignments from script in source
// order. It never evaluates the script and never fails: text that does not
// form a recognized call yields no mapping. Assignments inside comments or
// string literals are ignored.
func ParseTokenMappings(script string) []TokenMapping {
	if strings.TrimSpace(script) == "" {
		return nil
	}

	s := &scanner{src: script, tokens: tokenize(script)}
	var mappings []TokenMapping
	for s.pos < len(s.tokens) {
		start := s.pos
		if m, ok := s.call(); ok {
			mappings = append(mappings, m)
			continue
		}
		s.pos = start + 1
	}
	return mappings
}

type scanner struct {
	src    string
	tokens []lexer.Token
	pos    int
}

func (s *scanner) peek() (lexer.Token, bool) {
	if s.pos >= len(s.tokens) {
		return lexer.Token{}, false
	}
	return s.tokens[s.pos], true
}

func (s *scanner) accept(typ lexer.TokenType, value string) bool {
	t, ok := s.peek()
	if !ok || t.Type != typ || (value != "" && t.Value != value) {
		return false
	}
	s.pos++
	return true
}

func (s *scanner) acceptIdent(allowed map[string]bool) bool {
	t, ok := s.peek()
	if !ok || t.Type != tokIdent || !allowed[t.Value] {
		return false
	}
	s.pos++
	return true
}

func (s *scanner) skipSpace() {
	for s.accept(tokWhitespace, "") {
	}
}

// setter matches the callee: pm.<scope>.set or postman.set<Scope>Variable.
func (s *scanner) setter() bool {
	t, ok := s.peek()
	if !ok || t.Type != tokIdent {
		return false
	}
	switch t.Value {
	case "pm":
		s.pos++
		return s.accept(tokPunct, ".") &&
			s.acceptIdent(scopeSetters) &&
			s.accept(tokPunct, ".") &&
			s.accept(tokIdent, "set")
	case "postman":
		s.pos++
		return s.accept(tokPunct, ".") && s.acceptIdent(legacySetters)
	}
	return false
}

// call matches setter ( "name" , expr ) and leaves pos after the closing
// parenthesis on success.
func (s *scanner) call() (TokenMapping, bool) {
	if !s.setter() {
		return TokenMapping{}, false
	}
	s.skipSpace()
	if !s.accept(tokPunct, "(") {
		return TokenMapping{}, false
	}
	s.skipSpace()

	nameTok, ok := s.peek()
	if !ok || nameTok.Type != tokString {
		return TokenMapping{}, false
	}
	s.pos++
	name := nameTok.Value[1 : len(nameTok.Value)-1]

	s.skipSpace()
	comma, ok := s.peek()
	if !ok || !s.accept(tokPunct, ",") {
		return TokenMapping{}, false
	}

	exprStart := comma.Pos.Offset + len(comma.Value)
	for s.pos < len(s.tokens) {
		t := s.tokens[s.pos]
		s.pos++
		if t.Type == tokPunct && t.Value == ")" {
			expr := strings.TrimSpace(s.src[exprStart:t.Pos.Offset])
			if name == "" || expr == "" {
				return TokenMapping{}, false
			}
			return TokenMapping{VariableName: name, JSONPath: sourcePath(expr)}, true
		}
	}
	return TokenMapping{}, false
}

// sourcePath returns the path after jsonData. when the expression references
// it, otherwise the expression itself.
func sourcePath(expr string) string {
	path := expr
	if m := jsonDataPattern.FindStringSubmatch(expr); m != nil {
		path = m[1]
	}
	return strings.TrimSpace(strings.TrimSuffix(path, ";"))
}
