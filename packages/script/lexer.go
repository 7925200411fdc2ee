package script

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// The final rule matches any remaining character, so lexing never fails.
var scriptLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*|/\*[\s\S]*?\*/`},
	{Name: "String", Pattern: `"(?:[^"\\\n]|\\.)*"|'(?:[^'\\\n]|\\.)*'`},
	{Name: "Template", Pattern: "`(?:[^`\\\\]|\\\\.)*`"},
	{Name: "Ident", Pattern: `[A-Za-z_$][A-Za-z0-9_$]*`},
	{Name: "Number", Pattern: `[0-9]+(?:\.[0-9]+)?`},
	{Name: "Punct", Pattern: `[.,()]`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Other", Pattern: `.`},
})

var (
	tokComment    = scriptLexer.Symbols()["Comment"]
	tokString     = scriptLexer.Symbols()["String"]
	tokIdent      = scriptLexer.Symbols()["Ident"]
	tokPunct      = scriptLexer.Symbols()["Punct"]
	tokWhitespace = scriptLexer.Symbols()["Whitespace"]
)

// tokenize returns the script's tokens without comments and without the
// trailing EOF token.
func tokenize(script string) []lexer.Token {
	lex, err := scriptLexer.LexString("", script)
	if err != nil {
		return nil
	}
	all, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil
	}

	tokens := make([]lexer.Token, 0, len(all))
	for _, t := range all {
		if t.EOF() || t.Type == tokComment {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}
