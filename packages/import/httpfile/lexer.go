package httpfile

import (
	"strings"
	"unicode"
)

type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNewline
	TokenWhitespace
	TokenComment
	TokenRequestSeparator
	TokenMethod
	TokenVariable
	TokenVariableRef
	TokenAnnotation
	TokenBlockStart
	TokenBlockEnd
	TokenColon
	TokenEquals
	TokenQueryParam
	TokenIdentifier
	TokenText
)

// Token is a lexical unit. Offset is the byte index of its first character,
// which lets the parser switch to raw reads for bodies and blocks.
type Token struct {
	Type    TokenType
	Value   string
	Literal string
	Line    int
	Column  int
	Offset  int
}

type Lexer struct {
	input   string
	pos     int
	readPos int
	ch      byte
	line    int
	column  int
}

func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
	}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.column++
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
}

// seek moves the lexer so that the next token starts at pos.
func (l *Lexer) seek(pos int) {
	before := l.input[:pos]
	l.line = 1 + strings.Count(before, "\n")
	l.column = pos - (strings.LastIndexByte(before, '\n') + 1)
	l.readPos = pos
	l.readChar()
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) peekChars(n int) string {
	end := l.pos + n
	if end > len(l.input) {
		end = len(l.input)
	}
	return l.input[l.pos:end]
}

func (l *Lexer) NextToken() Token {
	tok := Token{Line: l.line, Column: l.column, Offset: l.pos}

	switch l.ch {
	case 0:
		tok.Type = TokenEOF
		tok.Offset = len(l.input)
		return tok
	case '\n':
		tok.Type = TokenNewline
		tok.Value = "\n"
		l.readChar()
		return tok
	case '\r':
		l.readChar()
		if l.ch == '\n' {
			l.readChar()
		}
		tok.Type = TokenNewline
		tok.Value = "\n"
		return tok
	case '#':
		if l.peekChars(3) == "###" {
			return l.readRequestSeparator(tok)
		}
		if l.isAnnotationLine() {
			return l.readCommentAnnotation(tok)
		}
		return l.readLineComment(tok)
	case '/':
		if l.peekChar() == '/' && l.column == 1 {
			return l.readLineComment(tok)
		}
	case '@':
		return l.readAnnotationOrVariable(tok)
	case ':':
		tok.Type = TokenColon
		tok.Value = ":"
		l.readChar()
		return tok
	case '=':
		tok.Type = TokenEquals
		tok.Value = "="
		l.readChar()
		return tok
	case '>':
		if l.peekChars(3) == ">>>" {
			return l.readBlockStart(tok)
		}
	case '<':
		if l.peekChars(3) == "<<<" {
			l.readChar()
			l.readChar()
			l.readChar()
			tok.Type = TokenBlockEnd
			tok.Value = "<<<"
			return tok
		}
	case '{':
		if l.peekChar() == '{' {
			return l.readVariableRef(tok)
		}
	case '?', '&':
		tok.Type = TokenQueryParam
		tok.Value = string(l.ch)
		l.readChar()
		l.skipWhitespaceInLine()
		return tok
	case ' ', '\t':
		tok.Type = TokenWhitespace
		tok.Value = l.readWhile(func(c byte) bool { return c == ' ' || c == '\t' })
		return tok
	}

	if isLetter(l.ch) {
		ident := l.readIdentifier()
		tok.Type = TokenIdentifier
		tok.Value = ident
		if upper := strings.ToUpper(ident); isHTTPMethod(upper) {
			tok.Type = TokenMethod
			tok.Value = upper
		}
		return tok
	}

	tok.Type = TokenText
	tok.Value = string(l.ch)
	l.readChar()
	return tok
}

func (l *Lexer) readRequestSeparator(tok Token) Token {
	for l.ch == '#' {
		l.readChar()
	}
	tok.Type = TokenRequestSeparator
	tok.Value = strings.TrimSpace(l.readToEndOfLine())
	return tok
}

func (l *Lexer) readLineComment(tok Token) Token {
	tok.Type = TokenComment
	tok.Value = strings.TrimSpace(strings.TrimLeft(l.readToEndOfLine(), "#/"))
	return tok
}

// isAnnotationLine reports whether the comment at the current position is
// "# @something".
func (l *Lexer) isAnnotationLine() bool {
	rest := strings.TrimLeft(l.input[l.pos:], "# \t")
	return strings.HasPrefix(rest, "@")
}

func (l *Lexer) readCommentAnnotation(tok Token) Token {
	for l.ch == '#' || l.ch == ' ' || l.ch == '\t' {
		l.readChar()
	}
	return l.readAnnotationOrVariable(tok)
}

// readAnnotationOrVariable reads "@name = value" as a variable and
// "@name value" as an annotation.
func (l *Lexer) readAnnotationOrVariable(tok Token) Token {
	l.readChar()
	tok.Value = l.readIdentifier()

	l.skipWhitespaceInLine()
	tok.Type = TokenAnnotation
	if l.ch == '=' {
		l.readChar()
		tok.Type = TokenVariable
	}
	tok.Literal = strings.TrimSpace(l.readToEndOfLine())
	return tok
}

func (l *Lexer) readBlockStart(tok Token) Token {
	l.readChar()
	l.readChar()
	l.readChar()
	tok.Type = TokenBlockStart
	tok.Value = strings.ToLower(strings.TrimSpace(l.readToEndOfLine()))
	return tok
}

func (l *Lexer) readVariableRef(tok Token) Token {
	l.readChar()
	l.readChar()
	var builder strings.Builder
	for l.ch != 0 && !(l.ch == '}' && l.peekChar() == '}') {
		builder.WriteByte(l.ch)
		l.readChar()
	}
	if l.ch == '}' {
		l.readChar()
		l.readChar()
	}
	tok.Type = TokenVariableRef
	tok.Value = builder.String()
	return tok
}

func (l *Lexer) readIdentifier() string {
	return l.readWhile(func(c byte) bool {
		return isLetter(c) || isDigit(c) || c == '_' || c == '-' || c == '.'
	})
}

func (l *Lexer) readWhile(ok func(byte) bool) string {
	start := l.pos
	for l.ch != 0 && ok(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

func (l *Lexer) readToEndOfLine() string {
	return l.readWhile(func(c byte) bool { return c != '\n' && c != '\r' })
}

func (l *Lexer) skipWhitespaceInLine() {
	for l.ch == ' ' || l.ch == '\t' {
		l.readChar()
	}
}

// ReadRestOfLine returns the remainder of the current line, trimmed.
func (l *Lexer) ReadRestOfLine() string {
	return strings.TrimSpace(l.readToEndOfLine())
}

// ReadRawUntilBlockEnd returns the text up to the next "<<<" and leaves the
// lexer on it.
func (l *Lexer) ReadRawUntilBlockEnd() string {
	start := l.pos
	end := len(l.input)
	if i := strings.Index(l.input[start:], "<<<"); i >= 0 {
		end = start + i
	}
	l.seek(end)
	return strings.TrimSpace(l.input[start:end])
}

// ReadRawFrom returns the text from offset up to the next line that starts
// a request ("###") or a block (">>>"), and leaves the lexer there.
func (l *Lexer) ReadRawFrom(offset int) string {
	end := len(l.input)
	for i := offset; i < len(l.input); {
		lineEnd := len(l.input)
		if j := strings.IndexByte(l.input[i:], '\n'); j >= 0 {
			lineEnd = i + j
		}
		if i > offset {
			line := strings.TrimLeft(l.input[i:lineEnd], " \t")
			if strings.HasPrefix(line, "###") || strings.HasPrefix(line, ">>>") {
				end = i
				break
			}
		}
		i = lineEnd + 1
	}
	l.seek(end)
	return strings.TrimSpace(l.input[offset:end])
}

func isLetter(ch byte) bool {
	return unicode.IsLetter(rune(ch)) || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHTTPMethod(s string) bool {
	switch s {
	case "GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS", "TRACE", "CONNECT":
		return true
	}
	return false
}
