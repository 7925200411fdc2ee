package httpfile

import (
	"os"
	"strings"
)

type Parser struct {
	lexer    *Lexer
	curToken Token
	file     *File
}

func NewParser(input string) *Parser {
	p := &Parser{
		lexer: NewLexer(input),
		file:  &File{},
	}
	p.nextToken()
	return p
}

func ParseFile(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(content), path)
}

func Parse(input, filename string) (*File, error) {
	p := NewParser(input)
	p.file.Path = filename
	return p.ParseFile()
}

func (p *Parser) nextToken() {
	p.curToken = p.lexer.NextToken()
	for p.curToken.Type == TokenWhitespace || p.curToken.Type == TokenComment {
		p.curToken = p.lexer.NextToken()
	}
}

func (p *Parser) nextTokenRaw() {
	p.curToken = p.lexer.NextToken()
}

func (p *Parser) skipNewlines() {
	for p.curToken.Type == TokenNewline {
		p.nextToken()
	}
}

// endLine consumes the rest of the current line including its newline.
func (p *Parser) endLine() {
	for p.curToken.Type != TokenNewline && p.curToken.Type != TokenEOF {
		p.nextToken()
	}
	if p.curToken.Type == TokenNewline {
		p.nextToken()
	}
}

func (p *Parser) errorf(msg string) error {
	return &ParseError{
		File:    p.file.Path,
		Line:    p.curToken.Line,
		Column:  p.curToken.Column,
		Message: msg,
	}
}

// ParseFile parses every variable and request. Variables may appear
// anywhere outside a request.
func (p *Parser) ParseFile() (*File, error) {
	p.skipNewlines()

	for p.curToken.Type != TokenEOF {
		switch p.curToken.Type {
		case TokenVariable:
			p.addVariable()
			p.nextToken()
		case TokenRequestSeparator, TokenAnnotation, TokenMethod:
			req, err := p.parseRequest()
			if err != nil {
				return nil, err
			}
			if req != nil {
				p.file.Requests = append(p.file.Requests, req)
			}
			continue
		default:
			p.nextToken()
		}
		p.skipNewlines()
	}

	return p.file, nil
}

func (p *Parser) addVariable() {
	p.file.Variables = append(p.file.Variables, &Variable{
		Name:  p.curToken.Value,
		Value: p.curToken.Literal,
		Line:  p.curToken.Line,
	})
}

// parseRequest returns nil without error for a separator that is not
// followed by a request, e.g. a trailing "###".
func (p *Parser) parseRequest() (*Request, error) {
	req := &Request{Line: p.curToken.Line}

	if p.curToken.Type == TokenRequestSeparator {
		req.Name = p.curToken.Value
		p.nextToken()
		p.skipNewlines()
	}

	for p.curToken.Type == TokenAnnotation || p.curToken.Type == TokenVariable {
		if p.curToken.Type == TokenVariable {
			p.addVariable()
		} else {
			p.parseAnnotation(req)
		}
		p.nextToken()
		p.skipNewlines()
	}

	switch p.curToken.Type {
	case TokenMethod:
	case TokenEOF, TokenRequestSeparator:
		return nil, nil
	default:
		return nil, p.errorf("expected HTTP method, got " + p.curToken.Value)
	}

	req.Method = p.curToken.Value
	req.URL = parseRequestTarget(p.lexer.ReadRestOfLine())
	if req.URL == "" {
		return nil, p.errorf("missing URL after " + req.Method)
	}
	p.nextToken()
	if p.curToken.Type == TokenNewline {
		p.nextToken()
	}

	p.parseHeaderLines(req)
	p.skipNewlines()

	if err := p.parseBody(req); err != nil {
		return nil, err
	}
	p.skipNewlines()

	for p.curToken.Type == TokenBlockStart {
		if err := p.parseBlock(req); err != nil {
			return nil, err
		}
		p.skipNewlines()
	}

	return req, nil
}

// parseRequestTarget drops a trailing HTTP version from a request line.
func parseRequestTarget(line string) string {
	fields := strings.Fields(line)
	if len(fields) > 1 && strings.HasPrefix(strings.ToUpper(fields[len(fields)-1]), "HTTP/") {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

func (p *Parser) parseAnnotation(req *Request) {
	value := p.curToken.Literal

	switch strings.ToLower(p.curToken.Value) {
	case "name":
		req.Name = value
	case "auth":
		parts := strings.Fields(value)
		if len(parts) > 0 {
			req.Auth = &AuthConfig{Scheme: strings.ToLower(parts[0]), Params: parts[1:]}
		}
	case "noauth":
		req.Auth = &AuthConfig{Scheme: "none"}
	}
}

// parseHeaderLines reads "? key = value" query lines and "Key: value"
// header lines until a blank line. A line that is neither starts the body.
func (p *Parser) parseHeaderLines(req *Request) {
	for {
		switch p.curToken.Type {
		case TokenQueryParam:
			if p.curToken.Value != "?" {
				return
			}
			line := p.curToken.Line
			key, value := splitPair(p.lexer.ReadRestOfLine(), "=")
			req.QueryParams = append(req.QueryParams, &QueryParam{Key: key, Value: value, Line: line})
			p.nextToken()
			p.endLine()
		case TokenIdentifier:
			start := p.curToken
			p.nextTokenRaw()
			for p.curToken.Type == TokenWhitespace {
				p.nextTokenRaw()
			}
			if p.curToken.Type != TokenColon {
				p.lexer.seek(start.Offset)
				p.nextToken()
				return
			}
			req.Headers = append(req.Headers, &Header{
				Key:   start.Value,
				Value: p.lexer.ReadRestOfLine(),
				Line:  start.Line,
			})
			p.nextToken()
			p.endLine()
		default:
			return
		}
	}
}

func splitPair(s, sep string) (string, string) {
	key, value, _ := strings.Cut(s, sep)
	return strings.TrimSpace(key), strings.TrimSpace(value)
}

func (p *Parser) parseBody(req *Request) error {
	switch p.curToken.Type {
	case TokenEOF, TokenRequestSeparator:
		return nil
	case TokenBlockStart:
		switch p.curToken.Value {
		case "graphql":
			return p.parseGraphQLBody(req)
		case "multipart":
			line := p.curToken.Line
			raw := p.lexer.ReadRawUntilBlockEnd()
			req.Body = &Body{ContentType: BodyMultipart, Raw: raw, Line: line}
			return p.closeBlock()
		}
		return nil
	case TokenQueryParam:
		if p.curToken.Value == "&" {
			p.parseFormBlockBody(req)
			return nil
		}
	}

	line := p.curToken.Line
	raw := p.lexer.ReadRawFrom(p.curToken.Offset)
	p.nextToken()
	if raw == "" {
		return nil
	}

	body := &Body{Raw: raw, Line: line}
	switch {
	case strings.HasPrefix(raw, "{") || strings.HasPrefix(raw, "["):
		body.ContentType = BodyJSON
	case strings.HasPrefix(raw, "<"):
		body.ContentType = BodyXML
	case strings.Contains(raw, "=") && !strings.Contains(raw, "\n"):
		body.ContentType = BodyForm
	default:
		body.ContentType = BodyRaw
	}
	req.Body = body
	return nil
}

func (p *Parser) parseFormBlockBody(req *Request) {
	line := p.curToken.Line
	var fields []string

	for p.curToken.Type == TokenQueryParam && p.curToken.Value == "&" {
		key, value := splitPair(p.lexer.ReadRestOfLine(), "=")
		fields = append(fields, key+"="+value)
		p.nextToken()
		p.endLine()
		p.skipNewlines()
	}

	req.Body = &Body{
		ContentType: BodyFormBlock,
		Raw:         strings.Join(fields, "&"),
		Line:        line,
	}
}

func (p *Parser) parseGraphQLBody(req *Request) error {
	body := &Body{
		ContentType: BodyGraphQL,
		GraphQL:     &GraphQLBody{},
		Line:        p.curToken.Line,
	}
	body.GraphQL.Query = p.lexer.ReadRawUntilBlockEnd()
	if err := p.closeBlock(); err != nil {
		return err
	}
	p.skipNewlines()

	if p.curToken.Type == TokenBlockStart && p.curToken.Value == "variables" {
		body.GraphQL.Variables = p.lexer.ReadRawUntilBlockEnd()
		if err := p.closeBlock(); err != nil {
			return err
		}
	}

	req.Body = body
	return nil
}

// closeBlock expects the "<<<" the lexer was left on by a raw read.
func (p *Parser) closeBlock() error {
	p.nextToken()
	if p.curToken.Type != TokenBlockEnd {
		return p.errorf("unterminated block, expected <<<")
	}
	p.nextToken()
	return nil
}

// parseBlock handles a ">>>" block after the body. Capture blocks are kept;
// other blocks are recorded in Ignored.
func (p *Parser) parseBlock(req *Request) error {
	kind := p.curToken.Value
	raw := p.lexer.ReadRawUntilBlockEnd()
	if err := p.closeBlock(); err != nil {
		return err
	}

	switch kind {
	case "capture":
		for i, line := range strings.Split(raw, "\n") {
			if c := parseCapture(line); c != nil {
				c.Line = i + 1
				req.Captures = append(req.Captures, c)
			}
		}
	case "", "assert", "assertions":
		req.Ignored = append(req.Ignored, "assertions")
	default:
		req.Ignored = append(req.Ignored, kind)
	}
	return nil
}

// parseCapture reads "name from source". The source is body.<path>,
// body[...], header <name>, status or duration.
func parseCapture(line string) *Capture {
	fields := strings.Fields(line)
	if len(fields) < 3 || !strings.EqualFold(fields[1], "from") {
		return nil
	}

	c := &Capture{Name: fields[0], Source: "body"}
	source := fields[2]
	switch {
	case source == "header" && len(fields) > 3:
		c.Source = "header"
		c.Path = fields[3]
	case source == "status", source == "duration":
		c.Source = source
	case strings.HasPrefix(source, "body."):
		c.Path = strings.TrimPrefix(source, "body.")
	case strings.HasPrefix(source, "body["):
		c.Path = strings.TrimPrefix(source, "body")
	default:
		c.Path = source
	}
	return c
}
