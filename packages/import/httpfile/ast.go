package httpfile

import "strconv"

type File struct {
	Path      string
	Variables []*Variable
	Requests  []*Request
}

type Variable struct {
	Name  string
	Value string
	Line  int
}

type Request struct {
	Name        string
	Method      string
	URL         string
	Headers     []*Header
	QueryParams []*QueryParam
	Body        *Body
	Auth        *AuthConfig
	Captures    []*Capture
	// Ignored lists the kinds of blocks that were read but have no
	// workspace equivalent, e.g. "assertions" or "db".
	Ignored []string
	Line    int
}

// AuthConfig is the raw form of an @auth annotation: a scheme followed by
// whitespace separated parameters.
type AuthConfig struct {
	Scheme string
	Params []string
}

type Header struct {
	Key   string
	Value string
	Line  int
}

type QueryParam struct {
	Key   string
	Value string
	Line  int
}

type Body struct {
	ContentType BodyType
	Raw         string
	GraphQL     *GraphQLBody
	Line        int
}

type BodyType int

const (
	BodyNone BodyType = iota
	BodyJSON
	BodyForm
	BodyFormBlock
	BodyMultipart
	BodyRaw
	BodyXML
	BodyGraphQL
)

type GraphQLBody struct {
	Query     string
	Variables string
}

// Capture stores a response value under Name. Source is "body", "header",
// "status" or "duration"; only body captures have a Path.
type Capture struct {
	Name   string
	Source string
	Path   string
	Line   int
}

type ParseError struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return e.File + ":" + strconv.Itoa(e.Line) + ":" + strconv.Itoa(e.Column) + ": " + e.Message
	}
	return "line " + strconv.Itoa(e.Line) + ": " + e.Message
}
