package postman

import (
	"encoding/json"
	"strings"
)

// Collection is a Postman Collection v2.1 document.
type Collection struct {
	Info     Info       `json:"info"`
	Item     []Item     `json:"item"`
	Auth     *Auth      `json:"auth,omitempty"`
	Event    []Event    `json:"event,omitempty"`
	Variable []Variable `json:"variable,omitempty"`
}

type Info struct {
	PostmanID   string `json:"_postman_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Schema      string `json:"schema"`
}

// Item is either a request or, when Item is non-nil, a folder.
type Item struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Request     *Request `json:"request,omitempty"`
	Item        []Item   `json:"item,omitempty"`
	Auth        *Auth    `json:"auth,omitempty"`
	Event       []Event  `json:"event,omitempty"`
	Description string   `json:"description,omitempty"`
}

func (i Item) IsFolder() bool {
	return i.Request == nil && i.Item != nil
}

type Request struct {
	Method string   `json:"method"`
	Header []Header `json:"header,omitempty"`
	Body   *Body    `json:"body,omitempty"`
	URL    URL      `json:"url"`
	Auth   *Auth    `json:"auth,omitempty"`
}

type Header struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled,omitempty"`
}

type Body struct {
	Mode       string     `json:"mode"`
	Raw        string     `json:"raw,omitempty"`
	URLEncoded []KV       `json:"urlencoded,omitempty"`
	FormData   []FormData `json:"formdata,omitempty"`
	GraphQL    *GraphQL   `json:"graphql,omitempty"`
}

type GraphQL struct {
	Query     string `json:"query"`
	Variables string `json:"variables,omitempty"`
}

type KV struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled,omitempty"`
}

type FormData struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Type     string `json:"type"` // "text" or "file"
	Src      string `json:"src,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
}

// URL accepts both the string and the object form used by Postman.
type URL struct {
	Raw      string   `json:"raw"`
	Protocol string   `json:"protocol,omitempty"`
	Host     []string `json:"host,omitempty"`
	Path     []string `json:"path,omitempty"`
	Query    []KV     `json:"query,omitempty"`
}

func (u *URL) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		*u = URL{Raw: raw}
		return nil
	}
	type plain URL
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*u = URL(p)
	return nil
}

type Auth struct {
	Type   string  `json:"type"`
	Bearer []Param `json:"bearer,omitempty"`
	Basic  []Param `json:"basic,omitempty"`
	APIKey []Param `json:"apikey,omitempty"`
}

// Param is an auth parameter. Postman stores some values as booleans or
// numbers, so Value accepts any scalar.
type Param struct {
	Key   string `json:"key"`
	Value Scalar `json:"value"`
	Type  string `json:"type,omitempty"`
}

// Scalar is a JSON scalar kept as text.
type Scalar string

func (s *Scalar) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = Scalar(str)
		return nil
	}
	text := strings.TrimSpace(string(data))
	if text == "null" {
		text = ""
	}
	*s = Scalar(text)
	return nil
}

type Event struct {
	Listen string `json:"listen"`
	Script Script `json:"script"`
}

type Script struct {
	Type string `json:"type,omitempty"`
	Exec Lines  `json:"exec"`
}

// Lines accepts a string or an array of strings.
type Lines []string

func (l *Lines) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = strings.Split(single, "\n")
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

type Variable struct {
	Key      string `json:"key"`
	Value    Scalar `json:"value"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Environment is a Postman environment export.
type Environment struct {
	ID     string             `json:"id,omitempty"`
	Name   string             `json:"name"`
	Values []EnvironmentValue `json:"values"`
}

type EnvironmentValue struct {
	Key     string `json:"key"`
	Value   Scalar `json:"value"`
	Enabled *bool  `json:"enabled,omitempty"`
}
