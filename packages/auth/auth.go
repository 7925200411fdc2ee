package auth

import (
	"encoding/base64"
	"strings"
)

// Type identifies the kind of a RequestAuth. The empty Type means the
// request carries no auth of its own and inherits from its collection.
type Type string

const (
	TypeInherit Type = ""
	TypeNoAuth  Type = "noauth"
	TypeBearer  Type = "bearer"
	TypeBasic   Type = "basic"
	TypeAPIKey  Type = "apikey"
)

// Param is a single key/value auth parameter, e.g. {key: "token", value: "{{user_token}}"}.
type Param struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
	Type  string `json:"type,omitempty" yaml:"type,omitempty"`
}

// RequestAuth is the auth configuration attached to a request or a collection.
type RequestAuth struct {
	Type   Type    `json:"type,omitempty" yaml:"type,omitempty"`
	Bearer []Param `json:"bearer,omitempty" yaml:"bearer,omitempty"`
	Basic  []Param `json:"basic,omitempty" yaml:"basic,omitempty"`
	APIKey []Param `json:"apikey,omitempty" yaml:"apikey,omitempty"`
}

// Resolve returns the auth a request should actually use.
//
// Rules:
//  1. request type "noauth" disables auth regardless of the collection
//  2. a request with a concrete type uses its own auth
//  3. otherwise the collection auth is inherited (possibly nil)
func Resolve(request, collection *RequestAuth) *RequestAuth {
	if request != nil && request.Type == TypeNoAuth {
		return nil
	}
	if request != nil && request.Type != TypeInherit {
		return request
	}
	return collection
}

// IsInherited reports whether Resolve picked the collection auth.
func IsInherited(request, collection *RequestAuth) bool {
	if request != nil && request.Type != TypeInherit {
		return false
	}
	return collection != nil
}

// Clone returns a deep copy of a.
func (a *RequestAuth) Clone() *RequestAuth {
	if a == nil {
		return nil
	}
	return &RequestAuth{
		Type:   a.Type,
		Bearer: cloneParams(a.Bearer),
		Basic:  cloneParams(a.Basic),
		APIKey: cloneParams(a.APIKey),
	}
}

// Params returns the parameter list that belongs to the auth's own type.
func (a *RequestAuth) Params() []Param {
	if a == nil {
		return nil
	}
	switch a.Type {
	case TypeBearer:
		return a.Bearer
	case TypeBasic:
		return a.Basic
	case TypeAPIKey:
		return a.APIKey
	default:
		return nil
	}
}

// Lookup returns the value of the first parameter named key.
func Lookup(params []Param, key string) (string, bool) {
	for _, p := range params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

func cloneParams(params []Param) []Param {
	if params == nil {
		return nil
	}
	out := make([]Param, len(params))
	copy(out, params)
	return out
}

// Applied holds the headers and query parameters an auth contributes to a request.
type Applied struct {
	Headers map[string]string
	Query   map[string]string
}

// Apply translates an effective auth into request headers or query
// parameters. Placeholders must already be resolved.
//
//   - bearer: Authorization: Bearer <token>
//   - basic:  Authorization: Basic base64(<username>:<password>)
//   - apikey: <key>: <value> as a header, or as a query parameter when "in" is "query"
func Apply(a *RequestAuth) Applied {
	applied := Applied{
		Headers: make(map[string]string),
		Query:   make(map[string]string),
	}
	if a == nil {
		return applied
	}

	switch a.Type {
	case TypeBearer:
		if token, ok := Lookup(a.Bearer, "token"); ok && token != "" {
			applied.Headers["Authorization"] = "Bearer " + token
		}
	case TypeBasic:
		username, _ := Lookup(a.Basic, "username")
		password, _ := Lookup(a.Basic, "password")
		if username != "" || password != "" {
			encoded := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
			applied.Headers["Authorization"] = "Basic " + encoded
		}
	case TypeAPIKey:
		key, _ := Lookup(a.APIKey, "key")
		value, _ := Lookup(a.APIKey, "value")
		if key == "" {
			break
		}
		if in, _ := Lookup(a.APIKey, "in"); strings.EqualFold(in, "query") {
			applied.Query[key] = value
		} else {
			applied.Headers[key] = value
		}
	}
	return applied
}
