package jsondoc

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Kind is the variant of a JSON value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "null"
	}
}

// KindOf classifies a gjson result.
func KindOf(v gjson.Result) Kind {
	switch v.Type {
	case gjson.True, gjson.False:
		return KindBool
	case gjson.Number:
		return KindNumber
	case gjson.String:
		return KindString
	case gjson.JSON:
		if v.IsArray() {
			return KindArray
		}
		return KindObject
	default:
		return KindNull
	}
}

// Member is a single object property.
type Member struct {
	Key   string
	Value gjson.Result
}

// Members returns the properties of an object in document order.
func Members(obj gjson.Result) []Member {
	if !obj.IsObject() {
		return nil
	}

	var members []Member
	index := make(map[string]int)
	obj.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if i, ok := index[k]; ok {
			members[i].Value = value
			return true
		}
		index[k] = len(members)
		members = append(members, Member{Key: k, Value: value})
		return true
	})
	return members
}

// Elements returns the items of an array in order.
func Elements(arr gjson.Result) []gjson.Result {
	if !arr.IsArray() {
		return nil
	}
	return arr.Array()
}

// Parse returns the parsed document and whether data is valid JSON.
func Parse(data string) (gjson.Result, bool) {
	if strings.TrimSpace(data) == "" || !gjson.Valid(data) {
		return gjson.Result{}, false
	}
	return gjson.Parse(data), true
}

// EncodeString returns s as a JSON string literal without HTML escaping.
func EncodeString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return `""`
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// MapStrings re-serializes a JSON document compactly with fn applied to
// every string value. Object keys are not passed to fn. Number literals are
// kept as written. ok is false when data is not valid JSON.
func MapStrings(data string, fn func(string) string) (string, bool) {
	doc, ok := Parse(data)
	if !ok {
		return "", false
	}

	var b strings.Builder
	writeMapped(&b, doc, fn)
	return b.String(), true
}

func writeMapped(b *strings.Builder, v gjson.Result, fn func(string) string) {
	switch KindOf(v) {
	case KindObject:
		b.WriteByte('{')
		for i, m := range Members(v) {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(EncodeString(m.Key))
			b.WriteByte(':')
			writeMapped(b, m.Value, fn)
		}
		b.WriteByte('}')
	case KindArray:
		b.WriteByte('[')
		for i, el := range Elements(v) {
			if i > 0 {
				b.WriteByte(',')
			}
			writeMapped(b, el, fn)
		}
		b.WriteByte(']')
	case KindString:
		b.WriteString(EncodeString(fn(v.Str)))
	case KindNumber:
		b.WriteString(strings.TrimSpace(v.Raw))
	case KindBool:
		if v.Bool() {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	default:
		b.WriteString("null")
	}
}
