package script

import (
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/restvars/packages/auth"
	"github.com/abdul-hamid-achik/restvars/packages/core/jsondoc"
	"github.com/abdul-hamid-achik/restvars/packages/http"
	"github.com/tidwall/gjson"
)

// GetValueByPath walks a dot-separated path through doc. Numeric segments
// index arrays. ok is false as soon as a segment is missing or a scalar is
// reached before the path is exhausted. A JSON null at the end of the path
// is found.
func GetValueByPath(doc gjson.Result, path string) (gjson.Result, bool) {
	if path == "" || !doc.Exists() {
		return gjson.Result{}, false
	}

	current := doc
	for _, segment := range strings.Split(path, ".") {
		next, ok := child(current, segment)
		if !ok {
			return gjson.Result{}, false
		}
		current = next
	}
	return current, true
}

func child(v gjson.Result, segment string) (gjson.Result, bool) {
	switch jsondoc.KindOf(v) {
	case jsondoc.KindObject:
		found := false
		var value gjson.Result
		for _, m := range jsondoc.Members(v) {
			if m.Key == segment {
				value, found = m.Value, true
			}
		}
		return value, found
	case jsondoc.KindArray:
		i, err := strconv.Atoi(segment)
		if err != nil || i < 0 || strconv.Itoa(i) != segment {
			return gjson.Result{}, false
		}
		elements := jsondoc.Elements(v)
		if i >= len(elements) {
			return gjson.Result{}, false
		}
		return elements[i], true
	default:
		return gjson.Result{}, false
	}
}

// Capture is a mapping applied to a response.
type Capture struct {
	VariableName string `json:"variableName"`
	JSONPath     string `json:"jsonPath"`
	Value        string `json:"value"`
}

// Apply looks up every mapping in the response body. Mappings whose path is
// missing, null or an empty string produce no capture. Non-string values are
// captured as their JSON text.
func Apply(mappings []TokenMapping, resp *http.Response) []Capture {
	if resp == nil || len(mappings) == 0 {
		return nil
	}
	doc, ok := resp.JSON()
	if !ok {
		return nil
	}

	var captures []Capture
	for _, m := range mappings {
		v, found := GetValueByPath(doc, m.JSONPath)
		if !found {
			continue
		}
		value := v.Raw
		switch jsondoc.KindOf(v) {
		case jsondoc.KindNull:
			continue
		case jsondoc.KindString:
			value = v.Str
		}
		if value == "" {
			continue
		}
		captures = append(captures, Capture{VariableName: m.VariableName, JSONPath: m.JSONPath, Value: value})
	}
	return captures
}

// Drafts converts captures into token drafts for the caller's store.
func Drafts(captures []Capture) []auth.Draft {
	drafts := make([]auth.Draft, 0, len(captures))
	for _, c := range captures {
		drafts = append(drafts, auth.Draft{
			Name:   c.VariableName,
			Value:  c.Value,
			Source: auth.SourceExtracted,
		})
	}
	return drafts
}
