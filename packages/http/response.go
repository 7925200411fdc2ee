package http

import (
	"strings"

	"github.com/abdul-hamid-achik/restvars/packages/core/jsondoc"
	"github.com/tidwall/gjson"
)

// Response is a received HTTP response as handed over by the caller.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Status     string            `json:"status,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       []byte            `json:"-"`
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

// JSON parses the body. ok is false for empty or invalid JSON bodies.
func (r *Response) JSON() (gjson.Result, bool) {
	return jsondoc.Parse(string(r.Body))
}

func (r *Response) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsJSON() bool {
	ct := r.ContentType()
	return strings.Contains(ct, "application/json") || strings.Contains(ct, "+json")
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}
