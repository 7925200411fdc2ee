package curl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/abdul-hamid-achik/restvars/packages/auth"
)

func TestParse_SimpleGet(t *testing.T) {
	converter := NewConverter()

	parsed, err := converter.Parse(`curl https://api.example.com/users`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if parsed.Method != "GET" {
		t.Errorf("expected method GET, got %s", parsed.Method)
	}
	if parsed.URL != "https://api.example.com/users" {
		t.Errorf("expected URL https://api.example.com/users, got %s", parsed.URL)
	}
}

func TestParse_PostWithData(t *testing.T) {
	converter := NewConverter()

	parsed, err := converter.Parse(`curl -X POST https://api.example.com/users -d '{"name":"John"}'`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if parsed.Method != "POST" {
		t.Errorf("expected method POST, got %s", parsed.Method)
	}
	if parsed.Body != `{"name":"John"}` {
		t.Errorf("expected body {\"name\":\"John\"}, got %s", parsed.Body)
	}
}

func TestParse_WithHeaders(t *testing.T) {
	converter := NewConverter()

	parsed, err := converter.Parse(`curl -H "Content-Type: application/json" -H "Authorization: Bearer token123" https://api.example.com/users`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(parsed.Headers) != 2 {
		t.Fatalf("expected 2 headers, got %d", len(parsed.Headers))
	}
	if parsed.Headers[0].Key != "Content-Type" || parsed.Headers[0].Value != "application/json" {
		t.Errorf("expected Content-Type: application/json first, got %+v", parsed.Headers[0])
	}
	if v, _ := parsed.Header("authorization"); v != "Bearer token123" {
		t.Errorf("expected Authorization: Bearer token123, got %s", v)
	}
}

func TestParse_WithBasicAuth(t *testing.T) {
	converter := NewConverter()

	parsed, err := converter.Parse(`curl -u admin:password123 https://api.example.com/admin`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if parsed.BasicAuth != "admin:password123" {
		t.Errorf("expected basicAuth admin:password123, got %s", parsed.BasicAuth)
	}
}

func TestParse_ImplicitPost(t *testing.T) {
	converter := NewConverter()

	// Without -X, -d should imply POST
	parsed, err := converter.Parse(`curl -d "name=John" https://api.example.com/users`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if parsed.Method != "POST" {
		t.Errorf("expected implicit POST method, got %s", parsed.Method)
	}
}

func TestParse_Flags(t *testing.T) {
	converter := NewConverter()

	parsed, err := converter.Parse(`curl -k -L https://api.example.com`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !parsed.Insecure {
		t.Error("expected Insecure to be true")
	}
	if !parsed.FollowRedirects {
		t.Error("expected FollowRedirects to be true")
	}
}

func TestParse_MultipleDataJoined(t *testing.T) {
	converter := NewConverter()

	parsed, err := converter.Parse(`curl -X PUT -d a=1 --data b=2 https://api.example.com/form`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if parsed.Method != "PUT" {
		t.Errorf("expected explicit PUT to survive data flags, got %s", parsed.Method)
	}
	if parsed.Body != "a=1&b=2" {
		t.Errorf("expected body a=1&b=2, got %s", parsed.Body)
	}
}

func TestParse_JSONFlag(t *testing.T) {
	converter := NewConverter()

	parsed, err := converter.Parse(`curl --json '{"a":1}' https://api.example.com/items`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v, _ := parsed.Header("Content-Type"); v != "application/json" {
		t.Errorf("expected JSON content type, got %q", v)
	}
	if parsed.Method != "POST" {
		t.Errorf("expected implicit POST, got %s", parsed.Method)
	}
}

func TestParse_Errors(t *testing.T) {
	converter := NewConverter()

	for _, cmd := range []string{"curl", "curl -X POST", "curl https://api.example.com -H"} {
		if _, err := converter.Parse(cmd); err == nil {
			t.Errorf("Parse(%q): expected error", cmd)
		}
	}
}

func TestToRequest_BasicAuth(t *testing.T) {
	converter := NewConverter()

	req := converter.ToRequest(&ParsedCurl{
		Method:    "GET",
		URL:       "https://api.example.com/admin",
		BasicAuth: "admin:secret",
		Name:      "get_admin",
	})

	if req.Auth == nil || req.Auth.Type != auth.TypeBasic {
		t.Fatalf("expected basic auth, got %+v", req.Auth)
	}
	if v, _ := auth.Lookup(req.Auth.Basic, "username"); v != "admin" {
		t.Errorf("expected username admin, got %s", v)
	}
	if v, _ := auth.Lookup(req.Auth.Basic, "password"); v != "secret" {
		t.Errorf("expected password secret, got %s", v)
	}
}

func TestToRequest_BearerHeader(t *testing.T) {
	converter := NewConverter()

	req, err := converter.ConvertCommand(`curl -H "Authorization: Bearer {{user_token}}" -H "Accept: */*" https://api.example.com/me`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if req.Auth == nil || req.Auth.Type != auth.TypeBearer {
		t.Fatalf("expected bearer auth, got %+v", req.Auth)
	}
	if v, _ := auth.Lookup(req.Auth.Bearer, "token"); v != "{{user_token}}" {
		t.Errorf("expected token placeholder, got %s", v)
	}
	if len(req.Headers) != 1 || req.Headers[0].Key != "Accept" {
		t.Errorf("expected Authorization header to be lifted out, got %+v", req.Headers)
	}
}

func TestToRequest_NoAuthDetection(t *testing.T) {
	converter := NewConverter(WithAuthDetection(false))

	req, err := converter.ConvertCommand(`curl -u user:pass -H "Authorization: Bearer abc" https://api.example.com`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if req.Auth != nil {
		t.Errorf("expected inherited auth, got %+v", req.Auth)
	}
	if len(req.Headers) != 2 {
		t.Fatalf("expected 2 headers, got %+v", req.Headers)
	}
	if req.Headers[1].Value != "Basic dXNlcjpwYXNz" {
		t.Errorf("expected encoded basic header, got %s", req.Headers[1].Value)
	}
}

func TestConvertCommand(t *testing.T) {
	converter := NewConverter()

	req, err := converter.ConvertCommand(`curl -X POST -H "Content-Type: application/json" -d '{"name":"John"}' https://api.example.com/users`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if req.Method != "POST" || req.URL != "https://api.example.com/users" {
		t.Errorf("expected POST https://api.example.com/users, got %s %s", req.Method, req.URL)
	}
	if req.Name != "post_users" {
		t.Errorf("expected name post_users, got %s", req.Name)
	}
	if req.Body != `{"name":"John"}` {
		t.Errorf("expected body to be kept, got %s", req.Body)
	}
}

func TestConvertFile(t *testing.T) {
	content := `# login first
curl -X POST https://api.example.com/login \
  -d '{"user":"a"}'

curl https://api.example.com/me
`
	path := filepath.Join(t.TempDir(), "requests.sh")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	ws, err := NewConverter().ConvertFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ws.Collections) != 1 {
		t.Fatalf("expected 1 collection, got %d", len(ws.Collections))
	}
	col := ws.Collections[0]
	if col.Name != "requests" {
		t.Errorf("expected collection named after file, got %s", col.Name)
	}
	if len(col.Requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(col.Requests))
	}
	if col.Requests[0].Body != `{"user":"a"}` {
		t.Errorf("expected continued body, got %q", col.Requests[0].Body)
	}
	if col.Requests[1].CollectionID != col.ID {
		t.Error("expected requests to belong to the collection")
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{
			input:    `-X POST -d "hello world"`,
			expected: []string{"-X", "POST", "-d", "hello world"},
		},
		{
			input:    `-H 'Content-Type: application/json'`,
			expected: []string{"-H", "Content-Type: application/json"},
		},
		{
			input:    `-d '{"key": "value"}'`,
			expected: []string{"-d", `{"key": "value"}`},
		},
	}

	for _, tt := range tests {
		tokens := tokenize(tt.input)
		if len(tokens) != len(tt.expected) {
			t.Errorf("tokenize(%q): got %d tokens, expected %d", tt.input, len(tokens), len(tt.expected))
			continue
		}
		for i, tok := range tokens {
			if tok != tt.expected[i] {
				t.Errorf("tokenize(%q)[%d]: got %q, expected %q", tt.input, i, tok, tt.expected[i])
			}
		}
	}
}

func TestGenerateName(t *testing.T) {
	tests := []struct {
		url    string
		method string
		expect string
	}{
		{"https://api.example.com/users", "GET", "get_users"},
		{"https://api.example.com/users/123", "GET", "get_users_123"},
		{"https://api.example.com/", "POST", "post_root"},
		{"https://api.example.com/api/v1/users", "PUT", "put_api_v1_users"},
		{"{{baseUrl}}/user-profile", "GET", "get_user_profile"},
	}

	for _, tt := range tests {
		result := generateName(tt.url, tt.method)
		if result != tt.expect {
			t.Errorf("generateName(%q, %q): got %q, expected %q", tt.url, tt.method, result, tt.expect)
		}
	}
}
