package collection

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/abdul-hamid-achik/restvars/packages/auth"
	"github.com/abdul-hamid-achik/restvars/packages/core/env"
	"github.com/abdul-hamid-achik/restvars/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bearer(token string) *auth.RequestAuth {
	return &auth.RequestAuth{Type: auth.TypeBearer, Bearer: []auth.Param{{Key: "token", Value: token}}}
}

func testWorkspace() *Workspace {
	api := NewCollection("API")
	api.Auth = bearer("{{user_token}}")
	api.AddRequest(SavedRequest{Name: "Profile", Method: "GET", URL: "{{base_url}}/me"})

	public := NewCollection("Public")
	public.Auth = &auth.RequestAuth{Type: auth.TypeNoAuth}
	public.AddRequest(SavedRequest{Name: "Health", Method: "GET", URL: "{{base_url}}/health"})

	admin := NewCollection("Admin")
	admin.AddRequest(SavedRequest{Name: "Users", Method: "GET", URL: "{{base_url}}/admin/users"})

	api.Collections = []Collection{public, admin}

	return &Workspace{
		Name:        "demo",
		Collections: []Collection{api},
		Environments: []env.Environment{
			{Name: "local", Variables: []env.Variable{{Key: "base_url", Value: "http://localhost:8080"}}},
		},
	}
}

func TestWorkspace_FindRequest(t *testing.T) {
	w := testWorkspace()

	ref, err := w.FindRequest("API/Admin/Users")
	require.NoError(t, err)
	assert.Equal(t, "Users", ref.Request.Name)
	assert.Equal(t, "API/Admin/Users", ref.Path())

	byName, err := w.FindRequest("profile")
	require.NoError(t, err)
	assert.Equal(t, "Profile", byName.Request.Name)

	byID, err := w.FindRequest(byName.Request.ID)
	require.NoError(t, err)
	assert.Same(t, byName.Request, byID.Request)

	_, err = w.FindRequest("missing")
	assert.True(t, errors.Is(err, ErrRequestNotFound))
}

func TestRequestRef_CollectionAuth(t *testing.T) {
	w := testWorkspace()

	tests := []struct {
		request  string
		expected *auth.RequestAuth
	}{
		{"Profile", bearer("{{user_token}}")},
		{"Users", bearer("{{user_token}}")},
		{"Health", nil},
	}

	for _, tt := range tests {
		t.Run(tt.request, func(t *testing.T) {
			ref, err := w.FindRequest(tt.request)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ref.CollectionAuth())
		})
	}
}

func TestWorkspace_Requests(t *testing.T) {
	refs := testWorkspace().Requests()
	require.Len(t, refs, 3)
	assert.Equal(t, "API/Profile", refs[0].Path())
	assert.Equal(t, "API/Public/Health", refs[1].Path())
	assert.Equal(t, "API/Admin/Users", refs[2].Path())
	assert.Equal(t, refs[0].Collections[0].ID, refs[0].Request.CollectionID)
}

func TestSavedRequest_Conversions(t *testing.T) {
	saved := SavedRequest{
		Name:    "Login",
		Method:  "POST",
		URL:     "{{base_url}}/login",
		Body:    `{"user":"{{user}}"}`,
		Headers: []http.Header{{Key: "Content-Type", Value: "application/json"}},
		Auth:    &auth.RequestAuth{Type: auth.TypeNoAuth},
	}

	req := saved.ToRequest()
	assert.Equal(t, "Login", req.Name)
	assert.Equal(t, "{{base_url}}/login", req.URL.Raw)
	assert.Equal(t, saved.Headers, req.Headers)
	assert.Equal(t, saved.Auth, req.Auth)
	assert.NotSame(t, saved.Auth, req.Auth)

	back := FromRequest(req, "Login copy", "c1")
	assert.Equal(t, "Login copy", back.Name)
	assert.Equal(t, "POST", back.Method)
	assert.Equal(t, saved.URL, back.URL)
	assert.Equal(t, saved.Body, back.Body)
	assert.Equal(t, "c1", back.CollectionID)

	empty := FromRequest(&http.Request{}, "blank", "")
	assert.Equal(t, "GET", empty.Method)
	assert.Equal(t, "", empty.URL)
}

func TestWorkspace_SaveAndLoad(t *testing.T) {
	w := testWorkspace()
	path := filepath.Join(t.TempDir(), "workspace.yaml")

	require.NoError(t, w.Save(path))

	loaded, err := LoadWorkspace(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", loaded.Name)
	require.Len(t, loaded.Requests(), 3)

	ref, err := loaded.FindRequest("API/Public/Health")
	require.NoError(t, err)
	assert.Nil(t, ref.CollectionAuth())

	local := loaded.Environment("local")
	require.NotNil(t, local)
	v, _ := local.Get("base_url")
	assert.Equal(t, "http://localhost:8080", v)
}
