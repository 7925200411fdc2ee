package httpfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_SimpleGET(t *testing.T) {
	input := `### Get User
GET https://api.example.com/users/1 HTTP/1.1

>>>
expect status 200
<<<`

	file, err := Parse(input, "test.http")
	require.NoError(t, err)
	require.Len(t, file.Requests, 1)

	req := file.Requests[0]
	assert.Equal(t, "Get User", req.Name)
	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "https://api.example.com/users/1", req.URL)
	assert.Equal(t, []string{"assertions"}, req.Ignored)
}

func TestParser_POSTWithBody(t *testing.T) {
	input := `### Create User
POST https://api.example.com/users
Content-Type: application/json

{
  "name": "John",
  "email": "{{email}}"
}

>>>
expect status 201
<<<`

	file, err := Parse(input, "test.http")
	require.NoError(t, err)
	require.Len(t, file.Requests, 1)

	req := file.Requests[0]
	assert.Equal(t, "POST", req.Method)
	require.Len(t, req.Headers, 1)
	assert.Equal(t, "Content-Type", req.Headers[0].Key)
	assert.Equal(t, "application/json", req.Headers[0].Value)
	require.NotNil(t, req.Body)
	assert.Equal(t, BodyJSON, req.Body.ContentType)
	assert.JSONEq(t, `{"name":"John","email":"{{email}}"}`, req.Body.Raw)
}

func TestParser_Variables(t *testing.T) {
	input := `@baseUrl = https://api.example.com
@token = secret123

### Get User
GET {{baseUrl}}/users
Authorization: Bearer {{token}}`

	file, err := Parse(input, "test.http")
	require.NoError(t, err)
	require.Len(t, file.Variables, 2)
	assert.Equal(t, "baseUrl", file.Variables[0].Name)
	assert.Equal(t, "https://api.example.com", file.Variables[0].Value)
	assert.Equal(t, "token", file.Variables[1].Name)
	assert.Equal(t, "secret123", file.Variables[1].Value)

	require.Len(t, file.Requests, 1)
	req := file.Requests[0]
	assert.Equal(t, "{{baseUrl}}/users", req.URL)
	assert.Equal(t, "Bearer {{token}}", req.Headers[0].Value)
}

func TestParser_Captures(t *testing.T) {
	input := `### Login
POST https://api.example.com/auth/login

>>>
expect status 200
<<<

>>>capture
token from body.access_token
userId from body.user.id
first from body[0].id
requestId from header X-Request-Id
<<<`

	file, err := Parse(input, "test.http")
	require.NoError(t, err)
	require.Len(t, file.Requests, 1)

	req := file.Requests[0]
	require.Len(t, req.Captures, 4)
	assert.Equal(t, "token", req.Captures[0].Name)
	assert.Equal(t, "body", req.Captures[0].Source)
	assert.Equal(t, "access_token", req.Captures[0].Path)
	assert.Equal(t, "user.id", req.Captures[1].Path)
	assert.Equal(t, "[0].id", req.Captures[2].Path)
	assert.Equal(t, "header", req.Captures[3].Source)
	assert.Equal(t, "X-Request-Id", req.Captures[3].Path)
}

func TestParser_Annotations(t *testing.T) {
	input := `### Test Request
# @name myTest
# @description ignored
# @auth bearer {{token}}

GET https://api.example.com/test`

	file, err := Parse(input, "test.http")
	require.NoError(t, err)
	require.Len(t, file.Requests, 1)

	req := file.Requests[0]
	assert.Equal(t, "myTest", req.Name)
	require.NotNil(t, req.Auth)
	assert.Equal(t, "bearer", req.Auth.Scheme)
	assert.Equal(t, []string{"{{token}}"}, req.Auth.Params)
}

func TestParser_MultipleRequests(t *testing.T) {
	input := `### First Request
GET https://api.example.com/first

### Second Request
POST https://api.example.com/second

### Third Request
DELETE https://api.example.com/third

###`

	file, err := Parse(input, "test.http")
	require.NoError(t, err)
	require.Len(t, file.Requests, 3)
	assert.Equal(t, "First Request", file.Requests[0].Name)
	assert.Equal(t, "GET", file.Requests[0].Method)
	assert.Equal(t, "Second Request", file.Requests[1].Name)
	assert.Equal(t, "POST", file.Requests[1].Method)
	assert.Equal(t, "Third Request", file.Requests[2].Name)
	assert.Equal(t, "DELETE", file.Requests[2].Method)
}

func TestParser_QueryParams(t *testing.T) {
	input := `### Search
GET https://api.example.com/search
? query = test
? limit = {{limit}}
Accept: application/json`

	file, err := Parse(input, "test.http")
	require.NoError(t, err)
	require.Len(t, file.Requests, 1)

	req := file.Requests[0]
	require.Len(t, req.QueryParams, 2)
	assert.Equal(t, "query", req.QueryParams[0].Key)
	assert.Equal(t, "test", req.QueryParams[0].Value)
	assert.Equal(t, "{{limit}}", req.QueryParams[1].Value)
	require.Len(t, req.Headers, 1)
}

func TestParser_FormBody(t *testing.T) {
	input := `### Login
POST https://api.example.com/login
Content-Type: application/x-www-form-urlencoded

& username = john
& password = {{password}}`

	file, err := Parse(input, "test.http")
	require.NoError(t, err)
	require.Len(t, file.Requests, 1)

	req := file.Requests[0]
	require.NotNil(t, req.Body)
	assert.Equal(t, BodyFormBlock, req.Body.ContentType)
	assert.Equal(t, "username=john&password={{password}}", req.Body.Raw)
}

func TestParser_GraphQL(t *testing.T) {
	input := `### Query
POST https://api.example.com/graphql

>>> graphql
query { me { id } }
<<<

>>> variables
{"id": 1}
<<<`

	file, err := Parse(input, "test.http")
	require.NoError(t, err)
	require.Len(t, file.Requests, 1)

	body := file.Requests[0].Body
	require.NotNil(t, body)
	assert.Equal(t, BodyGraphQL, body.ContentType)
	assert.Equal(t, "query { me { id } }", body.GraphQL.Query)
	assert.Equal(t, `{"id": 1}`, body.GraphQL.Variables)
}

func TestParser_PlainTextBodyWithoutBlankLine(t *testing.T) {
	input := `POST https://api.example.com/echo
hello world`

	file, err := Parse(input, "test.http")
	require.NoError(t, err)
	require.Len(t, file.Requests, 1)
	require.NotNil(t, file.Requests[0].Body)
	assert.Equal(t, "hello world", file.Requests[0].Body.Raw)
	assert.Equal(t, BodyRaw, file.Requests[0].Body.ContentType)
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing method", "### Broken\nnot a request"},
		{"missing url", "### Broken\nGET"},
		{"unterminated graphql", "### Q\nPOST http://x\n\n>>> graphql\nquery { me }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input, "broken.http")
			require.Error(t, err)
			var perr *ParseError
			assert.ErrorAs(t, err, &perr)
			assert.Contains(t, err.Error(), "broken.http:")
		})
	}
}
