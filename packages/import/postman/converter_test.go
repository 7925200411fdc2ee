package postman

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/abdul-hamid-achik/restvars/packages/auth"
	"github.com/abdul-hamid-achik/restvars/packages/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCollection = `{
  "info": {
    "name": "Shop API",
    "schema": "https://schema.getpostman.com/json/collection/v2.1.0/collection.json"
  },
  "auth": {
    "type": "bearer",
    "bearer": [{"key": "token", "value": "{{user_token}}", "type": "string"}]
  },
  "variable": [
    {"key": "baseUrl", "value": "https://shop.example.com"},
    {"key": "retries", "value": 3}
  ],
  "item": [
    {
      "name": "Auth",
      "auth": {"type": "noauth"},
      "item": [
        {
          "name": "Login",
          "event": [{
            "listen": "test",
            "script": {"exec": [
              "var jsonData = pm.response.json();",
              "pm.environment.set(\"user_token\", jsonData.data.accessToken);"
            ]}
          }],
          "request": {
            "method": "post",
            "header": [{"key": "Accept", "value": "application/json"}],
            "body": {"mode": "raw", "raw": "{\"email\":\"{{email}}\"}"},
            "url": "{{baseUrl}}/login"
          }
        }
      ]
    },
    {
      "name": "List orders",
      "request": {
        "method": "GET",
        "header": [{"key": "X-Debug", "value": "1", "disabled": true}],
        "url": {
          "raw": "",
          "protocol": "https",
          "host": ["shop", "example", "com"],
          "path": ["orders"],
          "query": [
            {"key": "page", "value": "{{page}}"},
            {"key": "debug", "value": "1", "disabled": true}
          ]
        }
      }
    },
    {
      "name": "Upload",
      "request": {
        "method": "POST",
        "auth": {"type": "apikey", "apikey": [
          {"key": "key", "value": "X-Api-Key"},
          {"key": "value", "value": "{{api_key}}"},
          {"key": "in", "value": "header"}
        ]},
        "body": {"mode": "urlencoded", "urlencoded": [
          {"key": "a", "value": "1"},
          {"key": "b", "value": "2", "disabled": true}
        ]},
        "url": "{{baseUrl}}/upload"
      }
    }
  ]
}`

func TestConvert(t *testing.T) {
	ws, err := NewConverter().Convert([]byte(sampleCollection))
	require.NoError(t, err)

	assert.Equal(t, "Shop API", ws.Name)
	require.Len(t, ws.Collections, 1)

	root := ws.Collections[0]
	require.NotNil(t, root.Auth)
	assert.Equal(t, auth.TypeBearer, root.Auth.Type)
	token, ok := auth.Lookup(root.Auth.Bearer, "token")
	require.True(t, ok)
	assert.Equal(t, "{{user_token}}", token)

	require.Len(t, root.Collections, 1)
	folder := root.Collections[0]
	assert.Equal(t, "Auth", folder.Name)
	require.NotNil(t, folder.Auth)
	assert.Equal(t, auth.TypeNoAuth, folder.Auth.Type)

	require.Len(t, folder.Requests, 1)
	login := folder.Requests[0]
	assert.Equal(t, "POST", login.Method)
	assert.Equal(t, "{{baseUrl}}/login", login.URL)
	assert.Equal(t, `{"email":"{{email}}"}`, login.Body)
	assert.Nil(t, login.Auth)
	assert.Equal(t, folder.ID, login.CollectionID)

	mappings := script.ParseTokenMappings(login.TestScript)
	require.Len(t, mappings, 1)
	assert.Equal(t, script.TokenMapping{VariableName: "user_token", JSONPath: "data.accessToken"}, mappings[0])

	require.Len(t, root.Requests, 2)
	list := root.Requests[0]
	assert.Equal(t, "https://shop.example.com/orders?page={{page}}", list.URL)
	require.Len(t, list.Headers, 1)
	assert.True(t, list.Headers[0].Disabled)

	upload := root.Requests[1]
	require.NotNil(t, upload.Auth)
	assert.Equal(t, auth.TypeAPIKey, upload.Auth.Type)
	assert.Len(t, upload.Auth.APIKey, 3)
	assert.Equal(t, "a=1", upload.Body)
	require.Len(t, upload.Headers, 1)
	assert.Equal(t, "Content-Type", upload.Headers[0].Key)
	assert.Equal(t, "application/x-www-form-urlencoded", upload.Headers[0].Value)

	require.Len(t, ws.Environments, 1)
	vars := ws.Environments[0]
	assert.Equal(t, "Shop API", vars.Name)
	v, ok := vars.Get("retries")
	require.True(t, ok)
	assert.Equal(t, "3", v)
}

func TestConvert_WithoutCollectionVariables(t *testing.T) {
	ws, err := NewConverter(WithCollectionVariables(false)).Convert([]byte(sampleCollection))
	require.NoError(t, err)
	assert.Empty(t, ws.Environments)
}

func TestConvert_UnsupportedAuthWarns(t *testing.T) {
	doc := `{
	  "info": {"name": "OAuth"},
	  "item": [{
	    "name": "Me",
	    "request": {"method": "GET", "url": "https://api.example.com/me", "auth": {"type": "oauth2"}}
	  }]
	}`

	var warnings []string
	c := NewConverter(WithWarnFunc(func(format string, args ...any) {
		warnings = append(warnings, format)
	}))

	ws, err := c.Convert([]byte(doc))
	require.NoError(t, err)
	assert.Nil(t, ws.Collections[0].Requests[0].Auth)
	assert.Len(t, warnings, 1)
}

func TestConvert_FolderScriptsPrecedeRequestScripts(t *testing.T) {
	doc := `{
	  "info": {"name": "Scripts"},
	  "item": [{
	    "name": "Folder",
	    "event": [{"listen": "test", "script": {"exec": "pm.environment.set(\"a\", jsonData.a);"}}],
	    "item": [{
	      "name": "Req",
	      "event": [
	        {"listen": "prerequest", "script": {"exec": ["pm.environment.set(\"ignored\", jsonData.x);"]}},
	        {"listen": "test", "script": {"exec": ["pm.environment.set(\"b\", jsonData.b);"]}}
	      ],
	      "request": {"method": "GET", "url": "https://example.com"}
	    }]
	  }]
	}`

	ws, err := NewConverter().Convert([]byte(doc))
	require.NoError(t, err)

	req := ws.Collections[0].Collections[0].Requests[0]
	mappings := script.ParseTokenMappings(req.TestScript)
	require.Len(t, mappings, 2)
	assert.Equal(t, "a", mappings[0].VariableName)
	assert.Equal(t, "b", mappings[1].VariableName)
}

func TestConvert_GraphQL(t *testing.T) {
	doc := `{
	  "info": {"name": "GQL"},
	  "item": [{
	    "name": "Query",
	    "request": {
	      "method": "POST",
	      "url": "https://example.com/graphql",
	      "body": {"mode": "graphql", "graphql": {"query": "{ me { id } }", "variables": "{\"id\": \"{{user_id}}\"}"}}
	    }
	  }]
	}`

	ws, err := NewConverter().Convert([]byte(doc))
	require.NoError(t, err)

	req := ws.Collections[0].Requests[0]
	assert.JSONEq(t, `{"query":"{ me { id } }","variables":{"id":"{{user_id}}"}}`, req.Body)
	assert.Equal(t, "application/json", req.Headers[0].Value)
}

func TestConvert_Invalid(t *testing.T) {
	_, err := NewConverter().Convert([]byte(`not json`))
	assert.Error(t, err)

	_, err = NewConverter().Convert([]byte(`{}`))
	assert.Error(t, err)
}

func TestConvertEnvironment(t *testing.T) {
	doc := `{
	  "id": "env-1",
	  "name": "Staging",
	  "values": [
	    {"key": "baseUrl", "value": "https://staging.example.com", "enabled": true},
	    {"key": "old", "value": "x", "enabled": false},
	    {"key": "flag", "value": true},
	    {"key": "", "value": "skipped"}
	  ]
	}`

	environment, err := NewConverter().ConvertEnvironment([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "Staging", environment.Name)
	assert.Equal(t, "env-1", environment.ID)
	require.Len(t, environment.Variables, 3)

	_, ok := environment.Get("old")
	assert.False(t, ok)

	flag, ok := environment.Get("flag")
	require.True(t, ok)
	assert.Equal(t, "true", flag)
}

func TestConvertFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.postman_collection.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleCollection), 0644))

	ws, err := NewConverter().ConvertFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Shop API", ws.Name)

	_, err = NewConverter().ConvertFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
