package env

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvironments_YAML(t *testing.T) {
	data := []byte(`
environments:
  - name: staging
    variables:
      - key: base_url
        value: https://staging.example.com
      - key: port
        value: 8443
      - key: old_token
        value: abc
        disabled: true
  - name: production
    variables: []
`)

	envs, err := ParseEnvironments(data)
	require.NoError(t, err)
	require.Len(t, envs, 2)

	staging := Find(envs, "staging")
	require.NotNil(t, staging)
	assert.Equal(t, []Variable{
		{Key: "base_url", Value: "https://staging.example.com"},
		{Key: "port", Value: "8443"},
		{Key: "old_token", Value: "abc", Disabled: true},
	}, staging.Variables)

	_, ok := staging.Get("old_token")
	assert.False(t, ok)
}

func TestParseEnvironments_JSON(t *testing.T) {
	data := []byte(`{"environments":[{"id":"e1","name":"dev","variables":[{"key":"host","value":"localhost"}]}]}`)

	envs, err := ParseEnvironments(data)
	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.Equal(t, "e1", envs[0].ID)

	host, ok := envs[0].Get("host")
	assert.True(t, ok)
	assert.Equal(t, "localhost", host)
}

func TestValidateEnvironments(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"valid", "environments:\n  - name: dev\n", false},
		{"missing environments", "name: dev\n", true},
		{"missing name", "environments:\n  - variables: []\n", true},
		{"empty key", "environments:\n  - name: dev\n    variables:\n      - key: \"\"\n", true},
		{"unknown field", "environments:\n  - name: dev\n    color: red\n", true},
		{"object value", "environments:\n  - name: dev\n    variables:\n      - key: a\n        value: {nested: true}\n", true},
		{"empty file", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEnvironments([]byte(tt.content))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidEnvironmentFile), "error %v should wrap ErrInvalidEnvironmentFile", err)
		})
	}
}

func TestLoadEnvironments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "envs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environments:\n  - name: dev\n    variables:\n      - key: a\n        value: b\n"), 0644))

	envs, err := LoadEnvironments(path)
	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.False(t, envs[0].UpdatedAt.IsZero())

	_, err = LoadEnvironments(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
