package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	assert.True(t, c.IsDefault())
	assert.Equal(t, "memory", c.TokenStore.Driver)
	assert.False(t, c.GetDynamicVariables())
	assert.True(t, c.GetWarnUnresolved())
	assert.False(t, c.GetNoColor())
	assert.Equal(t, "user_token", c.AccessTokenName)
}

func TestGetters_NilPointers(t *testing.T) {
	c := &Config{}

	assert.False(t, c.GetDynamicVariables())
	assert.True(t, c.GetWarnUnresolved())
	assert.False(t, c.GetNoColor())
}

func TestFindAndLoadConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	content := `{
	  "defaultEnvironment": "staging",
	  "environmentFile": "envs.yaml",
	  "tokenStore": {"driver": "sqlite", "path": "tokens.db"},
	  "dynamicVariables": true,
	  "extraTokenFields": ["secret"]
	}`
	require.NoError(t, os.WriteFile(filepath.Join(root, ".restvarsrc"), []byte(content), 0644))

	c, err := FindAndLoadConfig(nested)
	require.NoError(t, err)

	assert.Equal(t, "staging", c.DefaultEnvironment)
	assert.Equal(t, filepath.Join(root, "envs.yaml"), c.EnvironmentFile)
	assert.Equal(t, "sqlite", c.TokenStore.Driver)
	assert.Equal(t, filepath.Join(root, "tokens.db"), c.TokenStore.Path)
	assert.True(t, c.GetDynamicVariables())
	assert.True(t, c.GetWarnUnresolved(), "unset keys keep their defaults")
	assert.Equal(t, []string{"secret"}, c.ExtraTokenFields)
	assert.False(t, c.IsDefault())
}

func TestFindAndLoadConfig_NoFile(t *testing.T) {
	c, err := FindAndLoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "memory", c.TokenStore.Driver)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"malformed", `{`},
		{"unknown driver", `{"tokenStore": {"driver": "redis"}}`},
		{"sqlite without path", `{"tokenStore": {"driver": "sqlite"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.ExtraTokenFields = []string{"secret"}

	merged := base.Merge(&Config{
		DefaultEnvironment: "prod",
		TokenStore:         TokenStore{Key: "passphrase"},
		NoColor:            BoolPtr(true),
		WarnUnresolved:     BoolPtr(false),
		ExtraTokenFields:   []string{"nonce"},
	})

	assert.Equal(t, "prod", merged.DefaultEnvironment)
	assert.Equal(t, "memory", merged.TokenStore.Driver)
	assert.Equal(t, "passphrase", merged.TokenStore.Key)
	assert.True(t, merged.GetNoColor())
	assert.False(t, merged.GetWarnUnresolved())
	assert.False(t, merged.GetDynamicVariables())
	assert.Equal(t, []string{"secret", "nonce"}, merged.ExtraTokenFields)

	assert.Same(t, base, base.Merge(nil))
	assert.Equal(t, []string{"secret"}, base.ExtraTokenFields)
}

func TestSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".restvars.config.json")

	c := DefaultConfig()
	c.DefaultEnvironment = "dev"
	require.NoError(t, c.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "dev", loaded.DefaultEnvironment)
}
