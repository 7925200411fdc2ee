package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// TokenStore selects and configures the token store.
type TokenStore struct {
	Driver string `json:"driver,omitempty"` // "memory" or "sqlite"
	Path   string `json:"path,omitempty"`
	Key    string `json:"key,omitempty"` // sealing key; hex or passphrase
}

// Config represents the restvars configuration
type Config struct {
	DefaultEnvironment string     `json:"defaultEnvironment,omitempty"`
	EnvironmentFile    string     `json:"environmentFile,omitempty"`
	TokenStore         TokenStore `json:"tokenStore,omitempty"`
	DynamicVariables   *bool      `json:"dynamicVariables,omitempty"`
	WarnUnresolved     *bool      `json:"warnUnresolved,omitempty"`
	ExtraTokenFields   []string   `json:"extraTokenFields,omitempty"` // added to the extractor fragments
	AccessTokenName    string     `json:"accessTokenName,omitempty"`
	RefreshTokenName   string     `json:"refreshTokenName,omitempty"`
	NoColor            *bool      `json:"noColor,omitempty"`
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetDynamicVariables returns the dynamic variables setting, defaulting to false
func (c *Config) GetDynamicVariables() bool {
	return getBool(c.DynamicVariables, false)
}

// GetWarnUnresolved returns the unresolved warning setting, defaulting to true
func (c *Config) GetWarnUnresolved() bool {
	return getBool(c.WarnUnresolved, true)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".restvars.config.json",
	"restvars.config.json",
	".restvarsrc",
	".restvarsrc.json",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches dir and then its parents for a config file.
// Defaults are returned when none is found.
func FindAndLoadConfig(dir string) (*Config, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	for {
		for _, filename := range ConfigFilenames {
			configPath := filepath.Join(abs, filename)
			if _, err := os.Stat(configPath); err == nil {
				return loadConfigFromFile(configPath)
			}
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			break
		}
		abs = parent
	}

	return DefaultConfig(), nil
}

// loadConfigFromFile loads configuration from a specific file. Relative
// paths inside the file are resolved against its directory.
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	config.EnvironmentFile = resolvePath(dir, config.EnvironmentFile)
	config.TokenStore.Path = resolvePath(dir, config.TokenStore.Path)

	return config, nil
}

func resolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.TokenStore.Driver {
	case "", "memory":
	case "sqlite":
		if c.TokenStore.Path == "" {
			return errors.New("tokenStore.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown tokenStore.driver %q", c.TokenStore.Driver)
	}
	return nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.DefaultEnvironment != "" {
		result.DefaultEnvironment = other.DefaultEnvironment
	}
	if other.EnvironmentFile != "" {
		result.EnvironmentFile = other.EnvironmentFile
	}
	if other.TokenStore.Driver != "" {
		result.TokenStore.Driver = other.TokenStore.Driver
	}
	if other.TokenStore.Path != "" {
		result.TokenStore.Path = other.TokenStore.Path
	}
	if other.TokenStore.Key != "" {
		result.TokenStore.Key = other.TokenStore.Key
	}
	if other.AccessTokenName != "" {
		result.AccessTokenName = other.AccessTokenName
	}
	if other.RefreshTokenName != "" {
		result.RefreshTokenName = other.RefreshTokenName
	}

	// Boolean flags - only override if explicitly set in other config
	if other.DynamicVariables != nil {
		result.DynamicVariables = other.DynamicVariables
	}
	if other.WarnUnresolved != nil {
		result.WarnUnresolved = other.WarnUnresolved
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	if len(other.ExtraTokenFields) > 0 {
		result.ExtraTokenFields = append(append([]string(nil), c.ExtraTokenFields...), other.ExtraTokenFields...)
	}

	return &result
}

// SaveConfig saves the configuration to a file
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
