package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		DefaultEnvironment: "",
		TokenStore: TokenStore{
			Driver: "memory",
		},
		DynamicVariables: BoolPtr(false),
		WarnUnresolved:   BoolPtr(true),
		AccessTokenName:  "user_token",
		RefreshTokenName: "refresh_token",
		NoColor:          BoolPtr(false),
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.DefaultEnvironment == defaults.DefaultEnvironment &&
		c.EnvironmentFile == defaults.EnvironmentFile &&
		c.TokenStore == defaults.TokenStore &&
		c.GetDynamicVariables() == defaults.GetDynamicVariables() &&
		c.GetWarnUnresolved() == defaults.GetWarnUnresolved() &&
		len(c.ExtraTokenFields) == 0 &&
		c.AccessTokenName == defaults.AccessTokenName &&
		c.RefreshTokenName == defaults.RefreshTokenName &&
		c.GetNoColor() == defaults.GetNoColor()
}
