// Package config handles configuration loading and management for restvars.
//
// It provides functionality for:
//   - Discovering .restvars.config.json, restvars.config.json, .restvarsrc or .restvarsrc.json
//   - Default configuration values
//   - Merging file values with command line overrides
package config
