// Package output provides formatters for displaying restvars results.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output
//   - JSON: Machine-readable JSON output, one document per result
//
// Both formatters render the same result types: resolved requests,
// extracted tokens, script mappings and token store listings.
package output
