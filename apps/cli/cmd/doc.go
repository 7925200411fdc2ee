// Package cmd implements the restvars CLI commands using Cobra.
//
// Available commands:
//   - resolve: Substitute variables and tokens into a saved request
//   - extract: List credential-shaped fields and script captures in a response
//   - mappings: Show the variable assignments a test script makes
//   - tokens: Manage the token store
//   - import: Convert Postman, Insomnia or curl input into a workspace file
//   - validate: Check environment files against the schema
//   - version: Show restvars version information
//
// Flags fall back to RESTVARS_* environment variables, and a
// .restvars.config.json file supplies project defaults.
package cmd
