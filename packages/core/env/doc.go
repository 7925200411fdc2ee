// Package env handles environments and {{variable}} resolution for restvars.
//
// It provides functionality for:
//   - The Environment and Variable model (ordered, possibly disabled variables)
//   - Placeholder substitution with auth tokens taking priority over variables
//   - Opt-in Postman dynamic variables such as {{$guid}} and {{$timestamp}}
//   - Loading environments from .env files and schema-validated YAML/JSON files
package env
