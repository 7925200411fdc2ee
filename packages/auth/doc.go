// Package auth models request authentication and auth tokens.
//
// It provides:
//   - RequestAuth, the Postman-style auth object (noauth, bearer, basic, apikey)
//   - Inheritance resolution between request-level and collection-level auth
//   - Application of an effective auth to outgoing headers and query parameters
//   - Token and Draft, the named credential values resolvable as {{name}}
//
// Nothing in this package performs variable substitution; callers resolve
// placeholders in auth parameters separately.
package auth
