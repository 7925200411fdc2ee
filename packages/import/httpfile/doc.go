// Package httpfile converts .http request files into a restvars workspace.
//
// The format is the one used by REST client editor plugins:
//   - "@name = value" lines declare variables, imported as an environment
//   - "###" separates requests and may carry the request name
//   - "# @name", "# @auth <scheme> <params...>" and "# @noauth" annotate the next request
//   - "? key = value" lines add query parameters, "& key = value" lines a form body
//   - ">>> capture" blocks ("token from body.access_token") become variable
//     assignments in the request's test script
//
// Assertion and other ">>>" blocks are read and skipped.
package httpfile
