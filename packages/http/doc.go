// Package http models REST requests and responses and materializes requests
// for network dispatch.
//
// It resolves {{variable}} placeholders across the four request surfaces:
//   - URL, either raw or rebuilt from protocol, host, path and query parts
//   - JSON bodies, recursively and string values only, or plain-text bodies
//   - Header keys and values
//   - Auth parameters
//
// Nothing in this package sends requests.
package http
