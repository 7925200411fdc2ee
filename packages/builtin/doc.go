// Package builtin provides the Postman-style dynamic variables that can be
// enabled on a resolver.
//
// Available variables:
//   - $guid, $randomUUID: random UUID v4
//   - $timestamp: current Unix timestamp in seconds
//   - $isoTimestamp: current UTC time in ISO 8601 format
//   - $randomInt: random integer between 0 and 1000
//   - $randomAlphaNumeric: single random alphanumeric character
//   - $randomBoolean: true or false
//   - $randomEmail: random email address
//
// Dynamic variables are referenced as {{$name}} and are only consulted after
// auth tokens and environment variables failed to resolve the name.
package builtin
