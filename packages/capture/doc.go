// Package capture finds credential-shaped fields in JSON responses.
//
// A successful JSON response is walked in document order. Every non-empty
// string property whose key looks like a token (token, access_token, apiKey,
// jwt, refreshToken ...) becomes an ExtractedToken with its access path and a
// suggested variable name. Common aliases are folded onto the names that
// requests reference: access tokens become {{user_token}} and refresh tokens
// become {{refresh_token}}.
//
// Extraction is read-only; callers decide whether to store the results.
package capture
