// Package script finds variable assignments in Postman-style test scripts.
//
// Scripts are never evaluated. A small lexer splits the source into
// strings, identifiers, punctuation, whitespace and comments, and a fixed
// scan recognizes calls such as
//
//	pm.environment.set("user_token", jsonData.data.token);
//	postman.setGlobalVariable("session", jsonData.session_id);
//
// Each recognized call becomes a TokenMapping from a variable name to a
// path in the next JSON response.
package script
