// Package postman imports Postman Collection v2.1 and environment exports
// into a restvars workspace.
//
// Folders become nested collections, collection and folder auth is kept so
// requests can inherit it, and test scripts are carried over so their
// pm.environment.set calls can later be turned into token mappings.
package postman
