// Package collection models saved requests, collections and the workspace
// file that holds them together with environments.
//
// Collections nest. A collection's auth is inherited by its requests and by
// nested collections that carry no auth of their own.
package collection
