// Package tokenstore persists auth tokens behind a small load/save/delete
// interface.
//
// Two stores are provided. MemoryStore keeps tokens for the life of the
// process and upserts by name. SQLiteStore keeps tokens in a sqlite database,
// appends on every save so names may repeat, and can seal token values with
// XChaCha20-Poly1305.
//
// Resolution never reads a store directly; callers Load the tokens and pass
// them to env.NewResolver.
package tokenstore
