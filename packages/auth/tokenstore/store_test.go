package tokenstore

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/abdul-hamid-achik/restvars/packages/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T, opts ...SQLiteOption) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "tokens.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": openSQLite(t),
	}
}

func TestStore_Contract(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			first, err := s.Save(ctx, auth.Draft{Name: " user_token ", Value: " abc ", Source: auth.SourceExtracted})
			require.NoError(t, err)
			assert.NotEmpty(t, first.ID)
			assert.Equal(t, "user_token", first.Name)
			assert.Equal(t, "abc", first.Value)

			second, err := s.Save(ctx, auth.Draft{Name: "api_key", Value: "k1"})
			require.NoError(t, err)
			assert.Equal(t, auth.SourceManual, second.Source)

			got, err := s.Get(ctx, second.ID)
			require.NoError(t, err)
			assert.Equal(t, "k1", got.Value)

			byName, err := s.GetByName(ctx, "user_token")
			require.NoError(t, err)
			assert.Equal(t, first.ID, byName.ID)
			assert.Equal(t, auth.SourceExtracted, byName.Source)

			updated, err := s.Update(ctx, second.ID, auth.Draft{Name: "api_key", Value: "k2", Source: auth.SourceImported})
			require.NoError(t, err)
			assert.Equal(t, "k2", updated.Value)
			assert.Equal(t, auth.SourceImported, updated.Source)
			assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

			tokens, err := s.Load(ctx)
			require.NoError(t, err)
			require.Len(t, tokens, 2)
			assert.Equal(t, "user_token", tokens[0].Name)
			assert.Equal(t, "api_key", tokens[1].Name)

			require.NoError(t, s.Delete(ctx, first.ID))
			_, err = s.Get(ctx, first.ID)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.Delete(ctx, first.ID), ErrNotFound)

			_, err = s.Update(ctx, "missing", auth.Draft{Name: "a", Value: "b"})
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = s.GetByName(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Clear(ctx))
			tokens, err = s.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, tokens)
		})
	}
}

func TestStore_RejectsBlankDrafts(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Save(ctx, auth.Draft{Name: "  ", Value: "v"})
			assert.ErrorIs(t, err, ErrInvalidToken)

			_, err = s.Save(ctx, auth.Draft{Name: "n", Value: ""})
			assert.ErrorIs(t, err, ErrInvalidToken)

			tok, err := s.Save(ctx, auth.Draft{Name: "n", Value: "v"})
			require.NoError(t, err)
			_, err = s.Update(ctx, tok.ID, auth.Draft{Name: "n", Value: " "})
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestMemoryStore_UpsertsByName(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Save(ctx, auth.Draft{Name: "a", Value: "1"})
	require.NoError(t, err)
	_, err = s.Save(ctx, auth.Draft{Name: "b", Value: "2"})
	require.NoError(t, err)
	replaced, err := s.Save(ctx, auth.Draft{Name: "a", Value: "3"})
	require.NoError(t, err)

	tokens, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, replaced, tokens[0], "replacement keeps the original position")
	assert.Equal(t, "3", tokens[0].Value)

	tokens[0].Value = "mutated"
	again, _ := s.Load(ctx)
	assert.Equal(t, "3", again[0].Value, "Load returns a copy")
}

func TestSQLiteStore_AppendsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	first, err := s.Save(ctx, auth.Draft{Name: "a", Value: "1"})
	require.NoError(t, err)
	_, err = s.Save(ctx, auth.Draft{Name: "a", Value: "2"})
	require.NoError(t, err)

	tokens, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, tokens, 2)

	byName, err := s.GetByName(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, first.ID, byName.ID)
}

func TestSQLiteStore_SealsValues(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sealed.db")

	sealer, err := NewSealerFromString("correct horse battery staple")
	require.NoError(t, err)

	s, err := OpenSQLite(ctx, path, WithSealer(sealer))
	require.NoError(t, err)
	tok, err := s.Save(ctx, auth.Draft{Name: "secret", Value: "plain-value"})
	require.NoError(t, err)

	got, err := s.Get(ctx, tok.ID)
	require.NoError(t, err)
	assert.Equal(t, "plain-value", got.Value)
	require.NoError(t, s.Close())

	raw, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	var stored []byte
	require.NoError(t, raw.QueryRow(`SELECT value FROM auth_tokens WHERE id = ?`, tok.ID).Scan(&stored))
	assert.NotContains(t, string(stored), "plain-value")
	require.NoError(t, raw.Close())

	unkeyed, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer unkeyed.Close()
	_, err = unkeyed.Get(ctx, tok.ID)
	assert.ErrorIs(t, err, ErrSealed)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Config{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "t.db"), Key: "k"})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Config{Driver: DriverSQLite})
	assert.Error(t, err)

	_, err = Open(ctx, Config{Driver: "redis"})
	assert.Error(t, err)
}
