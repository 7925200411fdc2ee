package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/restvars/packages/auth"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

// ErrSealed is returned when a sealed value is read without a sealer.
var ErrSealed = errors.New("token value is sealed and no key is configured")

const schema = `
CREATE TABLE IF NOT EXISTS auth_tokens (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	value      BLOB NOT NULL,
	sealed     INTEGER NOT NULL DEFAULT 0,
	source     TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS auth_tokens_name ON auth_tokens(name);
`

const selectColumns = `SELECT id, name, value, sealed, source, created_at, updated_at FROM auth_tokens`

// SQLiteStore keeps tokens in a sqlite database. Every Save appends a new
// row, so several tokens may share a name; lookups by name return the
// oldest one.
type SQLiteStore struct {
	db     *sql.DB
	sealer *Sealer
}

// SQLiteOption configures a SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithSealer encrypts token values before they are written.
func WithSealer(s *Sealer) SQLiteOption {
	return func(store *SQLiteStore) {
		store.sealer = s
	}
}

// OpenSQLite opens (and creates if needed) the database at path.
func OpenSQLite(ctx context.Context, path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite token store requires a path")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	s := &SQLiteStore{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) ([]auth.Token, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var tokens []auth.Token
	for rows.Next() {
		t, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return tokens, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (auth.Token, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	return s.scanOne(row)
}

func (s *SQLiteStore) GetByName(ctx context.Context, name string) (auth.Token, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE name = ? ORDER BY seq LIMIT 1`, name)
	return s.scanOne(row)
}

func (s *SQLiteStore) Save(ctx context.Context, d auth.Draft) (auth.Token, error) {
	d, err := validate(d)
	if err != nil {
		return auth.Token{}, err
	}

	token := auth.NewToken(d)
	value, sealed, err := s.encode(token.Value)
	if err != nil {
		return auth.Token{}, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO auth_tokens (id, name, value, sealed, source, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		token.ID, token.Name, value, sealed, string(token.Source),
		token.CreatedAt.UnixMilli(), token.UpdatedAt.UnixMilli())
	if err != nil {
		return auth.Token{}, fmt.Errorf("insert failed: %w", err)
	}

	token.CreatedAt = time.UnixMilli(token.CreatedAt.UnixMilli())
	token.UpdatedAt = token.CreatedAt
	return token, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id string, d auth.Draft) (auth.Token, error) {
	d, err := validate(d)
	if err != nil {
		return auth.Token{}, err
	}

	value, sealed, err := s.encode(d.Value)
	if err != nil {
		return auth.Token{}, err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE auth_tokens SET name = ?, value = ?, sealed = ?, source = ?, updated_at = ? WHERE id = ?`,
		d.Name, value, sealed, string(d.Source), time.Now().UnixMilli(), id)
	if err != nil {
		return auth.Token{}, fmt.Errorf("update failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return auth.Token{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM auth_tokens`); err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}
	return nil
}

func (s *SQLiteStore) encode(value string) ([]byte, bool, error) {
	if s.sealer == nil {
		return []byte(value), false, nil
	}
	sealed, err := s.sealer.Seal([]byte(value))
	if err != nil {
		return nil, false, err
	}
	return sealed, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanOne(row *sql.Row) (auth.Token, error) {
	t, err := s.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Token{}, ErrNotFound
	}
	return t, err
}

func (s *SQLiteStore) scan(row rowScanner) (auth.Token, error) {
	var (
		t                    auth.Token
		value                []byte
		sealed               bool
		source               string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&t.ID, &t.Name, &value, &sealed, &source, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.Token{}, err
		}
		return auth.Token{}, fmt.Errorf("failed to scan row: %w", err)
	}

	if sealed {
		if s.sealer == nil {
			return auth.Token{}, fmt.Errorf("%s: %w", t.Name, ErrSealed)
		}
		plain, err := s.sealer.Open(value)
		if err != nil {
			return auth.Token{}, fmt.Errorf("%s: %w", t.Name, err)
		}
		value = plain
	}

	t.Value = string(value)
	t.Source = auth.Source(source)
	t.CreatedAt = time.UnixMilli(createdAt)
	t.UpdatedAt = time.UnixMilli(updatedAt)
	return t, nil
}
