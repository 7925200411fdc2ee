package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/restvars/packages/auth"
)

var (
	ErrNotFound     = errors.New("token not found")
	ErrInvalidToken = errors.New("token name and value are required")
)

// Store is a token persistence backend.
type Store interface {
	// Load returns every token in insertion order.
	Load(ctx context.Context) ([]auth.Token, error)
	Get(ctx context.Context, id string) (auth.Token, error)
	// GetByName returns the first token with the given name.
	GetByName(ctx context.Context, name string) (auth.Token, error)
	Save(ctx context.Context, d auth.Draft) (auth.Token, error)
	Update(ctx context.Context, id string, d auth.Draft) (auth.Token, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Close() error
}

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config selects and configures a store.
type Config struct {
	Driver string
	Path   string
	Key    string
}

// Open creates the store described by cfg. An empty driver selects the
// memory store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite, "sqlite3":
		var opts []SQLiteOption
		if cfg.Key != "" {
			sealer, err := NewSealerFromString(cfg.Key)
			if err != nil {
				return nil, err
			}
			opts = append(opts, WithSealer(sealer))
		}
		return OpenSQLite(ctx, cfg.Path, opts...)
	default:
		return nil, fmt.Errorf("unsupported token store driver: %s", cfg.Driver)
	}
}

func validate(d auth.Draft) (auth.Draft, error) {
	if !d.Valid() {
		return d, ErrInvalidToken
	}
	d = d.Normalize()
	if d.Source == "" {
		d.Source = auth.SourceManual
	}
	return d, nil
}
