package tokenstore

import (
	"context"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/restvars/packages/auth"
)

// MemoryStore keeps tokens in process memory. Saving a token whose name
// already exists replaces that token in place.
type MemoryStore struct {
	tokens []auth.Token
	mutex  sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) ([]auth.Token, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return append([]auth.Token(nil), s.tokens...), nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (auth.Token, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if i := s.indexOf(func(t auth.Token) bool { return t.ID == id }); i >= 0 {
		return s.tokens[i], nil
	}
	return auth.Token{}, ErrNotFound
}

func (s *MemoryStore) GetByName(ctx context.Context, name string) (auth.Token, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if i := s.indexOf(func(t auth.Token) bool { return t.Name == name }); i >= 0 {
		return s.tokens[i], nil
	}
	return auth.Token{}, ErrNotFound
}

func (s *MemoryStore) Save(ctx context.Context, d auth.Draft) (auth.Token, error) {
	d, err := validate(d)
	if err != nil {
		return auth.Token{}, err
	}

	token := auth.NewToken(d)

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if i := s.indexOf(func(t auth.Token) bool { return t.Name == d.Name }); i >= 0 {
		s.tokens[i] = token
	} else {
		s.tokens = append(s.tokens, token)
	}
	return token, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, d auth.Draft) (auth.Token, error) {
	d, err := validate(d)
	if err != nil {
		return auth.Token{}, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	i := s.indexOf(func(t auth.Token) bool { return t.ID == id })
	if i < 0 {
		return auth.Token{}, ErrNotFound
	}
	s.tokens[i].Name = d.Name
	s.tokens[i].Value = d.Value
	s.tokens[i].Source = d.Source
	s.tokens[i].UpdatedAt = time.Now()
	return s.tokens[i], nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	i := s.indexOf(func(t auth.Token) bool { return t.ID == id })
	if i < 0 {
		return ErrNotFound
	}
	s.tokens = append(s.tokens[:i], s.tokens[i+1:]...)
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.tokens = nil
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// indexOf must be called with the mutex held.
func (s *MemoryStore) indexOf(match func(auth.Token) bool) int {
	for i, t := range s.tokens {
		if match(t) {
			return i
		}
	}
	return -1
}
