package builtin

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Func produces the value of a dynamic variable.
type Func func() string

// Registry maps dynamic variable names (including the leading $) to their
// generators.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
	now   func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the time source used by the time based variables.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		funcs: make(map[string]Func),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.registerDefaults()
	return r
}

func (r *Registry) registerDefaults() {
	r.funcs["$guid"] = varUUID
	r.funcs["$randomUUID"] = varUUID
	r.funcs["$timestamp"] = func() string {
		return strconv.FormatInt(r.now().Unix(), 10)
	}
	r.funcs["$isoTimestamp"] = func() string {
		return r.now().UTC().Format("2006-01-02T15:04:05.000Z")
	}
	r.funcs["$randomInt"] = func() string {
		return strconv.Itoa(rand.Intn(1001))
	}
	r.funcs["$randomAlphaNumeric"] = func() string {
		return randomString(1, alphanumeric)
	}
	r.funcs["$randomBoolean"] = func() string {
		return strconv.FormatBool(rand.Intn(2) == 1)
	}
	r.funcs["$randomEmail"] = func() string {
		return fmt.Sprintf("%s@%s.com", randomString(8, lowercase), randomString(6, lowercase))
	}
}

// Register adds or replaces a dynamic variable. Names without a leading $
// get one.
func (r *Registry) Register(name string, fn Func) {
	if !strings.HasPrefix(name, "$") {
		name = "$" + name
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Lookup evaluates the dynamic variable with the given name.
func (r *Registry) Lookup(name string) (string, bool) {
	r.mu.RLock()
	fn, ok := r.funcs[name]
	r.mu.RUnlock()
	if !ok {
		return "", false
	}
	return fn(), true
}

// Names returns the registered variable names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	return names
}

const (
	lowercase    = "abcdefghijklmnopqrstuvwxyz"
	alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

func varUUID() string {
	return uuid.New().String()
}

func randomString(length int, charset string) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
