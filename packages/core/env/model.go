package env

import (
	"os"
	"strings"
	"time"
)

// Variable is a single environment entry. Keys are not unique within an
// environment; disabled variables never resolve.
type Variable struct {
	Key      string `json:"key" yaml:"key"`
	Value    string `json:"value" yaml:"value"`
	Disabled bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// Environment is a named, ordered set of variables.
type Environment struct {
	ID        string     `json:"id,omitempty" yaml:"id,omitempty"`
	Name      string     `json:"name" yaml:"name"`
	Variables []Variable `json:"variables" yaml:"variables"`
	UpdatedAt time.Time  `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// Get returns the value of the first enabled variable named key.
func (e *Environment) Get(key string) (string, bool) {
	if e == nil {
		return "", false
	}
	for _, v := range e.Variables {
		if !v.Disabled && v.Key == key {
			return v.Value, true
		}
	}
	return "", false
}

// Set updates the first enabled variable named key, or appends a new one.
func (e *Environment) Set(key, value string) {
	e.UpdatedAt = time.Now()
	for i := range e.Variables {
		if !e.Variables[i].Disabled && e.Variables[i].Key == key {
			e.Variables[i].Value = value
			return
		}
	}
	e.Variables = append(e.Variables, Variable{Key: key, Value: value})
}

// Enabled returns the enabled variables in their original order.
func (e *Environment) Enabled() []Variable {
	if e == nil {
		return nil
	}
	result := make([]Variable, 0, len(e.Variables))
	for _, v := range e.Variables {
		if !v.Disabled {
			result = append(result, v)
		}
	}
	return result
}

// Find returns the environment with the given name, or nil.
func Find(envs []Environment, name string) *Environment {
	for i := range envs {
		if envs[i].Name == name {
			return &envs[i]
		}
	}
	return nil
}

// Merge concatenates the variables of several environments into one.
// Earlier environments win lookups because the first enabled match is used.
func Merge(name string, envs ...*Environment) *Environment {
	merged := &Environment{Name: name}
	for _, e := range envs {
		if e == nil {
			continue
		}
		merged.Variables = append(merged.Variables, e.Variables...)
		if e.UpdatedAt.After(merged.UpdatedAt) {
			merged.UpdatedAt = e.UpdatedAt
		}
	}
	return merged
}

// FromSystem builds an environment from OS environment variables that carry
// the given prefix. The prefix is stripped from the keys.
func FromSystem(name, prefix string) *Environment {
	e := &Environment{Name: name}
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if prefix == "" {
			e.Variables = append(e.Variables, Variable{Key: key, Value: value})
		} else if len(key) > len(prefix) && strings.HasPrefix(key, prefix) {
			e.Variables = append(e.Variables, Variable{Key: key[len(prefix):], Value: value})
		}
	}
	return e
}
