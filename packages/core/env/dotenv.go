package env

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ParseDotEnv reads KEY=value lines in file order.
// Supports: KEY=value, KEY="quoted value", KEY='single quoted', # comments,
// and an optional "export " prefix. Repeated keys are kept as separate variables.
func ParseDotEnv(r io.Reader) ([]Variable, error) {
	var vars []Variable
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}

		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value = strings.TrimSpace(value)
		if key == "" {
			continue
		}

		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		vars = append(vars, Variable{Key: key, Value: value})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading env file: %w", err)
	}
	return vars, nil
}

// LoadDotEnv parses a .env file into ordered variables.
func LoadDotEnv(path string) ([]Variable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open env file: %w", err)
	}
	defer file.Close()

	return ParseDotEnv(file)
}

// FromDotEnv loads a .env file as an environment. An empty name defaults to
// the file's base name.
func FromDotEnv(name, path string) (*Environment, error) {
	vars, err := LoadDotEnv(path)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = filepath.Base(path)
	}

	e := &Environment{Name: name, Variables: vars}
	if info, err := os.Stat(path); err == nil {
		e.UpdatedAt = info.ModTime()
	}
	return e, nil
}
