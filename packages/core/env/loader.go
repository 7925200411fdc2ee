package env

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema/environments.schema.json
var environmentsSchema []byte

// ErrInvalidEnvironmentFile is returned when an environment file does not
// match the environments schema.
var ErrInvalidEnvironmentFile = errors.New("invalid environment file")

// ValidationError lists the schema violations of an environment file.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidEnvironmentFile, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidEnvironmentFile
}

type environmentFile struct {
	Environments []Environment `yaml:"environments"`
}

// LoadEnvironments reads a YAML or JSON environment file. The file is
// validated against the embedded environments schema before decoding.
func LoadEnvironments(path string) ([]Environment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read environment file: %w", err)
	}

	envs, err := ParseEnvironments(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if info, statErr := os.Stat(path); statErr == nil {
		for i := range envs {
			if envs[i].UpdatedAt.IsZero() {
				envs[i].UpdatedAt = info.ModTime()
			}
		}
	}
	return envs, nil
}

// ParseEnvironments validates and decodes environment file content.
func ParseEnvironments(data []byte) ([]Environment, error) {
	if err := ValidateEnvironments(data); err != nil {
		return nil, err
	}

	var file environmentFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decoding environments: %w", err)
	}
	return file.Environments, nil
}

// ValidateEnvironments checks environment file content against the schema.
func ValidateEnvironments(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing environments: %w", err)
	}
	if doc == nil {
		return &ValidationError{Problems: []string{"file is empty"}}
	}

	schemaLoader := gojsonschema.NewBytesLoader(environmentsSchema)
	documentLoader := gojsonschema.NewGoLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return &ValidationError{Problems: problems}
}
