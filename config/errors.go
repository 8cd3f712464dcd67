package config

import (
	"errors"
	"strings"
)

// ErrNoAPIKey is returned by the keyring lookup when no key is stored.
var ErrNoAPIKey = errors.New("no API key stored")

// ConfigError lists every missing or invalid setting found during validation.
type ConfigError struct {
	Problems []string
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

func (e *ConfigError) add(problem string) {
	e.Problems = append(e.Problems, problem)
}

func (e *ConfigError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}
