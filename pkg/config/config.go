// Package config loads YAML files into typed structs, expanding ${VAR}
// references from the environment before parsing.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Validator is implemented by config structs that check themselves after
// parsing.
type Validator interface {
	Validate() error
}

// Load reads filename, expands environment references, decodes the YAML
// over target and runs target's Validate when it has one. Fields absent
// from the file keep the values target already holds.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("read config %s: %w", filename, err)
	}

	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), target); err != nil {
		return fmt.Errorf("parse config %s: %w", filename, err)
	}

	if v, ok := any(target).(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", filename, err)
		}
	}
	return nil
}

// LoadWithDefaults loads filename, or defaultFile when filename is empty or
// does not exist. It returns the path that was actually read.
func LoadWithDefaults[T any](filename, defaultFile string, target *T) (string, error) {
	path := filename
	if path == "" {
		path = defaultFile
	} else if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && defaultFile != "" {
		path = defaultFile
	}
	if path == "" {
		return "", fmt.Errorf("config file not found: %q: %w", filename, os.ErrNotExist)
	}
	return path, Load(path, target)
}
