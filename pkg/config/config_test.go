package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func (s *sample) Validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "catalog")
	path := writeFile(t, t.TempDir(), "c.yaml", "name: ${SAMPLE_NAME}\ncount: 3\n")

	var got sample
	if err := Load(path, &got); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "catalog" || got.Count != 3 {
		t.Errorf("got %+v", got)
	}
}

func TestLoad_Validates(t *testing.T) {
	path := writeFile(t, t.TempDir(), "c.yaml", "count: 3\n")

	var got sample
	err := Load(path, &got)
	if err == nil || !strings.Contains(err.Error(), "name is required") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var got sample
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &got); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	dir := t.TempDir()
	def := writeFile(t, dir, "default.yaml", "name: fallback\n")
	own := writeFile(t, dir, "own.yaml", "name: own\ncount: 2\n")

	var got sample
	used, err := LoadWithDefaults(filepath.Join(dir, "missing.yaml"), def, &got)
	if err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if got.Name != "fallback" || used != def {
		t.Errorf("got %+v from %q, want fallback from %q", got, used, def)
	}

	got = sample{}
	used, err = LoadWithDefaults(own, def, &got)
	if err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if got.Name != "own" || got.Count != 2 || used != own {
		t.Errorf("got %+v from %q, want own file", got, used)
	}

	got = sample{}
	if used, err = LoadWithDefaults("", def, &got); err != nil || used != def {
		t.Fatalf("empty filename should read default, got %q, %v", used, err)
	}
}

func TestLoadWithDefaults_NoFallback(t *testing.T) {
	var got sample
	_, err := LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"), "", &got)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}

	if _, err := LoadWithDefaults("", "", &got); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist for empty paths, got %v", err)
	}
}

func TestLoadWithDefaults_InvalidFileNotMasked(t *testing.T) {
	dir := t.TempDir()
	def := writeFile(t, dir, "default.yaml", "name: fallback\n")
	bad := writeFile(t, dir, "bad.yaml", "count: 1\n")

	var got sample
	_, err := LoadWithDefaults(bad, def, &got)
	if err == nil || !strings.Contains(err.Error(), "name is required") {
		t.Fatalf("expected validation error from %s, got %v", bad, err)
	}
}
