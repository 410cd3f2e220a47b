package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func tempDataDir(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempDataDir(t)
	content := []byte(`[{"courseTitle":"Accounting I"}]`)
	if err := s.Write("bachelor_accountancy_courses.json", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("bachelor_accountancy_courses.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempDataDir(t)
	if err := s.Write("a/b/c.json", []byte("[]")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a/b/c.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "[]" {
		t.Errorf("content = %q", got)
	}
}

func TestListFiltersByExtension(t *testing.T) {
	s := tempDataDir(t)
	_ = s.Write("colleges_degrees.json", []byte("[]"))
	_ = s.Write("bachelor_social_work_courses.json", []byte("[]"))
	_ = s.Write("readme.txt", []byte("not json"))
	_ = s.Write("sub/nested.json", []byte("[]"))

	items, err := s.List("", ".json")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].Path != "bachelor_social_work_courses.json" {
		t.Errorf("first = %q, want sorted order", items[0].Path)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempDataDir(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.json",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	s := tempDataDir(t)
	_ = s.Write("atomic.json", []byte(`["v1"]`))

	updated := []byte(`["v2"]`)
	if err := s.Write("atomic.json", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.json")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.Root(), ".edupath-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "edupath-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
