// Package storage is the file-system layer under the JSON-file store and snapshots.
package storage

import "time"

// FileInfo describes one stored file.
type FileInfo struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for data-directory file operations. All paths
// are relative to the provider root.
type Provider interface {
	// List returns the files directly under dir whose name ends in ext.
	List(dir, ext string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path.
	Write(path string, content []byte) error
}
