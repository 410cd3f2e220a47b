// Package jsonfile is the fallback docstore.Backend: each collection is one
// JSON array file in a data directory, rewritten whole on every change.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"github.com/starford/edupath/internal/apperr"
	"github.com/starford/edupath/internal/docstore"
	"github.com/starford/edupath/internal/models"
	"github.com/starford/edupath/internal/storage"
)

const ext = ".json"

// Store keeps collections as <name>.json files under a storage.Provider.
type Store struct {
	mu     sync.Mutex
	files  storage.Provider
	logger *slog.Logger
}

var _ docstore.Backend = (*Store)(nil)

// New creates a Store over files.
func New(files storage.Provider, logger *slog.Logger) *Store {
	return &Store{files: files, logger: logger}
}

func fileName(collection string) (string, error) {
	if collection == "" || strings.ContainsAny(collection, `/\`) || strings.HasPrefix(collection, ".") {
		return "", fmt.Errorf("jsonfile: invalid collection name %q", collection)
	}
	return collection + ext, nil
}

// load reads a collection. Records lacking an _id are given one and the
// file is rewritten, so hand-edited files become addressable by ReplaceOne.
func (s *Store) load(collection string) ([]models.Document, bool, error) {
	name, err := fileName(collection)
	if err != nil {
		return nil, false, err
	}
	raw, err := s.files.Read(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var docs []models.Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, true, fmt.Errorf("jsonfile: decode %s: %w", name, err)
	}
	dirty := false
	for i, d := range docs {
		if d.ID() == "" {
			docs[i], _ = docstore.PrepareInsert(d)
			dirty = true
		}
	}
	if dirty {
		s.logger.Info("jsonfile: assigned ids to records", slog.String("collection", collection))
		if err := s.save(collection, docs); err != nil {
			return nil, true, err
		}
	}
	return docs, true, nil
}

func (s *Store) save(collection string, docs []models.Document) error {
	name, err := fileName(collection)
	if err != nil {
		return err
	}
	if docs == nil {
		docs = []models.Document{}
	}
	raw, err := json.MarshalIndent(docs, "", "    ")
	if err != nil {
		return fmt.Errorf("jsonfile: encode %s: %w", name, err)
	}
	return s.files.Write(name, raw)
}

func (s *Store) Ping(context.Context) error {
	_, err := s.files.List("", ext)
	return err
}

func (s *Store) Close(context.Context) error { return nil }

func (s *Store) ListCollectionNames(context.Context) ([]string, error) {
	items, err := s.files.List("", ext)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, strings.TrimSuffix(it.Path, ext))
	}
	return names, nil
}

func (s *Store) CreateCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists, err := s.load(name)
	if err != nil {
		return err
	}
	if exists {
		return docstore.ErrCollectionExists
	}
	return s.save(name, nil)
}

func (s *Store) InsertOne(ctx context.Context, collection string, doc models.Document) (string, error) {
	ids, err := s.InsertMany(ctx, collection, []models.Document{doc})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// InsertMany appends docs. Duplicates are not checked.
func (s *Store) InsertMany(_ context.Context, collection string, docs []models.Document) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, _, err := s.load(collection)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		cp, id := docstore.PrepareInsert(d)
		existing = append(existing, cp)
		ids = append(ids, id)
	}
	if err := s.save(collection, existing); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) FindOne(_ context.Context, collection string, query models.Document) (models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, _, err := s.load(collection)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		if docstore.Matches(d, query) {
			return d, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (s *Store) FindAll(_ context.Context, collection string) ([]models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, _, err := s.load(collection)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return docs, nil
}

func (s *Store) ReplaceOne(_ context.Context, collection, id string, doc models.Document) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, _, err := s.load(collection)
	if err != nil {
		return 0, err
	}
	for i, d := range docs {
		if d.ID() != id {
			continue
		}
		cp := doc.Clone()
		cp[models.IDField] = id
		if docstore.SameContent(d, cp) {
			return 0, nil
		}
		docs[i] = cp
		if err := s.save(collection, docs); err != nil {
			return 0, err
		}
		return 1, nil
	}
	return 0, nil
}
