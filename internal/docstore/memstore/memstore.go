// Package memstore is an in-process docstore.Backend used for tests and local runs.
package memstore

import (
	"context"
	"slices"
	"sync"

	"github.com/starford/edupath/internal/apperr"
	"github.com/starford/edupath/internal/docstore"
	"github.com/starford/edupath/internal/models"
)

type collection struct {
	order []string
	docs  map[string]models.Document
}

// Store keeps collections in memory, preserving insertion order.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

var _ docstore.Backend = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{collections: make(map[string]*collection)}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close(context.Context) error { return nil }

func (s *Store) ListCollectionNames(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (s *Store) CreateCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; ok {
		return docstore.ErrCollectionExists
	}
	s.collections[name] = &collection{docs: make(map[string]models.Document)}
	return nil
}

// coll returns the named collection, creating it on first write.
func (s *Store) coll(name string) *collection {
	c, ok := s.collections[name]
	if !ok {
		c = &collection{docs: make(map[string]models.Document)}
		s.collections[name] = c
	}
	return c
}

func (s *Store) InsertOne(_ context.Context, name string, doc models.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(name, doc)
}

func (s *Store) InsertMany(_ context.Context, name string, docs []models.Document) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		id, err := s.insertLocked(name, d)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Store) insertLocked(name string, doc models.Document) (string, error) {
	c := s.coll(name)
	cp, id := docstore.PrepareInsert(doc)
	if _, dup := c.docs[id]; dup {
		return "", apperr.E(apperr.KindWrite, "insert", name, docstore.ErrDuplicateID)
	}
	c.docs[id] = cp
	c.order = append(c.order, id)
	return id, nil
}

func (s *Store) FindOne(_ context.Context, name string, query models.Document) (models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if ok {
		for _, id := range c.order {
			if d := c.docs[id]; docstore.Matches(d, query) {
				return d.Clone(), nil
			}
		}
	}
	return nil, apperr.ErrNotFound
}

func (s *Store) FindAll(_ context.Context, name string) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return []models.Document{}, nil
	}
	out := make([]models.Document, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.docs[id].Clone())
	}
	return out, nil
}

func (s *Store) ReplaceOne(_ context.Context, name, id string, doc models.Document) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		return 0, nil
	}
	existing, ok := c.docs[id]
	if !ok {
		return 0, nil
	}
	cp := doc.Clone()
	cp[models.IDField] = id
	if docstore.SameContent(existing, cp) {
		return 0, nil
	}
	c.docs[id] = cp
	return 1, nil
}
