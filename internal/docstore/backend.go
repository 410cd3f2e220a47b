// Package docstore is the gateway between the catalog and a document database.
//
// Gateway carries the behaviour the rest of the service relies on: retry
// with backoff for rate-limited bulk writes, update of one field of a
// course nested inside a degree document, and identity normalisation on
// reads. Backend is the narrow port the concrete databases implement.
package docstore

import (
	"context"
	"errors"

	"github.com/starford/edupath/internal/models"
)

var (
	// ErrCollectionExists is returned by Backend.CreateCollection when the name is taken.
	ErrCollectionExists = errors.New("collection already exists")
	// ErrDuplicateID is returned when an insert reuses a stored _id.
	ErrDuplicateID = errors.New("duplicate _id")
)

// Backend is a document database.
//
// Implementations return errors wrapping apperr.ErrNotFound when FindOne
// matches nothing and apperr.ErrRateLimited when the server throttles a
// write. Documents handed in are never retained or mutated; documents
// handed out are owned by the caller and carry a string _id.
type Backend interface {
	Ping(ctx context.Context) error
	ListCollectionNames(ctx context.Context) ([]string, error)
	CreateCollection(ctx context.Context, name string) error
	InsertOne(ctx context.Context, collection string, doc models.Document) (string, error)
	InsertMany(ctx context.Context, collection string, docs []models.Document) ([]string, error)
	// FindOne returns the first document, in storage order, matching every
	// clause of query. Keys may be dotted paths.
	FindOne(ctx context.Context, collection string, query models.Document) (models.Document, error)
	FindAll(ctx context.Context, collection string) ([]models.Document, error)
	// ReplaceOne overwrites the document with the given id and reports how
	// many documents changed: 0 when the stored content was already equal.
	ReplaceOne(ctx context.Context, collection, id string, doc models.Document) (int64, error)
	Close(ctx context.Context) error
}

// IDAssigner is implemented by backends whose bulk insert can be partially
// applied before failing. The Gateway stamps identities once per batch so
// a retried batch collides with the part already written instead of
// storing it twice.
type IDAssigner interface {
	AssignIDs(docs []models.Document) []models.Document
}
