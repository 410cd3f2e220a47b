package docstore

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/starford/edupath/internal/apperr"
	"github.com/starford/edupath/internal/models"
)

// Collection creation statuses, as reported to HTTP clients.
const (
	StatusCollectionCreated = "Collection created"
	StatusCollectionExists  = "Collection already exists"
)

// CreateResult describes the outcome of CreateCollection.
type CreateResult struct {
	Status         string `json:"status"`
	CollectionName string `json:"collection_name"`
	AlreadyExists  bool   `json:"-"`
}

// UpdateResult describes the outcome of UpdateNestedCourseField.
// Updated is false when the new value equalled the stored one.
type UpdateResult struct {
	Updated bool
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Gateway wraps a Backend with the catalog's store semantics.
type Gateway struct {
	backend     Backend
	logger      *slog.Logger
	maxAttempts int
	backoffUnit time.Duration
	sleep       Sleeper
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithMaxAttempts bounds the attempts InsertMany makes under rate limiting.
func WithMaxAttempts(n int) GatewayOption {
	return func(g *Gateway) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithBackoffUnit sets the base delay of the exponential backoff.
func WithBackoffUnit(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		if d > 0 {
			g.backoffUnit = d
		}
	}
}

// WithSleeper replaces the function used to wait between attempts.
func WithSleeper(s Sleeper) GatewayOption {
	return func(g *Gateway) {
		if s != nil {
			g.sleep = s
		}
	}
}

// NewGateway creates a Gateway over backend.
func NewGateway(backend Backend, logger *slog.Logger, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		backend:     backend,
		logger:      logger,
		maxAttempts: 5,
		backoffUnit: time.Second,
		sleep:       Sleep,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CollectionExists reports whether name exists. Backend faults are logged
// and reported as false.
func (g *Gateway) CollectionExists(ctx context.Context, name string) bool {
	names, err := g.backend.ListCollectionNames(ctx)
	if err != nil {
		g.logger.Warn("list collections failed",
			slog.String("collection", name),
			slog.String("error", err.Error()))
		return false
	}
	return slices.Contains(names, name)
}

// CreateCollection creates name unless it already exists.
func (g *Gateway) CreateCollection(ctx context.Context, name string) (CreateResult, error) {
	if name == "" {
		return CreateResult{}, apperr.E(apperr.KindWrite, "create collection", name, errors.New("collection name is required"))
	}
	if g.CollectionExists(ctx, name) {
		return CreateResult{Status: StatusCollectionExists, CollectionName: name, AlreadyExists: true}, nil
	}
	if err := g.backend.CreateCollection(ctx, name); err != nil {
		if errors.Is(err, ErrCollectionExists) {
			return CreateResult{Status: StatusCollectionExists, CollectionName: name, AlreadyExists: true}, nil
		}
		g.logger.Error("create collection failed",
			slog.String("collection", name),
			slog.String("error", err.Error()))
		return CreateResult{}, apperr.E(apperr.KindWrite, "create collection", name, err)
	}
	g.logger.Info("collection created", slog.String("collection", name))
	return CreateResult{Status: StatusCollectionCreated, CollectionName: name}, nil
}

// InsertOne stores doc and returns its identity.
func (g *Gateway) InsertOne(ctx context.Context, collection string, doc models.Document) (string, error) {
	id, err := g.backend.InsertOne(ctx, collection, doc)
	if err != nil {
		g.logger.Error("insert failed",
			slog.String("collection", collection),
			slog.String("error", err.Error()))
		return "", apperr.E(apperr.KindWrite, "insert", collection, err)
	}
	return id, nil
}

// InsertMany stores docs as one batch. A rate-limited attempt is retried
// after waiting backoffUnit * 2^attempt; any other failure aborts at once.
// When every attempt is throttled the last error is returned as a write fault.
func (g *Gateway) InsertMany(ctx context.Context, collection string, docs []models.Document) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	if a, ok := g.backend.(IDAssigner); ok {
		docs = a.AssignIDs(docs)
	}
	var lastErr error
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		ids, err := g.backend.InsertMany(ctx, collection, docs)
		if err == nil {
			return ids, nil
		}
		if !errors.Is(err, apperr.ErrRateLimited) {
			g.logger.Error("bulk insert failed",
				slog.String("collection", collection),
				slog.Int("documents", len(docs)),
				slog.String("error", err.Error()))
			return nil, apperr.E(apperr.KindWrite, "bulk insert", collection, err)
		}
		lastErr = err
		if attempt == g.maxAttempts-1 {
			break
		}
		delay := g.backoffUnit * time.Duration(1<<attempt)
		g.logger.Warn("bulk insert rate limited, backing off",
			slog.String("collection", collection),
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay))
		if err := g.sleep(ctx, delay); err != nil {
			return nil, apperr.E(apperr.KindWrite, "bulk insert", collection, err)
		}
	}
	g.logger.Error("bulk insert gave up after retries",
		slog.String("collection", collection),
		slog.Int("attempts", g.maxAttempts))
	return nil, apperr.E(apperr.KindWrite, "bulk insert", collection, lastErr)
}

// FindOne returns the first document matching query.
func (g *Gateway) FindOne(ctx context.Context, collection string, query models.Document) (models.Document, error) {
	doc, err := g.backend.FindOne(ctx, collection, query)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.E(apperr.KindNotFound, "find", collection, nil)
		}
		return nil, apperr.E(kindOr(err, apperr.KindConnection), "find", collection, err)
	}
	return doc, nil
}

// Exists reports whether any document matches query.
func (g *Gateway) Exists(ctx context.Context, collection string, query models.Document) (bool, error) {
	_, err := g.FindOne(ctx, collection, query)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// GetAll returns every document in collection with _id as a string.
func (g *Gateway) GetAll(ctx context.Context, collection string) ([]models.Document, error) {
	docs, err := g.backend.FindAll(ctx, collection)
	if err != nil {
		g.logger.Error("get all failed",
			slog.String("collection", collection),
			slog.String("error", err.Error()))
		return nil, apperr.E(kindOr(err, apperr.KindConnection), "get all", collection, err)
	}
	for _, d := range docs {
		if _, ok := d[models.IDField]; ok {
			d[models.IDField] = d.ID()
		}
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return docs, nil
}

// ListCollections returns the sorted collection names.
func (g *Gateway) ListCollections(ctx context.Context) ([]string, error) {
	names, err := g.backend.ListCollectionNames(ctx)
	if err != nil {
		return nil, apperr.E(apperr.KindConnection, "list collections", "", err)
	}
	slices.Sort(names)
	return names, nil
}

// Ping checks the backend is reachable.
func (g *Gateway) Ping(ctx context.Context) error {
	if err := g.backend.Ping(ctx); err != nil {
		return apperr.E(apperr.KindConnection, "ping", "", err)
	}
	return nil
}

// Close releases the backend.
func (g *Gateway) Close(ctx context.Context) error {
	return g.backend.Close(ctx)
}

func kindOr(err error, fallback apperr.Kind) apperr.Kind {
	if k := apperr.KindOf(err); k != apperr.KindUnknown {
		return k
	}
	return fallback
}
