// Package mongo is the hosted docstore.Backend, speaking the MongoDB wire
// protocol (Azure Cosmos DB for MongoDB in production).
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/starford/edupath/internal/apperr"
	"github.com/starford/edupath/internal/docstore"
	"github.com/starford/edupath/internal/models"
)

// Server error codes the backend reacts to.
const (
	codeNamespaceExists = 48
	codeTooManyRequests = 16500
)

// Store is a docstore.Backend on one database of a MongoDB deployment.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *slog.Logger
}

var (
	_ docstore.Backend    = (*Store)(nil)
	_ docstore.IDAssigner = (*Store)(nil)
)

// Connect dials uri, selects database and verifies the deployment answers
// a ping within timeout.
func Connect(ctx context.Context, uri, database string, timeout time.Duration, logger *slog.Logger) (*Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(timeout).
		SetRetryWrites(false)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, apperr.E(apperr.KindConnection, "connect", "", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, apperr.E(apperr.KindConnection, "ping", "", err)
	}
	logger.Info("mongo: connected", slog.String("database", database))
	return &Store{client: client, db: client.Database(database), logger: logger}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return classify(s.client.Ping(ctx, readpref.Primary()))
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) ListCollectionNames(ctx context.Context) ([]string, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, classify(err)
	}
	return names, nil
}

func (s *Store) CreateCollection(ctx context.Context, name string) error {
	err := s.db.CreateCollection(ctx, name)
	var se mongo.ServerError
	if errors.As(err, &se) && se.HasErrorCode(codeNamespaceExists) {
		return docstore.ErrCollectionExists
	}
	return classify(err)
}

func (s *Store) InsertOne(ctx context.Context, collection string, doc models.Document) (string, error) {
	if err := checkFieldNames(doc); err != nil {
		return "", err
	}
	res, err := s.db.Collection(collection).InsertOne(ctx, doc)
	if err != nil {
		return "", classify(err)
	}
	return idString(res.InsertedID), nil
}

func (s *Store) InsertMany(ctx context.Context, collection string, docs []models.Document) ([]string, error) {
	batch := make([]any, len(docs))
	for i, d := range docs {
		if err := checkFieldNames(d); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		batch[i] = d
	}
	res, err := s.db.Collection(collection).InsertMany(ctx, batch)
	if err != nil {
		return nil, classify(err)
	}
	ids := make([]string, len(res.InsertedIDs))
	for i, id := range res.InsertedIDs {
		ids[i] = idString(id)
	}
	return ids, nil
}

// AssignIDs gives every document without an _id a fresh ObjectID, so an
// ordered bulk write that was throttled after its first documents fails
// with a duplicate key on retry rather than writing them again.
func (s *Store) AssignIDs(docs []models.Document) []models.Document {
	out := make([]models.Document, len(docs))
	for i, d := range docs {
		cp := d.Clone()
		if cp == nil {
			cp = models.Document{}
		}
		if _, ok := cp[models.IDField]; !ok {
			cp[models.IDField] = primitive.NewObjectID()
		}
		out[i] = cp
	}
	return out
}

func (s *Store) FindOne(ctx context.Context, collection string, query models.Document) (models.Document, error) {
	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, Filter(query)).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, classify(err)
	}
	return Normalize(raw), nil
}

func (s *Store) FindAll(ctx context.Context, collection string) ([]models.Document, error) {
	cur, err := s.db.Collection(collection).Find(ctx, bson.D{})
	if err != nil {
		return nil, classify(err)
	}
	var raws []bson.M
	if err := cur.All(ctx, &raws); err != nil {
		return nil, classify(err)
	}
	out := make([]models.Document, 0, len(raws))
	for _, r := range raws {
		out = append(out, Normalize(r))
	}
	return out, nil
}

// ReplaceOne matches id as an ObjectID first, then as a plain string, since
// reads hand identities out in hex form.
func (s *Store) ReplaceOne(ctx context.Context, collection, id string, doc models.Document) (int64, error) {
	coll := s.db.Collection(collection)
	replacement := doc.Without(models.IDField)
	for _, key := range idCandidates(id) {
		res, err := coll.ReplaceOne(ctx, bson.D{{Key: models.IDField, Value: key}}, replacement)
		if err != nil {
			return 0, classify(err)
		}
		if res.MatchedCount > 0 {
			return res.ModifiedCount, nil
		}
	}
	s.logger.Warn("mongo: replace matched nothing",
		slog.String("collection", collection),
		slog.String("id", id))
	return 0, nil
}

func idCandidates(id string) []any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return []any{oid, id}
	}
	return []any{id}
}

func idString(id any) string {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprint(id)
}

// classify maps driver errors onto apperr kinds.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var se mongo.ServerError
	if errors.As(err, &se) && se.HasErrorCode(codeTooManyRequests) {
		return fmt.Errorf("%w: %w", apperr.ErrRateLimited, err)
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return fmt.Errorf("%w: %w", apperr.ErrConnection, err)
	}
	return err
}
