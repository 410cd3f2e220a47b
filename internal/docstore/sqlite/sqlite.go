// Package sqlite is an embedded docstore.Backend keeping documents as JSON rows.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/starford/edupath/internal/apperr"
	"github.com/starford/edupath/internal/checksum"
	"github.com/starford/edupath/internal/docstore"
	"github.com/starford/edupath/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS collections (
	name       TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS documents (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	body       TEXT NOT NULL,
	checksum   TEXT NOT NULL,
	UNIQUE(collection, id)
);

CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection, seq);
`

// Store is a docstore.Backend on a single SQLite file.
type Store struct {
	conn *sql.DB
}

var _ docstore.Backend = (*Store)(nil)

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", apperr.E(apperr.KindConnection, "open", "", err))
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

func (s *Store) Close(context.Context) error {
	return s.conn.Close()
}

func (s *Store) ListCollectionNames(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT name FROM collections ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list collections: %w", classify(err))
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("sqlite: scan collection: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (s *Store) CreateCollection(ctx context.Context, name string) error {
	res, err := s.conn.ExecContext(ctx, `INSERT OR IGNORE INTO collections (name) VALUES (?)`, name)
	if err != nil {
		return fmt.Errorf("sqlite: create collection: %w", classify(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return docstore.ErrCollectionExists
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insert(ctx context.Context, ex execer, collection string, doc models.Document) (string, error) {
	cp, id := docstore.PrepareInsert(doc)
	body, err := json.Marshal(cp)
	if err != nil {
		return "", fmt.Errorf("sqlite: encode document: %w", err)
	}
	if _, err := ex.ExecContext(ctx, `INSERT OR IGNORE INTO collections (name) VALUES (?)`, collection); err != nil {
		return "", fmt.Errorf("sqlite: ensure collection: %w", classify(err))
	}
	if _, err := ex.ExecContext(ctx,
		`INSERT INTO documents (collection, id, body, checksum) VALUES (?, ?, ?, ?)`,
		collection, id, string(body), checksum.Sum(body),
	); err != nil {
		return "", fmt.Errorf("sqlite: insert document: %w", classify(err))
	}
	return id, nil
}

func (s *Store) InsertOne(ctx context.Context, collection string, doc models.Document) (string, error) {
	return insert(ctx, s.conn, collection, doc)
}

// InsertMany writes docs in one transaction: all or nothing.
func (s *Store) InsertMany(ctx context.Context, collection string, docs []models.Document) ([]string, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin tx: %w", classify(err))
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		id, err := insert(ctx, tx, collection, d)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: commit: %w", classify(err))
	}
	return ids, nil
}

// FindOne decodes rows in insertion order and applies docstore.Matches.
func (s *Store) FindOne(ctx context.Context, collection string, query models.Document) (models.Document, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT body FROM documents WHERE collection = ? ORDER BY seq`, collection)
	if err != nil {
		return nil, fmt.Errorf("sqlite: find: %w", classify(err))
	}
	defer rows.Close()
	for rows.Next() {
		doc, err := scanDoc(rows)
		if err != nil {
			return nil, err
		}
		if docstore.Matches(doc, query) {
			return doc, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: find: %w", err)
	}
	return nil, apperr.ErrNotFound
}

func (s *Store) FindAll(ctx context.Context, collection string) ([]models.Document, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT body FROM documents WHERE collection = ? ORDER BY seq`, collection)
	if err != nil {
		return nil, fmt.Errorf("sqlite: find all: %w", classify(err))
	}
	defer rows.Close()
	out := []models.Document{}
	for rows.Next() {
		doc, err := scanDoc(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (s *Store) ReplaceOne(ctx context.Context, collection, id string, doc models.Document) (int64, error) {
	cp := doc.Clone()
	cp[models.IDField] = id
	body, err := json.Marshal(cp)
	if err != nil {
		return 0, fmt.Errorf("sqlite: encode document: %w", err)
	}
	sum := checksum.Sum(body)
	res, err := s.conn.ExecContext(ctx,
		`UPDATE documents SET body = ?, checksum = ? WHERE collection = ? AND id = ? AND checksum <> ?`,
		string(body), sum, collection, id, sum)
	if err != nil {
		return 0, fmt.Errorf("sqlite: replace: %w", classify(err))
	}
	return res.RowsAffected()
}

func scanDoc(rows *sql.Rows) (models.Document, error) {
	var body string
	if err := rows.Scan(&body); err != nil {
		return nil, fmt.Errorf("sqlite: scan document: %w", err)
	}
	var doc models.Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("sqlite: decode document: %w", err)
	}
	return doc, nil
}

// classify marks lock contention as rate limiting so bulk writes back off.
func classify(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && (se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked) {
		return fmt.Errorf("%w: %w", apperr.ErrRateLimited, err)
	}
	return err
}
