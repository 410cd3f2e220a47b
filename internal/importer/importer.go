// Package importer loads prepared catalog data into the document store.
//
// A run creates the target collection when needed, reads a JSON array of
// documents, stamps derived totals onto degree documents and inserts only
// documents whose natural key is not stored yet, so re-running an import
// is harmless. Writes are paced to stay under the store's request budget.
package importer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/starford/edupath/internal/apperr"
	"github.com/starford/edupath/internal/catalog"
	"github.com/starford/edupath/internal/checksum"
	"github.com/starford/edupath/internal/docstore"
	"github.com/starford/edupath/internal/models"
)

// State is the lifecycle position of an import run.
type State int

const (
	StateNotStarted State = iota
	StateLoadingSource
	StateImporting
	StateAborted
	StateDone
)

func (s State) String() string {
	switch s {
	case StateLoadingSource:
		return "loading_source"
	case StateImporting:
		return "importing"
	case StateAborted:
		return "aborted"
	case StateDone:
		return "done"
	default:
		return "not_started"
	}
}

// Report summarises one import run.
type Report struct {
	Collection string `json:"collection"`
	State      State  `json:"-"`
	Status     string `json:"state"`
	Inserted   int    `json:"inserted"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	Batches    int    `json:"batches"`
}

func (r *Report) set(s State) {
	r.State = s
	r.Status = s.String()
}

// Importer writes source documents through a Gateway.
type Importer struct {
	gw        *docstore.Gateway
	logger    *slog.Logger
	batchSize int
	pace      time.Duration
	sleep     docstore.Sleeper
	notify    func(Report)
}

// Option configures an Importer.
type Option func(*Importer)

// WithBatchSize sets the default window size of bulk imports.
func WithBatchSize(n int) Option {
	return func(im *Importer) {
		if n > 0 {
			im.batchSize = n
		}
	}
}

// WithPace sets the pause after each document (one-by-one) or window (bulk).
func WithPace(d time.Duration) Option {
	return func(im *Importer) {
		if d >= 0 {
			im.pace = d
		}
	}
}

// WithSleeper replaces the function used for pacing.
func WithSleeper(s docstore.Sleeper) Option {
	return func(im *Importer) {
		if s != nil {
			im.sleep = s
		}
	}
}

// WithNotifier registers a callback receiving every finished report.
func WithNotifier(fn func(Report)) Option {
	return func(im *Importer) {
		im.notify = fn
	}
}

// New creates an Importer.
func New(gw *docstore.Gateway, logger *slog.Logger, opts ...Option) *Importer {
	im := &Importer{
		gw:        gw,
		logger:    logger,
		batchSize: 100,
		pace:      10 * time.Second,
		sleep:     docstore.Sleep,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Run imports one source file.
func (im *Importer) Run(ctx context.Context, src Source) (Report, error) {
	report := Report{Collection: src.Collection}
	report.set(StateNotStarted)

	if err := im.ensureCollection(ctx, src.Collection); err != nil {
		report.set(StateAborted)
		return report, err
	}

	report.set(StateLoadingSource)
	docs, err := LoadDocuments(src.Path)
	if err != nil {
		report.set(StateAborted)
		im.logger.Error("import aborted: unreadable source",
			slog.String("collection", src.Collection),
			slog.String("path", src.Path),
			slog.String("error", err.Error()))
		return report, err
	}
	im.logger.Info("import source loaded",
		slog.String("collection", src.Collection),
		slog.String("path", src.Path),
		slog.Int("documents", len(docs)))

	return im.importDocs(ctx, report, docs, src.Bulk, src.BatchSize)
}

// Documents imports docs already in memory, e.g. from a snapshot.
func (im *Importer) Documents(ctx context.Context, collection string, docs []models.Document, bulk bool) (Report, error) {
	report := Report{Collection: collection}
	report.set(StateNotStarted)
	if err := im.ensureCollection(ctx, collection); err != nil {
		report.set(StateAborted)
		return report, err
	}
	return im.importDocs(ctx, report, docs, bulk, 0)
}

func (im *Importer) ensureCollection(ctx context.Context, collection string) error {
	if im.gw.CollectionExists(ctx, collection) {
		im.logger.Info("collection already exists, skipping creation", slog.String("collection", collection))
		return nil
	}
	_, err := im.gw.CreateCollection(ctx, collection)
	return err
}

func (im *Importer) importDocs(ctx context.Context, report Report, docs []models.Document, bulk bool, batchSize int) (Report, error) {
	report.set(StateImporting)
	var err error
	if bulk {
		if batchSize <= 0 {
			batchSize = im.batchSize
		}
		err = im.importBatches(ctx, &report, docs, batchSize)
	} else {
		err = im.importSingles(ctx, &report, docs)
	}
	if err != nil {
		report.set(StateAborted)
		im.logger.Warn("import interrupted",
			slog.String("collection", report.Collection),
			slog.String("error", err.Error()))
		return report, err
	}
	report.set(StateDone)
	im.logger.Info("import finished",
		slog.String("collection", report.Collection),
		slog.Int("inserted", report.Inserted),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed))
	if im.notify != nil {
		im.notify(report)
	}
	return report, nil
}

func (im *Importer) importSingles(ctx context.Context, report *Report, docs []models.Document) error {
	for _, raw := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc, key, isNew, err := im.check(ctx, report.Collection, raw)
		switch {
		case err != nil:
			report.Failed++
		case !isNew:
			report.Skipped++
		default:
			if _, err := im.gw.InsertOne(ctx, report.Collection, doc); err != nil {
				report.Failed++
			} else {
				report.Inserted++
				im.logger.Info("inserted document",
					slog.String("collection", report.Collection),
					slog.Any("key", keyLabel(key)))
			}
		}
		if err := im.sleep(ctx, im.pace); err != nil {
			return err
		}
	}
	return nil
}

func (im *Importer) importBatches(ctx context.Context, report *Report, docs []models.Document, size int) error {
	for start := 0; start < len(docs); start += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		window := docs[start:min(start+size, len(docs))]
		report.Batches++

		seen := make(map[string]struct{}, len(window))
		fresh := make([]models.Document, 0, len(window))
		for _, raw := range window {
			doc, key, isNew, err := im.check(ctx, report.Collection, raw)
			if err != nil {
				report.Failed++
				continue
			}
			if !isNew {
				report.Skipped++
				continue
			}
			sum, err := checksum.Document(key)
			if err == nil {
				if _, dup := seen[sum]; dup {
					report.Skipped++
					continue
				}
				seen[sum] = struct{}{}
			}
			fresh = append(fresh, doc)
		}

		if len(fresh) > 0 {
			ids, err := im.gw.InsertMany(ctx, report.Collection, fresh)
			if err != nil {
				report.Failed += len(fresh)
				im.logger.Error("batch insert failed, skipping window",
					slog.String("collection", report.Collection),
					slog.Int("batch", report.Batches),
					slog.String("error", err.Error()))
			} else {
				report.Inserted += len(ids)
			}
		}
		im.logger.Info("batch processed",
			slog.String("collection", report.Collection),
			slog.Int("batch", report.Batches),
			slog.Int("documents", len(window)),
			slog.Int("inserted", len(fresh)))

		if err := im.sleep(ctx, im.pace); err != nil {
			return err
		}
	}
	return nil
}

// check prepares raw for insertion and reports whether its natural key is
// absent from the collection. Degree documents are derived before the key
// is built so a whole-document key matches what an earlier run stored.
func (im *Importer) check(ctx context.Context, collection string, raw models.Document) (models.Document, models.Document, bool, error) {
	doc := raw.Clone()
	if models.KindOf(doc) == models.KindDegree {
		Derive(doc)
	}
	key, err := naturalKey(collection, doc)
	if err != nil {
		im.logger.Error("cannot import document",
			slog.String("collection", collection),
			slog.String("error", err.Error()))
		return nil, nil, false, err
	}
	exists, err := im.gw.Exists(ctx, collection, key)
	if err != nil {
		im.logger.Error("existence check failed",
			slog.String("collection", collection),
			slog.String("error", err.Error()))
		return nil, nil, false, err
	}
	if exists {
		im.logger.Info("document already exists, skipping",
			slog.String("collection", collection),
			slog.Any("key", keyLabel(key)))
		return nil, key, false, nil
	}
	return doc, key, true, nil
}

func naturalKey(collection string, doc models.Document) (models.Document, error) {
	field := catalog.NaturalKeyField(collection)
	if field == "" {
		return doc.Without(models.IDField), nil
	}
	v, ok := doc[field]
	if !ok || v == nil {
		return nil, apperr.E(apperr.KindMalformedSource, "natural key", collection, errors.Join(errMissingKey, errors.New(field)))
	}
	return models.Document{field: v}, nil
}

// keyLabel keeps log lines short when the key is a whole document.
func keyLabel(key models.Document) any {
	if len(key) == 1 {
		for _, v := range key {
			return v
		}
	}
	if t, ok := key["courseTitle"]; ok {
		return t
	}
	if t, ok := key["title"]; ok {
		return t
	}
	return "document"
}
