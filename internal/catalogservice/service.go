// Package catalogservice coordinates the document store, the change stream
// and the importer for the HTTP and MCP front ends.
package catalogservice

import (
	"context"
	"errors"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/edupath/internal/catalog"
	"github.com/starford/edupath/internal/docstore"
	"github.com/starford/edupath/internal/importer"
	"github.com/starford/edupath/internal/models"
	"github.com/starford/edupath/internal/sse"
)

// Publisher receives change notifications. *sse.Broker implements it.
type Publisher interface {
	Notify(eventType, collection string, extra map[string]any)
}

type nopPublisher struct{}

func (nopPublisher) Notify(string, string, map[string]any) {}

// UpdateCourseRequest names one field of one course to overwrite.
type UpdateCourseRequest struct {
	Collection  string `json:"collectionName"`
	CourseTitle string `json:"courseTitle"`
	Field       string `json:"field"`
	Value       any    `json:"value"`
}

// Validate validates the request.
func (r *UpdateCourseRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Collection, validation.Required),
		validation.Field(&r.CourseTitle, validation.Required),
		validation.Field(&r.Field, validation.Required, validation.NotIn(models.IDField)),
	)
}

// ErrEmptyDocument is returned when AddData receives no fields.
var ErrEmptyDocument = errors.New("document is empty")

// Service is the catalog use-case layer.
type Service struct {
	gw     *docstore.Gateway
	pub    Publisher
	logger *slog.Logger
}

// NewService creates a Service. pub may be nil.
func NewService(gw *docstore.Gateway, pub Publisher, logger *slog.Logger) *Service {
	if pub == nil {
		pub = nopPublisher{}
	}
	return &Service{gw: gw, pub: pub, logger: logger}
}

// ListDegrees returns every degree document.
func (s *Service) ListDegrees(ctx context.Context) ([]models.Document, error) {
	return s.gw.GetAll(ctx, catalog.DegreesCollection)
}

// ListCourses returns the course records of one program.
func (s *Service) ListCourses(ctx context.Context, p catalog.Program) ([]models.Document, error) {
	return s.gw.GetAll(ctx, p.Collection())
}

// GetData returns every document of an arbitrary collection.
func (s *Service) GetData(ctx context.Context, collection string) ([]models.Document, error) {
	return s.gw.GetAll(ctx, collection)
}

// ListCollections returns the sorted collection names.
func (s *Service) ListCollections(ctx context.Context) ([]string, error) {
	return s.gw.ListCollections(ctx)
}

// CreateCollection creates a collection, reporting whether it already existed.
func (s *Service) CreateCollection(ctx context.Context, name string) (docstore.CreateResult, error) {
	res, err := s.gw.CreateCollection(ctx, name)
	if err != nil {
		return res, err
	}
	if !res.AlreadyExists {
		s.pub.Notify(sse.TypeCollectionCreated, name, nil)
	}
	return res, nil
}

// AddData inserts doc as-is and returns its id.
func (s *Service) AddData(ctx context.Context, collection string, doc models.Document) (string, error) {
	if len(doc) == 0 {
		return "", ErrEmptyDocument
	}
	id, err := s.gw.InsertOne(ctx, collection, doc)
	if err != nil {
		return "", err
	}
	s.pub.Notify(sse.TypeDocumentAdded, collection, map[string]any{"inserted_id": id})
	return id, nil
}

// UpdateCourse overwrites one field of the first course matching the title.
func (s *Service) UpdateCourse(ctx context.Context, req UpdateCourseRequest) (docstore.UpdateResult, error) {
	if err := req.Validate(); err != nil {
		return docstore.UpdateResult{}, err
	}
	res, err := s.gw.UpdateNestedCourseField(ctx, req.Collection, req.CourseTitle, req.Field, req.Value)
	if err != nil {
		return res, err
	}
	if res.Updated {
		s.pub.Notify(sse.TypeCourseUpdated, req.Collection, map[string]any{
			"courseTitle": req.CourseTitle,
			"field":       req.Field,
		})
	}
	return res, nil
}

// ImportNotifier returns an importer callback that publishes finished runs.
func (s *Service) ImportNotifier() func(importer.Report) {
	return func(r importer.Report) {
		s.pub.Notify(sse.TypeImportCompleted, r.Collection, map[string]any{
			"inserted": r.Inserted,
			"skipped":  r.Skipped,
			"failed":   r.Failed,
		})
	}
}
