package docstore

import (
	"context"
	"errors"
	"log/slog"

	"github.com/starford/edupath/internal/apperr"
	"github.com/starford/edupath/internal/models"
)

// NestedCourseTitlePath addresses course titles inside a degree document.
const NestedCourseTitlePath = "years.semesters.courses.title"

// FlatCourseTitleField is the title key of a flat course record.
const FlatCourseTitleField = "courseTitle"

// UpdateNestedCourseField sets field to value on the course titled courseTitle
// and replaces the owning document. The first document containing the title
// wins, and within it the first course found walking years, then semesters,
// then courses. When no degree document holds the title, a flat record whose
// courseTitle matches is updated instead.
//
// Find and replace are not atomic: a concurrent writer to the same document
// between the two steps is overwritten.
func (g *Gateway) UpdateNestedCourseField(ctx context.Context, collection, courseTitle, field string, value any) (UpdateResult, error) {
	log := g.logger.With(
		slog.String("collection", collection),
		slog.String("course_title", courseTitle),
		slog.String("field", field))

	doc, err := g.backend.FindOne(ctx, collection, models.Document{NestedCourseTitlePath: courseTitle})
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return g.updateFlatRecord(ctx, log, collection, courseTitle, field, value)
	case err != nil:
		log.Error("course lookup failed", slog.String("error", err.Error()))
		return UpdateResult{}, apperr.E(kindOr(err, apperr.KindConnection), "update course", collection, err)
	}

	var target models.Course
	hits := 0
	for _, year := range doc.Years() {
		for _, sem := range year.Semesters() {
			for _, course := range sem.Courses() {
				if course.Title() != courseTitle {
					continue
				}
				if target == nil {
					target = course
				}
				hits++
			}
		}
	}
	if target == nil {
		log.Warn("document matched but course not found in its tree", slog.String("id", doc.ID()))
		return UpdateResult{}, apperr.E(apperr.KindNotFound, "update course", collection, nil)
	}
	if hits > 1 {
		log.Warn("course title occurs more than once, updating the first", slog.Int("occurrences", hits))
	}
	if unchanged(target, field, value) {
		log.Info("course not modified")
		return UpdateResult{Updated: false}, nil
	}
	target.Set(field, value)

	return g.replace(ctx, log, collection, doc)
}

func (g *Gateway) updateFlatRecord(ctx context.Context, log *slog.Logger, collection, courseTitle, field string, value any) (UpdateResult, error) {
	doc, err := g.backend.FindOne(ctx, collection, models.Document{FlatCourseTitleField: courseTitle})
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			log.Warn("course not found")
			return UpdateResult{}, apperr.E(apperr.KindNotFound, "update course", collection, nil)
		}
		log.Error("course lookup failed", slog.String("error", err.Error()))
		return UpdateResult{}, apperr.E(kindOr(err, apperr.KindConnection), "update course", collection, err)
	}
	if unchanged(doc, field, value) {
		log.Info("course not modified")
		return UpdateResult{Updated: false}, nil
	}
	doc[field] = value
	return g.replace(ctx, log, collection, doc)
}

// unchanged reports whether field already holds value. Hosted backends
// count any rewrite as a modification, so the no-op is decided here.
func unchanged(m map[string]any, field string, value any) bool {
	old, ok := m[field]
	return ok && valuesEqual(old, value)
}

func (g *Gateway) replace(ctx context.Context, log *slog.Logger, collection string, doc models.Document) (UpdateResult, error) {
	modified, err := g.backend.ReplaceOne(ctx, collection, doc.ID(), doc)
	if err != nil {
		log.Error("replace failed", slog.String("error", err.Error()))
		return UpdateResult{}, apperr.E(apperr.KindWrite, "update course", collection, err)
	}
	if modified == 0 {
		log.Info("course not modified")
		return UpdateResult{Updated: false}, nil
	}
	log.Info("course updated")
	return UpdateResult{Updated: true}, nil
}
