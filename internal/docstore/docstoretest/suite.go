// Package docstoretest holds the behaviour every docstore.Backend must share.
package docstoretest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/edupath/internal/apperr"
	"github.com/starford/edupath/internal/docstore"
	"github.com/starford/edupath/internal/models"
)

// Run exercises a fresh backend from newBackend against the Backend contract.
func Run(t *testing.T, newBackend func(t *testing.T) docstore.Backend) {
	t.Run("CreateAndList", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)

		require.NoError(t, b.CreateCollection(ctx, "colleges_degrees"))
		err := b.CreateCollection(ctx, "colleges_degrees")
		assert.True(t, errors.Is(err, docstore.ErrCollectionExists), "second create: %v", err)

		names, err := b.ListCollectionNames(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, "colleges_degrees")
	})

	t.Run("InsertAssignsIDAndKeepsInput", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)

		doc := models.Document{"courseTitle": "Accounting I", "hours": 3}
		id, err := b.InsertOne(ctx, "courses", doc)
		require.NoError(t, err)
		assert.NotEmpty(t, id)
		_, hasID := doc[models.IDField]
		assert.False(t, hasID, "input document must not be mutated")

		got, err := b.FindOne(ctx, "courses", models.Document{"courseTitle": "Accounting I"})
		require.NoError(t, err)
		assert.Equal(t, id, got.ID())
		assert.EqualValues(t, 3, got["hours"])
	})

	t.Run("InsertManyPreservesOrder", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)

		ids, err := b.InsertMany(ctx, "courses", []models.Document{
			{"courseTitle": "A"}, {"courseTitle": "B"}, {"courseTitle": "C"},
		})
		require.NoError(t, err)
		require.Len(t, ids, 3)

		all, err := b.FindAll(ctx, "courses")
		require.NoError(t, err)
		require.Len(t, all, 3)
		for i, want := range []string{"A", "B", "C"} {
			assert.Equal(t, want, all[i]["courseTitle"])
			assert.Equal(t, ids[i], all[i].ID())
		}
	})

	t.Run("FindOneNestedPath", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)

		_, err := b.InsertOne(ctx, "colleges_degrees", degree("Accountancy", "Auditing"))
		require.NoError(t, err)
		_, err = b.InsertOne(ctx, "colleges_degrees", degree("Analytics", "Data Mining"))
		require.NoError(t, err)

		got, err := b.FindOne(ctx, "colleges_degrees", models.Document{docstore.NestedCourseTitlePath: "Data Mining"})
		require.NoError(t, err)
		assert.Equal(t, "Analytics", got["course"])

		_, err = b.FindOne(ctx, "colleges_degrees", models.Document{docstore.NestedCourseTitlePath: "Missing"})
		assert.True(t, errors.Is(err, apperr.ErrNotFound), "missing title: %v", err)
	})

	t.Run("FindOneWholeDocument", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)

		doc := degree("Accountancy", "Auditing")
		_, err := b.InsertOne(ctx, "colleges_degrees", doc)
		require.NoError(t, err)

		_, err = b.FindOne(ctx, "colleges_degrees", doc)
		assert.NoError(t, err)

		changed := degree("Accountancy", "Tax")
		_, err = b.FindOne(ctx, "colleges_degrees", changed)
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
	})

	t.Run("FindAllUnknownCollection", func(t *testing.T) {
		b := newBackend(t)
		all, err := b.FindAll(context.Background(), "nothing_here")
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("ReplaceOneReportsModified", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)

		id, err := b.InsertOne(ctx, "courses", models.Document{"courseTitle": "A", "hours": 3})
		require.NoError(t, err)

		n, err := b.ReplaceOne(ctx, "courses", id, models.Document{models.IDField: id, "courseTitle": "A", "hours": 4})
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		n, err = b.ReplaceOne(ctx, "courses", id, models.Document{models.IDField: id, "courseTitle": "A", "hours": 4})
		require.NoError(t, err)
		assert.EqualValues(t, 0, n, "identical replacement")

		n, err = b.ReplaceOne(ctx, "courses", "no-such-id", models.Document{"courseTitle": "Z"})
		require.NoError(t, err)
		assert.EqualValues(t, 0, n)

		got, err := b.FindOne(ctx, "courses", models.Document{"courseTitle": "A"})
		require.NoError(t, err)
		assert.EqualValues(t, 4, got["hours"])
	})
}

func degree(course, title string) models.Document {
	return models.Document{
		"course": course,
		"years": []any{
			map[string]any{"semesters": []any{
				map[string]any{"courses": []any{
					map[string]any{"title": title, "courseNumber": "ACCT 3301", "hours": float64(3)},
				}},
			}},
		},
	}
}
