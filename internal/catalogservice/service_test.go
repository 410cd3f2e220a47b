package catalogservice

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/edupath/internal/apperr"
	"github.com/starford/edupath/internal/catalog"
	"github.com/starford/edupath/internal/docstore"
	"github.com/starford/edupath/internal/docstore/memstore"
	"github.com/starford/edupath/internal/importer"
	"github.com/starford/edupath/internal/models"
	"github.com/starford/edupath/internal/sse"
	"github.com/starford/edupath/internal/testutil"
)

type recorded struct {
	Type       string
	Collection string
	Extra      map[string]any
}

type recorder struct {
	mu     sync.Mutex
	events []recorded
}

func (r *recorder) Notify(eventType, collection string, extra map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recorded{eventType, collection, extra})
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func newService(t *testing.T) (*Service, *recorder) {
	t.Helper()
	rec := &recorder{}
	gw := docstore.NewGateway(memstore.New(), testutil.Logger())
	return NewService(gw, rec, testutil.Logger()), rec
}

func TestCreateCollection_PublishesOnce(t *testing.T) {
	ctx := context.Background()
	svc, rec := newService(t)

	res, err := svc.CreateCollection(ctx, "bachelor_social_work_courses")
	require.NoError(t, err)
	assert.Equal(t, docstore.StatusCollectionCreated, res.Status)

	res, err = svc.CreateCollection(ctx, "bachelor_social_work_courses")
	require.NoError(t, err)
	assert.True(t, res.AlreadyExists)

	assert.Equal(t, []string{sse.TypeCollectionCreated}, rec.types())
}

func TestAddDataAndGetData(t *testing.T) {
	ctx := context.Background()
	svc, rec := newService(t)

	id, err := svc.AddData(ctx, "scratch", models.Document{"courseTitle": "Statics"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	docs, err := svc.GetData(ctx, "scratch")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, id, docs[0][models.IDField])
	assert.Equal(t, []string{sse.TypeDocumentAdded}, rec.types())

	_, err = svc.AddData(ctx, "scratch", models.Document{})
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestListDegreesAndCourses(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	_, err := svc.AddData(ctx, catalog.DegreesCollection, testutil.CS101Degree(t))
	require.NoError(t, err)
	_, err = svc.AddData(ctx, catalog.Programs[3].Collection(), models.Document{"courseTitle": "Surveying"})
	require.NoError(t, err)

	degrees, err := svc.ListDegrees(ctx)
	require.NoError(t, err)
	assert.Len(t, degrees, 1)

	courses, err := svc.ListCourses(ctx, catalog.Programs[3])
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Surveying", courses[0]["courseTitle"])

	empty, err := svc.ListCourses(ctx, catalog.Programs[0])
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	names, err := svc.ListCollections(ctx)
	require.NoError(t, err)
	assert.Contains(t, names, catalog.DegreesCollection)
}

func TestUpdateCourse(t *testing.T) {
	ctx := context.Background()
	svc, rec := newService(t)
	_, err := svc.AddData(ctx, catalog.DegreesCollection, testutil.BusinessDegree(t))
	require.NoError(t, err)

	req := UpdateCourseRequest{
		Collection:  catalog.DegreesCollection,
		CourseTitle: "Capstone",
		Field:       "minGrade",
		Value:       "C",
	}
	res, err := svc.UpdateCourse(ctx, req)
	require.NoError(t, err)
	assert.True(t, res.Updated)

	res, err = svc.UpdateCourse(ctx, req)
	require.NoError(t, err)
	assert.False(t, res.Updated)

	_, err = svc.UpdateCourse(ctx, UpdateCourseRequest{Collection: catalog.DegreesCollection, CourseTitle: "Nope", Field: "hours", Value: 1})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	assert.Equal(t, []string{sse.TypeDocumentAdded, sse.TypeCourseUpdated}, rec.types())
}

func TestUpdateCourse_Validation(t *testing.T) {
	svc, _ := newService(t)
	cases := []UpdateCourseRequest{
		{CourseTitle: "A", Field: "hours"},
		{Collection: "c", Field: "hours"},
		{Collection: "c", CourseTitle: "A"},
		{Collection: "c", CourseTitle: "A", Field: "_id"},
	}
	for _, req := range cases {
		_, err := svc.UpdateCourse(context.Background(), req)
		assert.Error(t, err, "%+v", req)
	}
}

func TestImportNotifier(t *testing.T) {
	svc, rec := newService(t)
	svc.ImportNotifier()(importer.Report{Collection: catalog.DegreesCollection, Inserted: 2, Skipped: 1})

	require.Len(t, rec.events, 1)
	ev := rec.events[0]
	assert.Equal(t, sse.TypeImportCompleted, ev.Type)
	assert.Equal(t, catalog.DegreesCollection, ev.Collection)
	assert.Equal(t, 2, ev.Extra["inserted"])
}
