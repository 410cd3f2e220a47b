package importer

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/edupath/internal/apperr"
	"github.com/starford/edupath/internal/catalog"
	"github.com/starford/edupath/internal/docstore"
	"github.com/starford/edupath/internal/docstore/jsonfile"
	"github.com/starford/edupath/internal/docstore/memstore"
	"github.com/starford/edupath/internal/models"
	"github.com/starford/edupath/internal/testutil"
)

type fixture struct {
	gw      *docstore.Gateway
	im      *Importer
	sleeper *testutil.SleepRecorder
	dir     string
}

func newFixture(t *testing.T, opts ...Option) fixture {
	t.Helper()
	sleeper := &testutil.SleepRecorder{}
	gw := docstore.NewGateway(memstore.New(), testutil.Logger(), docstore.WithSleeper(sleeper.Sleep))
	opts = append([]Option{WithSleeper(sleeper.Sleep)}, opts...)
	return fixture{
		gw:      gw,
		im:      New(gw, testutil.Logger(), opts...),
		sleeper: sleeper,
		dir:     t.TempDir(),
	}
}

func TestRun_CS101Scenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := testutil.WriteJSON(t, f.dir, "degrees.json", []models.Document{testutil.CS101Degree(t)})
	src := Source{Collection: catalog.DegreesCollection, Path: path}

	report, err := f.im.Run(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, StateDone, report.State)
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, []time.Duration{10 * time.Second}, f.sleeper.Delays())

	stored, err := f.gw.FindOne(ctx, catalog.DegreesCollection, models.Document{"course": "X"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, stored[FieldTotalDegreeHours])
	assert.EqualValues(t, 0, stored[FieldAdvancedMinimumCreditHours])
	assert.EqualValues(t, 3, stored.Years()[0].Semesters()[0][FieldTotalSemesterHours])
	assert.Equal(t, catalog.NoticeApproved, stored["approved"])

	report, err = f.im.Run(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Inserted)
	assert.Equal(t, 1, report.Skipped)

	all, err := f.gw.GetAll(ctx, catalog.DegreesCollection)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDerive_Totals(t *testing.T) {
	doc := testutil.BusinessDegree(t)
	Derive(doc)

	assert.EqualValues(t, 17, doc[FieldTotalDegreeHours])
	assert.EqualValues(t, 7, doc[FieldAdvancedMinimumCreditHours])

	var semesters []any
	for _, y := range doc.Years() {
		for _, s := range y.Semesters() {
			semesters = append(semesters, s[FieldTotalSemesterHours])
		}
	}
	assert.Equal(t, []any{6, 3, 8}, semesters)
	for field, text := range catalog.Notices() {
		assert.Equal(t, text, doc[field])
	}
}

func TestDerive_NoYears(t *testing.T) {
	doc := models.Document{"course": "Empty", "years": []any{}}
	Derive(doc)
	assert.EqualValues(t, 0, doc[FieldTotalDegreeHours])
	assert.EqualValues(t, 0, doc[FieldAdvancedMinimumCreditHours])
}

func TestIsAdvanced(t *testing.T) {
	cases := map[string]bool{
		"ACCT 3301": true,
		"MGMT 4389": true,
		"MATH 1314": false,
		"ACCT 2301": false,
		"SCI1":      false,
		"":          false,
		"ABCDE3":    true,
	}
	for num, want := range cases {
		assert.Equal(t, want, IsAdvanced(num), num)
	}
}

func TestRun_BulkWindows(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, WithBatchSize(2), WithPace(time.Second))
	coll := catalog.Programs[0].Collection()
	docs := []models.Document{
		{"courseTitle": "A", "hours": 3},
		{"courseTitle": "B", "hours": 3},
		{"courseTitle": "B", "hours": 3},
		{"courseTitle": "C", "hours": 1},
		{"courseTitle": "D", "hours": 2},
	}
	path := testutil.WriteJSON(t, f.dir, "courses.json", docs)

	report, err := f.im.Run(ctx, Source{Collection: coll, Path: path, Bulk: true})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Batches)
	assert.Equal(t, 4, report.Inserted)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second}, f.sleeper.Delays())

	report, err = f.im.Run(ctx, Source{Collection: coll, Path: path, Bulk: true, BatchSize: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Batches)
	assert.Equal(t, 0, report.Inserted)
	assert.Equal(t, 5, report.Skipped)

	all, err := f.gw.GetAll(ctx, coll)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestRun_DottedFieldNamesStayIdempotent(t *testing.T) {
	ctx := context.Background()
	_, files := testutil.DataDir(t)
	sleeper := &testutil.SleepRecorder{}
	gw := docstore.NewGateway(jsonfile.New(files, testutil.Logger()), testutil.Logger())
	im := New(gw, testutil.Logger(), WithSleeper(sleeper.Sleep))
	coll := catalog.Programs[1].Collection()
	path := testutil.WriteJSON(t, t.TempDir(), "courses.json", []models.Document{
		{"courseTitle": "Plain", "hours": 3},
		{"courseTitle": "Dotted", "e.g.": "x"},
		{"courseTitle": "Nested", "notes": map[string]any{"a.k.a.": "y"}},
	})

	report, err := im.Run(ctx, Source{Collection: coll, Path: path})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Inserted)

	report, err = im.Run(ctx, Source{Collection: coll, Path: path, Bulk: true})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Inserted)
	assert.Equal(t, 3, report.Skipped)

	all, err := gw.GetAll(ctx, coll)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDerive_FractionalHours(t *testing.T) {
	doc := models.Document{
		"course": "Labs",
		"years": []any{map[string]any{"semesters": []any{
			map[string]any{"courses": []any{
				map[string]any{"title": "Lab A", "courseNumber": "CHEM 3101", "hours": 1.5},
				map[string]any{"title": "Lecture", "courseNumber": "CHEM 1301", "hours": float64(3)},
			}},
			map[string]any{"courses": []any{
				map[string]any{"title": "Lab B", "courseNumber": "CHEM 1102", "hours": 0.5},
			}},
		}}},
	}
	Derive(doc)

	sems := doc.Years()[0].Semesters()
	assert.Equal(t, 4.5, sems[0][FieldTotalSemesterHours])
	assert.Equal(t, 0.5, sems[1][FieldTotalSemesterHours])
	assert.Equal(t, 5, doc[FieldTotalDegreeHours], "whole totals stay integers")
	assert.Equal(t, 1.5, doc[FieldAdvancedMinimumCreditHours])
}

func TestRun_BulkDerivesDegrees(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := testutil.WriteJSON(t, f.dir, "degrees.json", []models.Document{testutil.BusinessDegree(t)})

	_, err := f.im.Run(ctx, Source{Collection: catalog.DegreesCollection, Path: path, Bulk: true})
	require.NoError(t, err)

	stored, err := f.gw.FindOne(ctx, catalog.DegreesCollection, models.Document{"course": "Business Analytics"})
	require.NoError(t, err)
	assert.EqualValues(t, 17, stored[FieldTotalDegreeHours])
	assert.EqualValues(t, 7, stored[FieldAdvancedMinimumCreditHours])
}

func TestRun_MalformedSource(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := filepath.Join(f.dir, "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"course": "X"`), 0o644))

	report, err := f.im.Run(ctx, Source{Collection: catalog.DegreesCollection, Path: path})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrMalformedSource))
	assert.Equal(t, StateAborted, report.State)

	all, err := f.gw.GetAll(ctx, catalog.DegreesCollection)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestLoadDocuments_Rejects(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"empty.json":  `[]`,
		"object.json": `{"course": "X"}`,
		"nulls.json":  `[null]`,
		"scalar.json": `[1, 2]`,
	}
	for name, body := range cases {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		_, err := LoadDocuments(path)
		assert.Equal(t, apperr.KindMalformedSource, apperr.KindOf(err), name)
	}
	_, err := LoadDocuments(filepath.Join(dir, "missing.json"))
	assert.Equal(t, apperr.KindMalformedSource, apperr.KindOf(err))
}

func TestRun_DegreeWithoutCourseFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	docs := []models.Document{
		{"degree": "BS", "years": []any{}},
		testutil.CS101Degree(t),
	}
	path := testutil.WriteJSON(t, f.dir, "degrees.json", docs)

	report, err := f.im.Run(ctx, Source{Collection: catalog.DegreesCollection, Path: path})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Inserted)
}

func TestRunManifest_SkipsMissingFiles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	degrees := testutil.WriteJSON(t, f.dir, "degrees.json", []models.Document{testutil.CS101Degree(t)})
	manifest := Manifest{
		{Collection: catalog.DegreesCollection, Path: degrees},
		{Collection: catalog.Programs[1].Collection(), Path: filepath.Join(f.dir, "nope.json"), Bulk: true},
	}

	reports, err := f.im.RunManifest(ctx, manifest)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, catalog.DegreesCollection, reports[0].Collection)
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data_files.json")
	entries := []map[string]any{
		{"collection_name": "colleges_degrees", "json_file_path": "data/degrees.json"},
		{"collection_name": "bachelor_accountancy_courses", "json_file_path": "data/acct.json", "bulk_insert": true, "batch_size": 50},
	}
	raw, err := json.Marshal(entries)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, m, 2)
	assert.True(t, m[1].Bulk)
	assert.Equal(t, 50, m[1].BatchSize)

	require.NoError(t, os.WriteFile(path, []byte(`[{"collection_name": "x"}]`), 0o644))
	_, err = LoadManifest(path)
	assert.Error(t, err)
}

func TestWatch_ReimportsChangedSource(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reports := make(chan Report, 4)
	f := newFixture(t, WithNotifier(func(r Report) { reports <- r }))
	path := filepath.Join(f.dir, "courses.json")
	coll := catalog.Programs[2].Collection()

	done := make(chan error, 1)
	go func() { done <- f.im.Watch(ctx, Manifest{{Collection: coll, Path: path}}) }()
	time.Sleep(100 * time.Millisecond)

	testutil.WriteJSON(t, f.dir, "courses.json", []models.Document{{"courseTitle": "Ethics", "hours": 3}})

	select {
	case r := <-reports:
		assert.Equal(t, coll, r.Collection)
		assert.Equal(t, 1, r.Inserted)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not re-import the changed source")
	}

	cancel()
	require.NoError(t, <-done)
}
