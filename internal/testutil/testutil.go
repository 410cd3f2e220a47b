// Package testutil provides shared fixtures for store, importer and API tests.
package testutil

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/edupath/internal/models"
	"github.com/starford/edupath/internal/storage"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// DataDir creates a temporary data directory with a storage.Provider.
func DataDir(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs
}

// WriteJSON marshals v into dir/name and returns the file path.
func WriteJSON(t *testing.T, dir, name string, v any) string {
	t.Helper()
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// Degree builds a degree document with one year per semesters argument.
func Degree(t *testing.T, course string, years ...[][]models.CourseEntry) models.Document {
	t.Helper()
	plan := models.DegreePlan{Course: course, Degree: "BBA", College: "Business"}
	for _, y := range years {
		yp := models.YearPlan{}
		for _, sem := range y {
			yp.Semesters = append(yp.Semesters, models.SemesterPlan{Courses: sem})
		}
		plan.Years = append(plan.Years, yp)
	}
	doc, err := plan.Document()
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

// CS101Degree is a degree with a single three-hour introductory course.
func CS101Degree(t *testing.T) models.Document {
	t.Helper()
	return Degree(t, "X", [][]models.CourseEntry{{
		{Title: "CS101", CourseNumber: "CSCI 1101", Hours: 3},
	}})
}

// BusinessDegree is a two-year degree with foundation and advanced courses.
func BusinessDegree(t *testing.T) models.Document {
	t.Helper()
	return Degree(t, "Business Analytics",
		[][]models.CourseEntry{
			{
				{Title: "Intro to Business", CourseNumber: "MANA 1301", Hours: 3},
				{Title: "College Algebra", CourseNumber: "MATH 1314", Hours: 3},
			},
			{
				{Title: "Financial Accounting", CourseNumber: "ACCT 2301", Hours: 3},
			},
		},
		[][]models.CourseEntry{
			{
				{Title: "Data Mining", CourseNumber: " QUMT 3341 ", Hours: 3},
				{Title: "Capstone", CourseNumber: "MGMT 4389", Hours: 4},
				{Title: "Lab", CourseNumber: "SCI1", Hours: 1},
			},
		},
	)
}

// SleepRecorder is a Sleeper that records delays instead of waiting.
type SleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

// Sleep records d and returns ctx.Err().
func (r *SleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

// Delays returns the recorded delays.
func (r *SleepRecorder) Delays() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}
