package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/edupath/internal/docstore"
	"github.com/starford/edupath/internal/docstore/docstoretest"
	"github.com/starford/edupath/internal/models"
	"github.com/starford/edupath/internal/testutil"
)

func TestBackendContract(t *testing.T) {
	docstoretest.Run(t, func(t *testing.T) docstore.Backend {
		_, fs := testutil.DataDir(t)
		return New(fs, testutil.Logger())
	})
}

func TestLoadAssignsMissingIDs(t *testing.T) {
	ctx := context.Background()
	dir, fs := testutil.DataDir(t)
	testutil.WriteJSON(t, dir, "bachelor_accountancy_courses.json", []map[string]any{
		{"courseTitle": "Accounting I", "hours": 3},
		{"courseTitle": "Accounting II", "hours": 3},
	})
	s := New(fs, testutil.Logger())

	all, err := s.FindAll(ctx, "bachelor_accountancy_courses")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.NotEmpty(t, all[0].ID())

	raw, err := os.ReadFile(filepath.Join(dir, "bachelor_accountancy_courses.json"))
	require.NoError(t, err)
	var onDisk []models.Document
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Equal(t, all[0].ID(), onDisk[0].ID(), "ids are persisted")
}

func TestInsertAppendsWithoutDedup(t *testing.T) {
	ctx := context.Background()
	_, fs := testutil.DataDir(t)
	s := New(fs, testutil.Logger())

	doc := models.Document{"courseTitle": "Accounting I"}
	_, err := s.InsertOne(ctx, "courses", doc)
	require.NoError(t, err)
	_, err = s.InsertOne(ctx, "courses", doc)
	require.NoError(t, err)

	all, err := s.FindAll(ctx, "courses")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestInvalidCollectionName(t *testing.T) {
	_, fs := testutil.DataDir(t)
	s := New(fs, testutil.Logger())
	_, err := s.InsertOne(context.Background(), "../escape", models.Document{"a": 1})
	assert.Error(t, err)
}

func TestListCollectionNames(t *testing.T) {
	dir, fs := testutil.DataDir(t)
	testutil.WriteJSON(t, dir, "colleges_degrees.json", []any{})
	testutil.WriteJSON(t, dir, "bachelor_social_work_courses.json", []any{})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	names, err := New(fs, testutil.Logger()).ListCollectionNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"bachelor_social_work_courses", "colleges_degrees"}, names)
}
