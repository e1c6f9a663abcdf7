package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianshen/docgen/internal/docgen"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStoreInMemory(t *testing.T) {
	s, err := NewStore(":memory:")
	require.NoError(t, err)
	require.NotNil(t, s)

	err = s.Close()
	assert.NoError(t, err)
}

func TestNewStoreCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	s, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopening keeps the schema.
	s, err = NewStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestRunLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	id, err := s.StartRun(ctx, docgen.RunInfo{
		Project:    "demo",
		Repository: "acme/demo",
		Branch:     "main",
		OutputDir:  "/tmp/out",
		StartedAt:  started,
	})
	require.NoError(t, err)
	assert.Len(t, id, 26, "ULID")

	run, err := s.GetRun(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, docgen.StatusRunning, run.Status)
	assert.Nil(t, run.FinishedAt)
	assert.Zero(t, run.Duration())
	assert.True(t, started.Equal(run.StartedAt))

	require.NoError(t, s.AddDocument(ctx, id, docgen.DocumentRecord{Dir: "a", Path: "a/description.md", Files: 2, Bytes: 10}))
	require.NoError(t, s.AddDocument(ctx, id, docgen.DocumentRecord{Dir: "", Path: "description.md", Files: 1, Failed: true, Bytes: 5}))

	require.NoError(t, s.FinishRun(ctx, id, docgen.RunSummary{
		Status:     docgen.StatusCompleted,
		Documents:  2,
		FinishedAt: started.Add(90 * time.Second),
	}))

	run, err = s.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, docgen.StatusCompleted, run.Status)
	assert.Equal(t, 2, run.Documents)
	require.NotNil(t, run.FinishedAt)
	assert.Equal(t, 90*time.Second, run.Duration())

	docs, err := s.ListDocuments(ctx, id)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a/description.md", docs[0].Path)
	assert.Equal(t, 2, docs[0].Files)
	assert.False(t, docs[0].Failed)
	assert.Equal(t, "description.md", docs[1].Path)
	assert.True(t, docs[1].Failed)
}

func TestGetRunNotFound(t *testing.T) {
	run, err := newTestStore(t).GetRun(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, run)
}

func TestFinishUnknownRun(t *testing.T) {
	err := newTestStore(t).FinishRun(context.Background(), "missing", docgen.RunSummary{Status: docgen.StatusFailed})
	assert.ErrorContains(t, err, "unknown run")
}

func TestListRunsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var ids []string
	for i := range 3 {
		id, err := s.StartRun(ctx, docgen.RunInfo{Project: "p", StartedAt: base.Add(time.Duration(i) * time.Hour)})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{runs[0].ID, runs[1].ID, runs[2].ID})

	runs, err = s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestAddDocumentRequiresRun(t *testing.T) {
	err := newTestStore(t).AddDocument(context.Background(), "nonexistent-run", docgen.DocumentRecord{Path: "x.md"})
	require.Error(t, err, "foreign key constraint should reject orphan document")
}

func TestDeleteRunCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.StartRun(ctx, docgen.RunInfo{Project: "p"})
	require.NoError(t, err)
	require.NoError(t, s.AddDocument(ctx, id, docgen.DocumentRecord{Path: "description.md"}))

	require.NoError(t, s.DeleteRun(ctx, id))

	run, err := s.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, run)
	docs, err := s.ListDocuments(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestStoreAsPipelineRecorder(t *testing.T) {
	s := newTestStore(t)
	var rec docgen.Recorder = s

	id, err := rec.StartRun(context.Background(), docgen.RunInfo{Project: "p"})
	require.NoError(t, err)
	require.NoError(t, rec.FinishRun(context.Background(), id, docgen.RunSummary{Status: docgen.StatusFailed, Error: "boom"}))

	run, err := s.GetRun(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "boom", run.Error)
	assert.Equal(t, docgen.StatusFailed, run.Status)
}
