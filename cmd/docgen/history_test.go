package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianshen/docgen/internal/docgen"
	"github.com/julianshen/docgen/internal/store"
)

func TestHistoryCmdDefaultFlags(t *testing.T) {
	cmd := historyCmd()
	limit, _ := cmd.Flags().GetInt("limit")
	assert.Equal(t, 20, limit)
}

func seededStore(t *testing.T) (*store.Store, string) {
	t.Helper()
	s, err := store.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	started := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	id, err := s.StartRun(ctx, docgen.RunInfo{Project: "demo", Repository: "acme/demo", Branch: "main", OutputDir: "/tmp/out", StartedAt: started})
	require.NoError(t, err)
	require.NoError(t, s.AddDocument(ctx, id, docgen.DocumentRecord{Dir: "pkg", Path: "pkg/description.md", Files: 2, Bytes: 40, Failed: true}))
	require.NoError(t, s.FinishRun(ctx, id, docgen.RunSummary{Status: docgen.StatusCompleted, Documents: 1, FinishedAt: started.Add(65 * time.Second)}))
	return s, id
}

func TestPrintHistory(t *testing.T) {
	s, id := seededStore(t)

	var out bytes.Buffer
	require.NoError(t, printHistory(context.Background(), s, 10, &out))

	got := out.String()
	assert.Contains(t, got, "RUN")
	assert.Contains(t, got, id)
	assert.Contains(t, got, "acme/demo@main")
	assert.Contains(t, got, "completed")
	assert.Contains(t, got, "1m5s")
}

func TestPrintHistoryEmpty(t *testing.T) {
	s, err := store.NewStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	var out bytes.Buffer
	require.NoError(t, printHistory(context.Background(), s, 0, &out))
	assert.Equal(t, "No runs recorded.\n", out.String())
}

func TestPrintRun(t *testing.T) {
	s, id := seededStore(t)

	var out bytes.Buffer
	require.NoError(t, printRun(context.Background(), s, id, &out))

	got := out.String()
	assert.Contains(t, got, "Run "+id+": demo acme/demo@main (completed)")
	assert.Contains(t, got, "Output: /tmp/out")
	assert.Contains(t, got, "pkg/description.md")
	assert.Contains(t, got, "failed")

	err := printRun(context.Background(), s, "missing", &out)
	assert.ErrorContains(t, err, `run "missing" not found`)
}
