// Package docgen turns a repository tree into per-directory Markdown
// documentation and a synthesized project overview.
//
// The flow is Walk -> Group -> Generate (one document per directory) ->
// Synthesize (README.md). Each stage talks to the outside world through
// small interfaces: source.Source for repository reads, Assistant for the
// AI backend and Recorder for run bookkeeping.
package docgen

import (
	"context"
	"time"
)

// Project describes what to document.
type Project struct {
	Name         string
	Repository   string
	Branch       string
	Directory    string // root path to walk; "" is the repository root
	Instructions string
	Language     string
}

// Document is the generated documentation of one directory.
type Document struct {
	Dir     string
	Content string
	Files   int  // files that made it into the prompt
	Failed  bool // Content is the synthetic error document
}

// Conversation is one AI dialog. It is used by a single goroutine.
type Conversation interface {
	Ask(ctx context.Context, message string, maxAttempts int) (string, error)
	Close(ctx context.Context) error
}

// Assistant opens conversations with the AI backend.
type Assistant interface {
	NewConversation() Conversation
}

// RunInfo identifies a run when it is started in a Recorder.
type RunInfo struct {
	Project    string
	Repository string
	Branch     string
	OutputDir  string
	StartedAt  time.Time
}

// DocumentRecord is one written document as seen by a Recorder.
type DocumentRecord struct {
	Dir    string
	Path   string
	Files  int
	Failed bool
	Bytes  int
}

// RunSummary closes a run in a Recorder.
type RunSummary struct {
	Status     string // "completed" or "failed"
	Error      string
	Documents  int
	FinishedAt time.Time
}

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Recorder keeps the history of pipeline runs. Implementations must be safe
// for concurrent use.
type Recorder interface {
	StartRun(ctx context.Context, info RunInfo) (string, error)
	AddDocument(ctx context.Context, runID string, doc DocumentRecord) error
	FinishRun(ctx context.Context, runID string, summary RunSummary) error
}
