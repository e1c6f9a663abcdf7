// Package output renders the report of a documentation run for the terminal
// or for machines.
package output

import (
	"fmt"
	"time"
)

// Report is the outcome of one documentation run.
type Report struct {
	RunID      string         `json:"run_id,omitempty"`
	Project    string         `json:"project"`
	Repository string         `json:"repository"`
	Branch     string         `json:"branch"`
	Commit     string         `json:"commit,omitempty"`
	OutputDir  string         `json:"output_dir"`
	Modules    int            `json:"modules"`
	Documents  []DocumentLine `json:"documents,omitempty"`
	Failed     []string       `json:"failed,omitempty"`
	PublishURL string         `json:"publish_url,omitempty"`
	DurationMs int64          `json:"duration_ms"`
	Error      string         `json:"error,omitempty"`
}

// DocumentLine is one written document.
type DocumentLine struct {
	Dir    string `json:"dir"`
	Path   string `json:"path"`
	Files  int    `json:"files"`
	Bytes  int    `json:"bytes"`
	Failed bool   `json:"failed,omitempty"`
}

// Duration returns DurationMs as a time.Duration.
func (r *Report) Duration() time.Duration {
	return time.Duration(r.DurationMs) * time.Millisecond
}

// Formatter formats a Report into output bytes.
type Formatter interface {
	Format(report *Report) ([]byte, error)
}

// NewFormatter returns the formatter for name: "json" or "markdown".
func NewFormatter(name string) (Formatter, error) {
	switch name {
	case "json":
		return NewJSONFormatter(), nil
	case "", "markdown":
		return NewMarkdownFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown report format %q", name)
	}
}
