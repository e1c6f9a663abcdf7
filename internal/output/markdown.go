package output

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter outputs a Report as human-readable Markdown.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format renders the Report as Markdown.
func (f *MarkdownFormatter) Format(report *Report) ([]byte, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# Documentation run: %s\n\n", report.Project))
	if report.Error != "" {
		b.WriteString("## Error\n\n")
		b.WriteString(report.Error)
		b.WriteString("\n")
		return []byte(b.String()), nil
	}

	b.WriteString(fmt.Sprintf("- Repository: `%s` (branch `%s`)\n", report.Repository, report.Branch))
	if report.Commit != "" {
		b.WriteString(fmt.Sprintf("- Commit: `%s`\n", report.Commit))
	}
	b.WriteString(fmt.Sprintf("- Output: `%s`\n", report.OutputDir))
	if report.RunID != "" {
		b.WriteString(fmt.Sprintf("- Run: `%s`\n", report.RunID))
	}
	if report.PublishURL != "" {
		b.WriteString(fmt.Sprintf("- Published: %s\n", report.PublishURL))
	}

	if len(report.Documents) > 0 {
		b.WriteString("\n## Documents\n\n")
		b.WriteString("| Directory | Files | Bytes | Status |\n")
		b.WriteString("|---|---:|---:|---|\n")
		for _, d := range report.Documents {
			dir := d.Dir
			if dir == "" {
				dir = "/"
			}
			status := "ok"
			if d.Failed {
				status = "failed"
			}
			b.WriteString(fmt.Sprintf("| `%s` | %d | %d | %s |\n", dir, d.Files, d.Bytes, status))
		}
	}

	if len(report.Failed) > 0 {
		b.WriteString("\n## Failed\n\n")
		for _, dir := range report.Failed {
			if dir == "" {
				dir = "/"
			}
			b.WriteString(fmt.Sprintf("- `%s`\n", dir))
		}
	}

	moduleLabel := "modules"
	if report.Modules == 1 {
		moduleLabel = "module"
	}
	b.WriteString(fmt.Sprintf("\n---\n*%d %s documented in %s*\n",
		report.Modules, moduleLabel, report.Duration().Round(100*time.Millisecond)))

	return []byte(b.String()), nil
}
