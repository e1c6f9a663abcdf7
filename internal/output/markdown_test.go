package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownFormatterBasic(t *testing.T) {
	report := &Report{
		RunID:      "01J0",
		Project:    "demo",
		Repository: "acme/demo",
		Branch:     "main",
		Commit:     "abc123",
		OutputDir:  "/tmp/out",
		Modules:    1,
		Documents:  []DocumentLine{{Dir: "", Path: "description.md", Files: 2, Bytes: 10}},
		PublishURL: "s3://docs/demo/01J0",
		DurationMs: 2000,
	}

	out, err := NewMarkdownFormatter().Format(report)
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, "# Documentation run: demo")
	assert.Contains(t, s, "- Repository: `acme/demo` (branch `main`)")
	assert.Contains(t, s, "- Commit: `abc123`")
	assert.Contains(t, s, "- Published: s3://docs/demo/01J0")
	assert.Contains(t, s, "| `/` | 2 | 10 | ok |")
	assert.Contains(t, s, "1 module documented in 2s")
	assert.NotContains(t, s, "## Failed")
}

func TestMarkdownFormatterFailures(t *testing.T) {
	report := &Report{
		Project:   "demo",
		Modules:   2,
		Documents: []DocumentLine{{Dir: "pkg", Files: 1, Failed: true}},
		Failed:    []string{"pkg"},
	}

	out, err := NewMarkdownFormatter().Format(report)
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, "| `pkg` | 1 | 0 | failed |")
	assert.Contains(t, s, "## Failed\n\n- `pkg`\n")
	assert.Contains(t, s, "2 modules documented")
	assert.NotContains(t, s, "Run:")
}

func TestMarkdownFormatterError(t *testing.T) {
	out, err := NewMarkdownFormatter().Format(&Report{Project: "demo", Error: "no such repository"})
	require.NoError(t, err)
	assert.Equal(t, "# Documentation run: demo\n\n## Error\n\nno such repository\n", string(out))
}
