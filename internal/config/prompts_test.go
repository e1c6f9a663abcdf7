package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadInstructionsFile_FileExists(t *testing.T) {
	dir := t.TempDir()
	content := "## House rules\n\nDocument every exported type.\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "DOCGEN.md"), []byte(content), 0o644))

	result, err := LoadInstructionsFile(dir)
	require.NoError(t, err)
	assert.Equal(t, "## House rules\n\nDocument every exported type.", result)
}

func TestLoadInstructionsFile_FileMissing(t *testing.T) {
	result, err := LoadInstructionsFile(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestLoadInstructionsFile_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "DOCGEN.md"), []byte("  \n"), 0o644))

	result, err := LoadInstructionsFile(dir)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestLoadPrompt(t *testing.T) {
	text, err := LoadPrompt("")
	require.NoError(t, err)
	assert.Empty(t, text)

	path := filepath.Join(t.TempDir(), "module.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("Describe {{.Dir}}."), 0o644))
	text, err = LoadPrompt(path)
	require.NoError(t, err)
	assert.Equal(t, "Describe {{.Dir}}.", text)

	_, err = LoadPrompt(filepath.Join(t.TempDir(), "missing.tmpl"))
	assert.ErrorContains(t, err, "reading prompt")
}
