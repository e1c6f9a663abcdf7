package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// InstructionsFile is read from the root of a local repository and appended
// to the project instructions.
const InstructionsFile = "DOCGEN.md"

// LoadInstructionsFile reads DOCGEN.md from the given project root directory.
// Returns the file content, or an empty string if the file does not exist.
func LoadInstructionsFile(projectRoot string) (string, error) {
	data, err := os.ReadFile(filepath.Join(projectRoot, InstructionsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return "", nil
	}
	return content, nil
}

// LoadPrompt reads a prompt template file. An empty path yields "" so the
// built-in prompt is used; a configured file that cannot be read is an error.
func LoadPrompt(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(ExpandHome(path))
	if err != nil {
		return "", fmt.Errorf("reading prompt %s: %w", path, err)
	}
	return string(data), nil
}
