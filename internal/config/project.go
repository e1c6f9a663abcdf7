package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Project is a project manifest: what to document and how.
type Project struct {
	Name           string   `yaml:"name" validate:"required"`
	Repository     string   `yaml:"repository" validate:"required"`
	Directory      string   `yaml:"directory"`
	Branches       []string `yaml:"branches"`
	Instructions   string   `yaml:"instructions"`
	DocLanguage    string   `yaml:"doc_language"`
	AccessToken    string   `yaml:"access_token"`
	DocsRepository string   `yaml:"docs_repository"` // owner/name for GitHub publishing
}

// Branch returns the first configured branch, or "main".
func (p *Project) Branch() string {
	for _, b := range p.Branches {
		if b = strings.TrimSpace(b); b != "" {
			return b
		}
	}
	return "main"
}

// LoadProject reads and validates a YAML project manifest.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project file: %w", err)
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing project file %s: %w", path, err)
	}
	if err := validate.Struct(&p); err != nil {
		return nil, fmt.Errorf("project file %s: %w", path, err)
	}
	return &p, nil
}
