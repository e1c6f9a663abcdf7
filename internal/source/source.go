// Package source provides read access to repository trees hosted on GitHub,
// GitLab or a local filesystem.
package source

import (
	"context"
	"fmt"
	"strings"
)

// Kind classifies a tree entry.
type Kind string

const (
	KindDirectory Kind = "directory"
	KindFile      Kind = "file"
)

// TreeEntry is one node of a repository tree.
type TreeEntry struct {
	Path     string // slash-separated, relative to the repository root
	Kind     Kind
	Size     int64 // zero for directories
	Identity string
}

// IsDir reports whether the entry is a directory.
func (e TreeEntry) IsDir() bool { return e.Kind == KindDirectory }

// FileContent is the decoded content of a single file.
type FileContent struct {
	Path     string
	Content  string
	Encoding string
	Size     int64
	Identity string
}

// Source lists directories and reads files of a repository at a branch.
type Source interface {
	ListDirectory(ctx context.Context, repo, branch, path string) ([]TreeEntry, error)
	ReadFile(ctx context.Context, repo, branch, path string) (*FileContent, error)
}

// Error is returned by every Source implementation when a repository read
// fails.
type Error struct {
	Op   string // "list" or "read"
	Repo string
	Path string
	Err  error
}

func (e *Error) Error() string {
	path := e.Path
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("source %s %s:%s: %v", e.Op, e.Repo, path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NormalizeRepo turns a repository URL or "owner/repo" string into the
// "owner/repo" form. Host prefixes, scheme and a trailing ".git" are removed.
func NormalizeRepo(repo string) string {
	r := strings.TrimSpace(repo)
	r = strings.TrimPrefix(r, "git@")
	for _, prefix := range []string{"https://", "http://"} {
		r = strings.TrimPrefix(r, prefix)
	}
	if i := strings.IndexAny(r, ":/"); i >= 0 && strings.Contains(r[:i], ".") && strings.Contains(r[i+1:], "/") {
		r = r[i+1:]
	}
	r = strings.TrimSuffix(r, "/")
	r = strings.TrimSuffix(r, ".git")
	return r
}

// SplitRepo splits a repository reference into owner and name.
func SplitRepo(repo string) (owner, name string, err error) {
	norm := NormalizeRepo(repo)
	i := strings.LastIndex(norm, "/")
	if i <= 0 || i == len(norm)-1 {
		return "", "", fmt.Errorf("invalid repository %q: want owner/name", repo)
	}
	return norm[:i], norm[i+1:], nil
}
