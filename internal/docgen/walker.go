package docgen

import (
	"context"
	"log"
	"strings"

	"github.com/julianshen/docgen/internal/logging"
	"github.com/julianshen/docgen/internal/source"
)

// Walk lists root and every directory below it. Entries of one directory are
// appended in listing order before descending into its subdirectories.
//
// Each directory is listed at most once and each path appears once in the
// result, so a source that reports a directory as its own child still
// terminates. A directory that cannot be listed is logged and contributes
// nothing. Cancelling ctx stops the descent and returns what was collected.
func Walk(ctx context.Context, src source.Source, repo, branch, root string) []source.TreeEntry {
	w := &walker{
		src:     src,
		repo:    repo,
		branch:  branch,
		visited: make(map[string]bool),
		seen:    make(map[string]bool),
	}
	w.walk(ctx, cleanDir(root))
	return w.entries
}

type walker struct {
	src          source.Source
	repo, branch string

	visited map[string]bool // directories already listed
	seen    map[string]bool // paths already emitted
	entries []source.TreeEntry
}

func (w *walker) walk(ctx context.Context, dir string) {
	if ctx.Err() != nil || w.visited[dir] {
		return
	}
	w.visited[dir] = true

	children, err := w.src.ListDirectory(ctx, w.repo, w.branch, dir)
	if err != nil {
		log.Printf("WARNING: skipping directory %q: %v", displayDir(dir), err)
		return
	}
	logging.Debugf("listed %q: %d entries", displayDir(dir), len(children))

	var subdirs []string
	for _, e := range children {
		e.Path = cleanDir(e.Path)
		if e.Path == "" || w.seen[e.Path] {
			continue
		}
		w.seen[e.Path] = true
		w.entries = append(w.entries, e)
		if e.IsDir() {
			subdirs = append(subdirs, e.Path)
		}
	}

	for _, sub := range subdirs {
		w.walk(ctx, sub)
	}
}

// cleanDir normalises a repository path to the slash-separated, unrooted
// form used as group and hierarchy keys. The root is "".
func cleanDir(p string) string {
	return strings.Trim(strings.TrimSpace(p), "/")
}
