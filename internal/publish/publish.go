// Package publish uploads a finished documentation tree to its final home.
package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/oklog/ulid/v2"
)

// Publisher uploads the files under dir and returns where they went.
type Publisher interface {
	Publish(ctx context.Context, dir, runID string) (string, error)
}

// file is one file of the documentation tree.
type file struct {
	Path string // slash-separated, relative to the tree root
	Data []byte
}

// collectFiles reads every regular file under dir in path order.
func collectFiles(dir string) ([]file, error) {
	fs := osfs.New(dir)
	var files []file
	err := util.Walk(fs, "/", func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel := strings.TrimPrefix(filepath.ToSlash(p), "/")
		data, err := util.ReadFile(fs, p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", rel, err)
		}
		files = append(files, file{Path: rel, Data: data})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collecting %s: %w", dir, err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// runKey returns runID, or a fresh ULID when the run was not recorded.
func runKey(runID string) string {
	if runID = strings.TrimSpace(runID); runID != "" {
		return runID
	}
	return ulid.Make().String()
}
