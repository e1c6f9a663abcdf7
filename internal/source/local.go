package source

import (
	"context"
	"fmt"
	"path"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// skipDirs are never reported by the local source.
var skipDirs = map[string]bool{
	".git": true,
	".hg":  true,
	".svn": true,
}

// Local serves a working copy from a billy filesystem. The repo and branch
// arguments are ignored: the filesystem root is the repository root.
type Local struct {
	fs billy.Filesystem
}

// NewLocal serves the given filesystem.
func NewLocal(fs billy.Filesystem) *Local {
	return &Local{fs: fs}
}

// NewLocalDir serves the directory dir of the host filesystem.
func NewLocalDir(dir string) *Local {
	return &Local{fs: osfs.New(dir)}
}

func (l *Local) ListDirectory(_ context.Context, repo, _, dir string) ([]TreeEntry, error) {
	infos, err := l.fs.ReadDir(fsPath(dir))
	if err != nil {
		return nil, &Error{Op: "list", Repo: repo, Path: dir, Err: err}
	}

	entries := make([]TreeEntry, 0, len(infos))
	for _, fi := range infos {
		if fi.IsDir() && skipDirs[fi.Name()] {
			continue
		}
		e := TreeEntry{
			Path:     path.Join(dir, fi.Name()),
			Kind:     KindFile,
			Identity: fmt.Sprintf("%x-%d", fi.ModTime().UnixNano(), fi.Size()),
		}
		if fi.IsDir() {
			e.Kind = KindDirectory
		} else {
			e.Size = fi.Size()
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (l *Local) ReadFile(_ context.Context, repo, _, file string) (*FileContent, error) {
	fi, err := l.fs.Stat(fsPath(file))
	if err != nil {
		return nil, &Error{Op: "read", Repo: repo, Path: file, Err: err}
	}
	if fi.IsDir() {
		return nil, &Error{Op: "read", Repo: repo, Path: file, Err: fmt.Errorf("path is a directory")}
	}
	data, err := util.ReadFile(l.fs, fsPath(file))
	if err != nil {
		return nil, &Error{Op: "read", Repo: repo, Path: file, Err: err}
	}
	return &FileContent{
		Path:     file,
		Content:  string(data),
		Encoding: "utf-8",
		Size:     int64(len(data)),
		Identity: fmt.Sprintf("%x-%d", fi.ModTime().UnixNano(), fi.Size()),
	}, nil
}

func fsPath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
