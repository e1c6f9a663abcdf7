package docgen

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

const (
	descriptionFile = "description.md"
	overviewFile    = "README.md"
	tempPrefix      = ".docgen-tmp-"
)

// WriteError reports a failure to persist a generated file.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// DocPath returns the output path of the documentation of dir.
func DocPath(dir string) string {
	if dir == "" {
		return descriptionFile
	}
	return path.Join(dir, descriptionFile)
}

// WriteDocument stores doc under its DocPath and returns that path. The file
// appears complete or not at all.
func WriteDocument(fs billy.Filesystem, doc Document) (string, error) {
	name := DocPath(doc.Dir)
	if err := writeAtomic(fs, name, []byte(doc.Content)); err != nil {
		return "", err
	}
	return name, nil
}

// writeAtomic writes data to a temporary file next to name and renames it
// into place.
func writeAtomic(fs billy.Filesystem, name string, data []byte) error {
	dir := path.Dir(name)
	if dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return &WriteError{Path: name, Err: fmt.Errorf("creating directory %s: %w", dir, err)}
		}
	} else {
		dir = ""
	}

	tmp, err := fs.TempFile(dir, tempPrefix)
	if err != nil {
		return &WriteError{Path: name, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		fs.Remove(tmpName)
		return &WriteError{Path: name, Err: err}
	}
	if err := tmp.Close(); err != nil {
		fs.Remove(tmpName)
		return &WriteError{Path: name, Err: err}
	}

	if err := fs.Rename(tmpName, name); err != nil {
		// Not every billy backend replaces an existing file on rename. A
		// directory in the way is an error, never removed.
		if info, statErr := fs.Stat(name); statErr == nil && info.Mode().IsRegular() {
			if rmErr := fs.Remove(name); rmErr == nil {
				err = fs.Rename(tmpName, name)
			}
		}
		if err != nil {
			fs.Remove(tmpName)
			return &WriteError{Path: name, Err: err}
		}
	}
	return nil
}

// ClearDocuments removes what an earlier run left under the root of fs: every
// description.md, the root README.md and stray temporary files. Directories
// left empty are removed too; anything else stays.
func ClearDocuments(fs billy.Filesystem) error {
	var files, dirs []string
	err := util.Walk(fs, "/", func(name string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		base := path.Base(name)
		switch {
		case info.IsDir():
			if name != "/" {
				dirs = append(dirs, name)
			}
		case !info.Mode().IsRegular():
		case base == descriptionFile, strings.HasPrefix(base, tempPrefix), name == "/"+overviewFile:
			files = append(files, name)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("listing previous output: %w", err)
	}

	for _, name := range files {
		if err := fs.Remove(name); err != nil {
			return fmt.Errorf("removing %s: %w", name, err)
		}
	}
	// Children sort before their parents.
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, dir := range dirs {
		if infos, err := fs.ReadDir(dir); err == nil && len(infos) == 0 {
			if err := fs.Remove(dir); err != nil {
				return fmt.Errorf("removing %s: %w", dir, err)
			}
		}
	}
	return nil
}
