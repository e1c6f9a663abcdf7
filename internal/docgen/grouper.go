package docgen

import (
	"bytes"
	"fmt"
	"log"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/ddddddO/gtree"

	"github.com/julianshen/docgen/internal/source"
)

// DefaultExtensions is the source-file allow-list used when none is configured.
var DefaultExtensions = []string{".py", ".js", ".ts", ".go", ".rs", ".cs"}

// Filter selects the files that are documented.
type Filter struct {
	Extensions []string // case-insensitive, with leading dot
	Exclude    []string // doublestar globs matched against the full path
}

// DefaultFilter returns a Filter with DefaultExtensions and no excludes.
func DefaultFilter() Filter {
	return Filter{Extensions: DefaultExtensions}
}

// Match reports whether the file at p passes the filter.
func (f Filter) Match(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return false
	}
	allowed := false
	for _, e := range f.Extensions {
		if strings.ToLower(e) == ext {
			allowed = true
			break
		}
	}
	if !allowed {
		return false
	}
	for _, pattern := range f.Exclude {
		ok, err := doublestar.Match(pattern, p)
		if err != nil {
			log.Printf("WARNING: invalid exclude pattern %q: %v", pattern, err)
			continue
		}
		if ok {
			return false
		}
	}
	return true
}

// Groups maps a directory path (root is "") to the files it directly
// contains, in traversal order.
type Groups map[string][]string

// Dirs returns the group keys in sorted order.
func (g Groups) Dirs() []string {
	dirs := make([]string, 0, len(g))
	for d := range g {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

// Files returns the total number of grouped files.
func (g Groups) Files() int {
	n := 0
	for _, files := range g {
		n += len(files)
	}
	return n
}

// Group buckets the files among entries by their parent directory. Entries
// are not modified; directories with no matching files are dropped.
func Group(entries []source.TreeEntry, filter Filter) Groups {
	groups := Groups{"": nil}
	for _, e := range entries {
		if e.IsDir() || !filter.Match(e.Path) {
			continue
		}
		dir := parentDir(e.Path)
		groups[dir] = append(groups[dir], e.Path)
	}
	for dir, files := range groups {
		if len(files) == 0 {
			delete(groups, dir)
		}
	}
	return groups
}

// Hierarchy maps every directory on the path to a grouped directory,
// including the root "", to the files grouped in it (nil for pure ancestors).
type Hierarchy map[string][]string

// BuildHierarchy adds every ancestor of every group key, and the root.
func BuildHierarchy(groups Groups) Hierarchy {
	h := Hierarchy{"": nil}
	for dir, files := range groups {
		parts := strings.Split(dir, "/")
		for i := 1; i <= len(parts); i++ {
			prefix := strings.Join(parts[:i], "/")
			if _, ok := h[prefix]; !ok {
				h[prefix] = nil
			}
		}
		h[dir] = append([]string(nil), files...)
	}
	return h
}

// Dirs returns the hierarchy keys in sorted order, root first.
func (h Hierarchy) Dirs() []string {
	dirs := make([]string, 0, len(h))
	for d := range h {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

// RenderHierarchy draws the directory hierarchy with the files of each
// directory listed under it.
func RenderHierarchy(h Hierarchy) (string, error) {
	root := gtree.NewRoot(".")
	nodes := map[string]*gtree.Node{"": root}

	for _, dir := range h.Dirs() {
		node := nodeFor(nodes, dir)
		files := append([]string(nil), h[dir]...)
		sort.Strings(files)
		for _, f := range files {
			node.Add(path.Base(f))
		}
	}

	var buf bytes.Buffer
	if err := gtree.OutputFromRoot(&buf, root); err != nil {
		return "", fmt.Errorf("rendering hierarchy: %w", err)
	}
	return buf.String(), nil
}

// nodeFor returns the tree node for dir, creating missing ancestors.
func nodeFor(nodes map[string]*gtree.Node, dir string) *gtree.Node {
	if n, ok := nodes[dir]; ok {
		return n
	}
	parent := nodeFor(nodes, parentDir(dir))
	n := parent.Add(path.Base(dir) + "/")
	nodes[dir] = n
	return n
}

func parentDir(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[:i]
	}
	return ""
}

func displayDir(dir string) string {
	if dir == "" {
		return "root directory"
	}
	return dir
}
