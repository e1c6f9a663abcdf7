package docgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/julianshen/docgen/internal/source"
)

// fakeSource serves a fixed tree. Directory listings are keyed by path.
type fakeSource struct {
	tree     map[string][]source.TreeEntry
	files    map[string]string
	listErrs map[string]error
	readErrs map[string]error

	mu    sync.Mutex
	lists []string
}

func (f *fakeSource) ListDirectory(_ context.Context, repo, _, path string) ([]source.TreeEntry, error) {
	f.mu.Lock()
	f.lists = append(f.lists, path)
	f.mu.Unlock()
	if err := f.listErrs[path]; err != nil {
		return nil, &source.Error{Op: "list", Repo: repo, Path: path, Err: err}
	}
	entries, ok := f.tree[path]
	if !ok {
		return nil, &source.Error{Op: "list", Repo: repo, Path: path, Err: errors.New("not found")}
	}
	return entries, nil
}

func (f *fakeSource) ReadFile(_ context.Context, repo, _, path string) (*source.FileContent, error) {
	if err := f.readErrs[path]; err != nil {
		return nil, &source.Error{Op: "read", Repo: repo, Path: path, Err: err}
	}
	content, ok := f.files[path]
	if !ok {
		return nil, &source.Error{Op: "read", Repo: repo, Path: path, Err: errors.New("not found")}
	}
	return &source.FileContent{Path: path, Content: content, Size: int64(len(content))}, nil
}

func (f *fakeSource) listCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.lists {
		if p == path {
			n++
		}
	}
	return n
}

func dirEntry(p string) source.TreeEntry  { return source.TreeEntry{Path: p, Kind: source.KindDirectory} }
func fileEntry(p string) source.TreeEntry { return source.TreeEntry{Path: p, Kind: source.KindFile} }

// treeSource builds a fakeSource from file contents keyed by path.
func treeSource(files map[string]string) *fakeSource {
	src := &fakeSource{tree: map[string][]source.TreeEntry{"": nil}, files: files}
	seenDir := map[string]bool{"": true}
	for p := range files {
		parts := strings.Split(p, "/")
		for i := 1; i < len(parts); i++ {
			dir := strings.Join(parts[:i], "/")
			if !seenDir[dir] {
				seenDir[dir] = true
				parent := strings.Join(parts[:i-1], "/")
				src.tree[parent] = append(src.tree[parent], dirEntry(dir))
				if _, ok := src.tree[dir]; !ok {
					src.tree[dir] = nil
				}
			}
		}
		parent := strings.Join(parts[:len(parts)-1], "/")
		src.tree[parent] = append(src.tree[parent], fileEntry(p))
	}
	return src
}

// fakeConversation answers through fn and records what it was asked.
type fakeConversation struct {
	owner  *fakeAssistant
	closed bool
}

func (c *fakeConversation) Ask(ctx context.Context, message string, maxAttempts int) (string, error) {
	c.owner.mu.Lock()
	c.owner.prompts = append(c.owner.prompts, message)
	c.owner.attempts = append(c.owner.attempts, maxAttempts)
	c.owner.mu.Unlock()
	if c.owner.answer == nil {
		return fmt.Sprintf("OK:%d", strings.Count(message, "### File: ")), nil
	}
	return c.owner.answer(message)
}

func (c *fakeConversation) Close(context.Context) error {
	c.owner.mu.Lock()
	defer c.owner.mu.Unlock()
	c.closed = true
	c.owner.closes++
	return c.owner.closeErr
}

// fakeAssistant hands out fakeConversations. A nil answer echoes
// "OK:<number of file sections>".
type fakeAssistant struct {
	answer   func(message string) (string, error)
	closeErr error

	mu       sync.Mutex
	prompts  []string
	attempts []int
	opened   int
	closes   int
}

func (a *fakeAssistant) NewConversation() Conversation {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.opened++
	return &fakeConversation{owner: a}
}

func (a *fakeAssistant) snapshot() (prompts []string, opened, closes int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.prompts...), a.opened, a.closes
}
