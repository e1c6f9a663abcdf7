package source

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRepo(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://github.com/MigAru/poseidon", "MigAru/poseidon"},
		{"https://github.com/MigAru/poseidon.git", "MigAru/poseidon"},
		{"git@github.com:owner/repo.git", "owner/repo"},
		{"owner/repo", "owner/repo"},
		{"https://gitlab.com/group/sub/proj/", "group/sub/proj"},
		{"my.org/repo", "my.org/repo"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeRepo(tt.in))
		})
	}
}

func TestSplitRepo(t *testing.T) {
	owner, name, err := SplitRepo("https://gitlab.com/group/sub/proj")
	require.NoError(t, err)
	assert.Equal(t, "group/sub", owner)
	assert.Equal(t, "proj", name)

	_, _, err = SplitRepo("justaname")
	assert.Error(t, err)
}

func TestErrorWrapsCause(t *testing.T) {
	err := &Error{Op: "read", Repo: "o/r", Path: "a.go", Err: fs.ErrNotExist}
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), "source read o/r:a.go")

	root := &Error{Op: "list", Repo: "o/r", Err: fs.ErrNotExist}
	assert.Contains(t, root.Error(), "o/r:/")
}

func TestOpenUnknownProvider(t *testing.T) {
	_, err := Open(Options{Provider: "svn"}, "o/r")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source provider")
}

func TestOpenWrapsDecorators(t *testing.T) {
	src, err := Open(Options{Provider: "github", RequestsPerSecond: 5, CacheSize: 8}, "o/r")
	require.NoError(t, err)
	cached, ok := src.(*Cached)
	require.True(t, ok)
	_, ok = cached.next.(*Throttled)
	assert.True(t, ok)

	src, err = Open(Options{Provider: "local", RequestsPerSecond: 5}, t.TempDir())
	require.NoError(t, err)
	_, ok = src.(*Local)
	assert.True(t, ok, "local sources are never throttled")
}
