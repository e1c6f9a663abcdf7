package source

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/xanzy/go-gitlab"
)

const gitlabPageSize = 100

// GitLab reads repositories through the GitLab repository API.
type GitLab struct {
	client *gitlab.Client
}

// NewGitLabClient builds a go-gitlab client. An empty baseURL targets
// gitlab.com.
func NewGitLabClient(token, baseURL string) (*gitlab.Client, error) {
	var opts []gitlab.ClientOptionFunc
	if baseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(baseURL))
	}
	client, err := gitlab.NewClient(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("gitlab client: %w", err)
	}
	return client, nil
}

// NewGitLab wraps an existing go-gitlab client.
func NewGitLab(client *gitlab.Client) *GitLab {
	return &GitLab{client: client}
}

// ListDirectory returns the immediate children of path, following
// pagination until the last page.
func (g *GitLab) ListDirectory(ctx context.Context, repo, branch, path string) ([]TreeEntry, error) {
	pid := NormalizeRepo(repo)
	opt := &gitlab.ListTreeOptions{
		ListOptions: gitlab.ListOptions{PerPage: gitlabPageSize, Page: 1},
		Ref:         gitlab.Ptr(branch),
	}
	if path != "" {
		opt.Path = gitlab.Ptr(path)
	}

	var entries []TreeEntry
	for {
		nodes, resp, err := g.client.Repositories.ListTree(pid, opt, gitlab.WithContext(ctx))
		if err != nil {
			return nil, &Error{Op: "list", Repo: repo, Path: path, Err: err}
		}
		for _, n := range nodes {
			e := TreeEntry{Path: n.Path, Kind: KindFile, Identity: n.ID}
			if n.Type == "tree" {
				e.Kind = KindDirectory
			}
			entries = append(entries, e)
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return entries, nil
}

// ReadFile fetches and decodes a single file.
func (g *GitLab) ReadFile(ctx context.Context, repo, branch, path string) (*FileContent, error) {
	pid := NormalizeRepo(repo)
	f, _, err := g.client.RepositoryFiles.GetFile(pid, path, &gitlab.GetFileOptions{Ref: gitlab.Ptr(branch)}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, &Error{Op: "read", Repo: repo, Path: path, Err: err}
	}

	content := f.Content
	if f.Encoding == "base64" {
		raw, err := base64.StdEncoding.DecodeString(f.Content)
		if err != nil {
			return nil, &Error{Op: "read", Repo: repo, Path: path, Err: fmt.Errorf("decode content: %w", err)}
		}
		content = string(raw)
	}

	return &FileContent{
		Path:     f.FilePath,
		Content:  content,
		Encoding: f.Encoding,
		Size:     int64(f.Size),
		Identity: f.BlobID,
	}, nil
}
