package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v68/github"
)

// GitHub reads repositories through the GitHub contents API.
type GitHub struct {
	client *github.Client
}

// NewGitHubClient builds a go-github client. An empty token gives
// unauthenticated access (public repositories, low rate limit). A non-empty
// baseURL targets a GitHub Enterprise instance.
func NewGitHubClient(token, baseURL string) (*github.Client, error) {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if baseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, fmt.Errorf("github enterprise url: %w", err)
		}
	}
	return client, nil
}

// NewGitHub wraps an existing go-github client.
func NewGitHub(client *github.Client) *GitHub {
	return &GitHub{client: client}
}

// ListDirectory returns the immediate children of path.
func (g *GitHub) ListDirectory(ctx context.Context, repo, branch, path string) ([]TreeEntry, error) {
	owner, name, err := SplitRepo(repo)
	if err != nil {
		return nil, &Error{Op: "list", Repo: repo, Path: path, Err: err}
	}

	file, dir, _, err := g.client.Repositories.GetContents(ctx, owner, name, path, &github.RepositoryContentGetOptions{Ref: branch})
	if err != nil {
		return nil, &Error{Op: "list", Repo: repo, Path: path, Err: err}
	}
	if file != nil {
		dir = []*github.RepositoryContent{file}
	}

	entries := make([]TreeEntry, 0, len(dir))
	for _, c := range dir {
		e := TreeEntry{
			Path:     c.GetPath(),
			Kind:     KindFile,
			Identity: c.GetSHA(),
		}
		if c.GetType() == "dir" {
			e.Kind = KindDirectory
		} else {
			e.Size = int64(c.GetSize())
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ReadFile fetches and decodes a single file.
func (g *GitHub) ReadFile(ctx context.Context, repo, branch, path string) (*FileContent, error) {
	owner, name, err := SplitRepo(repo)
	if err != nil {
		return nil, &Error{Op: "read", Repo: repo, Path: path, Err: err}
	}

	file, _, _, err := g.client.Repositories.GetContents(ctx, owner, name, path, &github.RepositoryContentGetOptions{Ref: branch})
	if err != nil {
		return nil, &Error{Op: "read", Repo: repo, Path: path, Err: err}
	}
	if file == nil {
		return nil, &Error{Op: "read", Repo: repo, Path: path, Err: fmt.Errorf("path is a directory")}
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, &Error{Op: "read", Repo: repo, Path: path, Err: fmt.Errorf("decode content: %w", err)}
	}

	return &FileContent{
		Path:     file.GetPath(),
		Content:  content,
		Encoding: strings.ToLower(file.GetEncoding()),
		Size:     int64(file.GetSize()),
		Identity: file.GetSHA(),
	}, nil
}
