package publish

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"path"
	"strings"

	"github.com/google/go-github/v68/github"
)

// GitHubConfig describes the documentation repository.
type GitHubConfig struct {
	Repository string // owner/name
	Branch     string
	Dir        string // directory inside the repository; empty is the root
	Private    bool
	Message    string // commit message prefix
}

// GitHubPublisher commits documentation into a GitHub repository through
// the contents API, creating the repository when it does not exist.
type GitHubPublisher struct {
	client *github.Client
	cfg    GitHubConfig
}

// NewGitHubPublisher creates a new GitHubPublisher.
func NewGitHubPublisher(client *github.Client, cfg GitHubConfig) *GitHubPublisher {
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	if cfg.Message == "" {
		cfg.Message = "Update documentation"
	}
	return &GitHubPublisher{client: client, cfg: cfg}
}

// Publish commits every file under dir and returns the repository URL.
func (p *GitHubPublisher) Publish(ctx context.Context, dir, runID string) (string, error) {
	owner, name, ok := strings.Cut(p.cfg.Repository, "/")
	if !ok || owner == "" || name == "" {
		return "", fmt.Errorf("github repository must be owner/name, got %q", p.cfg.Repository)
	}

	files, err := collectFiles(dir)
	if err != nil {
		return "", err
	}
	repo, err := p.ensureRepository(ctx, owner, name)
	if err != nil {
		return "", err
	}
	if err := p.ensureBranch(ctx, owner, name, repo.GetDefaultBranch()); err != nil {
		return "", err
	}

	message := fmt.Sprintf("%s (run %s)", p.cfg.Message, runKey(runID))
	for _, f := range files {
		target := path.Join(p.cfg.Dir, f.Path)
		if err := p.putFile(ctx, owner, name, target, f.Data, message); err != nil {
			return "", err
		}
	}
	log.Printf("publish: committed %d files to %s@%s", len(files), p.cfg.Repository, p.cfg.Branch)
	return repo.GetHTMLURL(), nil
}

// ensureRepository returns the repository, creating it (initialised with a
// README so the branch exists) when the API reports it missing.
func (p *GitHubPublisher) ensureRepository(ctx context.Context, owner, name string) (*github.Repository, error) {
	repo, resp, err := p.client.Repositories.Get(ctx, owner, name)
	if err == nil {
		return repo, nil
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		return nil, fmt.Errorf("get repository %s/%s: %w", owner, name, err)
	}

	// Create under the organisation unless owner is the authenticated user.
	org := owner
	if user, _, err := p.client.Users.Get(ctx, ""); err == nil && strings.EqualFold(user.GetLogin(), owner) {
		org = ""
	}
	repo, _, err = p.client.Repositories.Create(ctx, org, &github.Repository{
		Name:     github.Ptr(name),
		Private:  github.Ptr(p.cfg.Private),
		AutoInit: github.Ptr(true),
	})
	if err != nil {
		return nil, fmt.Errorf("create repository %s/%s: %w", owner, name, err)
	}
	log.Printf("publish: created repository %s/%s", owner, name)
	return repo, nil
}

// ensureBranch creates the target branch from the head of the default
// branch when it does not exist yet.
func (p *GitHubPublisher) ensureBranch(ctx context.Context, owner, name, defaultBranch string) error {
	_, resp, err := p.client.Git.GetRef(ctx, owner, name, "heads/"+p.cfg.Branch)
	if err == nil {
		return nil
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("get branch %s: %w", p.cfg.Branch, err)
	}

	if defaultBranch == "" {
		defaultBranch = "main"
	}
	base, _, err := p.client.Git.GetRef(ctx, owner, name, "heads/"+defaultBranch)
	if err != nil {
		return fmt.Errorf("get default branch %s: %w", defaultBranch, err)
	}
	_, _, err = p.client.Git.CreateRef(ctx, owner, name, &github.Reference{
		Ref:    github.Ptr("refs/heads/" + p.cfg.Branch),
		Object: &github.GitObject{SHA: github.Ptr(base.GetObject().GetSHA())},
	})
	if err != nil {
		return fmt.Errorf("create branch %s: %w", p.cfg.Branch, err)
	}
	log.Printf("publish: created branch %s from %s", p.cfg.Branch, defaultBranch)
	return nil
}

func (p *GitHubPublisher) putFile(ctx context.Context, owner, name, filePath string, data []byte, message string) error {
	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(message),
		Content: data,
		Branch:  github.Ptr(p.cfg.Branch),
	}

	existing, _, resp, err := p.client.Repositories.GetContents(ctx, owner, name, filePath,
		&github.RepositoryContentGetOptions{Ref: p.cfg.Branch})
	switch {
	case err == nil && existing != nil:
		opts.SHA = existing.SHA
		_, _, err = p.client.Repositories.UpdateFile(ctx, owner, name, filePath, opts)
	case resp != nil && resp.StatusCode == http.StatusNotFound:
		_, _, err = p.client.Repositories.CreateFile(ctx, owner, name, filePath, opts)
	case err == nil:
		return fmt.Errorf("put %s: path is a directory", filePath)
	}
	if err != nil {
		return fmt.Errorf("put %s: %w", filePath, err)
	}
	return nil
}
