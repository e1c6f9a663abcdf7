package integrations

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// GitCommit represents a git log entry.
type GitCommit struct {
	Hash    string
	Author  string
	Message string
}

// GitRunner reads the state of a local working copy with the git binary.
type GitRunner struct {
	workDir string
}

// NewGitRunner creates a GitRunner for the given directory.
func NewGitRunner(workDir string) *GitRunner {
	return &GitRunner{workDir: workDir}
}

// CurrentBranch returns the checked-out branch, or "" on a detached HEAD.
// An unborn branch of a fresh repository is reported too.
func (g *GitRunner) CurrentBranch(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "symbolic-ref", "--short", "-q", "HEAD")
	if err != nil {
		// symbolic-ref -q exits 1 without output when HEAD is detached.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Head returns the commit checked out in the working copy.
// Uses ASCII record separator (\x1e) as delimiter to avoid conflicts
// with characters that may appear in commit subjects or author names.
func (g *GitRunner) Head(ctx context.Context) (GitCommit, error) {
	const sep = "\x1e"
	out, err := g.run(ctx, "log", "-1", "--format=%H%x1e%an%x1e%s")
	if err != nil {
		return GitCommit{}, err
	}
	parts := strings.SplitN(strings.TrimSpace(out), sep, 3)
	if len(parts) < 3 {
		return GitCommit{}, fmt.Errorf("git log: unexpected output %q", out)
	}
	return GitCommit{Hash: parts[0], Author: parts[1], Message: parts[2]}, nil
}

func (g *GitRunner) run(ctx context.Context, args ...string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("git: no subcommand provided")
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.workDir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &gitError{subcommand: args[0], stderr: strings.TrimSpace(string(exitErr.Stderr)), err: exitErr}
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return string(out), nil
}

// gitError keeps the exit status of a failed git command inspectable.
type gitError struct {
	subcommand string
	stderr     string
	err        *exec.ExitError
}

func (e *gitError) Error() string { return fmt.Sprintf("git %s: %s", e.subcommand, e.stderr) }

func (e *gitError) Unwrap() error { return e.err }
