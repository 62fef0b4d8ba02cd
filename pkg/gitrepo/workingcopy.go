package gitrepo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/klog/v2"
)

// Author is the identity used for commits. Empty fields fall back to the
// git configuration of the user.
type Author struct {
	Name  string
	Email string
}

// WorkingCopy is a local clone of one repository. It lives at
// <workdir>/<name> and is reused across runs.
type WorkingCopy struct {
	// Dir is the root of the clone.
	Dir string
	// URL is the remote the clone was made from.
	URL string

	runner *Runner
}

// Open returns the working copy of name below workdir. Nothing is cloned
// until Checkout is called.
func Open(workdir, name, url string, author Author) (*WorkingCopy, error) {
	dir, err := filepath.Abs(filepath.Join(workdir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working copy path: %w", err)
	}

	runner, err := NewRunner(dir)
	if err != nil {
		return nil, err
	}
	if author.Name != "" {
		runner.Env = append(runner.Env, "GIT_AUTHOR_NAME="+author.Name, "GIT_COMMITTER_NAME="+author.Name)
	}
	if author.Email != "" {
		runner.Env = append(runner.Env, "GIT_AUTHOR_EMAIL="+author.Email, "GIT_COMMITTER_EMAIL="+author.Email)
	}

	return &WorkingCopy{
		Dir:    dir,
		URL:    url,
		runner: runner,
	}, nil
}

// Exists reports whether the clone has been created.
func (w *WorkingCopy) Exists() bool {
	_, err := os.Stat(filepath.Join(w.Dir, ".git"))
	return err == nil
}

// Checkout brings the working copy to the tip of base and force-creates
// branch from it. An existing clone is reset and cleaned first, so leftovers
// of an interrupted run never survive. Uncommitted work is lost, and so are
// local base commits that are not on origin, including when the remote base
// was rewritten.
func (w *WorkingCopy) Checkout(ctx context.Context, base, branch string) error {
	if w.Exists() {
		klog.V(2).Infof("resetting working copy %s", w.Dir)
		for _, args := range [][]string{
			{"reset", "--hard"},
			{"clean", "-fdx"},
			{"fetch", "--prune", "origin"},
			{"checkout", base},
			{"reset", "--hard", "origin/" + base},
		} {
			if _, err := w.runner.Run(ctx, args...); err != nil {
				return err
			}
		}
	} else {
		if err := w.clone(ctx); err != nil {
			return err
		}
		if _, err := w.runner.Run(ctx, "checkout", base); err != nil {
			return err
		}
	}

	_, err := w.runner.Run(ctx, "checkout", "-B", branch, base)
	return err
}

func (w *WorkingCopy) clone(ctx context.Context) error {
	parent := filepath.Dir(w.Dir)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return fmt.Errorf("failed to create working directory: %w", err)
	}

	// A directory without .git is what an interrupted clone leaves behind.
	if err := os.RemoveAll(w.Dir); err != nil {
		return fmt.Errorf("failed to remove incomplete working copy: %w", err)
	}

	klog.V(2).Infof("cloning %s into %s", w.URL, w.Dir)
	cloner := *w.runner
	cloner.Dir = parent
	_, err := cloner.Run(ctx, "clone", w.URL, filepath.Base(w.Dir))
	return err
}

// StageAll stages every change, including deletions and new files.
func (w *WorkingCopy) StageAll(ctx context.Context) error {
	_, err := w.runner.Run(ctx, "add", "--all")
	return err
}

// Status returns the pending changes of the working copy.
func (w *WorkingCopy) Status(ctx context.Context) ([]StatusEntry, error) {
	rr, err := w.runner.Run(ctx, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	return parseStatus(rr.Stdout), nil
}

// Commit records the staged changes.
func (w *WorkingCopy) Commit(ctx context.Context, message string) error {
	_, err := w.runner.Run(ctx, "commit", "-m", message)
	return err
}

// ForcePush pushes branch to origin, overwriting whatever the remote
// branch contains.
func (w *WorkingCopy) ForcePush(ctx context.Context, branch string) error {
	_, err := w.runner.Run(ctx, "push", "-f", "origin", branch)
	return err
}

// Head returns the commit the working copy is at.
func (w *WorkingCopy) Head(ctx context.Context) (string, error) {
	rr, err := w.runner.Run(ctx, "rev-parse", "--verify", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(rr.Stdout), nil
}
