package propagate

import (
	"context"
	"fmt"
	"os"

	"github.com/otiai10/copy"
	"k8s.io/klog/v2"

	"repofleet/pkg/config"
	"repofleet/pkg/github"
	"repofleet/pkg/gitrepo"
	"repofleet/pkg/upgrade"
)

// OpenPullRequestLine is reported when a pull request would be opened.
const OpenPullRequestLine = "OPEN pull request"

// Job describes one propagation to run against a repository.
type Job struct {
	// Branch is the change branch, force-created from the base branch.
	Branch string
	Title  string
	Body   string

	// Transform runs before the template overlay when set.
	Transform       upgrade.Transform
	UpgradeMessage  string
	TemplateMessage string
}

// Options configures a Workflow.
type Options struct {
	Owner string
	// Workdir holds one working copy per repository.
	Workdir string
	// TemplateDir is overlaid onto every working copy. Empty disables the
	// overlay.
	TemplateDir   string
	ReviewLabel   string
	CloneProtocol string
	Author        gitrepo.Author
}

// Result is the outcome of a workflow run for one repository.
type Result struct {
	// Lines are the operator report lines in the order they happened.
	Lines []string
	// Changes counts changed files across all steps.
	Changes   int
	Committed bool
	// Commit is the last commit made on the change branch.
	Commit      string
	Pushed      bool
	PullRequest *github.PullRequest
	// Existing is true when PullRequest was already open before the run.
	Existing bool
}

func (r *Result) report(format string, args ...interface{}) {
	r.Lines = append(r.Lines, fmt.Sprintf(format, args...))
}

// Workflow propagates template files and upgrades to repositories.
type Workflow struct {
	client github.APIClient
	opts   Options
}

// NewWorkflow creates a new workflow
func NewWorkflow(client github.APIClient, opts Options) *Workflow {
	return &Workflow{
		client: client,
		opts:   opts,
	}
}

// Run executes job against repo. Without apply nothing is committed, pushed
// or opened, but every change is still reported. The returned result is
// never nil and holds the lines reported before a failure.
func (w *Workflow) Run(ctx context.Context, repo github.Repository, job Job, apply bool) (*Result, error) {
	result := &Result{}
	base := repo.DefaultBranch

	wc, err := gitrepo.Open(w.opts.Workdir, repo.Name, w.cloneURL(repo), w.opts.Author)
	if err != nil {
		return result, err
	}

	klog.V(1).Infof("checking out %s of %s", job.Branch, repo.FullName)
	if err := wc.Checkout(ctx, base, job.Branch); err != nil {
		return result, fmt.Errorf("failed to check out %s: %w", job.Branch, err)
	}

	// Paths already counted by an earlier step. Without apply nothing is
	// committed between steps, so a path changed by both would show twice.
	seen := map[string]bool{}

	if job.Transform != nil {
		klog.V(1).Infof("running %s on %s", job.Transform.Name(), wc.Dir)
		if err := job.Transform.Apply(ctx, wc.Dir); err != nil {
			return result, err
		}
		if err := w.commitIfDirty(ctx, wc, job.UpgradeMessage, apply, seen, result); err != nil {
			return result, err
		}
	}

	if w.opts.TemplateDir != "" {
		if err := Overlay(w.opts.TemplateDir, wc.Dir); err != nil {
			return result, err
		}
		if err := w.commitIfDirty(ctx, wc, job.TemplateMessage, apply, seen, result); err != nil {
			return result, err
		}
	}

	if result.Changes == 0 {
		return result, nil
	}

	if apply {
		if err := wc.ForcePush(ctx, job.Branch); err != nil {
			return result, fmt.Errorf("failed to push %s: %w", job.Branch, err)
		}
		result.Pushed = true
		klog.V(1).Infof("pushed %s of %s at %s", job.Branch, repo.FullName, result.Commit)
	}

	return result, w.ensurePullRequest(ctx, repo, job, apply, result)
}

// commitIfDirty stages everything, reports each pending entry and commits
// when apply is set.
func (w *Workflow) commitIfDirty(ctx context.Context, wc *gitrepo.WorkingCopy, message string, apply bool, seen map[string]bool, result *Result) error {
	if err := wc.StageAll(ctx); err != nil {
		return err
	}
	entries, err := wc.Status(ctx)
	if err != nil {
		return err
	}

	count := 0
	for _, entry := range entries {
		if !apply {
			if seen[entry.Path] {
				continue
			}
			seen[entry.Path] = true
		}
		result.report("%s", entry.String())
		count++
	}
	if count == 0 {
		return nil
	}
	result.Changes += count

	if !apply {
		return nil
	}
	if err := wc.Commit(ctx, message); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	head, err := wc.Head(ctx)
	if err != nil {
		return err
	}
	result.Committed = true
	result.Commit = head
	return nil
}

func (w *Workflow) ensurePullRequest(ctx context.Context, repo github.Repository, job Job, apply bool, result *Result) error {
	open, err := w.client.ListOpenPullRequests(ctx, w.opts.Owner, repo.Name, job.Branch, repo.DefaultBranch)
	if err != nil {
		return err
	}
	if len(open) > 0 {
		result.PullRequest = &open[0]
		result.Existing = true
		result.report("pull request already open: %s", open[0].URL)
		return nil
	}

	result.report("%s", OpenPullRequestLine)
	if !apply {
		return nil
	}

	pr, err := w.client.CreatePullRequest(ctx, w.opts.Owner, repo.Name, github.NewPullRequest{
		Title: job.Title,
		Head:  job.Branch,
		Base:  repo.DefaultBranch,
		Body:  job.Body,
	})
	if err != nil {
		return err
	}
	result.PullRequest = pr

	if w.opts.ReviewLabel == "" {
		return nil
	}
	return w.client.AddLabels(ctx, w.opts.Owner, repo.Name, pr.Number, []string{w.opts.ReviewLabel})
}

func (w *Workflow) cloneURL(repo github.Repository) string {
	if w.opts.CloneProtocol == config.CloneProtocolSSH && repo.SSHURL != "" {
		return repo.SSHURL
	}
	return repo.CloneURL
}

// Overlay copies every file below src into dest, overwriting files with
// the same path. Files only present in dest are kept. Symlinks in src are
// skipped.
func Overlay(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to read template directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("template path %s is not a directory", src)
	}

	err = copy.Copy(src, dest, copy.Options{
		OnSymlink: func(link string) copy.SymlinkAction {
			klog.Warningf("ignoring symlink %s in template directory", link)
			return copy.Skip
		},
		OnDirExists: func(string, string) copy.DirExistsAction {
			return copy.Merge
		},
	})
	if err != nil {
		return fmt.Errorf("failed to copy templates into %s: %w", dest, err)
	}
	return nil
}
