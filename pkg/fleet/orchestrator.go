package fleet

import (
	"context"
	"fmt"
	"io"
	"os"

	"k8s.io/klog/v2"

	"repofleet/pkg/catalog"
	"repofleet/pkg/github"
	"repofleet/pkg/propagate"
	"repofleet/pkg/upgrade"
)

// Options are the per-run settings.
type Options struct {
	Apply bool
	// Repositories limits the run to the named repositories. Empty means
	// every repository of the organization.
	Repositories []string
	// UpgradeVersion selects the upgrade job when set.
	UpgradeVersion string
}

// Result contains the outcome of a run.
type Result struct {
	Succeeded []string         `json:"succeeded"`
	Failed    map[string]error `json:"failed"`
	Skipped   []string         `json:"skipped"`
	Reports   []*Report        `json:"-"`
	Summary   Summary          `json:"summary"`
}

// Workflow propagates files into one repository.
type Workflow interface {
	Run(ctx context.Context, repo github.Repository, job propagate.Job, apply bool) (*propagate.Result, error)
}

// TransformFactory creates the upgrade transform for a version.
type TransformFactory func(version string) (upgrade.Transform, error)

// Orchestrator brings the repositories of one organization to the catalog.
type Orchestrator struct {
	client       github.APIClient
	owner        string
	catalog      *catalog.Catalog
	workflow     Workflow
	newTransform TransformFactory
	out          io.Writer
}

// NewOrchestrator creates a new orchestrator. newTransform may be nil when
// no upgrades are run.
func NewOrchestrator(client github.APIClient, owner string, c *catalog.Catalog, workflow Workflow, newTransform TransformFactory) *Orchestrator {
	return &Orchestrator{
		client:       client,
		owner:        owner,
		catalog:      c,
		workflow:     workflow,
		newTransform: newTransform,
		out:          os.Stdout,
	}
}

// SetOutput sets the writer the report is printed to.
func (o *Orchestrator) SetOutput(out io.Writer) {
	o.out = out
}

// Run processes every selected repository. When a repository fails the
// error is recorded and the run continues; the returned error is then a
// *RunError. Other errors mean the run could not start or was cancelled.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Result, error) {
	result := &Result{
		Succeeded: make([]string, 0),
		Failed:    make(map[string]error),
		Skipped:   make([]string, 0),
	}

	job, err := o.job(opts.UpgradeVersion)
	if err != nil {
		return result, err
	}

	repos, err := o.client.ListRepositories(ctx, o.owner)
	if err != nil {
		return result, fmt.Errorf("failed to list repositories: %w", err)
	}

	selected, missing := getRepositoriesToProcess(repos, opts.Repositories)
	for _, name := range missing {
		fmt.Fprintf(o.out, "⚠️  Repository %s not found in %s\n", name, o.owner)
		result.Skipped = append(result.Skipped, name)
	}

	if opts.Apply {
		fmt.Fprintf(o.out, "📋 Applying changes to %d repositories of %s\n", len(selected), o.owner)
	} else {
		fmt.Fprintf(o.out, "🔍 Dry-run mode: showing changes for %d repositories of %s\n", len(selected), o.owner)
	}

	for _, repo := range selected {
		if err := ctx.Err(); err != nil {
			o.summarize(result)
			return result, err
		}

		if repo.Archived {
			fmt.Fprintf(o.out, "\n⏭️  %s: archived, skipping\n", repo.Name)
			result.Skipped = append(result.Skipped, repo.Name)
			continue
		}

		fmt.Fprintf(o.out, "\n%s:\n", repo.Name)
		report := o.processRepository(ctx, repo, job, opts.Apply)
		result.Reports = append(result.Reports, report)

		if report.Err != nil {
			klog.V(1).Infof("repository %s failed: %v", repo.Name, report.Err)
			fmt.Fprintf(o.out, "  ❌ %v\n", report.Err)
			result.Failed[repo.Name] = report.Err
			continue
		}
		if report.Total() == 0 {
			fmt.Fprintf(o.out, "  ✓ up to date\n")
		}
		result.Succeeded = append(result.Succeeded, repo.Name)
	}

	o.summarize(result)
	if len(result.Failed) > 0 {
		return result, &RunError{Failed: result.Failed, Total: len(result.Reports)}
	}
	return result, nil
}

// job returns the propagation job for the run.
func (o *Orchestrator) job(version string) (propagate.Job, error) {
	pr := o.catalog.PullRequest
	if version == "" {
		return propagate.Job{
			Branch:          pr.TemplateBranch,
			Title:           pr.TemplateTitle,
			Body:            pr.TemplateBody,
			TemplateMessage: pr.TemplateCommitMessage,
		}, nil
	}

	if o.newTransform == nil {
		return propagate.Job{}, fmt.Errorf("upgrade to %s requested but no upgrade runner is configured", version)
	}
	transform, err := o.newTransform(version)
	if err != nil {
		return propagate.Job{}, err
	}
	return propagate.Job{
		Branch:          pr.UpgradeBranch,
		Title:           catalog.UpgradeText(pr.UpgradeTitle, version),
		Body:            catalog.UpgradeText(pr.UpgradeBody, version),
		Transform:       transform,
		UpgradeMessage:  catalog.UpgradeText(pr.UpgradeCommitMessage, version),
		TemplateMessage: pr.TemplateCommitMessage,
	}, nil
}

// processRepository runs every step for repo and stops at the first error,
// which is stored in the report.
func (o *Orchestrator) processRepository(ctx context.Context, repo github.Repository, job propagate.Job, apply bool) *Report {
	report := &Report{Repository: repo.Name}

	reconcilers := []github.ResourceReconciler{
		github.NewLabelReconciler(o.client, o.owner, o.catalog.Labels),
		github.NewSettingsReconciler(o.client, o.owner, o.catalog.Settings),
		github.NewBranchProtectionReconciler(o.client, o.owner, o.catalog.Settings.DefaultBranch, o.catalog.BranchProtection),
	}

	for _, r := range reconcilers {
		plan, err := r.Plan(ctx, repo)
		if err != nil {
			report.Err = fmt.Errorf("%s: %w", r.Kind(), err)
			return report
		}

		lines := make([]string, 0, len(plan.Changes))
		for _, change := range plan.Changes {
			lines = append(lines, change.String())
		}
		section := Section{Kind: r.Kind(), Lines: lines}
		report.add(section.Kind, section.Lines)
		printSection(o.out, section)

		if !apply {
			continue
		}
		if err := plan.Apply(ctx); err != nil {
			report.Err = fmt.Errorf("%s: %w", r.Kind(), err)
			return report
		}
		if r.Kind() == github.KindSettings {
			repo.DefaultBranch = o.catalog.Settings.DefaultBranch
		}
	}

	if o.workflow == nil {
		return report
	}

	res, err := o.workflow.Run(ctx, repo, job, apply)
	if res != nil {
		section := Section{Kind: KindFiles, Lines: res.Lines}
		report.add(section.Kind, section.Lines)
		printSection(o.out, section)
		if res.PullRequest != nil {
			report.PullRequest = res.PullRequest.URL
		}
	}
	if err != nil {
		report.Err = fmt.Errorf("%s: %w", KindFiles, err)
	}
	return report
}

func (o *Orchestrator) summarize(result *Result) {
	result.Summary = Summary{
		TotalRepositories: len(result.Reports) + len(result.Skipped),
		SuccessCount:      len(result.Succeeded),
		FailureCount:      len(result.Failed),
		SkippedCount:      len(result.Skipped),
	}
	for _, r := range result.Reports {
		result.Summary.ChangeCount += r.Total()
		if r.PullRequest != "" {
			result.Summary.PullRequestCount++
		}
	}
}

// getRepositoriesToProcess applies the filter to repos, keeping the listing
// order. It also returns the filter names that matched no repository.
func getRepositoriesToProcess(repos []github.Repository, filter []string) ([]github.Repository, []string) {
	if len(filter) == 0 {
		return repos, nil
	}

	includeSet := make(map[string]bool)
	for _, name := range filter {
		includeSet[name] = true
	}

	found := make(map[string]bool)
	var selected []github.Repository
	for _, repo := range repos {
		if includeSet[repo.Name] {
			selected = append(selected, repo)
			found[repo.Name] = true
		}
	}

	var missing []string
	for _, name := range filter {
		if !found[name] {
			missing = append(missing, name)
			found[name] = true
		}
	}
	return selected, missing
}
