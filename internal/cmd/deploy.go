package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"repofleet/pkg/config"
	"repofleet/pkg/fleet"
	"repofleet/pkg/fuzzy"
	"repofleet/pkg/github"
	"repofleet/pkg/gitrepo"
	"repofleet/pkg/propagate"
	"repofleet/pkg/upgrade"
)

var (
	deployApply     bool
	deployRepos     []string
	deployUpgrade   string
	deployPick      bool
	deployOrg       string
	deployWorkdir   string
	deployCatalog   string
	deployTemplates string
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Bring the repositories of the organization to the catalog",
	Long: `Bring every repository of the organization to the catalog.

For each repository the labels, the settings and the protection of the
default branch are converged. Then the template files are overlaid onto a
local working copy and, if anything changed, a pull request is opened from
the change branch. With --upgrade the file format converter runs first and
the upgrade branch is used instead.

Without --apply only the planned changes are printed.

WARNING: the change branches are recreated from the default branch and
force-pushed on every applied run. Commits pushed to them by hand are lost.

Examples:
  # Show what would change in every repository
  repofleet deploy

  # Apply to two repositories
  repofleet deploy --apply --repos lib-a,lib-b

  # Upgrade the file format to a release and open pull requests
  repofleet deploy --apply --upgrade 1.3.0

  # Choose the repositories interactively
  repofleet deploy --pick`,
	RunE: runDeploy,
}

func init() {
	deployCmd.Flags().BoolVar(&deployApply, "apply", false, "Apply the changes instead of only printing them")
	deployCmd.Flags().StringSliceVar(&deployRepos, "repos", nil, "Only process these repositories (comma separated)")
	deployCmd.Flags().StringVar(&deployUpgrade, "upgrade", "", "Upgrade the file format to this version (semver or \"latest\")")
	deployCmd.Flags().BoolVar(&deployPick, "pick", false, "Choose the repositories interactively")
	deployCmd.Flags().StringVar(&deployOrg, "org", "", "Organization to administer (overrides the config)")
	deployCmd.Flags().StringVar(&deployWorkdir, "workdir", "", "Directory holding the working copies (overrides the config)")
	deployCmd.Flags().StringVar(&deployCatalog, "catalog", "", "Catalog file (overrides the config, default is the built-in catalog)")
	deployCmd.Flags().StringVar(&deployTemplates, "templates", "", "Template directory (overrides the catalog)")
}

func runDeploy(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if deployOrg != "" {
		cfg.Organization = deployOrg
	}
	if deployWorkdir != "" {
		cfg.Workdir = deployWorkdir
	}
	if deployUpgrade != "" {
		cfg.Upgrade.Version = deployUpgrade
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	catalogPath := cfg.Catalog
	if deployCatalog != "" {
		catalogPath = deployCatalog
	}
	c, err := loadCatalog(catalogPath, deployTemplates)
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}

	client, err := newAPIClient(ctx, cfg, out)
	if err != nil {
		return fmt.Errorf("failed to authenticate with GitHub: %w", err)
	}

	repos := deployRepos
	if deployPick {
		repos, err = pickRepositories(ctx, client, cfg.Organization)
		if err != nil {
			return err
		}
	}

	apply := deployApply || cfg.Apply
	if apply {
		fmt.Fprintf(out, "⚠️  Change branches are force-pushed. Commits made on them by hand are overwritten.\n")
	}

	workflow := propagate.NewWorkflow(client, propagate.Options{
		Owner:         cfg.Organization,
		Workdir:       cfg.Workdir,
		TemplateDir:   c.TemplateDir,
		ReviewLabel:   c.PullRequest.ReviewLabel,
		CloneProtocol: cfg.CloneProtocol,
		Author: gitrepo.Author{
			Name:  cfg.CommitAuthor.Name,
			Email: cfg.CommitAuthor.Email,
		},
	})
	orchestrator := fleet.NewOrchestrator(client, cfg.Organization, c, workflow, containerTransform(cfg.Upgrade))
	orchestrator.SetOutput(out)

	result, runErr := orchestrator.Run(ctx, fleet.Options{
		Apply:          apply,
		Repositories:   repos,
		UpgradeVersion: cfg.Upgrade.Version,
	})

	fmt.Fprintln(out)
	fleet.RenderSummary(out, result)
	displayResults(out, result, apply)

	return runErr
}

// containerTransform returns the factory for the configured converter image
func containerTransform(cfg config.UpgradeConfig) fleet.TransformFactory {
	return func(version string) (upgrade.Transform, error) {
		transform, err := upgrade.NewContainerTransform(cfg.Runtime, cfg.Image, version, cfg.Args)
		if err != nil {
			return nil, err
		}
		return transform, nil
	}
}

// pickRepositories lets the operator choose among the active repositories
func pickRepositories(ctx context.Context, client github.APIClient, org string) ([]string, error) {
	repos, err := client.ListRepositories(ctx, org)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}

	options := make([]fuzzy.Option, 0, len(repos))
	for _, repo := range repos {
		if repo.Archived {
			continue
		}
		options = append(options, fuzzy.Option{Value: repo.Name, Description: repo.FullName})
	}
	if len(options) == 0 {
		return nil, fmt.Errorf("no active repositories found in %s", org)
	}

	picker := newPicker(fmt.Sprintf("Select repositories of %s", org))
	if err := picker.SetOptions(options); err != nil {
		return nil, err
	}
	selected, err := picker.SelectMany()
	if err != nil {
		return nil, fmt.Errorf("failed to select repositories: %w", err)
	}
	return selected, nil
}

func displayResults(out io.Writer, result *fleet.Result, apply bool) {
	if result == nil {
		return
	}

	if len(result.Failed) > 0 {
		fmt.Fprintf(out, "\n❌ Failed repositories:\n")
		names := make([]string, 0, len(result.Failed))
		for name := range result.Failed {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(out, "  • %s: %v\n", name, result.Failed[name])
		}
	}

	if len(result.Skipped) > 0 {
		fmt.Fprintf(out, "\n⏭️  Skipped: %s\n", strings.Join(result.Skipped, ", "))
	}

	switch {
	case len(result.Failed) > 0:
		return
	case result.Summary.ChangeCount == 0:
		fmt.Fprintf(out, "\n✅ All repositories match the catalog\n")
	case apply:
		fmt.Fprintf(out, "\n✅ Applied %d changes\n", result.Summary.ChangeCount)
	default:
		fmt.Fprintf(out, "\n📊 %d changes planned. Run with --apply to make them.\n", result.Summary.ChangeCount)
	}
}
