package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	validateCatalog string
	validateOnline  bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and the catalog",
	Long: `Check the configuration and the catalog without changing anything.

With --online the GitHub token is also verified and the organization is
listed.

Examples:
  # Check the default configuration and the built-in catalog
  repofleet validate

  # Check a catalog file and the token
  repofleet validate --catalog catalog.yaml --online`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateCatalog, "catalog", "", "Catalog file (overrides the config)")
	validateCmd.Flags().BoolVar(&validateOnline, "online", false, "Also verify the token and the organization")
}

func runValidate(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "🔍 Validating configuration\n")
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(out, "❌ %v\n", err)
		return err
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "❌ Configuration is invalid: %v\n", err)
		return fmt.Errorf("invalid configuration: %w", err)
	}
	fmt.Fprintf(out, "✓ Organization: %s\n", cfg.Organization)
	fmt.Fprintf(out, "✓ Working copies: %s\n", cfg.Workdir)

	catalogPath := cfg.Catalog
	if validateCatalog != "" {
		catalogPath = validateCatalog
	}
	c, err := loadCatalog(catalogPath, "")
	if err != nil {
		fmt.Fprintf(out, "❌ %v\n", err)
		return err
	}
	if err := c.Validate(); err != nil {
		fmt.Fprintf(out, "❌ Catalog is invalid:\n%v\n", err)
		return fmt.Errorf("invalid catalog: %w", err)
	}
	if catalogPath == "" {
		catalogPath = "built-in"
	}
	fmt.Fprintf(out, "✓ Catalog (%s): %d labels, default branch %s\n", catalogPath, len(c.Labels), c.Settings.DefaultBranch)
	if c.TemplateDir == "" {
		fmt.Fprintf(out, "⚠️  No template directory set, files are not propagated\n")
	} else {
		fmt.Fprintf(out, "✓ Templates: %s\n", c.TemplateDir)
	}

	if validateOnline {
		ctx := commandContext(cmd)
		client, err := newAPIClient(ctx, cfg, out)
		if err != nil {
			return fmt.Errorf("failed to authenticate with GitHub: %w", err)
		}
		repos, err := client.ListRepositories(ctx, cfg.Organization)
		if err != nil {
			fmt.Fprintf(out, "❌ Cannot list repositories of %s: %v\n", cfg.Organization, err)
			return fmt.Errorf("failed to list repositories: %w", err)
		}
		fmt.Fprintf(out, "✓ %d repositories in %s\n", len(repos), cfg.Organization)
	}

	fmt.Fprintf(out, "✅ Validation passed\n")
	return nil
}
