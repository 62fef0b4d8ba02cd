package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"repofleet/pkg/catalog"
	"repofleet/pkg/config"
	"repofleet/pkg/fuzzy"
	"repofleet/pkg/github"
)

// newAPIClient authenticates and returns the GitHub client. Tests replace it.
var newAPIClient = func(ctx context.Context, cfg *config.Config, out io.Writer) (github.APIClient, error) {
	authManager := github.NewAuthManager()
	tokenInfo, err := authManager.AuthenticateFromConfig(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Authentication failed: %v\n\n", err)
		fmt.Fprintf(os.Stderr, "%s\n", github.GetAuthInstructions())
		return nil, err
	}

	fmt.Fprintf(out, "✓ Authenticated as %s\n", tokenInfo.User)
	return github.NewClient(authManager.Token()), nil
}

// newPicker creates the interactive repository picker. Tests replace it.
var newPicker = fuzzy.NewPicker

// loadConfig reads the file given with --config or the default one.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadConfigFromPath(configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load repofleet config: %w", err)
	}
	return cfg, nil
}

// loadCatalog returns the catalog named in the configuration or the
// built-in one. templates overrides the template directory when set.
func loadCatalog(path, templates string) (*catalog.Catalog, error) {
	c := catalog.Default()
	if path != "" {
		var err error
		c, err = catalog.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
	}
	if templates != "" {
		c.TemplateDir = templates
	}
	return c, nil
}
