package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"repofleet/pkg/catalog"
	"repofleet/pkg/config"
)

var initCatalog string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize repofleet configuration",
	Long: `Create a default configuration file for repofleet.

With --catalog the built-in catalog is also written to the given path so it
can be edited and passed to deploy.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initCatalog, "catalog", "", "Also write the built-in catalog to this file")
}

func runInit(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	path := configPath
	if path == "" {
		var err error
		path, err = config.GetConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
	}

	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(out, "⚠️  Configuration file already exists at: %s\n", path)
		fmt.Fprint(out, "Do you want to overwrite it? (y/N): ")
		response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		response = strings.TrimSpace(response)
		if response != "y" && response != "Y" {
			fmt.Fprintln(out, "Configuration initialization cancelled.")
			return nil
		}
	}

	defaultConfig := &config.Config{}
	defaultConfig.ApplyDefaults()
	if initCatalog != "" {
		defaultConfig.Catalog = initCatalog
	}

	if err := defaultConfig.SaveConfigToPath(path); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	fmt.Fprintf(out, "✅ Configuration file created at: %s\n", path)

	if initCatalog != "" {
		if err := catalog.Default().WriteFile(initCatalog); err != nil {
			return fmt.Errorf("failed to write catalog: %w", err)
		}
		fmt.Fprintf(out, "✅ Catalog written to: %s\n", initCatalog)
	}

	fmt.Fprintln(out, "📝 Please edit the file to set your organization and GitHub token.")
	return nil
}
