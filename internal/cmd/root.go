package cmd

import (
	"context"
	goflag "flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

// configPath overrides the default configuration file
var configPath string

var rootCmd = &cobra.Command{
	Use:   "repofleet",
	Short: "Keep the repositories of a GitHub organization in shape",
	Long: `Repofleet administers every repository of a GitHub organization.

It converges issue labels, repository settings and the protection of the
default branch to a declared catalog, and propagates shared template files
(optionally after a file format upgrade) through pull requests.

Nothing is changed unless --apply is given.`,
	SilenceUsage: true,
}

// Execute runs the root command. Interrupting the process stops the run
// before the next repository.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	fs := goflag.NewFlagSet("", goflag.PanicOnError)
	klog.InitFlags(fs)
	rootCmd.PersistentFlags().AddGoFlagSet(fs)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default ~/.repofleet/config.yaml, else ./options.json; .toml is also accepted)")

	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(initCmd)
}

// commandContext returns the context of cmd, which is unset when a RunE
// function is called directly.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
