package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"repofleet/pkg/config"
	"repofleet/pkg/github"
)

// resetFlags restores the package level flag values after the test.
func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		configPath = ""
		deployApply = false
		deployRepos = nil
		deployUpgrade = ""
		deployPick = false
		deployOrg = ""
		deployWorkdir = ""
		deployCatalog = ""
		deployTemplates = ""
		validateCatalog = ""
		validateOnline = false
		initCatalog = ""
	})
}

// writeConfig writes a configuration for organization "org" and points
// --config at it.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	configPath = path
	return path
}

// useClient makes authentication return client. The returned counter holds
// the number of authentications.
func useClient(t *testing.T, client github.APIClient) *int {
	t.Helper()
	calls := 0
	previous := newAPIClient
	newAPIClient = func(_ context.Context, _ *config.Config, _ io.Writer) (github.APIClient, error) {
		calls++
		return client, nil
	}
	t.Cleanup(func() { newAPIClient = previous })
	return &calls
}

// testCommand captures the output of cmd and feeds it input.
func testCommand(t *testing.T, cmd *cobra.Command, input string) *bytes.Buffer {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetIn(bytes.NewBufferString(input))
	t.Cleanup(func() {
		cmd.SetOut(nil)
		cmd.SetIn(nil)
	})
	return out
}
