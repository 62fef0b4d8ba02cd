package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repofleet/pkg/config"
	"repofleet/pkg/fleet"
	"repofleet/pkg/fuzzy"
	"repofleet/pkg/github/fake"
	"repofleet/pkg/gitrepo/gitrepotest"
)

// deployFixture is an organization "org" whose repositories are backed by
// local git remotes.
type deployFixture struct {
	client  *fake.Client
	remotes map[string]*gitrepotest.Remote
}

func newDeployFixture(t *testing.T, names ...string) *deployFixture {
	t.Helper()
	resetFlags(t)

	f := &deployFixture{client: fake.NewClient("org"), remotes: map[string]*gitrepotest.Remote{}}
	for _, name := range names {
		remote := gitrepotest.NewRemote(t, "master", map[string]string{"README.md": "old\n"})
		repo := f.client.AddRepo(name, "master")
		repo.CloneURL = remote.URL
		f.remotes[name] = remote
	}

	writeConfig(t, fmt.Sprintf("organization: org\nworkdir: %s\n", t.TempDir()))
	useClient(t, f.client)
	return f
}

func TestDeploy_DryRun(t *testing.T) {
	f := newDeployFixture(t, "lib")
	out := testCommand(t, deployCmd, "")

	require.NoError(t, runDeploy(deployCmd, nil))

	output := out.String()
	assert.Contains(t, output, "🔍 Dry-run mode")
	assert.Contains(t, output, `  • ADD label "bug"`)
	assert.Contains(t, output, `  • PROTECT branch "master"`)
	assert.Contains(t, output, "REPOSITORY")
	assert.Contains(t, output, "Run with --apply")
	assert.NotContains(t, output, "force-pushed")
	assert.Empty(t, f.client.Calls)
}

func TestDeploy_ApplyWithTemplates(t *testing.T) {
	f := newDeployFixture(t, "lib")
	templates := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(templates, "README.md"), []byte("new\n"), 0644))
	deployApply = true
	deployTemplates = templates
	out := testCommand(t, deployCmd, "")

	require.NoError(t, runDeploy(deployCmd, nil))

	repo := f.client.Repo("lib")
	assert.Len(t, repo.Labels, 6)
	assert.True(t, repo.Branches["master"])
	require.Len(t, repo.PullRequests, 1)
	assert.Equal(t, "ci/update-templates", repo.PullRequests[0].Head)
	assert.Equal(t, "new", f.remotes["lib"].File(t, "ci/update-templates", "README.md"))

	output := out.String()
	assert.Contains(t, output, "force-pushed")
	assert.Contains(t, output, "📋 Applying changes")
	assert.Contains(t, output, "✅ Applied")
}

func TestDeploy_RepositoryFilter(t *testing.T) {
	f := newDeployFixture(t, "a", "b")
	deployApply = true
	deployRepos = []string{"b", "missing"}
	out := testCommand(t, deployCmd, "")

	require.NoError(t, runDeploy(deployCmd, nil))

	assert.Empty(t, f.client.Repo("a").Labels)
	assert.Len(t, f.client.Repo("b").Labels, 6)
	assert.Contains(t, out.String(), "⚠️  Repository missing not found in org")
	assert.Contains(t, out.String(), "⏭️  Skipped: missing")
}

func TestDeploy_Failure(t *testing.T) {
	f := newDeployFixture(t, "a", "b")
	f.client.Errors["ListLabels a"] = errors.New("boom")
	out := testCommand(t, deployCmd, "")

	err := runDeploy(deployCmd, nil)

	var runErr *fleet.RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, "1 of 2 repositories failed: a", err.Error())
	assert.Contains(t, out.String(), "❌ Failed repositories:")
	assert.Contains(t, out.String(), "  • a: labels: failed to list labels: boom")
}

func TestDeploy_InvalidInputStopsBeforeAuthentication(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T)
		wantErr string
	}{
		{
			name:    "upgrade version",
			setup:   func(*testing.T) { deployUpgrade = "one" },
			wantErr: "invalid upgrade version",
		},
		{
			name: "catalog",
			setup: func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "catalog.yaml")
				require.NoError(t, os.WriteFile(path, []byte("labels:\n  - name: bug\n    color: red\n"), 0644))
				deployCatalog = path
			},
			wantErr: "invalid catalog",
		},
		{
			name:    "missing catalog",
			setup:   func(*testing.T) { deployCatalog = "/nonexistent/catalog.yaml" },
			wantErr: "failed to read catalog file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags(t)
			writeConfig(t, "organization: org\n")
			calls := useClient(t, fake.NewClient("org"))
			tt.setup(t)

			err := runDeploy(deployCmd, nil)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, 0, *calls)
		})
	}
}

type stubPicker struct {
	options  []fuzzy.Option
	selected []string
}

func (p *stubPicker) SetOptions(options []fuzzy.Option) error {
	p.options = options
	return nil
}

func (p *stubPicker) SelectMany() ([]string, error) {
	return p.selected, nil
}

func TestDeploy_Pick(t *testing.T) {
	f := newDeployFixture(t, "a", "b")
	f.client.AddRepo("old", "master").Archived = true

	picker := &stubPicker{selected: []string{"b"}}
	previous := newPicker
	newPicker = func(string) fuzzy.Picker { return picker }
	t.Cleanup(func() { newPicker = previous })

	deployPick = true
	deployApply = true
	testCommand(t, deployCmd, "")

	require.NoError(t, runDeploy(deployCmd, nil))

	assert.Equal(t, []fuzzy.Option{
		{Value: "a", Description: "org/a"},
		{Value: "b", Description: "org/b"},
	}, picker.options)
	assert.Empty(t, f.client.Repo("a").Labels)
	assert.Len(t, f.client.Repo("b").Labels, 6)
}

func TestContainerTransform(t *testing.T) {
	factory := containerTransform(config.UpgradeConfig{Runtime: "podman", Image: "example/converter"})

	transform, err := factory("1.3.0")
	require.NoError(t, err)
	assert.Equal(t, "example/converter:1.3.0", transform.Name())
}
