package fleet

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repofleet/pkg/catalog"
	"repofleet/pkg/github/fake"
	"repofleet/pkg/gitrepo/gitrepotest"
	"repofleet/pkg/propagate"
)

// TestRun_EndToEnd runs the whole pipeline against a fake organization
// whose repository is backed by a local git remote.
func TestRun_EndToEnd(t *testing.T) {
	remote := gitrepotest.NewRemote(t, "master", map[string]string{"README.md": "old\n"})

	client := fake.NewClient("org")
	r := client.AddRepo("lib", "master")
	r.CloneURL = remote.URL

	templates := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(templates, "README.md"), []byte("new\n"), 0644))

	c := catalog.Default()
	workflow := propagate.NewWorkflow(client, propagate.Options{
		Owner:       "org",
		Workdir:     t.TempDir(),
		TemplateDir: templates,
		ReviewLabel: c.PullRequest.ReviewLabel,
	})
	o := NewOrchestrator(client, "org", c, workflow, nil)
	out := &bytes.Buffer{}
	o.SetOutput(out)

	result, err := o.Run(context.Background(), Options{Apply: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"lib"}, result.Succeeded)
	assert.Equal(t, "new", remote.File(t, c.PullRequest.TemplateBranch, "README.md"))
	require.Len(t, r.PullRequests, 1)
	assert.Equal(t, []string{"ready for review"}, r.PullRequestLabels[r.PullRequests[0].Number])
	assert.Equal(t, r.PullRequests[0].URL, result.Reports[0].PullRequest)

	// The second run finds everything in place and reuses the pull request.
	client.ResetCalls()
	result, err = o.Run(context.Background(), Options{Apply: true})
	require.NoError(t, err)

	assert.Len(t, r.PullRequests, 1)
	assert.Empty(t, client.Calls)
	assert.Empty(t, result.Reports[0].Lines("labels"))
	assert.Contains(t, result.Reports[0].Lines(KindFiles), "pull request already open: "+r.PullRequests[0].URL)
}
