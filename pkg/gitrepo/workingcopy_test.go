package gitrepo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repofleet/pkg/gitrepo/gitrepotest"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestWorkingCopy_CloneAndCheckout(t *testing.T) {
	remote := gitrepotest.NewRemote(t, "master", map[string]string{"README.md": "hello\n"})
	ctx := context.Background()

	wc, err := Open(t.TempDir(), "lib", remote.URL, Author{})
	require.NoError(t, err)
	assert.False(t, wc.Exists())

	require.NoError(t, wc.Checkout(ctx, "master", "ci/update-templates"))
	assert.True(t, wc.Exists())

	branch := gitrepotest.Git(t, wc.Dir, "rev-parse", "--abbrev-ref", "HEAD")
	assert.Equal(t, "ci/update-templates", branch)

	data, err := os.ReadFile(filepath.Join(wc.Dir, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))

	entries, err := wc.Status(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWorkingCopy_CheckoutDiscardsLeftovers(t *testing.T) {
	remote := gitrepotest.NewRemote(t, "master", map[string]string{"README.md": "hello\n"})
	ctx := context.Background()
	workdir := t.TempDir()

	wc, err := Open(workdir, "lib", remote.URL, Author{})
	require.NoError(t, err)
	require.NoError(t, wc.Checkout(ctx, "master", "ci/update-templates"))

	// Simulate an interrupted run: a local commit, a modified tracked file,
	// an untracked file and an ignored one.
	writeFile(t, wc.Dir, "committed.txt", "x")
	require.NoError(t, wc.StageAll(ctx))
	require.NoError(t, wc.Commit(ctx, "leftover"))
	writeFile(t, wc.Dir, "README.md", "changed\n")
	writeFile(t, wc.Dir, "untracked.txt", "y")

	remote.Commit(t, "master", map[string]string{"NEW.md": "new\n"}, "second commit")

	wc, err = Open(workdir, "lib", remote.URL, Author{})
	require.NoError(t, err)
	require.NoError(t, wc.Checkout(ctx, "master", "ci/update-templates"))

	head, err := wc.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, remote.Head(t, "master"), head)

	data, err := os.ReadFile(filepath.Join(wc.Dir, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))

	assert.NoFileExists(t, filepath.Join(wc.Dir, "committed.txt"))
	assert.NoFileExists(t, filepath.Join(wc.Dir, "untracked.txt"))
	assert.FileExists(t, filepath.Join(wc.Dir, "NEW.md"))
}

func TestWorkingCopy_CheckoutFollowsRewrittenBase(t *testing.T) {
	remote := gitrepotest.NewRemote(t, "master", map[string]string{"README.md": "hello\n"})
	ctx := context.Background()
	workdir := t.TempDir()

	wc, err := Open(workdir, "lib", remote.URL, Author{})
	require.NoError(t, err)
	require.NoError(t, wc.Checkout(ctx, "master", "ci/update-templates"))

	// A local commit on the base branch that origin never had.
	gitrepotest.Git(t, wc.Dir, "checkout", "master")
	writeFile(t, wc.Dir, "local.txt", "local\n")
	require.NoError(t, wc.StageAll(ctx))
	require.NoError(t, wc.Commit(ctx, "local only"))

	remote.Amend(t, "master", map[string]string{"README.md": "rewritten\n"}, "rewritten history")

	require.NoError(t, wc.Checkout(ctx, "master", "ci/update-templates"))

	head, err := wc.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, remote.Head(t, "master"), head)
	assert.Equal(t, remote.Head(t, "master"), gitrepotest.Git(t, wc.Dir, "rev-parse", "master"))

	data, err := os.ReadFile(filepath.Join(wc.Dir, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "rewritten\n", string(data))
	assert.NoFileExists(t, filepath.Join(wc.Dir, "local.txt"))
}

func TestWorkingCopy_RecoversFromIncompleteClone(t *testing.T) {
	remote := gitrepotest.NewRemote(t, "master", map[string]string{"README.md": "hello\n"})
	workdir := t.TempDir()
	writeFile(t, workdir, "lib/partial", "junk")

	wc, err := Open(workdir, "lib", remote.URL, Author{})
	require.NoError(t, err)
	require.NoError(t, wc.Checkout(context.Background(), "master", "topic"))

	assert.NoFileExists(t, filepath.Join(wc.Dir, "partial"))
	assert.FileExists(t, filepath.Join(wc.Dir, "README.md"))
}

func TestWorkingCopy_CommitAndForcePush(t *testing.T) {
	remote := gitrepotest.NewRemote(t, "master", map[string]string{"README.md": "hello\n", "old.txt": "old\n"})
	ctx := context.Background()

	wc, err := Open(t.TempDir(), "lib", remote.URL, Author{Name: "Fleet Bot", Email: "bot@example.com"})
	require.NoError(t, err)
	require.NoError(t, wc.Checkout(ctx, "master", "topic"))

	writeFile(t, wc.Dir, "README.md", "updated\n")
	writeFile(t, wc.Dir, "docs/new.md", "new\n")
	require.NoError(t, os.Remove(filepath.Join(wc.Dir, "old.txt")))

	require.NoError(t, wc.StageAll(ctx))
	entries, err := wc.Status(ctx)
	require.NoError(t, err)

	var lines []string
	for _, e := range entries {
		lines = append(lines, e.String())
	}
	assert.ElementsMatch(t, []string{"M  README.md", "A  docs/new.md", "D  old.txt"}, lines)

	require.NoError(t, wc.Commit(ctx, "Update files"))
	require.NoError(t, wc.ForcePush(ctx, "topic"))

	assert.Equal(t, []string{"Update files", "initial commit"}, remote.Log(t, "topic"))
	assert.Equal(t, "updated", remote.File(t, "topic", "README.md"))
	assert.Equal(t, "Fleet Bot <bot@example.com>", gitrepotest.Git(t, remote.URL, "log", "-1", "--format=%an <%ae>", "topic"))

	// The branch is rebuilt from master on the next run and pushed over
	// the previous history.
	require.NoError(t, wc.Checkout(ctx, "master", "topic"))
	writeFile(t, wc.Dir, "README.md", "rebuilt\n")
	require.NoError(t, wc.StageAll(ctx))
	require.NoError(t, wc.Commit(ctx, "Rebuilt"))
	require.NoError(t, wc.ForcePush(ctx, "topic"))

	assert.Equal(t, []string{"Rebuilt", "initial commit"}, remote.Log(t, "topic"))
}

func TestWorkingCopy_CheckoutUnknownBase(t *testing.T) {
	remote := gitrepotest.NewRemote(t, "master", map[string]string{"README.md": "hello\n"})

	wc, err := Open(t.TempDir(), "lib", remote.URL, Author{})
	require.NoError(t, err)

	err = wc.Checkout(context.Background(), "does-not-exist", "topic")
	require.Error(t, err)

	var execErr *GitExecError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, []string{"checkout", "does-not-exist"}, execErr.Args)
	assert.Contains(t, err.Error(), "git checkout does-not-exist")
}

func TestGitExecError(t *testing.T) {
	cause := errors.New("exit status 128")
	err := &GitExecError{Args: []string{"push", "-f", "origin", "x"}, Err: cause, Stderr: "fatal: denied\n"}

	assert.Equal(t, "git push -f origin x: exit status 128: fatal: denied", err.Error())
	assert.ErrorIs(t, err, cause)
}
