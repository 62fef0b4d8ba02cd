// Package gitrepotest sets up git remotes for tests.
package gitrepotest

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// SetIdentity gives git commands run by the test a committer identity and
// keeps the user's global configuration out of the way.
func SetIdentity(t *testing.T) {
	t.Helper()
	t.Setenv("GIT_AUTHOR_NAME", "Test")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "Test")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@example.com")
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	t.Setenv("GIT_CONFIG_GLOBAL", os.DevNull)
}

// Git runs a git command in dir and fails the test on error.
func Git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

// Remote is a bare repository acting as origin.
type Remote struct {
	// URL can be passed to git clone.
	URL string
	// seed is a clone used to push commits.
	seed string
}

// NewRemote creates a bare repository whose branch holds files in one
// commit. Keys of files are slash-separated paths.
func NewRemote(t *testing.T, branch string, files map[string]string) *Remote {
	t.Helper()
	SetIdentity(t)

	root := t.TempDir()
	bare := filepath.Join(root, "remote.git")
	seed := filepath.Join(root, "seed")

	Git(t, root, "init", "--bare", bare)
	Git(t, bare, "symbolic-ref", "HEAD", "refs/heads/"+branch)
	Git(t, root, "init", seed)
	Git(t, seed, "checkout", "-b", branch)
	Git(t, seed, "remote", "add", "origin", bare)

	r := &Remote{URL: bare, seed: seed}
	r.Commit(t, branch, files, "initial commit")
	return r
}

// Commit writes files to branch of the remote in a new commit.
func (r *Remote) Commit(t *testing.T, branch string, files map[string]string, message string) {
	t.Helper()

	Git(t, r.seed, "checkout", "-B", branch)
	for path, content := range files {
		full := filepath.Join(r.seed, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	Git(t, r.seed, "add", "--all")
	Git(t, r.seed, "commit", "--allow-empty", "-m", message)
	Git(t, r.seed, "push", "-f", "origin", branch)
}

// Amend replaces the last commit of branch with one that also writes files
// and force-pushes it, so clones of the old history diverge from it.
func (r *Remote) Amend(t *testing.T, branch string, files map[string]string, message string) {
	t.Helper()

	Git(t, r.seed, "checkout", "-B", branch)
	Git(t, r.seed, "reset", "--hard", "origin/"+branch)
	for path, content := range files {
		full := filepath.Join(r.seed, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	Git(t, r.seed, "add", "--all")
	Git(t, r.seed, "commit", "--amend", "-m", message)
	Git(t, r.seed, "push", "-f", "origin", branch)
}

// Head returns the commit branch points to on the remote, or "" if the
// branch does not exist.
func (r *Remote) Head(t *testing.T, branch string) string {
	t.Helper()
	cmd := exec.Command("git", "rev-parse", "--verify", "--quiet", "refs/heads/"+branch)
	cmd.Dir = r.URL
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// File returns the content of path on branch of the remote.
func (r *Remote) File(t *testing.T, branch, path string) string {
	t.Helper()
	return Git(t, r.URL, "show", branch+":"+path)
}

// Log returns the commit subjects of branch, newest first.
func (r *Remote) Log(t *testing.T, branch string) []string {
	t.Helper()
	return strings.Split(Git(t, r.URL, "log", "--format=%s", branch), "\n")
}
