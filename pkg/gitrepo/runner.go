package gitrepo

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"k8s.io/klog/v2"
)

// Runner runs git commands in a local directory.
type Runner struct {
	// Path to the git executable.
	gitPath string

	// Dir is the directory the commands are run in.
	Dir string

	// Env holds "KEY=value" pairs added to the environment of every
	// command. They win over the inherited environment.
	Env []string
}

// RunResult holds the output of a git command.
type RunResult struct {
	Stdout string
	Stderr string
}

// NewRunner returns a Runner for dir. It fails if no git executable is on
// the PATH.
func NewRunner(dir string) (*Runner, error) {
	p, err := exec.LookPath("git")
	if err != nil {
		return nil, fmt.Errorf("no 'git' program on path: %w", err)
	}

	return &Runner{
		gitPath: p,
		Dir:     dir,
	}, nil
}

// Run runs a git command.
// Omit the 'git' part of the command.
func (r *Runner) Run(ctx context.Context, args ...string) (RunResult, error) {
	klog.V(3).Infof("git %s (in %s)", strings.Join(args, " "), r.Dir)

	cmd := exec.CommandContext(ctx, r.gitPath, args...)
	cmd.Dir = r.Dir
	// Never wait for credentials on a terminal.
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	cmd.Env = append(cmd.Env, r.Env...)

	cmdStdout := &bytes.Buffer{}
	cmdStderr := &bytes.Buffer{}
	cmd.Stdout = cmdStdout
	cmd.Stderr = cmdStderr

	if err := cmd.Run(); err != nil {
		return RunResult{}, &GitExecError{
			Args:   args,
			Err:    err,
			Stdout: cmdStdout.String(),
			Stderr: cmdStderr.String(),
		}
	}

	return RunResult{
		Stdout: cmdStdout.String(),
		Stderr: cmdStderr.String(),
	}, nil
}

// GitExecError is returned when a git command exits unsuccessfully.
type GitExecError struct {
	Args   []string
	Err    error
	Stdout string
	Stderr string
}

func (e *GitExecError) Error() string {
	b := new(strings.Builder)
	b.WriteString("git ")
	b.WriteString(strings.Join(e.Args, " "))
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		b.WriteString(": ")
		b.WriteString(stderr)
	}
	return b.String()
}

func (e *GitExecError) Unwrap() error {
	return e.Err
}
