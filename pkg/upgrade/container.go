// Package upgrade runs the file format converter over a working copy.
package upgrade

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/shlex"
	"k8s.io/klog/v2"
)

const (
	dockerBin          = "docker"
	defaultLongTimeout = 30 * time.Minute

	// mountPoint is where the working copy appears inside the container
	mountPoint = "/work"
)

// Transform mutates the files of a working copy in place.
type Transform interface {
	// Name identifies the transform in reports.
	Name() string
	Apply(ctx context.Context, dir string) error
}

// ContainerTransform runs a container image with the working copy mounted
// at /work. The image tag selects the converter version.
type ContainerTransform struct {
	// Runtime is the container CLI. Defaults to docker.
	Runtime string
	Image   string
	Version string
	Args    []string
	// UIDGID is the user the container runs as, in format uid:gid. It
	// defaults to the current user so converted files stay writable.
	UIDGID string
	// Timeout kills the container. The default is 30 minutes.
	Timeout time.Duration
}

var _ Transform = &ContainerTransform{}

// NewContainerTransform creates a transform for image:version. args is
// split like a shell would.
func NewContainerTransform(runtime, image, version, args string) (*ContainerTransform, error) {
	if image == "" {
		return nil, fmt.Errorf("upgrade image is required")
	}
	if version == "" {
		return nil, fmt.Errorf("upgrade version is required")
	}

	s, err := shlex.Split(args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse upgrade arguments %q: %w", args, err)
	}

	return &ContainerTransform{
		Runtime: runtime,
		Image:   image,
		Version: version,
		Args:    s,
	}, nil
}

// Name implements Transform
func (t *ContainerTransform) Name() string {
	return t.Image + ":" + t.Version
}

// Command returns the runtime binary and its arguments for dir.
func (t *ContainerTransform) Command(dir string) (string, []string) {
	runtime := t.Runtime
	if runtime == "" {
		runtime = dockerBin
	}
	uidgid := t.UIDGID
	if uidgid == "" {
		uidgid = fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid())
	}

	args := []string{
		"run", "--rm",
		"--user", uidgid,
		"-v", dir + ":" + mountPoint,
		"-w", mountPoint,
		t.Name(),
	}
	return runtime, append(args, t.Args...)
}

// Apply implements Transform. A non-zero exit is returned as ProcessError.
func (t *ContainerTransform) Apply(ctx context.Context, dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	timeout := defaultLongTimeout
	if t.Timeout != 0 {
		timeout = t.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	bin, args := t.Command(abs)
	klog.V(2).Infof("running %s %s", bin, strings.Join(args, " "))

	errSink := bytes.Buffer{}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &errSink
	cmd.Stderr = &errSink

	if err := cmd.Run(); err != nil {
		procErr := &ProcessError{
			Image:    t.Name(),
			ExitCode: -1,
			Err:      err,
			Output:   errSink.String(),
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			procErr.ExitCode = exitErr.ExitCode()
		}
		return procErr
	}

	klog.V(4).Infof("%s output:\n%s", t.Name(), errSink.String())
	return nil
}

// ProcessError is returned when the converter could not be run or exited
// unsuccessfully.
type ProcessError struct {
	Image    string
	ExitCode int
	Err      error
	// Output is the combined stdout and stderr of the process.
	Output string
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("upgrade with %s failed: %v", e.Image, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}
