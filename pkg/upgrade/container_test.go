package upgrade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContainerTransform(t *testing.T) {
	tr, err := NewContainerTransform("", "librepcb/librepcb-cli", "1.0.0", `open-library --all --save "/work/my lib"`)
	require.NoError(t, err)

	assert.Equal(t, "librepcb/librepcb-cli:1.0.0", tr.Name())
	assert.Equal(t, []string{"open-library", "--all", "--save", "/work/my lib"}, tr.Args)
}

func TestNewContainerTransform_Errors(t *testing.T) {
	_, err := NewContainerTransform("", "", "1.0.0", "")
	assert.Error(t, err)

	_, err = NewContainerTransform("", "image", "", "")
	assert.Error(t, err)

	_, err = NewContainerTransform("", "image", "1.0.0", `unterminated "quote`)
	assert.Error(t, err)
}

func TestContainerTransform_Command(t *testing.T) {
	tr := &ContainerTransform{
		Image:   "librepcb/librepcb-cli",
		Version: "latest",
		Args:    []string{"open-library", "--all", "--save", "/work"},
		UIDGID:  "1000:1000",
	}

	bin, args := tr.Command("/tmp/lib")

	assert.Equal(t, "docker", bin)
	assert.Equal(t, []string{
		"run", "--rm",
		"--user", "1000:1000",
		"-v", "/tmp/lib:/work",
		"-w", "/work",
		"librepcb/librepcb-cli:latest",
		"open-library", "--all", "--save", "/work",
	}, args)

	tr.Runtime = "podman"
	bin, _ = tr.Command("/tmp/lib")
	assert.Equal(t, "podman", bin)
}

func TestContainerTransform_ApplySuccess(t *testing.T) {
	tr := &ContainerTransform{Runtime: "true", Image: "img", Version: "1"}

	assert.NoError(t, tr.Apply(context.Background(), t.TempDir()))
}

func TestContainerTransform_ApplyFailure(t *testing.T) {
	tr := &ContainerTransform{Runtime: "false", Image: "img", Version: "1"}

	err := tr.Apply(context.Background(), t.TempDir())
	require.Error(t, err)

	var procErr *ProcessError
	require.True(t, errors.As(err, &procErr))
	assert.Equal(t, "img:1", procErr.Image)
	assert.Equal(t, 1, procErr.ExitCode)
	assert.Contains(t, err.Error(), "upgrade with img:1 failed")
}

func TestContainerTransform_MissingRuntime(t *testing.T) {
	tr := &ContainerTransform{Runtime: "repofleet-no-such-runtime", Image: "img", Version: "1", Timeout: time.Second}

	err := tr.Apply(context.Background(), t.TempDir())

	var procErr *ProcessError
	require.True(t, errors.As(err, &procErr))
	assert.Equal(t, -1, procErr.ExitCode)
}
