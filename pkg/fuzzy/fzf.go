package fuzzy

import (
	"fmt"
	"io"
	"os"
	"strings"

	fzf "github.com/junegunn/fzf/src"
	"k8s.io/klog/v2"
)

const descriptionSeparator = "  │  "

// FzfRunner defines the interface for running fzf
type FzfRunner interface {
	Run(opts *fzf.Options) (int, error)
}

// DefaultFzfRunner runs the fzf library
type DefaultFzfRunner struct{}

// Run executes fzf with the given options
func (r *DefaultFzfRunner) Run(opts *fzf.Options) (int, error) {
	return fzf.Run(opts)
}

// FzfFinder picks options with fzf. Tab marks an option.
type FzfFinder struct {
	options []Option
	prompt  string
	runner  FzfRunner
}

var _ Picker = (*FzfFinder)(nil)

// NewFzf creates a new fzf picker
func NewFzf(prompt string) *FzfFinder {
	return NewFzfWithRunner(prompt, &DefaultFzfRunner{})
}

// NewFzfWithRunner creates a new fzf picker with a custom runner (for testing)
func NewFzfWithRunner(prompt string, runner FzfRunner) *FzfFinder {
	return &FzfFinder{
		prompt:  prompt,
		options: make([]Option, 0),
		runner:  runner,
	}
}

// SetOptions sets the available options for selection
func (f *FzfFinder) SetOptions(options []Option) error {
	if options == nil {
		return fmt.Errorf("options cannot be nil")
	}

	f.options = make([]Option, len(options))
	copy(f.options, options)
	return nil
}

func (f *FzfFinder) args() []string {
	return []string{
		"--prompt=" + f.prompt + " ",
		"--height=40%",
		"--layout=reverse",
		"--multi",
		"--bind=ctrl-a:select-all",
		"--header=TAB to mark, CTRL-A to mark all, ENTER to accept",
		"--cycle",
		"--algo=v2",
		"--tiebreak=begin",
		"--no-mouse",
		"--border=none",
	}
}

// SelectMany runs fzf over the options and returns the marked values in
// option order. If fzf cannot run, a numbered list is shown instead.
func (f *FzfFinder) SelectMany() ([]string, error) {
	if len(f.options) == 0 {
		return nil, fmt.Errorf("no options available")
	}

	tmpFile, err := os.CreateTemp("", "repofleet-pick-*.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmpFile.Name())
	}()

	for _, option := range f.options {
		line := option.Value
		if option.Description != "" {
			line += descriptionSeparator + option.Description
		}
		if _, err := fmt.Fprintln(tmpFile, line); err != nil {
			_ = tmpFile.Close()
			return nil, fmt.Errorf("failed to write option to file: %w", err)
		}
	}
	if err := tmpFile.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temporary file: %w", err)
	}

	opts, err := fzf.ParseOptions(true, f.args())
	if err != nil {
		return nil, fmt.Errorf("failed to parse fzf options: %w", err)
	}

	// fzf reads candidates from stdin and prints the selection to stdout.
	input, err := os.Open(tmpFile.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to open temporary file for reading: %w", err)
	}
	defer func() {
		_ = input.Close()
	}()

	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create pipe: %w", err)
	}
	defer func() {
		_ = r.Close()
	}()

	output := make(chan []byte, 1)
	go func() {
		data, _ := io.ReadAll(r)
		output <- data
	}()

	originalStdin, originalStdout := os.Stdin, os.Stdout
	os.Stdin, os.Stdout = input, w
	exitCode, runErr := f.runner.Run(opts)
	os.Stdin, os.Stdout = originalStdin, originalStdout
	_ = w.Close()
	result := <-output

	if runErr != nil {
		klog.V(2).Infof("fzf failed, falling back to a numbered list: %v", runErr)
		return f.fallbackSelect()
	}
	if exitCode != fzf.ExitOk {
		return nil, fmt.Errorf("selection cancelled")
	}

	return f.match(string(result))
}

// match maps the lines printed by fzf back to option values
func (f *FzfFinder) match(output string) ([]string, error) {
	marked := make(map[string]bool)
	for _, line := range strings.Split(output, "\n") {
		value := strings.TrimSpace(strings.SplitN(line, descriptionSeparator, 2)[0])
		if value != "" {
			marked[value] = true
		}
	}

	var selected []string
	for _, option := range f.options {
		if marked[option.Value] {
			selected = append(selected, option.Value)
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no selection made")
	}
	return selected, nil
}

// fallbackSelect uses the numbered list when fzf fails
func (f *FzfFinder) fallbackSelect() ([]string, error) {
	finder := New(f.prompt)
	if err := finder.SetOptions(f.options); err != nil {
		return nil, err
	}
	return finder.SelectMany()
}
