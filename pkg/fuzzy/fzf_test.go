package fuzzy

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	fzf "github.com/junegunn/fzf/src"
)

// MockFzfRunner implements FzfRunner for testing
type MockFzfRunner struct {
	RunFunc       func(opts *fzf.Options) (int, error)
	CallCount     int
	LastOpts      *fzf.Options
	OutputToWrite string // What to write to stdout to simulate fzf output
}

// Run executes the mock function
func (m *MockFzfRunner) Run(opts *fzf.Options) (int, error) {
	m.CallCount++
	m.LastOpts = opts

	if m.OutputToWrite != "" {
		fmt.Print(m.OutputToWrite)
	}

	if m.RunFunc != nil {
		return m.RunFunc(opts)
	}
	return fzf.ExitOk, nil
}

func testOptions() []Option {
	return []Option{
		{Value: "lib-base", Description: "Base library"},
		{Value: "lib-connectors", Description: "Connectors"},
		{Value: "website"},
	}
}

func TestFzfSetOptions(t *testing.T) {
	finder := NewFzf("Test")

	if err := finder.SetOptions(nil); err == nil {
		t.Error("Expected error when setting nil options")
	}
	if err := finder.SetOptions(testOptions()); err != nil {
		t.Errorf("Unexpected error setting options: %v", err)
	}
	if len(finder.options) != 3 {
		t.Errorf("Expected 3 options, got %d", len(finder.options))
	}
}

func TestFzfSelectManyWithNoOptions(t *testing.T) {
	finder := NewFzf("Test")

	_, err := finder.SelectMany()
	if err == nil || err.Error() != "no options available" {
		t.Errorf("Expected 'no options available', got %v", err)
	}
}

func TestFzfSelectMany(t *testing.T) {
	mockRunner := &MockFzfRunner{
		// fzf prints marked lines in the order they were marked
		OutputToWrite: "website\nlib-base" + descriptionSeparator + "Base library\n",
	}

	finder := NewFzfWithRunner("Repositories>", mockRunner)
	if err := finder.SetOptions(testOptions()); err != nil {
		t.Fatalf("SetOptions failed: %v", err)
	}

	selected, err := finder.SelectMany()
	if err != nil {
		t.Fatalf("SelectMany failed: %v", err)
	}

	expected := []string{"lib-base", "website"}
	if !reflect.DeepEqual(selected, expected) {
		t.Errorf("Expected %v, got %v", expected, selected)
	}
	if mockRunner.CallCount != 1 {
		t.Errorf("Expected 1 call to Run, got %d", mockRunner.CallCount)
	}
	if mockRunner.LastOpts == nil {
		t.Error("Expected options to be passed to the runner")
	}
}

func TestFzfSelectManyCancelled(t *testing.T) {
	mockRunner := &MockFzfRunner{
		RunFunc: func(_ *fzf.Options) (int, error) {
			return 130, nil
		},
	}

	finder := NewFzfWithRunner("Test", mockRunner)
	_ = finder.SetOptions(testOptions())

	_, err := finder.SelectMany()
	if err == nil || !strings.Contains(err.Error(), "cancelled") {
		t.Errorf("Expected cancellation error, got %v", err)
	}
}

func TestFzfSelectManyNothingMarked(t *testing.T) {
	finder := NewFzfWithRunner("Test", &MockFzfRunner{OutputToWrite: "\n"})
	_ = finder.SetOptions(testOptions())

	_, err := finder.SelectMany()
	if err == nil || err.Error() != "no selection made" {
		t.Errorf("Expected 'no selection made', got %v", err)
	}
}

func TestFzfArgsParse(t *testing.T) {
	finder := NewFzf("Repositories>")

	if _, err := fzf.ParseOptions(true, finder.args()); err != nil {
		t.Errorf("fzf rejected the arguments: %v", err)
	}
}

func TestFzfMatchIgnoresUnknownLines(t *testing.T) {
	finder := NewFzf("Test")
	_ = finder.SetOptions(testOptions())

	selected, err := finder.match("unknown\nlib-connectors" + descriptionSeparator + "Connectors\n")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !reflect.DeepEqual(selected, []string{"lib-connectors"}) {
		t.Errorf("Expected [lib-connectors], got %v", selected)
	}
}
