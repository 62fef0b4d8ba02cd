// Package fuzzy lets the operator pick repositories from a list.
package fuzzy

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Option represents a selectable option
type Option struct {
	Value       string
	Description string
}

// Picker selects any number of options
type Picker interface {
	SetOptions(options []Option) error
	SelectMany() ([]string, error)
}

// NewPicker returns an fzf picker on a terminal and a numbered list
// otherwise.
func NewPicker(prompt string) Picker {
	if IsInteractive() {
		return NewFzf(prompt)
	}
	return New(prompt)
}

// Finder is a line based picker. Options are listed with numbers and the
// operator answers with numbers, ranges, "all" or a filter.
type Finder struct {
	prompt  string
	options []Option
	in      io.Reader
	out     io.Writer
}

var _ Picker = (*Finder)(nil)

// New creates a new finder reading from stdin
func New(prompt string) *Finder {
	return &Finder{
		prompt:  prompt,
		options: make([]Option, 0),
		in:      os.Stdin,
		out:     os.Stdout,
	}
}

// NewWithIO creates a new finder on the given reader and writer
func NewWithIO(prompt string, in io.Reader, out io.Writer) *Finder {
	f := New(prompt)
	f.in = in
	f.out = out
	return f
}

// AddOption adds an option to the finder
func (f *Finder) AddOption(value, description string) {
	f.options = append(f.options, Option{
		Value:       value,
		Description: description,
	})
}

// SetOptions replaces the options
func (f *Finder) SetOptions(options []Option) error {
	if options == nil {
		return fmt.Errorf("options cannot be nil")
	}
	f.options = make([]Option, len(options))
	copy(f.options, options)
	return nil
}

// SelectMany lists the options and returns the chosen values in list
// order. Any input that is not a selection filters the list, and numbers
// then refer to the filtered list.
func (f *Finder) SelectMany() ([]string, error) {
	if len(f.options) == 0 {
		return nil, fmt.Errorf("no options available")
	}

	reader := bufio.NewReader(f.in)
	shown := f.options

	for {
		fmt.Fprintln(f.out, f.prompt)
		fmt.Fprintln(f.out, strings.Repeat("-", len(f.prompt)))
		f.list(shown)
		fmt.Fprintf(f.out, "\nSelect (e.g. 1 3-5, all) or type to filter: ")

		input, err := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if err != nil && input == "" {
			if err == io.EOF {
				return nil, fmt.Errorf("selection cancelled")
			}
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		if input == "" {
			continue
		}

		if input == "all" || input == "*" {
			return values(shown), nil
		}

		indexes, ok, err := parseSelection(input, len(shown))
		if err != nil {
			fmt.Fprintf(f.out, "%v\n\n", err)
			continue
		}
		if ok {
			selected := make([]string, 0, len(indexes))
			for _, i := range indexes {
				selected = append(selected, shown[i].Value)
			}
			return selected, nil
		}

		filtered := f.filterOptions(input)
		if len(filtered) == 0 {
			fmt.Fprintf(f.out, "No options match filter: %s\n\n", input)
			shown = f.options
			continue
		}
		shown = filtered
		fmt.Fprintln(f.out)
	}
}

func (f *Finder) list(options []Option) {
	for i, option := range options {
		fmt.Fprintf(f.out, "%d. %s", i+1, option.Value)
		if option.Description != "" {
			fmt.Fprintf(f.out, " - %s", option.Description)
		}
		fmt.Fprintln(f.out)
	}
}

// filterOptions filters options based on the input string
func (f *Finder) filterOptions(filter string) []Option {
	filter = strings.ToLower(filter)
	var filtered []Option

	for _, option := range f.options {
		if strings.Contains(strings.ToLower(option.Value), filter) ||
			strings.Contains(strings.ToLower(option.Description), filter) {
			filtered = append(filtered, option)
		}
	}

	return filtered
}

// parseSelection parses "1 3-5,7" into sorted zero-based indexes. ok is
// false when input is not a selection at all.
func parseSelection(input string, n int) ([]int, bool, error) {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ' ' || r == ','
	})

	chosen := make([]bool, n)
	for _, field := range fields {
		lo, hi := field, field
		if i := strings.Index(field, "-"); i > 0 {
			lo, hi = field[:i], field[i+1:]
		}
		from, err := strconv.Atoi(lo)
		if err != nil {
			return nil, false, nil
		}
		to, err := strconv.Atoi(hi)
		if err != nil {
			return nil, false, nil
		}
		if from > to {
			from, to = to, from
		}
		if from < 1 || to > n {
			return nil, true, fmt.Errorf("selection %s is out of range (1-%d)", field, n)
		}
		for i := from; i <= to; i++ {
			chosen[i-1] = true
		}
	}

	var indexes []int
	for i, c := range chosen {
		if c {
			indexes = append(indexes, i)
		}
	}
	return indexes, len(indexes) > 0, nil
}

func values(options []Option) []string {
	result := make([]string, 0, len(options))
	for _, o := range options {
		result = append(result, o.Value)
	}
	return result
}
