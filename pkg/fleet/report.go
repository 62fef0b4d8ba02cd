package fleet

import (
	"fmt"
	"io"

	"repofleet/pkg/github"
)

// KindFiles is the report section of the template propagation workflow.
const KindFiles github.ResourceKind = "files"

// Section holds the report lines of one resource class.
type Section struct {
	Kind  github.ResourceKind
	Lines []string
}

// Report collects what was found for one repository, in processing order.
type Report struct {
	Repository string
	Sections   []Section
	// PullRequest is the URL of the open pull request, if any.
	PullRequest string
	Err         error
}

func (r *Report) add(kind github.ResourceKind, lines []string) {
	r.Sections = append(r.Sections, Section{Kind: kind, Lines: lines})
}

// Lines returns the lines reported for kind.
func (r *Report) Lines(kind github.ResourceKind) []string {
	for _, s := range r.Sections {
		if s.Kind == kind {
			return s.Lines
		}
	}
	return nil
}

// Count returns the number of lines reported for kind.
func (r *Report) Count(kind github.ResourceKind) int {
	return len(r.Lines(kind))
}

// Total returns the number of lines over all sections.
func (r *Report) Total() int {
	total := 0
	for _, s := range r.Sections {
		total += len(s.Lines)
	}
	return total
}

func printSection(out io.Writer, s Section) {
	for _, line := range s.Lines {
		fmt.Fprintf(out, "  • %s\n", line)
	}
}
