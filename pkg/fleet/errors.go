package fleet

import (
	"fmt"
	"sort"
	"strings"
)

// RunError is returned by Orchestrator.Run when at least one repository
// failed. The other repositories were still processed.
type RunError struct {
	Failed map[string]error
	Total  int
}

func (e *RunError) Error() string {
	names := make([]string, 0, len(e.Failed))
	for name := range e.Failed {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("%d of %d repositories failed: %s", len(e.Failed), e.Total, strings.Join(names, ", "))
}
