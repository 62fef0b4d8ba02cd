package catalog

import (
	"fmt"
	"strings"
)

// ValidationError is one problem found in a catalog. Field is the YAML path
// of the offending key, e.g. labels[2].color.
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Message)
}

// ValidationErrors holds every problem of a catalog, in field order.
type ValidationErrors []ValidationError

// Error lists one problem per line when there is more than one.
func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return "invalid catalog"
	case 1:
		return e[0].Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "catalog has %d problems:", len(e))
	for i := range e {
		b.WriteString("\n  ")
		b.WriteString(e[i].Error())
	}
	return b.String()
}

// Add records a problem with field.
func (e *ValidationErrors) Add(field, value, message string) {
	*e = append(*e, ValidationError{Field: field, Value: value, Message: message})
}

// HasErrors reports whether any problem was recorded.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}
