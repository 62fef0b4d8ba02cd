package fuzzy

import (
	"os"

	"golang.org/x/term"
)

// IsInteractive reports whether stdin and stdout are a terminal that can
// run fzf.
func IsInteractive() bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}

	termType := os.Getenv("TERM")
	return termType != "" && termType != "dumb"
}
