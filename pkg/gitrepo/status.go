package gitrepo

import (
	"bufio"
	"strings"
)

// StatusEntry is one line of `git status --porcelain`.
type StatusEntry struct {
	// Staged and Worktree are the X and Y status letters.
	Staged   byte
	Worktree byte
	Path     string
	// OrigPath is set for renames and copies.
	OrigPath string
}

// String renders the entry the way git prints it.
func (e StatusEntry) String() string {
	path := e.Path
	if e.OrigPath != "" {
		path = e.OrigPath + " -> " + e.Path
	}
	return string([]byte{e.Staged, e.Worktree}) + " " + path
}

// parseStatus parses git status --porcelain output.
// Format: XY PATH, or XY ORIG -> PATH for renames.
func parseStatus(output string) []StatusEntry {
	var entries []StatusEntry
	scanner := bufio.NewScanner(strings.NewReader(output))

	for scanner.Scan() {
		line := scanner.Text()
		if len(line) < 4 {
			continue
		}

		entry := StatusEntry{
			Staged:   line[0],
			Worktree: line[1],
			Path:     line[3:],
		}

		if entry.Staged == 'R' || entry.Staged == 'C' {
			if parts := strings.SplitN(entry.Path, " -> ", 2); len(parts) == 2 {
				entry.OrigPath = parts[0]
				entry.Path = parts[1]
			}
		}

		entries = append(entries, entry)
	}

	return entries
}
