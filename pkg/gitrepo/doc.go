// Package gitrepo manages the local clones the template propagation works
// in. All operations shell out to the git executable.
package gitrepo
