// Package propagate pushes shared files into the repositories of the
// organization.
//
// A Workflow checks out a disposable change branch from the base branch,
// optionally runs an upgrade transform, overlays the template directory,
// commits whatever changed, force-pushes the branch and opens a pull
// request unless one is already open for the same branch pair.
//
// The change branch is rebuilt from the base branch on every run. Commits a
// maintainer pushes to it by hand are overwritten.
package propagate
