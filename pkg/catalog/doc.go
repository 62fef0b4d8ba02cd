// Package catalog holds the desired state that repofleet converges every
// repository of an organization towards: the closed set of issue labels, the
// repository settings, the protection of the default branch, the template
// file tree and the texts of the pull requests it opens.
//
// A Catalog is plain data. It is built once (Default or LoadFromFile),
// validated, and then passed by value or pointer into the reconcilers and the
// propagation workflow, which never modify it.
package catalog
