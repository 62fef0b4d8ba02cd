// Package github converges the metadata of repositories hosted on GitHub to
// a desired-state catalog.
//
// The package includes:
// - APIClient interface for the GitHub operations repofleet needs
// - ResourceReconciler implementations for labels, settings and branch protection
// - Plan, Change and Action types shared by all reconcilers
// - Structured errors for failed API calls
package github
