// Package fleet runs repofleet against every repository of an organization.
//
// For each repository the Orchestrator reconciles labels, settings and
// branch protection, then runs the template propagation workflow. The
// repositories are processed one after another. A failure ends the work on
// that repository only; the run continues with the next one.
package fleet
