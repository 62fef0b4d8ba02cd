package github

import (
	"context"
	"fmt"
	"strconv"

	"repofleet/pkg/catalog"
)

// SettingsReconciler converges the repository settings to the catalog.
// A single edit call always sends all tracked fields.
type SettingsReconciler struct {
	client  APIClient
	owner   string
	desired catalog.SettingsSpec
}

// NewSettingsReconciler creates a settings reconciler
func NewSettingsReconciler(client APIClient, owner string, desired catalog.SettingsSpec) *SettingsReconciler {
	return &SettingsReconciler{
		client:  client,
		owner:   owner,
		desired: desired,
	}
}

// Kind implements ResourceReconciler
func (r *SettingsReconciler) Kind() ResourceKind {
	return KindSettings
}

// Plan compares the repository settings with the catalog
func (r *SettingsReconciler) Plan(ctx context.Context, repo Repository) (*Plan, error) {
	observed, err := r.client.GetSettings(ctx, r.owner, repo.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to get repository settings: %w", err)
	}

	plan := &Plan{Kind: KindSettings}
	plan.Changes = diffFields(KindSettings, "", []fieldDiff{
		{name: "has_issues", observed: strconv.FormatBool(observed.HasIssues), desired: strconv.FormatBool(r.desired.HasIssues)},
		{name: "has_projects", observed: strconv.FormatBool(observed.HasProjects), desired: strconv.FormatBool(r.desired.HasProjects)},
		{name: "has_wiki", observed: strconv.FormatBool(observed.HasWiki), desired: strconv.FormatBool(r.desired.HasWiki)},
		{name: "delete_branch_on_merge", observed: strconv.FormatBool(observed.DeleteBranchOnMerge), desired: strconv.FormatBool(r.desired.DeleteBranchOnMerge)},
		{name: "default_branch", observed: observed.DefaultBranch, desired: r.desired.DefaultBranch},
	})

	if len(plan.Changes) > 0 {
		desired := Settings{
			HasIssues:           r.desired.HasIssues,
			HasProjects:         r.desired.HasProjects,
			HasWiki:             r.desired.HasWiki,
			DeleteBranchOnMerge: r.desired.DeleteBranchOnMerge,
			DefaultBranch:       r.desired.DefaultBranch,
		}
		plan.Actions = []Action{{
			Description: "edit repository settings",
			Run: func(ctx context.Context) error {
				return r.client.EditSettings(ctx, r.owner, repo.Name, desired)
			},
		}}
	}

	return plan, nil
}
