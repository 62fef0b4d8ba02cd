package github

import (
	"context"
	"fmt"
	"strconv"

	"repofleet/pkg/catalog"
)

// BranchProtectionReconciler hardens the default branch. It can protect an
// unprotected branch and correct admin enforcement on a protected one, but
// it never removes protection.
type BranchProtectionReconciler struct {
	client  APIClient
	owner   string
	branch  string
	desired catalog.BranchProtectionSpec
}

// NewBranchProtectionReconciler creates a reconciler for the given branch
func NewBranchProtectionReconciler(client APIClient, owner, branch string, desired catalog.BranchProtectionSpec) *BranchProtectionReconciler {
	return &BranchProtectionReconciler{
		client:  client,
		owner:   owner,
		branch:  branch,
		desired: desired,
	}
}

// Kind implements ResourceReconciler
func (r *BranchProtectionReconciler) Kind() ResourceKind {
	return KindBranchProtection
}

// Plan compares the protection of the branch with the catalog
func (r *BranchProtectionReconciler) Plan(ctx context.Context, repo Repository) (*Plan, error) {
	plan := &Plan{Kind: KindBranchProtection}

	if !r.desired.Protected {
		// Protection is one-directional; an unprotected target leaves the
		// branch as it is.
		return plan, nil
	}

	branch, err := r.client.GetBranch(ctx, r.owner, repo.Name, r.branch)
	if err != nil {
		return nil, fmt.Errorf("failed to get branch %q: %w", r.branch, err)
	}

	if !branch.Protected {
		// Admin enforcement cannot be read on an unprotected branch. It is set
		// by the same call that enables protection.
		plan.Changes = append(plan.Changes, Change{
			Type:  ChangeTypeCreate,
			Kind:  KindBranchProtection,
			Name:  r.branch,
			Field: "protected",
		})
		if r.desired.EnforceAdmins {
			plan.Changes = append(plan.Changes, Change{
				Type:  ChangeTypeUpdate,
				Kind:  KindBranchProtection,
				Name:  r.branch,
				Field: "enforce_admins",
				From:  "false",
				To:    "true",
			})
		}
		enforceAdmins := r.desired.EnforceAdmins
		plan.Actions = []Action{{
			Description: fmt.Sprintf("protect branch %q", r.branch),
			Run: func(ctx context.Context) error {
				return r.client.ProtectBranch(ctx, r.owner, repo.Name, r.branch, enforceAdmins)
			},
		}}
		return plan, nil
	}

	enforced, err := r.client.GetAdminEnforcement(ctx, r.owner, repo.Name, r.branch)
	if err != nil {
		return nil, fmt.Errorf("failed to get admin enforcement of branch %q: %w", r.branch, err)
	}

	plan.Changes = diffFields(KindBranchProtection, r.branch, []fieldDiff{
		{name: "enforce_admins", observed: strconv.FormatBool(enforced), desired: strconv.FormatBool(r.desired.EnforceAdmins)},
	})
	if len(plan.Changes) > 0 {
		enabled := r.desired.EnforceAdmins
		plan.Actions = []Action{{
			Description: fmt.Sprintf("set admin enforcement of branch %q", r.branch),
			Run: func(ctx context.Context) error {
				return r.client.SetAdminEnforcement(ctx, r.owner, repo.Name, r.branch, enabled)
			},
		}}
	}

	return plan, nil
}
