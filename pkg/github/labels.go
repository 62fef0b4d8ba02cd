package github

import (
	"context"
	"fmt"

	"repofleet/pkg/catalog"
)

// LabelReconciler converges the issue labels of a repository to the catalog.
// The catalog is a closed set: labels it does not name are removed.
type LabelReconciler struct {
	client  APIClient
	owner   string
	desired []catalog.LabelSpec
}

// NewLabelReconciler creates a label reconciler for the given catalog labels
func NewLabelReconciler(client APIClient, owner string, desired []catalog.LabelSpec) *LabelReconciler {
	return &LabelReconciler{
		client:  client,
		owner:   owner,
		desired: desired,
	}
}

// Kind implements ResourceReconciler
func (r *LabelReconciler) Kind() ResourceKind {
	return KindLabels
}

// Plan compares the repository's labels with the catalog. Updates and
// additions follow catalog order, removals follow the order the API
// returned the labels in.
func (r *LabelReconciler) Plan(ctx context.Context, repo Repository) (*Plan, error) {
	observed, err := r.client.ListLabels(ctx, r.owner, repo.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}

	observedByName := make(map[string]Label, len(observed))
	for _, l := range observed {
		observedByName[l.Name] = l
	}

	plan := &Plan{Kind: KindLabels}
	var additions []catalog.LabelSpec

	wanted := make(map[string]bool, len(r.desired))
	for _, spec := range r.desired {
		wanted[spec.Name] = true

		current, exists := observedByName[spec.Name]
		if !exists {
			additions = append(additions, spec)
			continue
		}

		changes := diffFields(KindLabels, spec.Name, []fieldDiff{
			{name: "description", observed: current.Description, desired: spec.Description},
			{name: "color", observed: current.Color, desired: spec.Color},
		})
		if len(changes) == 0 {
			continue
		}

		plan.Changes = append(plan.Changes, changes...)
		label := Label{Name: spec.Name, Description: spec.Description, Color: spec.Color}
		plan.Actions = append(plan.Actions, Action{
			Description: fmt.Sprintf("edit label %q", spec.Name),
			Run: func(ctx context.Context) error {
				return r.client.EditLabel(ctx, r.owner, repo.Name, label)
			},
		})
	}

	for _, current := range observed {
		if wanted[current.Name] {
			continue
		}
		name := current.Name
		plan.Changes = append(plan.Changes, Change{
			Type: ChangeTypeDelete,
			Kind: KindLabels,
			Name: name,
		})
		plan.Actions = append(plan.Actions, Action{
			Description: fmt.Sprintf("remove label %q", name),
			Run: func(ctx context.Context) error {
				return r.client.DeleteLabel(ctx, r.owner, repo.Name, name)
			},
		})
	}

	for _, spec := range additions {
		label := Label{Name: spec.Name, Description: spec.Description, Color: spec.Color}
		plan.Changes = append(plan.Changes, Change{
			Type: ChangeTypeCreate,
			Kind: KindLabels,
			Name: label.Name,
		})
		plan.Actions = append(plan.Actions, Action{
			Description: fmt.Sprintf("add label %q", label.Name),
			Run: func(ctx context.Context) error {
				return r.client.CreateLabel(ctx, r.owner, repo.Name, label)
			},
		})
	}

	return plan, nil
}
