package github

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"
)

// ResourceKind names a resource class handled by a reconciler
type ResourceKind string

const (
	KindLabels           ResourceKind = "labels"
	KindSettings         ResourceKind = "settings"
	KindBranchProtection ResourceKind = "branch protection"
)

// noun is the singular used in report lines
func (k ResourceKind) noun() string {
	switch k {
	case KindLabels:
		return "label"
	case KindSettings:
		return "setting"
	case KindBranchProtection:
		return "branch"
	default:
		return string(k)
	}
}

// ChangeType represents the type of change in a reconciliation plan
type ChangeType string

const (
	ChangeTypeCreate ChangeType = "create"
	ChangeTypeUpdate ChangeType = "update"
	ChangeTypeDelete ChangeType = "delete"
)

// Change is one difference between the observed and the desired state.
// Field, From and To are only set for updates.
type Change struct {
	Type  ChangeType   `json:"type"`
	Kind  ResourceKind `json:"kind"`
	Name  string       `json:"name,omitempty"`
	Field string       `json:"field,omitempty"`
	From  string       `json:"from,omitempty"`
	To    string       `json:"to,omitempty"`
}

// String renders the change as a report line
func (c Change) String() string {
	noun := c.Kind.noun()
	switch c.Type {
	case ChangeTypeCreate:
		if c.Kind == KindBranchProtection {
			return fmt.Sprintf("PROTECT %s %q", noun, c.Name)
		}
		return fmt.Sprintf("ADD %s %q", noun, c.Name)
	case ChangeTypeDelete:
		return fmt.Sprintf("REMOVE %s %q", noun, c.Name)
	default:
		target := noun + " " + c.Field
		if c.Name != "" {
			target += fmt.Sprintf(" %q", c.Name)
		}
		return fmt.Sprintf("CHANGE %s: %q -> %q", target, c.From, c.To)
	}
}

// Action is a single corrective API call
type Action struct {
	Description string
	Run         func(ctx context.Context) error
}

// Plan holds the differences found for one resource class of one
// repository and the calls that correct them
type Plan struct {
	Kind    ResourceKind `json:"kind"`
	Changes []Change     `json:"changes"`
	Actions []Action     `json:"-"`
}

// HasChanges reports whether the plan found any difference
func (p *Plan) HasChanges() bool {
	return p != nil && len(p.Changes) > 0
}

// Apply executes the plan's actions in order. The first failing action
// aborts the rest; nothing is retried or rolled back.
func (p *Plan) Apply(ctx context.Context) error {
	if !p.HasChanges() {
		return nil
	}

	for _, action := range p.Actions {
		klog.V(2).Infof("applying %s: %s", p.Kind, action.Description)
		if err := action.Run(ctx); err != nil {
			return fmt.Errorf("failed to %s: %w", action.Description, err)
		}
	}
	return nil
}

// fieldDiff is one tracked field of a resource
type fieldDiff struct {
	name     string
	observed string
	desired  string
}

// diffFields returns an update change for each differing field, in the
// order the fields are given
func diffFields(kind ResourceKind, name string, fields []fieldDiff) []Change {
	var changes []Change
	for _, f := range fields {
		if f.observed == f.desired {
			continue
		}
		changes = append(changes, Change{
			Type:  ChangeTypeUpdate,
			Kind:  kind,
			Name:  name,
			Field: f.name,
			From:  f.observed,
			To:    f.desired,
		})
	}
	return changes
}
