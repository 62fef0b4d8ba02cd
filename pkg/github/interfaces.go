package github

import "context"

// APIClient defines the interface for GitHub API operations
type APIClient interface {
	// Organization operations
	ListRepositories(ctx context.Context, org string) ([]Repository, error)

	// Label operations
	ListLabels(ctx context.Context, owner, repo string) ([]Label, error)
	CreateLabel(ctx context.Context, owner, repo string, label Label) error
	EditLabel(ctx context.Context, owner, repo string, label Label) error
	DeleteLabel(ctx context.Context, owner, repo, name string) error

	// Repository settings operations
	GetSettings(ctx context.Context, owner, repo string) (*Settings, error)
	EditSettings(ctx context.Context, owner, repo string, settings Settings) error

	// Branch protection operations
	GetBranch(ctx context.Context, owner, repo, branch string) (*Branch, error)
	GetAdminEnforcement(ctx context.Context, owner, repo, branch string) (bool, error)
	ProtectBranch(ctx context.Context, owner, repo, branch string, enforceAdmins bool) error
	SetAdminEnforcement(ctx context.Context, owner, repo, branch string, enabled bool) error

	// Pull request operations
	ListOpenPullRequests(ctx context.Context, owner, repo, head, base string) ([]PullRequest, error)
	CreatePullRequest(ctx context.Context, owner, repo string, pr NewPullRequest) (*PullRequest, error)
	AddLabels(ctx context.Context, owner, repo string, number int, labels []string) error
}

// ResourceReconciler computes the plan that brings one resource class of a
// repository to its desired state
type ResourceReconciler interface {
	Kind() ResourceKind
	Plan(ctx context.Context, repo Repository) (*Plan, error)
}
