package github

import (
	"context"
	"fmt"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
	"k8s.io/klog/v2"
)

// Client implements the APIClient interface using the GitHub REST API
type Client struct {
	client *github.Client
}

// NewClient creates a new GitHub API client with the provided token
func NewClient(token string) *Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(context.Background(), ts)

	return &Client{
		client: github.NewClient(tc),
	}
}

// ListRepositories lists all repositories of an organization
func (c *Client) ListRepositories(ctx context.Context, org string) ([]Repository, error) {
	opts := &github.RepositoryListByOrgOptions{
		Type:        "all",
		Sort:        "full_name",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var all []Repository
	for {
		klog.V(4).Infof("listing repositories of %s (page %d)", org, opts.Page)
		repos, resp, err := c.client.Repositories.ListByOrg(ctx, org, opts)
		if err != nil {
			return nil, WrapGitHubError(err, fmt.Sprintf("organization %s", org))
		}

		for _, repo := range repos {
			all = append(all, convertGitHubRepository(repo))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// ListLabels lists all issue labels of a repository
func (c *Client) ListLabels(ctx context.Context, owner, repo string) ([]Label, error) {
	opts := &github.ListOptions{PerPage: 100}

	var all []Label
	for {
		klog.V(4).Infof("listing labels of %s/%s (page %d)", owner, repo, opts.Page)
		labels, resp, err := c.client.Issues.ListLabels(ctx, owner, repo, opts)
		if err != nil {
			return nil, WrapGitHubError(err, fmt.Sprintf("labels for %s/%s", owner, repo))
		}

		for _, label := range labels {
			all = append(all, Label{
				Name:        label.GetName(),
				Description: label.GetDescription(),
				Color:       label.GetColor(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// CreateLabel creates a new issue label
func (c *Client) CreateLabel(ctx context.Context, owner, repo string, label Label) error {
	_, _, err := c.client.Issues.CreateLabel(ctx, owner, repo, convertLabel(label))
	if err != nil {
		return WrapGitHubError(err, fmt.Sprintf("label %q for %s/%s", label.Name, owner, repo))
	}
	return nil
}

// EditLabel updates the color and description of an existing label. The
// API expects name, color and description together.
func (c *Client) EditLabel(ctx context.Context, owner, repo string, label Label) error {
	_, _, err := c.client.Issues.EditLabel(ctx, owner, repo, label.Name, convertLabel(label))
	if err != nil {
		return WrapGitHubError(err, fmt.Sprintf("label %q for %s/%s", label.Name, owner, repo))
	}
	return nil
}

// DeleteLabel deletes an issue label
func (c *Client) DeleteLabel(ctx context.Context, owner, repo, name string) error {
	_, err := c.client.Issues.DeleteLabel(ctx, owner, repo, name)
	if err != nil {
		return WrapGitHubError(err, fmt.Sprintf("label %q for %s/%s", name, owner, repo))
	}
	return nil
}

// GetSettings retrieves the managed settings of a repository
func (c *Client) GetSettings(ctx context.Context, owner, repo string) (*Settings, error) {
	r, _, err := c.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, WrapGitHubError(err, fmt.Sprintf("repository %s/%s", owner, repo))
	}

	return &Settings{
		HasIssues:           r.GetHasIssues(),
		HasProjects:         r.GetHasProjects(),
		HasWiki:             r.GetHasWiki(),
		DeleteBranchOnMerge: r.GetDeleteBranchOnMerge(),
		DefaultBranch:       r.GetDefaultBranch(),
	}, nil
}

// EditSettings sets all managed settings of a repository in one call
func (c *Client) EditSettings(ctx context.Context, owner, repo string, settings Settings) error {
	r := &github.Repository{
		HasIssues:           github.Bool(settings.HasIssues),
		HasProjects:         github.Bool(settings.HasProjects),
		HasWiki:             github.Bool(settings.HasWiki),
		DeleteBranchOnMerge: github.Bool(settings.DeleteBranchOnMerge),
		DefaultBranch:       github.String(settings.DefaultBranch),
	}

	_, _, err := c.client.Repositories.Edit(ctx, owner, repo, r)
	if err != nil {
		return WrapGitHubError(err, fmt.Sprintf("repository %s/%s", owner, repo))
	}
	return nil
}

// GetBranch retrieves a branch and its protection status
func (c *Client) GetBranch(ctx context.Context, owner, repo, branch string) (*Branch, error) {
	b, resp, err := c.client.Repositories.GetBranch(ctx, owner, repo, branch, 1)
	if err != nil {
		// The branch endpoint reports error statuses without an ErrorResponse.
		if resp != nil && resp.Response != nil {
			err = &github.ErrorResponse{Response: resp.Response, Message: err.Error()}
		}
		return nil, WrapGitHubError(err, fmt.Sprintf("branch %s/%s:%s", owner, repo, branch))
	}

	return &Branch{
		Name:      b.GetName(),
		Protected: b.GetProtected(),
	}, nil
}

// GetAdminEnforcement reports whether protection rules apply to admins.
// Only valid on a protected branch.
func (c *Client) GetAdminEnforcement(ctx context.Context, owner, repo, branch string) (bool, error) {
	enforcement, _, err := c.client.Repositories.GetAdminEnforcement(ctx, owner, repo, branch)
	if err != nil {
		return false, WrapGitHubError(err, fmt.Sprintf("branch protection %s/%s:%s", owner, repo, branch))
	}
	if enforcement == nil {
		return false, nil
	}
	return enforcement.Enabled, nil
}

// ProtectBranch enables protection of a branch. Admin enforcement is set
// by the same request.
func (c *Client) ProtectBranch(ctx context.Context, owner, repo, branch string, enforceAdmins bool) error {
	protection := &github.ProtectionRequest{
		EnforceAdmins: enforceAdmins,
	}

	_, _, err := c.client.Repositories.UpdateBranchProtection(ctx, owner, repo, branch, protection)
	if err != nil {
		return WrapGitHubError(err, fmt.Sprintf("branch protection %s/%s:%s", owner, repo, branch))
	}
	return nil
}

// SetAdminEnforcement enables or disables admin enforcement on a protected
// branch
func (c *Client) SetAdminEnforcement(ctx context.Context, owner, repo, branch string, enabled bool) error {
	var err error
	if enabled {
		_, _, err = c.client.Repositories.AddAdminEnforcement(ctx, owner, repo, branch)
	} else {
		_, err = c.client.Repositories.RemoveAdminEnforcement(ctx, owner, repo, branch)
	}
	if err != nil {
		return WrapGitHubError(err, fmt.Sprintf("branch protection %s/%s:%s", owner, repo, branch))
	}
	return nil
}

// ListOpenPullRequests lists open pull requests from head into base. head
// is a branch of the repository itself.
func (c *Client) ListOpenPullRequests(ctx context.Context, owner, repo, head, base string) ([]PullRequest, error) {
	opts := &github.PullRequestListOptions{
		State:       "open",
		Head:        owner + ":" + head,
		Base:        base,
		ListOptions: github.ListOptions{PerPage: 100},
	}

	prs, _, err := c.client.PullRequests.List(ctx, owner, repo, opts)
	if err != nil {
		return nil, WrapGitHubError(err, fmt.Sprintf("pull requests for %s/%s", owner, repo))
	}

	var result []PullRequest
	for _, pr := range prs {
		result = append(result, convertGitHubPullRequest(pr))
	}
	return result, nil
}

// CreatePullRequest opens a pull request
func (c *Client) CreatePullRequest(ctx context.Context, owner, repo string, pr NewPullRequest) (*PullRequest, error) {
	created, _, err := c.client.PullRequests.Create(ctx, owner, repo, &github.NewPullRequest{
		Title: github.String(pr.Title),
		Head:  github.String(pr.Head),
		Base:  github.String(pr.Base),
		Body:  github.String(pr.Body),
	})
	if err != nil {
		return nil, WrapGitHubError(err, fmt.Sprintf("pull request %s -> %s for %s/%s", pr.Head, pr.Base, owner, repo))
	}

	result := convertGitHubPullRequest(created)
	return &result, nil
}

// AddLabels adds labels to an issue or pull request
func (c *Client) AddLabels(ctx context.Context, owner, repo string, number int, labels []string) error {
	_, _, err := c.client.Issues.AddLabelsToIssue(ctx, owner, repo, number, labels)
	if err != nil {
		return WrapGitHubError(err, fmt.Sprintf("labels of #%d for %s/%s", number, owner, repo))
	}
	return nil
}

// convertLabel converts our label type to the GitHub API type
func convertLabel(label Label) *github.Label {
	return &github.Label{
		Name:        github.String(label.Name),
		Color:       github.String(label.Color),
		Description: github.String(label.Description),
	}
}

// convertGitHubRepository converts a GitHub API repository to our internal type
func convertGitHubRepository(repo *github.Repository) Repository {
	return Repository{
		Name:          repo.GetName(),
		FullName:      repo.GetFullName(),
		Owner:         repo.GetOwner().GetLogin(),
		DefaultBranch: repo.GetDefaultBranch(),
		CloneURL:      repo.GetCloneURL(),
		SSHURL:        repo.GetSSHURL(),
		Archived:      repo.GetArchived(),
	}
}

// convertGitHubPullRequest converts a GitHub API pull request to our internal type
func convertGitHubPullRequest(pr *github.PullRequest) PullRequest {
	return PullRequest{
		Number: pr.GetNumber(),
		Title:  pr.GetTitle(),
		URL:    pr.GetHTMLURL(),
		Head:   pr.GetHead().GetRef(),
		Base:   pr.GetBase().GetRef(),
	}
}
