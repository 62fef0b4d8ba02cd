// Package fake provides an in-memory GitHub organization for tests.
package fake

import (
	"context"
	"fmt"
	"sort"

	"repofleet/pkg/github"
)

// Repo is the state of one repository of the fake organization
type Repo struct {
	github.Repository

	Labels   []github.Label
	Settings github.Settings

	// Branches maps each existing branch to whether it is protected
	Branches      map[string]bool
	AdminEnforced map[string]bool

	PullRequests []github.PullRequest
	// PullRequestLabels holds the labels added to each pull request number
	PullRequestLabels map[int][]string
}

// Client implements github.APIClient on top of in-memory repositories.
// Every mutating call is recorded in Calls.
type Client struct {
	Org   string
	Repos []*Repo

	// Calls lists mutating calls as "Method repo[ detail]"
	Calls []string

	// Errors makes a method fail. Keys are "Method" or "Method repo".
	Errors map[string]error

	nextPR int
}

var _ github.APIClient = &Client{}

// NewClient creates an empty fake organization
func NewClient(org string) *Client {
	return &Client{Org: org, Errors: map[string]error{}, nextPR: 1}
}

// AddRepo adds a repository with an unprotected default branch and returns
// its state for further setup
func (c *Client) AddRepo(name, defaultBranch string) *Repo {
	r := &Repo{
		Repository: github.Repository{
			Name:          name,
			FullName:      c.Org + "/" + name,
			Owner:         c.Org,
			DefaultBranch: defaultBranch,
			CloneURL:      fmt.Sprintf("https://github.com/%s/%s.git", c.Org, name),
			SSHURL:        fmt.Sprintf("git@github.com:%s/%s.git", c.Org, name),
		},
		Settings:          github.Settings{DefaultBranch: defaultBranch},
		Branches:          map[string]bool{defaultBranch: false},
		AdminEnforced:     map[string]bool{},
		PullRequestLabels: map[int][]string{},
	}
	c.Repos = append(c.Repos, r)
	return r
}

// Repo returns the state of the named repository or nil
func (c *Client) Repo(name string) *Repo {
	for _, r := range c.Repos {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// ResetCalls forgets all recorded calls
func (c *Client) ResetCalls() {
	c.Calls = nil
}

func (c *Client) fail(method, repo string) error {
	if err, ok := c.Errors[method+" "+repo]; ok {
		return err
	}
	return c.Errors[method]
}

func (c *Client) record(method, repo, detail string) {
	call := method + " " + repo
	if detail != "" {
		call += " " + detail
	}
	c.Calls = append(c.Calls, call)
}

func (c *Client) lookup(owner, name string) (*Repo, error) {
	r := c.Repo(name)
	if owner != c.Org || r == nil {
		return nil, &github.GitHubError{
			Type:     github.ErrorTypeNotFound,
			Message:  "Resource not found",
			Resource: fmt.Sprintf("repository %s/%s", owner, name),
		}
	}
	return r, nil
}

func notFound(resource string) error {
	return &github.GitHubError{Type: github.ErrorTypeNotFound, Message: "Resource not found", Resource: resource}
}

// ListRepositories implements github.APIClient
func (c *Client) ListRepositories(_ context.Context, org string) ([]github.Repository, error) {
	if err := c.fail("ListRepositories", ""); err != nil {
		return nil, err
	}
	if org != c.Org {
		return nil, notFound("organization " + org)
	}
	var repos []github.Repository
	for _, r := range c.Repos {
		repos = append(repos, r.Repository)
	}
	sort.Slice(repos, func(i, j int) bool { return repos[i].FullName < repos[j].FullName })
	return repos, nil
}

// ListLabels implements github.APIClient
func (c *Client) ListLabels(_ context.Context, owner, repo string) ([]github.Label, error) {
	r, err := c.lookup(owner, repo)
	if err != nil {
		return nil, err
	}
	if err := c.fail("ListLabels", repo); err != nil {
		return nil, err
	}
	return append([]github.Label(nil), r.Labels...), nil
}

// CreateLabel implements github.APIClient
func (c *Client) CreateLabel(_ context.Context, owner, repo string, label github.Label) error {
	r, err := c.lookup(owner, repo)
	if err != nil {
		return err
	}
	if err := c.fail("CreateLabel", repo); err != nil {
		return err
	}
	for _, l := range r.Labels {
		if l.Name == label.Name {
			return &github.GitHubError{Type: github.ErrorTypeValidation, Message: "Validation failed: name: already_exists"}
		}
	}
	c.record("CreateLabel", repo, label.Name)
	r.Labels = append(r.Labels, label)
	return nil
}

// EditLabel implements github.APIClient
func (c *Client) EditLabel(_ context.Context, owner, repo string, label github.Label) error {
	r, err := c.lookup(owner, repo)
	if err != nil {
		return err
	}
	if err := c.fail("EditLabel", repo); err != nil {
		return err
	}
	for i, l := range r.Labels {
		if l.Name == label.Name {
			c.record("EditLabel", repo, label.Name)
			r.Labels[i] = label
			return nil
		}
	}
	return notFound("label " + label.Name)
}

// DeleteLabel implements github.APIClient
func (c *Client) DeleteLabel(_ context.Context, owner, repo, name string) error {
	r, err := c.lookup(owner, repo)
	if err != nil {
		return err
	}
	if err := c.fail("DeleteLabel", repo); err != nil {
		return err
	}
	for i, l := range r.Labels {
		if l.Name == name {
			c.record("DeleteLabel", repo, name)
			r.Labels = append(r.Labels[:i], r.Labels[i+1:]...)
			return nil
		}
	}
	return notFound("label " + name)
}

// GetSettings implements github.APIClient
func (c *Client) GetSettings(_ context.Context, owner, repo string) (*github.Settings, error) {
	r, err := c.lookup(owner, repo)
	if err != nil {
		return nil, err
	}
	if err := c.fail("GetSettings", repo); err != nil {
		return nil, err
	}
	settings := r.Settings
	return &settings, nil
}

// EditSettings implements github.APIClient. Changing the default branch
// requires the branch to exist, like on GitHub.
func (c *Client) EditSettings(_ context.Context, owner, repo string, settings github.Settings) error {
	r, err := c.lookup(owner, repo)
	if err != nil {
		return err
	}
	if err := c.fail("EditSettings", repo); err != nil {
		return err
	}
	if _, ok := r.Branches[settings.DefaultBranch]; !ok {
		return &github.GitHubError{Type: github.ErrorTypeValidation, Message: "Validation failed: default_branch: invalid"}
	}
	c.record("EditSettings", repo, "")
	r.Settings = settings
	r.DefaultBranch = settings.DefaultBranch
	return nil
}

// GetBranch implements github.APIClient
func (c *Client) GetBranch(_ context.Context, owner, repo, branch string) (*github.Branch, error) {
	r, err := c.lookup(owner, repo)
	if err != nil {
		return nil, err
	}
	if err := c.fail("GetBranch", repo); err != nil {
		return nil, err
	}
	protected, ok := r.Branches[branch]
	if !ok {
		return nil, notFound("branch " + branch)
	}
	return &github.Branch{Name: branch, Protected: protected}, nil
}

// GetAdminEnforcement implements github.APIClient. It fails on an
// unprotected branch, like on GitHub.
func (c *Client) GetAdminEnforcement(_ context.Context, owner, repo, branch string) (bool, error) {
	r, err := c.lookup(owner, repo)
	if err != nil {
		return false, err
	}
	if err := c.fail("GetAdminEnforcement", repo); err != nil {
		return false, err
	}
	if !r.Branches[branch] {
		return false, notFound("branch protection " + branch)
	}
	return r.AdminEnforced[branch], nil
}

// ProtectBranch implements github.APIClient
func (c *Client) ProtectBranch(_ context.Context, owner, repo, branch string, enforceAdmins bool) error {
	r, err := c.lookup(owner, repo)
	if err != nil {
		return err
	}
	if err := c.fail("ProtectBranch", repo); err != nil {
		return err
	}
	if _, ok := r.Branches[branch]; !ok {
		return notFound("branch " + branch)
	}
	c.record("ProtectBranch", repo, branch)
	r.Branches[branch] = true
	r.AdminEnforced[branch] = enforceAdmins
	return nil
}

// SetAdminEnforcement implements github.APIClient
func (c *Client) SetAdminEnforcement(_ context.Context, owner, repo, branch string, enabled bool) error {
	r, err := c.lookup(owner, repo)
	if err != nil {
		return err
	}
	if err := c.fail("SetAdminEnforcement", repo); err != nil {
		return err
	}
	if !r.Branches[branch] {
		return notFound("branch protection " + branch)
	}
	c.record("SetAdminEnforcement", repo, branch)
	r.AdminEnforced[branch] = enabled
	return nil
}

// ListOpenPullRequests implements github.APIClient
func (c *Client) ListOpenPullRequests(_ context.Context, owner, repo, head, base string) ([]github.PullRequest, error) {
	r, err := c.lookup(owner, repo)
	if err != nil {
		return nil, err
	}
	if err := c.fail("ListOpenPullRequests", repo); err != nil {
		return nil, err
	}
	var prs []github.PullRequest
	for _, pr := range r.PullRequests {
		if pr.Head == head && pr.Base == base {
			prs = append(prs, pr)
		}
	}
	return prs, nil
}

// CreatePullRequest implements github.APIClient
func (c *Client) CreatePullRequest(_ context.Context, owner, repo string, pr github.NewPullRequest) (*github.PullRequest, error) {
	r, err := c.lookup(owner, repo)
	if err != nil {
		return nil, err
	}
	if err := c.fail("CreatePullRequest", repo); err != nil {
		return nil, err
	}
	for _, existing := range r.PullRequests {
		if existing.Head == pr.Head && existing.Base == pr.Base {
			return nil, &github.GitHubError{Type: github.ErrorTypeValidation, Message: "Validation failed: A pull request already exists"}
		}
	}
	created := github.PullRequest{
		Number: c.nextPR,
		Title:  pr.Title,
		URL:    fmt.Sprintf("https://github.com/%s/%s/pull/%d", owner, repo, c.nextPR),
		Head:   pr.Head,
		Base:   pr.Base,
	}
	c.nextPR++
	c.record("CreatePullRequest", repo, pr.Head)
	r.PullRequests = append(r.PullRequests, created)
	return &created, nil
}

// AddLabels implements github.APIClient
func (c *Client) AddLabels(_ context.Context, owner, repo string, number int, labels []string) error {
	r, err := c.lookup(owner, repo)
	if err != nil {
		return err
	}
	if err := c.fail("AddLabels", repo); err != nil {
		return err
	}
	c.record("AddLabels", repo, fmt.Sprintf("#%d", number))
	r.PullRequestLabels[number] = append(r.PullRequestLabels[number], labels...)
	return nil
}
