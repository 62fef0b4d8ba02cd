package github

// Repository represents a repository of the managed organization
type Repository struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Owner         string `json:"owner"`
	DefaultBranch string `json:"default_branch"`
	CloneURL      string `json:"clone_url"`
	SSHURL        string `json:"ssh_url"`
	Archived      bool   `json:"archived"`
}

// Label represents an issue label as observed on a repository
type Label struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// Settings represents the repository settings managed by repofleet
type Settings struct {
	HasIssues           bool   `json:"has_issues"`
	HasProjects         bool   `json:"has_projects"`
	HasWiki             bool   `json:"has_wiki"`
	DeleteBranchOnMerge bool   `json:"delete_branch_on_merge"`
	DefaultBranch       string `json:"default_branch"`
}

// Branch represents a branch and whether it is protected
type Branch struct {
	Name      string `json:"name"`
	Protected bool   `json:"protected"`
}

// PullRequest represents an open pull request
type PullRequest struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	URL    string `json:"html_url"`
	Head   string `json:"head"`
	Base   string `json:"base"`
}

// NewPullRequest holds the fields needed to open a pull request
type NewPullRequest struct {
	Title string `json:"title"`
	Head  string `json:"head"`
	Base  string `json:"base"`
	Body  string `json:"body"`
}
