package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// VersionPlaceholder is replaced by the upgrade version in upgrade titles,
// bodies and commit messages.
const VersionPlaceholder = "{version}"

var colorPattern = regexp.MustCompile(`^[0-9a-f]{6}$`)

// LabelSpec is the desired state of one issue label. Name is the key.
type LabelSpec struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Color       string `yaml:"color"`
}

// SettingsSpec is the desired state of the repository-level settings.
type SettingsSpec struct {
	HasIssues           bool   `yaml:"has_issues"`
	HasProjects         bool   `yaml:"has_projects"`
	HasWiki             bool   `yaml:"has_wiki"`
	DeleteBranchOnMerge bool   `yaml:"delete_branch_on_merge"`
	DefaultBranch       string `yaml:"default_branch"`
}

// BranchProtectionSpec is the desired protection of the default branch.
// EnforceAdmins only applies while the branch is protected.
type BranchProtectionSpec struct {
	Protected     bool `yaml:"protected"`
	EnforceAdmins bool `yaml:"enforce_admins"`
}

// PullRequestSpec names the change branches and the texts used by the
// template propagation workflow.
type PullRequestSpec struct {
	ReviewLabel string `yaml:"review_label"`

	TemplateBranch        string `yaml:"template_branch"`
	TemplateTitle         string `yaml:"template_title"`
	TemplateBody          string `yaml:"template_body"`
	TemplateCommitMessage string `yaml:"template_commit_message"`

	UpgradeBranch        string `yaml:"upgrade_branch"`
	UpgradeTitle         string `yaml:"upgrade_title"`
	UpgradeBody          string `yaml:"upgrade_body"`
	UpgradeCommitMessage string `yaml:"upgrade_commit_message"`
}

// Catalog is the desired state applied to every repository of the
// organization. It is treated as immutable once loaded.
type Catalog struct {
	Labels           []LabelSpec          `yaml:"labels"`
	Settings         SettingsSpec         `yaml:"settings"`
	BranchProtection BranchProtectionSpec `yaml:"branch_protection"`
	TemplateDir      string               `yaml:"template_dir,omitempty"`
	PullRequest      PullRequestSpec      `yaml:"pull_request"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{
		Labels: []LabelSpec{
			{Name: "addition", Description: "New library element.", Color: "eae435"},
			{Name: "enhancement", Description: "Improving an existing library element.", Color: "a2eeef"},
			{Name: "bug", Description: "An existing library element contains issues.", Color: "d73a4a"},
			{Name: "fix", Description: "Fix an error in an existing library element.", Color: "e99695"},
			{Name: "ready for review", Description: "Waiting for review by maintainers.", Color: "2164e0"},
			{Name: "needs corrections", Description: "Pull request needs corrections before next review.", Color: "c9adff"},
		},
		Settings: SettingsSpec{
			HasIssues:           true,
			HasProjects:         false,
			HasWiki:             false,
			DeleteBranchOnMerge: true,
			DefaultBranch:       "master",
		},
		BranchProtection: BranchProtectionSpec{
			Protected:     true,
			EnforceAdmins: true,
		},
		PullRequest: PullRequestSpec{
			ReviewLabel:           "ready for review",
			TemplateBranch:        "ci/update-templates",
			TemplateTitle:         "Update files from template",
			TemplateBody:          "This pull request was opened automatically to keep shared files in sync with the organization template.",
			TemplateCommitMessage: "Update files from template",
			UpgradeBranch:         "ci/upgrade-file-format",
			UpgradeTitle:          "Upgrade file format to " + VersionPlaceholder,
			UpgradeBody:           "This pull request was opened automatically to upgrade all library elements to the file format of version " + VersionPlaceholder + ".",
			UpgradeCommitMessage:  "Upgrade file format to " + VersionPlaceholder,
		},
	}
}

// LoadFromFile loads a catalog file on top of the built-in catalog. Keys
// present in the file replace the built-in values. A relative template_dir
// is resolved against the directory of the file.
func LoadFromFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	if c.TemplateDir != "" && !filepath.IsAbs(c.TemplateDir) {
		c.TemplateDir = filepath.Join(filepath.Dir(path), c.TemplateDir)
	}

	return c, nil
}

// WriteFile writes the catalog as YAML so it can be edited and loaded with
// LoadFromFile.
func (c *Catalog) WriteFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	return nil
}

// Label returns the catalog entry with exactly the given name.
func (c *Catalog) Label(name string) (LabelSpec, bool) {
	for _, l := range c.Labels {
		if l.Name == name {
			return l, true
		}
	}
	return LabelSpec{}, false
}

// UpgradeText substitutes the upgrade version into s.
func UpgradeText(s, version string) string {
	return strings.ReplaceAll(s, VersionPlaceholder, version)
}

// Validate checks the catalog for values the hosting API would reject or
// that would make the reconcilers ambiguous.
func (c *Catalog) Validate() error {
	var errs ValidationErrors

	seen := make(map[string]bool)
	for i, l := range c.Labels {
		field := fmt.Sprintf("labels[%d]", i)
		if l.Name == "" {
			errs.Add(field+".name", "", "label name is required")
			continue
		}
		if seen[l.Name] {
			errs.Add(field+".name", l.Name, "duplicate label name")
		}
		seen[l.Name] = true
		if !colorPattern.MatchString(l.Color) {
			errs.Add(field+".color", l.Color, "color must be 6 lowercase hex digits without '#'")
		}
		if len(l.Description) > 100 {
			errs.Add(field+".description", l.Name, "description must be 100 characters or less")
		}
	}

	if c.Settings.DefaultBranch == "" {
		errs.Add("settings.default_branch", "", "default branch name is required")
	}

	if c.BranchProtection.EnforceAdmins && !c.BranchProtection.Protected {
		errs.Add("branch_protection.enforce_admins", "true", "admin enforcement requires protected: true")
	}

	if c.TemplateDir != "" {
		info, err := os.Stat(c.TemplateDir)
		switch {
		case err != nil:
			errs.Add("template_dir", c.TemplateDir, err.Error())
		case !info.IsDir():
			errs.Add("template_dir", c.TemplateDir, "template_dir must be a directory")
		}
	}

	pr := c.PullRequest
	if pr.TemplateBranch == "" {
		errs.Add("pull_request.template_branch", "", "template branch name is required")
	}
	if pr.UpgradeBranch == "" {
		errs.Add("pull_request.upgrade_branch", "", "upgrade branch name is required")
	}
	if pr.TemplateBranch != "" && pr.TemplateBranch == pr.UpgradeBranch {
		errs.Add("pull_request.upgrade_branch", pr.UpgradeBranch, "upgrade and template branches must differ")
	}
	if pr.TemplateBranch == c.Settings.DefaultBranch || pr.UpgradeBranch == c.Settings.DefaultBranch {
		errs.Add("pull_request", c.Settings.DefaultBranch, "change branches must not be the default branch")
	}
	if pr.ReviewLabel != "" {
		if _, ok := c.Label(pr.ReviewLabel); !ok {
			errs.Add("pull_request.review_label", pr.ReviewLabel, "review label must be one of the catalog labels")
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
