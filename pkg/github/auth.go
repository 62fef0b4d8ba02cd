package github

import (
	"context"
	"fmt"
	"os"
	"strings"

	ghauth "github.com/cli/go-gh/v2/pkg/auth"
	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
	"k8s.io/klog/v2"

	"repofleet/pkg/config"
)

const githubHost = "github.com"

// AuthManager handles GitHub authentication
type AuthManager struct {
	client *github.Client
	token  string

	// ghToken looks up credentials stored by the gh CLI
	ghToken func(host string) (string, string)
}

// NewAuthManager creates a new authentication manager
func NewAuthManager() *AuthManager {
	return &AuthManager{ghToken: ghauth.TokenForHost}
}

// GetToken retrieves the GitHub token. GITHUB_TOKEN wins over the config
// file, which wins over credentials of the gh CLI.
func (am *AuthManager) GetToken(cfg *config.Config) (string, error) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return strings.TrimSpace(token), nil
	}

	if cfg != nil && cfg.GitHub.Token != "" {
		return strings.TrimSpace(cfg.GitHub.Token), nil
	}

	if am.ghToken != nil {
		if token, source := am.ghToken(githubHost); token != "" {
			klog.V(2).Infof("using GitHub token from %s", source)
			return strings.TrimSpace(token), nil
		}
	}

	return "", fmt.Errorf("no GitHub token found: set GITHUB_TOKEN, configure a token in ~/.repofleet/config.yaml or run 'gh auth login'")
}

// Authenticate sets up the GitHub client with the provided token
func (am *AuthManager) Authenticate(token string) error {
	if token == "" {
		return fmt.Errorf("GitHub token cannot be empty")
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(context.Background(), ts)

	am.client = github.NewClient(tc)
	am.token = token

	return nil
}

// ValidateToken validates the GitHub token and checks permissions. Scopes
// are only checked for classic tokens; fine-grained tokens report none.
func (am *AuthManager) ValidateToken(ctx context.Context) (*TokenInfo, error) {
	if am.client == nil {
		return nil, fmt.Errorf("not authenticated: call Authenticate() first")
	}

	user, resp, err := am.client.Users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to validate GitHub token: %w", WrapGitHubError(err, "authenticated user"))
	}

	tokenInfo := &TokenInfo{
		User:   user.GetLogin(),
		Scopes: []string{},
	}

	scopeHeader := resp.Header.Get("X-OAuth-Scopes")
	if scopeHeader == "" {
		return tokenInfo, nil
	}
	tokenInfo.Scopes = strings.Split(strings.ReplaceAll(scopeHeader, " ", ""), ",")

	if err := am.validatePermissions(tokenInfo.Scopes); err != nil {
		return tokenInfo, err
	}

	return tokenInfo, nil
}

// validatePermissions checks if the token has required permissions
func (am *AuthManager) validatePermissions(scopes []string) error {
	requiredScopes := []string{"repo"}
	scopeMap := make(map[string]bool)

	for _, scope := range scopes {
		scopeMap[scope] = true
	}

	var missingScopes []string
	for _, required := range requiredScopes {
		if !scopeMap[required] {
			missingScopes = append(missingScopes, required)
		}
	}

	if len(missingScopes) > 0 {
		return fmt.Errorf("GitHub token missing required permissions: %s. Please ensure your token has the following scopes: %s",
			strings.Join(missingScopes, ", "), strings.Join(requiredScopes, ", "))
	}

	return nil
}

// Token returns the token passed to Authenticate
func (am *AuthManager) Token() string {
	return am.token
}

// TokenInfo contains information about the authenticated token
type TokenInfo struct {
	User   string   `json:"user"`
	Scopes []string `json:"scopes"`
}

// AuthenticateFromConfig is a convenience method that handles the full authentication flow
func (am *AuthManager) AuthenticateFromConfig(ctx context.Context, cfg *config.Config) (*TokenInfo, error) {
	token, err := am.GetToken(cfg)
	if err != nil {
		return nil, err
	}

	if err := am.Authenticate(token); err != nil {
		return nil, err
	}

	return am.ValidateToken(ctx)
}

// GetAuthInstructions returns instructions for setting up GitHub authentication
func GetAuthInstructions() string {
	return `GitHub authentication is required. Please set up authentication using one of the following methods:

1. Environment Variable (Recommended for CI/CD):
   export GITHUB_TOKEN="your_personal_access_token"

2. Configuration File:
   Add the following to ~/.repofleet/config.yaml:

   github:
     token: "your_personal_access_token"

3. GitHub CLI:
   gh auth login

The token needs admin access to every repository of the organization:
labels, settings and branch protection are changed through the API.
For classic tokens select the 'repo' scope.`
}
