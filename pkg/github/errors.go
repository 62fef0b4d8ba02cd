package github

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v66/github"
)

// ErrorType represents different categories of GitHub API errors
type ErrorType string

const (
	ErrorTypeAuth       ErrorType = "authentication"
	ErrorTypePermission ErrorType = "permission"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeRateLimit  ErrorType = "rate_limit"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// GitHubError represents a failed call to the GitHub API. repofleet never
// retries these; they abort processing of the current repository.
type GitHubError struct {
	Type     ErrorType `json:"type"`
	Message  string    `json:"message"`
	Cause    error     `json:"-"`
	Resource string    `json:"resource,omitempty"`
	Field    string    `json:"field,omitempty"`
	Code     string    `json:"code,omitempty"`
}

// Error implements the error interface
func (e *GitHubError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s error for %s: %s", e.Type, e.Resource, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *GitHubError) Unwrap() error {
	return e.Cause
}

// IsNotFound reports whether err is a GitHub 404
func IsNotFound(err error) bool {
	var ghErr *GitHubError
	return errors.As(err, &ghErr) && ghErr.Type == ErrorTypeNotFound
}

// WrapGitHubError wraps a GitHub API error into our structured error type
func WrapGitHubError(err error, resource string) *GitHubError {
	if err == nil {
		return nil
	}

	var ghErr *GitHubError
	if errors.As(err, &ghErr) {
		if ghErr.Resource == "" {
			ghErr.Resource = resource
		}
		return ghErr
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return &GitHubError{
			Type:     ErrorTypeRateLimit,
			Message:  fmt.Sprintf("Rate limit exceeded. Reset at %v", rateErr.Rate.Reset.Time),
			Cause:    err,
			Resource: resource,
		}
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		return parseGitHubAPIError(respErr, resource)
	}

	if isNetworkError(err) {
		return &GitHubError{
			Type:     ErrorTypeNetwork,
			Message:  "Network error occurred. Please check your connection and try again",
			Cause:    err,
			Resource: resource,
		}
	}

	return &GitHubError{
		Type:     ErrorTypeUnknown,
		Message:  err.Error(),
		Cause:    err,
		Resource: resource,
	}
}

// parseGitHubAPIError parses GitHub API error responses into structured errors
func parseGitHubAPIError(ghErr *github.ErrorResponse, resource string) *GitHubError {
	baseErr := &GitHubError{
		Resource: resource,
		Cause:    ghErr,
	}

	switch ghErr.Response.StatusCode {
	case http.StatusUnauthorized:
		baseErr.Type = ErrorTypeAuth
		baseErr.Message = "Authentication failed. Please check your GitHub token"

	case http.StatusForbidden:
		if strings.Contains(strings.ToLower(ghErr.Message), "rate limit") {
			baseErr.Type = ErrorTypeRateLimit
			baseErr.Message = "GitHub API rate limit exceeded"
		} else {
			baseErr.Type = ErrorTypePermission
			baseErr.Message = "Insufficient permissions. The token needs admin access to the repository"
		}

	case http.StatusNotFound:
		baseErr.Type = ErrorTypeNotFound
		switch {
		case strings.Contains(resource, "branch"):
			baseErr.Message = "Branch not found. Check the default branch name in the catalog"
		case strings.Contains(resource, "organization"):
			baseErr.Message = "Organization not found. Check the organization name and your access permissions"
		default:
			baseErr.Message = "Resource not found"
		}

	case http.StatusConflict:
		baseErr.Type = ErrorTypeConflict
		baseErr.Message = "Resource conflict occurred"

	case http.StatusUnprocessableEntity:
		baseErr.Type = ErrorTypeValidation
		baseErr.Message = "Validation failed"

		if len(ghErr.Errors) > 0 {
			var validationErrors []string
			for _, err := range ghErr.Errors {
				if err.Field != "" {
					validationErrors = append(validationErrors, fmt.Sprintf("%s: %s", err.Field, err.Code))
					if baseErr.Field == "" {
						baseErr.Field = err.Field
						baseErr.Code = err.Code
					}
				} else {
					validationErrors = append(validationErrors, err.Message)
				}
			}
			baseErr.Message = fmt.Sprintf("Validation failed: %s", strings.Join(validationErrors, "; "))
		}

	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		baseErr.Type = ErrorTypeNetwork
		baseErr.Message = "GitHub API is temporarily unavailable. Please try again later"

	default:
		baseErr.Type = ErrorTypeUnknown
		baseErr.Message = ghErr.Message
	}

	return baseErr
}

// isNetworkError checks if an error is a network-related error
func isNetworkError(err error) bool {
	errStr := strings.ToLower(err.Error())
	networkKeywords := []string{
		"connection refused",
		"connection reset",
		"connection timeout",
		"network is unreachable",
		"no such host",
		"timeout",
		"dial tcp",
		"i/o timeout",
	}

	for _, keyword := range networkKeywords {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}
