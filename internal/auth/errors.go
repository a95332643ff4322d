package auth

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/zalando/go-keyring"

	"reposync/pkg/github"
)

// ErrorType represents different types of token errors
type ErrorType string

const (
	ErrorTypeNoToken            ErrorType = "no_token"
	ErrorTypeTokenRejected      ErrorType = "token_rejected"
	ErrorTypeMissingScope       ErrorType = "missing_scope"
	ErrorTypeNetwork            ErrorType = "network"
	ErrorTypeRateLimited        ErrorType = "rate_limited"
	ErrorTypeKeyringUnavailable ErrorType = "keyring_unavailable"
	ErrorTypeUnknown            ErrorType = "unknown"
)

// Error is a token error with troubleshooting guidance
type Error struct {
	Type                 ErrorType `json:"type"`
	Message              string    `json:"message"`
	OriginalError        error     `json:"-"`
	TroubleshootingSteps []string  `json:"troubleshooting_steps"`
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the original error for error unwrapping
func (e *Error) Unwrap() error {
	return e.OriginalError
}

// IsRetryable returns true if trying again later may succeed
func (e *Error) IsRetryable() bool {
	return e.Type == ErrorTypeNetwork || e.Type == ErrorTypeRateLimited
}

// GetTroubleshootingMessage returns a formatted troubleshooting message
func (e *Error) GetTroubleshootingMessage() string {
	if len(e.TroubleshootingSteps) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\nTroubleshooting steps:\n")
	for i, step := range e.TroubleshootingSteps {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, step))
	}
	return sb.String()
}

// ErrNoToken is returned when no source provides a token
var ErrNoToken = &Error{
	Type:    ErrorTypeNoToken,
	Message: "no GitHub token configured",
	TroubleshootingSteps: []string{
		"Run 'reposync auth login' to store a token in the system keyring",
		"Or export GITHUB_TOKEN",
		"Or set github_token in ~/.reposync/config.yaml",
	},
}

// ClassifyError analyzes an error from token validation or storage
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr
	}

	if errors.Is(err, keyring.ErrUnsupportedPlatform) || strings.Contains(strings.ToLower(err.Error()), "secret service") {
		return &Error{
			Type:          ErrorTypeKeyringUnavailable,
			Message:       "System keyring is not available",
			OriginalError: err,
			TroubleshootingSteps: []string{
				"Export GITHUB_TOKEN instead",
				"Or set github_token in the configuration file (it is stored in plain text)",
				"On Linux, make sure a Secret Service provider such as gnome-keyring is running",
			},
		}
	}

	var ghErr *github.Error
	if errors.As(err, &ghErr) {
		return classifyGitHubError(err, ghErr)
	}

	if strings.Contains(err.Error(), "missing required permissions") {
		return missingScopeError(err)
	}

	if isNetworkError(err) {
		return networkError(err)
	}

	return &Error{
		Type:          ErrorTypeUnknown,
		Message:       fmt.Sprintf("Token check failed: %v", err),
		OriginalError: err,
		TroubleshootingSteps: []string{
			"Try running the command again",
			"Run with --log-level debug for details",
		},
	}
}

func classifyGitHubError(err error, ghErr *github.Error) *Error {
	switch ghErr.Type {
	case github.ErrorTypeAuth:
		return &Error{
			Type:          ErrorTypeTokenRejected,
			Message:       "GitHub rejected the token",
			OriginalError: err,
			TroubleshootingSteps: []string{
				"Check that the token has not expired or been revoked",
				"Run 'reposync auth login' to store a new token",
				"Make sure GITHUB_TOKEN is not set to a stale value",
			},
		}
	case github.ErrorTypeRateLimit:
		return &Error{
			Type:          ErrorTypeRateLimited,
			Message:       "GitHub API rate limit exceeded",
			OriginalError: err,
			TroubleshootingSteps: []string{
				"Wait for the rate limit window to reset",
				"Increase sync_interval to make fewer calls",
			},
		}
	case github.ErrorTypePermission:
		return missingScopeError(err)
	case github.ErrorTypeNetwork:
		return networkError(err)
	default:
		return &Error{
			Type:          ErrorTypeUnknown,
			Message:       ghErr.Error(),
			OriginalError: err,
		}
	}
}

func missingScopeError(err error) *Error {
	return &Error{
		Type:          ErrorTypeMissingScope,
		Message:       "Token is valid but cannot write repository contents",
		OriginalError: err,
		TroubleshootingSteps: []string{
			"Create a classic token with the 'repo' scope",
			"Or a fine-grained token with 'Contents: read and write' on the target repository",
		},
	}
}

func networkError(err error) *Error {
	return &Error{
		Type:          ErrorTypeNetwork,
		Message:       "Unable to reach the GitHub API",
		OriginalError: err,
		TroubleshootingSteps: []string{
			"Check your internet connection",
			"Verify github_api_url if you use GitHub Enterprise",
			"Check firewall and proxy settings",
		},
	}
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, keyword := range []string{"connection refused", "no such host", "dial tcp", "i/o timeout"} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}
