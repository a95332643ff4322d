package github

import (
	"context"
	"fmt"
	"strings"

	"reposync/pkg/config"
)

// AuthManager handles GitHub authentication
type AuthManager struct {
	client *Client
	token  string
	opts   []Option
}

// NewAuthManager creates a new authentication manager. The options are
// applied to the client built by Authenticate.
func NewAuthManager(opts ...Option) *AuthManager {
	return &AuthManager{opts: opts}
}

// GetToken returns the token of an already resolved configuration.
// config.FileStore applies the environment and keyring overrides.
func (am *AuthManager) GetToken(cfg *config.Config) (string, error) {
	if cfg != nil && strings.TrimSpace(cfg.GitHubToken) != "" {
		return strings.TrimSpace(cfg.GitHubToken), nil
	}

	return "", fmt.Errorf("no GitHub token found: set %s, run 'reposync auth login', or configure github_token in ~/.reposync/config.yaml", config.TokenEnvVar)
}

// Authenticate sets up the GitHub client with the provided token
func (am *AuthManager) Authenticate(token string) error {
	if token == "" {
		return fmt.Errorf("GitHub token cannot be empty")
	}

	client, err := NewClient(token, am.opts...)
	if err != nil {
		return err
	}

	am.client = client
	am.token = token

	return nil
}

// ValidateToken validates the GitHub token and checks permissions. The token
// info is returned even when a scope is missing.
func (am *AuthManager) ValidateToken(ctx context.Context) (*TokenInfo, error) {
	if am.client == nil {
		return nil, fmt.Errorf("not authenticated: call Authenticate() first")
	}

	tokenInfo, err := am.client.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to validate GitHub token: %w", err)
	}

	if err := am.validatePermissions(tokenInfo.Scopes); err != nil {
		return tokenInfo, err
	}

	return tokenInfo, nil
}

// validatePermissions checks that a classic token can write repository
// contents. Fine-grained tokens carry no scope header and are not checked.
func (am *AuthManager) validatePermissions(scopes []string) error {
	if len(scopes) == 0 {
		return nil
	}

	for _, scope := range scopes {
		if scope == "repo" || scope == "public_repo" {
			return nil
		}
	}

	return fmt.Errorf("GitHub token missing required permissions: needs repo (or public_repo for public repositories), has %s",
		strings.Join(scopes, ", "))
}

// GetClient returns the authenticated client
func (am *AuthManager) GetClient() *Client {
	return am.client
}

// AuthenticateFromConfig resolves, installs and validates the token
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

2. System keyring:
   reposync auth login

3. Configuration File:
   Add the following to ~/.reposync/config.yaml:

   github_token: "your_personal_access_token"

To create a personal access token:
1. Go to GitHub Settings > Developer settings > Personal access tokens
2. Generate a classic token with the repo scope, or a fine-grained token
   with read and write access to repository contents
3. Copy the generated token and use it with one of the methods above`
}
