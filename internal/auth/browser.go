package auth

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

// BrowserOpener defines the interface for opening URLs in the default browser
type BrowserOpener interface {
	Open(url string) error
}

// DefaultBrowserOpener implements cross-platform browser opening
type DefaultBrowserOpener struct{}

// NewBrowserOpener creates a new browser opener instance
func NewBrowserOpener() *DefaultBrowserOpener {
	return &DefaultBrowserOpener{}
}

// Open opens the specified URL in the default browser
func (b *DefaultBrowserOpener) Open(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}

// TokenPageURL returns the page that creates a classic token with the repo
// scope. apiURL selects a GitHub Enterprise host; empty means github.com.
func TokenPageURL(apiURL string) (string, error) {
	host := "https://github.com"
	if apiURL = strings.TrimSpace(apiURL); apiURL != "" {
		u, err := url.Parse(apiURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return "", fmt.Errorf("invalid GitHub API URL %q", apiURL)
		}
		host = u.Scheme + "://" + strings.TrimPrefix(u.Host, "api.")
	}

	q := url.Values{}
	q.Set("scopes", "repo")
	q.Set("description", "reposync")
	return host + "/settings/tokens/new?" + q.Encode(), nil
}
