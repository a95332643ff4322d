package github

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// RemoteFile is the metadata and inline content of one file as returned by
// the Contents API
type RemoteFile struct {
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Size     int    `json:"size"`
	Encoding string `json:"encoding"`
	// Content is the raw field from the API: base64, wrapped with newlines
	Content string `json:"content"`
}

// Decode returns the file bytes. GitHub wraps the base64 payload at 60
// columns, so embedded newlines are removed before decoding.
func (f *RemoteFile) Decode() ([]byte, error) {
	switch f.Encoding {
	case "", "base64":
	case "none":
		// The API stops inlining content above 1 MB
		return nil, fmt.Errorf("content of %s is not inlined by the API (size %d bytes)", f.Path, f.Size)
	default:
		return nil, fmt.Errorf("unsupported content encoding %q for %s", f.Encoding, f.Path)
	}

	cleaned := strings.NewReplacer("\n", "", "\r", "").Replace(f.Content)
	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("failed to decode content of %s: %w", f.Path, err)
	}
	return data, nil
}

// PutResult describes a successful create or update
type PutResult struct {
	StatusCode int    `json:"status_code"`
	Created    bool   `json:"created"`
	SHA        string `json:"sha"`
	CommitSHA  string `json:"commit_sha"`
}

// TokenInfo contains information about the authenticated token
type TokenInfo struct {
	User   string   `json:"user"`
	Scopes []string `json:"scopes"`
}
