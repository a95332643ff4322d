package config

import (
	"os"
	"strings"
)

// Store hands out the current configuration. Implementations must not cache:
// every call reflects the latest state of the backing source.
type Store interface {
	Load() (*Config, error)
}

// TokenFallback is consulted when neither the environment nor the file
// provides a token
type TokenFallback func() (string, error)

// FileStore re-reads a configuration file on every Load
type FileStore struct {
	path     string
	fallback TokenFallback
}

// NewFileStore creates a store for path. An empty path means the default
// location returned by GetConfigPath.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// WithTokenFallback sets the token source used when no token is configured
func (s *FileStore) WithTokenFallback(fallback TokenFallback) *FileStore {
	s.fallback = fallback
	return s
}

// Path returns the resolved configuration file path
func (s *FileStore) Path() (string, error) {
	if s.path != "" {
		return s.path, nil
	}
	return GetConfigPath()
}

// Load reads the file and applies the token resolution order:
// GITHUB_TOKEN, then github_token, then the fallback
func (s *FileStore) Load() (*Config, error) {
	path, err := s.Path()
	if err != nil {
		return nil, err
	}

	cfg, err := LoadConfigFromPath(path)
	if err != nil {
		return nil, err
	}

	if token := os.Getenv(TokenEnvVar); token != "" {
		cfg.GitHubToken = token
	}
	cfg.GitHubToken = strings.TrimSpace(cfg.GitHubToken)

	if cfg.GitHubToken == "" && s.fallback != nil {
		// A broken keyring is the same as no token
		if token, err := s.fallback(); err == nil {
			cfg.GitHubToken = strings.TrimSpace(token)
		}
	}

	return cfg, nil
}

// StaticStore serves a fixed configuration. Each Load returns a copy so
// callers cannot mutate the stored value.
type StaticStore struct {
	Config Config
}

// Load returns a copy of the stored configuration
func (s *StaticStore) Load() (*Config, error) {
	cfg := s.Config
	cfg.SyncPaths = append(PathList(nil), s.Config.SyncPaths...)
	return &cfg, nil
}
