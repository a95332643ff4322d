package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultIntervalMinutes is used when sync_interval is missing or not positive
	DefaultIntervalMinutes = 60

	// DefaultCommitMessage is the commit message template for uploads
	DefaultCommitMessage = "Update {path} via reposync"

	// DefaultRestartMarker marks the core configuration file of the host process
	DefaultRestartMarker = "cmd_config.json"

	// TokenEnvVar overrides the configured token when set
	TokenEnvVar = "GITHUB_TOKEN"
)

// Config represents the reposync configuration
type Config struct {
	GitHubToken     string    `yaml:"github_token"`
	GitHubRepo      string    `yaml:"github_repo"`
	GitHubAPIURL    string    `yaml:"github_api_url,omitempty"`
	SyncPaths       PathList  `yaml:"sync_paths"`
	SyncInterval    int       `yaml:"sync_interval"`
	EnableAutoSync  bool      `yaml:"enable_auto_sync"`
	TriggerUpload   bool      `yaml:"trigger_upload"`
	TriggerDownload bool      `yaml:"trigger_download"`
	CommitMessage   string    `yaml:"commit_message,omitempty"`
	RestartMarker   string    `yaml:"restart_marker,omitempty"`
	Log             LogConfig `yaml:"log"`
	MetricsAddr     string    `yaml:"metrics_addr,omitempty"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// PathList is a list of sync paths. In YAML it may be written either as a
// single string or as a sequence of strings.
type PathList []string

// UnmarshalYAML accepts a scalar or a sequence
func (p *PathList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*p = nil
			return nil
		}
		var single string
		if err := value.Decode(&single); err != nil {
			return err
		}
		if strings.TrimSpace(single) == "" {
			*p = nil
			return nil
		}
		*p = PathList{single}
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := value.Decode(&many); err != nil {
			return err
		}
		*p = many
		return nil
	default:
		return fmt.Errorf("sync_paths must be a string or a list of strings")
	}
}

// Interval returns the configured sync interval, falling back to
// DefaultIntervalMinutes when the value is not positive
func (c *Config) Interval() time.Duration {
	minutes := c.SyncInterval
	if minutes <= 0 {
		minutes = DefaultIntervalMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// CommitMessageFor renders the commit message template for a remote path
func (c *Config) CommitMessageFor(remotePath string) string {
	tmpl := c.CommitMessage
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultCommitMessage
	}
	return strings.ReplaceAll(tmpl, "{path}", remotePath)
}

// RestartMarkerOrDefault returns the configured restart marker
func (c *Config) RestartMarkerOrDefault() string {
	if c.RestartMarker == "" {
		return DefaultRestartMarker
	}
	return c.RestartMarker
}

// LoadConfigFromPath loads configuration from a specific path. Files with an
// .ini or .cfg extension are parsed as INI, everything else as YAML.
func LoadConfigFromPath(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil // Return empty config if file doesn't exist
	}

	if isINI(path) {
		return loadINI(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

func isINI(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini", ".cfg":
		return true
	default:
		return false
	}
}

// loadINI reads the flat INI form. Keys live in the default section, the
// log settings in a [log] section.
func loadINI(path string) (*Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	sec := file.Section("")
	config := &Config{
		GitHubToken:     sec.Key("github_token").String(),
		GitHubRepo:      sec.Key("github_repo").String(),
		GitHubAPIURL:    sec.Key("github_api_url").String(),
		SyncInterval:    sec.Key("sync_interval").MustInt(0),
		EnableAutoSync:  sec.Key("enable_auto_sync").MustBool(false),
		TriggerUpload:   sec.Key("trigger_upload").MustBool(false),
		TriggerDownload: sec.Key("trigger_download").MustBool(false),
		CommitMessage:   sec.Key("commit_message").String(),
		RestartMarker:   sec.Key("restart_marker").String(),
		MetricsAddr:     sec.Key("metrics_addr").String(),
	}

	for _, p := range sec.Key("sync_paths").Strings(",") {
		if p != "" {
			config.SyncPaths = append(config.SyncPaths, p)
		}
	}

	if file.HasSection("log") {
		logSec := file.Section("log")
		config.Log.Level = logSec.Key("level").String()
		config.Log.Format = logSec.Key("format").String()
	}

	return config, nil
}

// SaveConfigToPath saves configuration as YAML to a specific path
func (c *Config) SaveConfigToPath(path string) error {
	// Create config directory if it doesn't exist
	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file may hold a token
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".reposync", "config.yaml"), nil
}

// Validate reports configuration that will make every sync pass fail
func (c *Config) Validate() error {
	if strings.TrimSpace(c.GitHubRepo) == "" {
		return fmt.Errorf("github_repo is required")
	}

	if len(c.SyncPaths) == 0 {
		return fmt.Errorf("sync_paths must contain at least one path")
	}

	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}

	return nil
}
