package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reposync/internal/auth"
	"reposync/internal/logging"
	"reposync/pkg/config"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
)

// errReported means the failure was already printed to the user
var errReported = errors.New("failed")

var rootCmd = &cobra.Command{
	Use:   "reposync",
	Short: "Keep local files in sync with a GitHub repository",
	Long: `Reposync backs up a list of local files to a GitHub repository through the
Contents API and restores them from it. Each configured path maps to the same
path in the repository.

Run it on demand with upload and download, or leave it running with daemon to
upload on a fixed interval.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

func Execute() {
	defer func() { _ = logging.Sync() }()

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		_ = logging.Sync()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Configuration file (default ~/.reposync/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides log.level)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console or json (overrides log.format)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(pathsCmd)
	rootCmd.AddCommand(daemonCmd)
}

// tokenStore is replaced in tests
var tokenStore = func() auth.TokenStore {
	return auth.NewKeyringStore("")
}

// newStore resolves the token from GITHUB_TOKEN, the file, then the keyring
func newStore() *config.FileStore {
	return config.NewFileStore(cfgFile).WithTokenFallback(auth.TokenFallback(tokenStore()))
}

// setupLogging applies flags over the file's log section. A broken file is
// reported later by the command that needs it.
func setupLogging(_ *cobra.Command, _ []string) error {
	level, format := logLevel, logFormat

	if level == "" || format == "" {
		if path, err := config.NewFileStore(cfgFile).Path(); err == nil {
			if cfg, err := config.LoadConfigFromPath(path); err == nil {
				if level == "" {
					level = cfg.Log.Level
				}
				if format == "" {
					format = cfg.Log.Format
				}
			}
		}
	}

	return logging.Init(logging.Config{Level: level, Format: format})
}
