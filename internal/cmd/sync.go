package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"reposync/internal/logging"
	"reposync/pkg/config"
	"reposync/pkg/fuzzy"
	"reposync/pkg/syncer"
)

var (
	syncPick       bool
	syncNoProgress bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload [keyword]",
	Short: "Upload configured paths to the repository",
	Long: `Upload every configured sync path to the repository, or only the paths whose
name contains keyword (case-insensitive). "all" selects every path.

Missing local files are skipped. An invalid token stops the pass at the first
file it is detected on.

Examples:
  reposync upload
  reposync upload json
  reposync upload --pick`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd, args, syncer.DirectionUpload)
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download [keyword]",
	Short: "Download configured paths from the repository",
	Long: `Download every configured sync path from the repository, or only the paths
whose name contains keyword (case-insensitive), overwriting the local files.
Parent directories are created as needed.

When the host's core configuration file is replaced, a restart reminder is
printed after the report.

Examples:
  reposync download
  reposync download cmd_config`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd, args, syncer.DirectionDownload)
	},
}

func init() {
	for _, c := range []*cobra.Command{uploadCmd, downloadCmd} {
		c.Flags().BoolVar(&syncPick, "pick", false, "Choose the path interactively")
		c.Flags().BoolVar(&syncNoProgress, "no-progress", false, "Do not draw a progress bar")
	}
}

// newSyncer is replaced in tests
var newSyncer = func(store config.Store) *syncer.Syncer {
	return syncer.New(store, syncer.WithLogger(logging.L()))
}

// newPathFinder is replaced in tests
var newPathFinder = func(prompt string) fuzzy.FzfFinderInterface {
	return fuzzy.NewFzf(prompt)
}

var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

var stderrIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func runSync(cmd *cobra.Command, args []string, direction syncer.Direction) error {
	keyword := ""
	if len(args) > 0 {
		keyword = args[0]
	}

	var store config.Store = newStore()
	if syncPick {
		picked, err := pickKeyword(store)
		if err != nil {
			return err
		}
		keyword = ""
		if picked != "all" {
			store = &pickedPathStore{Store: store, path: picked}
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var reporters syncer.Reporters
	if !syncNoProgress && stderrIsTerminal() {
		reporters = append(reporters, syncer.NewProgressReporter(cmd.ErrOrStderr()))
	}
	reporters = append(reporters, syncer.NewWriterReporter(cmd.OutOrStdout()))

	report, err := runPass(ctx, newSyncer(store), direction, keyword, reporters)
	if err != nil || report.Failed() {
		return errReported
	}
	return nil
}

func runPass(ctx context.Context, s *syncer.Syncer, direction syncer.Direction, keyword string, reporter syncer.Reporter) (*syncer.Report, error) {
	if direction == syncer.DirectionDownload {
		return s.Download(ctx, keyword, reporter)
	}
	return s.Upload(ctx, keyword, reporter)
}

// pickKeyword lets the user choose one configured path, or all of them
func pickKeyword(store config.Store) (string, error) {
	if !stdinIsTerminal() {
		return "", errors.New("--pick needs an interactive terminal")
	}

	cfg, err := store.Load()
	if err != nil {
		return "", err
	}
	if len(cfg.SyncPaths) == 0 {
		return "", errors.New("no sync paths configured")
	}

	finder := newPathFinder("sync path>")
	if err := finder.SetOptions(pathOptions(afero.NewOsFs(), cfg.SyncPaths)); err != nil {
		return "", err
	}
	return finder.Select()
}

// pickedPathStore narrows the configured paths to the one the user picked
type pickedPathStore struct {
	config.Store
	path string
}

func (s *pickedPathStore) Load() (*config.Config, error) {
	cfg, err := s.Store.Load()
	if err != nil {
		return nil, err
	}

	var paths config.PathList
	for _, p := range cfg.SyncPaths {
		if strings.TrimSpace(p) == s.path {
			paths = append(paths, p)
		}
	}
	cfg.SyncPaths = paths
	return cfg, nil
}

func pathOptions(fs afero.Fs, paths []string) []fuzzy.Option {
	options := []fuzzy.Option{{Value: "all", Description: "every configured path"}}
	for _, row := range describePaths(fs, paths) {
		options = append(options, fuzzy.Option{Value: row.Local, Description: row.Status})
	}
	return options
}
