package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"reposync/pkg/syncer"
)

var pathsCmd = &cobra.Command{
	Use:   "paths [keyword]",
	Short: "List configured sync paths",
	Long: `List the configured sync paths with their repository path and local state.
A keyword narrows the list the same way upload and download do.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPaths,
}

type pathRow struct {
	Local  string
	Remote string
	Status string
	Size   int64
}

const (
	statusPresent   = "present"
	statusMissing   = "missing locally"
	statusDirectory = "directory"
)

// describePaths reports the local state of each non-blank path
func describePaths(fs afero.Fs, paths []string) []pathRow {
	rows := make([]pathRow, 0, len(paths))
	for _, p := range paths {
		local := strings.TrimSpace(p)
		if local == "" {
			continue
		}

		row := pathRow{Local: local, Remote: syncer.RemotePath(local), Status: statusMissing}
		if info, err := fs.Stat(local); err == nil {
			if info.IsDir() {
				row.Status = statusDirectory
			} else {
				row.Status = statusPresent
				row.Size = info.Size()
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func renderPaths(w io.Writer, rows []pathRow) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Local Path", "Repository Path", "Status", "Size"})
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)

	for _, row := range rows {
		size := "-"
		if row.Status == statusPresent {
			size = strconv.FormatInt(row.Size, 10)
		}
		table.Append([]string{row.Local, row.Remote, row.Status, size})
	}
	table.Render()
}

func runPaths(cmd *cobra.Command, args []string) error {
	keyword := ""
	if len(args) > 0 {
		keyword = args[0]
	}

	cfg, err := newStore().Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Repository: %s\n", valueOr(syncer.SanitizeRepo(cfg.GitHubRepo), "(not set)"))
	fmt.Fprintf(out, "Auto-sync: %s\n\n", autoSyncSummary(cfg.EnableAutoSync, cfg.Interval().String()))

	rows := describePaths(afero.NewOsFs(), syncer.FilterPaths(cfg.SyncPaths, keyword))
	if len(rows) == 0 {
		if keyword == "" || strings.EqualFold(keyword, "all") {
			fmt.Fprintln(out, "No sync paths configured")
		} else {
			fmt.Fprintf(out, "No sync paths match '%s'\n", keyword)
		}
		return nil
	}

	renderPaths(out, rows)
	return nil
}

func autoSyncSummary(enabled bool, interval string) string {
	if !enabled {
		return "disabled"
	}
	return "every " + interval
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
