package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/jpalmerr/lectureassist/internal/history"
	"github.com/spf13/cobra"
)

// historyCmd lists recorded uploads.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List uploaded lectures",
	Long: `List uploads recorded in the history database, newest first.

The database path comes from history_path in the config file or the
--history flag.

Example:
  lectureassist history -c config.yaml
  lectureassist history --history ~/.lectureassist/history.db --pending`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntP("limit", "n", 20, "maximum entries to list (0 for all)")
	historyCmd.Flags().Bool("pending", false, "only list jobs that have not finished")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.HistoryPath == "" {
		return fmt.Errorf("no history database configured (set history_path or --history)")
	}

	hist, err := openHistory(cmd.Context(), cfg.HistoryPath)
	if err != nil {
		return err
	}
	defer func() { _ = hist.Close() }()

	var entries []history.Entry
	if pending, _ := cmd.Flags().GetBool("pending"); pending {
		entries, err = hist.Pending(cmd.Context())
	} else {
		limit, _ := cmd.Flags().GetInt("limit")
		entries, err = hist.List(cmd.Context(), limit)
	}
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	return printHistory(cmd.OutOrStdout(), entries)
}

func printHistory(out io.Writer, entries []history.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(out, "No uploads recorded.")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "JOB ID\tSTATUS\tTITLE\tUPLOADED")
	for _, e := range entries {
		title := e.Title
		if title == "" {
			title = e.FileName
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.JobID, e.Status, title, e.UploadedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}
