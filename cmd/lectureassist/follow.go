package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jpalmerr/lectureassist"
	"github.com/jpalmerr/lectureassist/config"
	"github.com/jpalmerr/lectureassist/internal/history"
	"github.com/spf13/cobra"
)

// errJobFailed is returned when a followed job ends in FAILED.
var errJobFailed = errors.New("job failed")

// followCmd polls existing jobs until they finish.
var followCmd = &cobra.Command{
	Use:   "follow JOB_ID...",
	Short: "Wait for jobs to finish and print the result",
	Long: `Poll one or more jobs until each reports COMPLETED or FAILED, printing
every status change, then print the lecture text.

Network and server errors are reported and retried with backoff; the
command only gives up when interrupted (Ctrl+C).

Example:
  lectureassist follow 3f2a9c1e
  lectureassist follow 3f2a9c1e --mode summary`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFollow,
}

func init() {
	rootCmd.AddCommand(followCmd)

	followCmd.Flags().StringP("mode", "m", "both", "sections to print: both, summary or transcript")
}

func runFollow(cmd *cobra.Command, args []string) error {
	mode, err := modeFlag(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client, err := config.BuildClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hist, err := openHistory(ctx, cfg.HistoryPath)
	if err != nil {
		return err
	}
	defer func() { _ = hist.Close() }()

	return followAll(ctx, client, hist, args, mode, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func modeFlag(cmd *cobra.Command) (lectureassist.ViewMode, error) {
	raw, _ := cmd.Flags().GetString("mode")
	return lectureassist.ParseViewMode(raw)
}

// openHistory opens the history database, or returns nil when path is empty.
func openHistory(ctx context.Context, path string) (*history.Store, error) {
	if path == "" {
		return nil, nil
	}
	hist, err := history.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return hist, nil
}

// followAll follows each job in turn, printing its text once it finishes.
// Every job is followed even if an earlier one failed.
func followAll(ctx context.Context, client *lectureassist.Client, hist *history.Store, jobIDs []string, mode lectureassist.ViewMode, out, errOut io.Writer) error {
	var failed []string
	for _, jobID := range jobIDs {
		// Unknown ids fail fast; any other status error is left to polling.
		if _, err := client.Status(ctx, jobID); lectureassist.StatusCode(err) == http.StatusNotFound {
			return fmt.Errorf("job %s not found: %w", jobID, err)
		}

		snap, err := followJob(ctx, client, jobID, out, errOut)
		if err != nil {
			return err
		}

		if hist != nil {
			err := hist.UpdateStatus(ctx, snap.JobID, string(snap.Status), snap.Title)
			if err != nil && !errors.Is(err, history.ErrNotFound) {
				fmt.Fprintf(errOut, "%s  failed to update history: %v\n", snap.JobID, err)
			}
		}

		fmt.Fprintln(out)
		fmt.Fprint(out, snap.Text(mode))
		if snap.Status == lectureassist.StatusFailed {
			failed = append(failed, snap.JobID)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%w: %v", errJobFailed, failed)
	}
	return nil
}

// followJob polls jobID until it reaches a terminal status or ctx is
// cancelled. Each status change is printed to out and each failed attempt
// to errOut.
func followJob(ctx context.Context, client *lectureassist.Client, jobID string, out, errOut io.Writer) (lectureassist.Snapshot, error) {
	var (
		mu         sync.Mutex
		last       lectureassist.Snapshot
		lastStatus lectureassist.Status
	)

	session, err := client.Watch(ctx, jobID,
		func(snap lectureassist.Snapshot) {
			mu.Lock()
			defer mu.Unlock()
			if snap.Status != lastStatus {
				fmt.Fprintf(out, "%s  %s\n", snap.JobID, snap.Status)
				lastStatus = snap.Status
			}
			last = snap
		},
		func(err error) {
			fmt.Fprintf(errOut, "%s  retrying: %v\n", jobID, err)
		},
	)
	if err != nil {
		return lectureassist.Snapshot{}, err
	}
	defer session.Stop()

	<-session.Done()

	if session.State() != lectureassist.SessionStoppedTerminal {
		if err := ctx.Err(); err != nil {
			return lectureassist.Snapshot{}, fmt.Errorf("stopped following %s: %w", jobID, err)
		}
		return lectureassist.Snapshot{}, fmt.Errorf("stopped following %s", jobID)
	}

	mu.Lock()
	defer mu.Unlock()
	return last, nil
}
