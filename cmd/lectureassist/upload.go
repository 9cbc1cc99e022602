package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jpalmerr/lectureassist"
	"github.com/jpalmerr/lectureassist/config"
	"github.com/jpalmerr/lectureassist/internal/history"
	"github.com/spf13/cobra"
)

// uploadCmd uploads audio files and optionally waits for the results.
var uploadCmd = &cobra.Command{
	Use:   "upload FILE...",
	Short: "Upload lecture recordings",
	Long: `Upload one or more lecture recordings (.wav, .mp3, .m4a or .ogg) and
print the job id assigned to each.

With --follow the command then waits for every job to finish and prints
its text. Uploads are recorded in the history database when one is
configured.

Example:
  lectureassist upload lecture.mp3
  lectureassist upload week1.m4a week2.m4a --follow --mode summary`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().BoolP("follow", "f", false, "wait for each job to finish")
	uploadCmd.Flags().StringP("mode", "m", "both", "sections to print with --follow: both, summary or transcript")
}

func runUpload(cmd *cobra.Command, args []string) error {
	mode, err := modeFlag(cmd)
	if err != nil {
		return err
	}
	follow, _ := cmd.Flags().GetBool("follow")

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

	jobIDs, err := uploadAll(ctx, client, hist, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if !follow {
		return nil
	}
	return followAll(ctx, client, hist, jobIDs, mode, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// uploadAll uploads each file in order and prints "<job id>  <file>" per
// upload. It stops at the first failed upload.
func uploadAll(ctx context.Context, client *lectureassist.Client, hist *history.Store, paths []string, out, errOut io.Writer) ([]string, error) {
	jobIDs := make([]string, 0, len(paths))
	for _, path := range paths {
		path = expandUserPath(path)
		name := filepath.Base(path)

		jobID, err := client.Upload(ctx, path)
		if err != nil {
			return jobIDs, fmt.Errorf("failed to upload %s: %w", name, err)
		}
		fmt.Fprintf(out, "%s  %s\n", jobID, name)

		if hist != nil {
			if err := hist.Record(ctx, jobID, name); err != nil {
				fmt.Fprintf(errOut, "%s  failed to record history: %v\n", jobID, err)
			}
		}
		jobIDs = append(jobIDs, jobID)
	}
	return jobIDs, nil
}
