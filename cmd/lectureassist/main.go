// Package main is the entry point for the lectureassist CLI.
//
// LectureAssist can be used as a library (SDK) or as this standalone binary
// driven by flags and an optional YAML config file.
//
// Usage:
//
//	lectureassist upload lecture.mp3 --follow  # Upload and wait for the result
//	lectureassist follow <job-id>             # Wait for an existing job
//	lectureassist history -c config.yaml      # List local upload history
//	lectureassist serve -c config.yaml        # Start the dashboard
//	lectureassist validate -c config.yaml     # Validate configuration
//	lectureassist version                     # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "lectureassist",
	Short: "Upload lectures and follow their transcription",
	Long: `LectureAssist uploads lecture recordings to a transcription service and
follows each job until its transcript and summary are ready.

Jobs are polled with exponential backoff (2s growing by 1.6x up to 30s)
until they report COMPLETED or FAILED.

Quick start:
  1. Run: lectureassist upload lecture.mp3 --follow
  2. Or serve the dashboard: lectureassist serve -c lectureassist.yaml
  3. Open http://localhost:8080 in your browser

Example config:
  port: 8080
  base_url: ${LECTURE_SERVICE:-http://127.0.0.1:5000}
  history_path: ~/.lectureassist/history.db
  watch_dir: ~/Lectures/inbox`,
	SilenceUsage: true,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this lectureassist binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "lectureassist %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to config file")
	rootCmd.PersistentFlags().String("base-url", "", "lecture service URL (overrides config)")
	rootCmd.PersistentFlags().String("history", "", "path to upload history database (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")

	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
