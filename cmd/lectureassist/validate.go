package main

import (
	"fmt"

	"github.com/jpalmerr/lectureassist/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a LectureAssist configuration file without starting the server.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  lectureassist validate -c config.yaml
  lectureassist validate --config /etc/lectureassist/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		return fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Port:            %d\n", cfg.Port)
	fmt.Fprintf(out, "  Service:         %s\n", cfg.BaseURL)
	fmt.Fprintf(out, "  Request timeout: %s\n", cfg.RequestTimeout.Duration())
	fmt.Fprintf(out, "  Upload timeout:  %s\n", cfg.UploadTimeout.Duration())
	fmt.Fprintf(out, "  Jobs:            %d\n", len(cfg.Jobs))
	fmt.Fprintf(out, "  History:         %s\n", orNone(cfg.HistoryPath))
	fmt.Fprintf(out, "  Watch dir:       %s\n", orNone(cfg.WatchDir))

	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
