package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jpalmerr/lectureassist/config"
	"github.com/spf13/cobra"
)

// newLogger creates a JSON logger on stderr for CLI use.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	raw, _ := cmd.Flags().GetString("log-level")
	level, err := parseLevel(raw)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	})), nil
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return 0, fmt.Errorf("invalid --log-level %q", raw)
	}
	return level, nil
}

// loadConfig reads the --config file when given, otherwise the defaults,
// then applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.Parse(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if baseURL, _ := cmd.Flags().GetString("base-url"); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if historyPath, _ := cmd.Flags().GetString("history"); historyPath != "" {
		cfg.HistoryPath = expandUserPath(historyPath)
	}
	return cfg, nil
}

// expandUserPath expands a leading ~/ in paths given on the command line.
func expandUserPath(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + path[1:]
}
