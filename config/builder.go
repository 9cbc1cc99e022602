package config

import (
	"log/slog"

	"github.com/jpalmerr/lectureassist"
)

// BuildClient creates the service client described by cfg.
func BuildClient(cfg *Config, logger *slog.Logger) (*lectureassist.Client, error) {
	opts := []lectureassist.ClientOption{
		lectureassist.WithRequestTimeout(cfg.RequestTimeout.Duration()),
		lectureassist.WithUploadTimeout(cfg.UploadTimeout.Duration()),
	}
	if logger != nil {
		opts = append(opts, lectureassist.WithClientLogger(logger))
	}
	return lectureassist.NewClient(cfg.BaseURL, opts...)
}

// BuildOptions converts parsed configuration into SDK options for
// [lectureassist.New]. The client is built with [BuildClient].
func BuildOptions(cfg *Config, logger *slog.Logger) ([]lectureassist.Option, error) {
	client, err := BuildClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	opts := []lectureassist.Option{
		lectureassist.WithClient(client),
		lectureassist.WithPort(cfg.Port),
	}
	if cfg.Title != "" {
		opts = append(opts, lectureassist.WithTitle(cfg.Title))
	}
	if logger != nil {
		opts = append(opts, lectureassist.WithLogger(logger))
	}
	if len(cfg.Jobs) > 0 {
		opts = append(opts, lectureassist.WithJobs(cfg.Jobs...))
	}
	if cfg.WatchDir != "" {
		opts = append(opts, lectureassist.WithWatchDir(cfg.WatchDir))
	}
	if cfg.HistoryPath != "" {
		opts = append(opts, lectureassist.WithHistory(cfg.HistoryPath))
	}
	return opts, nil
}
