package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/lectureassist"
	"github.com/jpalmerr/lectureassist/config"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
)

// serveCmd starts the LectureAssist dashboard server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	Long: `Start the LectureAssist dashboard server.

The server will:
  - Load configuration from the YAML file, if given
  - Resume unfinished jobs from the upload history
  - Follow every job listed in the config
  - Upload audio files dropped into watch_dir
  - Serve the dashboard UI on the configured port

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  lectureassist serve
  lectureassist serve -c config.yaml --port 9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 0, "dashboard port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Port = port
	}

	logger.Info("config loaded",
		"base_url", cfg.BaseURL,
		"jobs", len(cfg.Jobs),
		"history", cfg.HistoryPath != "",
		"watch_dir", cfg.WatchDir,
	)
	logger.Info("starting server", "port", cfg.Port)

	opts, err := config.BuildOptions(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build options: %w", err)
	}

	la, err := lectureassist.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create LectureAssist: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, la, logger)
}

// startable is the part of LectureAssist the serve loop drives.
type startable interface {
	Start(ctx context.Context) error
}

// serve runs la until ctx is cancelled, bounding shutdown by shutdownTimeout.
func serve(ctx context.Context, la startable, logger *slog.Logger) error {
	// start server - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- la.Start(ctx)
	}()

	// wait for server to finish
	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
