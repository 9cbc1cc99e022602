package lectureassist

import (
	"errors"
	"log/slog"
	"time"

	"github.com/jpalmerr/lectureassist/internal/poller"
)

// clientConfig holds mutable state during Client construction.
type clientConfig struct {
	requestTimeout time.Duration
	uploadTimeout  time.Duration
	logger         *slog.Logger
	scheduler      poller.Scheduler
}

// ClientOption is a function that configures a [Client] during construction.
//
// ClientOption implements the functional options pattern, allowing optional
// configuration to be passed to [NewClient] in a type-safe, extensible way.
// Options return an error if validation fails.
//
// Built-in options: [WithRequestTimeout], [WithUploadTimeout], [WithClientLogger].
type ClientOption func(*clientConfig) error

// WithRequestTimeout sets the timeout for each result or status request.
//
// The timeout bounds a single attempt; a timed-out attempt is reported as a
// network error and retried by the polling session like any other failure.
// Defaults to 10 seconds if not specified.
//
// Returns an error if the duration is zero or negative.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(cfg *clientConfig) error {
		if d <= 0 {
			return errors.New("request timeout must be positive")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithUploadTimeout sets the timeout for uploads.
//
// The reference service transcribes during the upload request itself, so
// this is much longer than the request timeout. Defaults to 10 minutes.
//
// Returns an error if the duration is zero or negative.
func WithUploadTimeout(d time.Duration) ClientOption {
	return func(cfg *clientConfig) error {
		if d <= 0 {
			return errors.New("upload timeout must be positive")
		}
		cfg.uploadTimeout = d
		return nil
	}
}

// WithClientLogger sets a custom [slog.Logger] for the client and its
// polling sessions. If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(cfg *clientConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// withScheduler replaces the wall-clock scheduler. Used by tests.
func withScheduler(s poller.Scheduler) ClientOption {
	return func(cfg *clientConfig) error {
		cfg.scheduler = s
		return nil
	}
}
