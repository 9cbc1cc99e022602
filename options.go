package lectureassist

import (
	"errors"
	"log/slog"
	"strings"
)

// laConfig holds mutable state during LectureAssist construction.
type laConfig struct {
	client            *Client
	title             string
	port              int
	logger            *slog.Logger
	jobs              []string
	watchDir          string
	historyPath       string
	snapshotCallbacks []func(Snapshot)
}

// Option is a function that configures a [LectureAssist] instance during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
//
// Built-in options: [WithClient], [WithPort], [WithTitle], [WithLogger],
// [WithJobs], [WithWatchDir], [WithHistory], [WithSnapshotCallback].
type Option func(*laConfig) error

// WithClient sets the [Client] used to reach the transcription service.
//
// If not specified, a client for [DefaultBaseURL] with default timeouts is
// created.
//
// Returns an error if the client is nil.
func WithClient(c *Client) Option {
	return func(cfg *laConfig) error {
		if c == nil {
			return errors.New("client cannot be nil")
		}
		cfg.client = c
		return nil
	}
}

// WithPort sets the HTTP port for the dashboard server.
//
// The dashboard UI and API will be available at http://localhost:<port>.
// Defaults to 8080 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *laConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithTitle sets the dashboard title displayed in the browser tab and header.
//
// If not specified, defaults to "LectureAssist".
func WithTitle(title string) Option {
	return func(cfg *laConfig) error {
		cfg.title = title
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the LectureAssist instance.
//
// This allows SDK consumers to control where logs are written and in what
// format. If not specified, [slog.Default] is used.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
//	la, err := lectureassist.New(lectureassist.WithLogger(logger))
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *laConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithJobs adds job ids to follow as soon as [LectureAssist.Start] runs.
//
// Can be called multiple times. Duplicates are followed once.
//
// Returns an error if any id is blank.
func WithJobs(jobIDs ...string) Option {
	return func(cfg *laConfig) error {
		for _, id := range jobIDs {
			id = strings.TrimSpace(id)
			if id == "" {
				return errors.New("job id cannot be empty")
			}
			cfg.jobs = append(cfg.jobs, id)
		}
		return nil
	}
}

// WithWatchDir enables the drop folder: audio files created in dir are
// uploaded and followed automatically while [LectureAssist.Start] runs.
//
// Returns an error if dir is blank.
func WithWatchDir(dir string) Option {
	return func(cfg *laConfig) error {
		if strings.TrimSpace(dir) == "" {
			return errors.New("watch directory cannot be empty")
		}
		cfg.watchDir = dir
		return nil
	}
}

// WithHistory records uploads and followed jobs in a SQLite database at
// path. Jobs that had not finished are followed again on the next
// [LectureAssist.Start].
//
// Returns an error if path is blank.
func WithHistory(path string) Option {
	return func(cfg *laConfig) error {
		if strings.TrimSpace(path) == "" {
			return errors.New("history path cannot be empty")
		}
		cfg.historyPath = path
		return nil
	}
}

// WithSnapshotCallback registers a function to be called with every
// snapshot of every followed job.
//
// Multiple callbacks may be registered; they execute in registration order,
// after the dashboard view has been updated.
//
// IMPORTANT: Callbacks must be non-blocking. They run on the polling
// session's goroutine and delay that job's next attempt while they run.
// Panics within callbacks are recovered and logged.
//
// Example:
//
//	la, err := lectureassist.New(
//	    lectureassist.WithSnapshotCallback(func(s lectureassist.Snapshot) {
//	        if s.Status == lectureassist.StatusCompleted {
//	            log.Printf("%s is ready", s.Title)
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithSnapshotCallback(cb func(Snapshot)) Option {
	return func(cfg *laConfig) error {
		if cb == nil {
			return nil
		}
		cfg.snapshotCallbacks = append(cfg.snapshotCallbacks, cb)
		return nil
	}
}
