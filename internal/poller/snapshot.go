package poller

import (
	"context"
	"strings"
)

// Status values recognised on the wire. Anything else normalises to
// [StatusUnknown].
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
	StatusUnknown    = "UNKNOWN"
)

// Snapshot holds the outcome of one successful status request.
//
// This is the poller-internal version of the public lectureassist.Snapshot,
// kept separate to avoid circular dependencies.
type Snapshot struct {
	JobID      string
	Status     string
	Title      string
	Summary    string
	Transcript string
	CreatedAt  string
}

// Fetcher performs a single status request for a job.
//
// Implementations must not retry internally; retry policy belongs to the
// [Session].
type Fetcher interface {
	Fetch(ctx context.Context, jobID string) (Snapshot, error)
}

// FetcherFunc adapts a function to the [Fetcher] interface.
type FetcherFunc func(ctx context.Context, jobID string) (Snapshot, error)

// Fetch calls f(ctx, jobID).
func (f FetcherFunc) Fetch(ctx context.Context, jobID string) (Snapshot, error) {
	return f(ctx, jobID)
}

// NormalizeStatus maps a wire status to one of the known status values.
// Matching is case-insensitive and ignores surrounding whitespace.
func NormalizeStatus(raw string) string {
	switch s := strings.ToUpper(strings.TrimSpace(raw)); s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return s
	default:
		return StatusUnknown
	}
}

// IsTerminal reports whether status ends a polling session.
func IsTerminal(status string) bool {
	s := NormalizeStatus(status)
	return s == StatusCompleted || s == StatusFailed
}
