package lectureassist

import "github.com/jpalmerr/lectureassist/internal/poller"

// SessionState is the lifecycle state of a polling [Session].
type SessionState string

const (
	// SessionActive means further fetches may occur.
	SessionActive SessionState = "active"

	// SessionStoppedTerminal means the job reported COMPLETED or FAILED.
	SessionStoppedTerminal SessionState = "stopped_terminal"

	// SessionStoppedCancelled means the session was stopped by its owner.
	SessionStoppedCancelled SessionState = "stopped_cancelled"
)

// Session is one polling lifetime for a job, created by [Client.Watch].
//
// The owner must call [Session.Stop] when it no longer needs updates for a
// job that may never finish; otherwise the session polls forever at the
// capped 30s interval.
type Session struct {
	inner *poller.Session
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.inner.ID() }

// JobID returns the job being polled.
func (s *Session) JobID() string { return s.inner.JobID() }

// Attempts returns the number of fetches issued so far.
func (s *Session) Attempts() int { return s.inner.Attempts() }

// Done returns a channel closed when the session stops for any reason.
func (s *Session) Done() <-chan struct{} { return s.inner.Done() }

// Stop ends the session. It is idempotent and may be called from inside the
// session's own callbacks. Once Stop returns no new callback starts.
func (s *Session) Stop() { s.inner.Stop() }

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	switch s.inner.State() {
	case poller.StateStoppedTerminal:
		return SessionStoppedTerminal
	case poller.StateStoppedCancelled:
		return SessionStoppedCancelled
	default:
		return SessionActive
	}
}
