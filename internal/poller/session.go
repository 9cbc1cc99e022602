package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyJobID is returned by [Engine.Start] when the job id is blank.
var ErrEmptyJobID = errors.New("job id cannot be empty")

// State is the lifecycle state of a [Session].
type State int

const (
	// StateActive means attempts may still occur.
	StateActive State = iota

	// StateStoppedTerminal means a COMPLETED or FAILED snapshot was observed.
	StateStoppedTerminal

	// StateStoppedCancelled means the session was stopped by its owner.
	StateStoppedCancelled
)

// String returns the state name used in logs and JSON views.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateStoppedTerminal:
		return "stopped_terminal"
	case StateStoppedCancelled:
		return "stopped_cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Engine starts polling sessions.
//
// An Engine holds no per-job state; every call to [Engine.Start] creates an
// independent [Session] that owns its own delay, attempt count and
// cancellation state. One Engine may serve any number of sessions.
type Engine struct {
	fetcher   Fetcher
	scheduler Scheduler
	logger    *slog.Logger
}

// NewEngine creates a new polling [Engine].
//
// Parameters:
//   - fetcher: performs one status request per attempt
//   - scheduler: timer primitive; nil selects [TimerScheduler]
//   - logger: logger for session events; nil selects slog.Default()
func NewEngine(fetcher Fetcher, scheduler Scheduler, logger *slog.Logger) *Engine {
	if scheduler == nil {
		scheduler = TimerScheduler{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		fetcher:   fetcher,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Session is one polling lifetime for a single job id.
//
// A session moves from [StateActive] to exactly one of [StateStoppedTerminal]
// or [StateStoppedCancelled] and never leaves a stopped state. Attempts are
// strictly sequential: the next timer is armed only after the previous
// outcome has been delivered.
//
// All methods are safe for concurrent use.
type Session struct {
	id         string
	jobID      string
	fetcher    Fetcher
	scheduler  Scheduler
	logger     *slog.Logger
	onSnapshot func(Snapshot)
	onError    func(error)

	ctx          context.Context
	cancel       context.CancelFunc
	stopOnCancel func() bool
	done         chan struct{}
	releaseOnce  sync.Once

	// mu guards the poll state below. It is never held across a fetch or a
	// consumer callback.
	mu          sync.Mutex
	state       State
	timer       Timer
	attempt     int
	reschedules int
	delay       time.Duration
}

// Start begins a polling session for jobID.
//
// The first attempt is scheduled with zero delay and Start returns without
// waiting for it. onSnapshot receives every successful result and onError
// every failed attempt; either may be nil. Callbacks for one session never
// overlap.
//
// Cancelling ctx stops the session exactly like [Session.Stop].
// Returns [ErrEmptyJobID] if jobID is blank.
func (e *Engine) Start(ctx context.Context, jobID string, onSnapshot func(Snapshot), onError func(error)) (*Session, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, ErrEmptyJobID
	}
	if ctx == nil {
		ctx = context.Background()
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &Session{
		id:         uuid.NewString(),
		jobID:      jobID,
		fetcher:    e.fetcher,
		scheduler:  e.scheduler,
		logger:     e.logger,
		onSnapshot: onSnapshot,
		onError:    onError,
		ctx:        sctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		state:      StateActive,
	}

	s.mu.Lock()
	s.stopOnCancel = context.AfterFunc(ctx, s.Stop)
	s.timer = s.scheduler.After(0, s.turn)
	s.mu.Unlock()

	s.logger.Debug("polling session started", "session_id", s.id, "job_id", jobID)
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// JobID returns the job id this session polls.
func (s *Session) JobID() string { return s.jobID }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Attempts returns the number of fetches issued so far.
func (s *Session) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempt
}

// Delay returns the most recently scheduled gap between attempts.
// Zero until the first reschedule.
func (s *Session) Delay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delay
}

// Done returns a channel that is closed once the session reaches a stopped
// state. For a terminal stop the final snapshot has been delivered before
// the channel closes.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Stop cancels the session.
//
// Stop is idempotent and safe to call from any goroutine, including from
// inside the session's own callbacks. It disarms the pending timer and
// cancels the context of an in-flight fetch; the outcome of that fetch is
// discarded. Once Stop returns no callback begins: an outcome is delivered
// only if the session is still active at the moment of delivery, and that
// check is the last step before the callback is called. A callback that
// had already begun when Stop was called is not waited for, so Stop never
// blocks, even when called from that callback.
// Stopping a session that already stopped has no effect.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return
	}
	s.state = StateStoppedCancelled
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	attempts := s.attempt
	s.mu.Unlock()

	s.release()
	s.logger.Debug("polling session cancelled", "session_id", s.id, "job_id", s.jobID, "attempts", attempts)
}

// turn runs one attempt. It is the only function the scheduler calls.
func (s *Session) turn() {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.attempt++
	attempt := s.attempt
	s.mu.Unlock()

	snap, err := s.fetcher.Fetch(s.ctx, s.jobID)

	if err != nil {
		s.logger.Debug("poll attempt failed", "job_id", s.jobID, "attempt", attempt, "error", err)
		var fn func()
		if s.onError != nil {
			fn = func() { s.onError(err) }
		}
		if !s.deliver(false, "onError", fn) {
			return
		}
		s.reschedule()
		return
	}

	snap.Status = NormalizeStatus(snap.Status)
	if snap.JobID == "" {
		snap.JobID = s.jobID
	}
	terminal := IsTerminal(snap.Status)

	s.logger.Debug("poll attempt completed", "job_id", s.jobID, "attempt", attempt, "status", snap.Status)
	var fn func()
	if s.onSnapshot != nil {
		fn = func() { s.onSnapshot(snap) }
	}
	if !s.deliver(terminal, "onSnapshot", fn) {
		return
	}

	if terminal {
		s.release()
		s.logger.Debug("polling session finished", "session_id", s.id, "job_id", s.jobID, "status", snap.Status, "attempts", attempt)
		return
	}
	s.reschedule()
}

// deliver claims the outcome and, if the claim succeeds, calls fn (which
// may be nil). Nothing runs between the claim and fn, so a Stop that
// returns before the claim suppresses the callback. Reports whether the
// claim succeeded.
func (s *Session) deliver(terminal bool, name string, fn func()) bool {
	if !s.claimDelivery(terminal) {
		return false
	}
	if fn != nil {
		s.invokeSafe(name, fn)
	}
	return true
}

// claimDelivery checks, under the lock, that the session is still active
// and may deliver an outcome. A terminal outcome moves the session to
// StateStoppedTerminal in the same critical section.
func (s *Session) claimDelivery(terminal bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return false
	}
	if terminal {
		s.state = StateStoppedTerminal
	}
	return true
}

// reschedule arms the timer for the next attempt unless the session was
// stopped while the outcome was being delivered.
func (s *Session) reschedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return
	}
	s.delay = BackoffDelay(s.reschedules)
	s.reschedules++
	s.timer = s.scheduler.After(s.delay, s.turn)
}

// release frees the session's context resources and closes Done.
func (s *Session) release() {
	s.releaseOnce.Do(func() {
		s.cancel()
		if s.stopOnCancel != nil {
			s.stopOnCancel()
		}
		close(s.done)
	})
}

// invokeSafe calls a consumer callback with panic recovery.
// If the callback panics, the full stack trace is logged with a correlation
// ID and the session carries on as if the callback had returned.
func (s *Session) invokeSafe(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			s.logger.Error("session callback panic",
				"correlation_id", correlationID,
				"callback", name,
				"job_id", s.jobID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}
