package lectureassist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/lectureassist/dashboard"
	"github.com/jpalmerr/lectureassist/internal/api"
	"github.com/jpalmerr/lectureassist/internal/history"
	"github.com/jpalmerr/lectureassist/internal/server"
	"github.com/jpalmerr/lectureassist/internal/store"
	"github.com/jpalmerr/lectureassist/internal/watcher"
)

const (
	defaultPort = 8080

	// historyTimeout bounds a single history write made from a session callback.
	historyTimeout = 5 * time.Second
)

// LectureAssist follows lecture jobs and serves a live dashboard of them.
//
// LectureAssist owns one polling [Session] per followed job and keeps a view
// of each job's latest snapshot for the dashboard. It is created using [New]
// with functional options and started with [LectureAssist.Start].
//
// The typical lifecycle is:
//
//	la, err := lectureassist.New(lectureassist.WithJobs("3f2a9c"))
//	if err != nil {
//	    slog.Error("failed to create lectureassist", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	la.Start(ctx) // blocks until context cancelled
//
// [LectureAssist.Follow] and [LectureAssist.Unfollow] may also be used
// without Start; the caller then owns the sessions and must unfollow jobs
// that may never finish.
type LectureAssist struct {
	client            *Client
	title             string
	port              int
	logger            *slog.Logger
	jobs              []string
	watchDir          string
	historyPath       string
	snapshotCallbacks []func(Snapshot)

	views *store.MemoryStore

	mu       sync.Mutex
	sessions map[string]*follow
	history  *history.Store
}

var _ server.Tracker = (*LectureAssist)(nil)

// follow links a followed job to its session. Callbacks from a session
// whose follow is no longer current are dropped.
type follow struct {
	session *Session
}

// New creates a new [LectureAssist] instance with the given options.
//
// Defaults:
//   - Client: [DefaultBaseURL] with default timeouts
//   - Port: 8080
//   - Title: "LectureAssist"
//
// Returns an error if any option is invalid.
//
// Example:
//
//	la, err := lectureassist.New(
//	    lectureassist.WithClient(client),
//	    lectureassist.WithPort(9090),
//	    lectureassist.WithWatchDir("./inbox"),
//	)
func New(opts ...Option) (*LectureAssist, error) {
	cfg := &laConfig{
		port: defaultPort,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.port < 1 || cfg.port > 65535 {
		return nil, fmt.Errorf("port must be between 1 and 65535, got %d", cfg.port)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	client := cfg.client
	if client == nil {
		var err error
		client, err = NewClient(DefaultBaseURL, WithClientLogger(logger))
		if err != nil {
			return nil, err
		}
	}

	return &LectureAssist{
		client:            client,
		title:             cfg.title,
		port:              cfg.port,
		logger:            logger,
		jobs:              dedupe(cfg.jobs),
		watchDir:          cfg.watchDir,
		historyPath:       cfg.historyPath,
		snapshotCallbacks: cfg.snapshotCallbacks,
		views:             store.NewMemoryStore(),
		sessions:          make(map[string]*follow),
	}, nil
}

// Start follows jobs, serves the dashboard and watches the drop folder.
//
// Start is a blocking call that runs until the provided context is cancelled.
// During execution:
//
//   - Unfinished jobs from the history database are followed again
//   - Jobs configured with [WithJobs] are followed
//   - The HTTP server starts on the configured port
//   - Audio files dropped into the watch directory are uploaded and followed
//
// On cancellation every session is stopped, the watcher exits and the
// history database is closed.
//
// Returns nil on graceful shutdown. Returns an error if the history database
// cannot be opened, the watch directory cannot be watched or the HTTP server
// fails to start.
func (la *LectureAssist) Start(ctx context.Context) error {
	la.logger.Info("lectureassist starting", "service", la.client.BaseURL(), "job_count", len(la.jobs))
	la.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", la.port))

	if ctx.Err() != nil {
		return nil
	}

	var wg sync.WaitGroup
	cleanup := func() {
		la.unfollowAll()
		wg.Wait()
		la.closeHistory()
	}

	if la.historyPath != "" {
		if err := la.openHistory(ctx); err != nil {
			return err
		}
	}

	if err := la.resumePending(ctx); err != nil {
		la.logger.Warn("failed to resume unfinished jobs", "error", err)
	}

	for _, jobID := range la.jobs {
		if err := la.Follow(jobID); err != nil {
			la.logger.Warn("failed to follow job", "job_id", jobID, "error", err)
		}
	}

	if la.watchDir != "" {
		w, err := watcher.New(watcher.Config{
			Dir:    la.watchDir,
			Accept: api.IsAudioFile,
			Logger: la.logger,
		}, la.uploadDropped)
		if err != nil {
			cleanup()
			return fmt.Errorf("failed to watch %s: %w", la.watchDir, err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Run(ctx); err != nil {
				la.logger.Error("drop folder watcher stopped", "error", err)
			}
		}()
	}

	httpServer := server.NewServer(la.views, la, la.port, dashboard.Assets, la.title, la.logger)
	if err := httpServer.Start(ctx); err != nil {
		cleanup()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	<-ctx.Done()
	cleanup()
	la.logger.Info("lectureassist stopped")
	return nil
}

// Follow starts polling jobID and shows it on the dashboard.
//
// Following a job that is already followed is a no-op. A job that already
// finished can be followed again; it is fetched once more and stops.
// Returns [ErrEmptyJobID] if jobID is blank.
func (la *LectureAssist) Follow(jobID string) error {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return ErrEmptyJobID
	}

	la.mu.Lock()
	if _, ok := la.sessions[jobID]; ok {
		la.mu.Unlock()
		return nil
	}

	f := &follow{}
	session, err := la.client.Watch(context.Background(), jobID,
		func(s Snapshot) { la.handleSnapshot(f, s) },
		func(err error) { la.handleError(f, jobID, err) },
	)
	if err != nil {
		la.mu.Unlock()
		return err
	}
	// callbacks take la.mu, so they cannot observe f before this assignment
	f.session = session
	la.sessions[jobID] = f

	view, ok := la.views.Get(jobID)
	if !ok {
		view = store.LectureView{JobID: jobID, Status: string(StatusPending)}
	}
	view.Following = true
	view.UpdatedAt = time.Now()
	la.views.Update(view)
	hist := la.history
	la.mu.Unlock()

	if hist != nil {
		ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
		defer cancel()
		if err := hist.Record(ctx, jobID, ""); err != nil {
			la.logger.Warn("failed to record job in history", "job_id", jobID, "error", err)
		}
	}

	la.logger.Info("following lecture", "job_id", jobID, "session_id", session.ID())
	return nil
}

// Unfollow stops polling jobID and removes it from the dashboard and the
// history's resume list. Reports whether the job was known.
func (la *LectureAssist) Unfollow(jobID string) bool {
	jobID = strings.TrimSpace(jobID)

	la.mu.Lock()
	f, followed := la.sessions[jobID]
	delete(la.sessions, jobID)
	removed := la.views.Delete(jobID)
	hist := la.history
	la.mu.Unlock()

	if followed {
		f.session.Stop()
	}

	if hist != nil && (followed || removed) {
		ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
		defer cancel()
		if err := hist.Forget(ctx, jobID); err != nil {
			la.logger.Warn("failed to forget job", "job_id", jobID, "error", err)
		}
	}
	return followed || removed
}

// Following returns the ids of jobs with an active session, sorted.
func (la *LectureAssist) Following() []string {
	la.mu.Lock()
	ids := make([]string, 0, len(la.sessions))
	for id := range la.sessions {
		ids = append(ids, id)
	}
	la.mu.Unlock()

	sort.Strings(ids)
	return ids
}

// Lecture returns the latest snapshot held for jobID, whether or not it is
// still followed.
func (la *LectureAssist) Lecture(jobID string) (Snapshot, bool) {
	view, ok := la.views.Get(jobID)
	if !ok {
		return Snapshot{}, false
	}
	return snapshotFromView(view), true
}

// UploadFile uploads audio read from r under name, records it in the
// history and follows the new job. Returns the job id.
func (la *LectureAssist) UploadFile(ctx context.Context, name string, r io.Reader) (string, error) {
	jobID, err := la.client.UploadFile(ctx, name, r)
	if err != nil {
		return "", err
	}
	la.afterUpload(ctx, jobID, name)
	return jobID, nil
}

// RenderText renders the latest snapshot of jobID in the given view mode.
func (la *LectureAssist) RenderText(jobID, mode string) (string, error) {
	view, ok := la.views.Get(jobID)
	if !ok {
		return "", fmt.Errorf("%w: %s", server.ErrNotFound, jobID)
	}
	m, err := ParseViewMode(mode)
	if err != nil {
		return "", err
	}
	return snapshotFromView(view).Text(m), nil
}

// Port returns the configured HTTP port for the dashboard server.
func (la *LectureAssist) Port() int {
	return la.port
}

// Client returns the client used to reach the transcription service.
func (la *LectureAssist) Client() *Client {
	return la.client
}

// uploadDropped is the drop folder handler.
func (la *LectureAssist) uploadDropped(ctx context.Context, path string) error {
	jobID, err := la.client.Upload(ctx, path)
	if err != nil {
		return err
	}
	la.logger.Info("dropped file uploaded", "path", path, "job_id", jobID)
	la.afterUpload(ctx, jobID, filepath.Base(path))
	return nil
}

func (la *LectureAssist) afterUpload(ctx context.Context, jobID, name string) {
	la.mu.Lock()
	hist := la.history
	la.mu.Unlock()

	if hist != nil {
		if err := hist.Record(ctx, jobID, name); err != nil {
			la.logger.Warn("failed to record upload", "job_id", jobID, "error", err)
		}
	}
	if err := la.Follow(jobID); err != nil {
		la.logger.Warn("failed to follow uploaded job", "job_id", jobID, "error", err)
	}
}

// handleSnapshot merges a snapshot into the job's view.
//
// The view is written under la.mu together with the current-follow check,
// so an Unfollow that has already removed the job cannot be undone by a
// late callback.
func (la *LectureAssist) handleSnapshot(f *follow, snap Snapshot) {
	terminal := snap.Status.IsTerminal()

	la.mu.Lock()
	// the service may echo a different job_id; views are keyed by the followed id
	jobID := f.session.JobID()
	if la.sessions[jobID] != f {
		la.mu.Unlock()
		return
	}
	if terminal {
		delete(la.sessions, jobID)
	}
	snap.JobID = jobID
	la.views.Update(store.LectureView{
		JobID:      jobID,
		Status:     string(snap.Status),
		Title:      snap.Title,
		Summary:    snap.Summary,
		Transcript: snap.Transcript,
		CreatedAt:  snap.CreatedAt,
		Attempts:   f.session.Attempts(),
		Following:  !terminal,
		UpdatedAt:  time.Now(),
	})
	hist := la.history
	la.mu.Unlock()

	if hist != nil {
		ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
		if err := hist.UpdateStatus(ctx, jobID, string(snap.Status), snap.Title); err != nil && !errors.Is(err, history.ErrNotFound) {
			la.logger.Warn("failed to update history", "job_id", jobID, "error", err)
		}
		cancel()
	}

	for _, cb := range la.snapshotCallbacks {
		invokeCallbackSafe(cb, snap, la.logger)
	}

	if terminal {
		la.logger.Info("lecture finished", "job_id", jobID, "status", snap.Status, "title", snap.Title)
	} else {
		la.logger.Debug("lecture updated", "job_id", jobID, "status", snap.Status)
	}
}

// handleError records a failed attempt on the job's view. The last
// snapshot is kept.
func (la *LectureAssist) handleError(f *follow, jobID string, err error) {
	msg := err.Error()

	la.mu.Lock()
	if la.sessions[jobID] != f {
		la.mu.Unlock()
		return
	}
	view, ok := la.views.Get(jobID)
	if !ok {
		view = store.LectureView{JobID: jobID, Status: string(StatusPending), Following: true}
	}
	view.Error = &msg
	view.Attempts = f.session.Attempts()
	view.UpdatedAt = time.Now()
	la.views.Update(view)
	la.mu.Unlock()

	la.logger.Warn("poll attempt failed", "job_id", jobID, "attempts", view.Attempts, "error", msg)
}

func (la *LectureAssist) openHistory(ctx context.Context) error {
	h, err := history.Open(ctx, la.historyPath)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	la.mu.Lock()
	la.history = h
	la.mu.Unlock()
	return nil
}

func (la *LectureAssist) closeHistory() {
	la.mu.Lock()
	h := la.history
	la.history = nil
	la.mu.Unlock()

	if err := h.Close(); err != nil {
		la.logger.Warn("failed to close history", "error", err)
	}
}

// resumePending follows every unfinished job recorded in the history.
func (la *LectureAssist) resumePending(ctx context.Context) error {
	la.mu.Lock()
	h := la.history
	la.mu.Unlock()
	if h == nil {
		return nil
	}

	pending, err := h.Pending(ctx)
	if err != nil {
		return err
	}
	for _, e := range pending {
		if err := la.Follow(e.JobID); err != nil {
			la.logger.Warn("failed to resume job", "job_id", e.JobID, "error", err)
		}
	}
	if len(pending) > 0 {
		la.logger.Info("resumed unfinished jobs", "count", len(pending))
	}
	return nil
}

// unfollowAll stops every session but keeps the views.
func (la *LectureAssist) unfollowAll() {
	la.mu.Lock()
	follows := la.sessions
	la.sessions = make(map[string]*follow)
	la.mu.Unlock()

	for _, f := range follows {
		f.session.Stop()
	}
}

func snapshotFromView(v store.LectureView) Snapshot {
	return Snapshot{
		JobID:      v.JobID,
		Status:     ParseStatus(v.Status),
		Title:      v.Title,
		Summary:    v.Summary,
		Transcript: v.Transcript,
		CreatedAt:  v.CreatedAt,
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// invokeCallbackSafe calls a snapshot callback with panic recovery.
// Panics are logged with a correlation ID but do not propagate.
func invokeCallbackSafe(cb func(Snapshot), snap Snapshot, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("snapshot callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
				"job_id", snap.JobID,
				"stack", string(debug.Stack()),
			)
		}
	}()
	cb(snap)
}
