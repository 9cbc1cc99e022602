package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jpalmerr/lectureassist/internal/api"
	"github.com/jpalmerr/lectureassist/internal/store"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// This prevents goroutine leaks when clients are slow or disconnected.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	shutdownTimeout = 5 * time.Second

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "LectureAssist"

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"

	maxUploadSize = 512 << 20 // 512MB
	maxFollowBody = 4 << 10
)

// ErrNotFound is returned by a [Tracker] for a job it does not know.
var ErrNotFound = errors.New("lecture not found")

// Tracker performs the actions behind the write routes.
type Tracker interface {
	// Follow starts polling jobID. Following an already followed job is a no-op.
	Follow(jobID string) error

	// Unfollow stops polling jobID and forgets its view.
	// Reports whether the job was known.
	Unfollow(jobID string) bool

	// UploadFile forwards audio to the transcription service, follows the
	// new job and returns its id.
	UploadFile(ctx context.Context, name string, r io.Reader) (string, error)

	// RenderText renders the job's current view as plain text.
	// Returns ErrNotFound for an unknown job; any other error means the
	// mode was rejected.
	RenderText(jobID, mode string) (string, error)
}

// Server handles HTTP requests for the LectureAssist dashboard and API.
//
// Routes:
//   - GET /: Serves the embedded dashboard HTML
//   - GET /api/lectures: Returns all lecture views as JSON
//   - GET /api/lectures/{id}: Returns one lecture view
//   - GET /api/lectures/{id}/text: Plain-text download of a lecture
//   - POST /api/lectures: Follows {"job_id": "..."}
//   - DELETE /api/lectures/{id}: Unfollows a lecture
//   - POST /api/upload: Forwards a multipart "file" upload
//   - GET /api/sse: Server-Sent Events stream for real-time updates
//
// The write routes are registered only when a [Tracker] is configured.
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	store      store.Store
	tracker    Tracker
	port       int
	httpServer *http.Server
	assets     fs.FS
	title      string
	logger     *slog.Logger

	mu   sync.Mutex
	addr net.Addr
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - st: Store implementation for lecture views
//   - tracker: handles follow, unfollow, upload and text rendering (may be nil)
//   - port: TCP port to listen on
//   - assets: Embedded filesystem containing dashboard assets (may be nil)
//   - title: Dashboard title (defaults to "LectureAssist" if empty)
//   - logger: Logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(st store.Store, tracker Tracker, port int, assets fs.FS, title string, logger *slog.Logger) *Server {
	return &Server{
		store:   st,
		tracker: tracker,
		port:    port,
		assets:  assets,
		title:   title,
		logger:  logger,
	}
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/lectures", s.handleList)
	mux.HandleFunc("GET /api/lectures/{id}", s.handleGet)
	mux.HandleFunc("GET /api/sse", s.handleSSE)

	if s.tracker != nil {
		mux.HandleFunc("GET /api/lectures/{id}/text", s.handleText)
		mux.HandleFunc("POST /api/lectures", s.handleFollow)
		mux.HandleFunc("DELETE /api/lectures/{id}", s.handleUnfollow)
		mux.HandleFunc("POST /api/upload", s.handleUpload)
	}

	if s.assets != nil {
		mux.HandleFunc("/", s.handleDashboard)
	}

	return mux
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts derive from ctx so SSE handlers exit on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// Addr returns the listening address once [Server.Start] has succeeded,
// or nil before that.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// handleDashboard serves the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if s.assets == nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	// apply title substitution with HTML escaping to prevent XSS
	title := s.title
	if title == "" {
		title = defaultTitle
	}
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(title))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

// handleList returns all lecture views as JSON.
func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.GetAll())
}

// handleGet returns a single lecture view.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	view, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, ErrNotFound.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// handleText serves a lecture as a plain-text attachment.
func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	text, err := s.tracker.RenderText(jobID, r.URL.Query().Get("mode"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := jobID
	if view, ok := s.store.Get(jobID); ok && strings.TrimSpace(view.Title) != "" {
		name = view.Title
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachmentName(name)))
	if _, err := io.WriteString(w, text); err != nil {
		s.logger.Error("failed to write text response", "error", err)
	}
}

type followRequest struct {
	JobID string `json:"job_id"`
}

// handleFollow starts following the job named in the request body.
func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	var req followRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxFollowBody)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	jobID := strings.TrimSpace(req.JobID)

	if err := s.tracker.Follow(jobID); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Info("following lecture", "job_id", jobID, "source", "api")
	s.writeJSON(w, http.StatusCreated, followRequest{JobID: jobID})
}

// handleUnfollow stops following a job.
func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if !s.tracker.Unfollow(jobID) {
		s.writeError(w, http.StatusNotFound, ErrNotFound.Error())
		return
	}
	s.logger.Info("unfollowed lecture", "job_id", jobID)
	w.WriteHeader(http.StatusNoContent)
}

// handleUpload streams the multipart "file" field to the tracker.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	mr, err := r.MultipartReader()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "expected multipart/form-data")
		return
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			s.writeError(w, http.StatusBadRequest, "missing file field")
			return
		}
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid multipart body")
			return
		}
		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}

		jobID, err := s.tracker.UploadFile(r.Context(), part.FileName(), part)
		_ = part.Close()
		if err != nil {
			s.writeError(w, uploadErrorStatus(err), err.Error())
			return
		}
		s.logger.Info("lecture uploaded", "job_id", jobID, "file", part.FileName())
		s.writeJSON(w, http.StatusOK, followRequest{JobID: jobID})
		return
	}
}

// uploadErrorStatus maps an upload failure to a response code.
func uploadErrorStatus(err error) int {
	switch {
	case errors.Is(err, api.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, api.ErrNetwork), errors.Is(err, api.ErrServer), errors.Is(err, api.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// handleSSE streams view updates via Server-Sent Events.
//
// The handler uses write deadlines to prevent goroutine leaks when clients are
// slow or disconnected. Without deadlines, a blocked Fprintf call would prevent
// the handler from detecting context cancellation or channel closure.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)

	// some ResponseWriter implementations do not support deadlines
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	for _, view := range s.store.GetAll() {
		data, err := json.Marshal(view)
		if err != nil {
			continue
		}
		if err := writeAndFlush(data); err != nil {
			return
		}
	}

	for {
		select {
		case view, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(view)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on both client disconnect and server shutdown
			return
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

// attachmentName turns a lecture title into a safe download file name.
func attachmentName(title string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == '"' || r < 0x20:
			return '_'
		default:
			return r
		}
	}, strings.TrimSpace(title))
	if cleaned == "" {
		cleaned = "lecture"
	}
	return cleaned + ".txt"
}
