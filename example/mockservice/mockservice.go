// Package mockservice is an in-memory stand-in for the lecture transcription
// service, used by the example program and the standalone mock server.
//
// Uploaded jobs report PENDING, then PROCESSING, then COMPLETED once their
// simulated processing time has elapsed. Files whose name contains "fail"
// end in FAILED instead.
package mockservice

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const maxUploadSize = 256 << 20 // 256MB

var allowedExtensions = map[string]bool{".wav": true, ".mp3": true, ".m4a": true, ".ogg": true}

// Config controls the simulated timeline of each job.
type Config struct {
	// Pending is how long a new job reports PENDING.
	Pending time.Duration

	// Processing is how long it then reports PROCESSING.
	Processing time.Duration

	Logger *slog.Logger
}

type job struct {
	id        string
	name      string
	createdAt time.Time
	fail      bool
}

// Service serves /api/upload, /api/result/{id} and /api/status/{id}.
type Service struct {
	pending    time.Duration
	processing time.Duration
	logger     *slog.Logger
	now        func() time.Time

	mu   sync.Mutex
	jobs map[string]*job
}

// New creates a Service. Zero durations select 3s pending and 12s processing.
func New(cfg Config) *Service {
	if cfg.Pending == 0 {
		cfg.Pending = 3 * time.Second
	}
	if cfg.Processing == 0 {
		cfg.Processing = 12 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		pending:    cfg.Pending,
		processing: cfg.Processing,
		logger:     cfg.Logger,
		now:        time.Now,
		jobs:       make(map[string]*job),
	}
}

// Handler returns the service's HTTP routes.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("GET /api/result/{id}", s.handleResult)
	mux.HandleFunc("GET /api/status/{id}", s.handleStatus)
	return mux
}

func (s *Service) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file part"})
		return
	}
	_ = file.Close()

	if header.Filename == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No selected file"})
		return
	}
	if !allowedExtensions[strings.ToLower(filepath.Ext(header.Filename))] {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Unsupported file type"})
		return
	}

	j := &job{
		id:        uuid.NewString(),
		name:      filepath.Base(header.Filename),
		createdAt: s.now(),
		fail:      strings.Contains(strings.ToLower(header.Filename), "fail"),
	}
	s.mu.Lock()
	s.jobs[j.id] = j
	s.mu.Unlock()

	s.logger.Info("job created", "job_id", j.id, "file", j.name)
	writeJSON(w, http.StatusOK, map[string]string{"job_id": j.id})
}

func (s *Service) handleResult(w http.ResponseWriter, r *http.Request) {
	j, ok := s.lookup(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Job not found"})
		return
	}

	status := s.statusOf(j)
	resp := map[string]any{
		"job_id":     j.id,
		"title":      j.name,
		"status":     status,
		"transcript": nil,
		"summary":    nil,
		"created_at": j.createdAt.UTC().Format("2006-01-02T15:04:05.000000"),
	}
	switch status {
	case "COMPLETED":
		resp["transcript"] = fmt.Sprintf("This is the transcript of %s.\nThe lecture covered three topics in detail.", j.name)
		resp["summary"] = fmt.Sprintf("A short lecture recorded as %s.", j.name)
	case "FAILED":
		resp["transcript"] = ""
		resp["summary"] = "Processing failed: audio could not be decoded"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	j, ok := s.lookup(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Job not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"job_id": j.id, "status": s.statusOf(j)})
}

func (s *Service) lookup(id string) (*job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	return j, ok
}

func (s *Service) statusOf(j *job) string {
	elapsed := s.now().Sub(j.createdAt)
	switch {
	case elapsed < s.pending:
		return "PENDING"
	case elapsed < s.pending+s.processing:
		return "PROCESSING"
	case j.fail:
		return "FAILED"
	default:
		return "COMPLETED"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
