package lectureassist

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jpalmerr/lectureassist/internal/poller"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// quickScheduler runs every attempt after 1ms instead of the real backoff.
type quickScheduler struct{}

func (quickScheduler) After(d time.Duration, fn func()) poller.Timer {
	if d > 0 {
		d = time.Millisecond
	}
	return time.AfterFunc(d, fn)
}

// fakeService imitates the transcription service. Each result request
// consumes the next status of the job's script; the last status repeats.
type fakeService struct {
	mu       sync.Mutex
	scripts  map[string][]string
	failures map[string]int
	hits     map[string]int
	uploads  []string
	nextID   int
}

func newFakeService(t *testing.T) (*fakeService, *httptest.Server) {
	t.Helper()
	fs := &fakeService{
		scripts:  make(map[string][]string),
		failures: make(map[string]int),
		hits:     make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/result/{id}", fs.handleResult)
	mux.HandleFunc("GET /api/status/{id}", fs.handleStatus)
	mux.HandleFunc("POST /api/upload", fs.handleUpload)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return fs, ts
}

// script sets the statuses returned for jobID.
func (fs *fakeService) script(jobID string, statuses ...string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.scripts[jobID] = statuses
}

// fail makes the next n result requests for jobID return 503.
func (fs *fakeService) fail(jobID string, n int) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.failures[jobID] = n
}

func (fs *fakeService) hitCount(jobID string) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.hits[jobID]
}

func (fs *fakeService) uploadedNames() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.uploads...)
}

func (fs *fakeService) handleResult(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	fs.mu.Lock()
	fs.hits[id]++
	if fs.failures[id] > 0 {
		fs.failures[id]--
		fs.mu.Unlock()
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "temporarily unavailable"})
		return
	}
	seq, ok := fs.scripts[id]
	if !ok {
		fs.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Job not found"})
		return
	}
	status := seq[0]
	if len(seq) > 1 {
		fs.scripts[id] = seq[1:]
	}
	fs.mu.Unlock()

	body := map[string]any{
		"job_id":     id,
		"status":     status,
		"title":      "Lecture " + id,
		"summary":    nil,
		"transcript": nil,
		"created_at": "2025-03-01T09:00:00",
	}
	if status == "COMPLETED" {
		body["summary"] = "summary of " + id
		body["transcript"] = "transcript of " + id
	}
	writeJSON(w, http.StatusOK, body)
}

// handleStatus reports the job's current status without consuming its script.
func (fs *fakeService) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	fs.mu.Lock()
	seq, ok := fs.scripts[id]
	fs.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Job not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job_id": id, "status": seq[0]})
}

func (fs *fakeService) handleUpload(w http.ResponseWriter, r *http.Request) {
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "No file provided"})
		return
	}
	_ = f.Close()

	fs.mu.Lock()
	fs.nextID++
	id := fmt.Sprintf("job-%d", fs.nextID)
	fs.uploads = append(fs.uploads, hdr.Filename)
	fs.scripts[id] = []string{"PROCESSING", "COMPLETED"}
	fs.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"job_id": id})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// newTestClient returns a client for ts that polls every millisecond.
func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(baseURL,
		WithClientLogger(testLogger()),
		WithRequestTimeout(2*time.Second),
		withScheduler(quickScheduler{}),
	)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// freePort returns a TCP port that was free a moment ago.
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()
	return port
}
