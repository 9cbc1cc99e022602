package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// executeCmd runs the root command with args and returns captured stdout,
// stderr and any error. Flags are reset first because cobra keeps parsed
// values on the package-level commands between runs.
func executeCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// fakeService is a lecture service that finishes every job on its first
// poll. Jobs whose id starts with "fail" end in FAILED.
type fakeService struct {
	*httptest.Server

	mu      sync.Mutex
	uploads []string
	nextID  int
}

func newFakeService(t *testing.T) *fakeService {
	t.Helper()

	fs := &fakeService{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/upload", func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file provided"})
			return
		}

		fs.mu.Lock()
		fs.nextID++
		jobID := "job-" + strconv.Itoa(fs.nextID)
		fs.uploads = append(fs.uploads, header.Filename)
		fs.mu.Unlock()

		writeJSON(w, http.StatusOK, map[string]string{"job_id": jobID})
	})
	mux.HandleFunc("GET /api/status/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "missing" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Job not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"job_id": id, "status": "PROCESSING"})
	})
	mux.HandleFunc("GET /api/result/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		status := "COMPLETED"
		if strings.HasPrefix(id, "fail") {
			status = "FAILED"
		}
		if id == "missing" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Job not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"job_id":     id,
			"status":     status,
			"title":      "Lecture " + id,
			"summary":    "Summary of " + id,
			"transcript": "Transcript of " + id,
		})
	})

	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeService) uploaded() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.uploads...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
