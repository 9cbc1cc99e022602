package config

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jpalmerr/lectureassist"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildClient(t *testing.T) {
	cfg := Default()
	cfg.BaseURL = "https://lectures.example.com/"

	c, err := BuildClient(cfg, testLogger())
	if err != nil {
		t.Fatalf("BuildClient() error = %v", err)
	}
	if got := c.BaseURL(); got != "https://lectures.example.com" {
		t.Errorf("BaseURL() = %q", got)
	}
}

func TestBuildClient_InvalidTimeout(t *testing.T) {
	cfg := Default()
	cfg.RequestTimeout = 0

	if _, err := BuildClient(cfg, nil); err == nil {
		t.Error("BuildClient() expected error for zero timeout")
	}
}

func TestBuildOptions(t *testing.T) {
	cfg := &Config{
		Title:          "Biology 101",
		Port:           9191,
		BaseURL:        "http://127.0.0.1:5001",
		RequestTimeout: Duration(3 * time.Second),
		UploadTimeout:  Duration(time.Minute),
		WatchDir:       t.TempDir(),
		HistoryPath:    t.TempDir() + "/history.db",
		Jobs:           []string{"abc", "def"},
	}

	opts, err := BuildOptions(cfg, testLogger())
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}

	la, err := lectureassist.New(opts...)
	if err != nil {
		t.Fatalf("lectureassist.New() error = %v", err)
	}
	if la.Port() != 9191 {
		t.Errorf("Port() = %d, want 9191", la.Port())
	}
	if got := la.Client().BaseURL(); got != "http://127.0.0.1:5001" {
		t.Errorf("Client().BaseURL() = %q", got)
	}
}

func TestBuildOptions_Minimal(t *testing.T) {
	opts, err := BuildOptions(Default(), nil)
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}
	if len(opts) != 2 {
		t.Errorf("len(opts) = %d, want client and port only", len(opts))
	}
	if _, err := lectureassist.New(opts...); err != nil {
		t.Errorf("lectureassist.New() error = %v", err)
	}
}
