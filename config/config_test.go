package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse([]byte(""))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// check defaults applied
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.BaseURL != "http://127.0.0.1:5000" {
		t.Errorf("BaseURL = %q, want default", cfg.BaseURL)
	}
	if cfg.RequestTimeout.Duration() != 10*time.Second {
		t.Errorf("RequestTimeout = %v, want 10s", cfg.RequestTimeout.Duration())
	}
	if cfg.UploadTimeout.Duration() != 10*time.Minute {
		t.Errorf("UploadTimeout = %v, want 10m", cfg.UploadTimeout.Duration())
	}
	if cfg.HistoryPath != "" || cfg.WatchDir != "" || len(cfg.Jobs) != 0 {
		t.Errorf("optional features should be off by default: %+v", cfg)
	}
}

func TestDefault_MatchesEmptyParse(t *testing.T) {
	parsed, err := Parse(nil)
	if err != nil {
		t.Fatal(err)
	}
	def := Default()
	if def.Port != parsed.Port || def.BaseURL != parsed.BaseURL ||
		def.RequestTimeout != parsed.RequestTimeout || def.UploadTimeout != parsed.UploadTimeout {
		t.Errorf("Default() = %+v, Parse(nil) = %+v", def, parsed)
	}
}

func TestParse_FullConfig(t *testing.T) {
	yaml := `
title: Biology 101
port: 9090
base_url: https://lectures.example.com/
request_timeout: 5s
upload_timeout: 30m
history_path: /var/lib/lectureassist/history.db
watch_dir: /srv/inbox
jobs:
  - abc
  - " def "
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Title != "Biology 101" {
		t.Errorf("Title = %q", cfg.Title)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.BaseURL != "https://lectures.example.com/" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.RequestTimeout.Duration() != 5*time.Second {
		t.Errorf("RequestTimeout = %v, want 5s", cfg.RequestTimeout.Duration())
	}
	if cfg.UploadTimeout.Duration() != 30*time.Minute {
		t.Errorf("UploadTimeout = %v, want 30m", cfg.UploadTimeout.Duration())
	}
	if cfg.HistoryPath != "/var/lib/lectureassist/history.db" {
		t.Errorf("HistoryPath = %q", cfg.HistoryPath)
	}
	if cfg.WatchDir != "/srv/inbox" {
		t.Errorf("WatchDir = %q", cfg.WatchDir)
	}
	if len(cfg.Jobs) != 2 || cfg.Jobs[0] != "abc" || cfg.Jobs[1] != "def" {
		t.Errorf("Jobs = %q, want [abc def]", cfg.Jobs)
	}
}

func TestParse_EnvVarSubstitution(t *testing.T) {
	// t.Setenv auto-restores after test (Go 1.17+)
	t.Setenv("TEST_LECTURE_HOST", "lectures.test.com")
	t.Setenv("TEST_LECTURE_JOB", "job-42")
	t.Setenv("TEST_INBOX", "/tmp/inbox")

	yaml := `
base_url: https://${TEST_LECTURE_HOST}
watch_dir: ${TEST_INBOX}
jobs:
  - ${TEST_LECTURE_JOB}
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.BaseURL != "https://lectures.test.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.WatchDir != "/tmp/inbox" {
		t.Errorf("WatchDir = %q", cfg.WatchDir)
	}
	if cfg.Jobs[0] != "job-42" {
		t.Errorf("Jobs[0] = %q", cfg.Jobs[0])
	}
}

func TestParse_EnvVarDefault(t *testing.T) {
	yaml := `base_url: ${UNSET_LECTURE_SERVICE:-http://10.0.0.5:5000}`

	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.BaseURL != "http://10.0.0.5:5000" {
		t.Errorf("BaseURL = %q, want the default", cfg.BaseURL)
	}
}

func TestParse_EnvVarMissing(t *testing.T) {
	// MISSING_VAR is expected to not exist in the environment
	_, err := Parse([]byte(`base_url: https://${MISSING_VAR}`))
	if err == nil {
		t.Fatal("Parse() expected error for missing env var, got nil")
	}
	if !strings.Contains(err.Error(), "MISSING_VAR") {
		t.Errorf("error should mention MISSING_VAR: %v", err)
	}
}

func TestParse_HomeExpansion(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	cfg, err := Parse([]byte(`history_path: ~/.lectureassist/history.db`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := filepath.Join(home, ".lectureassist", "history.db")
	if cfg.HistoryPath != want {
		t.Errorf("HistoryPath = %q, want %q", cfg.HistoryPath, want)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		yaml        string
		wantErrLike string
	}{
		{"port too high", `port: 70000`, "port must be between"},
		{"negative port", `port: -1`, "port must be between"},
		{"base url without scheme", `base_url: lectures.example.com`, "must have a scheme"},
		{"base url bad scheme", `base_url: ftp://lectures.example.com`, "scheme must be http or https"},
		{"base url without host", `base_url: "http://"`, "must have a host"},
		{"request timeout too short", `request_timeout: 500ms`, "request_timeout must be at least 1s"},
		{"negative upload timeout", `upload_timeout: -1m`, "upload_timeout must be at least 1s"},
		{"empty job", "jobs:\n  - abc\n  - \"  \"", "jobs[1]: job id is required"},
		{"duplicate job", "jobs:\n  - abc\n  - def\n  - abc", "jobs[2]: duplicate job id \"abc\" (first at jobs[0])"},
		{"job env missing", "jobs:\n  - ${MISSING_JOB_VAR}", "jobs[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatalf("Parse() expected error containing %q", tt.wantErrLike)
			}
			if !strings.Contains(err.Error(), tt.wantErrLike) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErrLike)
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("port: [unclosed"))
	if err == nil {
		t.Fatal("Parse() expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "failed to parse YAML") {
		t.Errorf("error = %v", err)
	}
}

func TestParse_InvalidDuration(t *testing.T) {
	_, err := Parse([]byte(`request_timeout: soon`))
	if err == nil {
		t.Fatal("Parse() expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("error = %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lectureassist.yaml")
	if err := os.WriteFile(path, []byte("title: From File\nport: 8181\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Title != "From File" || cfg.Port != 8181 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Load() error = %v", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "value")
	t.Setenv("EMPTY_VAR", "") // set but empty

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"no vars", "plain text", "plain text", false},
		{"simple var", "${TEST_VAR}", "value", false},
		{"var in text", "prefix ${TEST_VAR} suffix", "prefix value suffix", false},
		{"multiple vars", "${TEST_VAR}-${TEST_VAR}", "value-value", false},
		{"with default (var set)", "${TEST_VAR:-default}", "value", false},
		{"with default (var unset)", "${UNSET:-default}", "default", false},
		{"missing required", "${MISSING}", "", true},
		{"empty default (var unset)", "${UNSET:-}", "", false},
		{"set but empty var", "${EMPTY_VAR}", "", false},
		{"set but empty with default", "${EMPTY_VAR:-fallback}", "", false}, // set var takes precedence
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// UNSET and MISSING are expected to not exist in environment
			got, err := expandEnvVars(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expandEnvVars() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expandEnvVars() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("expandEnvVars() = %q, want %q", got, tt.want)
			}
		})
	}
}
