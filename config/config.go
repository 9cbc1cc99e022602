// Package config provides YAML configuration parsing for LectureAssist.
//
// This package enables running LectureAssist as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Biology 101
//	port: 8080
//	base_url: ${LECTURE_SERVICE:-http://127.0.0.1:5000}
//	request_timeout: 10s
//	upload_timeout: 10m
//	history_path: ~/.lectureassist/history.db
//	watch_dir: ./inbox
//
//	jobs:
//	  - 3f2a9c1e-8d4b-4e0a-9c2f-1b7e6d5a4c3b
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort           = 8080
	defaultBaseURL        = "http://127.0.0.1:5000"
	defaultRequestTimeout = 10 * time.Second
	defaultUploadTimeout  = 10 * time.Minute

	// minTimeout keeps misconfigured timeouts from failing every attempt.
	minTimeout = 1 * time.Second
)

// Config is the root configuration structure for LectureAssist.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "LectureAssist" if not set.
	Title string `yaml:"title"`

	// Port is the dashboard HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// BaseURL is the transcription service address.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	// Defaults to http://127.0.0.1:5000.
	BaseURL string `yaml:"base_url"`

	// RequestTimeout bounds each result request. Defaults to 10s.
	RequestTimeout Duration `yaml:"request_timeout"`

	// UploadTimeout bounds each upload. Defaults to 10m.
	UploadTimeout Duration `yaml:"upload_timeout"`

	// HistoryPath is the SQLite upload history file. Empty disables history.
	// A leading "~/" is expanded to the home directory.
	HistoryPath string `yaml:"history_path"`

	// WatchDir is the drop folder for new recordings. Empty disables it.
	WatchDir string `yaml:"watch_dir"`

	// Jobs are job ids to follow on startup.
	Jobs []string `yaml:"jobs"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

// Load reads and parses a YAML configuration file.
//
// Returns an error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in base_url, history_path, watch_dir
// and jobs. Defaults are applied for Port (8080), BaseURL, RequestTimeout
// (10s) and UploadTimeout (10m).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = Duration(defaultRequestTimeout)
	}
	if c.UploadTimeout == 0 {
		c.UploadTimeout = Duration(defaultUploadTimeout)
	}
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	expanded, err := expandEnvVars(c.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	c.BaseURL = expanded

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: invalid url: %w", err)
	}
	if parsedURL.Scheme == "" {
		return fmt.Errorf("base_url: url must have a scheme (http:// or https://)")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("base_url: url scheme must be http or https, got %q", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base_url: url must have a host")
	}

	if c.RequestTimeout.Duration() < minTimeout {
		return fmt.Errorf("request_timeout must be at least %s, got %s", minTimeout, c.RequestTimeout.Duration())
	}
	if c.UploadTimeout.Duration() < minTimeout {
		return fmt.Errorf("upload_timeout must be at least %s, got %s", minTimeout, c.UploadTimeout.Duration())
	}

	if c.HistoryPath != "" {
		if c.HistoryPath, err = expandPath(c.HistoryPath); err != nil {
			return fmt.Errorf("history_path: %w", err)
		}
	}
	if c.WatchDir != "" {
		if c.WatchDir, err = expandPath(c.WatchDir); err != nil {
			return fmt.Errorf("watch_dir: %w", err)
		}
	}

	seen := make(map[string]int, len(c.Jobs))
	for i, job := range c.Jobs {
		expanded, err := expandEnvVars(job)
		if err != nil {
			return fmt.Errorf("jobs[%d]: %w", i, err)
		}
		expanded = strings.TrimSpace(expanded)
		if expanded == "" {
			return fmt.Errorf("jobs[%d]: job id is required", i)
		}
		if first, dup := seen[expanded]; dup {
			return fmt.Errorf("jobs[%d]: duplicate job id %q (first at jobs[%d])", i, expanded, first)
		}
		seen[expanded] = i
		c.Jobs[i] = expanded
	}

	return nil
}

func expandPath(p string) (string, error) {
	expanded, err := expandEnvVars(p)
	if err != nil {
		return "", err
	}
	return expandHome(expanded)
}
