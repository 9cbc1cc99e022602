package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const maxResponseBodySize = 1 << 20 // 1MB

// connection pooling limits; one client follows many jobs against one host
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultMaxConnsPerHost     = 10
	defaultIdleConnTimeout     = 60 * time.Second
)

// default messages when the service sends no {"error": ...} body
const (
	defaultResultMessage = "failed to get result"
	defaultStatusMessage = "failed to get status"
	defaultUploadMessage = "upload failed"
)

// audioExtensions are the upload formats the service accepts.
var audioExtensions = []string{".wav", ".mp3", ".m4a", ".ogg"}

// IsAudioFile reports whether name has an accepted audio extension.
// Matching is case-insensitive.
func IsAudioFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range audioExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Result is the decoded body of GET /api/result/{id}.
// Null or missing text fields decode as empty strings.
type Result struct {
	JobID      string
	Status     string
	Title      string
	Summary    string
	Transcript string
	CreatedAt  string
}

// StatusResponse is the decoded body of GET /api/status/{id}.
type StatusResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type wireResult struct {
	JobID      *string `json:"job_id"`
	Status     string  `json:"status"`
	Title      *string `json:"title"`
	Summary    *string `json:"summary"`
	Transcript *string `json:"transcript"`
	CreatedAt  *string `json:"created_at"`
}

type wireUpload struct {
	JobID string `json:"job_id"`
}

type wireError struct {
	Error string `json:"error"`
}

// Client is an HTTP client for the lecture service.
//
// Client uses per-request timeouts via context rather than a global timeout,
// so uploads (which the service processes synchronously) can be given far
// more time than status requests. Response bodies are limited to 1MB.
//
// Client is safe for concurrent use.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	requestTimeout time.Duration
	uploadTimeout  time.Duration
	schemas        *schemas
}

// NewClient creates a new [Client] for the service at baseURL.
//
// baseURL must be an absolute http or https URL; a trailing slash is
// ignored. requestTimeout bounds result and status requests; uploadTimeout
// bounds uploads. Both must be positive.
func NewClient(baseURL string, requestTimeout, uploadTimeout time.Duration) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("base URL scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("base URL must have a host")
	}
	if requestTimeout <= 0 || uploadTimeout <= 0 {
		return nil, errors.New("timeouts must be positive")
	}

	s, err := compileSchemas()
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			// no default timeout - we use per-request timeouts via context
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
		requestTimeout: requestTimeout,
		uploadTimeout:  uploadTimeout,
		schemas:        s,
	}, nil
}

// BaseURL returns the service base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Result fetches the current result for jobID with a single request.
func (c *Client) Result(ctx context.Context, jobID string) (Result, error) {
	const op = "result"

	body, err := c.get(ctx, op, "/api/result/"+url.PathEscape(jobID), defaultResultMessage)
	if err != nil {
		return Result{}, err
	}

	var wr wireResult
	if err := decodeValidated(c.schemas.result, body, &wr); err != nil {
		return Result{}, &Error{Kind: KindMalformed, Op: op, Message: "unexpected result body", Err: err}
	}

	return Result{
		JobID:      deref(wr.JobID),
		Status:     wr.Status,
		Title:      deref(wr.Title),
		Summary:    deref(wr.Summary),
		Transcript: deref(wr.Transcript),
		CreatedAt:  deref(wr.CreatedAt),
	}, nil
}

// Status fetches the status-only view for jobID with a single request.
func (c *Client) Status(ctx context.Context, jobID string) (StatusResponse, error) {
	const op = "status"

	body, err := c.get(ctx, op, "/api/status/"+url.PathEscape(jobID), defaultStatusMessage)
	if err != nil {
		return StatusResponse{}, err
	}

	var sr StatusResponse
	if err := decodeValidated(c.schemas.status, body, &sr); err != nil {
		return StatusResponse{}, &Error{Kind: KindMalformed, Op: op, Message: "unexpected status body", Err: err}
	}
	return sr, nil
}

// Upload sends the audio file at path and returns the new job id.
//
// The extension is checked before the file is opened; unsupported files
// return [ErrUnsupportedFormat] without any request being made.
func (c *Client) Upload(ctx context.Context, path string) (string, error) {
	if !IsAudioFile(path) {
		return "", fmt.Errorf("%w: %s (accepted: %s)", ErrUnsupportedFormat, filepath.Base(path), strings.Join(audioExtensions, " "))
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open audio file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return c.UploadFile(ctx, filepath.Base(path), f)
}

// UploadFile streams r as a multipart "file" field named name and returns
// the new job id.
func (c *Client) UploadFile(ctx context.Context, name string, r io.Reader) (string, error) {
	const op = "upload"

	if !IsAudioFile(name) {
		return "", fmt.Errorf("%w: %s (accepted: %s)", ErrUnsupportedFormat, name, strings.Join(audioExtensions, " "))
	}

	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", name)
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", pr)
	if err != nil {
		_ = pr.Close()
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req, op, defaultUploadMessage)
	if err != nil {
		return "", err
	}

	var wu wireUpload
	if err := decodeValidated(c.schemas.upload, body, &wu); err != nil {
		return "", &Error{Kind: KindMalformed, Op: op, Message: "unexpected upload body", Err: err}
	}
	return wu.JobID, nil
}

// Close closes all idle connections in the client's connection pool.
// Safe to call multiple times; the client remains usable afterwards.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}

// get performs a GET against path with the request timeout.
func (c *Client) get(ctx context.Context, op, path, defaultMessage string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, op, defaultMessage)
}

// do sends req and classifies the outcome. It returns the body of a 2xx
// response.
func (c *Client) do(req *http.Request, op, defaultMessage string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Op: op, Message: "request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	// read body with size limit
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Op: op, StatusCode: resp.StatusCode, Message: "failed to read response body", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Kind:       KindServer,
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    serverMessage(body, defaultMessage),
		}
	}

	return body, nil
}

// serverMessage extracts {"error": "..."} from an error body, falling back
// to defaultMessage when the body is empty or not in that shape.
func serverMessage(body []byte, defaultMessage string) string {
	var we wireError
	if err := json.Unmarshal(body, &we); err != nil || strings.TrimSpace(we.Error) == "" {
		return defaultMessage
	}
	return we.Error
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
