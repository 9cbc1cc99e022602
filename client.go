package lectureassist

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jpalmerr/lectureassist/internal/api"
	"github.com/jpalmerr/lectureassist/internal/poller"
)

const (
	// DefaultBaseURL is the address the reference service listens on.
	DefaultBaseURL = "http://127.0.0.1:5000"

	defaultRequestTimeout = 10 * time.Second
	defaultUploadTimeout  = 10 * time.Minute
)

// Client talks to a lecture transcription service.
//
// Client uploads recordings, fetches job results and starts polling
// sessions that keep a job's view fresh until it finishes. It is safe for
// concurrent use; one Client can follow any number of jobs.
type Client struct {
	api    *api.Client
	engine *poller.Engine
	logger *slog.Logger
}

// NewClient creates a [Client] for the service at baseURL.
//
// baseURL must be an absolute http or https URL such as [DefaultBaseURL].
//
// Example:
//
//	c, err := lectureassist.NewClient("http://127.0.0.1:5000",
//	    lectureassist.WithRequestTimeout(5 * time.Second),
//	)
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	cfg := &clientConfig{
		requestTimeout: defaultRequestTimeout,
		uploadTimeout:  defaultUploadTimeout,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	ac, err := api.NewClient(baseURL, cfg.requestTimeout, cfg.uploadTimeout)
	if err != nil {
		return nil, err
	}

	return &Client{
		api:    ac,
		engine: poller.NewEngine(resultFetcher{api: ac}, cfg.scheduler, logger),
		logger: logger,
	}, nil
}

// BaseURL returns the service address without a trailing slash.
func (c *Client) BaseURL() string {
	return c.api.BaseURL()
}

// Upload sends the audio file at path and returns the job id.
//
// Accepted formats are .wav, .mp3, .m4a and .ogg; anything else returns
// [ErrUnsupportedFormat] without contacting the service.
func (c *Client) Upload(ctx context.Context, path string) (string, error) {
	return c.api.Upload(ctx, path)
}

// UploadFile sends audio read from r under the file name name and returns
// the job id. The name's extension must be an accepted format.
func (c *Client) UploadFile(ctx context.Context, name string, r io.Reader) (string, error) {
	return c.api.UploadFile(ctx, name, r)
}

// Fetch performs a single result request for jobID. It never retries.
func (c *Client) Fetch(ctx context.Context, jobID string) (Snapshot, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return Snapshot{}, ErrEmptyJobID
	}
	ps, err := resultFetcher{api: c.api}.Fetch(ctx, jobID)
	if err != nil {
		return Snapshot{}, err
	}
	ps.Status = poller.NormalizeStatus(ps.Status)
	return snapshotFromPoller(ps), nil
}

// Status fetches only the status of jobID with a single request to the
// service's status endpoint. It never retries. A job the service does not
// know is reported as a server error with [StatusCode] 404.
func (c *Client) Status(ctx context.Context, jobID string) (Status, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return "", ErrEmptyJobID
	}
	sr, err := c.api.Status(ctx, jobID)
	if err != nil {
		return "", err
	}
	return ParseStatus(sr.Status), nil
}

// Watch starts a polling [Session] for jobID.
//
// The first fetch is issued immediately; later fetches back off from 2s by
// a factor of 1.6 up to 30s. onSnapshot receives every result and onError
// every failed attempt; either may be nil. Polling ends when the job reports
// COMPLETED or FAILED, when [Session.Stop] is called, or when ctx is
// cancelled. Failures never end a session.
//
// Callbacks for one session never overlap but run on timer goroutines, so
// they must not block for long.
func (c *Client) Watch(ctx context.Context, jobID string, onSnapshot func(Snapshot), onError func(error)) (*Session, error) {
	var snapFn func(poller.Snapshot)
	if onSnapshot != nil {
		snapFn = func(ps poller.Snapshot) { onSnapshot(snapshotFromPoller(ps)) }
	}

	inner, err := c.engine.Start(ctx, jobID, snapFn, onError)
	if err != nil {
		return nil, err
	}
	return &Session{inner: inner}, nil
}

// Close releases idle connections. The client stays usable.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.api.Close()
}

// resultFetcher adapts the HTTP transport to the polling engine.
type resultFetcher struct {
	api *api.Client
}

func (f resultFetcher) Fetch(ctx context.Context, jobID string) (poller.Snapshot, error) {
	res, err := f.api.Result(ctx, jobID)
	if err != nil {
		return poller.Snapshot{}, err
	}
	return poller.Snapshot{
		JobID:      firstNonEmpty(res.JobID, jobID),
		Status:     res.Status,
		Title:      res.Title,
		Summary:    res.Summary,
		Transcript: res.Transcript,
		CreatedAt:  res.CreatedAt,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
