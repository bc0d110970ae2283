package judge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public Codeforces endpoint.
	DefaultBaseURL = "https://codeforces.com"

	defaultTimeout = 60 * time.Second
	defaultRetries = 2
	defaultBackoff = 500 * time.Millisecond
	statusOK       = "OK"
	submissionsMax = "100000"
)

// TransportError reports a network or HTTP failure. It is retried.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RemoteServiceError reports a well-formed response whose status is not OK.
// It is never retried.
type RemoteServiceError struct {
	Status  string
	Comment string
}

func (e *RemoteServiceError) Error() string {
	if e.Comment == "" {
		return fmt.Sprintf("judge api status %s", e.Status)
	}
	return fmt.Sprintf("judge api status %s: %s", e.Status, e.Comment)
}

type envelope struct {
	Status  string          `json:"status"`
	Comment string          `json:"comment,omitempty"`
	Result  json.RawMessage `json:"result"`
}

type problemsetResult struct {
	Problems []Problem `json:"problems"`
}

// Client talks to the judge API.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	retries int
	backoff time.Duration
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API host.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout. It applies to a copy of the
// HTTP client, never to the one passed in.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRetries sets how many times a transport failure is retried.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n < 0 {
			n = 0
		}
		c.retries = n
	}
}

// WithBackoff sets the base delay; attempt n waits n times this value.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.backoff = d
	}
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a Client with default retry budget and backoff.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		retries: defaultRetries,
		backoff: defaultBackoff,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

// FetchCatalog returns the full public problem set.
func (c *Client) FetchCatalog(ctx context.Context) ([]Problem, error) {
	var result problemsetResult
	if err := c.getJSON(ctx, "/api/problemset.problems", nil, &result); err != nil {
		return nil, fmt.Errorf("fetch problemset: %w", err)
	}
	return result.Problems, nil
}

// FetchSubmissions returns the submission history of handle, newest first.
func (c *Client) FetchSubmissions(ctx context.Context, handle string) ([]Submission, error) {
	if handle == "" {
		return nil, fmt.Errorf("handle is required")
	}
	q := url.Values{}
	q.Set("handle", handle)
	q.Set("from", "1")
	q.Set("count", submissionsMax)
	var subs []Submission
	if err := c.getJSON(ctx, "/api/user.status", q, &subs); err != nil {
		return nil, fmt.Errorf("fetch submissions for %s: %w", handle, err)
	}
	return subs, nil
}

// SolvedSet returns the ids of problems handle has an accepted submission for.
// An empty handle yields an empty set without a request.
func (c *Client) SolvedSet(ctx context.Context, handle string) (map[string]struct{}, error) {
	solved := map[string]struct{}{}
	if handle == "" {
		return solved, nil
	}
	subs, err := c.FetchSubmissions(ctx, handle)
	if err != nil {
		return nil, err
	}
	for _, sub := range subs {
		if sub.Verdict != VerdictOK {
			continue
		}
		if id := sub.Problem.ID(); id != "" {
			solved[id] = struct{}{}
		}
	}
	return solved, nil
}

// ProblemURL builds the canonical problem page URL.
func (c *Client) ProblemURL(contestID int, index string) string {
	return fmt.Sprintf("%s/problemset/problem/%d/%s", c.baseURL, contestID, index)
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dst any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var env envelope
	for attempt := 0; ; attempt++ {
		var err error
		env, err = c.fetchOnce(ctx, endpoint)
		if err == nil {
			break
		}
		var transportErr *TransportError
		if !errors.As(err, &transportErr) || attempt >= c.retries {
			return err
		}
		delay := c.backoff * time.Duration(attempt+1)
		c.logger.Warn("fetch_retry", "url", endpoint, "attempt", attempt+1, "delay", delay, "error", err.Error())
		if err := sleepContext(ctx, delay); err != nil {
			return err
		}
	}

	if env.Status != statusOK {
		return &RemoteServiceError{Status: env.Status, Comment: env.Comment}
	}
	if err := json.Unmarshal(env.Result, dst); err != nil {
		return fmt.Errorf("failed to decode result: %w", err)
	}
	return nil
}

func (c *Client) fetchOnce(ctx context.Context, endpoint string) (envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return envelope{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-store")
	resp, err := c.http.Do(req)
	if err != nil {
		return envelope{}, &TransportError{URL: endpoint, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return envelope{}, &TransportError{URL: endpoint, Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The API answers semantic failures (unknown handle) with 400 and a FAILED envelope.
		if decodeErr == nil && env.Status != "" && env.Status != statusOK {
			return env, nil
		}
		return envelope{}, &TransportError{URL: endpoint, Err: fmt.Errorf("unexpected status: %s", resp.Status)}
	}
	if decodeErr != nil {
		return envelope{}, &TransportError{URL: endpoint, Err: fmt.Errorf("failed to decode response: %w", decodeErr)}
	}
	return env, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
