package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/omar1u7777/Lugn-Trygg-sub009/internal/queue"
)

// Default endpoints for the two first-class mutation types. Generic
// queued requests carry their own endpoint.
const (
	moodPath   = "/api/moods"
	memoryPath = "/api/memories"
)

// defaultTimeout bounds a single remote call so one stalled request
// cannot stall a whole sync pass.
const defaultTimeout = 10 * time.Second

// Client issues REST-style calls against the remote API.
type Client struct {
	base  *url.URL
	http  *http.Client
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Used by tests and
// by callers that need custom transports.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithAuthToken attaches a bearer token to every request.
func WithAuthToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q: missing scheme or host", baseURL)
	}

	c := &Client{
		base: base,
		http: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// PushMood delivers one mood entry to the remote API.
func (c *Client) PushMood(ctx context.Context, m queue.MoodEntry) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal mood %d: %w", m.ID, err)
	}
	return c.Do(ctx, http.MethodPost, moodPath, payload)
}

// PushMemory delivers one memory entry to the remote API.
func (c *Client) PushMemory(ctx context.Context, m queue.MemoryEntry) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal memory %d: %w", m.ID, err)
	}
	return c.Do(ctx, http.MethodPost, memoryPath, payload)
}

// Do issues one REST-style call. Any 2xx status is success; everything
// else returns a *RemoteError. The response body is drained and discarded
// so connections can be reused.
func (c *Client) Do(ctx context.Context, method, endpoint string, payload json.RawMessage) error {
	ref, err := url.Parse(endpoint)
	if err != nil {
		return &RemoteError{Kind: Permanent, Method: method, Endpoint: endpoint, Err: err}
	}
	target := c.base.ResolveReference(ref)

	var body io.Reader
	if len(payload) > 0 {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), target.String(), body)
	if err != nil {
		return &RemoteError{Kind: Permanent, Method: method, Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Transport failure: DNS, refused connection, timeout. All
		// transient from the queue's point of view.
		return &RemoteError{Kind: Transient, Method: method, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &RemoteError{
		Kind:     classifyStatus(resp.StatusCode),
		Status:   resp.StatusCode,
		Method:   method,
		Endpoint: endpoint,
	}
}

// classifyStatus maps a non-2xx status to an error kind. 429 is the one
// 4xx the server uses to say "come back later", so it counts as
// transient.
func classifyStatus(status int) ErrorKind {
	if status >= 500 || status == http.StatusTooManyRequests {
		return Transient
	}
	return Permanent
}
