package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/drake/feeheat/frame"
)

// HeatmapPath is the fixed endpoint path served by the backend.
const HeatmapPath = "/api/heatmap"

const (
	defaultTimeout      = 10 * time.Second
	defaultMaxBodyBytes = 8 << 20
)

// Stats holds fetch statistics for monitoring.
type Stats struct {
	Requests     uint64
	Frames       uint64
	Transport    uint64
	Status       uint64
	Parse        uint64
	Shape        uint64
	BytesRead    uint64
	LastStatus   int
	LastRequest  time.Time
	LastSuccess  time.Time
	LastDuration time.Duration
}

// Failures returns the total of all failure kinds.
func (s Stats) Failures() uint64 {
	return s.Transport + s.Status + s.Parse + s.Shape
}

// HTTPClient fetches one frame per call from the heat-map endpoint.
// It is safe for concurrent use; overlapping fetches are allowed.
type HTTPClient struct {
	url          string
	http         *http.Client
	maxBodyBytes int64

	// Stats (atomic for lock-free reads)
	requests     atomic.Uint64
	frames       atomic.Uint64
	failures     [4]atomic.Uint64 // Indexed by frame.Kind
	bytesRead    atomic.Uint64
	lastStatus   atomic.Int64
	lastRequest  atomic.Int64 // Unix nano
	lastSuccess  atomic.Int64 // Unix nano
	lastDuration atomic.Int64
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithTimeout bounds a single request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithMaxBodyBytes caps the response body size.
func WithMaxBodyBytes(n int64) Option {
	return func(c *HTTPClient) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// WithHTTPClient replaces the underlying http.Client. Its Timeout is kept.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewHTTPClient creates a client polling baseURL + HeatmapPath.
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		url:          strings.TrimRight(baseURL, "/") + HeatmapPath,
		http:         &http.Client{Timeout: defaultTimeout},
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the full endpoint URL.
func (c *HTTPClient) URL() string {
	return c.url
}

// Fetch performs one GET and decodes the body into a validated frame.
// Every failure is returned as a *frame.PollError.
func (c *HTTPClient) Fetch(ctx context.Context) (frame.Frame, error) {
	start := time.Now()
	c.requests.Add(1)
	c.lastRequest.Store(start.UnixNano())

	f, err := c.fetch(ctx)
	c.lastDuration.Store(int64(time.Since(start)))

	if err != nil {
		c.failures[frame.KindOf(err)].Add(1)
		return frame.Frame{}, err
	}

	c.frames.Add(1)
	c.lastSuccess.Store(time.Now().UnixNano())
	return f, nil
}

func (c *HTTPClient) fetch(ctx context.Context) (frame.Frame, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return frame.Frame{}, &frame.PollError{Kind: frame.KindTransport, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return frame.Frame{}, &frame.PollError{Kind: frame.KindTransport, Err: err}
	}
	defer resp.Body.Close()

	c.lastStatus.Store(int64(resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return frame.Frame{}, &frame.PollError{Kind: frame.KindStatus, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	c.bytesRead.Add(uint64(len(body)))
	if err != nil {
		// A body cut off mid-read is a transport problem, including client timeouts
		return frame.Frame{}, &frame.PollError{Kind: frame.KindTransport, Err: err}
	}
	if int64(len(body)) > c.maxBodyBytes {
		return frame.Frame{}, &frame.PollError{
			Kind: frame.KindParse,
			Err:  fmt.Errorf("body exceeds %d bytes", c.maxBodyBytes),
		}
	}

	f, err := frame.DecodeBytes(body)
	if err != nil {
		var pe *frame.PollError
		if errors.As(err, &pe) {
			pe.Status = resp.StatusCode
		}
		return frame.Frame{}, err
	}
	return f, nil
}

// Stats returns current fetch statistics.
func (c *HTTPClient) Stats() Stats {
	return Stats{
		Requests:     c.requests.Load(),
		Frames:       c.frames.Load(),
		Transport:    c.failures[frame.KindTransport].Load(),
		Status:       c.failures[frame.KindStatus].Load(),
		Parse:        c.failures[frame.KindParse].Load(),
		Shape:        c.failures[frame.KindShape].Load(),
		BytesRead:    c.bytesRead.Load(),
		LastStatus:   int(c.lastStatus.Load()),
		LastRequest:  unixNano(c.lastRequest.Load()),
		LastSuccess:  unixNano(c.lastSuccess.Load()),
		LastDuration: time.Duration(c.lastDuration.Load()),
	}
}

func unixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
