package network

import (
	"context"
	"sync"

	"github.com/drake/feeheat/frame"
)

// MockResponse is one scripted Fetch outcome.
// If Release is non-nil, Fetch blocks until it is closed (or ctx ends).
type MockResponse struct {
	Frame   frame.Frame
	Err     error
	Release <-chan struct{}
}

// MockFetcher implements the source fetcher contract for tests.
// Responses are consumed in call order; once exhausted, the last one repeats.
type MockFetcher struct {
	mu        sync.Mutex
	responses []MockResponse
	calls     int
	issued    chan int
}

// NewMockFetcher creates a mock that replays responses.
func NewMockFetcher(responses ...MockResponse) *MockFetcher {
	return &MockFetcher{
		responses: responses,
		issued:    make(chan int, 1024),
	}
}

// Fetch returns the next scripted response.
func (m *MockFetcher) Fetch(ctx context.Context) (frame.Frame, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	var resp MockResponse
	switch {
	case len(m.responses) == 0:
		resp = MockResponse{Err: &frame.PollError{Kind: frame.KindTransport, Err: context.Canceled}}
	case call <= len(m.responses):
		resp = m.responses[call-1]
	default:
		resp = m.responses[len(m.responses)-1]
	}
	m.mu.Unlock()

	select {
	case m.issued <- call:
	default:
	}

	if resp.Release != nil {
		select {
		case <-resp.Release:
		case <-ctx.Done():
			return frame.Frame{}, &frame.PollError{Kind: frame.KindTransport, Err: ctx.Err()}
		}
	}
	return resp.Frame, resp.Err
}

// Calls returns the number of Fetch calls so far.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Issued yields the 1-based call number of each Fetch as it starts.
func (m *MockFetcher) Issued() <-chan int {
	return m.issued
}
