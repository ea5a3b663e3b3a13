// Package source polls the heat-map endpoint on a fixed cadence and hands
// each new frame to exactly one subscriber.
//
// Polling starts with an immediate attempt, then repeats every interval
// measured start-to-start. Attempts may overlap. Every failure is absorbed:
// the only observable effect of a failed attempt is that no frame arrives
// for that tick. Attempts are numbered when issued, and a result is handed
// on only if it is newer than the last one handed on, so a slow response
// can never overwrite a fresher frame.
package source

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/drake/feeheat/frame"
	"github.com/drake/feeheat/timer"
)

// DefaultInterval is the polling cadence.
const DefaultInterval = 3000 * time.Millisecond

// Fetcher performs one poll attempt.
type Fetcher interface {
	Fetch(ctx context.Context) (frame.Frame, error)
}

// Delivery is a frame tagged with the attempt that produced it.
type Delivery struct {
	Seq   uint64
	Frame frame.Frame
	At    time.Time // When the frame was handed on
}

// Result is the outcome of one poll attempt.
type Result struct {
	Seq   uint64
	Frame frame.Frame
	Err   error
}

// CancelHandle stops a started Source.
type CancelHandle interface {
	Cancel()
}

// State is the lifecycle state of a Source.
type State int

const (
	StateIdle State = iota
	StatePolling
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Stats is a snapshot of a Source's counters.
type Stats struct {
	State     State
	Issued    uint64 // Attempts started
	Delivered uint64 // Frames handed to the subscriber
	Stale     uint64 // Valid frames older than the last delivery
	Late      uint64 // Valid frames that arrived after Cancel
	Failed    map[frame.Kind]uint64
	LastSeq   uint64    // Seq of the last delivered frame
	LastFrame time.Time // When the last frame was delivered
}

// Failures returns the total number of failed attempts.
func (s Stats) Failures() uint64 {
	var n uint64
	for _, v := range s.Failed {
		n += v
	}
	return n
}

// Option configures a Source.
type Option func(*Source)

// WithClock replaces the wall clock, for tests.
func WithClock(c timer.Clock) Option {
	return func(s *Source) { s.clock = c }
}

// WithInterval sets the polling cadence.
func WithInterval(d time.Duration) Option {
	return func(s *Source) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLogger sets the logger used for debug traces.
func WithLogger(l *slog.Logger) Option {
	return func(s *Source) {
		if l != nil {
			s.logger = l
		}
	}
}

// Source is the polling loop. A Source is single-use: Start it once,
// cancel it once, and create a new one to poll again.
type Source struct {
	fetcher  Fetcher
	clock    timer.Clock
	interval time.Duration
	logger   *slog.Logger

	// mu guards everything below and serialises deliveries, so onFrame is
	// never called concurrently or after Cancel returns.
	mu      sync.Mutex
	state   State
	timers  *timer.Service
	onFrame func(Delivery)
	nextSeq uint64
	stats   Stats
}

// New creates an idle Source.
func New(f Fetcher, opts ...Option) *Source {
	s := &Source{
		fetcher:  f,
		clock:    timer.RealClock{},
		interval: DefaultInterval,
		logger:   slog.Default(),
		stats:    Stats{Failed: make(map[frame.Kind]uint64)},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins polling and returns the handle that stops it.
// The first attempt is issued before Start returns. onFrame must not call
// Cancel on the returned handle; it runs while the Source holds its lock.
// Starting a Source twice is a caller error: the second call does nothing
// and returns a handle whose Cancel is a no-op.
func (s *Source) Start(onFrame func(Delivery)) CancelHandle {
	s.mu.Lock()
	if s.state != StateIdle {
		state := s.state
		s.mu.Unlock()
		s.logger.Warn("source already started", "state", state)
		return noopHandle{}
	}

	s.state = StatePolling
	s.onFrame = onFrame
	s.timers = timer.NewService(s.clock, func(timer.Event) { s.tick() })
	s.timers.Every(s.interval)
	s.mu.Unlock()

	s.logger.Debug("polling started", "interval", s.interval)
	s.tick()

	return &handle{s: s}
}

// Stats returns a snapshot of the counters.
func (s *Source) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.stats
	out.State = s.state
	out.Failed = make(map[frame.Kind]uint64, len(s.stats.Failed))
	for k, v := range s.stats.Failed {
		out.Failed[k] = v
	}
	return out
}

// tick issues one attempt if the source is still polling.
func (s *Source) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePolling {
		return
	}
	s.nextSeq++
	s.stats.Issued++
	go s.poll(s.nextSeq)
}

func (s *Source) poll(seq uint64) {
	f, err := s.fetcher.Fetch(context.Background())
	s.deliver(Result{Seq: seq, Frame: f, Err: err})
}

// deliver applies the absorption policy to one result. Failed attempts are
// counted and discarded here; nothing is surfaced and nothing is retried
// before the next regular tick. A frame is handed on only while polling and
// only if it is newer than the last one handed on.
func (s *Source) deliver(res Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res.Err != nil {
		kind := frame.KindOf(res.Err)
		s.stats.Failed[kind]++
		s.logger.Debug("poll failed", "seq", res.Seq, "kind", kind, "error", res.Err)
		return
	}

	if s.state != StatePolling {
		s.stats.Late++
		s.logger.Debug("dropping frame after cancel", "seq", res.Seq)
		return
	}

	if res.Seq <= s.stats.LastSeq {
		s.stats.Stale++
		s.logger.Debug("dropping stale frame", "seq", res.Seq, "last", s.stats.LastSeq)
		return
	}

	now := s.clock.Now()
	s.stats.LastSeq = res.Seq
	s.stats.LastFrame = now
	s.stats.Delivered++
	s.onFrame(Delivery{Seq: res.Seq, Frame: res.Frame, At: now})
}

// cancel moves the source to Stopped. Safe to call repeatedly.
func (s *Source) cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePolling {
		return
	}
	s.state = StateStopped
	s.timers.CancelAll()
	s.logger.Debug("polling stopped", "issued", s.stats.Issued, "delivered", s.stats.Delivered)
}

type handle struct {
	s *Source
}

// Cancel halts all future polling. In-flight attempts finish but their
// results are dropped. When Cancel returns no further tick fires and
// onFrame is not called again.
func (h *handle) Cancel() {
	h.s.cancel()
}

type noopHandle struct{}

func (noopHandle) Cancel() {}
