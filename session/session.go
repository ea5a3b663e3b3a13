// Package session holds the latest heat-map frame and ties a polling
// source to a rendering surface.
package session

import (
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/drake/feeheat/event"
	"github.com/drake/feeheat/frame"
	"github.com/drake/feeheat/internal/buffer"
	"github.com/drake/feeheat/source"
	"github.com/drake/feeheat/ui"
)

const (
	defaultStatusInterval = time.Second
	busInitialCap         = 64
	busHardLimit          = 4096
)

// Starter is the part of a source.Source a Session needs.
type Starter interface {
	Start(onFrame func(source.Delivery)) source.CancelHandle
	Stats() source.Stats
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStatusInterval sets how often polling status is pushed to the UI.
func WithStatusInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.statusEvery = d
		}
	}
}

// WithEndpoint sets the endpoint shown in the status line.
func WithEndpoint(url string) Option {
	return func(s *Session) { s.endpoint = url }
}

// Stats is a snapshot of session state for the status line and debug monitor.
type Stats struct {
	Active          bool
	HasFrame        bool
	Activations     int
	EventsProcessed uint64
	EventQueueLen   int
	EventsDropped   uint64
	Goroutines      int
	Source          source.Stats // Summed over every activation
}

// Session is the frame consumer. It owns at most one running source and
// holds the most recently delivered frame.
type Session struct {
	newSource   func() Starter
	ui          ui.UI
	logger      *slog.Logger
	statusEvery time.Duration
	endpoint    string

	// mu guards the slot and the activation state. The "still active"
	// check and the slot write happen under it together.
	mu          sync.Mutex
	active      bool
	generation  int
	src         Starter
	cancel      source.CancelHandle
	current     source.Delivery
	hasFrame    bool
	activations int
	past        source.Stats // Counters of sources already cancelled

	// Event bus
	events          *buffer.Queue[event.Event]
	eventsProcessed atomic.Uint64

	// Shutdown coordination
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a Session. It is passive: nothing polls until Activate or Run.
func New(newSource func() Starter, surface ui.UI, opts ...Option) *Session {
	s := &Session{
		newSource:   newSource,
		ui:          surface,
		logger:      slog.Default(),
		statusEvery: defaultStatusInterval,
		events:      buffer.Unbounded[event.Event](busInitialCap, busHardLimit),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Activate starts a fresh source. Activating an active session is a no-op.
func (s *Session) Activate() {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return
	}
	s.active = true
	s.generation++
	s.activations++
	gen := s.generation
	src := s.newSource()
	s.src = src
	s.mu.Unlock()

	handle := src.Start(func(d source.Delivery) {
		s.receive(gen, d)
	})

	s.mu.Lock()
	if s.active && s.generation == gen {
		s.cancel = handle
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	// Deactivated while starting
	handle.Cancel()
}

// Deactivate cancels the running source. The held frame is kept.
// Safe to call repeatedly and before any frame arrived.
func (s *Session) Deactivate() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	handle := s.cancel
	src := s.src
	s.cancel = nil
	s.src = nil
	s.mu.Unlock()

	// Cancel outside the lock: it waits for an in-progress receive.
	if handle != nil {
		handle.Cancel()
	}
	if src != nil {
		st := src.Stats()
		s.mu.Lock()
		s.past = mergeStats(s.past, st)
		s.mu.Unlock()
	}
}

// Active reports whether a source is running.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Current returns the held frame, or false if none arrived yet.
func (s *Session) Current() (source.Delivery, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.hasFrame
}

// receive replaces the held frame wholesale, unless the activation that
// produced it has ended.
func (s *Session) receive(gen int, d source.Delivery) {
	s.mu.Lock()
	if !s.active || s.generation != gen {
		s.mu.Unlock()
		s.logger.Debug("frame after deactivate dropped", "seq", d.Seq)
		return
	}
	s.current = d
	s.hasFrame = true
	s.mu.Unlock()

	s.ui.ShowFrame(d)
}

// Stats returns a snapshot of session and source counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	st := Stats{
		Active:      s.active,
		HasFrame:    s.hasFrame,
		Activations: s.activations,
		Source:      s.past,
	}
	src := s.src
	s.mu.Unlock()

	if src != nil {
		st.Source = mergeStats(st.Source, src.Stats())
	}
	st.EventsProcessed = s.eventsProcessed.Load()
	st.EventQueueLen = s.events.Len()
	st.EventsDropped = s.events.Dropped()
	st.Goroutines = runtime.NumGoroutine()
	return st
}

// Run activates, blocks on the UI, and deactivates when the UI exits.
func (s *Session) Run() error {
	s.Activate()
	s.pushStatus()

	go s.processEvents()
	go s.statusLoop()

	err := s.ui.Run()
	s.shutdown()
	return err
}

// Pause requests deactivation on the session loop.
func (s *Session) Pause() { s.post(event.Control(event.ActionPause)) }

// Resume requests a new activation on the session loop.
func (s *Session) Resume() { s.post(event.Control(event.ActionResume)) }

// Quit requests shutdown.
func (s *Session) Quit() { s.post(event.Control(event.ActionQuit)) }

// Done is closed once the session has shut down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) post(ev event.Event) {
	select {
	case <-s.done:
	case s.events.In() <- ev:
	}
}

// processEvents is the main event loop.
func (s *Session) processEvents() {
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.events.Out():
			s.handleEvent(ev)
		case ev := <-s.ui.Outbound():
			s.handleEvent(ev)
		}
	}
}

// handleEvent executes a single event on the session loop.
func (s *Session) handleEvent(ev event.Event) {
	s.eventsProcessed.Add(1)

	switch ev.Type {
	case event.AsyncResult:
		if ev.Callback != nil {
			ev.Callback()
		}
	case event.SystemControl:
		s.handleControl(ev.Control)
	}
}

// handleControl processes control requests from the UI.
func (s *Session) handleControl(ctrl event.ControlOp) {
	switch ctrl.Action {
	case event.ActionQuit:
		s.shutdown()
		return
	case event.ActionPause:
		s.Deactivate()
	case event.ActionResume:
		s.Activate()
	case event.ActionTogglePause:
		if s.Active() {
			s.Deactivate()
		} else {
			s.Activate()
		}
	default:
		s.logger.Warn("unknown control action", "action", ctrl.Action)
		return
	}
	s.logger.Debug("control", "action", ctrl.Action, "active", s.Active())
	s.pushStatus()
}

// statusLoop refreshes the status line on the session loop.
func (s *Session) statusLoop() {
	ticker := time.NewTicker(s.statusEvery)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.post(event.Event{Type: event.AsyncResult, Callback: s.pushStatus})
		}
	}
}

func (s *Session) pushStatus() {
	st := s.Stats()
	s.ui.SetStatus(ui.Status{
		Polling:  st.Active,
		Endpoint: s.endpoint,
		Stats:    st.Source,
	})
}

// shutdown deactivates and requests UI exit.
func (s *Session) shutdown() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.Deactivate()
		s.ui.Quit()
	})
}

// mergeStats adds b's counters to a. State and last-frame fields come
// from whichever side delivered most recently.
func mergeStats(a, b source.Stats) source.Stats {
	out := source.Stats{
		State:     b.State,
		Issued:    a.Issued + b.Issued,
		Delivered: a.Delivered + b.Delivered,
		Stale:     a.Stale + b.Stale,
		Late:      a.Late + b.Late,
		Failed:    make(map[frame.Kind]uint64, len(a.Failed)+len(b.Failed)),
		LastSeq:   a.LastSeq,
		LastFrame: a.LastFrame,
	}
	for k, v := range a.Failed {
		out.Failed[k] += v
	}
	for k, v := range b.Failed {
		out.Failed[k] += v
	}
	if b.LastFrame.After(a.LastFrame) {
		out.LastSeq = b.LastSeq
		out.LastFrame = b.LastFrame
	}
	return out
}
