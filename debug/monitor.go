// Package debug provides runtime monitoring and diagnostics.
package debug

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/drake/feeheat/network"
	"github.com/drake/feeheat/session"
)

// EnvVar enables debug mode when set to "1".
const EnvVar = "FEEHEAT_DEBUG"

const defaultInterval = 5 * time.Second

// Enabled returns true if debug mode is active (FEEHEAT_DEBUG=1).
func Enabled() bool {
	return os.Getenv(EnvVar) == "1"
}

// Monitor periodically logs session and client statistics.
type Monitor struct {
	session  *session.Session
	client   *network.HTTPClient
	interval time.Duration
	logger   *slog.Logger
}

// NewMonitor creates a monitor. client may be nil.
func NewMonitor(s *session.Session, client *network.HTTPClient, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		session:  s,
		client:   client,
		interval: defaultInterval,
		logger:   logger,
	}
}

// Start begins the monitoring loop in a goroutine. A nil Monitor does nothing.
func (m *Monitor) Start(ctx context.Context) {
	if m == nil {
		return
	}
	go m.run(ctx)
}

func (m *Monitor) run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Debug("monitor started", "interval", m.interval)

	for {
		select {
		case <-ctx.Done():
			m.logger.Debug("monitor stopped")
			return
		case <-ticker.C:
			m.logStats()
		}
	}
}

func (m *Monitor) logStats() {
	s := m.session.Stats()
	src := s.Source

	lastFrame := "never"
	if !src.LastFrame.IsZero() {
		lastFrame = time.Since(src.LastFrame).Round(time.Second).String() + " ago"
	}

	attrs := []any{
		slog.Bool("active", s.Active),
		slog.Int("activations", s.Activations),
		slog.Uint64("events", s.EventsProcessed),
		slog.Int("eventQ", s.EventQueueLen),
		slog.Uint64("eventsDropped", s.EventsDropped),
		slog.Int("goroutines", s.Goroutines),
		slog.Group("source",
			slog.String("state", src.State.String()),
			slog.Uint64("issued", src.Issued),
			slog.Uint64("delivered", src.Delivered),
			slog.Uint64("stale", src.Stale),
			slog.Uint64("late", src.Late),
			slog.Uint64("failed", src.Failures()),
			slog.Uint64("lastSeq", src.LastSeq),
			slog.String("lastFrame", lastFrame),
		),
	}

	if m.client != nil {
		n := m.client.Stats()
		attrs = append(attrs, slog.Group("http",
			slog.Uint64("requests", n.Requests),
			slog.Uint64("frames", n.Frames),
			slog.Uint64("transport", n.Transport),
			slog.Uint64("status", n.Status),
			slog.Uint64("parse", n.Parse),
			slog.Uint64("shape", n.Shape),
			slog.Uint64("bytes", n.BytesRead),
			slog.Int("lastStatus", n.LastStatus),
			slog.Duration("lastDuration", n.LastDuration),
		))
	}

	m.logger.Debug("stats", attrs...)
}
