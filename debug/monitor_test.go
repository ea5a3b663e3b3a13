package debug

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/drake/feeheat/event"
	"github.com/drake/feeheat/network"
	"github.com/drake/feeheat/session"
	"github.com/drake/feeheat/source"
	"github.com/drake/feeheat/ui"
)

type idleUI struct{}

func (idleUI) Run() error                   { return nil }
func (idleUI) Quit()                        {}
func (idleUI) Done() <-chan struct{}        { return nil }
func (idleUI) Outbound() <-chan event.Event { return nil }
func (idleUI) ShowFrame(source.Delivery)    {}
func (idleUI) SetStatus(ui.Status)          {}

func TestEnabled(t *testing.T) {
	t.Setenv(EnvVar, "1")
	if !Enabled() {
		t.Error("Enabled() = false with FEEHEAT_DEBUG=1")
	}
	t.Setenv(EnvVar, "")
	if Enabled() {
		t.Error("Enabled() = true without FEEHEAT_DEBUG")
	}
}

func TestLogStats(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s := session.New(func() session.Starter { return nil }, idleUI{})
	m := NewMonitor(s, network.NewHTTPClient("http://localhost:8000"), logger)
	m.logStats()

	out := buf.String()
	for _, want := range []string{"msg=stats", "active=false", "source.state=idle", "source.lastFrame=never", "http.requests=0"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestNilMonitorStart(t *testing.T) {
	var m *Monitor
	m.Start(t.Context())
}
