package ui

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/drake/feeheat/event"
	"github.com/drake/feeheat/frame"
	"github.com/drake/feeheat/source"
	"github.com/drake/feeheat/text"
	"github.com/drake/feeheat/ui/heatmap"
)

var now = time.Date(2024, 1, 1, 12, 0, 10, 0, time.UTC)

func testDelivery() source.Delivery {
	return source.Delivery{
		Seq: 4,
		Frame: frame.Frame{
			X: []float64{1, 2},
			Y: []float64{0, 1},
			Z: [][]float64{{5, 10}, {15, 20}},
		},
		At: now.Add(-5 * time.Second),
	}
}

func newTestModel(out chan event.Event, clip func(string) error) Model {
	m := NewModel(ModelConfig{
		Endpoint:  "http://localhost:8000/api/heatmap",
		Clipboard: clip,
		Now:       func() time.Time { return now },
	}, out)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func press(m Model, keys string) (Model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
	return next.(Model), cmd
}

func plain(m Model) string {
	return text.StripANSI(m.View())
}

func TestViewWaitsForFirstFrame(t *testing.T) {
	m := newTestModel(nil, nil)

	view := plain(m)
	if !strings.Contains(view, WaitingText) {
		t.Errorf("view missing waiting text:\n%s", view)
	}
	if strings.Contains(view, "kB") {
		t.Errorf("grid drawn before any frame:\n%s", view)
	}
}

func TestViewShowsFrame(t *testing.T) {
	m := newTestModel(nil, nil)
	next, _ := m.Update(FrameMsg(testDelivery()))
	m = next.(Model)

	view := plain(m)
	if strings.Contains(view, WaitingText) {
		t.Error("waiting text still shown after a frame")
	}
	zero := strings.Index(view, " 0 kB")
	fifty := strings.Index(view, "50 kB")
	if zero < 0 || fifty < 0 || zero > fifty {
		t.Errorf("row 0 should be drawn above row 1:\n%s", view)
	}
	if !strings.Contains(view, "1 sat/vB") {
		t.Errorf("missing x label:\n%s", view)
	}
	if !strings.Contains(view, "frame #4") || !strings.Contains(view, "updated 5s ago") {
		t.Errorf("status line missing frame info:\n%s", view)
	}
}

func TestStatusLine(t *testing.T) {
	m := newTestModel(nil, nil)
	next, _ := m.Update(StatusMsg{
		Polling: false,
		Stats: source.Stats{
			Issued:    7,
			Delivered: 5,
			Failed:    map[frame.Kind]uint64{frame.KindStatus: 2},
		},
	})
	m = next.(Model)

	view := plain(m)
	for _, want := range []string{"paused", "polls 7", "frames 5", "failed 2", "http://localhost:8000/api/heatmap"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestPauseKeySendsToggle(t *testing.T) {
	out := make(chan event.Event, 1)
	m := newTestModel(out, nil)

	press(m, "p")

	select {
	case ev := <-out:
		if ev.Type != event.SystemControl || ev.Control.Action != event.ActionTogglePause {
			t.Errorf("event = %+v", ev)
		}
	default:
		t.Fatal("no outbound event")
	}
}

func TestQuitKey(t *testing.T) {
	out := make(chan event.Event, 1)
	m := newTestModel(out, nil)

	m, cmd := press(m, "q")
	if cmd == nil {
		t.Fatal("quit returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit command is not tea.Quit")
	}
	if ev := <-out; ev.Control.Action != event.ActionQuit {
		t.Errorf("event = %+v", ev)
	}
	if m.View() != "" {
		t.Error("view not cleared on quit")
	}
}

func TestScaleKeyToggles(t *testing.T) {
	m := newTestModel(nil, nil)
	if m.scale != heatmap.Linear {
		t.Fatalf("initial scale = %v", m.scale)
	}

	m, _ = press(m, "s")
	if m.scale != heatmap.Log {
		t.Errorf("scale = %v, want log", m.scale)
	}
	if !strings.Contains(plain(m), "scale: log") {
		t.Error("no scale notice")
	}

	m, _ = press(m, "s")
	if m.scale != heatmap.Linear {
		t.Errorf("scale = %v, want linear", m.scale)
	}
}

func TestCopyKey(t *testing.T) {
	var copied string
	clip := func(s string) error {
		copied = s
		return nil
	}

	m := newTestModel(nil, clip)
	m, _ = press(m, "y")
	if copied != "" {
		t.Fatal("copied before any frame")
	}
	if !strings.Contains(plain(m), "nothing to copy yet") {
		t.Error("missing empty-copy notice")
	}

	next, _ := m.Update(FrameMsg(testDelivery()))
	m, _ = press(next.(Model), "y")

	var f frame.Frame
	if err := json.Unmarshal([]byte(copied), &f); err != nil {
		t.Fatalf("clipboard is not frame JSON: %v\n%s", err, copied)
	}
	if f.Z[1][1] != 20 {
		t.Errorf("copied z = %v", f.Z)
	}
	if !strings.Contains(plain(m), "copied frame #4") {
		t.Error("missing copy notice")
	}
}

func TestCopyFailureNotice(t *testing.T) {
	m := newTestModel(nil, func(string) error { return errors.New("no display") })
	next, _ := m.Update(FrameMsg(testDelivery()))
	m, _ = press(next.(Model), "y")

	if !strings.Contains(plain(m), "copy failed: no display") {
		t.Errorf("missing failure notice:\n%s", plain(m))
	}
}

func TestNoticeExpires(t *testing.T) {
	m := newTestModel(nil, nil)
	m, _ = press(m, "s")
	id := m.noticeID

	// A stale clear from an older notice is ignored.
	next, _ := m.Update(noticeClearMsg{id: id - 1})
	m = next.(Model)
	if m.notice == "" {
		t.Fatal("stale clear removed the notice")
	}

	next, _ = m.Update(noticeClearMsg{id: id})
	m = next.(Model)
	if m.notice != "" {
		t.Errorf("notice = %q after clear", m.notice)
	}
}

func TestHelpToggle(t *testing.T) {
	m := newTestModel(nil, nil)
	m, _ = press(m, "?")
	if !m.help.ShowAll {
		t.Error("full help not shown")
	}
	if !strings.Contains(plain(m), "copy frame") {
		t.Errorf("help missing bindings:\n%s", plain(m))
	}
}
