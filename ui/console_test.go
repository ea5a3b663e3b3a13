package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/drake/feeheat/event"
)

func TestConsolePrintsWaitingOnceThenFrames(t *testing.T) {
	var out bytes.Buffer
	c := NewConsoleUI(ModelConfig{}, strings.NewReader(""), &out)

	c.SetStatus(Status{Polling: true})
	c.SetStatus(Status{Polling: true})
	if got := strings.Count(out.String(), WaitingText); got != 1 {
		t.Fatalf("waiting text printed %d times, want 1:\n%s", got, out.String())
	}

	c.ShowFrame(testDelivery())
	c.SetStatus(Status{Polling: true})

	s := out.String()
	if strings.Count(s, WaitingText) != 1 {
		t.Errorf("waiting text repeated after a frame:\n%s", s)
	}
	if !strings.Contains(s, "frame #4") {
		t.Errorf("missing frame header:\n%s", s)
	}
	// Not a terminal, so cells are shaded rather than coloured.
	if strings.Contains(s, "\x1b[") {
		t.Errorf("escape codes written to a non-terminal:\n%q", s)
	}
	if !strings.Contains(s, " 0 kB │") || strings.Index(s, " 0 kB") > strings.Index(s, "50 kB") {
		t.Errorf("grid rows out of order:\n%s", s)
	}
}

func TestConsoleCommands(t *testing.T) {
	var out bytes.Buffer
	c := NewConsoleUI(ModelConfig{}, strings.NewReader("p\n\nq\n"), &out)

	errc := make(chan error, 1)
	go func() { errc <- c.Run() }()

	var got []string
	for len(got) < 2 {
		select {
		case ev := <-c.Outbound():
			got = append(got, ev.Control.Action)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out, got %v", got)
		}
	}
	if got[0] != event.ActionTogglePause || got[1] != event.ActionQuit {
		t.Errorf("actions = %v", got)
	}

	if err := <-errc; err != nil {
		t.Errorf("Run: %v", err)
	}
	select {
	case <-c.Done():
	default:
		t.Error("Done not closed after Run")
	}
}

func TestConsoleQuitStopsRun(t *testing.T) {
	c := NewConsoleUI(ModelConfig{}, blockingReader{}, &bytes.Buffer{})

	errc := make(chan error, 1)
	go func() { errc <- c.Run() }()

	c.Quit()
	c.Quit()
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Quit")
	}
}

type blockingReader struct{}

func (blockingReader) Read([]byte) (int, error) {
	select {}
}
