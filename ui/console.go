package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/drake/feeheat/event"
	"github.com/drake/feeheat/source"
	"github.com/drake/feeheat/ui/heatmap"
)

// ConsoleUI prints each delivered frame as a plain grid.
// Lines read from the input act as commands: "q" quits, "p" toggles pause.
type ConsoleUI struct {
	cfg   ModelConfig
	in    io.Reader
	out   io.Writer
	paint heatmap.Painter

	mu      sync.Mutex // serialises writes to out
	waiting bool       // waiting text already printed
	shown   bool       // at least one frame printed

	outbound chan event.Event
	done     chan struct{}
	doneOnce sync.Once
}

// NewConsoleUI creates a console surface reading commands from in and
// printing to out. Colour is used only when out is a colour terminal.
func NewConsoleUI(cfg ModelConfig, in io.Reader, out io.Writer) *ConsoleUI {
	return &ConsoleUI{
		cfg:      cfg,
		in:       in,
		out:      out,
		paint:    consolePainter(out, heatmap.Jet(paletteSteps)),
		outbound: make(chan event.Event, 64),
		done:     make(chan struct{}),
	}
}

// consolePainter picks termenv background cells on a colour TTY and ASCII
// shading everywhere else.
func consolePainter(out io.Writer, p *heatmap.Palette) heatmap.Painter {
	f, ok := out.(*os.File)
	if !ok || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return heatmap.Shade
	}
	profile := termenv.NewOutput(out).EnvColorProfile()
	if profile == termenv.Ascii {
		return heatmap.Shade
	}
	return func(t float64, width int) string {
		return profile.String(strings.Repeat(" ", width)).
			Background(profile.Color(p.Hex(t))).
			String()
	}
}

// ShowFrame prints the frame below any previous output.
func (c *ConsoleUI) ShowFrame(d source.Delivery) {
	grid := heatmap.Render(d.Frame, heatmap.Options{
		Labels: c.cfg.Labels,
		Scale:  c.cfg.Scale,
		Paint:  c.paint,
		Unit:   unit,
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.shown = true
	fmt.Fprintf(c.out, "%s · frame #%d · %s\n%s\n\n", title, d.Seq, d.At.Format("15:04:05"), grid)
}

// SetStatus prints the waiting text once before the first frame, and
// pause transitions afterwards.
func (c *ConsoleUI) SetStatus(s Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.shown && !c.waiting && s.Polling {
		c.waiting = true
		fmt.Fprintln(c.out, WaitingText)
	}
}

// Outbound returns control requests for the Session event loop.
func (c *ConsoleUI) Outbound() <-chan event.Event {
	return c.outbound
}

// Run reads commands until "q", end of input, or Quit.
func (c *ConsoleUI) Run() error {
	scanDone := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			switch strings.TrimSpace(scanner.Text()) {
			case "q", "quit":
				c.emit(event.Control(event.ActionQuit))
				scanDone <- nil
				return
			case "p", "pause":
				c.emit(event.Control(event.ActionTogglePause))
			}
		}
		scanDone <- scanner.Err()
	}()

	var err error
	select {
	case <-c.done:
	case err = <-scanDone:
	}

	c.doneOnce.Do(func() {
		close(c.done)
	})
	return err
}

func (c *ConsoleUI) emit(ev event.Event) {
	select {
	case c.outbound <- ev:
	case <-c.done:
	}
}

// Done returns a channel that closes when the UI exits.
func (c *ConsoleUI) Done() <-chan struct{} {
	return c.done
}

// Quit stops the UI.
func (c *ConsoleUI) Quit() {
	c.doneOnce.Do(func() {
		close(c.done)
	})
}
