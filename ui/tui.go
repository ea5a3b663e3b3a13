package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/drake/feeheat/event"
	"github.com/drake/feeheat/source"
)

// BubbleTeaUI implements UI using Bubble Tea.
// Session pushes frames and status through a queue that a single goroutine
// drains into the program, so producers never block on tea.Program.Send.
type BubbleTeaUI struct {
	cfg     ModelConfig
	options []tea.ProgramOption
	program *tea.Program

	// Message queue - buffered channel drained by a single goroutine.
	msgQueue chan tea.Msg

	// Outbound control requests from UI to Session.
	outbound chan event.Event

	// Shutdown coordination
	done     chan struct{}
	doneOnce sync.Once
	mu       sync.Mutex
}

// NewBubbleTeaUI creates a new Bubble Tea-based UI.
// Extra program options are appended after the alt-screen default.
func NewBubbleTeaUI(cfg ModelConfig, opts ...tea.ProgramOption) *BubbleTeaUI {
	return &BubbleTeaUI{
		cfg:      cfg,
		options:  opts,
		msgQueue: make(chan tea.Msg, 256),
		outbound: make(chan event.Event, 64),
		done:     make(chan struct{}),
	}
}

// send queues a message for delivery to the Bubble Tea program.
// Frames replace each other wholesale, so a full queue is not expected;
// send still blocks rather than drop, unless the UI has exited.
func (b *BubbleTeaUI) send(msg tea.Msg) {
	select {
	case <-b.done:
		return
	case b.msgQueue <- msg:
	}
}

// ShowFrame replaces the displayed frame.
func (b *BubbleTeaUI) ShowFrame(d source.Delivery) {
	b.send(FrameMsg(d))
}

// SetStatus updates the polling status line.
func (b *BubbleTeaUI) SetStatus(s Status) {
	b.send(StatusMsg(s))
}

// Outbound returns control requests for the Session event loop.
func (b *BubbleTeaUI) Outbound() <-chan event.Event {
	return b.outbound
}

// Run starts the TUI and blocks until exit.
func (b *BubbleTeaUI) Run() error {
	model := NewModel(b.cfg, b.outbound)

	opts := append([]tea.ProgramOption{tea.WithAltScreen()}, b.options...)
	program := tea.NewProgram(model, opts...)

	b.mu.Lock()
	b.program = program
	b.mu.Unlock()

	go func() {
		for {
			select {
			case <-b.done:
				return
			case msg := <-b.msgQueue:
				program.Send(msg)
			}
		}
	}()

	_, err := program.Run()

	b.doneOnce.Do(func() {
		close(b.done)
	})
	return err
}

// Done returns a channel that closes when the UI exits.
func (b *BubbleTeaUI) Done() <-chan struct{} {
	return b.done
}

// Quit signals the TUI to exit.
func (b *BubbleTeaUI) Quit() {
	b.mu.Lock()
	program := b.program
	b.mu.Unlock()

	if program != nil {
		program.Quit()
	}
	b.doneOnce.Do(func() {
		close(b.done)
	})
}
