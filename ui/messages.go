package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/drake/feeheat/source"
)

// FrameMsg carries a newly delivered frame to the model.
type FrameMsg source.Delivery

// StatusMsg carries polling state to the model.
type StatusMsg Status

// noticeClearMsg expires a transient notice.
type noticeClearMsg struct{ id int }

// tickMsg refreshes relative times in the status line.
type tickMsg time.Time

// doTick returns a command that sends a tickMsg after the given duration.
func doTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
