package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/drake/feeheat/event"
	"github.com/drake/feeheat/labels"
	"github.com/drake/feeheat/source"
	"github.com/drake/feeheat/ui/heatmap"
	"github.com/drake/feeheat/ui/style"
	"github.com/drake/feeheat/ui/util"
)

// WaitingText is shown until the first frame arrives.
const WaitingText = "Waiting for first frame…"

const (
	title         = "Live Mempool Heat-Map"
	unit          = "vbytes"
	noticeTimeout = 3 * time.Second
	paletteSteps  = 64
)

// ModelConfig holds the presentation settings for a Model.
type ModelConfig struct {
	Labels    labels.Formatter
	Scale     heatmap.Scale
	Endpoint  string
	Clipboard func(string) error // nil disables copy
	Now       func() time.Time
}

// Model is the Bubble Tea model for the heat-map view.
type Model struct {
	styles  style.Styles
	keys    keyMap
	help    help.Model
	spinner spinner.Model
	palette *heatmap.Palette
	labels  labels.Formatter
	scale   heatmap.Scale
	clip    func(string) error
	now     func() time.Time

	// Push-based state from Session
	current *source.Delivery
	status  Status

	// State
	width    int
	height   int
	outbound chan<- event.Event
	notice   string
	noticeID int
	quitting bool
}

// NewModel creates a new heat-map model.
func NewModel(cfg ModelConfig, outbound chan<- event.Event) Model {
	styles := style.DefaultStyles()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = styles.Spinner

	if cfg.Labels == nil {
		cfg.Labels = labels.NewDefault(0)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return Model{
		styles:   styles,
		keys:     defaultKeys(),
		help:     help.New(),
		spinner:  sp,
		palette:  heatmap.Jet(paletteSteps),
		labels:   cfg.Labels,
		scale:    cfg.Scale,
		clip:     cfg.Clipboard,
		now:      cfg.Now,
		status:   Status{Polling: true, Endpoint: cfg.Endpoint},
		outbound: outbound,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		doTick(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case FrameMsg:
		d := source.Delivery(msg)
		m.current = &d
		return m, nil

	case StatusMsg:
		endpoint := m.status.Endpoint
		m.status = Status(msg)
		if m.status.Endpoint == "" {
			m.status.Endpoint = endpoint
		}
		return m, nil

	case spinner.TickMsg:
		// Spin only while waiting; the tick chain stops once a frame is shown
		if m.current != nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		return m, doTick()

	case noticeClearMsg:
		if msg.id == m.noticeID {
			m.notice = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.sendOutbound(event.Control(event.ActionQuit))
		return m, tea.Quit

	case key.Matches(msg, m.keys.Pause):
		m.sendOutbound(event.Control(event.ActionTogglePause))
		return m, nil

	case key.Matches(msg, m.keys.Scale):
		m.scale = m.scale.Toggle()
		cmd := m.flash("scale: " + m.scale.String())
		return m, cmd

	case key.Matches(msg, m.keys.Copy):
		cmd := m.flash(m.copyFrame())
		return m, cmd

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	return m, nil
}

// copyFrame puts the current frame on the clipboard as JSON.
func (m Model) copyFrame() string {
	if m.current == nil {
		return "nothing to copy yet"
	}
	if m.clip == nil {
		return "clipboard unavailable"
	}
	data, err := m.current.Frame.MarshalIndent()
	if err != nil {
		return "copy failed: " + err.Error()
	}
	if err := m.clip(string(data)); err != nil {
		return "copy failed: " + err.Error()
	}
	return fmt.Sprintf("copied frame #%d", m.current.Seq)
}

// flash shows a notice for a few seconds.
func (m *Model) flash(text string) tea.Cmd {
	m.noticeID++
	m.notice = text
	id := m.noticeID
	return tea.Tick(noticeTimeout, func(time.Time) tea.Msg {
		return noticeClearMsg{id: id}
	})
}

func (m *Model) sendOutbound(ev event.Event) {
	if m.outbound == nil {
		return
	}
	select {
	case m.outbound <- ev:
	default:
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	header := m.styles.Title.Render(title)
	if m.status.Endpoint != "" {
		header += "  " + m.styles.Muted.Render(m.status.Endpoint)
	}

	footer := m.styles.Footer.Render(strings.Join([]string{
		m.statusLine(),
		m.help.View(m.keys),
	}, "\n"))

	body := m.body(lipgloss.Height(header) + lipgloss.Height(footer) + 1)

	return m.styles.App.Render(lipgloss.JoinVertical(lipgloss.Left, header, body, footer))
}

// body renders the grid, or the waiting indicator before the first frame.
func (m Model) body(reserved int) string {
	if m.current == nil {
		return m.styles.Grid.Render(m.spinner.View() + " " + m.styles.StatusWaiting.Render(WaitingText))
	}

	opts := heatmap.Options{
		Labels: m.labels,
		Scale:  m.scale,
		Paint:  m.palette.Paint,
		Unit:   unit,
	}
	if m.width > 0 {
		opts.MaxWidth = m.width - 2
	}
	if m.height > 0 {
		opts.MaxHeight = max(m.height-reserved, 4)
	}
	return m.styles.Grid.Render(heatmap.Render(m.current.Frame, opts))
}

// statusLine shows polling state on the left and counters on the right.
func (m Model) statusLine() string {
	var left string
	if m.status.Polling {
		left = m.styles.StatusPolling.Render("● polling")
	} else {
		left = m.styles.StatusPaused.Render("● paused")
	}

	if m.current != nil {
		age := m.now().Sub(m.current.At).Round(time.Second)
		left += m.styles.Muted.Render(fmt.Sprintf("  frame #%d · updated %s ago", m.current.Seq, age))
	}
	if m.notice != "" {
		left += "  " + m.styles.Notice.Render(m.notice)
	}

	st := m.status.Stats
	right := m.styles.Muted.Render(fmt.Sprintf("polls %d · frames %d · failed %d", st.Issued, st.Delivered, st.Failures()))

	width := m.width - 2
	if width <= 0 {
		return left + "  " + right
	}
	return util.SpreadLine(left, right, width)
}
