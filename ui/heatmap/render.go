// Package heatmap draws a frame as a labelled grid of coloured cells.
// Row 0 is drawn at the top so the smallest size buckets come first.
package heatmap

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/drake/feeheat/frame"
	"github.com/drake/feeheat/labels"
)

const (
	defaultCellWidth = 3
	legendSwatches   = 12
)

// Options controls layout and appearance.
type Options struct {
	Labels    labels.Formatter
	Scale     Scale
	Paint     Painter
	CellWidth int    // Columns per cell; shrinks to fit MaxWidth
	MaxWidth  int    // 0 = unlimited
	MaxHeight int    // 0 = unlimited
	Unit      string // Legend unit, e.g. "vbytes"
}

func (o Options) withDefaults() Options {
	if o.Labels == nil {
		o.Labels = labels.NewDefault(0)
	}
	if o.Paint == nil {
		o.Paint = Shade
	}
	if o.CellWidth <= 0 {
		o.CellWidth = defaultCellWidth
	}
	return o
}

// Layout is the fitted geometry of a rendered grid.
type Layout struct {
	LabelWidth int
	CellWidth  int
	Columns    int // Columns drawn
	Rows       int // Rows drawn
	HiddenCols int
	HiddenRows int
}

// Fit computes the grid geometry for f within the option limits.
func Fit(f frame.Frame, opts Options) Layout {
	opts = opts.withDefaults()

	lw := 0
	for _, y := range f.Y {
		lw = max(lw, ansi.StringWidth(opts.Labels.Y(y)))
	}

	l := Layout{LabelWidth: lw, CellWidth: opts.CellWidth, Columns: f.Width(), Rows: f.Height()}

	if opts.MaxWidth > 0 && l.Columns > 0 {
		budget := max(opts.MaxWidth-lw-2, 0)
		if l.Columns*l.CellWidth > budget {
			l.CellWidth = max(budget/l.Columns, 1)
		}
		if l.Columns*l.CellWidth > budget {
			l.Columns = budget / l.CellWidth
		}
	}
	if opts.MaxHeight > 0 {
		// Axis line, x labels and legend take three lines
		budget := max(opts.MaxHeight-3, 0)
		if l.Rows > budget {
			l.Rows = budget
		}
	}

	l.HiddenCols = f.Width() - l.Columns
	l.HiddenRows = f.Height() - l.Rows
	return l
}

// Render draws f. Column j is labelled from X[j], row i from Y[i], and the
// colour of each cell is monotonic in Z[i][j].
func Render(f frame.Frame, opts Options) string {
	opts = opts.withDefaults()
	l := Fit(f, opts)
	norm := Normalizer(f, opts.Scale)

	var b strings.Builder

	for i := 0; i < l.Rows; i++ {
		label := opts.Labels.Y(f.Y[i])
		b.WriteString(strings.Repeat(" ", l.LabelWidth-ansi.StringWidth(label)))
		b.WriteString(label)
		b.WriteString(" │")
		for j := 0; j < l.Columns; j++ {
			b.WriteString(opts.Paint(norm(f.Z[i][j]), l.CellWidth))
		}
		b.WriteByte('\n')
	}

	gridWidth := l.Columns * l.CellWidth
	b.WriteString(strings.Repeat(" ", l.LabelWidth+1))
	b.WriteString("└")
	b.WriteString(strings.Repeat("─", gridWidth))
	b.WriteByte('\n')

	b.WriteString(strings.Repeat(" ", l.LabelWidth+2))
	b.WriteString(xAxis(f, opts.Labels, l))
	b.WriteByte('\n')

	b.WriteString(strings.Repeat(" ", l.LabelWidth+2))
	b.WriteString(legend(f, opts))
	if l.HiddenCols > 0 || l.HiddenRows > 0 {
		b.WriteString(fmt.Sprintf("  (+%d cols, +%d rows hidden)", l.HiddenCols, l.HiddenRows))
	}

	return b.String()
}

// xAxis places column labels at their cell offsets, skipping any that
// would overlap the previous label.
func xAxis(f frame.Frame, lf labels.Formatter, l Layout) string {
	total := l.Columns * l.CellWidth
	var b strings.Builder
	col, cursor := 0, 0

	for j := 0; j < l.Columns; j++ {
		pos := j * l.CellWidth
		if pos < cursor {
			continue
		}
		label := ansi.Truncate(lf.X(f.X[j]), total-pos, "")
		w := ansi.StringWidth(label)
		if w == 0 {
			continue
		}
		b.WriteString(strings.Repeat(" ", pos-col))
		b.WriteString(label)
		col = pos + w
		cursor = col + 1
	}
	return b.String()
}

func legend(f frame.Frame, opts Options) string {
	lo, hi, ok := f.Bounds()
	if !ok {
		return "no data"
	}

	var b strings.Builder
	b.WriteString(labels.Number(lo))
	b.WriteByte(' ')
	for k := 0; k < legendSwatches; k++ {
		b.WriteString(opts.Paint(float64(k)/float64(legendSwatches-1), 1))
	}
	b.WriteByte(' ')
	b.WriteString(labels.Number(hi))
	if opts.Unit != "" {
		b.WriteByte(' ')
		b.WriteString(opts.Unit)
	}
	if opts.Scale == Log {
		b.WriteString(" (log)")
	}
	return b.String()
}
