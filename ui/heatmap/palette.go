package heatmap

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lucasb-eyer/go-colorful"
)

// Painter draws one cell of the given width for a normalised value t in [0,1].
type Painter func(t float64, width int) string

type stop struct {
	at float64
	c  colorful.Color
}

func rgb(r, g, b int) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

// jetStops is the Jet colour scale: dark blue through cyan and yellow to dark red.
var jetStops = []stop{
	{0, rgb(0, 0, 131)},
	{0.125, rgb(0, 60, 170)},
	{0.375, rgb(5, 255, 255)},
	{0.625, rgb(255, 255, 0)},
	{0.875, rgb(250, 0, 0)},
	{1, rgb(128, 0, 0)},
}

// Palette maps normalised values onto a colour ramp, quantised to a fixed
// number of steps so cell styles can be cached.
type Palette struct {
	stops  []stop
	steps  int
	styles *lru.Cache[int, lipgloss.Style]
}

// Jet returns the Jet palette quantised to steps colours.
func Jet(steps int) *Palette {
	if steps < 2 {
		steps = 2
	}
	cache, _ := lru.New[int, lipgloss.Style](steps)
	return &Palette{stops: jetStops, steps: steps, styles: cache}
}

// Steps returns the number of distinct colours.
func (p *Palette) Steps() int {
	return p.steps
}

// At interpolates the ramp at t.
func (p *Palette) At(t float64) colorful.Color {
	t = clamp(t)
	for i := 1; i < len(p.stops); i++ {
		lo, hi := p.stops[i-1], p.stops[i]
		if t <= hi.at {
			span := hi.at - lo.at
			if span <= 0 {
				return hi.c
			}
			return lo.c.BlendRgb(hi.c, (t-lo.at)/span).Clamped()
		}
	}
	return p.stops[len(p.stops)-1].c
}

// Step quantises t to a palette index.
func (p *Palette) Step(t float64) int {
	return int(math.Round(clamp(t) * float64(p.steps-1)))
}

// Hex returns the quantised colour for t as #rrggbb.
func (p *Palette) Hex(t float64) string {
	return p.At(float64(p.Step(t)) / float64(p.steps-1)).Hex()
}

// Style returns the cached cell style for t.
func (p *Palette) Style(t float64) lipgloss.Style {
	step := p.Step(t)
	if st, ok := p.styles.Get(step); ok {
		return st
	}
	st := lipgloss.NewStyle().Background(lipgloss.Color(p.Hex(t)))
	p.styles.Add(step, st)
	return st
}

// Paint implements Painter with background-coloured blanks.
func (p *Palette) Paint(t float64, width int) string {
	return p.Style(t).Render(strings.Repeat(" ", width))
}

// shades runs from empty to full block.
var shades = []rune(" ░▒▓█")

// Shade is a Painter for terminals without colour.
func Shade(t float64, width int) string {
	i := int(math.Round(clamp(t) * float64(len(shades)-1)))
	return strings.Repeat(string(shades[i]), width)
}

func clamp(t float64) float64 {
	switch {
	case math.IsNaN(t), t < 0:
		return 0
	case t > 1:
		return 1
	}
	return t
}
