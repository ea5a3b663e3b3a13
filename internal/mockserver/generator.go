package mockserver

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/drake/feeheat/frame"
)

// Generator produces synthetic mempool snapshots: fee-rate columns
// 1..cols sat/vB, size rows 0..rows-1, and log1p-scaled vbyte weights
// that drift by a bounded random walk between frames.
type Generator struct {
	mu   sync.Mutex
	rng  *rand.Rand
	cols int
	rows int
	raw  [][]float64 // vbytes before scaling
}

// NewGenerator creates a generator with a deterministic seed.
func NewGenerator(cols, rows int, seed uint64) *Generator {
	cols = max(cols, 1)
	rows = max(rows, 1)

	g := &Generator{
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		cols: cols,
		rows: rows,
		raw:  make([][]float64, rows),
	}

	// Most weight sits at low fee rates and small sizes.
	for i := range g.raw {
		g.raw[i] = make([]float64, cols)
		for j := range g.raw[i] {
			base := 250_000 / float64((i+1)*(j+1))
			g.raw[i][j] = base * (0.5 + g.rng.Float64())
		}
	}
	return g
}

// Next advances the walk and returns a fresh frame.
func (g *Generator) Next() frame.Frame {
	g.mu.Lock()
	defer g.mu.Unlock()

	f := frame.Frame{
		X: make([]float64, g.cols),
		Y: make([]float64, g.rows),
		Z: make([][]float64, g.rows),
	}
	for j := range f.X {
		f.X[j] = float64(j + 1)
	}
	for i := range f.Y {
		f.Y[i] = float64(i)
	}

	for i, row := range g.raw {
		f.Z[i] = make([]float64, g.cols)
		for j, v := range row {
			// Multiplicative step in [-20%, +20%], never below zero.
			v *= 1 + (g.rng.Float64()-0.5)*0.4
			row[j] = v
			f.Z[i][j] = math.Log1p(v)
		}
	}
	return f
}
