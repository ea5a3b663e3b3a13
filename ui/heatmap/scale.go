package heatmap

import (
	"fmt"
	"math"
	"strings"

	"github.com/drake/feeheat/frame"
)

// Scale selects how cell values map onto the colour ramp.
type Scale int

const (
	Linear Scale = iota
	Log           // log1p, so zero stays at the bottom of the ramp
)

func (s Scale) String() string {
	if s == Log {
		return "log"
	}
	return "linear"
}

// Toggle switches between linear and log.
func (s Scale) Toggle() Scale {
	if s == Log {
		return Linear
	}
	return Log
}

// ParseScale accepts "linear" or "log". Empty means linear.
func ParseScale(s string) (Scale, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "linear":
		return Linear, nil
	case "log":
		return Log, nil
	}
	return Linear, fmt.Errorf("unknown scale %q (want linear or log)", s)
}

func (s Scale) transform(v float64) float64 {
	if s != Log {
		return v
	}
	// Sign-preserving so the mapping stays monotonic for negative input
	if v < 0 {
		return -math.Log1p(-v)
	}
	return math.Log1p(v)
}

// Normalizer returns a monotonic mapping from cell values to [0,1] over the
// frame's range. A frame whose cells are all equal maps everything to 0.
func Normalizer(f frame.Frame, s Scale) func(float64) float64 {
	lo, hi, ok := f.Bounds()
	a, b := s.transform(lo), s.transform(hi)
	if !ok || b <= a {
		return func(float64) float64 { return 0 }
	}
	return func(v float64) float64 {
		return clamp((s.transform(v) - a) / (b - a))
	}
}
