// Package frame defines the heat-map snapshot exchanged between the
// backend, the polling source and the rendering surface.
package frame

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrShape reports a decoded body that violates the matrix invariants.
var ErrShape = errors.New("frame: matrix shape mismatch")

// Frame is one complete snapshot of the matrix plus its axis buckets.
// Z has len(Y) rows of len(X) columns; Z[i][j] is the value at (X[j], Y[i]).
// A Frame is never mutated after Decode returns it.
type Frame struct {
	X []float64   `json:"x"` // Fee-rate buckets (sat/vB)
	Y []float64   `json:"y"` // Size buckets (chunk units)
	Z [][]float64 `json:"z"` // Measured vbytes
}

// Width returns the number of columns.
func (f Frame) Width() int { return len(f.X) }

// Height returns the number of rows.
func (f Frame) Height() int { return len(f.Y) }

// Validate checks the shape and finiteness invariants.
func (f Frame) Validate() error {
	if len(f.Z) != len(f.Y) {
		return fmt.Errorf("%w: %d rows for %d y buckets", ErrShape, len(f.Z), len(f.Y))
	}
	for i, row := range f.Z {
		if len(row) != len(f.X) {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrShape, i, len(row), len(f.X))
		}
		for j, v := range row {
			if !finite(v) {
				return fmt.Errorf("%w: z[%d][%d] is not finite", ErrShape, i, j)
			}
		}
	}
	for j, v := range f.X {
		if !finite(v) {
			return fmt.Errorf("%w: x[%d] is not finite", ErrShape, j)
		}
	}
	for i, v := range f.Y {
		if !finite(v) {
			return fmt.Errorf("%w: y[%d] is not finite", ErrShape, i)
		}
	}
	return nil
}

// Decode parses one JSON body and validates it.
// Parse failures come back as KindParse, invariant failures as KindShape.
func Decode(r io.Reader) (Frame, error) {
	var wire struct {
		X *[]float64   `json:"x"`
		Y *[]float64   `json:"y"`
		Z *[][]float64 `json:"z"`
	}

	dec := json.NewDecoder(r)
	if err := dec.Decode(&wire); err != nil {
		return Frame{}, &PollError{Kind: KindParse, Err: err}
	}
	// Anything after the object is garbage, not a second frame
	if _, err := dec.Token(); err != io.EOF {
		return Frame{}, &PollError{Kind: KindParse, Err: errors.New("trailing data after frame")}
	}

	// A top-level null leaves every field unset, like {}.
	switch {
	case wire.X == nil:
		return Frame{}, &PollError{Kind: KindParse, Err: errors.New("missing or null field x")}
	case wire.Y == nil:
		return Frame{}, &PollError{Kind: KindParse, Err: errors.New("missing or null field y")}
	case wire.Z == nil:
		return Frame{}, &PollError{Kind: KindParse, Err: errors.New("missing or null field z")}
	}

	for i, row := range *wire.Z {
		if row == nil {
			return Frame{}, &PollError{Kind: KindParse, Err: fmt.Errorf("z[%d] is null", i)}
		}
	}

	f := Frame{X: *wire.X, Y: *wire.Y, Z: *wire.Z}
	if err := f.Validate(); err != nil {
		return Frame{}, &PollError{Kind: KindShape, Err: err}
	}
	return f, nil
}

// DecodeBytes is Decode over an in-memory body.
func DecodeBytes(b []byte) (Frame, error) {
	return Decode(bytes.NewReader(b))
}

// Bounds returns the smallest and largest value in Z.
// ok is false when the matrix has no cells.
func (f Frame) Bounds() (lo, hi float64, ok bool) {
	for _, row := range f.Z {
		for _, v := range row {
			if !ok {
				lo, hi, ok = v, v, true
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	return lo, hi, ok
}

// Clone returns a deep copy.
func (f Frame) Clone() Frame {
	out := Frame{
		X: append([]float64(nil), f.X...),
		Y: append([]float64(nil), f.Y...),
		Z: make([][]float64, len(f.Z)),
	}
	for i, row := range f.Z {
		out.Z[i] = append([]float64(nil), row...)
	}
	return out
}

// MarshalIndent renders the frame in its wire shape.
func (f Frame) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(f, "", "  ")
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
