// Package labels formats heat-map axis buckets for display.
package labels

import (
	"strconv"
)

// DefaultRowKB is the size of one y bucket in kB when not configured.
const DefaultRowKB = 50

// Formatter turns bucket values into axis labels.
type Formatter interface {
	X(v float64) string
	Y(v float64) string
}

// Default labels x buckets as fee rates and y buckets as block-space sizes.
type Default struct {
	RowKB float64 // kB per y bucket
}

// NewDefault returns the built-in formatter. rowKB <= 0 uses DefaultRowKB.
func NewDefault(rowKB float64) Default {
	if rowKB <= 0 {
		rowKB = DefaultRowKB
	}
	return Default{RowKB: rowKB}
}

func (d Default) X(v float64) string {
	return Number(v) + " sat/vB"
}

func (d Default) Y(v float64) string {
	return Number(v*d.RowKB) + " kB"
}

// Number formats v without a trailing ".0" for whole values.
func Number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
