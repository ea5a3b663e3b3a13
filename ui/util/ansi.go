package util

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/drake/feeheat/text"
)

// VisibleLen returns the visible display width of a string (excluding ANSI codes).
func VisibleLen(s string) int {
	return runewidth.StringWidth(text.StripANSI(s))
}

// SpreadLine places left and right on one line of the given width,
// separated by at least one space.
func SpreadLine(left, right string, width int) string {
	padding := width - VisibleLen(left) - VisibleLen(right)
	if padding < 1 {
		padding = 1
	}
	return left + strings.Repeat(" ", padding) + right
}
