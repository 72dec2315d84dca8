// Package draw renders text frames to an ANSI terminal.
package draw

import (
	"math"

	"github.com/charmbracelet/lipgloss"
)

// Area is a rectangle of terminal cells. Col and Row are 1-based and
// relative to the ChunkWriter offset.
type Area struct {
	Col    int
	Row    int
	Width  int
	Height int
}

// Fit clamps a terminal to the max render size and returns the render
// area together with the offset that centers it.
func Fit(termWidth, termHeight, maxWidth, maxHeight int) (area Area, offsetCol, offsetRow int) {
	w := min(termWidth, maxWidth)
	h := min(termHeight, maxHeight)
	offsetCol = (termWidth - w) / 2
	offsetRow = (termHeight - h) / 2
	return Area{Col: 1, Row: 1, Width: w, Height: h}, offsetCol, offsetRow
}

// Inset shrinks the area by top rows at the top and bottom rows at the bottom.
func (a Area) Inset(top, bottom int) Area {
	a.Row += top
	a.Height -= top + bottom
	if a.Height < 0 {
		a.Height = 0
	}
	return a
}

// CenterX returns the middle column.
func (a Area) CenterX() int { return a.Col + a.Width/2 }

// CenterY returns the middle row.
func (a Area) CenterY() int { return a.Row + a.Height/2 }

// Bottom returns the last row.
func (a Area) Bottom() int { return a.Row + a.Height - 1 }

// Contains reports whether the cell lies inside the area.
func (a Area) Contains(col, row int) bool {
	return col >= a.Col && col < a.Col+a.Width && row >= a.Row && row < a.Row+a.Height
}

// Project maps logical coordinates in a width x height space onto a cell.
func (a Area) Project(x, y, width, height float64) (col, row int) {
	if width <= 0 || height <= 0 {
		return a.Col, a.Row
	}
	col = a.Col + int(math.Floor(x/width*float64(a.Width)))
	row = a.Row + int(math.Floor(y/height*float64(a.Height)))
	return col, row
}

// Centered returns the column at which s starts when centered in the area.
// Width is measured in cells, so styled strings center correctly.
func (a Area) Centered(s string) int {
	col := a.CenterX() - lipgloss.Width(s)/2
	if col < a.Col {
		return a.Col
	}
	return col
}

// Clip cuts s so that it fits between col and the right edge of the area.
// Returns the empty string if nothing fits.
func (a Area) Clip(col int, s string) string {
	room := a.Col + a.Width - col
	if room <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) > room {
		r = r[:room]
	}
	return string(r)
}
