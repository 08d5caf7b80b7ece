package ui

import (
	"image"
	"math"
)

// RowRects scales key widths to fill width with gap pixels between keys.
// Rounding error goes to the last key so the row ends flush.
func RowRects(widths []float32, width, height, gap int) []image.Rectangle {
	if len(widths) == 0 || width <= 0 {
		return nil
	}
	var total float32
	for _, w := range widths {
		total += w
	}
	usable := width - gap*(len(widths)-1)
	if usable < len(widths) || total <= 0 {
		usable = len(widths)
	}
	scale := float64(usable) / float64(total)

	out := make([]image.Rectangle, len(widths))
	x := 0
	for i, w := range widths {
		px := int(math.Round(float64(w) * scale))
		if px < 1 {
			px = 1
		}
		if i == len(widths)-1 {
			if rest := width - x; rest > 0 && rest != px {
				px = rest
			}
		}
		out[i] = image.Rect(x, 0, x+px, height)
		x += px + gap
	}
	return out
}

// RowHeight divides height between rows with gap pixels between them.
func RowHeight(height, rows, gap int) int {
	if rows <= 0 {
		return 0
	}
	h := (height - gap*(rows-1)) / rows
	if h < 1 {
		return 1
	}
	return h
}
