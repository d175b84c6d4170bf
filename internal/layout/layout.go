// Package layout partitions the drawing surface into viewports.
package layout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/radview/internal/geom"
)

// Layout names a viewport arrangement.
type Layout string

const (
	Single Layout = "1x1"
	Split  Layout = "1x2"
	Grid   Layout = "2x2"
)

// ErrUnknownLayout is returned by Parse for unsupported tags.
var ErrUnknownLayout = errors.New("unknown layout")

// All lists the supported layouts in toolbar order.
func All() []Layout { return []Layout{Single, Split, Grid} }

// Parse validates a layout tag.
func Parse(s string) (Layout, error) {
	l := Layout(strings.TrimSpace(strings.ToLower(s)))
	switch l {
	case Single, Split, Grid:
		return l, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownLayout, s)
}

// Count returns the number of viewports the layout produces, or 0 for a tag
// outside the known set.
func (l Layout) Count() int {
	switch l {
	case Single:
		return 1
	case Split:
		return 2
	case Grid:
		return 4
	}
	return 0
}

func (l Layout) grid() (cols, rows int) {
	switch l {
	case Split:
		return 2, 1
	case Grid:
		return 2, 2
	default:
		return 1, 1
	}
}

// Tile returns the viewport rectangles for a canvas of the given size in
// row-major order. The rectangles do not overlap and cover the canvas exactly.
func Tile(l Layout, width, height float64) []geom.Rect {
	cols, rows := l.grid()
	cw := width / float64(cols)
	rh := height / float64(rows)
	out := make([]geom.Rect, 0, cols*rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out = append(out, geom.Rect{X: float64(c) * cw, Y: float64(r) * rh, W: cw, H: rh})
		}
	}
	return out
}

// Locate returns the index of the first rectangle containing (x, y), or -1.
func Locate(rects []geom.Rect, x, y float64) int {
	p := geom.Pt(x, y)
	for i, r := range rects {
		if r.Contains(p) {
			return i
		}
	}
	return -1
}
