package annotation

import (
	"fmt"
	"math"

	"github.com/example/radview/internal/geom"
)

// Tolerance is the pick distance in pixels.
const Tolerance = 5

// Measurer reports the rendered width of text at a font size.
type Measurer interface {
	Width(text string, size float64) float64
}

// TextBox returns the measured bounds of t: [x, x+w] by [y-fontSize, y].
func TextBox(t Text, m Measurer) geom.Rect {
	w := 0.0
	if m != nil {
		w = m.Width(t.Text, t.FontSize)
	}
	return geom.Rect{X: t.X, Y: t.Y - t.FontSize, W: w, H: t.FontSize}
}

func normRect(x, y, w, h float64) (minX, minY, maxX, maxY float64) {
	return math.Min(x, x+w), math.Min(y, y+h), math.Max(x, x+w), math.Max(y, y+h)
}

// nearEdge applies the border rule: within Tolerance of an edge and within
// the span of the opposite axis.
func nearEdge(p geom.Point, x, y, w, h float64) bool {
	minX, minY, maxX, maxY := normRect(x, y, w, h)
	inX := p.X >= minX-Tolerance && p.X <= maxX+Tolerance
	inY := p.Y >= minY-Tolerance && p.Y <= maxY+Tolerance
	if inY && (math.Abs(p.X-minX) <= Tolerance || math.Abs(p.X-maxX) <= Tolerance) {
		return true
	}
	return inX && (math.Abs(p.Y-minY) <= Tolerance || math.Abs(p.Y-maxY) <= Tolerance)
}

// Hit reports whether p picks a.
func Hit(a Annotation, p geom.Point, m Measurer) bool {
	switch v := a.(type) {
	case Freehand:
		if len(v.Points) == 1 {
			return geom.Distance(p, v.Points[0]) <= Tolerance
		}
		for i := 1; i < len(v.Points); i++ {
			if geom.SegmentDistance(p, v.Points[i-1], v.Points[i]) <= Tolerance {
				return true
			}
		}
	case Circle:
		d := geom.Distance(geom.Pt(v.StartX, v.StartY), p)
		return math.Abs(d-v.Radius) <= Tolerance
	case Rectangle:
		return nearEdge(p, v.StartX, v.StartY, v.Width, v.Height)
	case Highlight:
		return nearEdge(p, v.StartX, v.StartY, v.Width, v.Height)
	case Measure:
		return geom.SegmentDistance(p, geom.Pt(v.StartX, v.StartY), geom.Pt(v.EndX, v.EndY)) <= Tolerance
	case Arrow:
		return geom.SegmentDistance(p, geom.Pt(v.StartX, v.StartY), geom.Pt(v.EndX, v.EndY)) <= Tolerance
	case Text:
		return TextBox(v, m).Contains(p)
	}
	return false
}

// Label returns the statistics text shown next to shapes that have one.
func Label(a Annotation) (string, bool) {
	switch v := a.(type) {
	case Circle:
		return fmt.Sprintf("r: %.0fpx", math.Round(v.Radius)), true
	case Rectangle:
		return fmt.Sprintf("%.0f×%.0fpx", math.Round(math.Abs(v.Width)), math.Round(math.Abs(v.Height))), true
	case Measure:
		d := geom.Distance(geom.Pt(v.StartX, v.StartY), geom.Pt(v.EndX, v.EndY))
		return fmt.Sprintf("%.0fpx", math.Round(d)), true
	}
	return "", false
}

// Handles returns the salient points marked on a selected annotation.
func Handles(a Annotation, m Measurer) []geom.Point {
	corners := func(x, y, w, h float64) []geom.Point {
		return []geom.Point{geom.Pt(x, y), geom.Pt(x+w, y), geom.Pt(x+w, y+h), geom.Pt(x, y+h)}
	}
	switch v := a.(type) {
	case Freehand:
		if len(v.Points) == 0 {
			return nil
		}
		if len(v.Points) == 1 {
			return []geom.Point{v.Points[0]}
		}
		return []geom.Point{v.Points[0], v.Points[len(v.Points)-1]}
	case Circle:
		off := v.Radius * math.Cos(math.Pi/4)
		return []geom.Point{geom.Pt(v.StartX, v.StartY), geom.Pt(v.StartX+off, v.StartY+off)}
	case Rectangle:
		return corners(v.StartX, v.StartY, v.Width, v.Height)
	case Highlight:
		return corners(v.StartX, v.StartY, v.Width, v.Height)
	case Measure:
		return []geom.Point{geom.Pt(v.StartX, v.StartY), geom.Pt(v.EndX, v.EndY)}
	case Arrow:
		return []geom.Point{geom.Pt(v.StartX, v.StartY), geom.Pt(v.EndX, v.EndY)}
	case Text:
		b := TextBox(v, m)
		return corners(b.X, b.Y, b.W, b.H)
	}
	return nil
}
