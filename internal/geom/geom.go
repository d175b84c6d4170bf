// Package geom holds the small amount of planar geometry shared by the viewer:
// points in canvas pixels, axis-aligned rectangles and point/segment distances.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Point is a position in canvas or viewport pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

func (p Point) vec() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

// Rect is an axis-aligned rectangle with its origin at the top-left corner.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"width"`
	H float64 `json:"height"`
}

// Contains reports whether p lies inside r. Both edges are inclusive so that
// points on a shared border or on the outer canvas edge still resolve.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Min returns the top-left corner.
func (r Rect) Min() Point { return Point{r.X, r.Y} }

// Center returns the centre of r.
func (r Rect) Center() Point { return Point{r.X + r.W/2, r.Y + r.H/2} }

// Local converts a canvas point into coordinates relative to r's origin.
func (r Rect) Local(p Point) Point { return p.Sub(r.Min()) }

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return r2.Norm(r2.Sub(a.vec(), b.vec()))
}

// SegmentDistance returns the distance from p to the closed segment ab. A
// degenerate segment is treated as the single point a.
func SegmentDistance(p, a, b Point) float64 {
	ab := r2.Sub(b.vec(), a.vec())
	ap := r2.Sub(p.vec(), a.vec())
	l2 := r2.Dot(ab, ab)
	if l2 == 0 {
		return r2.Norm(ap)
	}
	t := math.Max(0, math.Min(1, r2.Dot(ap, ab)/l2))
	closest := r2.Add(a.vec(), r2.Scale(t, ab))
	return r2.Norm(r2.Sub(p.vec(), closest))
}
