// Package annotation models the overlays a reader draws on an image and the
// geometry used to pick them back up again.
//
// Annotation is a closed sum type: every variant lives in this package and
// callers switch on the concrete type. Coordinates are viewport-local screen
// pixels and are not affected by the viewport's zoom or rotation.
package annotation

import (
	"errors"
	"fmt"

	"github.com/example/radview/internal/geom"
)

// Kind is the wire discriminator of an annotation.
type Kind string

const (
	KindFreehand  Kind = "freehand"
	KindCircle    Kind = "circle"
	KindRectangle Kind = "rectangle"
	KindMeasure   Kind = "measure"
	KindArrow     Kind = "arrow"
	KindHighlight Kind = "highlight"
	KindText      Kind = "text"
)

// ErrUnknownKind is returned for a discriminator outside the closed set.
var ErrUnknownKind = errors.New("unknown annotation kind")

// Annotation is implemented by Freehand, Circle, Rectangle, Measure, Arrow,
// Highlight and Text only.
type Annotation interface {
	Kind() Kind
	// Translate returns a copy moved rigidly by (dx, dy).
	Translate(dx, dy float64) Annotation
	annotation()
}

// Freehand is a polyline following the pointer.
type Freehand struct {
	Points []geom.Point `json:"points"`
}

// Circle is centred on (StartX, StartY).
type Circle struct {
	StartX float64 `json:"startX"`
	StartY float64 `json:"startY"`
	Radius float64 `json:"radius"`
}

// Rectangle has a signed size: Width and Height are negative when the shape
// was dragged up or left of its start.
type Rectangle struct {
	StartX float64 `json:"startX"`
	StartY float64 `json:"startY"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Measure is a ruler between two points.
type Measure struct {
	StartX float64 `json:"startX"`
	StartY float64 `json:"startY"`
	EndX   float64 `json:"endX"`
	EndY   float64 `json:"endY"`
}

// Arrow points from start to end.
type Arrow struct {
	StartX float64 `json:"startX"`
	StartY float64 `json:"startY"`
	EndX   float64 `json:"endX"`
	EndY   float64 `json:"endY"`
}

// Highlight is a translucent filled box.
type Highlight struct {
	StartX float64 `json:"startX"`
	StartY float64 `json:"startY"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Text is anchored at the left end of its baseline.
type Text struct {
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	Text            string  `json:"text"`
	FontSize        float64 `json:"fontSize"`
	Color           string  `json:"color"`
	BackgroundColor string  `json:"backgroundColor"`
}

func (Freehand) Kind() Kind  { return KindFreehand }
func (Circle) Kind() Kind    { return KindCircle }
func (Rectangle) Kind() Kind { return KindRectangle }
func (Measure) Kind() Kind   { return KindMeasure }
func (Arrow) Kind() Kind     { return KindArrow }
func (Highlight) Kind() Kind { return KindHighlight }
func (Text) Kind() Kind      { return KindText }

func (Freehand) annotation()  {}
func (Circle) annotation()    {}
func (Rectangle) annotation() {}
func (Measure) annotation()   {}
func (Arrow) annotation()     {}
func (Highlight) annotation() {}
func (Text) annotation()      {}

func (a Freehand) Translate(dx, dy float64) Annotation {
	pts := make([]geom.Point, len(a.Points))
	for i, p := range a.Points {
		pts[i] = geom.Pt(p.X+dx, p.Y+dy)
	}
	return Freehand{Points: pts}
}

func (a Circle) Translate(dx, dy float64) Annotation {
	a.StartX += dx
	a.StartY += dy
	return a
}

func (a Rectangle) Translate(dx, dy float64) Annotation {
	a.StartX += dx
	a.StartY += dy
	return a
}

func (a Measure) Translate(dx, dy float64) Annotation {
	a.StartX += dx
	a.StartY += dy
	a.EndX += dx
	a.EndY += dy
	return a
}

func (a Arrow) Translate(dx, dy float64) Annotation {
	a.StartX += dx
	a.StartY += dy
	a.EndX += dx
	a.EndY += dy
	return a
}

func (a Highlight) Translate(dx, dy float64) Annotation {
	a.StartX += dx
	a.StartY += dy
	return a
}

func (a Text) Translate(dx, dy float64) Annotation {
	a.X += dx
	a.Y += dy
	return a
}

// Drawable reports whether k is created by a pointer drag.
func Drawable(k Kind) bool {
	switch k {
	case KindFreehand, KindCircle, KindRectangle, KindMeasure, KindArrow, KindHighlight:
		return true
	}
	return false
}

// New returns a zero-size annotation of kind k at origin. Text annotations
// are built with NewText instead.
func New(k Kind, origin geom.Point) (Annotation, error) {
	x, y := origin.X, origin.Y
	switch k {
	case KindFreehand:
		return Freehand{Points: []geom.Point{origin}}, nil
	case KindCircle:
		return Circle{StartX: x, StartY: y}, nil
	case KindRectangle:
		return Rectangle{StartX: x, StartY: y}, nil
	case KindMeasure:
		return Measure{StartX: x, StartY: y, EndX: x, EndY: y}, nil
	case KindArrow:
		return Arrow{StartX: x, StartY: y, EndX: x, EndY: y}, nil
	case KindHighlight:
		return Highlight{StartX: x, StartY: y}, nil
	case KindText:
		return nil, fmt.Errorf("text annotations are not drawn: %w", ErrUnknownKind)
	}
	return nil, fmt.Errorf("%q: %w", k, ErrUnknownKind)
}

// NewText returns a completed text annotation.
func NewText(at geom.Point, text string, size float64, color, background string) Text {
	return Text{X: at.X, Y: at.Y, Text: text, FontSize: size, Color: color, BackgroundColor: background}
}

// Extend grows an in-progress annotation towards the pointer at p.
func Extend(a Annotation, p geom.Point) Annotation {
	switch v := a.(type) {
	case Freehand:
		pts := make([]geom.Point, len(v.Points), len(v.Points)+1)
		copy(pts, v.Points)
		return Freehand{Points: append(pts, p)}
	case Circle:
		v.Radius = geom.Distance(geom.Pt(v.StartX, v.StartY), p)
		return v
	case Rectangle:
		v.Width, v.Height = p.X-v.StartX, p.Y-v.StartY
		return v
	case Highlight:
		v.Width, v.Height = p.X-v.StartX, p.Y-v.StartY
		return v
	case Measure:
		v.EndX, v.EndY = p.X, p.Y
		return v
	case Arrow:
		v.EndX, v.EndY = p.X, p.Y
		return v
	}
	return a
}

// Clone returns a deep copy of a.
func Clone(a Annotation) Annotation {
	if f, ok := a.(Freehand); ok {
		return f.Translate(0, 0)
	}
	return a
}
