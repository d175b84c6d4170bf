// Package transform holds the per-viewport visual adjustments: zoom, pan,
// rotation, flips and the brightness/contrast/invert filter.
package transform

import "github.com/example/radview/internal/geom"

const (
	MinZoom     = 10
	MaxZoom     = 500
	ZoomStep    = 10
	DefaultZoom = 100

	MinLevel     = 0
	MaxLevel     = 200
	DefaultLevel = 100
)

// Flip records independent mirror flags.
type Flip struct {
	Horizontal bool `json:"horizontal"`
	Vertical   bool `json:"vertical"`
}

// State is the transform of a single viewport. Zoom, brightness and contrast
// are percentages. Rotation is in degrees and always one of 0, 90, 180, 270.
type State struct {
	Pan        geom.Point `json:"panOffset"`
	Zoom       float64    `json:"zoom"`
	Brightness float64    `json:"brightness"`
	Contrast   float64    `json:"contrast"`
	Invert     bool       `json:"invert"`
	Rotation   int        `json:"rotation"`
	Flipped    Flip       `json:"flipped"`
}

// Default returns the reset transform.
func Default() State {
	return State{
		Zoom:       DefaultZoom,
		Brightness: DefaultLevel,
		Contrast:   DefaultLevel,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func wrapRotation(deg int) int {
	deg = ((deg % 360) + 360) % 360
	return deg - deg%90
}

// Normalize restores the invariants after decoding or partial updates.
func (s State) Normalize() State {
	s.Zoom = clamp(s.Zoom, MinZoom, MaxZoom)
	s.Brightness = clamp(s.Brightness, MinLevel, MaxLevel)
	s.Contrast = clamp(s.Contrast, MinLevel, MaxLevel)
	s.Rotation = wrapRotation(s.Rotation)
	return s
}

// ZoomBy changes zoom by steps*ZoomStep, clamped to [MinZoom, MaxZoom].
func (s State) ZoomBy(steps int) State {
	s.Zoom = clamp(s.Zoom+float64(steps*ZoomStep), MinZoom, MaxZoom)
	return s
}

func (s State) ZoomIn() State  { return s.ZoomBy(1) }
func (s State) ZoomOut() State { return s.ZoomBy(-1) }

// RotateCW rotates by 90 degrees clockwise, wrapping at 360.
func (s State) RotateCW() State {
	s.Rotation = wrapRotation(s.Rotation + 90)
	return s
}

// RotateCCW rotates by 90 degrees counterclockwise; 0 becomes 270.
func (s State) RotateCCW() State {
	s.Rotation = wrapRotation(s.Rotation - 90)
	return s
}

func (s State) ToggleFlipH() State {
	s.Flipped.Horizontal = !s.Flipped.Horizontal
	return s
}

func (s State) ToggleFlipV() State {
	s.Flipped.Vertical = !s.Flipped.Vertical
	return s
}

func (s State) ToggleInvert() State {
	s.Invert = !s.Invert
	return s
}

func (s State) AdjustBrightness(delta float64) State {
	s.Brightness = clamp(s.Brightness+delta, MinLevel, MaxLevel)
	return s
}

func (s State) AdjustContrast(delta float64) State {
	s.Contrast = clamp(s.Contrast+delta, MinLevel, MaxLevel)
	return s
}

// PanBy moves the image centre by (dx, dy) viewport pixels.
func (s State) PanBy(dx, dy float64) State {
	s.Pan = s.Pan.Add(geom.Pt(dx, dy))
	return s
}

// BrightnessFactor is the CSS brightness() multiplier for s.
func (s State) BrightnessFactor() float64 { return 1 + (s.Brightness-100)/100 }

// ContrastFactor is the CSS contrast() multiplier for s.
func (s State) ContrastFactor() float64 { return s.Contrast / 100 }

// Scale returns the zoom as a multiplier.
func (s State) Scale() float64 { return s.Zoom / 100 }

// IsDefault reports whether s equals the reset transform.
func (s State) IsDefault() bool { return s == Default() }
