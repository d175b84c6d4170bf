// Package fonts owns the Go Regular faces used for text annotations, stats
// labels and UI chrome.
package fonts

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Sizes are the preset text annotation sizes offered by the toolbar.
var Sizes = []float64{12, 16, 20, 24, 32}

var (
	parseOnce sync.Once
	regular   *opentype.Font
	parseErr  error
	faces     sync.Map // map[float64]font.Face
	// shared faces are not safe for concurrent use
	faceMu sync.Mutex
)

// DefaultSize returns the smallest preset size.
func DefaultSize() float64 {
	if len(Sizes) == 0 {
		return 12
	}
	return Sizes[0]
}

func parsed() (*opentype.Font, error) {
	parseOnce.Do(func() {
		regular, parseErr = opentype.Parse(goregular.TTF)
	})
	return regular, parseErr
}

// Face returns a cached face for size points at 72 DPI. The returned face is
// shared; callers drawing on other goroutines should use NewFace.
func Face(size float64) (font.Face, error) {
	size = roundSize(size)
	if face, ok := faces.Load(size); ok {
		return face.(font.Face), nil
	}
	face, err := NewFace(size)
	if err != nil {
		return nil, err
	}
	actual, _ := faces.LoadOrStore(size, face)
	return actual.(font.Face), nil
}

// NewFace returns a fresh, unshared face for size.
func NewFace(size float64) (font.Face, error) {
	size = roundSize(size)
	f, err := parsed()
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("font face %v: %w", size, err)
	}
	return face, nil
}

func roundSize(size float64) float64 {
	if size <= 0 {
		size = DefaultSize()
	}
	return math.Round(size*100) / 100
}

// MeasureText returns the bounding box of text at size. baseline is the offset
// from the top of the box to the text baseline.
func MeasureText(text string, size float64) (width, height, baseline int, err error) {
	face, err := Face(size)
	if err != nil {
		return 0, 0, 0, err
	}
	faceMu.Lock()
	defer faceMu.Unlock()
	drawer := &font.Drawer{Face: face}
	width = drawer.MeasureString(text).Ceil()
	metrics := face.Metrics()
	baseline = metrics.Ascent.Ceil()
	height = baseline + metrics.Descent.Ceil()
	return
}

// DrawText renders text with its baseline starting at (x, y).
func DrawText(img *image.RGBA, x, y int, text string, col color.Color, size float64) error {
	face, err := Face(size)
	if err != nil {
		return err
	}
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	faceMu.Lock()
	drawer.DrawString(text)
	faceMu.Unlock()
	return nil
}

// Measurer measures text widths with the Go Regular face. The zero value is
// ready to use.
type Measurer struct{}

// Width returns the advance width of text at size. Unmeasurable text falls
// back to an estimate of 0.6em per rune.
func (Measurer) Width(text string, size float64) float64 {
	w, _, _, err := MeasureText(text, size)
	if err != nil {
		return float64(len([]rune(text))) * size * 0.6
	}
	return float64(w)
}
