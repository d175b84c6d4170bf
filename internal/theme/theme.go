// Package theme defines the colours used to paint the viewer chrome and the
// annotation overlays.
package theme

import (
	"image/color"
	"sort"
	"strings"
)

// Theme defines the palette for the viewer.
type Theme struct {
	Name string

	// Chrome
	Background        color.RGBA // Window background behind the canvas
	Foreground        color.RGBA // Toolbar and status text
	ToolbarBackground color.RGBA
	ButtonBackground  color.RGBA
	ButtonActive      color.RGBA
	ButtonText        color.RGBA
	StatusBackground  color.RGBA

	// Canvas
	ViewportBackground color.RGBA
	ActiveBorder       color.RGBA

	// Overlays
	Stroke          color.RGBA
	MeasureStroke   color.RGBA
	HighlightFill   color.RGBA
	Handle          color.RGBA
	LabelText       color.RGBA
	LabelBackground color.RGBA

	// Messages
	MessageText       color.RGBA
	MessageBackground color.RGBA
	Shadow            color.RGBA
}

// Default returns the dark reading-room palette.
func Default() *Theme {
	return &Theme{
		Name:               "Dark",
		Background:         color.RGBA{24, 24, 27, 255},
		Foreground:         color.RGBA{228, 228, 231, 255},
		ToolbarBackground:  color.RGBA{39, 39, 42, 255},
		ButtonBackground:   color.RGBA{63, 63, 70, 255},
		ButtonActive:       color.RGBA{37, 99, 235, 255},
		ButtonText:         color.RGBA{244, 244, 245, 255},
		StatusBackground:   color.RGBA{39, 39, 42, 255},
		ViewportBackground: color.RGBA{0, 0, 0, 255},
		ActiveBorder:       color.RGBA{59, 130, 246, 255},
		Stroke:             color.RGBA{255, 0, 0, 255},
		MeasureStroke:      color.RGBA{0, 255, 0, 255},
		HighlightFill:      color.RGBA{255, 255, 0, 77},
		Handle:             color.RGBA{255, 255, 255, 255},
		LabelText:          color.RGBA{255, 255, 255, 255},
		LabelBackground:    color.RGBA{0, 0, 0, 153},
		MessageText:        color.RGBA{255, 255, 255, 255},
		MessageBackground:  color.RGBA{30, 41, 59, 235},
		Shadow:             color.RGBA{0, 0, 0, 160},
	}
}

// Light returns a palette for bright rooms and printed exports.
func Light() *Theme {
	t := Default()
	t.Name = "Light"
	t.Background = color.RGBA{220, 220, 220, 255}
	t.Foreground = color.RGBA{0, 0, 0, 255}
	t.ToolbarBackground = color.RGBA{220, 220, 220, 255}
	t.ButtonBackground = color.RGBA{200, 200, 200, 255}
	t.ButtonActive = color.RGBA{150, 150, 150, 255}
	t.ButtonText = color.RGBA{0, 0, 0, 255}
	t.StatusBackground = color.RGBA{200, 200, 200, 255}
	t.ViewportBackground = color.RGBA{255, 255, 255, 255}
	t.MessageBackground = color.RGBA{60, 60, 60, 235}
	return t
}

var builtin = map[string]func() *Theme{
	"dark":  Default,
	"light": Light,
}

// Builtin returns the named built-in theme.
func Builtin(name string) (*Theme, bool) {
	fn, ok := builtin[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	return fn(), true
}

// BuiltinNames lists the built-in themes in sorted order.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
