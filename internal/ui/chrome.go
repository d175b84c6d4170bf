package ui

import (
	"fmt"
	"image"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/example/radview/internal/fonts"
	"github.com/example/radview/internal/layout"
	"github.com/example/radview/internal/theme"
	"github.com/example/radview/internal/transform"
	"github.com/example/radview/internal/viewer"
)

const (
	toolbarWidth = 112
	statusHeight = 24
	buttonHeight = 22
	buttonGap    = 2
	groupGap     = 8
	chromeFont   = 11
)

// Command is a host action that the viewer core knows nothing about.
type Command int

const (
	CommandNone Command = iota
	CommandCopy
	CommandCopyState
	CommandSave
	CommandPaste
	CommandRemove
	CommandQuit
)

// Button is one toolbar entry. It either dispatches Intent or runs Command.
type Button struct {
	Label   string
	Intent  viewer.Intent
	Command Command
	Active  func(viewer.Snapshot) bool
	Rect    image.Rectangle
}

func activeTransform(s viewer.Snapshot) transform.State {
	if s.Active >= 0 && s.Active < len(s.Transforms) {
		return s.Transforms[s.Active]
	}
	return transform.Default()
}

var toolLabels = map[viewer.Tool]string{
	viewer.ToolRectangle: "Rect",
	viewer.ToolHighlight: "Hilite",
}

func toolButtons() []Button {
	var out []Button
	for _, t := range viewer.Tools() {
		label, ok := toolLabels[t]
		if !ok {
			label = strings.ToUpper(t.String()[:1]) + t.String()[1:]
		}
		tool := t
		b := Button{Label: label, Intent: viewer.SelectTool{Tool: tool}}
		if tool != viewer.ToolReset {
			b.Active = func(s viewer.Snapshot) bool { return s.Tool == tool }
		}
		out = append(out, b)
	}
	return out
}

func layoutButtons() []Button {
	var out []Button
	for _, l := range layout.All() {
		l := l
		out = append(out, Button{
			Label:  string(l),
			Intent: viewer.SetLayout{Layout: l},
			Active: func(s viewer.Snapshot) bool { return s.Layout == l },
		})
	}
	return out
}

// groups returns the toolbar buttons in display order, one slice per row group.
func groups() [][]Button {
	return [][]Button{
		toolButtons(),
		layoutButtons(),
		{
			{Label: "Rot-", Intent: viewer.Rotate{}},
			{Label: "Rot+", Intent: viewer.Rotate{Clockwise: true}},
			{Label: "FlipH", Intent: viewer.Flip{}, Active: func(s viewer.Snapshot) bool { return activeTransform(s).Flipped.Horizontal }},
			{Label: "FlipV", Intent: viewer.Flip{Vertical: true}, Active: func(s viewer.Snapshot) bool { return activeTransform(s).Flipped.Vertical }},
			{Label: "Invert", Intent: viewer.ToggleInvert{}, Active: func(s viewer.Snapshot) bool { return activeTransform(s).Invert }},
			{Label: "Fit", Intent: viewer.ResetTransforms{}},
			{Label: "Zoom-", Intent: viewer.ZoomStep{Steps: -1}},
			{Label: "Zoom+", Intent: viewer.ZoomStep{Steps: 1}},
			{Label: "Brt-", Intent: viewer.AdjustBrightness{Delta: -10}},
			{Label: "Brt+", Intent: viewer.AdjustBrightness{Delta: 10}},
			{Label: "Con-", Intent: viewer.AdjustContrast{Delta: -10}},
			{Label: "Con+", Intent: viewer.AdjustContrast{Delta: 10}},
		},
		{
			{Label: "Undo", Intent: viewer.Undo{}},
			{Label: "Delete", Intent: viewer.DeleteSelected{}},
			{Label: "Clear", Intent: viewer.ClearAnnotations{}},
		},
		{
			{Label: "Prev", Intent: viewer.Navigate{Delta: -1}},
			{Label: "Next", Intent: viewer.Navigate{Delta: 1}},
			{Label: "Remove", Command: CommandRemove},
			{Label: "Full", Intent: viewer.ToggleFullscreen{}, Active: func(s viewer.Snapshot) bool { return s.Fullscreen }},
		},
		{
			{Label: "Copy", Command: CommandCopy},
			{Label: "Save", Command: CommandSave},
			{Label: "Paste", Command: CommandPaste},
			{Label: "State", Command: CommandCopyState},
		},
	}
}

// layoutToolbar assigns rects to every button in two columns.
func layoutToolbar() []Button {
	colW := (toolbarWidth - 8 - buttonGap) / 2
	y := 4
	var out []Button
	for _, g := range groups() {
		for i, b := range g {
			col := i % 2
			if i > 0 && col == 0 {
				y += buttonHeight + buttonGap
			}
			x := 4 + col*(colW+buttonGap)
			b.Rect = image.Rect(x, y, x+colW, y+buttonHeight)
			out = append(out, b)
		}
		y += buttonHeight + groupGap
	}
	return out
}

// hitButton returns the index of the button under p.
func hitButton(buttons []Button, p image.Point) int {
	for i, b := range buttons {
		if p.In(b.Rect) {
			return i
		}
	}
	return -1
}

// canvasRect is the area the viewer draws into.
func canvasRect(width, height int, fullscreen bool) image.Rectangle {
	if fullscreen {
		return image.Rect(0, 0, width, height)
	}
	r := image.Rect(toolbarWidth, 0, width, height-statusHeight)
	if r.Dx() < 1 {
		r.Max.X = r.Min.X + 1
	}
	if r.Dy() < 1 {
		r.Max.Y = r.Min.Y + 1
	}
	return r
}

func statusText(s viewer.Snapshot) string {
	parts := []string{}
	if im, ok := s.CurrentImage(); ok {
		name := im.Name
		if name == "" {
			name = im.ID
		}
		parts = append(parts, fmt.Sprintf("%d/%d %s (%s)", s.Current+1, len(s.Images), name, im.Status))
	} else {
		parts = append(parts, "No images")
	}
	t := activeTransform(s)
	parts = append(parts,
		fmt.Sprintf("Zoom %.0f%%", t.Zoom),
		fmt.Sprintf("B %.0f%% C %.0f%%", t.Brightness, t.Contrast),
		fmt.Sprintf("Rot %d°", t.Rotation),
	)
	if t.Flipped.Horizontal || t.Flipped.Vertical {
		parts = append(parts, "Flipped")
	}
	if t.Invert {
		parts = append(parts, "Inverted")
	}
	parts = append(parts,
		"Tool: "+s.Tool.String(),
		fmt.Sprintf("Layout %s [%d]", s.Layout, s.Active+1),
	)
	return strings.Join(parts, " | ")
}

// drawChrome paints the toolbar and status bar around the canvas.
func drawChrome(dst *image.RGBA, th *theme.Theme, face font.Face, snap viewer.Snapshot, buttons []Button, hover int) {
	b := dst.Bounds()
	dc := gg.NewContextForRGBA(dst)
	dc.SetFontFace(face)

	dc.SetColor(th.ToolbarBackground)
	dc.DrawRectangle(0, 0, toolbarWidth, float64(b.Dy()))
	dc.Fill()
	for i, btn := range buttons {
		r := btn.Rect
		bg := th.ButtonBackground
		if btn.Active != nil && btn.Active(snap) {
			bg = th.ButtonActive
		}
		dc.SetColor(bg)
		dc.DrawRoundedRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()), 3)
		dc.Fill()
		if i == hover {
			dc.SetColor(th.ActiveBorder)
			dc.SetLineWidth(1)
			dc.DrawRoundedRectangle(float64(r.Min.X)+0.5, float64(r.Min.Y)+0.5, float64(r.Dx())-1, float64(r.Dy())-1, 3)
			dc.Stroke()
		}
		dc.SetColor(th.ButtonText)
		dc.DrawStringAnchored(btn.Label, float64(r.Min.X+r.Max.X)/2, float64(r.Min.Y+r.Max.Y)/2, 0.5, 0.35)
	}

	top := float64(b.Dy() - statusHeight)
	dc.SetColor(th.StatusBackground)
	dc.DrawRectangle(0, top, float64(b.Dx()), statusHeight)
	dc.Fill()
	dc.SetColor(th.Foreground)
	dc.DrawStringAnchored(statusText(snap), 8, top+statusHeight/2, 0, 0.35)
}

func chromeFace() (font.Face, error) { return fonts.NewFace(chromeFont) }
