package ui

import (
	"image"
	"unicode"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/radview/internal/geom"
	"github.com/example/radview/internal/viewer"
)

// wheelDelta matches one browser wheel notch.
const wheelDelta = 100

// translateMouse turns a window mouse event into a viewer intent. Positions
// are made relative to canvas.
func translateMouse(e mouse.Event, canvas image.Rectangle) (viewer.Intent, bool) {
	p := geom.Pt(float64(e.X)-float64(canvas.Min.X), float64(e.Y)-float64(canvas.Min.Y))
	if e.Button.IsWheel() {
		if e.Direction == mouse.DirRelease {
			return nil, false
		}
		switch e.Button {
		case mouse.ButtonWheelUp:
			return viewer.Wheel{DeltaY: -wheelDelta}, true
		case mouse.ButtonWheelDown:
			return viewer.Wheel{DeltaY: wheelDelta}, true
		}
		return nil, false
	}
	switch e.Direction {
	case mouse.DirPress:
		if e.Button != mouse.ButtonLeft {
			return nil, false
		}
		return viewer.PointerDown{P: p}, true
	case mouse.DirRelease:
		if e.Button != mouse.ButtonLeft {
			return nil, false
		}
		return viewer.PointerUp{}, true
	case mouse.DirNone:
		return viewer.PointerMove{P: p}, true
	}
	return nil, false
}

// translateKey maps presses onto viewer key intents.
func translateKey(e key.Event) (viewer.Key, bool) {
	if e.Direction == key.DirRelease {
		return viewer.Key{}, false
	}
	k := viewer.Key{Ctrl: e.Modifiers&key.ModControl != 0}
	switch e.Code {
	case key.CodeEscape:
		k.Name = "escape"
	case key.CodeReturnEnter, key.CodeKeypadEnter:
		k.Name = "enter"
	case key.CodeDeleteBackspace:
		k.Name = "backspace"
	case key.CodeDeleteForward:
		k.Name = "delete"
	case key.CodeLeftArrow:
		k.Name = "left"
	case key.CodeRightArrow:
		k.Name = "right"
	case key.CodeZ:
		k.Rune = e.Rune
		if k.Rune <= 0 {
			// Some drivers report ctrl chords without a rune.
			k.Rune = 'z'
		}
	default:
		if e.Rune <= 0 {
			return viewer.Key{}, false
		}
		k.Rune = e.Rune
	}
	return k, true
}

// hostCommand recognises the window-level shortcuts.
func hostCommand(e key.Event) (Command, bool) {
	if e.Direction != key.DirPress || e.Modifiers&key.ModControl == 0 {
		return CommandNone, false
	}
	shift := e.Modifiers&key.ModShift != 0
	r := unicode.ToLower(e.Rune)
	if r <= 0 {
		switch e.Code {
		case key.CodeC:
			r = 'c'
		case key.CodeS:
			r = 's'
		case key.CodeV:
			r = 'v'
		case key.CodeQ:
			r = 'q'
		}
	}
	switch r {
	case 'c':
		if shift {
			return CommandCopyState, true
		}
		return CommandCopy, true
	case 's':
		return CommandSave, true
	case 'v':
		return CommandPaste, true
	case 'q':
		return CommandQuit, true
	}
	return CommandNone, false
}
