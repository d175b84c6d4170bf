package viewer

import (
	"fmt"
	"strings"

	"github.com/example/radview/internal/annotation"
)

// Tool is the active pointer mode selected from the toolbar.
type Tool int

const (
	ToolSelect Tool = iota
	ToolPan
	ToolDraw
	ToolCircle
	ToolRectangle
	ToolMeasure
	ToolArrow
	ToolHighlight
	ToolText
	ToolErase
	ToolReset
)

var toolNames = []string{
	ToolSelect:    "select",
	ToolPan:       "pan",
	ToolDraw:      "draw",
	ToolCircle:    "circle",
	ToolRectangle: "rectangle",
	ToolMeasure:   "measure",
	ToolArrow:     "arrow",
	ToolHighlight: "highlight",
	ToolText:      "text",
	ToolErase:     "erase",
	ToolReset:     "reset",
}

func (t Tool) String() string {
	if t < 0 || int(t) >= len(toolNames) {
		return fmt.Sprintf("tool(%d)", int(t))
	}
	return toolNames[t]
}

// Tools returns every tool in toolbar order.
func Tools() []Tool {
	out := make([]Tool, len(toolNames))
	for i := range toolNames {
		out[i] = Tool(i)
	}
	return out
}

// ParseTool resolves a tool by name.
func ParseTool(s string) (Tool, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range toolNames {
		if n == s {
			return Tool(i), nil
		}
	}
	return ToolSelect, fmt.Errorf("unknown tool %q", s)
}

// kind maps drawing tools onto the annotation they create.
func (t Tool) kind() (annotation.Kind, bool) {
	switch t {
	case ToolDraw:
		return annotation.KindFreehand, true
	case ToolCircle:
		return annotation.KindCircle, true
	case ToolRectangle:
		return annotation.KindRectangle, true
	case ToolMeasure:
		return annotation.KindMeasure, true
	case ToolArrow:
		return annotation.KindArrow, true
	case ToolHighlight:
		return annotation.KindHighlight, true
	}
	return "", false
}

// Mode is the state of the pointer gesture machine.
type Mode int

const (
	ModeIdle Mode = iota
	ModeDrawing
	ModeDragging
	ModePanning
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeDrawing:
		return "drawing"
	case ModeDragging:
		return "dragging-annotation"
	case ModePanning:
		return "panning"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}
