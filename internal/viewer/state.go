package viewer

import (
	"image"
	"time"

	"github.com/example/radview/internal/annotation"
	"github.com/example/radview/internal/geom"
	"github.com/example/radview/internal/layout"
	"github.com/example/radview/internal/notify"
	"github.com/example/radview/internal/transform"
)

// Status tracks an image's decode lifecycle.
type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	}
	return "loading"
}

// Image is one entry of the study. Bitmap is never persisted and is treated
// as immutable once set.
type Image struct {
	ID          string
	URL         string
	Name        string
	Annotations annotation.List
	Settings    transform.State
	Status      Status
	Err         string
	Bitmap      image.Image
	// Uploading marks a placeholder whose file has not been stored yet.
	Uploading bool
}

func (im *Image) clone() Image {
	out := *im
	out.Annotations = im.Annotations.Clone()
	return out
}

// TextPrompt is the open text entry. Anchor is viewport-local.
type TextPrompt struct {
	Anchor geom.Point
	Buffer string
}

// TextStyle holds the defaults applied to new text annotations.
type TextStyle struct {
	FontSize   float64
	Color      string
	Background string
}

// DefaultTextStyle is yellow text on a translucent black box.
func DefaultTextStyle() TextStyle {
	return TextStyle{FontSize: 16, Color: "#ffff00", Background: "rgba(0,0,0,0.5)"}
}

// Message is the latest user-visible notice.
type Message struct {
	Event notify.Event
	Text  string
	At    time.Time
}

// MessageTTL is how long a message stays on screen.
const MessageTTL = 3 * time.Second

// Visible reports whether m should still be drawn at now.
func (m Message) Visible(now time.Time) bool {
	return m.Text != "" && now.Before(m.At.Add(MessageTTL))
}

// State is everything the viewer knows. It is owned by a Controller and only
// mutated inside Dispatch.
type State struct {
	Layout     layout.Layout
	Width      int
	Height     int
	Transforms *transform.Store
	Active     int
	Images     []*Image
	Current    int
	Tool       Tool
	Mode       Mode
	Selected   int
	Prompt     *TextPrompt
	Fullscreen bool
	Message    Message
	TextStyle  TextStyle

	anchor geom.Point
}

func (s *State) current() *Image {
	if s.Current < 0 || s.Current >= len(s.Images) {
		return nil
	}
	return s.Images[s.Current]
}

func (s *State) viewports() []geom.Rect {
	return layout.Tile(s.Layout, float64(s.Width), float64(s.Height))
}

func (s *State) activeRect() geom.Rect {
	rects := s.viewports()
	if s.Active < 0 || s.Active >= len(rects) {
		return geom.Rect{W: float64(s.Width), H: float64(s.Height)}
	}
	return rects[s.Active]
}

func (s *State) indexOf(id string) int {
	for i, im := range s.Images {
		if im.ID == id {
			return i
		}
	}
	return -1
}

// Snapshot is a deep copy of State for renderers and persistence. Bitmaps
// are shared since they are never mutated.
type Snapshot struct {
	Layout     layout.Layout
	Width      int
	Height     int
	Viewports  []geom.Rect
	Transforms []transform.State
	Active     int
	Images     []Image
	Current    int
	Tool       Tool
	Mode       Mode
	Selected   int
	Prompt     *TextPrompt
	Fullscreen bool
	Message    Message
	TextStyle  TextStyle
}

// CurrentImage returns the image shown in the viewports, if any.
func (s Snapshot) CurrentImage() (Image, bool) {
	if s.Current < 0 || s.Current >= len(s.Images) {
		return Image{}, false
	}
	return s.Images[s.Current], true
}

func (s *State) snapshot() Snapshot {
	snap := Snapshot{
		Layout:     s.Layout,
		Width:      s.Width,
		Height:     s.Height,
		Viewports:  s.viewports(),
		Transforms: s.Transforms.All(),
		Active:     s.Active,
		Images:     make([]Image, len(s.Images)),
		Current:    s.Current,
		Tool:       s.Tool,
		Mode:       s.Mode,
		Selected:   s.Selected,
		Fullscreen: s.Fullscreen,
		Message:    s.Message,
		TextStyle:  s.TextStyle,
	}
	for i, im := range s.Images {
		snap.Images[i] = im.clone()
	}
	if s.Prompt != nil {
		p := *s.Prompt
		snap.Prompt = &p
	}
	return snap
}
