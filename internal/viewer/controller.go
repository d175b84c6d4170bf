// Package viewer is the interaction core: an explicit State owned by a
// Controller and driven by Intents from the host window, the HTTP surface or
// the CLI. Every applied intent that changes state triggers the change hooks
// exactly once with a deep-copied Snapshot.
package viewer

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/radview/internal/annotation"
	"github.com/example/radview/internal/geom"
	"github.com/example/radview/internal/layout"
	"github.com/example/radview/internal/notify"
	"github.com/example/radview/internal/transform"
)

// Notifier receives user-visible notices.
type Notifier interface {
	Notify(event notify.Event, text string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(notify.Event, string) {}

// Controller owns the viewer State. It is not safe for concurrent use;
// background work posts intents back to the goroutine that calls Dispatch.
type Controller struct {
	st       State
	log      zerolog.Logger
	notifier Notifier
	measurer annotation.Measurer
	hooks    []func(Snapshot)
	now      func() time.Time
}

// Option modifies a Controller during creation.
type Option func(*Controller)

// WithLogger sets the logger used for intent tracing.
func WithLogger(l zerolog.Logger) Option { return func(c *Controller) { c.log = l } }

// WithNotifier routes notices to n.
func WithNotifier(n Notifier) Option { return func(c *Controller) { c.notifier = n } }

// WithMeasurer sets the text measurer used for hit-testing text boxes.
func WithMeasurer(m annotation.Measurer) Option { return func(c *Controller) { c.measurer = m } }

// WithChangeHook registers fn to run after every state change.
func WithChangeHook(fn func(Snapshot)) Option {
	return func(c *Controller) { c.hooks = append(c.hooks, fn) }
}

// OnChange registers fn on a running controller, as WithChangeHook does at
// construction. It must be called from the goroutine that dispatches.
func (c *Controller) OnChange(fn func(Snapshot)) { c.hooks = append(c.hooks, fn) }

// WithLayout sets the initial layout.
func WithLayout(l layout.Layout) Option { return func(c *Controller) { c.st.Layout = l } }

// WithTextStyle sets the defaults for new text annotations.
func WithTextStyle(ts TextStyle) Option { return func(c *Controller) { c.st.TextStyle = ts } }

// WithSize sets the initial canvas size.
func WithSize(w, h int) Option {
	return func(c *Controller) { c.st.Width, c.st.Height = w, h }
}

// WithClock replaces time.Now for message timestamps.
func WithClock(now func() time.Time) Option { return func(c *Controller) { c.now = now } }

// New creates a Controller with the provided options.
func New(opts ...Option) *Controller {
	c := &Controller{
		st: State{
			Layout:    layout.Single,
			Width:     800,
			Height:    600,
			Selected:  -1,
			TextStyle: DefaultTextStyle(),
		},
		log:      zerolog.Nop(),
		notifier: nopNotifier{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	if c.st.Layout.Count() == 0 {
		c.st.Layout = layout.Single
	}
	c.st.Transforms = transform.NewStore(c.st.Layout.Count())
	return c
}

// NewImageID returns a fresh identifier for ImageSpec.ID.
func NewImageID() string { return uuid.NewString() }

// Snapshot returns a deep copy of the current state.
func (c *Controller) Snapshot() Snapshot { return c.st.snapshot() }

// Dispatch applies one intent and reports whether state changed. On change
// every hook runs once with the new snapshot.
func (c *Controller) Dispatch(in Intent) bool {
	changed := c.apply(in)
	c.log.Trace().Str("intent", fmt.Sprintf("%T", in)).Bool("changed", changed).Msg("dispatch")
	if !changed || len(c.hooks) == 0 {
		return changed
	}
	snap := c.st.snapshot()
	for _, h := range c.hooks {
		h(snap)
	}
	return changed
}

func (c *Controller) say(event notify.Event, format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	c.st.Message = Message{Event: event, Text: text, At: c.now()}
	c.notifier.Notify(event, text)
}

func (c *Controller) apply(in Intent) bool {
	st := &c.st
	switch v := in.(type) {
	case PointerDown:
		return c.pointerDown(v.P)
	case PointerMove:
		return c.pointerMove(v.P)
	case PointerUp, PointerLeave:
		if st.Mode == ModeIdle {
			return false
		}
		st.Mode = ModeIdle
		return true
	case Wheel:
		switch {
		case v.DeltaY < 0:
			return c.updateActive(transform.State.ZoomIn)
		case v.DeltaY > 0:
			return c.updateActive(transform.State.ZoomOut)
		}
		return false
	case Key:
		return c.key(v)
	case SelectTool:
		return c.selectTool(v.Tool)
	case SetLayout:
		if v.Layout.Count() == 0 || v.Layout == st.Layout {
			return false
		}
		st.Layout = v.Layout
		st.Transforms.Resize(v.Layout.Count())
		st.Active = 0
		st.Mode = ModeIdle
		return true
	case Resize:
		if v.W == st.Width && v.H == st.Height {
			return false
		}
		st.Width, st.Height = v.W, v.H
		return true
	case SetActiveViewport:
		i := st.Transforms.Clamp(v.Index)
		if i == st.Active {
			return false
		}
		st.Active = i
		return true
	case ConfirmText:
		return c.confirmText(v)
	case CancelText:
		if st.Prompt == nil {
			return false
		}
		st.Prompt = nil
		st.Tool = ToolSelect
		return true
	case Navigate:
		return c.goTo(st.Current + v.Delta)
	case GoToImage:
		return c.goTo(v.Index)
	case DeleteImage:
		return c.deleteImage(v.Index)
	case AddImages:
		return c.addImages(v.Images)
	case ImageLoaded:
		return c.imageLoaded(v)
	case UploadFinished:
		return c.uploadFinished(v)
	case ClearAnnotations:
		cur := st.current()
		if cur == nil || len(cur.Annotations) == 0 {
			return false
		}
		cur.Annotations.Clear()
		st.Selected = -1
		return true
	case Undo:
		cur := st.current()
		if cur == nil {
			return false
		}
		if _, ok := cur.Annotations.Pop(); !ok {
			return false
		}
		if st.Selected >= len(cur.Annotations) {
			st.Selected = -1
		}
		st.Mode = ModeIdle
		return true
	case DeleteSelected:
		cur := st.current()
		if cur == nil || !cur.Annotations.Delete(st.Selected) {
			return false
		}
		st.Selected = -1
		st.Mode = ModeIdle
		return true
	case ResetTransforms:
		st.Transforms.ResetAll()
		return true
	case ToggleInvert:
		return c.updateActive(transform.State.ToggleInvert)
	case Rotate:
		if v.Clockwise {
			return c.updateActive(transform.State.RotateCW)
		}
		return c.updateActive(transform.State.RotateCCW)
	case Flip:
		if v.Vertical {
			return c.updateActive(transform.State.ToggleFlipV)
		}
		return c.updateActive(transform.State.ToggleFlipH)
	case AdjustBrightness:
		return c.updateActive(func(s transform.State) transform.State { return s.AdjustBrightness(v.Delta) })
	case AdjustContrast:
		return c.updateActive(func(s transform.State) transform.State { return s.AdjustContrast(v.Delta) })
	case ZoomStep:
		return c.updateActive(func(s transform.State) transform.State { return s.ZoomBy(v.Steps) })
	case ToggleFullscreen:
		st.Fullscreen = !st.Fullscreen
		return true
	case Restore:
		return c.restore(v)
	case ShowMessage:
		if v.Silent {
			st.Message = Message{Event: v.Event, Text: v.Text, At: c.now()}
			return true
		}
		c.say(v.Event, "%s", v.Text)
		return true
	}
	c.log.Warn().Str("intent", fmt.Sprintf("%T", in)).Msg("unhandled intent")
	return false
}

func (c *Controller) updateActive(fn func(transform.State) transform.State) bool {
	before := c.st.Transforms.Get(c.st.Active)
	return c.st.Transforms.Update(c.st.Active, fn) != before
}

func (c *Controller) pointerDown(p geom.Point) bool {
	st := &c.st
	rects := st.viewports()
	idx := layout.Locate(rects, p.X, p.Y)
	if idx < 0 {
		return false
	}
	if idx != st.Active {
		st.Active = idx
		st.Mode = ModeIdle
		return true
	}
	local := rects[idx].Local(p)
	if st.Prompt != nil {
		st.Prompt.Anchor = local
		return true
	}
	cur := st.current()
	if cur == nil {
		return false
	}
	switch st.Tool {
	case ToolSelect:
		st.Selected = cur.Annotations.FindAt(local, c.measurer)
		if st.Selected >= 0 {
			st.Mode = ModeDragging
			st.anchor = local
		}
		return true
	case ToolPan:
		st.Mode = ModePanning
		st.anchor = local
		return true
	case ToolErase:
		i := cur.Annotations.FindAt(local, c.measurer)
		if i < 0 {
			return false
		}
		cur.Annotations.Delete(i)
		st.Selected = -1
		return true
	case ToolText:
		st.Prompt = &TextPrompt{Anchor: local}
		return true
	}
	kind, ok := st.Tool.kind()
	if !ok {
		return false
	}
	if cur.Status != StatusReady {
		c.say(notify.EventRefused, "Image %s is not ready for annotation", cur.label())
		return true
	}
	a, err := annotation.New(kind, local)
	if err != nil {
		c.log.Error().Err(err).Msg("create annotation")
		return false
	}
	cur.Annotations.Append(a)
	st.Mode = ModeDrawing
	return true
}

func (c *Controller) pointerMove(p geom.Point) bool {
	st := &c.st
	if st.Mode == ModeIdle {
		return false
	}
	local := st.activeRect().Local(p)
	cur := st.current()
	switch st.Mode {
	case ModeDragging:
		if cur == nil {
			return false
		}
		d := local.Sub(st.anchor)
		st.anchor = local
		return cur.Annotations.Translate(st.Selected, d.X, d.Y)
	case ModePanning:
		d := local.Sub(st.anchor)
		st.anchor = local
		return c.updateActive(func(s transform.State) transform.State { return s.PanBy(d.X, d.Y) })
	case ModeDrawing:
		if cur == nil {
			return false
		}
		return cur.Annotations.UpdateLast(func(a annotation.Annotation) annotation.Annotation {
			return annotation.Extend(a, local)
		})
	}
	return false
}

func keyName(k Key) string {
	if n := strings.ToLower(strings.TrimSpace(k.Name)); n != "" {
		return n
	}
	if k.Rune != 0 {
		return string(unicode.ToLower(k.Rune))
	}
	return ""
}

func (c *Controller) key(k Key) bool {
	st := &c.st
	name := keyName(k)
	if st.Prompt != nil {
		switch name {
		case "escape":
			return c.apply(CancelText{})
		case "enter", "return":
			return c.apply(ConfirmText{Text: st.Prompt.Buffer})
		case "backspace":
			r := []rune(st.Prompt.Buffer)
			if len(r) == 0 {
				return false
			}
			st.Prompt.Buffer = string(r[:len(r)-1])
			return true
		}
		if k.Rune != 0 && !k.Ctrl && unicode.IsPrint(k.Rune) {
			st.Prompt.Buffer += string(k.Rune)
			return true
		}
		return false
	}
	if k.Ctrl {
		if name == "z" {
			return c.apply(Undo{})
		}
		return false
	}
	switch name {
	case "delete":
		return c.apply(DeleteSelected{})
	case "r":
		return c.apply(ResetTransforms{})
	case "i":
		return c.apply(ToggleInvert{})
	case "=", "+":
		return c.apply(ZoomStep{Steps: 1})
	case "-":
		return c.apply(ZoomStep{Steps: -1})
	case "left":
		return c.apply(Navigate{Delta: -1})
	case "right":
		return c.apply(Navigate{Delta: 1})
	case "f":
		return c.apply(ToggleFullscreen{})
	case "escape":
		if st.Selected < 0 {
			return false
		}
		st.Selected = -1
		return true
	}
	return false
}

func (c *Controller) selectTool(t Tool) bool {
	st := &c.st
	st.Mode = ModeIdle
	switch t {
	case ToolReset:
		st.Transforms.ResetAll()
		return true
	case ToolText:
		r := st.activeRect()
		st.Prompt = &TextPrompt{Anchor: geom.Pt(r.W/2, r.H/2)}
		st.Tool = ToolText
		return true
	}
	if t < 0 || int(t) >= len(toolNames) {
		return false
	}
	st.Prompt = nil
	st.Tool = t
	return true
}

func (c *Controller) confirmText(v ConfirmText) bool {
	st := &c.st
	anchor := geom.Pt(st.activeRect().W/2, st.activeRect().H/2)
	if st.Prompt != nil {
		anchor = st.Prompt.Anchor
	}
	st.Prompt = nil
	st.Tool = ToolSelect
	text := strings.TrimSpace(v.Text)
	cur := st.current()
	if text == "" || cur == nil {
		return true
	}
	if cur.Status != StatusReady {
		c.say(notify.EventRefused, "Image %s is not ready for annotation", cur.label())
		return true
	}
	style := st.TextStyle
	if v.FontSize > 0 {
		style.FontSize = v.FontSize
	}
	if v.Color != "" {
		style.Color = v.Color
	}
	if v.Background != "" {
		style.Background = v.Background
	}
	cur.Annotations.Append(annotation.NewText(anchor, text, style.FontSize, style.Color, style.Background))
	return true
}

func (im *Image) label() string {
	if im.Name != "" {
		return im.Name
	}
	if im.URL != "" {
		return im.URL
	}
	return im.ID
}

func clampIndex(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// goTo switches the current image, swapping the active viewport's transform
// with the per-image settings.
func (c *Controller) goTo(i int) bool {
	st := &c.st
	if len(st.Images) == 0 {
		return false
	}
	i = clampIndex(i, len(st.Images))
	if i == st.Current {
		return false
	}
	if out := st.current(); out != nil {
		out.Settings = st.Transforms.Get(st.Active)
	}
	st.Current = i
	st.Transforms.Put(st.Active, st.Images[i].Settings)
	st.Selected = -1
	st.Mode = ModeIdle
	return true
}

func (c *Controller) deleteImage(i int) bool {
	st := &c.st
	if len(st.Images) == 0 {
		return false
	}
	if len(st.Images) == 1 {
		c.say(notify.EventRefused, "Cannot delete the last image")
		return true
	}
	i = clampIndex(i, len(st.Images))
	st.Images = append(st.Images[:i:i], st.Images[i+1:]...)
	switch {
	case i < st.Current:
		st.Current--
	case i == st.Current:
		st.Current = clampIndex(st.Current, len(st.Images))
		st.Transforms.Put(st.Active, st.Images[st.Current].Settings)
	}
	st.Selected = -1
	st.Mode = ModeIdle
	return true
}

func (c *Controller) addImages(specs []ImageSpec) bool {
	st := &c.st
	if len(specs) == 0 {
		return false
	}
	first := len(st.Images) == 0
	for _, s := range specs {
		id := s.ID
		if id == "" {
			id = NewImageID()
		}
		st.Images = append(st.Images, &Image{
			ID:        id,
			URL:       s.URL,
			Name:      s.Name,
			Settings:  transform.Default(),
			Status:    StatusLoading,
			Uploading: s.URL == "",
		})
	}
	if first {
		st.Current = 0
	}
	return true
}

func (c *Controller) imageLoaded(v ImageLoaded) bool {
	st := &c.st
	i := st.indexOf(v.ID)
	if i < 0 {
		c.log.Debug().Str("image", v.ID).Msg("load result for unknown image")
		return false
	}
	im := st.Images[i]
	if v.Err != nil {
		im.Status = StatusFailed
		im.Err = v.Err.Error()
		im.Bitmap = nil
		c.say(notify.EventLoadFailed, "Failed to load image %s: %v", im.label(), v.Err)
		return true
	}
	im.Status = StatusReady
	im.Err = ""
	im.Bitmap = v.Bitmap
	return true
}

func (c *Controller) uploadFinished(v UploadFinished) bool {
	st := &c.st
	i := st.indexOf(v.ID)
	if i < 0 {
		return false
	}
	im := st.Images[i]
	if v.Err == nil {
		im.URL = v.URL
		im.Uploading = false
		return true
	}
	st.Images = append(st.Images[:i:i], st.Images[i+1:]...)
	switch {
	case i < st.Current:
		st.Current--
	case i == st.Current:
		st.Current = clampIndex(st.Current, len(st.Images))
		if next := st.current(); next != nil {
			st.Transforms.Put(st.Active, next.Settings)
		} else {
			st.Transforms.Put(st.Active, transform.Default())
		}
		st.Selected = -1
		st.Mode = ModeIdle
	}
	c.say(notify.EventUploadFailed, "Upload failed for %s: %v", im.label(), v.Err)
	return true
}

// restore is a no-op until images exist, so an empty session never replaces
// saved state with an empty one.
func (c *Controller) restore(v Restore) bool {
	st := &c.st
	if len(st.Images) == 0 {
		return false
	}
	if v.Layout.Count() > 0 && v.Layout != st.Layout {
		st.Layout = v.Layout
		st.Transforms.Resize(v.Layout.Count())
	}
	for i, rec := range v.Images {
		if i >= len(st.Images) {
			break
		}
		st.Images[i].Annotations = rec.Annotations.Clone()
		settings := rec.Settings
		if settings == (transform.State{}) {
			settings = transform.Default()
		}
		st.Images[i].Settings = settings.Normalize()
	}
	st.Active = st.Transforms.Clamp(v.Active)
	st.Current = clampIndex(v.Current, len(st.Images))
	st.Transforms.Put(st.Active, st.Images[st.Current].Settings)
	st.Selected = -1
	st.Mode = ModeIdle
	return true
}
