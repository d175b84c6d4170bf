package viewer

import (
	"image"

	"github.com/example/radview/internal/annotation"
	"github.com/example/radview/internal/geom"
	"github.com/example/radview/internal/layout"
	"github.com/example/radview/internal/notify"
	"github.com/example/radview/internal/transform"
)

// Intent is a host event translated into viewer vocabulary. The set of
// intents is closed; hosts construct them and pass them to Dispatch.
type Intent interface{ intent() }

// Pointer positions are canvas pixels.
type (
	PointerDown  struct{ P geom.Point }
	PointerMove  struct{ P geom.Point }
	PointerUp    struct{}
	PointerLeave struct{}
)

// Wheel follows the browser sign convention: negative DeltaY scrolls up and
// zooms in.
type Wheel struct{ DeltaY float64 }

// Key is a key press. Name carries special keys ("delete", "left",
// "escape", ...); Rune carries printable input.
type Key struct {
	Name string
	Rune rune
	Ctrl bool
}

type SelectTool struct{ Tool Tool }

type SetLayout struct{ Layout layout.Layout }

// Resize reports the canvas size in pixels.
type Resize struct{ W, H int }

type SetActiveViewport struct{ Index int }

// ConfirmText completes the open text prompt. Zero style fields fall back to
// the controller's text style.
type ConfirmText struct {
	Text       string
	FontSize   float64
	Color      string
	Background string
}

type CancelText struct{}

type Navigate struct{ Delta int }

type GoToImage struct{ Index int }

type DeleteImage struct{ Index int }

// ImageSpec describes an image to append. An empty URL marks an upload
// placeholder that waits for UploadFinished.
type ImageSpec struct {
	ID   string
	Name string
	URL  string
}

type AddImages struct{ Images []ImageSpec }

// ImageLoaded reports the outcome of an asynchronous decode.
type ImageLoaded struct {
	ID     string
	Bitmap image.Image
	Err    error
}

// UploadFinished reports the outcome of uploading a placeholder's file.
type UploadFinished struct {
	ID  string
	URL string
	Err error
}

type (
	ClearAnnotations struct{}
	Undo             struct{}
	DeleteSelected   struct{}
	ResetTransforms  struct{}
	ToggleInvert     struct{}
	ToggleFullscreen struct{}
)

type Rotate struct{ Clockwise bool }

type Flip struct{ Vertical bool }

type AdjustBrightness struct{ Delta float64 }

type AdjustContrast struct{ Delta float64 }

type ZoomStep struct{ Steps int }

// ImageRecord is the persisted part of one image.
type ImageRecord struct {
	Annotations annotation.List
	Settings    transform.State
}

// Restore merges previously saved state into the loaded images. Records are
// applied by index over the overlap with the current image list only.
type Restore struct {
	Layout  layout.Layout
	Current int
	Active  int
	Images  []ImageRecord
}

// ShowMessage surfaces a host-side notice through the viewer's message line.
// Silent messages are shown but not forwarded to the notifier.
type ShowMessage struct {
	Event  notify.Event
	Text   string
	Silent bool
}

func (PointerDown) intent()       {}
func (PointerMove) intent()       {}
func (PointerUp) intent()         {}
func (PointerLeave) intent()      {}
func (Wheel) intent()             {}
func (Key) intent()               {}
func (SelectTool) intent()        {}
func (SetLayout) intent()         {}
func (Resize) intent()            {}
func (SetActiveViewport) intent() {}
func (ConfirmText) intent()       {}
func (CancelText) intent()        {}
func (Navigate) intent()          {}
func (GoToImage) intent()         {}
func (DeleteImage) intent()       {}
func (AddImages) intent()         {}
func (ImageLoaded) intent()       {}
func (UploadFinished) intent()    {}
func (ClearAnnotations) intent()  {}
func (Undo) intent()              {}
func (DeleteSelected) intent()    {}
func (ResetTransforms) intent()   {}
func (ToggleInvert) intent()      {}
func (ToggleFullscreen) intent()  {}
func (Rotate) intent()            {}
func (Flip) intent()              {}
func (AdjustBrightness) intent()  {}
func (AdjustContrast) intent()    {}
func (ZoomStep) intent()          {}
func (Restore) intent()           {}
func (ShowMessage) intent()       {}
