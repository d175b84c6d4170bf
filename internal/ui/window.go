// Package ui hosts the viewer in a shiny window: it translates window events
// into viewer intents, paints frames on a background goroutine and runs the
// host-side commands (clipboard, saving, uploads).
package ui

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/image/font"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/radview/internal/clipboard"
	"github.com/example/radview/internal/imagesource"
	"github.com/example/radview/internal/notify"
	"github.com/example/radview/internal/persist"
	"github.com/example/radview/internal/render"
	"github.com/example/radview/internal/theme"
	"github.com/example/radview/internal/upload"
	"github.com/example/radview/internal/viewer"
)

// frameDropThreshold limits how many consecutive frames may be cancelled
// before one is allowed to finish.
const frameDropThreshold = 10

// Options configure a Window.
type Options struct {
	Title      string
	Width      int
	Height     int
	Controller *viewer.Controller
	Loader     *imagesource.Loader
	Uploader   upload.Uploader
	Theme      *theme.Theme
	Notifier   *notify.Notifier
	SaveDir    string
	Log        zerolog.Logger
}

// Window is the desktop host for a Controller.
type Window struct {
	opts    Options
	ctl     *viewer.Controller
	buttons []Button

	mu sync.Mutex
	w  screen.Window

	requested  map[string]bool
	fullscreen bool
	width      int
	height     int
	hover      int
	inCanvas   bool
	lastMsg    time.Time
}

// intentEvent carries an intent from a background goroutine into the event loop.
type intentEvent struct{ in viewer.Intent }

type paintState struct {
	width, height int
	snap          viewer.Snapshot
	hover         int
}

// New prepares a window; call Run to show it.
func New(opts Options) *Window {
	if opts.Width <= 0 {
		opts.Width = 1280
	}
	if opts.Height <= 0 {
		opts.Height = 800
	}
	if opts.Title == "" {
		opts.Title = "RadView"
	}
	if opts.Theme == nil {
		opts.Theme = theme.Default()
	}
	if opts.Loader == nil {
		opts.Loader = imagesource.NewLoader(opts.Log)
	}
	if opts.SaveDir == "" {
		opts.SaveDir = "."
	}
	return &Window{
		opts:      opts,
		ctl:       opts.Controller,
		buttons:   layoutToolbar(),
		requested: map[string]bool{},
		hover:     -1,
	}
}

// Run executes the UI loop using shiny's driver.
func (win *Window) Run() { driver.Main(win.Main) }

// Send posts an intent to the event loop. It is safe to call from any goroutine.
func (win *Window) Send(in viewer.Intent) {
	win.mu.Lock()
	w := win.w
	win.mu.Unlock()
	if w != nil {
		w.Send(intentEvent{in})
	}
}

// Main runs the event loop on s until the window closes.
func (win *Window) Main(s screen.Screen) {
	log := win.opts.Log
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: win.opts.Width, Height: win.opts.Height, Title: win.opts.Title})
	if err != nil {
		log.Error().Err(err).Msg("new window")
		return
	}
	defer w.Release()
	win.mu.Lock()
	win.w = w
	win.mu.Unlock()
	defer func() {
		win.mu.Lock()
		win.w = nil
		win.mu.Unlock()
	}()

	face, err := chromeFace()
	if err != nil {
		log.Error().Err(err).Msg("chrome font")
		return
	}

	ctx, cancelLoads := context.WithCancel(context.Background())
	defer cancelLoads()

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan paintState, 1)
	go func() {
		for st := range paintCh {
			pctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			win.drawFrame(pctx, s, w, face, st)
			paintMu.Lock()
			paintCancel = nil
			if pctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
			cancel()
		}
	}()
	defer close(paintCh)

	win.width, win.height = win.opts.Width, win.opts.Height
	win.resize()
	win.startLoads(ctx)

	for {
		switch e := w.NextEvent().(type) {
		case intentEvent:
			win.dispatch(ctx, e.in)
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				paintMu.Lock()
				if paintCancel != nil {
					paintCancel()
				}
				paintMu.Unlock()
				return
			}
		case size.Event:
			win.width, win.height = e.WidthPx, e.HeightPx
			win.resize()
			w.Send(paint.Event{})
		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil && dropCount < frameDropThreshold {
				paintCancel()
				dropCount++
			}
			paintMu.Unlock()
			st := paintState{width: win.width, height: win.height, snap: win.ctl.Snapshot(), hover: win.hover}
			select {
			case paintCh <- st:
			default:
				<-paintCh
				paintCh <- st
			}
		case mouse.Event:
			win.mouse(ctx, e)
		case key.Event:
			if cmd, ok := hostCommand(e); ok {
				if cmd == CommandQuit {
					return
				}
				win.run(ctx, cmd)
				continue
			}
			if k, ok := translateKey(e); ok {
				win.dispatch(ctx, k)
			}
		case error:
			log.Error().Err(e).Msg("window event")
		}
	}
}

func (win *Window) canvas() image.Rectangle {
	return canvasRect(win.width, win.height, win.fullscreen)
}

func (win *Window) resize() {
	c := win.canvas()
	win.ctl.Dispatch(viewer.Resize{W: c.Dx(), H: c.Dy()})
}

func (win *Window) repaint() {
	win.mu.Lock()
	w := win.w
	win.mu.Unlock()
	if w != nil {
		w.Send(paint.Event{})
	}
}

// dispatch applies in and performs the host follow-ups that depend on the
// new state: fullscreen resizing, image loads and message expiry repaints.
func (win *Window) dispatch(ctx context.Context, in viewer.Intent) {
	if !win.ctl.Dispatch(in) {
		return
	}
	snap := win.ctl.Snapshot()
	if snap.Fullscreen != win.fullscreen {
		win.fullscreen = snap.Fullscreen
		win.resize()
	}
	if at := snap.Message.At; !at.IsZero() && at != win.lastMsg {
		win.lastMsg = at
		time.AfterFunc(viewer.MessageTTL, win.repaint)
	}
	win.startLoads(ctx)
	win.repaint()
}

// startLoads fetches every image that has a URL but no bitmap yet.
func (win *Window) startLoads(ctx context.Context) {
	for _, im := range win.ctl.Snapshot().Images {
		if im.Status != viewer.StatusLoading || im.URL == "" || win.requested[im.ID] {
			continue
		}
		win.requested[im.ID] = true
		win.opts.Loader.LoadAsync(ctx, im.ID, im.URL, func(id string, img image.Image, err error) {
			win.Send(viewer.ImageLoaded{ID: id, Bitmap: img, Err: err})
		})
	}
}

func (win *Window) mouse(ctx context.Context, e mouse.Event) {
	p := image.Pt(int(e.X), int(e.Y))
	canvas := win.canvas()
	if !win.fullscreen && !p.In(canvas) {
		if win.inCanvas {
			win.inCanvas = false
			win.dispatch(ctx, viewer.PointerLeave{})
		}
		hover := hitButton(win.buttons, p)
		if hover != win.hover {
			win.hover = hover
			win.repaint()
		}
		if e.Direction == mouse.DirPress && e.Button == mouse.ButtonLeft && hover >= 0 {
			btn := win.buttons[hover]
			if btn.Command != CommandNone {
				win.run(ctx, btn.Command)
			} else if btn.Intent != nil {
				win.dispatch(ctx, btn.Intent)
			}
		}
		return
	}
	win.inCanvas = true
	if in, ok := translateMouse(e, canvas); ok {
		win.dispatch(ctx, in)
	}
}

func (win *Window) say(ctx context.Context, event notify.Event, text string) {
	win.dispatch(ctx, viewer.ShowMessage{Event: event, Text: text, Silent: true})
}

func (win *Window) run(ctx context.Context, cmd Command) {
	log := win.opts.Log
	switch cmd {
	case CommandCopy:
		frame := render.Frame(win.ctl.Snapshot(), render.Options{Theme: win.opts.Theme})
		if err := clipboard.WriteImage(frame); err != nil {
			log.Warn().Err(err).Msg("copy frame")
			win.dispatch(ctx, viewer.ShowMessage{Event: notify.EventRefused, Text: fmt.Sprintf("Clipboard unavailable: %v", err)})
			return
		}
		win.opts.Notifier.Copied("frame", frame)
		win.say(ctx, notify.EventCopied, "Copied frame to clipboard")
	case CommandCopyState:
		data, err := persist.Encode(persist.FromViewer(win.ctl.Snapshot()))
		if err == nil {
			err = clipboard.WriteText(string(data))
		}
		if err != nil {
			log.Warn().Err(err).Msg("copy state")
			win.dispatch(ctx, viewer.ShowMessage{Event: notify.EventRefused, Text: fmt.Sprintf("Could not copy study state: %v", err)})
			return
		}
		win.opts.Notifier.Copied("study state", nil)
		win.say(ctx, notify.EventCopied, "Copied study state to clipboard")
	case CommandSave:
		path, err := win.save()
		if err != nil {
			log.Warn().Err(err).Msg("save frame")
			win.dispatch(ctx, viewer.ShowMessage{Event: notify.EventRefused, Text: fmt.Sprintf("Could not save frame: %v", err)})
			return
		}
		win.opts.Notifier.Saved(path)
		win.say(ctx, notify.EventSaved, "Saved "+path)
	case CommandPaste:
		data, err := clipboard.ReadImage()
		if err != nil {
			win.dispatch(ctx, viewer.ShowMessage{Event: notify.EventSkipped, Text: "Clipboard has no image to paste"})
			return
		}
		name := fmt.Sprintf("pasted-%s.png", time.Now().Format("150405"))
		win.AddFiles(ctx, []upload.File{{Name: name, ContentType: "image/png", Data: data}})
	case CommandRemove:
		win.dispatch(ctx, viewer.DeleteImage{Index: win.ctl.Snapshot().Current})
	}
}

func (win *Window) save() (string, error) {
	frame := render.Frame(win.ctl.Snapshot(), render.Options{Theme: win.opts.Theme})
	if err := os.MkdirAll(win.opts.SaveDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(win.opts.SaveDir, fmt.Sprintf("radview-%s.png", time.Now().Format("20060102-150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := render.PNG(f, frame); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

// AddFiles filters files, adds placeholders for the supported ones and uploads
// them in the background. Must be called on the event loop.
func (win *Window) AddFiles(ctx context.Context, files []upload.File) {
	accepted, skipped := upload.Partition(files)
	if len(accepted) == 0 {
		win.dispatch(ctx, viewer.ShowMessage{Event: notify.EventSkipped, Text: "No supported image files to add"})
		return
	}
	if len(skipped) > 0 {
		win.dispatch(ctx, viewer.ShowMessage{Event: notify.EventSkipped, Text: "Skipped unsupported files: " + strings.Join(skipped, ", ")})
	}
	specs := make([]viewer.ImageSpec, len(accepted))
	for i, f := range accepted {
		specs[i] = viewer.ImageSpec{ID: viewer.NewImageID(), Name: f.Name}
	}
	win.dispatch(ctx, viewer.AddImages{Images: specs})
	up := win.opts.Uploader
	if up == nil {
		for _, s := range specs {
			win.dispatch(ctx, viewer.UploadFinished{ID: s.ID, Err: fmt.Errorf("no upload store configured")})
		}
		return
	}
	go upload.Each(ctx, up, accepted, func(i int, r upload.Result) {
		win.Send(viewer.UploadFinished{ID: specs[i].ID, URL: r.URL, Err: r.Err})
	})
}

func (win *Window) drawFrame(ctx context.Context, s screen.Screen, w screen.Window, face font.Face, st paintState) {
	if st.width <= 0 || st.height <= 0 {
		return
	}
	b, err := s.NewBuffer(image.Point{st.width, st.height})
	if err != nil {
		win.opts.Log.Error().Err(err).Msg("new buffer")
		return
	}
	defer b.Release()
	dst := b.RGBA()

	canvas := canvasRect(st.width, st.height, st.snap.Fullscreen)
	frame := render.Frame(st.snap, render.Options{Theme: win.opts.Theme, Now: time.Now()})
	if ctx.Err() != nil {
		return
	}
	if !st.snap.Fullscreen {
		drawChrome(dst, win.opts.Theme, face, st.snap, win.buttons, st.hover)
	}
	draw.Draw(dst, canvas, frame, image.Point{}, draw.Src)
	if ctx.Err() != nil {
		return
	}
	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}
