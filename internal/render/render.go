// Package render paints a viewer snapshot into an RGBA frame: per-viewport
// image transforms and filters, annotation overlays on the active viewport,
// the pending text prompt and the latest message toast.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/example/radview/internal/annotation"
	"github.com/example/radview/internal/fonts"
	"github.com/example/radview/internal/geom"
	"github.com/example/radview/internal/theme"
	"github.com/example/radview/internal/transform"
	"github.com/example/radview/internal/viewer"
)

// Options control a single Frame call.
type Options struct {
	Theme    *theme.Theme
	Measurer annotation.Measurer
	// Now decides whether the snapshot's message is still visible. The zero
	// value draws any non-empty message.
	Now time.Time
	// Shadow styles the message toast. A zero value uses DefaultShadowOptions
	// tinted with the theme's shadow colour.
	Shadow ShadowOptions
}

type filterKey struct {
	brightness, contrast float64
	invert               bool
}

type frame struct {
	snap     viewer.Snapshot
	th       *theme.Theme
	measurer annotation.Measurer
	opts     Options
	faces    map[float64]font.Face
	filtered map[filterKey]image.Image
}

// Frame renders snap at snap.Width × snap.Height.
func Frame(snap viewer.Snapshot, opts Options) *image.RGBA {
	w, h := snap.Width, snap.Height
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	Into(out, snap, opts)
	return out
}

// Into renders snap onto dst, whose origin must be zero.
func Into(dst *image.RGBA, snap viewer.Snapshot, opts Options) {
	f := &frame{
		snap:     snap,
		th:       opts.Theme,
		measurer: opts.Measurer,
		opts:     opts,
		faces:    map[float64]font.Face{},
		filtered: map[filterKey]image.Image{},
	}
	if f.th == nil {
		f.th = theme.Default()
	}
	if f.measurer == nil {
		f.measurer = fonts.Measurer{}
	}
	dc := gg.NewContextForRGBA(dst)
	dc.SetColor(f.th.Background)
	dc.Clear()

	cur, hasImage := snap.CurrentImage()
	for i, rect := range snap.Viewports {
		st := transform.Default()
		if i < len(snap.Transforms) {
			st = snap.Transforms[i]
		}
		f.viewport(dc, rect, st, cur, hasImage)
	}
	if snap.Active >= 0 && snap.Active < len(snap.Viewports) {
		rect := snap.Viewports[snap.Active]
		f.border(dc, rect)
		if hasImage {
			f.overlays(dc, rect, cur.Annotations, snap.Selected)
		}
		if snap.Prompt != nil {
			f.prompt(dc, rect, *snap.Prompt)
		}
	}
	f.message(dc)
}

// face returns an unshared face so concurrent frames never race on glyph caches.
func (f *frame) face(size float64) font.Face {
	if face, ok := f.faces[size]; ok {
		return face
	}
	face, err := fonts.NewFace(size)
	if err != nil {
		return nil
	}
	f.faces[size] = face
	return face
}

func (f *frame) setFace(dc *gg.Context, size float64) bool {
	face := f.face(size)
	if face == nil {
		return false
	}
	dc.SetFontFace(face)
	return true
}

func (f *frame) viewport(dc *gg.Context, rect geom.Rect, st transform.State, cur viewer.Image, hasImage bool) {
	dc.Push()
	defer dc.Pop()
	dc.DrawRectangle(rect.X, rect.Y, rect.W, rect.H)
	dc.Clip()
	dc.SetColor(f.th.ViewportBackground)
	dc.DrawRectangle(rect.X, rect.Y, rect.W, rect.H)
	dc.Fill()

	if !hasImage {
		f.card(dc, rect, "Drop or open images to begin", f.th.Foreground)
		return
	}
	switch {
	case cur.Status == viewer.StatusFailed:
		f.card(dc, rect, "Failed to load "+displayName(cur), f.th.Stroke)
		return
	case cur.Uploading:
		f.card(dc, rect, "Uploading "+displayName(cur)+"…", f.th.Foreground)
		return
	case cur.Status != viewer.StatusReady || cur.Bitmap == nil:
		f.card(dc, rect, "Loading "+displayName(cur)+"…", f.th.Foreground)
		return
	}

	src := f.filter(cur.Bitmap, st)
	b := src.Bounds()
	if b.Empty() {
		return
	}
	fit := math.Min(rect.W/float64(b.Dx()), rect.H/float64(b.Dy()))
	c := rect.Center()
	dc.Translate(c.X, c.Y)
	dc.Rotate(gg.Radians(float64(st.Rotation)))
	sx, sy := 1.0, 1.0
	if st.Flipped.Horizontal {
		sx = -1
	}
	if st.Flipped.Vertical {
		sy = -1
	}
	dc.Scale(sx, sy)
	dc.Translate(st.Pan.X, st.Pan.Y)
	s := fit * st.Scale()
	dc.Scale(s, s)
	dc.DrawImageAnchored(src, 0, 0, 0.5, 0.5)
}

func displayName(im viewer.Image) string {
	if im.Name != "" {
		return im.Name
	}
	if im.URL != "" {
		return im.URL
	}
	return "image"
}

// border outlines the active viewport. Other viewports are not outlined.
func (f *frame) border(dc *gg.Context, rect geom.Rect) {
	dc.Push()
	defer dc.Pop()
	dc.SetColor(f.th.ActiveBorder)
	dc.SetLineWidth(2)
	dc.DrawRectangle(rect.X+1, rect.Y+1, rect.W-2, rect.H-2)
	dc.Stroke()
}

// card draws a centred notice box inside rect.
func (f *frame) card(dc *gg.Context, rect geom.Rect, text string, fg color.Color) {
	if !f.setFace(dc, 14) {
		return
	}
	tw, th := dc.MeasureString(text)
	const pad = 12
	w, h := tw+2*pad, th+2*pad
	c := rect.Center()
	dc.SetColor(f.th.MessageBackground)
	dc.DrawRoundedRectangle(c.X-w/2, c.Y-h/2, w, h, 6)
	dc.Fill()
	dc.SetColor(fg)
	dc.DrawStringAnchored(text, c.X, c.Y, 0.5, 0.35)
}

func (f *frame) filter(img image.Image, st transform.State) image.Image {
	key := filterKey{st.Brightness, st.Contrast, st.Invert}
	if out, ok := f.filtered[key]; ok {
		return out
	}
	out := Filter(img, st)
	f.filtered[key] = out
	return out
}

// Filter applies brightness, then contrast, then inversion the way CSS
// filter functions compose. Default settings return img unchanged.
func Filter(img image.Image, st transform.State) image.Image {
	if st.Brightness == transform.DefaultLevel && st.Contrast == transform.DefaultLevel && !st.Invert {
		return img
	}
	var out *image.NRGBA
	if st.Brightness != transform.DefaultLevel || st.Contrast != transform.DefaultLevel {
		b, c := st.BrightnessFactor(), st.ContrastFactor()
		out = imaging.AdjustFunc(img, func(px color.NRGBA) color.NRGBA {
			px.R = adjust(px.R, b, c)
			px.G = adjust(px.G, b, c)
			px.B = adjust(px.B, b, c)
			return px
		})
	}
	if st.Invert {
		if out == nil {
			return imaging.Invert(img)
		}
		return imaging.Invert(out)
	}
	return out
}

func adjust(v uint8, brightness, contrast float64) uint8 {
	f := clamp01(float64(v) / 255 * brightness)
	f = clamp01((f-0.5)*contrast + 0.5)
	return uint8(f*255 + 0.5)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// PNG encodes img.
func PNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
