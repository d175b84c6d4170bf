package render

import (
	"image"
	"image/draw"
	"math"

	"github.com/fogleman/gg"

	"github.com/example/radview/internal/annotation"
	"github.com/example/radview/internal/geom"
	"github.com/example/radview/internal/theme"
	"github.com/example/radview/internal/viewer"
)

const (
	strokeWidth = 2
	arrowHead   = 15
	labelSize   = 12
	handleSize  = 6
)

// overlays draws annotations in viewport-local pixels; the image transform
// does not apply to them.
func (f *frame) overlays(dc *gg.Context, rect geom.Rect, list annotation.List, selected int) {
	dc.Push()
	defer dc.Pop()
	dc.DrawRectangle(rect.X, rect.Y, rect.W, rect.H)
	dc.Clip()
	dc.Translate(rect.X, rect.Y)
	for _, a := range list {
		f.annotation(dc, a)
	}
	if selected >= 0 && selected < len(list) {
		f.handles(dc, list[selected])
	}
}

func (f *frame) annotation(dc *gg.Context, a annotation.Annotation) {
	dc.SetLineWidth(strokeWidth)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	dc.SetColor(f.th.Stroke)
	switch v := a.(type) {
	case annotation.Freehand:
		switch len(v.Points) {
		case 0:
		case 1:
			dc.DrawCircle(v.Points[0].X, v.Points[0].Y, strokeWidth/2)
			dc.Fill()
		default:
			dc.MoveTo(v.Points[0].X, v.Points[0].Y)
			for _, p := range v.Points[1:] {
				dc.LineTo(p.X, p.Y)
			}
			dc.Stroke()
		}
	case annotation.Circle:
		dc.DrawCircle(v.StartX, v.StartY, v.Radius)
		dc.Stroke()
		f.label(dc, a, v.StartX+v.Radius+5, v.StartY)
	case annotation.Rectangle:
		dc.DrawRectangle(v.StartX, v.StartY, v.Width, v.Height)
		dc.Stroke()
		f.label(dc, a, math.Min(v.StartX, v.StartX+v.Width), math.Min(v.StartY, v.StartY+v.Height)-labelSize-6)
	case annotation.Measure:
		dc.SetColor(f.th.MeasureStroke)
		dc.DrawLine(v.StartX, v.StartY, v.EndX, v.EndY)
		dc.Stroke()
		for _, p := range []geom.Point{geom.Pt(v.StartX, v.StartY), geom.Pt(v.EndX, v.EndY)} {
			dc.DrawCircle(p.X, p.Y, 3)
			dc.Fill()
		}
		f.label(dc, a, (v.StartX+v.EndX)/2+5, (v.StartY+v.EndY)/2-labelSize-6)
	case annotation.Arrow:
		dc.DrawLine(v.StartX, v.StartY, v.EndX, v.EndY)
		angle := math.Atan2(v.EndY-v.StartY, v.EndX-v.StartX)
		for _, side := range []float64{-math.Pi / 6, math.Pi / 6} {
			dc.MoveTo(v.EndX, v.EndY)
			dc.LineTo(v.EndX-arrowHead*math.Cos(angle+side), v.EndY-arrowHead*math.Sin(angle+side))
		}
		dc.Stroke()
	case annotation.Highlight:
		dc.SetColor(f.th.HighlightFill)
		dc.DrawRectangle(v.StartX, v.StartY, v.Width, v.Height)
		dc.Fill()
	case annotation.Text:
		f.text(dc, v)
	}
}

func (f *frame) text(dc *gg.Context, t annotation.Text) {
	if !f.setFace(dc, t.FontSize) {
		return
	}
	box := annotation.TextBox(t, f.measurer)
	if bg, err := theme.ParseColor(t.BackgroundColor); err == nil && bg.A > 0 {
		dc.SetColor(bg)
		dc.DrawRectangle(box.X, box.Y, box.W, box.H)
		dc.Fill()
	}
	fg, err := theme.ParseColor(t.Color)
	if err != nil {
		fg = f.th.Stroke
	}
	dc.SetColor(fg)
	dc.DrawString(t.Text, t.X, t.Y-t.FontSize*0.15)
}

// label draws the stats text for shapes that carry one, top-left at (x, y).
func (f *frame) label(dc *gg.Context, a annotation.Annotation, x, y float64) {
	text, ok := annotation.Label(a)
	if !ok || !f.setFace(dc, labelSize) {
		return
	}
	w, h := dc.MeasureString(text)
	const pad = 3
	dc.SetColor(f.th.LabelBackground)
	dc.DrawRectangle(x, y, w+2*pad, h+2*pad)
	dc.Fill()
	dc.SetColor(f.th.LabelText)
	dc.DrawStringAnchored(text, x+pad, y+pad, 0, 1)
}

func (f *frame) handles(dc *gg.Context, a annotation.Annotation) {
	dc.SetLineWidth(1)
	for _, p := range annotation.Handles(a, f.measurer) {
		x, y := p.X-handleSize/2, p.Y-handleSize/2
		dc.SetColor(f.th.Handle)
		dc.DrawRectangle(x, y, handleSize, handleSize)
		dc.Fill()
		dc.SetColor(f.th.ActiveBorder)
		dc.DrawRectangle(x, y, handleSize, handleSize)
		dc.Stroke()
	}
}

// prompt draws the pending text entry at its viewport-local anchor.
func (f *frame) prompt(dc *gg.Context, rect geom.Rect, p viewer.TextPrompt) {
	style := f.snap.TextStyle
	size := style.FontSize
	if size <= 0 {
		size = viewer.DefaultTextStyle().FontSize
	}
	if !f.setFace(dc, size) {
		return
	}
	text := p.Buffer + "|"
	placeholder := p.Buffer == ""
	if placeholder {
		text = "Type text, Enter to place"
	}
	w, _ := dc.MeasureString(text)
	const pad = 6
	x, y := rect.X+p.Anchor.X, rect.Y+p.Anchor.Y
	dc.Push()
	defer dc.Pop()
	dc.SetColor(f.th.MessageBackground)
	dc.DrawRectangle(x-pad, y-size-pad, w+2*pad, size+2*pad)
	dc.Fill()
	dc.SetDash(4, 3)
	dc.SetLineWidth(1)
	dc.SetColor(f.th.ActiveBorder)
	dc.DrawRectangle(x-pad, y-size-pad, w+2*pad, size+2*pad)
	dc.Stroke()
	fg, err := theme.ParseColor(style.Color)
	if err != nil || placeholder {
		fg = f.th.MessageText
	}
	dc.SetColor(fg)
	dc.DrawString(text, x, y-size*0.15)
}

// message draws the latest notice as a toast near the bottom of the frame.
func (f *frame) message(dc *gg.Context) {
	msg := f.snap.Message
	if msg.Text == "" {
		return
	}
	if !f.opts.Now.IsZero() && !msg.Visible(f.opts.Now) {
		return
	}
	card := f.toast(msg)
	if card == nil {
		return
	}
	opts := f.opts.Shadow
	if opts == (ShadowOptions{}) {
		opts = DefaultShadowOptions()
		opts.Color = f.th.Shadow
	}
	res := applyShadow(card, opts)
	dst, ok := dc.Image().(*image.RGBA)
	if !ok {
		return
	}
	b := dst.Bounds()
	cw := card.Bounds().Dx()
	ch := card.Bounds().Dy()
	at := image.Pt(b.Min.X+(b.Dx()-cw)/2, b.Max.Y-ch-24).Sub(res.Offset)
	draw.Draw(dst, res.Image.Bounds().Add(at), res.Image, image.Point{}, draw.Over)
}

func (f *frame) toast(msg viewer.Message) *image.RGBA {
	face := f.face(14)
	if face == nil {
		return nil
	}
	measure := gg.NewContext(1, 1)
	measure.SetFontFace(face)
	tw, th := measure.MeasureString(msg.Text)
	const pad = 12
	w, h := int(math.Ceil(tw))+2*pad, int(math.Ceil(th))+2*pad
	card := image.NewRGBA(image.Rect(0, 0, w, h))
	dc := gg.NewContextForRGBA(card)
	dc.SetColor(f.th.MessageBackground)
	dc.DrawRoundedRectangle(0, 0, float64(w), float64(h), 6)
	dc.Fill()
	if msg.Event.Failure() {
		dc.SetColor(f.th.Stroke)
		dc.DrawRectangle(0, 3, 3, float64(h)-6)
		dc.Fill()
	}
	dc.SetFontFace(face)
	dc.SetColor(f.th.MessageText)
	dc.DrawStringAnchored(msg.Text, float64(w)/2, float64(h)/2, 0.5, 0.35)
	return card
}
