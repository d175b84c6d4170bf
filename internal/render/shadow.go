package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
)

// ShadowOptions configures the drop shadow behind message cards.
type ShadowOptions struct {
	Radius  int
	Offset  image.Point
	Opacity float64
	Color   color.RGBA
}

// ShadowResult captures the output of ApplyShadow.
type ShadowResult struct {
	// Image is the card composited over its blurred shadow.
	Image *image.RGBA
	// Offset is where the card's top-left corner ended up inside Image.
	Offset image.Point
}

// DefaultShadowOptions returns the soft shadow used for toasts.
func DefaultShadowOptions() ShadowOptions {
	return ShadowOptions{
		Radius:  8,
		Offset:  image.Pt(0, 4),
		Opacity: 0.6,
		Color:   color.RGBA{A: 255},
	}
}

// ApplyShadow composites img over a blurred silhouette of itself. The result
// has a zero origin.
func ApplyShadow(img *image.RGBA, opts ShadowOptions) *image.RGBA {
	return applyShadow(img, opts).Image
}

func applyShadow(img *image.RGBA, opts ShadowOptions) ShadowResult {
	if img == nil {
		return ShadowResult{}
	}
	if img.Bounds().Empty() || opts.Opacity <= 0 {
		return ShadowResult{Image: img}
	}
	opacity := opts.Opacity
	if opacity > 1 {
		opacity = 1
	}
	radius := opts.Radius
	if radius < 0 {
		radius = 0
	}
	shade := opts.Color
	if shade == (color.RGBA{}) {
		shade = color.RGBA{A: 255}
	}

	src := img.Bounds()
	padded := src.Inset(-radius)
	shadowBounds := padded.Add(opts.Offset)
	composite := src.Union(shadowBounds)
	if composite.Dx() <= 0 || composite.Dy() <= 0 {
		return ShadowResult{Image: img}
	}

	mask := image.NewNRGBA(padded.Sub(padded.Min))
	for y := src.Min.Y; y < src.Max.Y; y++ {
		for x := src.Min.X; x < src.Max.X; x++ {
			a := img.RGBAAt(x, y).A
			if a == 0 {
				continue
			}
			alpha := uint8(uint16(a) * uint16(shade.A) / 255)
			mask.SetNRGBA(x-padded.Min.X, y-padded.Min.Y, color.NRGBA{shade.R, shade.G, shade.B, alpha})
		}
	}
	var blurred image.Image = mask
	if radius > 0 {
		blurred = imaging.Blur(mask, float64(radius)/2)
	}

	canvas := imaging.New(composite.Dx(), composite.Dy(), color.NRGBA{})
	canvas = imaging.Overlay(canvas, blurred, shadowBounds.Min.Sub(composite.Min), opacity)
	canvas = imaging.Overlay(canvas, img, src.Min.Sub(composite.Min), 1)

	out := image.NewRGBA(canvas.Bounds())
	draw.Draw(out, out.Bounds(), canvas, image.Point{}, draw.Src)
	return ShadowResult{Image: out, Offset: src.Min.Sub(composite.Min)}
}
