// Package imagesource fetches study images from URLs, files or uploaded
// blobs and decodes them, including DICOM and WebP.
package imagesource

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/chai2010/webp"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// ErrUnsupported is returned for data no decoder recognises.
var ErrUnsupported = errors.New("unsupported image format")

// IsDICOM reports whether data carries the Part 10 preamble and DICM marker.
func IsDICOM(data []byte) bool {
	return len(data) >= 132 && string(data[128:132]) == "DICM"
}

// IsWebP reports whether data is a RIFF WEBP container.
func IsWebP(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP"
}

// Decode returns the first frame of data and the detected format name.
func Decode(data []byte) (image.Image, string, error) {
	switch {
	case IsDICOM(data):
		img, err := decodeDICOM(data)
		return img, "dicom", err
	case IsWebP(data):
		img, err := webp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, "webp", fmt.Errorf("decode webp: %w", err)
		}
		return img, "webp", nil
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, "", ErrUnsupported
		}
		return nil, format, fmt.Errorf("decode %s: %w", format, err)
	}
	return img, format, nil
}

func decodeDICOM(data []byte) (img image.Image, err error) {
	// The parser panics on some malformed pixel data.
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("decode dicom: %v", r)
		}
	}()
	ds, err := dicom.Parse(bytes.NewReader(data), int64(len(data)), nil)
	if err != nil {
		return nil, fmt.Errorf("parse dicom: %w", err)
	}
	el, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, fmt.Errorf("dicom pixel data: %w", err)
	}
	info := dicom.MustGetPixelDataInfo(el.Value)
	if len(info.Frames) == 0 {
		return nil, errors.New("dicom has no frames")
	}
	frame, err := info.Frames[0].GetImage()
	if err != nil {
		return nil, fmt.Errorf("dicom frame: %w", err)
	}
	return autoWindow(frame), nil
}

// autoWindow stretches 16-bit grey frames to the full 8-bit range. Most CT
// and MR data only occupies the low 12 bits and would otherwise render black.
func autoWindow(img image.Image) image.Image {
	g16, ok := img.(*image.Gray16)
	if !ok {
		return img
	}
	b := g16.Bounds()
	lo, hi := uint16(0xffff), uint16(0)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := g16.Gray16At(x, y).Y
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	out := image.NewGray(b)
	span := float64(hi) - float64(lo)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := 0.0
			if span > 0 {
				v = (float64(g16.Gray16At(x, y).Y) - float64(lo)) / span * 255
			}
			out.SetGray(x, y, color.Gray{Y: uint8(v + 0.5)})
		}
	}
	return out
}
