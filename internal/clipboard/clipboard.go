//go:build ((linux || freebsd || openbsd || netbsd || dragonfly || darwin) && cgo) || windows

// Package clipboard copies rendered frames and study state to the system
// clipboard and reads pasted images back.
package clipboard

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"runtime"
	"sync"

	"golang.design/x/clipboard"
)

var (
	initOnce     sync.Once
	initErr      error
	errNoDisplay = errors.New("clipboard requires DISPLAY or WAYLAND_DISPLAY")
)

func needsDisplay() bool {
	return runtime.GOOS != "windows" && runtime.GOOS != "darwin"
}

func ensureInit() error {
	initOnce.Do(func() {
		if needsDisplay() && os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
			initErr = errNoDisplay
			return
		}
		initErr = clipboard.Init()
	})
	return initErr
}

// WriteImage publishes img to the clipboard as PNG.
func WriteImage(img image.Image) error {
	if err := ensureInit(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode clipboard image: %w", err)
	}
	clipboard.Write(clipboard.FmtImage, buf.Bytes())
	return nil
}

// ReadImage returns the raw PNG bytes currently on the clipboard.
func ReadImage() ([]byte, error) {
	if err := ensureInit(); err != nil {
		return nil, err
	}
	data := clipboard.Read(clipboard.FmtImage)
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	return data, nil
}

// WriteText writes text to the clipboard.
func WriteText(text string) error {
	if err := ensureInit(); err != nil {
		return err
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
