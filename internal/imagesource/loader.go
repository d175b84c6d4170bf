package imagesource

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultMaxBytes bounds a single image download.
const DefaultMaxBytes = 512 << 20

// BlobPrefix marks references resolved through Loader.Resolve.
const BlobPrefix = "blob:"

// Resolver opens a blob reference such as "blob:<id>".
type Resolver func(ctx context.Context, id string) (io.ReadCloser, error)

// Loader fetches and decodes images.
type Loader struct {
	// Client is used for http(s) URLs. Requests carry no credentials.
	Client   *http.Client
	Resolve  Resolver
	MaxBytes int64
	Log      zerolog.Logger
}

// NewLoader returns a loader with a 30s HTTP timeout.
func NewLoader(log zerolog.Logger) *Loader {
	return &Loader{
		Client:   &http.Client{Timeout: 30 * time.Second},
		MaxBytes: DefaultMaxBytes,
		Log:      log,
	}
}

// Load fetches ref and decodes it. ref may be an http(s) URL, a file:// URL,
// a blob reference or a plain path.
func (l *Loader) Load(ctx context.Context, ref string) (image.Image, error) {
	rc, err := l.open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	limit := l.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s exceeds %d bytes", ref, limit)
	}
	img, format, err := Decode(data)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	l.Log.Debug().Str("ref", ref).Str("format", format).Int("width", b.Dx()).Int("height", b.Dy()).Msg("image decoded")
	return img, nil
}

func (l *Loader) open(ctx context.Context, ref string) (io.ReadCloser, error) {
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
		if err != nil {
			return nil, err
		}
		client := l.Client
		if client == nil {
			client = http.DefaultClient
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", ref, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch %s: %s", ref, resp.Status)
		}
		return resp.Body, nil
	case strings.HasPrefix(ref, BlobPrefix):
		if l.Resolve == nil {
			return nil, errors.New("no blob resolver configured")
		}
		return l.Resolve(ctx, strings.TrimPrefix(ref, BlobPrefix))
	case strings.HasPrefix(ref, "file://"):
		u, err := url.Parse(ref)
		if err != nil {
			return nil, err
		}
		return os.Open(u.Path)
	}
	return os.Open(ref)
}

// LoadAsync runs Load on its own goroutine and reports the outcome to done.
// In-flight loads are not cancelled by the viewer; ctx only bounds the fetch.
func (l *Loader) LoadAsync(ctx context.Context, id, ref string, done func(id string, img image.Image, err error)) {
	go func() {
		img, err := l.Load(ctx, ref)
		if err != nil {
			l.Log.Warn().Err(err).Str("image", id).Msg("load image")
		}
		done(id, img, err)
	}()
}
