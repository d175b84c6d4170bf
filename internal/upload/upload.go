// Package upload filters dropped or picked files down to viewable images and
// hands them to an Uploader, reporting a result per file.
package upload

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/example/radview/internal/imagesource"
)

// ErrNothingSupported is returned by Run when every file was filtered out.
var ErrNothingSupported = errors.New("no supported image files")

// File is one candidate for upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Uploader stores a file and returns the URL it can be loaded from.
type Uploader interface {
	Upload(ctx context.Context, f File) (string, error)
}

// UploaderFunc adapts a function to Uploader.
type UploaderFunc func(ctx context.Context, f File) (string, error)

func (fn UploaderFunc) Upload(ctx context.Context, f File) (string, error) { return fn(ctx, f) }

// Result is the outcome for one accepted file.
type Result struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
	Err  error  `json:"-"`
}

// Report collects per-file results in input order plus the skipped names.
type Report struct {
	Results []Result
	Skipped []string
}

// Failed returns the results that carry an error.
func (r Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Supported reports whether f looks like an image or DICOM file.
func Supported(f File) bool {
	ct := strings.ToLower(f.ContentType)
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}
	switch {
	case strings.HasPrefix(ct, "image/"), ct == "application/dicom":
		return true
	case strings.EqualFold(filepath.Ext(f.Name), ".dcm"):
		return true
	case imagesource.IsDICOM(f.Data), imagesource.IsWebP(f.Data):
		return true
	}
	if len(f.Data) == 0 {
		return false
	}
	return strings.HasPrefix(http.DetectContentType(f.Data), "image/")
}

// Partition splits files into supported ones and the names of the rest.
func Partition(files []File) (accepted []File, skipped []string) {
	for _, f := range files {
		if Supported(f) {
			accepted = append(accepted, f)
		} else {
			skipped = append(skipped, f.Name)
		}
	}
	return accepted, skipped
}

// Each uploads files concurrently and calls done once per file with its index.
// done may be called from several goroutines. Each returns after every upload
// has finished.
func Each(ctx context.Context, up Uploader, files []File, done func(i int, r Result)) {
	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		go func(i int, f File) {
			defer wg.Done()
			url, err := up.Upload(ctx, f)
			done(i, Result{Name: f.Name, URL: url, Err: err})
		}(i, f)
	}
	wg.Wait()
}

// Run filters files and uploads the supported ones. Per-file failures are
// reported in the Report, not as the returned error.
func Run(ctx context.Context, up Uploader, files []File) (Report, error) {
	accepted, skipped := Partition(files)
	rep := Report{Skipped: skipped}
	if len(accepted) == 0 {
		return rep, ErrNothingSupported
	}
	rep.Results = make([]Result, len(accepted))
	var mu sync.Mutex
	Each(ctx, up, accepted, func(i int, r Result) {
		mu.Lock()
		rep.Results[i] = r
		mu.Unlock()
	})
	return rep, nil
}
