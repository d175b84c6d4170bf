package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/example/radview/internal/persist"
	"github.com/example/radview/internal/upload"
)

const baseURL = "http://radview.test"

func newTestServer(t *testing.T) (*Server, *persist.MemoryStore) {
	t.Helper()
	store := persist.NewMemoryStore()
	blobs, err := upload.NewDiskStore(t.TempDir(), baseURL)
	if err != nil {
		t.Fatal(err)
	}
	return New(Options{Store: store, Blobs: blobs, Log: zerolog.Nop()}), store
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type part struct {
	name, contentType string
	data              []byte
}

func multipartRequest(t *testing.T, parts ...part) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, p := range parts {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="files"; filename="`+p.name+`"`)
		h.Set("Content-Type", p.contentType)
		w, err := mw.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		w.Write(p.data)
	}
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	return req
}

func TestHealthAndRequestID(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("healthz = %d %s", rec.Code, rec.Body)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("missing request id header")
	}
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc")
	if got := do(t, s, req).Header().Get(RequestIDHeader); got != "abc" {
		t.Fatalf("request id = %q", got)
	}
}

func TestStateRoundTrip(t *testing.T) {
	s, store := newTestServer(t)
	doc := `{"images":[{"annotations":[{"type":"rectangle","startX":1,"startY":2,"width":3,"height":4}],"viewboxSettings":{"panOffset":{"x":0,"y":0},"zoom":150,"brightness":100,"contrast":100,"invert":false,"rotation":90,"flipped":{"horizontal":false,"vertical":false}}}],"currentImageIndex":0,"activeViewboxIndex":0,"layout":"1x1"}`

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/studies/s1/state", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET before PUT = %d", rec.Code)
	}
	rec = do(t, s, httptest.NewRequest(http.MethodPut, "/api/studies/s1/state", strings.NewReader(doc)))
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT = %d %s", rec.Code, rec.Body)
	}
	stored, err := store.Load(context.Background(), "s1")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if len(stored.Images) != 1 || stored.Images[0].Settings.Zoom != 150 {
		t.Fatalf("stored = %+v", stored)
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/studies/s1/state", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET = %d", rec.Code)
	}
	got, err := persist.Decode(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Images[0].Settings.Rotation != 90 || len(got.Images[0].Annotations) != 1 {
		t.Fatalf("GET body = %+v", got)
	}

	rec = do(t, s, httptest.NewRequest(http.MethodDelete, "/api/studies/s1/state", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE = %d", rec.Code)
	}
	rec = do(t, s, httptest.NewRequest(http.MethodDelete, "/api/studies/s1/state", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second DELETE = %d", rec.Code)
	}
}

func TestStateRejectsBadInput(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/studies/..bad/state", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id = %d", rec.Code)
	}
	rec = do(t, s, httptest.NewRequest(http.MethodPut, "/api/studies/s1/state", strings.NewReader("{not json")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad body = %d", rec.Code)
	}
}

func TestUploadServeAndRender(t *testing.T) {
	s, _ := newTestServer(t)
	data := pngBytes(t)
	rec := do(t, s, multipartRequest(t,
		part{"scan.png", "image/png", data},
		part{"notes.txt", "text/plain", []byte("hello")},
	))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload = %d %s", rec.Code, rec.Body)
	}
	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Error != "" || len(resp.Skipped) != 1 || resp.Skipped[0] != "notes.txt" {
		t.Fatalf("response = %+v", resp)
	}
	blobURL := resp.Results[0].URL
	if !strings.HasPrefix(blobURL, baseURL+"/blobs/") {
		t.Fatalf("url = %q", blobURL)
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, strings.TrimPrefix(blobURL, baseURL), nil))
	if rec.Code != http.StatusOK || !bytes.Equal(rec.Body.Bytes(), data) {
		t.Fatalf("blob = %d, %d bytes", rec.Code, rec.Body.Len())
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "image/png" {
		t.Fatalf("blob content type = %q", ct)
	}

	q := url.Values{"src": {blobURL}, "width": {"320"}, "height": {"200"}}
	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/studies/s1/render.png?"+q.Encode(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("render = %d %s", rec.Code, rec.Body)
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("decode render: %v", err)
	}
	if img.Bounds().Dx() != 320 || img.Bounds().Dy() != 200 {
		t.Fatalf("render size = %v", img.Bounds())
	}
}

func TestUploadAllUnsupported(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, multipartRequest(t, part{"notes.txt", "text/plain", []byte("hello")}))
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("upload = %d %s", rec.Code, rec.Body)
	}
}

func TestBlobNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/blobs/6ba7b810-9dad-11d1-80b4-00c04fd430c8", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("blob = %d", rec.Code)
	}
}

func TestRenderRejectsSources(t *testing.T) {
	s, _ := newTestServer(t)
	for _, target := range []string{
		"/api/studies/s1/render.png",
		"/api/studies/s1/render.png?src=%2Fetc%2Fpasswd",
		"/api/studies/s1/render.png?src=file%3A%2F%2F%2Fetc%2Fpasswd",
		"/api/studies/s1/render.png?src=http%3A%2F%2Fx%2Fa.png&width=5",
	} {
		if rec := do(t, s, httptest.NewRequest(http.MethodGet, target, nil)); rec.Code != http.StatusBadRequest {
			t.Errorf("%s = %d", target, rec.Code)
		}
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	h := Recovery(zerolog.New(io.Discard))(func(echo.Context) error { panic("boom") })
	err := h(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusInternalServerError {
		t.Fatalf("err = %v", err)
	}
}
