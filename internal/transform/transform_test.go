package transform

import (
	"math/rand"
	"testing"

	"github.com/example/radview/internal/geom"
)

func TestZoomClamping(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	s := Default()
	for i := 0; i < 500; i++ {
		prev := s.Zoom
		if r.Intn(2) == 0 {
			s = s.ZoomIn()
		} else {
			s = s.ZoomOut()
		}
		if s.Zoom < MinZoom || s.Zoom > MaxZoom {
			t.Fatalf("zoom %v out of bounds", s.Zoom)
		}
		diff := s.Zoom - prev
		if diff < 0 {
			diff = -diff
		}
		if diff != ZoomStep && !(diff == 0 && (prev == MinZoom || prev == MaxZoom)) {
			t.Fatalf("step from %v to %v", prev, s.Zoom)
		}
	}
}

func TestZoomBounds(t *testing.T) {
	s := Default()
	for i := 0; i < 100; i++ {
		s = s.ZoomOut()
	}
	if s.Zoom != MinZoom {
		t.Fatalf("zoom = %v, want %v", s.Zoom, MinZoom)
	}
	for i := 0; i < 100; i++ {
		s = s.ZoomIn()
	}
	if s.Zoom != MaxZoom {
		t.Fatalf("zoom = %v, want %v", s.Zoom, MaxZoom)
	}
}

func TestRotationWraps(t *testing.T) {
	s := Default()
	for i := 0; i < 4; i++ {
		s = s.RotateCW()
	}
	if s.Rotation != 0 {
		t.Fatalf("rotation after 4 CW = %d", s.Rotation)
	}
	if got := Default().RotateCCW().Rotation; got != 270 {
		t.Fatalf("CCW from 0 = %d, want 270", got)
	}
}

func TestNormalize(t *testing.T) {
	s := State{Zoom: 1000, Brightness: -20, Contrast: 900, Rotation: -450}.Normalize()
	if s.Zoom != MaxZoom || s.Brightness != MinLevel || s.Contrast != MaxLevel || s.Rotation != 270 {
		t.Fatalf("unexpected normalized state %+v", s)
	}
}

func TestFactors(t *testing.T) {
	s := Default()
	s.Brightness = 150
	s.Contrast = 80
	if s.BrightnessFactor() != 1.5 {
		t.Errorf("brightness factor = %v", s.BrightnessFactor())
	}
	if s.ContrastFactor() != 0.8 {
		t.Errorf("contrast factor = %v", s.ContrastFactor())
	}
}

func TestStoreSetAndReset(t *testing.T) {
	st := NewStore(4)
	z := 250.0
	pan := geom.Pt(3, 4)
	st.Set(2, Partial{Zoom: &z, Pan: &pan})
	if got := st.Get(2); got.Zoom != 250 || got.Pan != pan {
		t.Fatalf("Get(2) = %+v", got)
	}
	if st.Get(0).Zoom != DefaultZoom {
		t.Fatalf("other viewport changed")
	}
	if got := st.Get(99); got != st.Get(3) {
		t.Fatalf("out of range index not clamped")
	}
	st.ResetAll()
	for i, s := range st.All() {
		if !s.IsDefault() {
			t.Fatalf("viewport %d not reset: %+v", i, s)
		}
	}
}
