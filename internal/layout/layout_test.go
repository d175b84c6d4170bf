package layout

import (
	"errors"
	"testing"
)

func TestTileCoversCanvas(t *testing.T) {
	tests := []struct {
		layout Layout
		want   int
	}{
		{Single, 1},
		{Split, 2},
		{Grid, 4},
	}
	for _, tt := range tests {
		rects := Tile(tt.layout, 801, 601)
		if len(rects) != tt.want {
			t.Fatalf("%s: got %d rects, want %d", tt.layout, len(rects), tt.want)
		}
		area := 0.0
		for _, r := range rects {
			area += r.W * r.H
		}
		if area != 801*601 {
			t.Errorf("%s: rects cover %v, want %v", tt.layout, area, 801*601)
		}
	}
}

func TestTileSplitIsSideBySide(t *testing.T) {
	rects := Tile(Split, 800, 600)
	if rects[0].X != 0 || rects[1].X != 400 || rects[1].Y != 0 || rects[1].H != 600 {
		t.Fatalf("unexpected split rects %+v", rects)
	}
}

func TestLocate(t *testing.T) {
	rects := Tile(Grid, 800, 600)
	tests := []struct {
		x, y float64
		want int
	}{
		{10, 10, 0},
		{790, 10, 1},
		{10, 590, 2},
		{790, 590, 3},
		{400, 300, 0},
		{800, 600, 3},
		{0, 0, 0},
		{-1, 10, -1},
		{801, 10, -1},
	}
	for _, tt := range tests {
		if got := Locate(rects, tt.x, tt.y); got != tt.want {
			t.Errorf("Locate(%v,%v) = %d, want %d", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestLocateOddSizedCanvas(t *testing.T) {
	rects := Tile(Split, 801, 3)
	for x := 0.5; x < 801; x += 0.5 {
		if Locate(rects, x, 1.5) == -1 {
			t.Fatalf("point (%v,1.5) did not resolve", x)
		}
	}
}

func TestParse(t *testing.T) {
	if l, err := Parse(" 2X2 "); err != nil || l != Grid {
		t.Fatalf("Parse = %q, %v", l, err)
	}
	if _, err := Parse("3x3"); !errors.Is(err, ErrUnknownLayout) {
		t.Fatalf("expected ErrUnknownLayout, got %v", err)
	}
}

func TestCountUnknownLayout(t *testing.T) {
	for _, l := range []Layout{"", "3x3", "2x1"} {
		if n := l.Count(); n != 0 {
			t.Errorf("Layout(%q).Count() = %d, want 0", l, n)
		}
	}
	for _, l := range All() {
		if l.Count() == 0 {
			t.Errorf("Layout(%q).Count() = 0", l)
		}
	}
}
