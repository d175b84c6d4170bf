package annotation

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/example/radview/internal/geom"
)

// fixedWidth measures every rune as half the font size.
type fixedWidth struct{}

func (fixedWidth) Width(text string, size float64) float64 {
	return float64(len([]rune(text))) * size / 2
}

func TestFindAtPrefersTopmost(t *testing.T) {
	var l List
	l.Append(Rectangle{StartX: 0, StartY: 0, Width: 100, Height: 100})
	l.Append(Rectangle{StartX: 50, StartY: 50, Width: 100, Height: 100})
	// (100, 50) lies on A's right edge and B's top edge.
	if got := l.FindAt(geom.Pt(100, 50), nil); got != 1 {
		t.Fatalf("FindAt = %d, want 1", got)
	}
	if got := l.FindAt(geom.Pt(0, 50), nil); got != 0 {
		t.Fatalf("FindAt = %d, want 0", got)
	}
	if got := l.FindAt(geom.Pt(25, 25), nil); got != -1 {
		t.Fatalf("interior point picked %d", got)
	}
}

func TestHitRules(t *testing.T) {
	tests := []struct {
		name string
		a    Annotation
		p    geom.Point
		want bool
	}{
		{"freehand near segment", Freehand{Points: []geom.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}}, geom.Pt(5, 4), true},
		{"freehand far", Freehand{Points: []geom.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}}, geom.Pt(5, 7), false},
		{"freehand single point", Freehand{Points: []geom.Point{{X: 3, Y: 3}}}, geom.Pt(6, 6), true},
		{"circle rim", Circle{StartX: 50, StartY: 50, Radius: 20}, geom.Pt(73, 50), true},
		{"circle centre", Circle{StartX: 50, StartY: 50, Radius: 20}, geom.Pt(50, 50), false},
		{"negative rectangle edge", Rectangle{StartX: 100, StartY: 100, Width: -50, Height: -50}, geom.Pt(52, 75), true},
		{"rectangle beyond extent", Rectangle{StartX: 0, StartY: 0, Width: 10, Height: 10}, geom.Pt(10, 30), false},
		{"highlight border", Highlight{StartX: 0, StartY: 0, Width: 40, Height: 20}, geom.Pt(20, 22), true},
		{"measure segment", Measure{StartX: 0, StartY: 0, EndX: 30, EndY: 40}, geom.Pt(15, 20), true},
		{"arrow past end", Arrow{StartX: 0, StartY: 0, EndX: 10, EndY: 0}, geom.Pt(20, 0), false},
		{"text inside", Text{X: 10, Y: 30, Text: "abcd", FontSize: 20}, geom.Pt(20, 20), true},
		{"text below baseline", Text{X: 10, Y: 30, Text: "abcd", FontSize: 20}, geom.Pt(20, 35), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Hit(tt.a, tt.p, fixedWidth{}); got != tt.want {
				t.Fatalf("Hit = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTranslateFreehand(t *testing.T) {
	var l List
	orig := []geom.Point{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 6}, {X: 7, Y: 8}}
	l.Append(Freehand{Points: append([]geom.Point(nil), orig...)})
	l.Translate(0, 10, -3)
	got := l[0].(Freehand).Points
	if len(got) != len(orig) {
		t.Fatalf("point count %d, want %d", len(got), len(orig))
	}
	for i, p := range got {
		if p.X != orig[i].X+10 || p.Y != orig[i].Y-3 {
			t.Fatalf("point %d = %+v", i, p)
		}
	}
}

func TestExtend(t *testing.T) {
	a, err := New(KindRectangle, geom.Pt(50, 50))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a = Extend(a, geom.Pt(150, 120))
	want := Rectangle{StartX: 50, StartY: 50, Width: 100, Height: 70}
	if a != want {
		t.Fatalf("got %+v, want %+v", a, want)
	}
	c, _ := New(KindCircle, geom.Pt(0, 0))
	if r := Extend(c, geom.Pt(3, 4)).(Circle).Radius; r != 5 {
		t.Fatalf("radius = %v", r)
	}
	f, _ := New(KindFreehand, geom.Pt(0, 0))
	f = Extend(Extend(f, geom.Pt(1, 1)), geom.Pt(2, 2))
	if n := len(f.(Freehand).Points); n != 3 {
		t.Fatalf("freehand has %d points", n)
	}
	if _, err := New(KindText, geom.Pt(0, 0)); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("New(text) err = %v", err)
	}
}

func TestLabels(t *testing.T) {
	tests := []struct {
		a    Annotation
		want string
	}{
		{Measure{EndX: 30, EndY: 40}, "50px"},
		{Circle{Radius: 12.4}, "r: 12px"},
		{Rectangle{Width: -100, Height: 70}, "100×70px"},
	}
	for _, tt := range tests {
		got, ok := Label(tt.a)
		if !ok || got != tt.want {
			t.Errorf("Label(%+v) = %q, %v; want %q", tt.a, got, ok, tt.want)
		}
	}
	if _, ok := Label(Arrow{}); ok {
		t.Errorf("arrow should have no label")
	}
}

func TestHandles(t *testing.T) {
	h := Handles(Circle{StartX: 0, StartY: 0, Radius: 10}, nil)
	if len(h) != 2 || h[0] != (geom.Point{}) {
		t.Fatalf("circle handles %+v", h)
	}
	if d := geom.Distance(h[0], h[1]); d < 9.99 || d > 10.01 {
		t.Fatalf("radius handle at distance %v", d)
	}
	if n := len(Handles(Rectangle{Width: 5, Height: 5}, nil)); n != 4 {
		t.Fatalf("rectangle handles = %d", n)
	}
}

func TestListOperations(t *testing.T) {
	var l List
	for i := 0; i < 5; i++ {
		l.Append(Measure{StartX: float64(i * 20), EndX: float64(i*20 + 10)})
	}
	if !l.Delete(2) || len(l) != 4 {
		t.Fatalf("delete failed, len=%d", len(l))
	}
	if l[2].(Measure).StartX != 60 {
		t.Fatalf("wrong element removed: %+v", l)
	}
	if l.Delete(9) {
		t.Fatalf("out of range delete succeeded")
	}
	if _, ok := l.Pop(); !ok || len(l) != 3 {
		t.Fatalf("pop failed")
	}
	l.Clear()
	if len(l) != 0 {
		t.Fatalf("clear left %d", len(l))
	}
	if _, ok := l.Pop(); ok {
		t.Fatalf("pop on empty list succeeded")
	}
}

func TestListJSON(t *testing.T) {
	l := List{
		Freehand{Points: []geom.Point{{X: 1, Y: 2}, {X: 3, Y: 4}}},
		Circle{StartX: 1, StartY: 2, Radius: 3},
		Rectangle{StartX: 1, StartY: 2, Width: -3, Height: 4},
		Measure{EndX: 30, EndY: 40},
		Arrow{StartX: 5, EndX: 6},
		Highlight{Width: 9, Height: 9},
		Text{X: 1, Y: 2, Text: "note", FontSize: 16, Color: "#ffff00", BackgroundColor: "rgba(0,0,0,0.5)"},
	}
	data, err := json.Marshal(l)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var objs []map[string]any
	if err := json.Unmarshal(data, &objs); err != nil {
		t.Fatalf("raw decode: %v", err)
	}
	if objs[2]["type"] != "rectangle" || objs[2]["width"] != -3.0 {
		t.Fatalf("unexpected rectangle encoding %v", objs[2])
	}
	var back List
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(back, l) {
		t.Fatalf("round trip mismatch:\n%#v\n%#v", back, l)
	}
}

func TestUnmarshalUnknownKind(t *testing.T) {
	var l List
	err := json.Unmarshal([]byte(`[{"type":"polygon"}]`), &l)
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("err = %v", err)
	}
}
