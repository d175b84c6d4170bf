package annotation

import (
	"encoding/json"
	"fmt"

	"github.com/example/radview/internal/geom"
)

// List is the ordered annotation stack of one image. Later entries are drawn
// above earlier ones.
type List []Annotation

// Append adds a on top and returns its index.
func (l *List) Append(a Annotation) int {
	*l = append(*l, a)
	return len(*l) - 1
}

// Last returns the top annotation, if any.
func (l List) Last() (Annotation, bool) {
	if len(l) == 0 {
		return nil, false
	}
	return l[len(l)-1], true
}

// UpdateLast replaces the top annotation with fn's result. It reports false
// on an empty list.
func (l List) UpdateLast(fn func(Annotation) Annotation) bool {
	if len(l) == 0 {
		return false
	}
	l[len(l)-1] = fn(l[len(l)-1])
	return true
}

// Translate moves annotation i by (dx, dy).
func (l List) Translate(i int, dx, dy float64) bool {
	if i < 0 || i >= len(l) {
		return false
	}
	l[i] = l[i].Translate(dx, dy)
	return true
}

// Delete removes annotation i.
func (l *List) Delete(i int) bool {
	if i < 0 || i >= len(*l) {
		return false
	}
	*l = append((*l)[:i:i], (*l)[i+1:]...)
	return true
}

// Clear empties the list.
func (l *List) Clear() { *l = nil }

// Pop removes the top annotation.
func (l *List) Pop() (Annotation, bool) {
	a, ok := l.Last()
	if ok {
		*l = (*l)[:len(*l)-1]
	}
	return a, ok
}

// FindAt returns the index of the topmost annotation picked by p, or -1.
func (l List) FindAt(p geom.Point, m Measurer) int {
	for i := len(l) - 1; i >= 0; i-- {
		if Hit(l[i], p, m) {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	for i, a := range l {
		out[i] = Clone(a)
	}
	return out
}

// MarshalJSON writes the list as an array of tagged objects.
func (l List) MarshalJSON() ([]byte, error) {
	raw := make([]json.RawMessage, 0, len(l))
	for i, a := range l {
		b, err := Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
		raw = append(raw, b)
	}
	return json.Marshal(raw)
}

// UnmarshalJSON reads an array of tagged objects.
func (l *List) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(List, 0, len(raw))
	for i, r := range raw {
		a, err := Unmarshal(r)
		if err != nil {
			return fmt.Errorf("annotation %d: %w", i, err)
		}
		out = append(out, a)
	}
	*l = out
	return nil
}
