package transform

import "github.com/example/radview/internal/geom"

// Partial carries the fields of a State to overwrite; nil fields are kept.
type Partial struct {
	Pan        *geom.Point
	Zoom       *float64
	Brightness *float64
	Contrast   *float64
	Invert     *bool
	Rotation   *int
	Flipped    *Flip
}

func (p Partial) apply(s State) State {
	if p.Pan != nil {
		s.Pan = *p.Pan
	}
	if p.Zoom != nil {
		s.Zoom = *p.Zoom
	}
	if p.Brightness != nil {
		s.Brightness = *p.Brightness
	}
	if p.Contrast != nil {
		s.Contrast = *p.Contrast
	}
	if p.Invert != nil {
		s.Invert = *p.Invert
	}
	if p.Rotation != nil {
		s.Rotation = *p.Rotation
	}
	if p.Flipped != nil {
		s.Flipped = *p.Flipped
	}
	return s.Normalize()
}

// Store keeps one State per viewport. Indices are clamped into range, so a
// stale index never panics.
type Store struct {
	states []State
}

// NewStore returns a store of n default states (at least one).
func NewStore(n int) *Store {
	s := &Store{}
	s.Resize(n)
	return s
}

// Resize discards all states and creates n defaults.
func (s *Store) Resize(n int) {
	if n < 1 {
		n = 1
	}
	s.states = make([]State, n)
	for i := range s.states {
		s.states[i] = Default()
	}
}

// Len returns the number of viewports.
func (s *Store) Len() int { return len(s.states) }

// Clamp maps i into [0, Len()).
func (s *Store) Clamp(i int) int {
	if i < 0 {
		return 0
	}
	if i >= len(s.states) {
		return len(s.states) - 1
	}
	return i
}

// Get returns the state of viewport i.
func (s *Store) Get(i int) State { return s.states[s.Clamp(i)] }

// Set merges p into viewport i.
func (s *Store) Set(i int, p Partial) State {
	i = s.Clamp(i)
	s.states[i] = p.apply(s.states[i])
	return s.states[i]
}

// Put replaces the state of viewport i.
func (s *Store) Put(i int, st State) {
	s.states[s.Clamp(i)] = st.Normalize()
}

// Update applies fn to viewport i and stores the normalized result.
func (s *Store) Update(i int, fn func(State) State) State {
	i = s.Clamp(i)
	s.states[i] = fn(s.states[i]).Normalize()
	return s.states[i]
}

// ResetAll restores the default transform on every viewport.
func (s *Store) ResetAll() {
	for i := range s.states {
		s.states[i] = Default()
	}
}

// All returns a copy of every state in viewport order.
func (s *Store) All() []State {
	out := make([]State, len(s.states))
	copy(out, s.states)
	return out
}
