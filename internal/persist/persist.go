// Package persist saves and restores viewer state per study. The wire shape
// is {images:[{annotations, viewboxSettings}], currentImageIndex,
// activeViewboxIndex, layout}; bitmaps and URLs are never stored.
package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/example/radview/internal/annotation"
	"github.com/example/radview/internal/layout"
	"github.com/example/radview/internal/transform"
	"github.com/example/radview/internal/viewer"
)

var (
	// ErrNotFound is returned when no state exists for a study.
	ErrNotFound = errors.New("study state not found")
	// ErrInvalidStudyID is returned for ids that cannot name a record.
	ErrInvalidStudyID = errors.New("invalid study id")
)

var studyIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidStudyID reports an error for ids unsafe to use as keys or filenames.
func ValidStudyID(id string) error {
	if !studyIDPattern.MatchString(id) {
		return fmt.Errorf("%q: %w", id, ErrInvalidStudyID)
	}
	return nil
}

// Store persists snapshots keyed by study id. Implementations are safe for
// concurrent use.
type Store interface {
	Load(ctx context.Context, studyID string) (*Snapshot, error)
	Save(ctx context.Context, studyID string, snap *Snapshot) error
	Delete(ctx context.Context, studyID string) error
}

// ImageState is the persisted part of one image.
type ImageState struct {
	Annotations annotation.List `json:"annotations"`
	Settings    transform.State `json:"viewboxSettings"`
}

// UnmarshalJSON fills in default settings when viewboxSettings is absent.
func (s *ImageState) UnmarshalJSON(data []byte) error {
	type wire ImageState
	w := wire{Settings: transform.Default()}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	w.Settings = w.Settings.Normalize()
	if w.Annotations == nil {
		w.Annotations = annotation.List{}
	}
	*s = ImageState(w)
	return nil
}

// Snapshot is the stored form of a viewer session.
type Snapshot struct {
	Images             []ImageState  `json:"images"`
	CurrentImageIndex  int           `json:"currentImageIndex"`
	ActiveViewboxIndex int           `json:"activeViewboxIndex"`
	Layout             layout.Layout `json:"layout"`
}

// FromViewer extracts the persisted fields of a viewer snapshot. The current
// image's record carries the active viewport's live transform.
func FromViewer(v viewer.Snapshot) *Snapshot {
	s := &Snapshot{
		Images:             make([]ImageState, len(v.Images)),
		CurrentImageIndex:  v.Current,
		ActiveViewboxIndex: v.Active,
		Layout:             v.Layout,
	}
	for i, im := range v.Images {
		s.Images[i] = ImageState{Annotations: im.Annotations.Clone(), Settings: im.Settings}
		if s.Images[i].Annotations == nil {
			s.Images[i].Annotations = annotation.List{}
		}
	}
	if v.Current >= 0 && v.Current < len(s.Images) && v.Active >= 0 && v.Active < len(v.Transforms) {
		s.Images[v.Current].Settings = v.Transforms[v.Active]
	}
	return s
}

// Restore converts s into the intent that applies it to a controller.
func (s *Snapshot) Restore() viewer.Restore {
	r := viewer.Restore{
		Layout:  s.Layout,
		Current: s.CurrentImageIndex,
		Active:  s.ActiveViewboxIndex,
		Images:  make([]viewer.ImageRecord, len(s.Images)),
	}
	for i, im := range s.Images {
		r.Images[i] = viewer.ImageRecord{Annotations: im.Annotations.Clone(), Settings: im.Settings}
	}
	return r
}

// Merge overlays snap onto dst index by index. Only indices present in both
// are replaced; the result always has len(dst) entries.
func Merge(dst []ImageState, snap *Snapshot) []ImageState {
	out := make([]ImageState, len(dst))
	copy(out, dst)
	if snap == nil {
		return out
	}
	for i := 0; i < len(out) && i < len(snap.Images); i++ {
		out[i] = ImageState{Annotations: snap.Images[i].Annotations.Clone(), Settings: snap.Images[i].Settings}
	}
	return out
}

// Encode renders s as JSON.
func Encode(s *Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses JSON produced by Encode. An unknown layout falls back to
// 1x1 rather than failing the whole session.
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if l, err := layout.Parse(string(s.Layout)); err == nil {
		s.Layout = l
	} else {
		s.Layout = layout.Single
	}
	if s.Images == nil {
		s.Images = []ImageState{}
	}
	return &s, nil
}
