package annotation

import (
	"encoding/json"
	"fmt"

	"github.com/example/radview/internal/geom"
)

// Marshal encodes a as a flat object carrying a "type" field.
func Marshal(a Annotation) ([]byte, error) {
	switch v := a.(type) {
	case Freehand:
		if v.Points == nil {
			v.Points = []geom.Point{}
		}
		return tagged(KindFreehand, v)
	case Circle:
		return tagged(KindCircle, v)
	case Rectangle:
		return tagged(KindRectangle, v)
	case Measure:
		return tagged(KindMeasure, v)
	case Arrow:
		return tagged(KindArrow, v)
	case Highlight:
		return tagged(KindHighlight, v)
	case Text:
		return tagged(KindText, v)
	}
	return nil, fmt.Errorf("%T: %w", a, ErrUnknownKind)
}

func tagged(k Kind, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	kind, _ := json.Marshal(k)
	fields["type"] = kind
	return json.Marshal(fields)
}

// Unmarshal decodes one tagged object.
func Unmarshal(data []byte) (Annotation, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	switch head.Type {
	case KindFreehand:
		return decode[Freehand](data)
	case KindCircle:
		return decode[Circle](data)
	case KindRectangle:
		return decode[Rectangle](data)
	case KindMeasure:
		return decode[Measure](data)
	case KindArrow:
		return decode[Arrow](data)
	case KindHighlight:
		return decode[Highlight](data)
	case KindText:
		return decode[Text](data)
	}
	return nil, fmt.Errorf("%q: %w", head.Type, ErrUnknownKind)
}

func decode[T Annotation](data []byte) (Annotation, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
