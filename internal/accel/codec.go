package accel

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedSample is returned for payloads that are not an object with
// numeric x, y and z fields.
var ErrMalformedSample = errors.New("malformed sample")

// wireSample uses pointers so a missing or null field is distinguishable
// from an explicit zero.
type wireSample struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	Z *float64 `json:"z"`
}

// Decode parses a text payload of the form {"x":1,"y":2,"z":3}. Unknown
// fields are ignored. Any other shape yields an error wrapping
// ErrMalformedSample; callers are expected to drop the payload and carry on.
func Decode(payload []byte) (Sample, error) {
	if len(payload) == 0 {
		return Sample{}, fmt.Errorf("%w: empty payload", ErrMalformedSample)
	}
	var w wireSample
	if err := json.Unmarshal(payload, &w); err != nil {
		return Sample{}, fmt.Errorf("%w: %v", ErrMalformedSample, err)
	}
	switch {
	case w.X == nil:
		return Sample{}, fmt.Errorf("%w: missing field x", ErrMalformedSample)
	case w.Y == nil:
		return Sample{}, fmt.Errorf("%w: missing field y", ErrMalformedSample)
	case w.Z == nil:
		return Sample{}, fmt.Errorf("%w: missing field z", ErrMalformedSample)
	}
	return Sample{X: *w.X, Y: *w.Y, Z: *w.Z}, nil
}

// Encode renders a sample in its wire form.
func Encode(s Sample) ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sample: %w", err)
	}
	return b, nil
}
