package evidence

import (
	"encoding/json"
	"slices"
)

// Layer is the confidentiality tag on an evidence item, constraining how the
// pipeline may use it downstream.
type Layer string

// Valid evidence layers. Exposed items are quotable in output; buried items
// inform aggregate narrative but are never quoted verbatim; director items
// carry production emphasis notes and never surface as content.
const (
	LayerExposed  Layer = "exposed"
	LayerBuried   Layer = "buried"
	LayerDirector Layer = "director"
)

var layers = []Layer{
	LayerExposed,
	LayerBuried,
	LayerDirector,
}

// Layers returns the list of valid evidence layers.
func Layers() []Layer {
	return layers
}

// UnmarshalJSON validates that the decoded string is a known layer value.
func (l *Layer) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := Layer(raw)
	if !slices.Contains(layers, v) {
		return ErrInvalidLayer
	}
	*l = v
	return nil
}

// ParseLayer validates a string as a known evidence layer.
// Returns ErrInvalidLayer if the value is not recognized.
func ParseLayer(s string) (Layer, error) {
	v := Layer(s)
	if !slices.Contains(layers, v) {
		return "", ErrInvalidLayer
	}
	return v, nil
}
