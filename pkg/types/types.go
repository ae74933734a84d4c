package types

import "errors"

var (
	// ErrMalformedBBox is returned when a rectangle is neither a four-number
	// list nor an x/y/width/height mapping.
	ErrMalformedBBox = errors.New("malformed bbox")

	// ErrMalformedField is returned when a field definition is not a mapping.
	ErrMalformedField = errors.New("malformed field definition")

	// ErrDuplicateField is returned when a field name appears twice in a set.
	ErrDuplicateField = errors.New("duplicate field name")
)

// Box represents a normalized bounding box with coordinates in [0,1] range
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// ToRect converts a normalized box to pixel space for an image of the given size
func (b Box) ToRect(width, height int) Rect {
	return Rect{
		X:      b.X * float64(width),
		Y:      b.Y * float64(height),
		Width:  b.W * float64(width),
		Height: b.H * float64(height),
	}
}

// Location is a single field located by a vision model
type Location struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// LocateResult contains the complete answer of the vision model for a
// field-locating prompt
type LocateResult struct {
	Fields      []Location `json:"fields"`
	Description string     `json:"description"`
}

// Mode tells the format bridge whether a field set carries geometry that
// should be forwarded to the drawing surface.
type Mode int

const (
	// ModeAuto infers the mode from the presence of bbox or label_id keys.
	ModeAuto Mode = iota
	// ModeFresh treats the set as plain definitions with no initial geometry.
	ModeFresh
	// ModeAnnotated forwards every stored bbox as initial geometry.
	ModeAnnotated
)

func (m Mode) String() string {
	switch m {
	case ModeFresh:
		return "fresh"
	case ModeAnnotated:
		return "annotated"
	default:
		return "auto"
	}
}

// ParseMode parses the textual form produced by Mode.String
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "auto":
		return ModeAuto, nil
	case "fresh":
		return ModeFresh, nil
	case "annotated":
		return ModeAnnotated, nil
	}
	return ModeAuto, errors.New("unknown mode: " + s)
}
