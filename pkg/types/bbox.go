package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Rect is an axis-aligned rectangle in pixel units. Zero-area and
// out-of-bounds rectangles are valid.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// List returns the rectangle as [x, y, width, height]
func (r Rect) List() [4]float64 {
	return [4]float64{r.X, r.Y, r.Width, r.Height}
}

// RectFromList builds a rectangle from [x, y, width, height]
func RectFromList(v [4]float64) Rect {
	return Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}
}

// Scale multiplies every component by f
func (r Rect) Scale(f float64) Rect {
	return Rect{X: r.X * f, Y: r.Y * f, Width: r.Width * f, Height: r.Height * f}
}

// BBoxKind identifies the wire shape a BBox was read from or will be written as
type BBoxKind int

const (
	// BBoxMap is the {"x","y","width","height"} shape.
	BBoxMap BBoxKind = iota
	// BBoxList is the [x, y, width, height] shape.
	BBoxList
)

// BBox is a rectangle tagged with its wire representation. Both shapes
// convert to and from Rect without loss.
type BBox struct {
	kind BBoxKind
	rect Rect
}

// NewMapBBox wraps r in the mapping representation
func NewMapBBox(r Rect) BBox {
	return BBox{kind: BBoxMap, rect: r}
}

// NewListBBox wraps r in the four-number list representation
func NewListBBox(r Rect) BBox {
	return BBox{kind: BBoxList, rect: r}
}

// Kind returns the wire shape of the box
func (b BBox) Kind() BBoxKind { return b.kind }

// Rect returns the rectangle regardless of shape
func (b BBox) Rect() Rect { return b.rect }

// As returns the same rectangle in another representation
func (b BBox) As(kind BBoxKind) BBox {
	return BBox{kind: kind, rect: b.rect}
}

// Value returns the plain Go value for the box: []any for lists and
// map[string]any for mappings.
func (b BBox) Value() any {
	if b.kind == BBoxList {
		l := b.rect.List()
		return []any{l[0], l[1], l[2], l[3]}
	}
	return map[string]any{
		"x":      b.rect.X,
		"y":      b.rect.Y,
		"width":  b.rect.Width,
		"height": b.rect.Height,
	}
}

// MarshalJSON writes the box in its own representation
func (b BBox) MarshalJSON() ([]byte, error) {
	if b.kind == BBoxList {
		return json.Marshal(b.rect.List())
	}
	return json.Marshal(b.rect)
}

// UnmarshalJSON accepts either representation
func (b *BBox) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBBox, err)
	}
	parsed, err := ParseBBox(v)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// ParseBBox converts a decoded JSON value into a BBox. Lists must hold
// exactly four numbers. Mappings default missing coordinates to zero but
// reject non-numeric values.
func ParseBBox(v any) (BBox, error) {
	switch t := v.(type) {
	case BBox:
		return t, nil
	case Rect:
		return NewMapBBox(t), nil
	case [4]float64:
		return NewListBBox(RectFromList(t)), nil
	case []float64:
		if len(t) != 4 {
			return BBox{}, fmt.Errorf("%w: expected 4 values, got %d", ErrMalformedBBox, len(t))
		}
		return NewListBBox(Rect{X: t[0], Y: t[1], Width: t[2], Height: t[3]}), nil
	case []any:
		if len(t) != 4 {
			return BBox{}, fmt.Errorf("%w: expected 4 values, got %d", ErrMalformedBBox, len(t))
		}
		var vals [4]float64
		for i, item := range t {
			f, err := toFloat(item)
			if err != nil {
				return BBox{}, fmt.Errorf("%w: element %d: %v", ErrMalformedBBox, i, err)
			}
			vals[i] = f
		}
		return NewListBBox(RectFromList(vals)), nil
	case map[string]any:
		var r Rect
		for key, dst := range map[string]*float64{"x": &r.X, "y": &r.Y, "width": &r.Width, "height": &r.Height} {
			raw, ok := t[key]
			if !ok {
				continue
			}
			f, err := toFloat(raw)
			if err != nil {
				return BBox{}, fmt.Errorf("%w: key %q: %v", ErrMalformedBBox, key, err)
			}
			*dst = f
		}
		return NewMapBBox(r), nil
	case nil:
		return BBox{}, fmt.Errorf("%w: null", ErrMalformedBBox)
	}
	return BBox{}, fmt.Errorf("%w: unsupported type %T", ErrMalformedBBox, v)
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		return 0, fmt.Errorf("not a number: %s", strconv.Quote(n))
	}
	return 0, fmt.Errorf("not a number: %T", v)
}

func toInt(v any) (int, error) {
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("not an integer: %v", f)
	}
	return int(f), nil
}
