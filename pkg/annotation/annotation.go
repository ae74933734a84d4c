// Package annotation converts field definitions to the drawing surface's
// flat box list and merges the surface's result back into them.
package annotation

import (
	"errors"
	"fmt"

	"github.com/menta2k/location-processor/pkg/geometry"
	"github.com/menta2k/location-processor/pkg/surface"
	"github.com/menta2k/location-processor/pkg/types"
)

// ErrUnknownLabel is returned when the surface reports a label that is not
// one of the field names.
var ErrUnknownLabel = errors.New("unknown label")

// Detect classifies a field set: annotated when any field carries a bbox or
// a label id, fresh otherwise.
func Detect(fields types.FieldSet) types.Mode {
	for _, f := range fields.Fields() {
		if f.HasGeometry() {
			return types.ModeAnnotated
		}
	}
	return types.ModeFresh
}

// Resolve turns ModeAuto into a concrete mode
func Resolve(mode types.Mode, fields types.FieldSet) types.Mode {
	if mode == types.ModeAuto {
		return Detect(fields)
	}
	return mode
}

// InitialBoxes returns the display-space boxes to pre-populate the surface
// with. Fresh sets produce none. In annotated mode every field with a bbox
// yields one entry, in field order, labelled with its stored id or its index.
func InitialBoxes(fields types.FieldSet, scale geometry.Scale, mode types.Mode) []surface.Entry {
	if Resolve(mode, fields) != types.ModeAnnotated {
		return nil
	}

	var out []surface.Entry
	for i, f := range fields.Fields() {
		if f.BBox == nil {
			continue
		}
		labelID := i
		if f.LabelID != nil {
			labelID = *f.LabelID
		}
		out = append(out, surface.NewEntry(scale.ToDisplay(f.BBox.Rect()), labelID, f.Name))
	}
	return out
}

// Merge applies the surface's entries to a copy of fields. Each referenced
// field keeps its metadata and gets a fresh bbox, scaled to original-image
// space and written as a mapping, plus the reported label id. Fields not
// referenced are returned unchanged. The input set is never modified.
func Merge(fields types.FieldSet, entries []surface.Entry, scale geometry.Scale) (types.FieldSet, error) {
	out := fields.Clone()
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return types.FieldSet{}, err
		}
		f, ok := out.Get(e.Label)
		if !ok {
			return types.FieldSet{}, fmt.Errorf("%w: %q", ErrUnknownLabel, e.Label)
		}
		bbox := types.NewMapBBox(scale.ToOriginal(e.Rect()))
		out.Put(f.WithGeometry(bbox, e.LabelID))
	}
	return out, nil
}
