package types

import (
	"bytes"
	"fmt"
	"io"
	"reflect"

	jsoniter "github.com/json-iterator/go"
)

const (
	keyBBox    = "bbox"
	keyLabelID = "label_id"
)

// Field is a named region of interest. Meta holds caller-defined keys and
// never contains bbox or label_id; those live in the typed members.
type Field struct {
	Name    string
	Meta    map[string]any
	BBox    *BBox
	LabelID *int
}

// FieldFromValue builds a field from a decoded JSON value. The value must be
// a mapping; its bbox and label_id keys are lifted into typed members.
func FieldFromValue(name string, v any) (Field, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return Field{}, fmt.Errorf("%w: field %q is %T, want object", ErrMalformedField, name, v)
	}

	f := Field{Name: name, Meta: make(map[string]any, len(m))}
	for k, val := range m {
		switch k {
		case keyBBox:
			b, err := ParseBBox(val)
			if err != nil {
				return Field{}, fmt.Errorf("field %q: %w", name, err)
			}
			f.BBox = &b
		case keyLabelID:
			id, err := toInt(val)
			if err != nil {
				return Field{}, fmt.Errorf("%w: field %q label_id: %v", ErrMalformedField, name, err)
			}
			f.LabelID = &id
		default:
			f.Meta[k] = cloneValue(val)
		}
	}
	return f, nil
}

// HasGeometry reports whether the field carries a bbox or a label id
func (f Field) HasGeometry() bool {
	return f.BBox != nil || f.LabelID != nil
}

// WithGeometry returns a copy with bbox and label id replaced
func (f Field) WithGeometry(b BBox, labelID int) Field {
	out := f.Clone()
	out.BBox = &b
	out.LabelID = &labelID
	return out
}

// Clone returns a deep copy of the field
func (f Field) Clone() Field {
	out := Field{Name: f.Name}
	if f.Meta != nil {
		out.Meta = cloneValue(f.Meta).(map[string]any)
	}
	if f.BBox != nil {
		b := *f.BBox
		out.BBox = &b
	}
	if f.LabelID != nil {
		id := *f.LabelID
		out.LabelID = &id
	}
	return out
}

// Value returns the field as a plain mapping, geometry included
func (f Field) Value() map[string]any {
	out := make(map[string]any, len(f.Meta)+2)
	for k, v := range f.Meta {
		out[k] = cloneValue(v)
	}
	if f.BBox != nil {
		out[keyBBox] = f.BBox.Value()
	}
	if f.LabelID != nil {
		out[keyLabelID] = *f.LabelID
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = cloneValue(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = cloneValue(val)
		}
		return s
	}
	return v
}

// FieldSet is an ordered collection of uniquely named fields. The order
// defines default label ids and palette assignment.
type FieldSet struct {
	fields []Field
	index  map[string]int
}

// NewFieldSet builds a set from fields in the given order
func NewFieldSet(fields ...Field) (FieldSet, error) {
	var s FieldSet
	for _, f := range fields {
		if err := s.Add(f); err != nil {
			return FieldSet{}, err
		}
	}
	return s, nil
}

// ParseFieldSet decodes a JSON object of field name to definition,
// keeping the key order of the document.
func ParseFieldSet(data []byte) (FieldSet, error) {
	var s FieldSet
	if err := s.UnmarshalJSON(data); err != nil {
		return FieldSet{}, err
	}
	return s, nil
}

// Len returns the number of fields
func (s FieldSet) Len() int { return len(s.fields) }

// Names returns field names in order
func (s FieldSet) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Index returns the position of name, or -1
func (s FieldSet) Index(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// Get returns a copy of the named field
func (s FieldSet) Get(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i].Clone(), true
}

// At returns a copy of the i-th field
func (s FieldSet) At(i int) Field {
	return s.fields[i].Clone()
}

// Fields returns copies of all fields in order
func (s FieldSet) Fields() []Field {
	out := make([]Field, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Clone()
	}
	return out
}

// Add appends a new field. Names must be unique.
func (s *FieldSet) Add(f Field) error {
	if _, ok := s.index[f.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateField, f.Name)
	}
	if s.index == nil {
		s.index = make(map[string]int)
	}
	s.index[f.Name] = len(s.fields)
	s.fields = append(s.fields, f.Clone())
	return nil
}

// Put replaces the named field in place, or appends it
func (s *FieldSet) Put(f Field) {
	if i, ok := s.index[f.Name]; ok {
		s.fields[i] = f.Clone()
		return
	}
	_ = s.Add(f)
}

// Clone returns a deep copy of the set
func (s FieldSet) Clone() FieldSet {
	out := FieldSet{
		fields: make([]Field, len(s.fields)),
		index:  make(map[string]int, len(s.fields)),
	}
	for i, f := range s.fields {
		out.fields[i] = f.Clone()
		out.index[f.Name] = i
	}
	return out
}

// Equal reports whether both sets hold the same fields in the same order
func (s FieldSet) Equal(o FieldSet) bool {
	if s.Len() != o.Len() {
		return false
	}
	for i := range s.fields {
		a, b := s.fields[i], o.fields[i]
		if a.Name != b.Name {
			return false
		}
		if !reflect.DeepEqual(a.Value(), b.Value()) {
			return false
		}
	}
	return true
}

// MarshalJSON writes the set as an object in field order
func (s FieldSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range s.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		val, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(f.Value())
		if err != nil {
			return nil, fmt.Errorf("failed to encode field %q: %w", f.Name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object of field definitions in document order
func (s *FieldSet) UnmarshalJSON(data []byte) error {
	iter := jsoniter.ParseBytes(jsoniter.ConfigCompatibleWithStandardLibrary, data)
	switch iter.WhatIsNext() {
	case jsoniter.NilValue:
		*s = FieldSet{}
		return nil
	case jsoniter.ObjectValue:
	default:
		return fmt.Errorf("%w: field set must be an object", ErrMalformedField)
	}

	var (
		out   FieldSet
		cbErr error
	)
	iter.ReadObjectCB(func(it *jsoniter.Iterator, name string) bool {
		f, err := FieldFromValue(name, it.Read())
		if err != nil {
			cbErr = err
			return false
		}
		if err := out.Add(f); err != nil {
			cbErr = err
			return false
		}
		return true
	})
	if cbErr != nil {
		return cbErr
	}
	if iter.Error != nil && iter.Error != io.EOF {
		return fmt.Errorf("failed to parse field set: %w", iter.Error)
	}
	*s = out
	return nil
}
