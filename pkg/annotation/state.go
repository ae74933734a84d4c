package annotation

import (
	"sort"

	"github.com/menta2k/location-processor/pkg/types"
)

// State holds the field sets of several images, keyed by image. It is owned
// by the caller and passed into and out of each annotation step; nothing
// here is shared between callers.
type State struct {
	images map[string]types.FieldSet
}

// NewState creates an empty state
func NewState() State {
	return State{images: make(map[string]types.FieldSet)}
}

// Seed returns a state where every key starts with a copy of defaults
func Seed(keys []string, defaults types.FieldSet) State {
	s := NewState()
	for _, k := range keys {
		s.images[k] = defaults.Clone()
	}
	return s
}

// Get returns a copy of the field set stored for key
func (s State) Get(key string) (types.FieldSet, bool) {
	fs, ok := s.images[key]
	if !ok {
		return types.FieldSet{}, false
	}
	return fs.Clone(), true
}

// GetOr returns the stored field set or a copy of fallback
func (s State) GetOr(key string, fallback types.FieldSet) types.FieldSet {
	if fs, ok := s.Get(key); ok {
		return fs
	}
	return fallback.Clone()
}

// With returns a new state where key maps to fields. The receiver is left
// untouched.
func (s State) With(key string, fields types.FieldSet) State {
	out := State{images: make(map[string]types.FieldSet, len(s.images)+1)}
	for k, v := range s.images {
		out.images[k] = v
	}
	out.images[key] = fields.Clone()
	return out
}

// Keys returns the stored image keys in sorted order
func (s State) Keys() []string {
	keys := make([]string, 0, len(s.images))
	for k := range s.images {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of images tracked
func (s State) Len() int { return len(s.images) }
