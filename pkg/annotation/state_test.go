package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/location-processor/pkg/types"
)

func TestState(t *testing.T) {
	defaults := mustParse(t, `{"RED":{"classification":"abc"}}`)
	s := Seed([]string{"b.jpg", "a.jpg"}, defaults)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, s.Keys())
	assert.Equal(t, 2, s.Len())

	annotated, err := Merge(defaults, nil, 1)
	require.NoError(t, err)
	red, _ := annotated.Get("RED")
	annotated.Put(red.WithGeometry(types.NewMapBBox(types.Rect{X: 1, Y: 1, Width: 1, Height: 1}), 0))

	next := s.With("a.jpg", annotated)

	before, ok := s.Get("a.jpg")
	require.True(t, ok)
	assert.Equal(t, types.ModeFresh, Detect(before), "previous state is not modified")

	after, ok := next.Get("a.jpg")
	require.True(t, ok)
	assert.Equal(t, types.ModeAnnotated, Detect(after))

	missing := next.GetOr("c.jpg", defaults)
	assert.True(t, missing.Equal(defaults))
	_, ok = next.Get("c.jpg")
	assert.False(t, ok)
}

func TestZeroState(t *testing.T) {
	var s State
	_, ok := s.Get("x")
	assert.False(t, ok)
	s = s.With("x", types.FieldSet{})
	assert.Equal(t, []string{"x"}, s.Keys())
}
