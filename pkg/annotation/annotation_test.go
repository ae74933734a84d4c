package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/location-processor/pkg/geometry"
	"github.com/menta2k/location-processor/pkg/surface"
	"github.com/menta2k/location-processor/pkg/types"
)

const scenarioScale = geometry.Scale(1000.0 / 512.0)

func mustParse(t *testing.T, doc string) types.FieldSet {
	t.Helper()
	fs, err := types.ParseFieldSet([]byte(doc))
	require.NoError(t, err)
	return fs
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want types.Mode
	}{
		{"empty", `{}`, types.ModeFresh},
		{"plain definitions", `{"RED":{"classification":"abc"},"GREEN":{"classification":"def"}}`, types.ModeFresh},
		{"one bbox", `{"RED":{"classification":"abc"},"GREEN":{"bbox":[1,2,3,4]}}`, types.ModeAnnotated},
		{"label id only", `{"RED":{"label_id":0}}`, types.ModeAnnotated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := mustParse(t, tt.doc)
			assert.Equal(t, tt.want, Detect(fs))
			assert.Equal(t, tt.want, Resolve(types.ModeAuto, fs))
		})
	}
}

func TestResolveExplicitMode(t *testing.T) {
	fs := mustParse(t, `{"RED":{"bbox":[1,2,3,4]}}`)
	assert.Equal(t, types.ModeFresh, Resolve(types.ModeFresh, fs))
	assert.Empty(t, InitialBoxes(fs, 1, types.ModeFresh))
	assert.Len(t, InitialBoxes(fs, 1, types.ModeAnnotated), 1)
}

func TestInitialBoxes(t *testing.T) {
	fs := mustParse(t, `{
		"RED": {"classification":"abc","bbox":{"x":20,"y":40,"width":100,"height":60},"label_id":5},
		"GREEN": {"classification":"def"},
		"BLUE": {"bbox":[2,4,6,8]}
	}`)

	boxes := InitialBoxes(fs, 2, types.ModeAuto)
	require.Len(t, boxes, 2)

	assert.Equal(t, "RED", boxes[0].Label)
	assert.Equal(t, 5, boxes[0].LabelID)
	assert.Equal(t, []float64{10, 20, 50, 30}, boxes[0].BBox)

	assert.Equal(t, "BLUE", boxes[1].Label)
	assert.Equal(t, 2, boxes[1].LabelID, "defaults to field index")
	assert.Equal(t, []float64{1, 2, 3, 4}, boxes[1].BBox)
}

func TestInitialBoxesFreshAndEmpty(t *testing.T) {
	fresh := mustParse(t, `{"RED":{"classification":"abc"},"GREEN":{"classification":"def"}}`)
	assert.Empty(t, InitialBoxes(fresh, scenarioScale, types.ModeAuto))

	assert.Empty(t, InitialBoxes(types.FieldSet{}, scenarioScale, types.ModeAuto))
}

func TestMergeScenario(t *testing.T) {
	fs := mustParse(t, `{"RED":{"classification":"abc"},"GREEN":{"classification":"def"}}`)

	out, err := Merge(fs, []surface.Entry{
		{BBox: []float64{10, 10, 50, 50}, LabelID: 0, Label: "RED"},
	}, scenarioScale)
	require.NoError(t, err)

	red, ok := out.Get("RED")
	require.True(t, ok)
	assert.Equal(t, "abc", red.Meta["classification"])
	require.NotNil(t, red.BBox)
	assert.Equal(t, types.BBoxMap, red.BBox.Kind())
	r := red.BBox.Rect()
	assert.InDelta(t, 19.53, r.X, 0.01)
	assert.InDelta(t, 19.53, r.Y, 0.01)
	assert.InDelta(t, 97.65, r.Width, 0.01)
	assert.InDelta(t, 97.65, r.Height, 0.01)
	require.NotNil(t, red.LabelID)
	assert.Equal(t, 0, *red.LabelID)

	green, ok := out.Get("GREEN")
	require.True(t, ok)
	assert.False(t, green.HasGeometry())
	assert.Equal(t, map[string]any{"classification": "def"}, green.Meta)

	assert.Equal(t, []string{"RED", "GREEN"}, out.Names())

	// input untouched
	orig, _ := fs.Get("RED")
	assert.False(t, orig.HasGeometry())
}

func TestMergePreservesMetadata(t *testing.T) {
	fs := mustParse(t, `{"A":{"tag":"x","bbox":{"x":1,"y":1,"width":1,"height":1},"label_id":0},"B":{"bbox":[5,5,5,5],"label_id":1}}`)

	out, err := Merge(fs, []surface.Entry{{BBox: []float64{100, 200, 30, 40}, LabelID: 3, Label: "A"}}, 1)
	require.NoError(t, err)

	a, _ := out.Get("A")
	assert.Equal(t, "x", a.Meta["tag"])
	assert.Equal(t, types.Rect{X: 100, Y: 200, Width: 30, Height: 40}, a.BBox.Rect())
	assert.Equal(t, 3, *a.LabelID)

	b, _ := out.Get("B")
	assert.Equal(t, types.BBoxList, b.BBox.Kind(), "untouched fields keep their prior bbox")
	assert.Equal(t, types.Rect{X: 5, Y: 5, Width: 5, Height: 5}, b.BBox.Rect())
	assert.Equal(t, 1, *b.LabelID)
}

func TestMergeUnknownLabel(t *testing.T) {
	fs := mustParse(t, `{"RED":{}}`)
	_, err := Merge(fs, []surface.Entry{{BBox: []float64{1, 1, 1, 1}, Label: "PURPLE"}}, 1)
	assert.ErrorIs(t, err, ErrUnknownLabel)
}

func TestMergeMalformedEntry(t *testing.T) {
	fs := mustParse(t, `{"RED":{}}`)
	_, err := Merge(fs, []surface.Entry{{BBox: []float64{1, 1, 1}, Label: "RED"}}, 1)
	assert.Error(t, err)
}

func TestMergeEmpty(t *testing.T) {
	fs := mustParse(t, `{"RED":{"tag":"x"}}`)
	out, err := Merge(fs, nil, scenarioScale)
	require.NoError(t, err)
	assert.True(t, fs.Equal(out))

	empty, err := Merge(types.FieldSet{}, nil, scenarioScale)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestRoundTripIsIdempotent(t *testing.T) {
	fs := mustParse(t, `{
		"RED": {"classification":"abc","bbox":{"x":19.53125,"y":19.53125,"width":97.65625,"height":97.65625},"label_id":0},
		"GREEN": {"classification":"def","bbox":{"x":400,"y":300,"width":120,"height":80},"label_id":1}
	}`)

	for _, scale := range []geometry.Scale{2, scenarioScale, 3.7} {
		boxes := InitialBoxes(fs, scale, types.ModeAuto)
		out, err := Merge(fs, boxes, scale)
		require.NoError(t, err)

		for _, name := range fs.Names() {
			before, _ := fs.Get(name)
			after, _ := out.Get(name)
			assert.Equal(t, before.Meta, after.Meta)
			assert.Equal(t, *before.LabelID, *after.LabelID)
			b, a := before.BBox.Rect(), after.BBox.Rect()
			assert.InDelta(t, b.X, a.X, 1e-9)
			assert.InDelta(t, b.Y, a.Y, 1e-9)
			assert.InDelta(t, b.Width, a.Width, 1e-9)
			assert.InDelta(t, b.Height, a.Height, 1e-9)
		}
	}

	boxes := InitialBoxes(fs, 2, types.ModeAuto)
	out, err := Merge(fs, boxes, 2)
	require.NoError(t, err)
	assert.True(t, fs.Equal(out), "power of two scale round-trips exactly")
}
