package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/location-processor/pkg/types"
)

func TestFitSize(t *testing.T) {
	tests := []struct {
		name     string
		original Size
		bound    Size
		want     Size
	}{
		{"landscape", Size{1000, 800}, Size{512, 512}, Size{512, 410}},
		{"portrait", Size{800, 1000}, Size{512, 512}, Size{410, 512}},
		{"square", Size{1024, 1024}, Size{512, 512}, Size{512, 512}},
		{"already fits", Size{300, 200}, Size{512, 512}, Size{300, 200}},
		{"exact fit", Size{512, 512}, Size{512, 512}, Size{512, 512}},
		{"one side over", Size{600, 100}, Size{512, 512}, Size{512, 85}},
		{"thin strip", Size{10000, 1}, Size{512, 512}, Size{512, 1}},
		{"wide bound", Size{1000, 800}, Size{2000, 400}, Size{500, 400}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FitSize(tt.original, tt.bound)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFitSizeInvalid(t *testing.T) {
	for _, tc := range []struct{ original, bound Size }{
		{Size{100, 100}, Size{0, 100}},
		{Size{100, 100}, Size{100, -1}},
		{Size{0, 100}, Size{100, 100}},
	} {
		_, err := FitSize(tc.original, tc.bound)
		assert.ErrorIs(t, err, ErrInvalidBounds)
	}
}

func TestFitProperties(t *testing.T) {
	bounds := []Size{{512, 512}, {640, 480}, {100, 300}, {1, 1}}
	for w := 1; w <= 4000; w += 397 {
		for h := 1; h <= 4000; h += 411 {
			original := Size{w, h}
			for _, bound := range bounds {
				resized, scale, err := Fit(original, bound)
				require.NoError(t, err)

				assert.LessOrEqual(t, resized.Width, bound.Width)
				assert.LessOrEqual(t, resized.Height, bound.Height)
				assert.LessOrEqual(t, resized.Width, original.Width)
				assert.LessOrEqual(t, resized.Height, original.Height)

				// one side is pinned to the bound, the other is within a pixel of the ideal
				if resized.Width > 1 && resized.Height > 1 {
					idealW := float64(resized.Height) * float64(w) / float64(h)
					idealH := float64(resized.Width) * float64(h) / float64(w)
					ok := math.Abs(idealW-float64(resized.Width)) <= 1 || math.Abs(idealH-float64(resized.Height)) <= 1
					assert.True(t, ok, "%s in %s gave %s", original, bound, resized)
				}

				assert.InDelta(t, float64(w), float64(resized.Width)*float64(scale), 1e-9)
			}
		}
	}
}

func TestScaleScenario(t *testing.T) {
	resized, scale, err := Fit(Size{1000, 800}, Size{512, 512})
	require.NoError(t, err)
	assert.Equal(t, Size{512, 410}, resized)
	assert.InDelta(t, 1.953125, float64(scale), 1e-12)

	r := scale.ToOriginal(types.Rect{X: 10, Y: 10, Width: 50, Height: 50})
	assert.InDelta(t, 19.53125, r.X, 1e-9)
	assert.InDelta(t, 19.53125, r.Y, 1e-9)
	assert.InDelta(t, 97.65625, r.Width, 1e-9)
	assert.InDelta(t, 97.65625, r.Height, 1e-9)
}

func TestScaleRoundTrip(t *testing.T) {
	scales := []Scale{1, 1.953125, 0.5, 3.3333333, 7.1}
	rects := []types.Rect{
		{X: 0, Y: 0, Width: 0, Height: 0},
		{X: 19.53, Y: 19.53, Width: 97.65, Height: 97.65},
		{X: 1234.5, Y: 0.001, Width: 1e4, Height: 3},
	}
	for _, s := range scales {
		for _, r := range rects {
			back := s.ToOriginal(s.ToDisplay(r))
			assert.InDelta(t, r.X, back.X, 1e-9*math.Max(1, r.X))
			assert.InDelta(t, r.Y, back.Y, 1e-9*math.Max(1, r.Y))
			assert.InDelta(t, r.Width, back.Width, 1e-9*math.Max(1, r.Width))
			assert.InDelta(t, r.Height, back.Height, 1e-9*math.Max(1, r.Height))
		}
	}
}

func TestScaleForInvalid(t *testing.T) {
	_, err := ScaleFor(Size{100, 100}, Size{0, 10})
	assert.ErrorIs(t, err, ErrInvalidBounds)
}

func BenchmarkFit(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _, _ = Fit(Size{4032, 3024}, Size{512, 512})
	}
}
