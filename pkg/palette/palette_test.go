package palette

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleEndpoints(t *testing.T) {
	assert.Equal(t, color.NRGBA{255, 0, 40, 255}, Sample(0))
	assert.Equal(t, color.NRGBA{255, 0, 191, 255}, Sample(1))
	assert.Equal(t, Sample(0.9999), Sample(1))
	assert.Equal(t, Sample(0), Sample(-0.5))
}

func TestColorMap(t *testing.T) {
	names := []string{"RED", "GREEN"}
	cm := ColorMap(names)

	require.Len(t, cm, 2)
	assert.Equal(t, "#ff0028", cm["RED"])
	assert.Equal(t, "#00ff8b", cm["GREEN"])
}

func TestColorMapDeterministic(t *testing.T) {
	names := []string{"deer", "human", "dog", "penguin", "framingo", "teddy bear"}
	a := ColorMap(names)
	b := ColorMap(append([]string(nil), names...))
	assert.Equal(t, a, b)

	seen := map[string]bool{}
	for _, n := range names {
		assert.Regexp(t, `^#[0-9a-f]{6}$`, a[n])
		assert.False(t, seen[a[n]], "colour %s reused", a[n])
		seen[a[n]] = true
	}

	// order matters, the set alone does not
	reordered := ColorMap([]string{"human", "deer", "dog", "penguin", "framingo", "teddy bear"})
	assert.Equal(t, a["deer"], reordered["human"])
}

func TestColorMapEmpty(t *testing.T) {
	assert.Empty(t, ColorMap(nil))
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#00ff8b")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{0, 255, 139, 255}, c)
	assert.Equal(t, "#00ff8b", Hex(c))

	_, err = ParseHex("#fff")
	assert.Error(t, err)
	_, err = ParseHex("zzzzzz")
	assert.Error(t, err)
}
