// Package palette assigns display colours to field names by sampling a
// cyclic rainbow gradient.
package palette

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"sync"

	"gonum.org/v1/gonum/interp"
)

// lutSize is the number of entries in the sampled gradient
const lutSize = 256

// rainbow control points (position, r, g, b), the "gist_rainbow" gradient
var rainbow = [][4]float64{
	{0.000, 1.00, 0.00, 0.16},
	{0.030, 1.00, 0.00, 0.00},
	{0.215, 1.00, 1.00, 0.00},
	{0.400, 0.00, 1.00, 0.00},
	{0.586, 0.00, 1.00, 1.00},
	{0.770, 0.00, 0.00, 1.00},
	{0.954, 1.00, 0.00, 1.00},
	{1.000, 1.00, 0.00, 0.75},
}

var (
	lut     [lutSize][3]float64
	lutOnce sync.Once
)

func buildLUT() {
	xs := make([]float64, len(rainbow))
	channels := make([][]float64, 3)
	for c := range channels {
		channels[c] = make([]float64, len(rainbow))
	}
	for i, p := range rainbow {
		xs[i] = p[0]
		for c := 0; c < 3; c++ {
			channels[c][i] = p[c+1]
		}
	}

	var fits [3]interp.PiecewiseLinear
	for c := 0; c < 3; c++ {
		if err := fits[c].Fit(xs, channels[c]); err != nil {
			panic(fmt.Sprintf("palette: invalid gradient: %v", err))
		}
	}
	for i := 0; i < lutSize; i++ {
		x := float64(i) / float64(lutSize-1)
		for c := 0; c < 3; c++ {
			lut[i][c] = fits[c].Predict(x)
		}
	}
}

// Sample returns the gradient colour at position f in [0,1)
func Sample(f float64) color.NRGBA {
	lutOnce.Do(buildLUT)

	idx := int(f * lutSize)
	if idx >= lutSize {
		idx = lutSize - 1
	}
	if idx < 0 {
		idx = 0
	}
	v := lut[idx]
	return color.NRGBA{
		R: uint8(v[0] * 255),
		G: uint8(v[1] * 255),
		B: uint8(v[2] * 255),
		A: 255,
	}
}

// ColorMap assigns each name the colour sampled at index/len(names). The
// result depends only on the ordered list.
func ColorMap(names []string) map[string]string {
	out := make(map[string]string, len(names))
	for i, name := range names {
		out[name] = Hex(Sample(float64(i) / float64(len(names))))
	}
	return out
}

// Hex formats a colour as #rrggbb
func Hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHex parses #rrggbb (the leading # is optional)
func ParseHex(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
