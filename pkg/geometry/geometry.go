// Package geometry maps rectangles between the original image and the
// reduced copy shown on the drawing surface.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/menta2k/location-processor/pkg/types"
)

// ErrInvalidBounds is returned for non-positive image sizes or display bounds
var ErrInvalidBounds = errors.New("invalid bounds")

// Size is a width/height pair in pixels
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Pair returns the size as [width, height]
func (s Size) Pair() [2]int {
	return [2]int{s.Width, s.Height}
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// FitSize shrinks original to fit inside bound while keeping its aspect
// ratio. Images already inside the bound are returned unchanged; the result
// never upscales and each side is at least one pixel.
func FitSize(original, bound Size) (Size, error) {
	if original.Width <= 0 || original.Height <= 0 {
		return Size{}, fmt.Errorf("%w: image size %s", ErrInvalidBounds, original)
	}
	if bound.Width <= 0 || bound.Height <= 0 {
		return Size{}, fmt.Errorf("%w: display bound %s", ErrInvalidBounds, bound)
	}
	if bound.Width >= original.Width && bound.Height >= original.Height {
		return original, nil
	}

	aspect := float64(original.Width) / float64(original.Height)
	x, y := bound.Width, bound.Height
	if float64(x)/float64(y) >= aspect {
		x = roundAspect(float64(y)*aspect, func(n float64) float64 {
			return math.Abs(aspect - n/float64(y))
		})
	} else {
		y = roundAspect(float64(x)/aspect, func(n float64) float64 {
			if n == 0 {
				return 0
			}
			return math.Abs(aspect - float64(x)/n)
		})
	}
	return Size{Width: x, Height: y}, nil
}

// roundAspect picks floor or ceil of v, whichever keeps the aspect ratio
// closest, and clamps to one.
func roundAspect(v float64, dist func(float64) float64) int {
	lo, hi := math.Floor(v), math.Ceil(v)
	n := lo
	if dist(hi) < dist(lo) {
		n = hi
	}
	if n < 1 {
		return 1
	}
	return int(n)
}

// Scale is the ratio of original image width to displayed width
type Scale float64

// ScaleFor returns original.Width / resized.Width
func ScaleFor(original, resized Size) (Scale, error) {
	if original.Width <= 0 || resized.Width <= 0 {
		return 0, fmt.Errorf("%w: %s -> %s", ErrInvalidBounds, original, resized)
	}
	return Scale(float64(original.Width) / float64(resized.Width)), nil
}

// ToDisplay maps a rectangle from original-image space to display space
func (s Scale) ToDisplay(r types.Rect) types.Rect {
	f := float64(s)
	return types.Rect{X: r.X / f, Y: r.Y / f, Width: r.Width / f, Height: r.Height / f}
}

// ToOriginal maps a rectangle from display space to original-image space
func (s Scale) ToOriginal(r types.Rect) types.Rect {
	return r.Scale(float64(s))
}

// Fit computes the display size and scale for an image in one step
func Fit(original, bound Size) (Size, Scale, error) {
	resized, err := FitSize(original, bound)
	if err != nil {
		return Size{}, 0, err
	}
	scale, err := ScaleFor(original, resized)
	if err != nil {
		return Size{}, 0, err
	}
	return resized, scale, nil
}
