package processing

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/location-processor/pkg/palette"
	"github.com/menta2k/location-processor/pkg/types"
)

// fallbackStroke is used for fields without an entry in the colour map
var fallbackStroke = color.NRGBA{0, 255, 0, 255}

// CreateOverlay draws every field's bbox on a copy of img using the colour
// map. Rectangles are in img's pixel space. A non-positive lineWidth picks
// roughly 0.4% of the shorter side.
func (p *Processor) CreateOverlay(img image.Image, fields types.FieldSet, colors map[string]string, lineWidth float64) image.Image {
	nrgba := imaging.Clone(img)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()

	stroke := int(math.Round(lineWidth))
	if stroke <= 0 {
		stroke = int(math.Max(2, 0.004*float64(minInt(w, h))))
	}

	for _, f := range fields.Fields() {
		if f.BBox == nil {
			continue
		}
		c := fallbackStroke
		if hex, ok := colors[f.Name]; ok {
			if parsed, err := palette.ParseHex(hex); err == nil {
				c = parsed
			}
		}
		drawRect(nrgba, f.BBox.Rect(), c, stroke)
	}
	return nrgba
}

// FieldCrop is the region of the image covered by one field
type FieldCrop struct {
	Name  string
	Rect  image.Rectangle
	Image image.Image
}

// CropFields extracts the region of every annotated field. Rectangles are
// clipped to the image; fields whose clipped region is empty are reported
// as an error.
func (p *Processor) CropFields(img image.Image, fields types.FieldSet) ([]FieldCrop, error) {
	bounds := img.Bounds()
	var out []FieldCrop
	for _, f := range fields.Fields() {
		if f.BBox == nil {
			continue
		}
		rect := toPixelRect(f.BBox.Rect()).Add(bounds.Min).Intersect(bounds)
		if rect.Empty() {
			return nil, fmt.Errorf("field %q: empty crop rectangle", f.Name)
		}
		out = append(out, FieldCrop{
			Name:  f.Name,
			Rect:  rect,
			Image: imaging.Crop(img, rect),
		})
	}
	return out, nil
}

// Helper functions
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func toPixelRect(r types.Rect) image.Rectangle {
	x0 := int(math.Round(r.X))
	y0 := int(math.Round(r.Y))
	x1 := int(math.Round(r.X + r.Width))
	y1 := int(math.Round(r.Y + r.Height))
	return image.Rect(x0, y0, x1, y1)
}

func drawRect(img *image.NRGBA, r types.Rect, c color.NRGBA, stroke int) {
	pr := toPixelRect(r)
	x0, y0, x1, y1 := pr.Min.X, pr.Min.Y, pr.Max.X, pr.Max.Y
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	for s := 0; s < stroke; s++ {
		drawHLine(img, y0+s, x0, x1, c)
		drawHLine(img, y1-1-s, x0, x1, c)
		drawVLine(img, x0+s, y0, y1, c)
		drawVLine(img, x1-1-s, y0, y1, c)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x1 <= 0 || x0 >= img.Bounds().Dx() {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > img.Bounds().Dx() {
		x1 = img.Bounds().Dx()
	}
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if y1 <= 0 || y0 >= img.Bounds().Dy() {
		return
	}
	if y0 < 0 {
		y0 = 0
	}
	if y1 > img.Bounds().Dy() {
		y1 = img.Bounds().Dy()
	}
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}
