package processing

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/menta2k/location-processor/pkg/geometry"
)

// DisplayImage is the encoded, reduced image handed to the drawing surface
type DisplayImage struct {
	Format string
	Data   []byte
	Size   geometry.Size
	// Hash is the md5 of the raw pixels, independent of encoding
	Hash string
	// ID identifies the image for the surface: detection-<hash>-<key>
	ID  string
	URL string
}

// PixelHash returns the hex md5 of the image's NRGBA pixels
func PixelHash(img image.Image) string {
	nrgba := imaging.Clone(img)
	sum := md5.Sum(nrgba.Pix)
	return hex.EncodeToString(sum[:])
}

// EncodeDisplay encodes img for the drawing surface and derives its
// identity from the pixel hash and the caller's key.
func (p *Processor) EncodeDisplay(img image.Image, format string, quality int, key string) (*DisplayImage, error) {
	format = strings.ToLower(format)
	if format == "" {
		format = "png"
	}
	data, err := p.Encode(img, format, quality, false)
	if err != nil {
		return nil, err
	}

	hash := PixelHash(img)
	return &DisplayImage{
		Format: format,
		Data:   data,
		Size:   ImageSize(img),
		Hash:   hash,
		ID:     fmt.Sprintf("detection-%s-%s", hash, key),
		URL:    fmt.Sprintf("data:%s;base64,%s", mimeType(format), base64.StdEncoding.EncodeToString(data)),
	}, nil
}

func mimeType(format string) string {
	switch format {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
