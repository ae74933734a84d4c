package processing

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/location-processor/pkg/geometry"
)

// ErrImageNotFound is returned when the image file does not exist
var ErrImageNotFound = errors.New("image not found")

// Config holds encoding defaults for the processor
type Config struct {
	DefaultQuality int
	HTTPTimeout    time.Duration
}

// Processor handles image processing operations
type Processor struct {
	config Config
}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{
		config: Config{
			DefaultQuality: 85,
			HTTPTimeout:    30 * time.Second,
		},
	}
}

// NewProcessorWithConfig creates a processor with custom configuration
func NewProcessorWithConfig(config Config) *Processor {
	if config.DefaultQuality <= 0 {
		config.DefaultQuality = 85
	}
	if config.HTTPTimeout <= 0 {
		config.HTTPTimeout = 30 * time.Second
	}
	return &Processor{config: config}
}

// LoadImageFromURL downloads and loads an image from a URL
func (p *Processor) LoadImageFromURL(imageURL string) (image.Image, error) {
	// Validate URL
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsedURL.Scheme)
	}

	client := &http.Client{
		Timeout: p.config.HTTPTimeout,
	}

	req, err := http.NewRequest("GET", imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Location-Processor/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("URL does not point to an image (Content-Type: %s)", contentType)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return p.decodeImageFromBytes(imageData)
}

// LoadImage loads an image from a file path with WebP support. A missing
// file yields ErrImageNotFound.
func (p *Processor) LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrImageNotFound, path)
		}
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer f.Close()

	// Try imaging (registered decoders, EXIF orientation)
	if img, err := imaging.Decode(f, imaging.AutoOrientation(true)); err == nil {
		return img, nil
	}

	// Fallback: explicit WebP decode
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind image file: %w", err)
	}
	if img, err := webp.Decode(f); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("image: unknown format for %s", path)
}

// LoadImageSmart loads an image from either a file path or URL
func (p *Processor) LoadImageSmart(source string) (image.Image, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return p.LoadImageFromURL(source)
	}
	return p.LoadImage(source)
}

// LoadImageFromReader decodes an image from r
func (p *Processor) LoadImageFromReader(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return p.decodeImageFromBytes(data)
}

// decodeImageFromBytes decodes an image from byte data with WebP support
func (p *Processor) decodeImageFromBytes(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("image: unknown or unsupported format")
}

// ImageSize returns the native pixel dimensions of img
func ImageSize(img image.Image) geometry.Size {
	b := img.Bounds()
	return geometry.Size{Width: b.Dx(), Height: b.Dy()}
}

// Thumbnail resizes img to exactly size. Images already at that size are
// returned as is.
func (p *Processor) Thumbnail(img image.Image, size geometry.Size) image.Image {
	if ImageSize(img) == size {
		return img
	}
	return imaging.Resize(img, size.Width, size.Height, imaging.Lanczos)
}

// Encode serializes img as png, jpg or webp
func (p *Processor) Encode(img image.Image, format string, quality int, lossless bool) ([]byte, error) {
	if quality <= 0 {
		quality = p.config.DefaultQuality
	}

	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "png", "":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("png encode failed: %w", err)
		}
	case "jpg", "jpeg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("jpeg encode failed: %w", err)
		}
	case "webp":
		if err := webp.Encode(&buf, img, &webp.Options{Lossless: lossless, Quality: float32(quality)}); err != nil {
			return nil, fmt.Errorf("webp encode failed: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
	return buf.Bytes(), nil
}

// PrepareImageForModel converts an image to base64 for sending to vision models
func (p *Processor) PrepareImageForModel(img image.Image, format string, maxDim int, quality int) (string, error) {
	if maxDim > 0 {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		if w > maxDim || h > maxDim {
			if w >= h {
				img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
			}
		}
	}

	if strings.ToLower(format) != "png" {
		format = "jpg"
	}
	data, err := p.Encode(img, format, quality, false)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// SaveImage saves an image to a file with the specified format and quality
func (p *Processor) SaveImage(img image.Image, path, format string, quality int, lossless bool) error {
	if quality <= 0 {
		quality = p.config.DefaultQuality
	}
	switch strings.ToLower(format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		opts := &webp.Options{Lossless: lossless, Quality: float32(quality)}
		return webp.Encode(f, img, opts)
	case "png":
		return imaging.Save(img, path)
	default: // jpg/jpeg
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	}
}
