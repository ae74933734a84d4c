// Package locationprocessor prepares images and named field definitions for
// an interactive bounding-box drawing surface and merges the rectangles the
// user draws back into those definitions.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		locationprocessor "github.com/menta2k/location-processor"
//		"github.com/menta2k/location-processor/pkg/surface"
//		"github.com/menta2k/location-processor/pkg/types"
//	)
//
//	func main() {
//		fields, err := types.ParseFieldSet([]byte(`{"RED": {"classification": "abc"}}`))
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		p := locationprocessor.New()
//		prep, err := p.Prepare("form.png", fields, locationprocessor.DefaultOptions())
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		// Hand prep.Request to the drawing surface; once the user is done
//		// merge the result back.
//		resp := surface.Finished([]surface.Entry{
//			{BBox: []float64{10, 10, 50, 50}, LabelID: 0, Label: "RED"},
//		})
//		merged, done, err := p.Finalize(prep, resp)
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Println(done, merged)
//	}
//
// The package consists of these components:
//
// 1. Geometry (pkg/geometry): fits the image into the display bound and maps
// rectangles between display and original space
// 2. Annotation (pkg/annotation): converts fields to the surface's box list
// and merges results back, keeping every non-geometry key
// 3. Palette (pkg/palette): deterministic colour per field name
// 4. Surface (pkg/surface): the request/response boundary with the drawing
// surface
// 5. Processing (pkg/processing): image loading, resizing and encoding
// 6. Suggest (pkg/suggest): optional pre-annotation from a vision model
package locationprocessor

import (
	"context"
	"fmt"
	"image"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/menta2k/location-processor/pkg/annotation"
	"github.com/menta2k/location-processor/pkg/geometry"
	"github.com/menta2k/location-processor/pkg/palette"
	"github.com/menta2k/location-processor/pkg/processing"
	"github.com/menta2k/location-processor/pkg/surface"
	"github.com/menta2k/location-processor/pkg/types"
)

// Version of the location processor library
const Version = "1.0.0"

var validate = validator.New()

// Options controls how an image is prepared for the drawing surface
type Options struct {
	MaxWidth  int     `json:"max_width"`
	MaxHeight int     `json:"max_height"`
	LineWidth float64 `json:"line_width" validate:"gt=0"`
	// UseSpace lets the user finish with the space bar
	UseSpace bool `json:"use_space"`
	// Key identifies the widget instance; a random one is used when empty
	Key     string     `json:"key"`
	Mode    types.Mode `json:"mode"`
	Format  string     `json:"format" validate:"oneof=png jpg jpeg webp"`
	Quality int        `json:"quality" validate:"min=1,max=100"`
}

// DefaultOptions returns a 512x512 display bound, 5px lines and PNG output
func DefaultOptions() Options {
	return Options{
		MaxWidth:  512,
		MaxHeight: 512,
		LineWidth: 5,
		Mode:      types.ModeAuto,
		Format:    "png",
		Quality:   90,
	}
}

// Validate checks the options. Display bounds are checked by the geometry
// package so they report geometry.ErrInvalidBounds.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

// Prepared is one image ready for the drawing surface, together with what is
// needed to merge the surface's answer back
type Prepared struct {
	Key      string
	Request  surface.Request
	Display  *processing.DisplayImage
	Original geometry.Size
	Resized  geometry.Size
	Scale    geometry.Scale
	Mode     types.Mode
	Fields   types.FieldSet
}

// Processor provides a high-level interface over the annotation pipeline
type Processor struct {
	processor *processing.Processor
	log       logrus.FieldLogger
}

// New creates a new Processor with default configuration
func New() *Processor {
	return NewWithConfig(processing.Config{}, nil)
}

// NewWithConfig creates a Processor with custom image settings and logger.
// A nil logger uses the logrus standard logger.
func NewWithConfig(config processing.Config, log logrus.FieldLogger) *Processor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Processor{
		processor: processing.NewProcessorWithConfig(config),
		log:       log,
	}
}

// LoadImage loads an image from a file path or an http(s) URL
func (p *Processor) LoadImage(source string) (image.Image, error) {
	return p.processor.LoadImageSmart(source)
}

// Prepare loads the image at source and builds the surface request for
// fields. A missing or unreadable image is returned as an error.
func (p *Processor) Prepare(source string, fields types.FieldSet, opts Options) (*Prepared, error) {
	img, err := p.LoadImage(source)
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", source, err)
	}
	return p.PrepareImage(img, fields, opts)
}

// PrepareImage builds the surface request for an already decoded image
func (p *Processor) PrepareImage(img image.Image, fields types.FieldSet, opts Options) (*Prepared, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	original := processing.ImageSize(img)
	resized, scale, err := geometry.Fit(original, geometry.Size{Width: opts.MaxWidth, Height: opts.MaxHeight})
	if err != nil {
		return nil, err
	}

	key := opts.Key
	if key == "" {
		key = uuid.NewString()
	}

	display, err := p.processor.EncodeDisplay(p.processor.Thumbnail(img, resized), opts.Format, opts.Quality, key)
	if err != nil {
		return nil, fmt.Errorf("failed to encode display image: %w", err)
	}

	names := fields.Names()
	mode := annotation.Resolve(opts.Mode, fields)
	boxes := annotation.InitialBoxes(fields, scale, mode)
	if boxes == nil {
		boxes = []surface.Entry{}
	}

	req := surface.Request{
		ImageURL:  display.URL,
		ImageSize: resized.Pair(),
		LabelList: names,
		BBoxInfo:  boxes,
		ColorMap:  palette.ColorMap(names),
		LineWidth: opts.LineWidth,
		UseSpace:  opts.UseSpace,
		Key:       key,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p.log.WithFields(logrus.Fields{
		"key":      key,
		"original": original.String(),
		"resized":  resized.String(),
		"scale":    float64(scale),
		"mode":     mode.String(),
		"boxes":    len(boxes),
	}).Debug("prepared image for drawing surface")

	return &Prepared{
		Key:      key,
		Request:  req,
		Display:  display,
		Original: original,
		Resized:  resized,
		Scale:    scale,
		Mode:     mode,
		Fields:   fields.Clone(),
	}, nil
}

// Finalize merges the surface's response into the prepared fields. While the
// response is not done the prepared fields are returned unchanged and the
// second result is false.
func (p *Processor) Finalize(prep *Prepared, resp surface.Response) (types.FieldSet, bool, error) {
	if !resp.Done {
		return prep.Fields.Clone(), false, nil
	}

	merged, err := annotation.Merge(prep.Fields, resp.Entries, prep.Scale)
	if err != nil {
		return types.FieldSet{}, false, fmt.Errorf("failed to merge result for %s: %w", prep.Key, err)
	}

	p.log.WithFields(logrus.Fields{
		"key":     prep.Key,
		"entries": len(resp.Entries),
	}).Debug("merged drawing surface result")
	return merged, true, nil
}

// Detect prepares source, renders it on surf and merges whatever the surface
// returns
func (p *Processor) Detect(ctx context.Context, source string, fields types.FieldSet, opts Options, surf surface.Surface) (types.FieldSet, bool, error) {
	prep, err := p.Prepare(source, fields, opts)
	if err != nil {
		return types.FieldSet{}, false, err
	}

	resp, err := surf.Render(ctx, prep.Request)
	if err != nil {
		return types.FieldSet{}, false, fmt.Errorf("drawing surface failed: %w", err)
	}
	return p.Finalize(prep, resp)
}

// Annotate runs Detect for one image of a caller-owned state. The image is
// keyed by opts.Key, or by source when no key is set; its fields come from
// state, falling back to defaults. The returned state holds the merged
// fields when the surface finished and is the input state otherwise.
func (p *Processor) Annotate(ctx context.Context, state annotation.State, source string, defaults types.FieldSet, opts Options, surf surface.Surface) (annotation.State, bool, error) {
	if opts.Key == "" {
		opts.Key = source
	}

	fields := state.GetOr(opts.Key, defaults)
	merged, done, err := p.Detect(ctx, source, fields, opts, surf)
	if err != nil {
		return state, false, err
	}
	if !done {
		return state, false, nil
	}
	return state.With(opts.Key, merged), true, nil
}

// Overlay draws every field box on a copy of img using the field palette
func (p *Processor) Overlay(img image.Image, fields types.FieldSet, lineWidth float64) image.Image {
	return p.processor.CreateOverlay(img, fields, palette.ColorMap(fields.Names()), lineWidth)
}

// Crops cuts out the region of every field that has a bbox
func (p *Processor) Crops(img image.Image, fields types.FieldSet) ([]processing.FieldCrop, error) {
	return p.processor.CropFields(img, fields)
}

// SaveImage saves an image to file in the given format
func (p *Processor) SaveImage(img image.Image, path, format string) error {
	return p.processor.SaveImage(img, path, format, 0, false)
}
