// Package suggest pre-annotates field sets by asking a vision model where
// each named field is.
package suggest

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/menta2k/location-processor/pkg/client"
	"github.com/menta2k/location-processor/pkg/processing"
	"github.com/menta2k/location-processor/pkg/types"
)

// SimpleTestPrompt for testing if the model can see images
const SimpleTestPrompt = `What do you see in this image? Describe it briefly.`

// PromptTemplate is filled with the JSON list of field names
const PromptTemplate = `You are an image region locator.

Locate each of these named regions in the image: %s

Return JSON only:
{
  "fields": [
    {"label": "name from the list", "confidence": 0.0, "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}}
  ],
  "description": "short neutral sentence (≤ 20 words)"
}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels). x,y is the top-left corner.
- Use the labels exactly as given. Omit a label you cannot find.
- One entry per label at most.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// Config controls how the image is sent and which answers are kept
type Config struct {
	SendFormat    string
	SendSize      int
	SendQuality   int
	MinConfidence float64
}

// DefaultConfig returns the settings used by New
func DefaultConfig() Config {
	return Config{
		SendFormat:    "jpg",
		SendSize:      1536,
		SendQuality:   85,
		MinConfidence: 0.2,
	}
}

// Suggester fills missing field boxes from a vision model
type Suggester struct {
	client    client.VisionClient
	processor *processing.Processor
	config    Config
	log       logrus.FieldLogger
}

// New creates a suggester with default configuration
func New(c client.VisionClient) *Suggester {
	return NewWithConfig(c, DefaultConfig())
}

// NewWithConfig creates a suggester with custom configuration
func NewWithConfig(c client.VisionClient, config Config) *Suggester {
	return &Suggester{
		client:    c,
		processor: processing.NewProcessor(),
		config:    config,
		log:       logrus.StandardLogger(),
	}
}

// SetLogger replaces the logger
func (s *Suggester) SetLogger(log logrus.FieldLogger) {
	s.log = log
}

// BuildPrompt renders PromptTemplate for the given field names
func BuildPrompt(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return fmt.Sprintf(PromptTemplate, "["+strings.Join(quoted, ", ")+"]")
}

// TestVision tests if the model can actually see the image with a simple prompt
func (s *Suggester) TestVision(ctx context.Context, model string, img image.Image) (string, error) {
	imgB64, err := s.processor.PrepareImageForModel(img, s.config.SendFormat, s.config.SendSize, s.config.SendQuality)
	if err != nil {
		return "", err
	}
	return s.client.SimpleQuery(ctx, model, SimpleTestPrompt, imgB64)
}

// Suggest returns a copy of fields where every field without a bbox gets
// the model's box, in original-image pixels, and a label id equal to its
// index unless it already has one. Fields with a bbox are left alone.
func (s *Suggester) Suggest(ctx context.Context, model string, img image.Image, fields types.FieldSet) (types.FieldSet, error) {
	out := fields.Clone()
	if fields.Len() == 0 {
		return out, nil
	}

	imgB64, err := s.processor.PrepareImageForModel(img, s.config.SendFormat, s.config.SendSize, s.config.SendQuality)
	if err != nil {
		return types.FieldSet{}, fmt.Errorf("failed to prepare image: %w", err)
	}

	result, err := s.client.LocateFields(ctx, model, BuildPrompt(fields.Names()), imgB64)
	if err != nil {
		return types.FieldSet{}, fmt.Errorf("field location failed: %w", err)
	}

	size := processing.ImageSize(img)
	best := s.selectLocations(fields, result.Fields)
	for i, f := range fields.Fields() {
		loc, ok := best[f.Name]
		if !ok || f.BBox != nil {
			continue
		}
		labelID := i
		if f.LabelID != nil {
			labelID = *f.LabelID
		}
		rect := normalizeBox(loc.Box).ToRect(size.Width, size.Height)
		out.Put(f.WithGeometry(types.NewMapBBox(rect), labelID))
		s.log.WithFields(logrus.Fields{
			"field":      f.Name,
			"confidence": loc.Confidence,
		}).Debug("suggested box")
	}
	return out, nil
}

// selectLocations matches model labels to field names case-insensitively and
// keeps the most confident location per field
func (s *Suggester) selectLocations(fields types.FieldSet, locs []types.Location) map[string]types.Location {
	byLower := make(map[string]string, fields.Len())
	for _, name := range fields.Names() {
		byLower[strings.ToLower(strings.TrimSpace(name))] = name
	}

	best := make(map[string]types.Location)
	for _, loc := range locs {
		name, ok := byLower[strings.ToLower(strings.TrimSpace(loc.Label))]
		if !ok {
			s.log.WithField("label", loc.Label).Debug("ignoring unknown label from model")
			continue
		}
		if loc.Confidence < s.config.MinConfidence {
			continue
		}
		if loc.Box.W <= 0 || loc.Box.H <= 0 {
			continue
		}
		if prev, ok := best[name]; ok && prev.Confidence >= loc.Confidence {
			continue
		}
		best[name] = loc
	}
	return best
}

// clamp ensures a value is within the given bounds
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// normalizeBox clamps the box to the unit square
func normalizeBox(b types.Box) types.Box {
	x := clamp(b.X, 0, 1)
	y := clamp(b.Y, 0, 1)
	return types.Box{
		X: x,
		Y: y,
		W: clamp(b.W, 0, 1-x),
		H: clamp(b.H, 0, 1-y),
	}
}
