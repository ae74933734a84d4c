// Package surface describes the boundary with the external drawing surface:
// the request it renders and the rectangles it eventually returns.
package surface

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/menta2k/location-processor/pkg/types"
)

var validate = validator.New()

// Entry is one rectangle as exchanged with the drawing surface, in display
// space.
type Entry struct {
	BBox    []float64 `json:"bbox" validate:"len=4"`
	LabelID int       `json:"label_id" validate:"gte=0"`
	Label   string    `json:"label" validate:"required"`
}

// NewEntry builds an entry from a display-space rectangle
func NewEntry(r types.Rect, labelID int, label string) Entry {
	l := r.List()
	return Entry{BBox: l[:], LabelID: labelID, Label: label}
}

// Rect returns the entry's rectangle. Call Validate first.
func (e Entry) Rect() types.Rect {
	var v [4]float64
	copy(v[:], e.BBox)
	return types.RectFromList(v)
}

// Validate checks the entry shape
func (e Entry) Validate() error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("invalid surface entry %q: %w", e.Label, err)
	}
	return nil
}

// Request is everything the drawing surface needs to render one image
type Request struct {
	ImageURL  string            `json:"image_url" validate:"required"`
	ImageSize [2]int            `json:"image_size"`
	LabelList []string          `json:"label_list"`
	BBoxInfo  []Entry           `json:"bbox_info" validate:"dive"`
	ColorMap  map[string]string `json:"color_map"`
	LineWidth float64           `json:"line_width" validate:"gt=0"`
	UseSpace  bool              `json:"use_space"`
	Key       string            `json:"key" validate:"required"`
}

// Validate checks the request before it is handed to a surface
func (r Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid surface request: %w", err)
	}
	if r.ImageSize[0] <= 0 || r.ImageSize[1] <= 0 {
		return fmt.Errorf("invalid surface request: image size %v", r.ImageSize)
	}
	return nil
}

// Response is the surface's answer. Done is false while the user has not
// finished; Entries is only meaningful when Done is true.
type Response struct {
	Entries []Entry `json:"entries"`
	Done    bool    `json:"done"`
}

// Pending is the "no result yet" response
var Pending = Response{}

// Finished wraps a finalized entry list
func Finished(entries []Entry) Response {
	return Response{Entries: entries, Done: true}
}

// Surface renders a request and reports the user's result when there is one.
// Implementations must not block waiting for the user.
type Surface interface {
	Render(ctx context.Context, req Request) (Response, error)
}

// Func adapts a function to the Surface interface
type Func func(ctx context.Context, req Request) (Response, error)

// Render calls f
func (f Func) Render(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// Static always answers with the same response
type Static struct {
	Response Response
}

// Render returns the fixed response
func (s Static) Render(ctx context.Context, _ Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	return s.Response, nil
}

// Pipe is an in-process bidirectional channel between a host calling Render
// and a drawing side reading Requests and calling Submit.
type Pipe struct {
	requests chan Request

	mu      sync.Mutex
	results map[string][]Entry
}

// NewPipe creates a pipe holding at most one unread request
func NewPipe() *Pipe {
	return &Pipe{
		requests: make(chan Request, 1),
		results:  make(map[string][]Entry),
	}
}

// Render publishes req, replacing an unread older request, and returns the
// result submitted for req.Key if there is one. A result is delivered once.
func (p *Pipe) Render(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	p.mu.Lock()
	entries, ok := p.results[req.Key]
	if ok {
		delete(p.results, req.Key)
	}
	p.mu.Unlock()
	if ok {
		return Finished(entries), nil
	}

	for {
		select {
		case p.requests <- req:
			return Pending, nil
		default:
		}
		select {
		case <-p.requests:
		default:
		}
	}
}

// Requests delivers rendered requests to the drawing side
func (p *Pipe) Requests() <-chan Request {
	return p.requests
}

// Submit records the finalized entries for key. Entries are validated.
func (p *Pipe) Submit(key string, entries []Entry) error {
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	cp := make([]Entry, len(entries))
	for i, e := range entries {
		cp[i] = Entry{BBox: append([]float64(nil), e.BBox...), LabelID: e.LabelID, Label: e.Label}
	}

	p.mu.Lock()
	p.results[key] = cp
	p.mu.Unlock()
	return nil
}
