package client

import (
	"context"

	"github.com/menta2k/location-processor/pkg/types"
)

// VisionClient is a vision model backend able to locate named fields in an
// image
type VisionClient interface {
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
	LocateFields(ctx context.Context, model, prompt, imgB64 string) (*types.LocateResult, error)
}
