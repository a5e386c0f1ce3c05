package detect

import (
	"context"
	"image"
	"time"

	"github.com/tsawler/strata/model"
)

// RegionDetector is the contract for a layout detection model. Given a batch
// of page images it returns one region list per image, in input order, or a
// batch-level error.
//
// Implementations wrap an inference runtime (ONNX session, remote model
// server). The scheduler guarantees DetectRegions is never called
// concurrently, so implementations need not be safe for concurrent use.
type RegionDetector interface {
	DetectRegions(ctx context.Context, images []image.Image) ([][]model.LayoutRegion, error)
}

// RegionList is the per-page result of a detector call, with timing recorded
// by the scheduler.
type RegionList struct {
	// Regions proposed by the detector for this page
	Regions []model.LayoutRegion

	// QueueTime is how long the page waited before its batch was dispatched
	QueueTime time.Duration

	// InferTime is the duration of the detector call that served this page
	InferTime time.Duration
}
