package layout

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/strata/model"
)

// OCRProvider recognizes text in a region sub-image. Implementations return
// runs with boxes in the sub-image's own coordinate space. Providers are
// called concurrently by page workers and must be safe for concurrent use.
type OCRProvider interface {
	RecognizeRegion(ctx context.Context, img image.Image) ([]model.TextRun, error)
}

// FusionConfig holds configuration for the fusion engine
type FusionConfig struct {
	// MinNativeCoverage is the fraction of a region's area that must be
	// covered by native runs before OCR is skipped for it. Regions below
	// the threshold are sent to the OCR provider. Default: 0.2.
	MinNativeCoverage float64 `yaml:"min_native_coverage"`

	// MergeIoU is the intersection-over-union above which two overlapping
	// regions are considered duplicates of the same area. Default: 0.45.
	MergeIoU float64 `yaml:"merge_iou"`

	// ClassConfidenceFloor is the confidence both regions of an overlapping
	// pair must reach, with differing classes, for both to be kept and
	// flagged ambiguous instead of merged. Default: 0.35.
	ClassConfidenceFloor float64 `yaml:"class_confidence_floor"`

	// LineHeightTolerance controls orphan clustering: runs whose vertical
	// centers fall within this many line heights of each other share a
	// line. Default: 1.0.
	LineHeightTolerance float64 `yaml:"line_height_tolerance"`

	// BlockGapTolerance controls orphan clustering: consecutive lines
	// separated by at most this many line heights join the same synthetic
	// block. Default: 1.5.
	BlockGapTolerance float64 `yaml:"block_gap_tolerance"`

	// OCRPadding is the margin, in pixels, added around a region before
	// cropping its sub-image for OCR. Default: 4.
	OCRPadding float64 `yaml:"ocr_padding"`

	// Logger for fusion diagnostics
	Logger *slog.Logger `yaml:"-"`
}

// DefaultFusionConfig returns sensible default configuration
func DefaultFusionConfig() FusionConfig {
	return FusionConfig{
		MinNativeCoverage:    0.2,
		MergeIoU:             0.45,
		ClassConfidenceFloor: 0.35,
		LineHeightTolerance:  1.0,
		BlockGapTolerance:    1.5,
		OCRPadding:           4,
	}
}

func (c *FusionConfig) defaults() {
	d := DefaultFusionConfig()
	if c.MinNativeCoverage <= 0 {
		c.MinNativeCoverage = d.MinNativeCoverage
	}
	if c.MergeIoU <= 0 {
		c.MergeIoU = d.MergeIoU
	}
	if c.ClassConfidenceFloor <= 0 {
		c.ClassConfidenceFloor = d.ClassConfidenceFloor
	}
	if c.LineHeightTolerance <= 0 {
		c.LineHeightTolerance = d.LineHeightTolerance
	}
	if c.BlockGapTolerance <= 0 {
		c.BlockGapTolerance = d.BlockGapTolerance
	}
	if c.OCRPadding <= 0 {
		c.OCRPadding = d.OCRPadding
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// PageInput is the raw material for fusing one page
type PageInput struct {
	// Index is the 0-based page index
	Index int

	// Image is the rasterized page; may be nil, in which case OCR is
	// skipped for the page
	Image image.Image

	// Width and Height are the page dimensions in the same coordinate
	// space as the runs and regions
	Width  float64
	Height float64

	// Runs is the ordered native text run list, with Seq assigned
	Runs []model.TextRun
}

// FusionResult is the outcome of fusing one page
type FusionResult struct {
	// Blocks produced for the page, not yet ordered
	Blocks []*model.FusedBlock

	// OrphanRuns is the number of native runs that matched no region and
	// were coalesced into synthetic blocks
	OrphanRuns int

	// OCRRegions is the number of regions augmented with OCR text
	OCRRegions int

	// UsedOCR is true if any block carries OCR-derived runs
	UsedOCR bool
}

// Engine fuses native text runs and detected regions into blocks
type Engine struct {
	config FusionConfig
	ocr    OCRProvider
}

// NewEngine creates a fusion engine with default configuration.
// The OCR provider may be nil; low-coverage regions then keep whatever
// native text they have.
func NewEngine(ocr OCRProvider) *Engine {
	return NewEngineWithConfig(ocr, DefaultFusionConfig())
}

// NewEngineWithConfig creates a fusion engine with custom configuration
func NewEngineWithConfig(ocr OCRProvider, config FusionConfig) *Engine {
	config.defaults()
	return &Engine{
		config: config,
		ocr:    ocr,
	}
}

// regionState tracks one region proposal through fusion
type regionState struct {
	region  model.LayoutRegion
	runs    []int // indices into input.Runs
	ocrRuns []model.TextRun
	live    bool
	flags   model.BlockFlags
}

// Fuse merges a page's native runs and detected regions into fused blocks.
// The result is deterministic: fusing the same input twice yields identical
// blocks. The only returned error is context cancellation (e.g. a page
// deadline expiring mid-OCR); callers should then fall back to FallbackFuse.
func (e *Engine) Fuse(ctx context.Context, input *PageInput, regions []model.LayoutRegion) (*FusionResult, error) {
	states := sortRegions(regions)

	orphans := e.assignRuns(input.Runs, states)

	result := &FusionResult{}
	if err := e.augmentWithOCR(ctx, input, states, result); err != nil {
		return nil, err
	}

	e.resolveOverlaps(states)

	for _, st := range states {
		if !st.live {
			continue
		}
		result.Blocks = append(result.Blocks, e.buildBlock(input, st))
	}

	synthetic := clusterOrphans(collectRuns(input.Runs, orphans),
		e.config.LineHeightTolerance, e.config.BlockGapTolerance)
	result.Blocks = append(result.Blocks, synthetic...)
	result.OrphanRuns = len(orphans)

	for _, b := range result.Blocks {
		if b.Provenance.NativeFraction < 1.0 {
			result.UsedOCR = true
			break
		}
	}

	return result, nil
}

// FallbackFuse produces a degraded whole-page fusion from native text only,
// used when region detection failed for the page. The entire page becomes a
// single paragraph block.
func (e *Engine) FallbackFuse(input *PageInput) *FusionResult {
	result := &FusionResult{}
	if len(input.Runs) == 0 {
		return result
	}

	block := &model.FusedBlock{
		Class:       model.ClassParagraph,
		Order:       -1,
		GlobalIndex: -1,
	}
	for _, run := range input.Runs {
		block.AddRun(run)
	}
	block.Provenance.Flags = model.FlagDegraded
	block.SortRuns()

	result.Blocks = []*model.FusedBlock{block}
	return result
}

// sortRegions orders region proposals by descending confidence, breaking
// ties by position so fusion is deterministic. Degenerate proposals with
// zero-area boxes are dropped; any text under them is recovered by orphan
// clustering.
func sortRegions(regions []model.LayoutRegion) []*regionState {
	states := make([]*regionState, 0, len(regions))
	for _, r := range regions {
		if !r.BBox.IsValid() {
			continue
		}
		states = append(states, &regionState{region: r, live: true})
	}

	sort.SliceStable(states, func(i, j int) bool {
		ri, rj := states[i].region, states[j].region
		if ri.Confidence != rj.Confidence {
			return ri.Confidence > rj.Confidence
		}
		if ri.BBox.Y != rj.BBox.Y {
			return ri.BBox.Y < rj.BBox.Y
		}
		return ri.BBox.X < rj.BBox.X
	})

	return states
}

// assignRuns assigns each run to the highest-confidence region containing
// its centroid, breaking confidence ties by largest run-region IoU.
// Returns the indices of runs that matched no region.
func (e *Engine) assignRuns(runs []model.TextRun, states []*regionState) []int {
	var orphans []int

	for ri, run := range runs {
		centroid := run.BBox.Center()

		best := -1
		bestIoU := -1.0
		for si, st := range states {
			if !st.region.BBox.Contains(centroid) {
				continue
			}
			if best >= 0 && st.region.Confidence < states[best].region.Confidence {
				// states are confidence-sorted; nothing better follows
				break
			}
			iou := run.BBox.IoU(st.region.BBox)
			if best < 0 || iou > bestIoU {
				best = si
				bestIoU = iou
			}
		}

		if best < 0 {
			orphans = append(orphans, ri)
			continue
		}
		states[best].runs = append(states[best].runs, ri)
	}

	return orphans
}

// augmentWithOCR invokes the OCR provider on regions whose native coverage
// falls below the configured threshold
func (e *Engine) augmentWithOCR(ctx context.Context, input *PageInput, states []*regionState, result *FusionResult) error {
	if e.ocr == nil || input.Image == nil {
		return nil
	}

	for _, st := range states {
		if err := ctx.Err(); err != nil {
			return err
		}
		if nativeCoverage(input.Runs, st) >= e.config.MinNativeCoverage {
			continue
		}

		crop := cropRegion(input.Image, st.region.BBox.Expand(e.config.OCRPadding).Clamp(input.Width, input.Height))
		if crop == nil {
			continue
		}

		recognized, err := e.ocr.RecognizeRegion(ctx, crop.img)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("layout: ocr for page %d: %w", input.Index, ctx.Err())
			}
			e.config.Logger.Warn("region OCR failed",
				"page", input.Index,
				"class", st.region.Class.String(),
				"error", err)
			st.flags |= model.FlagOCRFailed
			continue
		}

		for _, r := range recognized {
			text := norm.NFC.String(strings.TrimSpace(r.Text))
			if text == "" {
				continue
			}
			st.ocrRuns = append(st.ocrRuns, model.NewOCRRun(text, crop.toPage(r.BBox), r.Confidence))
		}
		if len(st.ocrRuns) > 0 {
			result.OCRRegions++
		}
	}

	return nil
}

// nativeCoverage computes the fraction of a region's area covered by its
// assigned native runs
func nativeCoverage(runs []model.TextRun, st *regionState) float64 {
	area := st.region.BBox.Area()
	if area <= 0 {
		return 0
	}

	covered := 0.0
	for _, ri := range st.runs {
		covered += runs[ri].BBox.Intersection(st.region.BBox).Area()
	}
	return covered / area
}

// containmentRatio is the overlap share, relative to the smaller box, above
// which a same-class proposal nested inside a larger one counts as a
// duplicate even when the IoU is low
const containmentRatio = 0.9

// resolveOverlaps merges duplicate region proposals. When two live regions
// overlap beyond the IoU threshold, the lower-confidence one is folded into
// the higher-confidence one, unless they carry different classes and both
// clear the confidence floor, in which case both are kept and flagged as an
// ambiguous layout. A confidence tie between different classes also keeps
// both. A same-class region almost fully contained in another is always a
// duplicate, whatever its IoU.
func (e *Engine) resolveOverlaps(states []*regionState) {
	for i := 0; i < len(states); i++ {
		if !states[i].live {
			continue
		}
		for j := i + 1; j < len(states); j++ {
			if !states[j].live {
				continue
			}
			hi, lo := states[i], states[j]
			if hi.region.BBox.IoU(lo.region.BBox) <= e.config.MergeIoU {
				if hi.region.Class != lo.region.Class ||
					hi.region.BBox.OverlapRatio(lo.region.BBox) < containmentRatio {
					continue
				}
			}

			differentClasses := hi.region.Class != lo.region.Class
			bothConfident := hi.region.Confidence >= e.config.ClassConfidenceFloor &&
				lo.region.Confidence >= e.config.ClassConfidenceFloor

			if differentClasses && bothConfident {
				hi.flags |= model.FlagAmbiguousOverlap
				lo.flags |= model.FlagAmbiguousOverlap
				continue
			}

			hi.runs = append(hi.runs, lo.runs...)
			hi.ocrRuns = append(hi.ocrRuns, lo.ocrRuns...)
			hi.flags |= lo.flags
			lo.live = false
		}
	}
}

// buildBlock constructs the fused block for a surviving region
func (e *Engine) buildBlock(input *PageInput, st *regionState) *model.FusedBlock {
	block := model.NewFusedBlock(st.region)

	// Merged regions can hand over runs out of order; restore input order
	// before adding so identical input yields identical blocks
	sort.Ints(st.runs)
	for _, ri := range st.runs {
		block.AddRun(input.Runs[ri])
	}
	for _, r := range st.ocrRuns {
		block.AddRun(r)
	}

	block.Provenance.Flags |= st.flags
	block.SortRuns()
	return block
}

// collectRuns extracts the runs at the given indices, preserving order
func collectRuns(runs []model.TextRun, indices []int) []model.TextRun {
	out := make([]model.TextRun, 0, len(indices))
	for _, i := range indices {
		out = append(out, runs[i])
	}
	return out
}
