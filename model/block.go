package model

import (
	"sort"
	"strings"
)

// BlockFlags records conditions raised while a block was fused.
// Flags are informational provenance, never errors.
type BlockFlags uint8

const (
	// FlagAmbiguousOverlap marks a block whose region overlapped another
	// region of a different class with comparable confidence; both were kept
	FlagAmbiguousOverlap BlockFlags = 1 << iota

	// FlagOCRFailed marks a block whose OCR augmentation call failed;
	// the block carries whatever native text it had
	FlagOCRFailed

	// FlagSynthetic marks a block coalesced from orphan runs rather than
	// backed by a detected region
	FlagSynthetic

	// FlagDegraded marks a whole-page fallback block produced when region
	// detection failed for the page
	FlagDegraded
)

// Has reports whether all bits in flag are set
func (f BlockFlags) Has(flag BlockFlags) bool {
	return f&flag == flag
}

// String returns a comma-separated list of set flags
func (f BlockFlags) String() string {
	var parts []string
	if f.Has(FlagAmbiguousOverlap) {
		parts = append(parts, "ambiguous-overlap")
	}
	if f.Has(FlagOCRFailed) {
		parts = append(parts, "ocr-failed")
	}
	if f.Has(FlagSynthetic) {
		parts = append(parts, "synthetic")
	}
	if f.Has(FlagDegraded) {
		parts = append(parts, "degraded")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

// Provenance records where a fused block's content came from
type Provenance struct {
	// NativeFraction is the fraction of the block's runs that came from the
	// native text layer (1.0 when the block has no OCR runs)
	NativeFraction float64

	// DetectorConfidence is the confidence of the region behind this block
	// (0 for synthetic blocks)
	DetectorConfidence float64

	// Flags raised during fusion
	Flags BlockFlags
}

// FusedBlock is a layout region together with the ordered text runs assigned
// to it. It is constructed once by the fusion engine; afterwards only Order
// and GlobalIndex are assigned (append-only enrichment).
type FusedBlock struct {
	// Class is the resolved semantic class
	Class RegionClass

	// BBox covers the region and all assigned runs
	BBox BBox

	// Runs assigned to this block, in reading order within the block
	Runs []TextRun

	// Provenance for this block
	Provenance Provenance

	// Order is the block's position in the page reading sequence,
	// assigned by the reading order assigner (-1 until assigned)
	Order int

	// GlobalIndex is the block's position in the whole document,
	// assigned at build time (-1 until assigned)
	GlobalIndex int

	// HeadingLevel is set for Title blocks at build time (1-6, 0 otherwise)
	HeadingLevel int
}

// NewFusedBlock creates a block for a detected region
func NewFusedBlock(region LayoutRegion) *FusedBlock {
	return &FusedBlock{
		Class: region.Class,
		BBox:  region.BBox,
		Provenance: Provenance{
			NativeFraction:     1.0,
			DetectorConfidence: region.Confidence,
		},
		Order:       -1,
		GlobalIndex: -1,
	}
}

// AddRun appends a run to the block, growing the bounding box and updating
// the native fraction
func (b *FusedBlock) AddRun(run TextRun) {
	b.Runs = append(b.Runs, run)
	if b.BBox.IsEmpty() {
		b.BBox = run.BBox
	} else {
		b.BBox = b.BBox.Union(run.BBox)
	}

	native := 0
	for _, r := range b.Runs {
		if r.IsNative() {
			native++
		}
	}
	b.Provenance.NativeFraction = float64(native) / float64(len(b.Runs))
}

// SortRuns orders the block's runs top-to-bottom, left-to-right. Runs whose
// vertical centers fall within half a run height of each other are treated as
// the same line and ordered by X.
func (b *FusedBlock) SortRuns() {
	sort.SliceStable(b.Runs, func(i, j int) bool {
		ri, rj := b.Runs[i], b.Runs[j]
		tolerance := minHeight(ri.BBox.Height, rj.BBox.Height) * 0.5
		dy := ri.BBox.Center().Y - rj.BBox.Center().Y
		if dy < -tolerance {
			return true
		}
		if dy > tolerance {
			return false
		}
		return ri.BBox.X < rj.BBox.X
	})
}

// Text joins the block's runs into a single string. Runs on the same line are
// joined with spaces; a new line starts when the vertical center moves by more
// than half a run height.
func (b *FusedBlock) Text() string {
	if len(b.Runs) == 0 {
		return ""
	}

	var sb strings.Builder
	prev := b.Runs[0]
	sb.WriteString(prev.Text)

	for _, run := range b.Runs[1:] {
		tolerance := minHeight(prev.BBox.Height, run.BBox.Height) * 0.5
		if run.BBox.Center().Y-prev.BBox.Center().Y > tolerance {
			sb.WriteString("\n")
		} else {
			sb.WriteString(" ")
		}
		sb.WriteString(run.Text)
		prev = run
	}

	return sb.String()
}

// NativeRunCount returns the number of native-layer runs in the block
func (b *FusedBlock) NativeRunCount() int {
	n := 0
	for _, r := range b.Runs {
		if r.IsNative() {
			n++
		}
	}
	return n
}

func minHeight(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
