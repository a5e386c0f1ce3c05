package layout

import (
	"math"
	"sort"

	"github.com/tsawler/strata/model"
)

// OrderConfig holds configuration for the reading order assigner
type OrderConfig struct {
	// BandTolerance is the vertical distance, in page units, within which
	// two blocks are treated as sitting on the same horizontal band.
	// Default: 6.
	BandTolerance float64 `yaml:"band_tolerance"`

	// ColumnGapWidth is the minimum width of a whitespace band for it to
	// count as a column separator. Default: 18.
	ColumnGapWidth float64 `yaml:"column_gap_width"`

	// ColumnGapShare is the fraction of a segment's height a whitespace
	// band must span to count as a column separator. Default: 0.6.
	ColumnGapShare float64 `yaml:"column_gap_share"`

	// SpanningThreshold is the fraction of the page width a block must
	// cover to be treated as spanning all columns, splitting the flow into
	// separate segments above and below it. Default: 0.7.
	SpanningThreshold float64 `yaml:"spanning_threshold"`

	// CaptionRadius is the maximum distance between a caption and a table
	// or figure for the caption to be anchored to it. Default: 48.
	CaptionRadius float64 `yaml:"caption_radius"`
}

// DefaultOrderConfig returns sensible default configuration
func DefaultOrderConfig() OrderConfig {
	return OrderConfig{
		BandTolerance:     6,
		ColumnGapWidth:    18,
		ColumnGapShare:    0.6,
		SpanningThreshold: 0.7,
		CaptionRadius:     48,
	}
}

func (c *OrderConfig) defaults() {
	d := DefaultOrderConfig()
	if c.BandTolerance <= 0 {
		c.BandTolerance = d.BandTolerance
	}
	if c.ColumnGapWidth <= 0 {
		c.ColumnGapWidth = d.ColumnGapWidth
	}
	if c.ColumnGapShare <= 0 {
		c.ColumnGapShare = d.ColumnGapShare
	}
	if c.SpanningThreshold <= 0 {
		c.SpanningThreshold = d.SpanningThreshold
	}
	if c.CaptionRadius <= 0 {
		c.CaptionRadius = d.CaptionRadius
	}
}

// Assigner sequences fused blocks into reading order
type Assigner struct {
	config OrderConfig
}

// NewAssigner creates an assigner with default configuration
func NewAssigner() *Assigner {
	return NewAssignerWithConfig(DefaultOrderConfig())
}

// NewAssignerWithConfig creates an assigner with custom configuration
func NewAssignerWithConfig(config OrderConfig) *Assigner {
	config.defaults()
	return &Assigner{config: config}
}

// floatUnit is a floating block together with captions anchored to it
type floatUnit struct {
	block    *model.FusedBlock
	captions []*model.FusedBlock
}

// Order sequences the page's blocks: headers first, then the text flow with
// floating tables and figures interleaved by position, then footers. Each
// block's Order field is set to its position in the returned slice.
//
// Multi-column flow is read column-major: a column is exhausted top to bottom
// before the next column starts. Blocks spanning the page width split the
// flow into segments ordered independently.
func (a *Assigner) Order(blocks []*model.FusedBlock, pageWidth, pageHeight float64) []*model.FusedBlock {
	var headers, footers, flow, captions []*model.FusedBlock
	var floats []*model.FusedBlock

	for _, b := range blocks {
		switch {
		case b.Class == model.ClassHeader:
			headers = append(headers, b)
		case b.Class == model.ClassFooter:
			footers = append(footers, b)
		case b.Class == model.ClassCaption:
			captions = append(captions, b)
		case b.Class.IsFloating():
			floats = append(floats, b)
		default:
			flow = append(flow, b)
		}
	}

	units := a.anchorCaptions(floats, captions, &flow)
	body := a.orderFlow(flow, pageWidth)
	body = insertFloats(body, units)

	positionSort(headers)
	positionSort(footers)

	ordered := make([]*model.FusedBlock, 0, len(blocks))
	ordered = append(ordered, headers...)
	ordered = append(ordered, body...)
	ordered = append(ordered, footers...)

	for i, b := range ordered {
		b.Order = i
	}
	return ordered
}

// anchorCaptions attaches each caption to the nearest table or figure within
// the caption radius. Captions with no anchor nearby rejoin the text flow.
func (a *Assigner) anchorCaptions(floats, captions []*model.FusedBlock, flow *[]*model.FusedBlock) []*floatUnit {
	positionSort(floats)

	units := make([]*floatUnit, len(floats))
	for i, f := range floats {
		units[i] = &floatUnit{block: f}
	}

	positionSort(captions)
	for _, c := range captions {
		best := -1
		bestDist := a.config.CaptionRadius
		for i, u := range units {
			d := edgeDistance(c.BBox, u.block.BBox)
			if d <= bestDist {
				best = i
				bestDist = d
			}
		}
		if best < 0 {
			*flow = append(*flow, c)
			continue
		}
		units[best].captions = append(units[best].captions, c)
	}

	return units
}

// orderFlow sequences the non-floating text blocks. Spanning blocks split the
// flow into vertical segments; each segment is ordered column-major when
// column gaps are detected, otherwise band by band.
func (a *Assigner) orderFlow(flow []*model.FusedBlock, pageWidth float64) []*model.FusedBlock {
	if len(flow) == 0 {
		return nil
	}

	var spanning, rest []*model.FusedBlock
	for _, b := range flow {
		if pageWidth > 0 && b.BBox.Width >= a.config.SpanningThreshold*pageWidth {
			spanning = append(spanning, b)
		} else {
			rest = append(rest, b)
		}
	}
	positionSort(spanning)

	// Segment k holds the blocks between spanning block k-1 and spanning
	// block k; segment len(spanning) holds everything below the last one
	segments := make([][]*model.FusedBlock, len(spanning)+1)
	for _, b := range rest {
		seg := 0
		for _, sp := range spanning {
			if b.BBox.Center().Y > sp.BBox.Center().Y {
				seg++
			}
		}
		segments[seg] = append(segments[seg], b)
	}

	var ordered []*model.FusedBlock
	for i, seg := range segments {
		ordered = append(ordered, a.orderSegment(seg)...)
		if i < len(spanning) {
			ordered = append(ordered, spanning[i])
		}
	}
	return ordered
}

// orderSegment sequences one vertical segment of the flow
func (a *Assigner) orderSegment(seg []*model.FusedBlock) []*model.FusedBlock {
	if len(seg) == 0 {
		return nil
	}

	gaps := detectColumnGaps(seg, a.config.ColumnGapWidth, a.config.ColumnGapShare)
	if len(gaps) == 0 {
		a.bandSort(seg)
		return seg
	}

	columns := make([][]*model.FusedBlock, len(gaps)+1)
	for _, b := range seg {
		col := columnIndex(b, gaps)
		columns[col] = append(columns[col], b)
	}

	var ordered []*model.FusedBlock
	for _, col := range columns {
		a.bandSort(col)
		ordered = append(ordered, col...)
	}
	return ordered
}

// bandSort orders blocks top to bottom, with blocks whose tops fall within
// the band tolerance ordered left to right
func (a *Assigner) bandSort(blocks []*model.FusedBlock) {
	tol := a.config.BandTolerance
	sort.SliceStable(blocks, func(i, j int) bool {
		dy := blocks[i].BBox.Top() - blocks[j].BBox.Top()
		if dy < -tol {
			return true
		}
		if dy > tol {
			return false
		}
		return blocks[i].BBox.Left() < blocks[j].BBox.Left()
	})
}

// insertFloats merges floating units into the ordered flow by vertical
// position: each float lands after the last flow block that starts above it,
// immediately followed by its anchored captions
func insertFloats(body []*model.FusedBlock, units []*floatUnit) []*model.FusedBlock {
	for _, u := range units {
		pos := len(body)
		for i, b := range body {
			if b.BBox.Top() >= u.block.BBox.Top() {
				pos = i
				break
			}
		}

		insert := append([]*model.FusedBlock{u.block}, u.captions...)
		body = append(body[:pos], append(insert, body[pos:]...)...)
	}
	return body
}

// positionSort orders blocks by top edge, then left edge
func positionSort(blocks []*model.FusedBlock) {
	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].BBox.Top() != blocks[j].BBox.Top() {
			return blocks[i].BBox.Top() < blocks[j].BBox.Top()
		}
		return blocks[i].BBox.Left() < blocks[j].BBox.Left()
	})
}

// edgeDistance is the shortest distance between two boxes' borders, zero when
// they touch or overlap
func edgeDistance(a, b model.BBox) float64 {
	dx := 0.0
	if a.Right() < b.Left() {
		dx = b.Left() - a.Right()
	} else if b.Right() < a.Left() {
		dx = a.Left() - b.Right()
	}

	dy := 0.0
	if a.Bottom() < b.Top() {
		dy = b.Top() - a.Bottom()
	} else if b.Bottom() < a.Top() {
		dy = a.Top() - b.Bottom()
	}

	return math.Hypot(dx, dy)
}
