package layout

import (
	"sort"

	"github.com/tsawler/strata/model"
)

// columnGap is a vertical band of whitespace separating columns
type columnGap struct {
	left  float64
	right float64
}

func (g columnGap) center() float64 {
	return (g.left + g.right) / 2
}

// detectColumnGaps finds vertical whitespace bands that separate columns of
// text. The horizontal axis is partitioned at block edges into elementary
// intervals; an interval is part of a gap when the blocks covering it span
// less than (1 - minShare) of the segment's height. Adjacent gap intervals
// merge, and merged gaps narrower than minWidth are discarded.
func detectColumnGaps(blocks []*model.FusedBlock, minWidth, minShare float64) []columnGap {
	if len(blocks) < 2 {
		return nil
	}

	top := blocks[0].BBox.Top()
	bottom := blocks[0].BBox.Bottom()
	for _, b := range blocks[1:] {
		if b.BBox.Top() < top {
			top = b.BBox.Top()
		}
		if b.BBox.Bottom() > bottom {
			bottom = b.BBox.Bottom()
		}
	}
	height := bottom - top
	if height <= 0 {
		return nil
	}

	edges := make([]float64, 0, len(blocks)*2)
	for _, b := range blocks {
		edges = append(edges, b.BBox.Left(), b.BBox.Right())
	}
	sort.Float64s(edges)
	edges = dedupe(edges)

	var gaps []columnGap
	for i := 0; i < len(edges)-1; i++ {
		left, right := edges[i], edges[i+1]
		if right-left <= 0 {
			continue
		}

		covered := coveredHeight(blocks, left, right)
		if 1-covered/height < minShare {
			continue
		}

		if n := len(gaps); n > 0 && gaps[n-1].right == left {
			gaps[n-1].right = right
		} else {
			gaps = append(gaps, columnGap{left: left, right: right})
		}
	}

	kept := gaps[:0]
	for _, g := range gaps {
		if g.right-g.left >= minWidth {
			kept = append(kept, g)
		}
	}
	return kept
}

// coveredHeight sums the vertical extent of blocks overlapping the x-interval
// [left, right), merging overlapping extents so stacked blocks count once
func coveredHeight(blocks []*model.FusedBlock, left, right float64) float64 {
	mid := (left + right) / 2

	type span struct{ top, bottom float64 }
	var spans []span
	for _, b := range blocks {
		if b.BBox.Left() < mid && b.BBox.Right() > mid {
			spans = append(spans, span{b.BBox.Top(), b.BBox.Bottom()})
		}
	}
	if len(spans) == 0 {
		return 0
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].top < spans[j].top })

	total := 0.0
	cur := spans[0]
	for _, s := range spans[1:] {
		if s.top <= cur.bottom {
			if s.bottom > cur.bottom {
				cur.bottom = s.bottom
			}
			continue
		}
		total += cur.bottom - cur.top
		cur = s
	}
	total += cur.bottom - cur.top
	return total
}

// columnIndex returns which column a block belongs to, given the detected
// gap separators ordered left to right
func columnIndex(b *model.FusedBlock, gaps []columnGap) int {
	center := b.BBox.Center().X
	idx := 0
	for _, g := range gaps {
		if center > g.center() {
			idx++
		}
	}
	return idx
}

func dedupe(sorted []float64) []float64 {
	out := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}
