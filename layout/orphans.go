package layout

import (
	"sort"

	"github.com/tsawler/strata/model"
)

// clusterOrphans coalesces runs that matched no detected region into
// synthetic paragraph blocks so their text is not lost. Runs are first
// grouped into lines by vertical proximity, then consecutive lines close
// enough together join the same block.
//
// lineTol and gapTol are expressed in multiples of the median run height.
func clusterOrphans(runs []model.TextRun, lineTol, gapTol float64) []*model.FusedBlock {
	if len(runs) == 0 {
		return nil
	}

	unit := medianRunHeight(runs)

	sorted := append([]model.TextRun(nil), runs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].BBox.Y != sorted[j].BBox.Y {
			return sorted[i].BBox.Y < sorted[j].BBox.Y
		}
		return sorted[i].BBox.X < sorted[j].BBox.X
	})

	lines := groupLines(sorted, unit*lineTol)

	var blocks []*model.FusedBlock
	var current []model.TextRun
	var currentBottom, currentLeft, currentRight float64

	flush := func() {
		if len(current) == 0 {
			return
		}
		blocks = append(blocks, syntheticBlock(current))
		current = nil
	}

	for _, line := range lines {
		top, bottom := lineExtent(line)
		left, right := lineSpan(line)

		// A line joins the current block only when it is close vertically
		// and its x-range overlaps the block's
		if len(current) > 0 {
			if top-currentBottom > unit*gapTol || left > currentRight || right < currentLeft {
				flush()
			}
		}
		if len(current) == 0 {
			currentBottom, currentLeft, currentRight = bottom, left, right
		} else {
			if bottom > currentBottom {
				currentBottom = bottom
			}
			if left < currentLeft {
				currentLeft = left
			}
			if right > currentRight {
				currentRight = right
			}
		}
		current = append(current, line...)
	}
	flush()

	return blocks
}

// groupLines partitions vertically sorted runs into lines. A run joins the
// current line when its vertical center is within tol of the line's center.
func groupLines(sorted []model.TextRun, tol float64) [][]model.TextRun {
	var lines [][]model.TextRun
	var line []model.TextRun
	var lineCenter float64

	for _, run := range sorted {
		c := run.BBox.Center().Y
		if len(line) > 0 && abs(c-lineCenter) > tol {
			lines = append(lines, line)
			line = nil
		}
		line = append(line, run)

		// Running mean keeps the line center stable on slightly sloped text
		sum := 0.0
		for _, r := range line {
			sum += r.BBox.Center().Y
		}
		lineCenter = sum / float64(len(line))
	}
	if len(line) > 0 {
		lines = append(lines, line)
	}

	return lines
}

// syntheticBlock builds a paragraph block from orphan runs
func syntheticBlock(runs []model.TextRun) *model.FusedBlock {
	block := &model.FusedBlock{
		Class:       model.ClassParagraph,
		Order:       -1,
		GlobalIndex: -1,
	}
	for _, run := range runs {
		block.AddRun(run)
	}
	block.Provenance.Flags |= model.FlagSynthetic
	block.SortRuns()
	return block
}

func lineSpan(line []model.TextRun) (left, right float64) {
	left = line[0].BBox.Left()
	right = line[0].BBox.Right()
	for _, run := range line[1:] {
		if run.BBox.Left() < left {
			left = run.BBox.Left()
		}
		if run.BBox.Right() > right {
			right = run.BBox.Right()
		}
	}
	return left, right
}

func lineExtent(line []model.TextRun) (top, bottom float64) {
	top = line[0].BBox.Top()
	bottom = line[0].BBox.Bottom()
	for _, run := range line[1:] {
		if run.BBox.Top() < top {
			top = run.BBox.Top()
		}
		if run.BBox.Bottom() > bottom {
			bottom = run.BBox.Bottom()
		}
	}
	return top, bottom
}

func medianRunHeight(runs []model.TextRun) float64 {
	heights := make([]float64, 0, len(runs))
	for _, r := range runs {
		if r.BBox.Height > 0 {
			heights = append(heights, r.BBox.Height)
		}
	}
	if len(heights) == 0 {
		return 1
	}
	sort.Float64s(heights)
	return heights[len(heights)/2]
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
