package strata

import (
	"fmt"
	"math"
	"sort"

	"github.com/tsawler/strata/model"
)

// BuildDocument assembles processed pages into the final document: pages are
// ordered by index, blocks receive global indices, title blocks receive
// heading levels, and the run coverage invariant is verified.
//
// The invariant: every native text run of every page appears in exactly one
// fused block. A violation returns a StructuralIntegrityError and signals a
// fusion defect, not a data problem.
func BuildDocument(pages []*model.Page, gaps []model.PageGap, meta model.DocumentMetadata) (*model.Document, error) {
	sorted := append([]*model.Page(nil), pages...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Index < sorted[j].Index
	})

	global := 0
	for _, page := range sorted {
		if err := verifyRunCoverage(page); err != nil {
			return nil, err
		}
		for _, block := range page.Blocks {
			block.GlobalIndex = global
			global++
		}
	}

	assignHeadingLevels(sorted)

	sortedGaps := append([]model.PageGap(nil), gaps...)
	sort.Slice(sortedGaps, func(i, j int) bool {
		return sortedGaps[i].Index < sortedGaps[j].Index
	})

	return &model.Document{
		Metadata: meta,
		Pages:    sorted,
		Gaps:     sortedGaps,
	}, nil
}

// verifyRunCoverage checks that each of the page's native runs landed in
// exactly one block. OCR runs carry no native sequence and are exempt.
func verifyRunCoverage(page *model.Page) error {
	counts := make(map[int]int)
	for _, block := range page.Blocks {
		for _, run := range block.Runs {
			if run.IsNative() {
				counts[run.Seq]++
			}
		}
	}

	for seq, n := range counts {
		if seq < 0 || seq >= len(page.Runs) {
			return &StructuralIntegrityError{
				PageIndex: page.Index,
				Detail:    fmt.Sprintf("block carries unknown native run %d", seq),
			}
		}
		if n > 1 {
			return &StructuralIntegrityError{
				PageIndex: page.Index,
				Detail:    fmt.Sprintf("native run %d assigned to %d blocks", seq, n),
			}
		}
	}
	for seq := 0; seq < len(page.Runs); seq++ {
		if counts[seq] == 0 {
			return &StructuralIntegrityError{
				PageIndex: page.Index,
				Detail:    fmt.Sprintf("native run %d missing from every block", seq),
			}
		}
	}
	return nil
}

// assignHeadingLevels ranks title blocks into heading levels by height:
// the tallest titles in the document become level 1, the next distinct
// height level 2, and so on down to level 6. Heights are rounded to whole
// units so raster jitter does not split a level.
func assignHeadingLevels(pages []*model.Page) {
	distinct := make(map[float64]bool)
	for _, page := range pages {
		for _, block := range page.Blocks {
			if block.Class == model.ClassTitle {
				distinct[math.Round(block.BBox.Height)] = true
			}
		}
	}
	if len(distinct) == 0 {
		return
	}

	heights := make([]float64, 0, len(distinct))
	for h := range distinct {
		heights = append(heights, h)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(heights)))

	levels := make(map[float64]int, len(heights))
	for rank, h := range heights {
		level := rank + 1
		if level > 6 {
			level = 6
		}
		levels[h] = level
	}

	for _, page := range pages {
		for _, block := range page.Blocks {
			if block.Class == model.ClassTitle {
				block.HeadingLevel = levels[math.Round(block.BBox.Height)]
			}
		}
	}
}
