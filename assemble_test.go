package strata

import (
	"errors"
	"testing"
	"time"

	"github.com/tsawler/strata/model"
)

// makePage builds a page whose runs are each wrapped in their own block
func makePage(index int, texts ...string) *model.Page {
	page := &model.Page{Index: index, Width: 600, Height: 800}
	for i, text := range texts {
		run := model.NewNativeRun(text, model.NewBBox(20, float64(20+i*30), 100, 12), i)
		page.Runs = append(page.Runs, run)

		block := &model.FusedBlock{Class: model.ClassParagraph, Order: i, GlobalIndex: -1}
		block.AddRun(run)
		page.Blocks = append(page.Blocks, block)
	}
	return page
}

func TestBuildDocumentAssignsGlobalIndices(t *testing.T) {
	pages := []*model.Page{
		makePage(1, "c", "d"),
		makePage(0, "a", "b"),
	}

	doc, err := BuildDocument(pages, nil, model.DocumentMetadata{Name: "doc.pdf"})
	if err != nil {
		t.Fatal(err)
	}

	if doc.Pages[0].Index != 0 || doc.Pages[1].Index != 1 {
		t.Fatal("pages should be sorted by index")
	}

	want := 0
	for _, page := range doc.Pages {
		for _, block := range page.Blocks {
			if block.GlobalIndex != want {
				t.Errorf("expected global index %d, got %d", want, block.GlobalIndex)
			}
			want++
		}
	}
}

func TestBuildDocumentDuplicatedRunFails(t *testing.T) {
	page := makePage(0, "a", "b")
	// The same native run lands in a second block: a fusion defect
	extra := &model.FusedBlock{Class: model.ClassParagraph}
	extra.AddRun(page.Runs[0])
	page.Blocks = append(page.Blocks, extra)

	_, err := BuildDocument([]*model.Page{page}, nil, model.DocumentMetadata{})
	var integrity *StructuralIntegrityError
	if !errors.As(err, &integrity) {
		t.Fatalf("expected StructuralIntegrityError, got %v", err)
	}
	if integrity.PageIndex != 0 {
		t.Errorf("error page index = %d", integrity.PageIndex)
	}
}

func TestBuildDocumentMissingRunFails(t *testing.T) {
	page := makePage(0, "a", "b")
	page.Blocks = page.Blocks[:1] // drop the block holding run 1

	_, err := BuildDocument([]*model.Page{page}, nil, model.DocumentMetadata{})
	var integrity *StructuralIntegrityError
	if !errors.As(err, &integrity) {
		t.Fatalf("expected StructuralIntegrityError, got %v", err)
	}
}

func TestBuildDocumentOCRRunsExempt(t *testing.T) {
	page := makePage(0, "a")
	page.Blocks[0].AddRun(model.NewOCRRun("recognized", model.NewBBox(20, 100, 80, 12), 0.7))

	if _, err := BuildDocument([]*model.Page{page}, nil, model.DocumentMetadata{}); err != nil {
		t.Fatalf("OCR runs must not trip the coverage check: %v", err)
	}
}

func TestBuildDocumentHeadingLevels(t *testing.T) {
	title := func(height float64) *model.FusedBlock {
		return &model.FusedBlock{
			Class: model.ClassTitle,
			BBox:  model.NewBBox(20, 20, 300, height),
		}
	}

	chapter := title(40)
	sectionA := title(24)
	sectionB := title(24.3) // raster jitter, same visual size
	subsection := title(16)

	pages := []*model.Page{
		{Index: 0, Blocks: []*model.FusedBlock{chapter, sectionA}},
		{Index: 1, Blocks: []*model.FusedBlock{sectionB, subsection}},
	}

	if _, err := BuildDocument(pages, nil, model.DocumentMetadata{}); err != nil {
		t.Fatal(err)
	}

	if chapter.HeadingLevel != 1 {
		t.Errorf("chapter level = %d, want 1", chapter.HeadingLevel)
	}
	if sectionA.HeadingLevel != 2 || sectionB.HeadingLevel != 2 {
		t.Errorf("section levels = %d, %d, want 2, 2",
			sectionA.HeadingLevel, sectionB.HeadingLevel)
	}
	if subsection.HeadingLevel != 3 {
		t.Errorf("subsection level = %d, want 3", subsection.HeadingLevel)
	}
}

func TestBuildDocumentSortsGaps(t *testing.T) {
	gaps := []model.PageGap{
		{Index: 3, Reason: "unreadable"},
		{Index: 1, Reason: "unreadable"},
	}

	doc, err := BuildDocument(nil, gaps, model.DocumentMetadata{
		Name:     "gappy.pdf",
		Duration: time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}
	if doc.Gaps[0].Index != 1 || doc.Gaps[1].Index != 3 {
		t.Errorf("gaps not sorted: %v", doc.Gaps)
	}
}
