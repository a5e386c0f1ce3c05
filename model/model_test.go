package model

import (
	"math"
	"testing"
)

func TestBBoxEdges(t *testing.T) {
	b := NewBBox(10, 20, 100, 50)

	if b.Left() != 10 {
		t.Errorf("Left() = %v, want 10", b.Left())
	}
	if b.Right() != 110 {
		t.Errorf("Right() = %v, want 110", b.Right())
	}
	if b.Top() != 20 {
		t.Errorf("Top() = %v, want 20", b.Top())
	}
	if b.Bottom() != 70 {
		t.Errorf("Bottom() = %v, want 70", b.Bottom())
	}

	c := b.Center()
	if c.X != 60 || c.Y != 45 {
		t.Errorf("Center() = %v, want {60 45}", c)
	}
}

func TestBBoxContains(t *testing.T) {
	b := NewBBox(0, 0, 100, 100)

	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"center", Point{50, 50}, true},
		{"corner", Point{0, 0}, true},
		{"edge", Point{100, 50}, true},
		{"outside right", Point{101, 50}, false},
		{"outside below", Point{50, 101}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Contains(tt.p); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestBBoxIntersection(t *testing.T) {
	a := NewBBox(0, 0, 100, 100)
	b := NewBBox(50, 50, 100, 100)

	inter := a.Intersection(b)
	if inter.X != 50 || inter.Y != 50 || inter.Width != 50 || inter.Height != 50 {
		t.Errorf("Intersection = %+v, want {50 50 50 50}", inter)
	}

	// Disjoint boxes
	c := NewBBox(200, 200, 10, 10)
	if !a.Intersection(c).IsEmpty() {
		t.Error("Intersection of disjoint boxes should be empty")
	}
}

func TestBBoxIoU(t *testing.T) {
	a := NewBBox(0, 0, 100, 100)

	tests := []struct {
		name string
		b    BBox
		want float64
	}{
		{"identical", NewBBox(0, 0, 100, 100), 1.0},
		{"half overlap", NewBBox(50, 0, 100, 100), 5000.0 / 15000.0},
		{"disjoint", NewBBox(200, 0, 100, 100), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.IoU(tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("IoU = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBBoxClamp(t *testing.T) {
	b := NewBBox(-10, -10, 50, 50)
	clamped := b.Clamp(612, 792)

	if clamped.X != 0 || clamped.Y != 0 {
		t.Errorf("Clamp origin = (%v, %v), want (0, 0)", clamped.X, clamped.Y)
	}
	if clamped.Width != 40 || clamped.Height != 40 {
		t.Errorf("Clamp size = (%v, %v), want (40, 40)", clamped.Width, clamped.Height)
	}

	// Box entirely outside the page clamps to empty
	outside := NewBBox(700, 800, 50, 50).Clamp(612, 792)
	if !outside.IsEmpty() {
		t.Errorf("Clamp of outside box should be empty, got %+v", outside)
	}
}

func TestRegionClassString(t *testing.T) {
	tests := []struct {
		class RegionClass
		want  string
	}{
		{ClassParagraph, "Paragraph"},
		{ClassTitle, "Title"},
		{ClassList, "List"},
		{ClassTable, "Table"},
		{ClassFigure, "Figure"},
		{ClassCaption, "Caption"},
		{ClassHeader, "Header"},
		{ClassFooter, "Footer"},
		{ClassUnknown, "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.class.String(); got != tt.want {
			t.Errorf("RegionClass(%d).String() = %q, want %q", tt.class, got, tt.want)
		}
	}
}

func TestRegionClassIsFloating(t *testing.T) {
	floating := []RegionClass{ClassTable, ClassFigure, ClassCaption}
	for _, c := range floating {
		if !c.IsFloating() {
			t.Errorf("%v.IsFloating() = false, want true", c)
		}
	}

	flow := []RegionClass{ClassParagraph, ClassTitle, ClassList, ClassHeader, ClassFooter}
	for _, c := range flow {
		if c.IsFloating() {
			t.Errorf("%v.IsFloating() = true, want false", c)
		}
	}
}

func TestBlockFlags(t *testing.T) {
	var f BlockFlags
	if f.String() != "none" {
		t.Errorf("empty flags String() = %q, want %q", f.String(), "none")
	}

	f |= FlagSynthetic | FlagOCRFailed
	if !f.Has(FlagSynthetic) {
		t.Error("expected FlagSynthetic to be set")
	}
	if !f.Has(FlagOCRFailed) {
		t.Error("expected FlagOCRFailed to be set")
	}
	if f.Has(FlagDegraded) {
		t.Error("FlagDegraded should not be set")
	}
	if f.String() != "ocr-failed,synthetic" {
		t.Errorf("String() = %q, want %q", f.String(), "ocr-failed,synthetic")
	}
}

func TestFusedBlockAddRun(t *testing.T) {
	region := LayoutRegion{
		Class:      ClassParagraph,
		BBox:       NewBBox(0, 0, 100, 40),
		Confidence: 0.9,
	}
	b := NewFusedBlock(region)

	if b.Order != -1 || b.GlobalIndex != -1 {
		t.Error("new block should have unassigned order and global index")
	}

	b.AddRun(NewNativeRun("hello", NewBBox(5, 5, 40, 10), 0))
	b.AddRun(NewOCRRun("world", NewBBox(50, 5, 40, 10), 0.8))

	if len(b.Runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(b.Runs))
	}
	if b.Provenance.NativeFraction != 0.5 {
		t.Errorf("NativeFraction = %v, want 0.5", b.Provenance.NativeFraction)
	}
	if b.NativeRunCount() != 1 {
		t.Errorf("NativeRunCount = %d, want 1", b.NativeRunCount())
	}

	// Run outside the region grows the bbox
	b.AddRun(NewNativeRun("below", NewBBox(5, 45, 40, 10), 1))
	if b.BBox.Bottom() < 55 {
		t.Errorf("bbox should grow to cover added run, bottom = %v", b.BBox.Bottom())
	}
}

func TestFusedBlockText(t *testing.T) {
	b := NewFusedBlock(LayoutRegion{Class: ClassParagraph, BBox: NewBBox(0, 0, 200, 40)})
	b.AddRun(NewNativeRun("Hello", NewBBox(0, 0, 40, 10), 0))
	b.AddRun(NewNativeRun("world.", NewBBox(45, 0, 40, 10), 1))
	b.AddRun(NewNativeRun("Next line.", NewBBox(0, 14, 80, 10), 2))

	want := "Hello world.\nNext line."
	if got := b.Text(); got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestFusedBlockSortRuns(t *testing.T) {
	b := NewFusedBlock(LayoutRegion{Class: ClassParagraph, BBox: NewBBox(0, 0, 200, 60)})
	// Added out of order: second line first, then first line right-to-left
	b.AddRun(NewNativeRun("third", NewBBox(0, 20, 40, 10), 2))
	b.AddRun(NewNativeRun("second", NewBBox(50, 0, 40, 10), 1))
	b.AddRun(NewNativeRun("first", NewBBox(0, 0, 40, 10), 0))

	b.SortRuns()

	got := []string{b.Runs[0].Text, b.Runs[1].Text, b.Runs[2].Text}
	want := []string{"first", "second", "third"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("run %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPageStatus(t *testing.T) {
	p := &Page{Index: 0, Width: 612, Height: 792}
	if p.Degraded() {
		t.Error("new page should not be degraded")
	}
	p.Status = PageDegraded
	if !p.Degraded() {
		t.Error("expected degraded page")
	}
	if p.Status.String() != "degraded" {
		t.Errorf("Status.String() = %q, want %q", p.Status.String(), "degraded")
	}
}

func TestDocumentAccessors(t *testing.T) {
	block := NewFusedBlock(LayoutRegion{Class: ClassTitle, BBox: NewBBox(0, 0, 100, 20)})
	doc := &Document{
		Pages: []*Page{
			{Index: 0, Blocks: []*FusedBlock{block}},
			{Index: 1, Status: PageDegraded},
		},
		Gaps: []PageGap{{Index: 2, Reason: "unreadable image"}},
	}

	if doc.PageCount() != 2 {
		t.Errorf("PageCount = %d, want 2", doc.PageCount())
	}
	if doc.BlockCount() != 1 {
		t.Errorf("BlockCount = %d, want 1", doc.BlockCount())
	}

	degraded := doc.DegradedPages()
	if len(degraded) != 1 || degraded[0] != 1 {
		t.Errorf("DegradedPages = %v, want [1]", degraded)
	}

	headings := doc.Headings()
	if len(headings) != 1 {
		t.Errorf("Headings = %d entries, want 1", len(headings))
	}
}
