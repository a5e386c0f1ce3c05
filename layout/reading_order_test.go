package layout

import (
	"testing"

	"github.com/tsawler/strata/model"
)

func makeBlock(class model.RegionClass, x, y, w, h float64) *model.FusedBlock {
	return &model.FusedBlock{
		Class:       class,
		BBox:        model.NewBBox(x, y, w, h),
		Order:       -1,
		GlobalIndex: -1,
	}
}

func assertOrder(t *testing.T, ordered []*model.FusedBlock, want []*model.FusedBlock) {
	t.Helper()
	if len(ordered) != len(want) {
		t.Fatalf("expected %d blocks, got %d", len(want), len(ordered))
	}
	for i := range want {
		if ordered[i] != want[i] {
			t.Errorf("position %d: wrong block (bbox %+v)", i, ordered[i].BBox)
		}
		if ordered[i].Order != i {
			t.Errorf("position %d: Order field = %d", i, ordered[i].Order)
		}
	}
}

func TestOrderSingleColumnTopToBottom(t *testing.T) {
	a := NewAssigner()

	p1 := makeBlock(model.ClassParagraph, 40, 50, 300, 80)
	p2 := makeBlock(model.ClassParagraph, 40, 200, 300, 80)
	p3 := makeBlock(model.ClassParagraph, 40, 350, 300, 80)

	// Shuffled input must not matter
	ordered := a.Order([]*model.FusedBlock{p3, p1, p2}, 600, 800)
	assertOrder(t, ordered, []*model.FusedBlock{p1, p2, p3})
}

func TestOrderIdenticalYOrdersLeftToRight(t *testing.T) {
	a := NewAssigner()

	// A 10-unit gutter is too narrow to split columns, so both blocks stay
	// in one band; identical vertical position must order left-to-right
	left := makeBlock(model.ClassParagraph, 40, 100, 200, 80)
	right := makeBlock(model.ClassParagraph, 250, 100, 200, 80)

	ordered := a.Order([]*model.FusedBlock{right, left}, 600, 800)
	assertOrder(t, ordered, []*model.FusedBlock{left, right})
}

func TestOrderTwoColumnsColumnMajor(t *testing.T) {
	a := NewAssigner()

	l1 := makeBlock(model.ClassParagraph, 40, 50, 200, 100)
	l2 := makeBlock(model.ClassParagraph, 40, 300, 200, 150)
	r1 := makeBlock(model.ClassParagraph, 300, 50, 200, 100)
	r2 := makeBlock(model.ClassParagraph, 300, 300, 200, 150)

	// Column-major: the left column is exhausted before the right starts,
	// never band-interleaved
	ordered := a.Order([]*model.FusedBlock{r1, l2, r2, l1}, 600, 800)
	assertOrder(t, ordered, []*model.FusedBlock{l1, l2, r1, r2})
}

func TestOrderSpanningBlockSplitsFlow(t *testing.T) {
	a := NewAssigner()

	title := makeBlock(model.ClassTitle, 40, 20, 520, 40) // spans the page
	l1 := makeBlock(model.ClassParagraph, 40, 100, 200, 100)
	l2 := makeBlock(model.ClassParagraph, 40, 250, 200, 100)
	r1 := makeBlock(model.ClassParagraph, 300, 100, 200, 100)
	r2 := makeBlock(model.ClassParagraph, 300, 250, 200, 100)

	ordered := a.Order([]*model.FusedBlock{l2, r1, title, r2, l1}, 600, 800)
	assertOrder(t, ordered, []*model.FusedBlock{title, l1, l2, r1, r2})
}

func TestOrderFloatInsertedByPosition(t *testing.T) {
	a := NewAssigner()

	p1 := makeBlock(model.ClassParagraph, 40, 50, 200, 80)
	table := makeBlock(model.ClassTable, 40, 150, 300, 120)
	p2 := makeBlock(model.ClassParagraph, 40, 300, 200, 80)

	ordered := a.Order([]*model.FusedBlock{p2, table, p1}, 600, 800)
	assertOrder(t, ordered, []*model.FusedBlock{p1, table, p2})
}

func TestOrderFloatBelowAllFlowComesLast(t *testing.T) {
	a := NewAssigner()

	l := makeBlock(model.ClassParagraph, 40, 50, 200, 300)
	r := makeBlock(model.ClassParagraph, 300, 50, 200, 300)
	table := makeBlock(model.ClassTable, 40, 450, 460, 200)

	ordered := a.Order([]*model.FusedBlock{table, r, l}, 600, 800)
	assertOrder(t, ordered, []*model.FusedBlock{l, r, table})
}

func TestOrderCaptionFollowsItsFigure(t *testing.T) {
	a := NewAssigner()

	figure := makeBlock(model.ClassFigure, 40, 100, 200, 150)
	caption := makeBlock(model.ClassCaption, 40, 255, 200, 20)
	p := makeBlock(model.ClassParagraph, 40, 400, 200, 80)

	ordered := a.Order([]*model.FusedBlock{p, caption, figure}, 600, 800)
	assertOrder(t, ordered, []*model.FusedBlock{figure, caption, p})
}

func TestOrderDistantCaptionJoinsFlow(t *testing.T) {
	a := NewAssigner()

	figure := makeBlock(model.ClassFigure, 40, 50, 200, 100)
	// Far beyond the caption radius: treated as ordinary flow text
	caption := makeBlock(model.ClassCaption, 40, 600, 200, 20)
	p := makeBlock(model.ClassParagraph, 40, 300, 200, 80)

	ordered := a.Order([]*model.FusedBlock{caption, p, figure}, 600, 800)
	assertOrder(t, ordered, []*model.FusedBlock{figure, p, caption})
}

func TestOrderHeadersFirstFootersLast(t *testing.T) {
	a := NewAssigner()

	header := makeBlock(model.ClassHeader, 40, 10, 520, 20)
	p := makeBlock(model.ClassParagraph, 40, 100, 300, 80)
	footer := makeBlock(model.ClassFooter, 40, 760, 520, 20)

	ordered := a.Order([]*model.FusedBlock{p, footer, header}, 600, 800)
	assertOrder(t, ordered, []*model.FusedBlock{header, p, footer})
}

func TestOrderEmptyPage(t *testing.T) {
	a := NewAssigner()
	if got := a.Order(nil, 600, 800); len(got) != 0 {
		t.Errorf("expected no blocks, got %d", len(got))
	}
}

func TestOrderDeterministic(t *testing.T) {
	a := NewAssigner()

	build := func() []*model.FusedBlock {
		return []*model.FusedBlock{
			makeBlock(model.ClassParagraph, 300, 300, 200, 150),
			makeBlock(model.ClassParagraph, 40, 50, 200, 100),
			makeBlock(model.ClassTable, 40, 500, 460, 150),
			makeBlock(model.ClassParagraph, 300, 50, 200, 100),
			makeBlock(model.ClassParagraph, 40, 300, 200, 150),
		}
	}

	first := a.Order(build(), 600, 800)
	second := a.Order(build(), 600, 800)

	for i := range first {
		if first[i].BBox != second[i].BBox {
			t.Errorf("position %d differs across runs: %+v vs %+v",
				i, first[i].BBox, second[i].BBox)
		}
	}
}
