package model

// PageStatus indicates the terminal state a page reached during processing
type PageStatus int

const (
	// PageOK means the page was fused from detected regions normally
	PageOK PageStatus = iota

	// PageDegraded means region detection or OCR failed and the page fell
	// back to native-text-only fusion
	PageDegraded
)

// String returns a string representation of the page status
func (s PageStatus) String() string {
	if s == PageDegraded {
		return "degraded"
	}
	return "ok"
}

// Page represents a single processed page: its fused blocks in reading order
// plus the raw pre-fusion run list retained for diagnostics.
type Page struct {
	// Index is the 0-based page index within the document
	Index int

	// Width and Height are the page image dimensions
	Width  float64
	Height float64

	// Blocks in reading order (order assigned by the reading order assigner)
	Blocks []*FusedBlock

	// Runs is the raw native run list before fusion, kept for diagnostics
	Runs []TextRun

	// Status records whether the page degraded during processing
	Status PageStatus

	// UsedOCR is true if any block on the page carries OCR-derived runs
	UsedOCR bool
}

// Degraded returns true if the page fell back to native-only fusion
func (p *Page) Degraded() bool {
	return p.Status == PageDegraded
}

// BlockCount returns the number of fused blocks on the page
func (p *Page) BlockCount() int {
	return len(p.Blocks)
}

// Text concatenates the text of all blocks in reading order
func (p *Page) Text() string {
	var text string
	for i, b := range p.Blocks {
		if i > 0 {
			text += "\n\n"
		}
		text += b.Text()
	}
	return text
}
