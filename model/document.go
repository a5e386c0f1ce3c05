package model

import "time"

// PageGap records a page that could not be processed and was excluded from
// the document
type PageGap struct {
	Index  int    // 0-based index of the missing page
	Reason string // why the page failed
}

// DocumentMetadata contains document-level processing information
type DocumentMetadata struct {
	Name     string
	Duration time.Duration
}

// Document is the final artifact handed to a renderer: ordered pages of
// ordered, labeled blocks with provenance. It is immutable once built.
type Document struct {
	Metadata DocumentMetadata

	// Pages in document order. Failed pages are absent; see Gaps.
	Pages []*Page

	// Gaps records pages excluded because their input was unreadable
	Gaps []PageGap
}

// PageCount returns the number of successfully processed pages
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// BlockCount returns the total number of blocks across all pages
func (d *Document) BlockCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Blocks)
	}
	return n
}

// DegradedPages returns the indices of pages that fell back to
// native-only fusion
func (d *Document) DegradedPages() []int {
	var degraded []int
	for _, p := range d.Pages {
		if p.Degraded() {
			degraded = append(degraded, p.Index)
		}
	}
	return degraded
}

// Text concatenates the text of all pages in order
func (d *Document) Text() string {
	var text string
	for i, p := range d.Pages {
		if i > 0 {
			text += "\n\n"
		}
		text += p.Text()
	}
	return text
}

// Headings returns all Title blocks across the document in reading order
func (d *Document) Headings() []*FusedBlock {
	var headings []*FusedBlock
	for _, p := range d.Pages {
		for _, b := range p.Blocks {
			if b.Class == ClassTitle {
				headings = append(headings, b)
			}
		}
	}
	return headings
}
