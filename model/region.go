package model

// RegionClass is the semantic class of a detected layout region.
// The set is closed: consumers switch exhaustively over it.
type RegionClass int

const (
	ClassUnknown RegionClass = iota
	ClassParagraph
	ClassTitle
	ClassList
	ClassTable
	ClassFigure
	ClassCaption
	ClassHeader
	ClassFooter
)

// String returns a string representation of the region class
func (c RegionClass) String() string {
	switch c {
	case ClassParagraph:
		return "Paragraph"
	case ClassTitle:
		return "Title"
	case ClassList:
		return "List"
	case ClassTable:
		return "Table"
	case ClassFigure:
		return "Figure"
	case ClassCaption:
		return "Caption"
	case ClassHeader:
		return "Header"
	case ClassFooter:
		return "Footer"
	default:
		return "Unknown"
	}
}

// IsFloating returns true for classes that sit outside the main column flow
// (tables, figures, and their captions)
func (c RegionClass) IsFloating() bool {
	return c == ClassTable || c == ClassFigure || c == ClassCaption
}

// LayoutRegion is a detector-proposed rectangular area with a semantic class.
// Overlapping regions on one page are a normal model output, not an error.
// Regions are immutable once produced.
type LayoutRegion struct {
	// Class is the detector's predicted semantic class
	Class RegionClass

	// BBox is the region's position in page coordinates
	BBox BBox

	// Confidence is the detector's score for this region (0 to 1)
	Confidence float64

	// PageIndex is the 0-based index of the page the region belongs to
	PageIndex int
}
