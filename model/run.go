package model

// RunSource indicates where a text run's characters came from
type RunSource int

const (
	// SourceNative is text extracted from the document's internal text layer
	SourceNative RunSource = iota
	// SourceOCR is text recognized from pixels
	SourceOCR
)

// String returns a string representation of the run source
func (s RunSource) String() string {
	if s == SourceOCR {
		return "ocr"
	}
	return "native"
}

// TextRun is a contiguous span of characters with a position on the page.
// Runs are immutable once produced.
type TextRun struct {
	// Text content of the run
	Text string

	// BBox is the run's position in page coordinates
	BBox BBox

	// Source indicates whether the text came from the native layer or OCR
	Source RunSource

	// Confidence is 1.0 for native text unless the producer flags otherwise;
	// for OCR it is the provider-reported recognition confidence (0 to 1)
	Confidence float64

	// Seq is the run's position in the page's native run list, assigned
	// before fusion. OCR-produced runs carry Seq = -1: they have no native
	// identity and are exempt from the coverage invariant.
	Seq int

	// Font metadata from the native layer (zero values for OCR runs)
	FontSize float64
	FontName string
}

// IsNative returns true if the run came from the native text layer
func (r TextRun) IsNative() bool {
	return r.Source == SourceNative
}

// NewNativeRun creates a native-layer text run with full confidence
func NewNativeRun(text string, bbox BBox, seq int) TextRun {
	return TextRun{
		Text:       text,
		BBox:       bbox,
		Source:     SourceNative,
		Confidence: 1.0,
		Seq:        seq,
	}
}

// NewOCRRun creates an OCR-derived text run
func NewOCRRun(text string, bbox BBox, confidence float64) TextRun {
	return TextRun{
		Text:       text,
		BBox:       bbox,
		Source:     SourceOCR,
		Confidence: confidence,
		Seq:        -1,
	}
}
