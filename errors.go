package strata

import "fmt"

// StructuralIntegrityError reports a violated document invariant: a native
// text run that vanished or was duplicated during fusion. It indicates a
// defect in the fusion logic, not a problem with the input document.
type StructuralIntegrityError struct {
	PageIndex int
	Detail    string
}

func (e *StructuralIntegrityError) Error() string {
	return fmt.Sprintf("structural integrity violated on page %d: %s", e.PageIndex, e.Detail)
}

// PageError wraps a failure confined to a single page. Pages that fail with
// a PageError are recorded as document gaps; sibling pages proceed.
type PageError struct {
	PageIndex int
	Err       error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %v", e.PageIndex, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}
