// Package detect provides the contract for layout region detectors and the
// batch scheduler that feeds them.
//
// Region detectors amortize fixed per-call overhead (kernel launch, tensor
// preprocessing) across multiple page images, so pages from one or many
// in-flight documents are accumulated into bounded batches before each
// detector call. The Scheduler owns the detector's underlying compute context:
// its single dispatch loop is the only code path that invokes the detector,
// so batch composition is deterministic and the model session is never used
// concurrently.
//
// Callers submit a page image and receive a Future that resolves once the
// page's batch completes:
//
//	fut, err := scheduler.Submit(ctx, pageImage)
//	if err != nil {
//	    // queue full or scheduler closed
//	}
//	regions, err := fut.Wait(ctx)
package detect
