// Package layout fuses text runs with detected layout regions and assigns
// reading order to the resulting blocks.
//
// The Engine performs fusion for one page: it assigns native text runs to
// detected regions by centroid containment, invokes OCR on regions with
// insufficient native coverage, resolves overlapping region proposals, and
// coalesces orphan runs into synthetic blocks so no input text is ever lost.
//
// The Assigner sequences fused blocks into the order a human would read them,
// handling multi-column layouts and floating elements (tables, figures,
// captions).
//
// Both are deterministic: identical input geometry always produces identical
// blocks in identical order.
package layout
