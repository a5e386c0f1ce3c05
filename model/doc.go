// Package model defines the core data types for document reconstruction:
// geometric primitives, text runs, detected layout regions, fused blocks,
// pages, and the final document.
//
// The types follow a strict lifecycle. TextRun and LayoutRegion are produced
// once per page and never mutated. FusedBlock is constructed by the fusion
// engine and afterwards only has its order and global index assigned. Document
// is assembled once all pages reach a terminal state and is immutable from
// then on.
//
// All coordinates are page-relative image coordinates: the origin is the
// top-left corner of the page and Y increases downward. This matches the
// raster space the region detector and OCR operate in.
package model
