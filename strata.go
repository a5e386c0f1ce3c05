// Package strata reconstructs structured documents from noisy page signals.
//
// It fuses three independent inputs (a native text layer, layout regions
// proposed by a detection model, and on-demand OCR) into a document tree of
// semantically labeled blocks in deterministic reading order.
//
// Basic usage:
//
//	doc, err := strata.New(source, detector).Process(ctx)
//	if err != nil {
//	    // handle error
//	}
//	fmt.Println(doc.Text())
//
// With OCR and custom configuration:
//
//	doc, err := strata.New(source, detector).
//	    WithOCR(ocrClient).
//	    WithConfig(cfg).
//	    Process(ctx)
//
// Several documents can share one detection scheduler so their pages batch
// together against the model:
//
//	sched := detect.NewScheduler(detector)
//	defer sched.Close()
//	doc, err := strata.New(source, detector).WithScheduler(sched).Process(ctx)
//
// For advanced use cases, the lower-level detect and layout packages are also
// available.
package strata

import (
	"log/slog"

	"github.com/tsawler/strata/detect"
	"github.com/tsawler/strata/layout"
)

// Processor is the fluent entry point for document reconstruction. Its With*
// methods return modified copies, so a configured Processor can be reused and
// shared freely.
type Processor struct {
	source    PageSource
	detector  detect.RegionDetector
	ocr       layout.OCRProvider
	scheduler *detect.Scheduler
	config    Config
	logger    *slog.Logger
}

// New creates a Processor for the given page source and region detector.
//
// Example:
//
//	doc, err := strata.New(source, detector).Process(ctx)
func New(source PageSource, detector detect.RegionDetector) *Processor {
	config := DefaultConfig()
	return &Processor{
		source:   source,
		detector: detector,
		config:   config,
		logger:   slog.Default(),
	}
}

// clone creates a copy of the Processor for fluent modification
func (p *Processor) clone() *Processor {
	c := *p
	return &c
}

// WithOCR returns a copy of the Processor that invokes the given provider on
// regions lacking native text coverage. Without a provider such regions keep
// whatever native text they have.
func (p *Processor) WithOCR(provider layout.OCRProvider) *Processor {
	c := p.clone()
	c.ocr = provider
	return c
}

// WithConfig returns a copy of the Processor using the given configuration.
// Zero-valued fields fall back to their defaults.
func (p *Processor) WithConfig(config Config) *Processor {
	config.defaults()
	c := p.clone()
	c.config = config
	if config.Logger != nil {
		c.logger = config.Logger
	}
	return c
}

// WithScheduler returns a copy of the Processor that submits pages to the
// given shared scheduler instead of creating its own. The caller owns the
// scheduler's lifecycle; Process will not close it.
func (p *Processor) WithScheduler(s *detect.Scheduler) *Processor {
	c := p.clone()
	c.scheduler = s
	return c
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	doc := strata.Must(strata.New(source, detector).Process(ctx))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
