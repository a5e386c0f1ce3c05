package strata

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tsawler/strata/detect"
	"github.com/tsawler/strata/layout"
	"github.com/tsawler/strata/model"
)

// PageSource supplies a document's raw pages: a rasterized image plus the
// ordered native text runs extracted from each page. Implementations wrap a
// PDF renderer or a scan importer.
//
// Page may be called concurrently for different indices. A page that cannot
// be produced returns an error; the pipeline records it as a document gap
// and continues with the remaining pages.
type PageSource interface {
	// Name identifies the document, used in metadata
	Name() string

	// PageCount returns the number of pages in the document
	PageCount() int

	// Page produces the input for one page. Runs must carry sequence
	// numbers matching their position in the list.
	Page(ctx context.Context, index int) (*layout.PageInput, error)
}

// Process runs the full pipeline: every page is submitted for region
// detection, fused, and ordered concurrently, then the document is assembled.
//
// Pages whose detection or OCR fails degrade to native-text-only output and
// are flagged, never dropped. Pages whose input cannot be read at all are
// recorded as gaps. Process fails only on caller cancellation or a violated
// structural invariant.
func (p *Processor) Process(ctx context.Context) (*model.Document, error) {
	if p.source == nil {
		return nil, errors.New("strata: no page source")
	}
	if p.detector == nil && p.scheduler == nil {
		return nil, errors.New("strata: no region detector")
	}

	sched := p.scheduler
	if sched == nil {
		sched = detect.NewSchedulerWithConfig(p.detector, p.config.schedulerConfig())
		defer sched.Close()
	}
	engine := layout.NewEngineWithConfig(p.ocr, p.config.fusionConfig())
	assigner := layout.NewAssignerWithConfig(p.config.orderConfig())

	start := time.Now()
	count := p.source.PageCount()
	pages := make([]*model.Page, count)
	gaps := make([]*model.PageGap, count)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.PageConcurrency)
	for i := 0; i < count; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pages[i], gaps[i] = p.processPage(gctx, i, sched, engine, assigner)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make([]*model.Page, 0, count)
	var missing []model.PageGap
	for i := 0; i < count; i++ {
		if pages[i] != nil {
			done = append(done, pages[i])
		}
		if gaps[i] != nil {
			missing = append(missing, *gaps[i])
		}
	}

	meta := model.DocumentMetadata{
		Name:     p.source.Name(),
		Duration: time.Since(start),
	}
	return BuildDocument(done, missing, meta)
}

// processPage takes one page from source input to ordered blocks. It returns
// either a page or a gap, never both.
func (p *Processor) processPage(ctx context.Context, index int, sched *detect.Scheduler, engine *layout.Engine, assigner *layout.Assigner) (*model.Page, *model.PageGap) {
	input, err := p.source.Page(ctx, index)
	if err != nil {
		pageErr := &PageError{PageIndex: index, Err: err}
		p.logger.Warn("page input unreadable, recording gap", "page", index, "error", err)
		return nil, &model.PageGap{Index: index, Reason: pageErr.Error()}
	}

	deadline, cancel := context.WithTimeout(ctx, time.Duration(p.config.PageDeadline))
	defer cancel()

	result, status := p.fusePage(deadline, index, input, sched, engine)
	ordered := assigner.Order(result.Blocks, input.Width, input.Height)

	return &model.Page{
		Index:   index,
		Width:   input.Width,
		Height:  input.Height,
		Blocks:  ordered,
		Runs:    input.Runs,
		Status:  status,
		UsedOCR: result.UsedOCR,
	}, nil
}

// fusePage detects regions and fuses them with the page's native runs. Any
// detection or fusion failure degrades the page to a native-only fallback
// instead of failing the document.
func (p *Processor) fusePage(ctx context.Context, index int, input *layout.PageInput, sched *detect.Scheduler, engine *layout.Engine) (*layout.FusionResult, model.PageStatus) {
	list, err := p.detectRegions(ctx, sched, input)
	if err != nil {
		p.logger.Warn("region detection failed, falling back to native text",
			"page", index, "error", err)
		return engine.FallbackFuse(input), model.PageDegraded
	}

	p.logger.Debug("regions detected",
		"page", index,
		"regions", len(list.Regions),
		"queue_ms", list.QueueTime.Milliseconds(),
		"infer_ms", list.InferTime.Milliseconds())

	result, err := engine.Fuse(ctx, input, list.Regions)
	if err != nil {
		p.logger.Warn("fusion abandoned, falling back to native text",
			"page", index, "error", err)
		return engine.FallbackFuse(input), model.PageDegraded
	}
	return result, model.PageOK
}

// detectRegions submits the page image, retrying while the scheduler sheds
// load, and waits for the batch result
func (p *Processor) detectRegions(ctx context.Context, sched *detect.Scheduler, input *layout.PageInput) (detect.RegionList, error) {
	for {
		fut, err := sched.Submit(ctx, input.Image)
		if errors.Is(err, detect.ErrQueueFull) {
			select {
			case <-time.After(time.Duration(p.config.SubmitRetryWait)):
				continue
			case <-ctx.Done():
				return detect.RegionList{}, ctx.Err()
			}
		}
		if err != nil {
			return detect.RegionList{}, err
		}
		return fut.Wait(ctx)
	}
}
