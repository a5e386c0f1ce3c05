package detect

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrQueueFull is returned by Submit when the pending queue is at
	// capacity. Callers must retry or shed load; the scheduler never
	// queues beyond its configured depth.
	ErrQueueFull = errors.New("detect: pending queue at capacity")

	// ErrSchedulerClosed is returned by Submit after Close has been called
	ErrSchedulerClosed = errors.New("detect: scheduler closed")
)

// Config holds configuration for the batch scheduler
type Config struct {
	// MaxBatchSize is the maximum number of pages dispatched in one
	// detector call. Default: 8.
	MaxBatchSize int `yaml:"max_batch_size"`

	// MaxBatchWait bounds how long a partially filled batch waits for more
	// pages before being dispatched anyway. Default: 50ms.
	MaxBatchWait time.Duration `yaml:"max_batch_wait"`

	// QueueCapacity is the maximum number of pages waiting for dispatch
	// before Submit fails fast with ErrQueueFull. Default: 64.
	QueueCapacity int `yaml:"queue_capacity"`

	// Logger for dispatch diagnostics
	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		MaxBatchSize:  8,
		MaxBatchWait:  50 * time.Millisecond,
		QueueCapacity: 64,
	}
}

func (c *Config) defaults() {
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = 8
	}
	if c.MaxBatchWait <= 0 {
		c.MaxBatchWait = 50 * time.Millisecond
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = 64
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// outcome is the terminal value delivered to a Future
type outcome struct {
	list RegionList
	err  error
}

// Future resolves to the region list for one submitted page.
// A Future is matched to its result by identity: batches may complete out of
// submission order relative to other batches.
type Future struct {
	ch chan outcome
}

// Wait blocks until the page's batch completes or ctx is done. Abandoning a
// Future (cancelled ctx) has no side effects: the batch still runs and the
// result is discarded.
func (f *Future) Wait(ctx context.Context) (RegionList, error) {
	select {
	case out := <-f.ch:
		return out.list, out.err
	case <-ctx.Done():
		return RegionList{}, ctx.Err()
	}
}

// request pairs a page image with its completion handle
type request struct {
	img      image.Image
	enqueued time.Time
	fut      *Future
}

// Scheduler accumulates pending pages into bounded batches and dispatches
// them to a RegionDetector. A batch is dispatched when it reaches
// MaxBatchSize or when MaxBatchWait elapses after its first page arrived,
// whichever comes first.
//
// Scheduler is safe for concurrent use by multiple documents.
type Scheduler struct {
	detector RegionDetector
	config   Config
	logger   *slog.Logger

	pending chan *request

	// mu orders Submit's enqueue against Close's drain: a request either
	// lands before the drain and is failed there, or sees closed and is
	// rejected. Without it a Submit racing Close could enqueue after the
	// drain, leaving a future that never resolves.
	mu     sync.RWMutex
	closed bool

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	done      chan struct{}
}

// NewScheduler creates a scheduler around the given detector and starts its
// dispatch loop. The scheduler must be closed when no longer needed.
func NewScheduler(detector RegionDetector) *Scheduler {
	return NewSchedulerWithConfig(detector, DefaultConfig())
}

// NewSchedulerWithConfig creates a scheduler with custom configuration
func NewSchedulerWithConfig(detector RegionDetector, config Config) *Scheduler {
	config.defaults()

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		detector: detector,
		config:   config,
		logger:   config.Logger,
		pending:  make(chan *request, config.QueueCapacity),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go s.run()
	return s
}

// Submit enqueues one page image for detection and returns a Future for its
// result. Submit never blocks: if the pending queue is at capacity it fails
// fast with ErrQueueFull.
func (s *Scheduler) Submit(ctx context.Context, img image.Image) (*Future, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrSchedulerClosed
	}

	req := &request{
		img:      img,
		enqueued: time.Now(),
		fut:      &Future{ch: make(chan outcome, 1)},
	}

	select {
	case s.pending <- req:
		return req.fut, nil
	default:
		return nil, ErrQueueFull
	}
}

// Close stops the dispatch loop and fails any still-queued pages with
// ErrSchedulerClosed. It is safe to call Close multiple times.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.cancel()
		<-s.done

		// Fail whatever is still queued
		for {
			select {
			case req := <-s.pending:
				req.fut.ch <- outcome{err: ErrSchedulerClosed}
			default:
				return
			}
		}
	})
}

// run is the single dispatch loop. It is the only code path that touches the
// detector, which keeps batch composition deterministic and the model session
// free of concurrent use.
func (s *Scheduler) run() {
	defer close(s.done)

	for {
		// Shutdown wins over pending work: queued pages are failed by Close
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		// Wait for the first page of the next batch
		var first *request
		select {
		case first = <-s.pending:
		case <-s.ctx.Done():
			return
		}

		batch := s.collect(first)
		s.dispatch(batch)
	}
}

// collect fills a batch starting from its first request, draining pending
// pages until the batch is full or the wait timer elapses
func (s *Scheduler) collect(first *request) []*request {
	batch := []*request{first}
	if len(batch) >= s.config.MaxBatchSize {
		return batch
	}

	timer := time.NewTimer(s.config.MaxBatchWait)
	defer timer.Stop()

	for len(batch) < s.config.MaxBatchSize {
		select {
		case req := <-s.pending:
			batch = append(batch, req)
		case <-timer.C:
			return batch
		case <-s.ctx.Done():
			return batch
		}
	}
	return batch
}

// dispatch issues one detector call for the batch and fans results back to
// the waiting futures. A batch-level detector error fails every page in the
// batch with that same error; pages are never silently dropped.
func (s *Scheduler) dispatch(batch []*request) {
	images := make([]image.Image, len(batch))
	for i, req := range batch {
		images[i] = req.img
	}

	start := time.Now()
	lists, err := s.detector.DetectRegions(s.ctx, images)
	inferTime := time.Since(start)

	if err == nil && len(lists) != len(batch) {
		err = fmt.Errorf("detect: detector returned %d region lists for %d images", len(lists), len(batch))
	}

	if err != nil {
		s.logger.Warn("batch detection failed",
			"batch_size", len(batch),
			"error", err)
		for _, req := range batch {
			req.fut.ch <- outcome{err: fmt.Errorf("detect: batch failed: %w", err)}
		}
		return
	}

	s.logger.Debug("batch dispatched",
		"batch_size", len(batch),
		"infer_ms", inferTime.Milliseconds())

	for i, req := range batch {
		req.fut.ch <- outcome{list: RegionList{
			Regions:   lists[i],
			QueueTime: start.Sub(req.enqueued),
			InferTime: inferTime,
		}}
	}
}
