// Package batcher collects individual inference requests into batches so the
// execution backend sees fewer, larger calls. Requests wait on a per-request
// channel; a single collector goroutine assembles batches and routes results
// back by request ID.
package batcher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nexusml/nexus/internal/safego"
	"github.com/nexusml/nexus/internal/telemetry"
)

// ErrNoResult means the backend returned a batch that was missing an entry
// for a submitted request ID.
var ErrNoResult = errors.New("no result returned for request")

// Request is a single inference call waiting to be batched.
type Request struct {
	ID      string
	Payload []byte
	done    chan Result
}

// Result carries the outcome of one request back to its submitter.
type Result struct {
	ID   string
	Data []byte
	Err  error
}

// ProcessFunc executes one assembled batch. It must return one Result per
// request; per-item failures go in Result.Err, not in a batch-level error.
type ProcessFunc func(ctx context.Context, requests []*Request) []Result

// Stats is a point-in-time snapshot of batcher counters.
type Stats struct {
	TotalRequests int64   `json:"total_requests"`
	TotalBatches  int64   `json:"total_batches"`
	AvgBatchSize  float64 `json:"avg_batch_size"`
}

// Batcher assembles requests into batches bounded by size and linger time.
type Batcher struct {
	maxSize int
	linger  time.Duration
	process ProcessFunc
	logger  *slog.Logger

	requests chan *Request
	stop     chan struct{}
	wg       sync.WaitGroup

	mu            sync.RWMutex
	totalRequests int64
	totalBatches  int64
}

// New creates a Batcher. A batch is dispatched when it reaches maxSize or
// when linger has elapsed since its first request arrived, whichever comes
// first.
func New(maxSize int, linger time.Duration, process ProcessFunc, logger *slog.Logger) *Batcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Batcher{
		maxSize: maxSize,
		linger:  linger,
		process: process,
		logger:  logger,
		// Buffered so short bursts do not block submitters.
		requests: make(chan *Request, maxSize*10),
		stop:     make(chan struct{}),
	}
}

// Start launches the collector goroutine.
func (b *Batcher) Start() {
	b.wg.Add(1)
	safego.Go(func() {
		defer b.wg.Done()
		b.loop()
	})
	b.logger.Info("batcher started", "max_size", b.maxSize, "linger", b.linger)
}

// Stop drains the in-flight batch and stops the collector.
func (b *Batcher) Stop() {
	close(b.stop)
	b.wg.Wait()
	b.logger.Info("batcher stopped")
}

// Submit enqueues a request and blocks until its result arrives or ctx is
// done.
func (b *Batcher) Submit(ctx context.Context, id string, payload []byte) ([]byte, error) {
	req := &Request{
		ID:      id,
		Payload: payload,
		done:    make(chan Result, 1),
	}

	select {
	case b.requests <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-req.done:
		return res.Data, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stats returns the current counters.
func (b *Batcher) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s := Stats{
		TotalRequests: b.totalRequests,
		TotalBatches:  b.totalBatches,
	}
	if s.TotalBatches > 0 {
		s.AvgBatchSize = float64(s.TotalRequests) / float64(s.TotalBatches)
	}
	return s
}

func (b *Batcher) loop() {
	for {
		batch := b.collect()
		if batch == nil {
			return
		}
		if len(batch) > 0 {
			b.dispatch(batch)
		}
	}
}

// collect blocks for the first request, then fills the batch until it is
// full or the linger timer fires. A nil return means the batcher is stopping
// with nothing left to drain.
func (b *Batcher) collect() []*Request {
	batch := make([]*Request, 0, b.maxSize)

	select {
	case req := <-b.requests:
		batch = append(batch, req)
	case <-b.stop:
		return nil
	}

	timer := time.NewTimer(b.linger)
	defer timer.Stop()

	for len(batch) < b.maxSize {
		select {
		case req := <-b.requests:
			batch = append(batch, req)
		case <-timer.C:
			return batch
		case <-b.stop:
			// Flush what we already accepted; loop exits on the next pass.
			return batch
		}
	}
	return batch
}

func (b *Batcher) dispatch(batch []*Request) {
	b.logger.Debug("dispatching batch", "size", len(batch))

	results := b.process(context.Background(), batch)

	byID := make(map[string]Result, len(results))
	for _, res := range results {
		byID[res.ID] = res
	}

	for _, req := range batch {
		res, ok := byID[req.ID]
		if !ok {
			res = Result{ID: req.ID, Err: ErrNoResult}
		}
		if res.Err != nil {
			telemetry.BatchItemErrorsTotal.Inc()
		}
		req.done <- res
		close(req.done)
	}

	b.mu.Lock()
	b.totalRequests += int64(len(batch))
	b.totalBatches++
	b.mu.Unlock()

	telemetry.BatchesTotal.Inc()
	telemetry.BatchSize.Observe(float64(len(batch)))
}
