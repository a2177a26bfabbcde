package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/feichai0017/docstream/internal/models"
	"github.com/feichai0017/docstream/pkg/logger"
)

// ErrQueueFull is returned by Enqueue when a bounded queue is at capacity.
var ErrQueueFull = errors.New("ingestion queue is full")

// ProcessFunc handles one dequeued document. It must not return; failures
// belong in document state.
type ProcessFunc func(ctx context.Context, doc *models.Document)

// Queue is the single-consumer ingestion queue. A coordinator goroutine
// owns the pending list and feeds exactly one worker goroutine, so
// documents are processed strictly one at a time in FIFO order and
// Enqueue never waits on processing. There is no check-then-act "is a
// loop running" flag; the coordinator is the only consumer for the
// queue's lifetime.
type Queue struct {
	process  ProcessFunc
	logger   logger.Logger
	capacity int // 0 = unbounded

	submit chan *models.Document
	work   chan *models.Document
	depth  atomic.Int64

	startOnce sync.Once
	cancel    context.CancelFunc
	done      sync.WaitGroup
}

type QueueConfig struct {
	// Capacity bounds the number of queued-but-unfinished documents.
	// Enqueue rejects with ErrQueueFull beyond it. 0 means unbounded.
	Capacity int
}

func NewQueue(process ProcessFunc, log logger.Logger, cfg *QueueConfig) *Queue {
	capacity := 0
	if cfg != nil {
		capacity = cfg.Capacity
	}
	return &Queue{
		process:  process,
		logger:   log,
		capacity: capacity,
		submit:   make(chan *models.Document, 16),
		work:     make(chan *models.Document),
	}
}

// Start launches the coordinator and worker. Safe to call once; documents
// enqueued before Start are picked up when it runs.
func (q *Queue) Start(ctx context.Context) {
	q.startOnce.Do(func() {
		runCtx, cancel := context.WithCancel(ctx)
		q.cancel = cancel

		q.done.Add(2)
		go q.coordinate(runCtx)
		go q.drain(runCtx)
	})
}

// Stop cancels processing and waits for the worker to return. Pending
// documents are dropped; queue state is not persisted across restarts.
func (q *Queue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.done.Wait()
}

// Enqueue schedules a document for processing without blocking on the
// processing itself.
func (q *Queue) Enqueue(ctx context.Context, doc *models.Document) error {
	if q.capacity > 0 && q.depth.Load() >= int64(q.capacity) {
		return ErrQueueFull
	}
	q.depth.Add(1)

	select {
	case q.submit <- doc:
		return nil
	case <-ctx.Done():
		q.depth.Add(-1)
		return ctx.Err()
	}
}

// Depth reports the number of documents accepted but not yet finished.
func (q *Queue) Depth() int {
	return int(q.depth.Load())
}

// coordinate owns the FIFO pending list. It is always ready to accept a
// submission, and offers the head of the list to the worker only when the
// list is non-empty.
func (q *Queue) coordinate(ctx context.Context) {
	defer q.done.Done()
	defer close(q.work)

	var pending []*models.Document
	for {
		var workCh chan *models.Document
		var next *models.Document
		if len(pending) > 0 {
			workCh = q.work
			next = pending[0]
		}

		select {
		case doc := <-q.submit:
			pending = append(pending, doc)
		case workCh <- next:
			pending = pending[1:]
		case <-ctx.Done():
			return
		}
	}
}

// drain is the single worker loop. An error or panic from one document
// must never affect the next document's turn.
func (q *Queue) drain(ctx context.Context) {
	defer q.done.Done()

	for doc := range q.work {
		q.runOne(ctx, doc)
		q.depth.Add(-1)
	}
}

func (q *Queue) runOne(ctx context.Context, doc *models.Document) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("Recovered panic from document processing",
				logger.String("documentId", doc.ID),
				logger.Any("panic", r),
			)
		}
	}()

	q.process(ctx, doc)
}
