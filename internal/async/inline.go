package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrQueueClosed = errors.New("queue is shutting down")

// InlineQueue runs each job synchronously inside Enqueue. Processing errors are
// logged, not returned, matching the fire-and-forget contract of ProcessorQueue.
type InlineQueue struct {
	proc    Processor
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
}

func NewInlineQueue(proc Processor, logger *slog.Logger, timeout time.Duration) *InlineQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &InlineQueue{proc: proc, logger: logger, timeout: timeout}
}

func (q *InlineQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	ctx = context.WithoutCancel(ctx)
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}
	if err := q.proc.ProcessContract(ctx, job.ContractID); err != nil {
		q.logger.Error("queue.job.failed", "contract_id", job.ContractID, "error", err)
	}
	return nil
}

func (q *InlineQueue) Shutdown(context.Context) {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}
