package async

import (
	"context"
	"time"
)

// Job is one contract waiting to be processed.
type Job struct {
	ContractID  string
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// Processor runs a single contract through extraction. It records its own
// terminal state; the returned error is only for logging.
type Processor interface {
	ProcessContract(ctx context.Context, contractID string) error
}

// ProcessorFunc adapts a function into a Processor.
type ProcessorFunc func(ctx context.Context, contractID string) error

func (f ProcessorFunc) ProcessContract(ctx context.Context, contractID string) error {
	return f(ctx, contractID)
}
