package port

import (
	"context"
	"time"
)

// Task is a background job message: a stable type string plus opaque payload
// bytes. Payload encoding belongs to callers; the push-delivery pipeline
// serializes its notification payloads as JSON before enqueueing.
type Task struct {
	Type    string
	Payload []byte
}

// Handler processes a Task. A non-nil error requests a retry under the
// adapter's policy, so handlers must be idempotent: the push endpoint may
// see the same notification more than once.
type Handler func(ctx context.Context, task Task) error

// EnqueueOption controls enqueue behavior. Adapters map supported fields to
// the underlying backend best-effort; zero values mean "unspecified".
type EnqueueOption struct {
	Queue     string        // logical queue name
	ProcessIn time.Duration // delay before processing
	ProcessAt time.Time     // absolute schedule time (takes precedence over ProcessIn)
	MaxRetry  int           // max retries for the task
	UniqueTTL time.Duration // enforce uniqueness within TTL window
	Retention time.Duration // keep result metadata for this duration
	Deadline  time.Time     // hard processing deadline
}

// Client enqueues tasks for background processing.
type Client interface {
	Enqueue(ctx context.Context, t Task, opts ...EnqueueOption) (id string, err error)
	Close() error
}

// Server runs background workers that handle tasks. Run blocks until the
// context is canceled or Stop is called.
type Server interface {
	Register(taskType string, h Handler)
	Run(ctx context.Context) error
	Stop(ctx context.Context) error
}
