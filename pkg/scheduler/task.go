package scheduler

import (
	"context"
	"time"
)

// Task is one unit of schedulable network work. Identity fields (ID, BatchID)
// are assigned by the scheduler at submission; callers fill in the request
// fields. Outcome fields are populated by the executor and are only
// meaningful on deliveries.
type Task struct {
	// ID uniquely identifies the task. Assigned on submission, never reused.
	ID uint64

	// BatchID identifies the batch the task belongs to; 0 means standalone.
	BatchID uint64

	// Target is the destination URL for the request.
	Target string

	// Method is the request verb for executors that use one (e.g. HTTP).
	// Empty means GET, or POST when Body is non-empty.
	Method string

	// Body is an optional upload payload.
	Body []byte

	// RetryOnFailure permits one automatic re-execution after a failure.
	RetryOnFailure bool

	// AbortBatchOnFailure cancels the whole batch if this task fails
	// terminally. Ignored for standalone tasks.
	AbortBatchOnFailure bool

	// Timeout bounds one execution attempt. Zero means no limit. A timed
	// out attempt counts as a failure, so the retry rules apply.
	Timeout time.Duration

	// Outcome fields, set on completion.
	Success bool
	Payload []byte
	ErrText string
}

// ProgressFunc reports transfer progress for a running task. bytes is the
// cumulative count transferred so far, total the expected total when known
// (0 or -1 when unknown), and download distinguishes the transfer direction.
type ProgressFunc func(bytes, total int64, download bool)

// Executor performs the actual network operation for a task. Run must respect
// context cancellation and may call report zero or more times before
// returning. On success it returns the response payload.
type Executor interface {
	Run(ctx context.Context, task Task, report ProgressFunc) ([]byte, error)
}

// ExecutorFunc is a function type that implements the Executor interface.
type ExecutorFunc func(ctx context.Context, task Task, report ProgressFunc) ([]byte, error)

// Run implements the Executor interface for ExecutorFunc.
func (f ExecutorFunc) Run(ctx context.Context, task Task, report ProgressFunc) ([]byte, error) {
	return f(ctx, task, report)
}

// TargetValidator decides at admission time whether a task target is
// well-formed enough to dispatch.
type TargetValidator interface {
	IsValid(target string) bool
}

// TargetValidatorFunc is a function type that implements TargetValidator.
type TargetValidatorFunc func(target string) bool

// IsValid implements the TargetValidator interface for TargetValidatorFunc.
func (f TargetValidatorFunc) IsValid(target string) bool {
	return f(target)
}
