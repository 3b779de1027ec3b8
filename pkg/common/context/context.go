// Package context provides small helpers for task-scoped contexts.
package context

import (
	"context"
	"time"
)

// ForTask derives the execution context for one task. A positive timeout
// bounds the execution; zero or negative means the task runs until finished
// or cancelled.
func ForTask(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

// IsCanceled returns true if the context has been canceled
func IsCanceled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// IsTimedOut returns true if the context was canceled due to a timeout
func IsTimedOut(ctx context.Context) bool {
	return ctx.Err() == context.DeadlineExceeded
}
