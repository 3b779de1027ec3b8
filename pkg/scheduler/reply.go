package scheduler

import "sync"

// OutcomeKind discriminates the variants delivered on a Reply.
type OutcomeKind int

const (
	// OutcomeTaskResult is the terminal result of a standalone task.
	OutcomeTaskResult OutcomeKind = iota
	// OutcomeTaskProgress is a transfer progress update for a standalone task.
	OutcomeTaskProgress
	// OutcomeBatchProgress is an aggregate progress update for a batch.
	OutcomeBatchProgress
	// OutcomeBatchFinished is the terminal outcome of a batch that ran to
	// completion, whether or not individual tasks failed.
	OutcomeBatchFinished
	// OutcomeBatchAborted is the terminal outcome of a batch torn down by a
	// failing task with AbortBatchOnFailure set.
	OutcomeBatchAborted
	// OutcomeCanceled is the terminal outcome of a task or batch stopped by
	// the caller or by shutdown.
	OutcomeCanceled
)

// String returns a human-readable name for the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeTaskResult:
		return "task-result"
	case OutcomeTaskProgress:
		return "task-progress"
	case OutcomeBatchProgress:
		return "batch-progress"
	case OutcomeBatchFinished:
		return "batch-finished"
	case OutcomeBatchAborted:
		return "batch-aborted"
	case OutcomeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Outcome is one delivery on a Reply: either a non-terminal progress update
// or the terminal result. Bytes, Total and Download are populated only for
// OutcomeTaskProgress; Batch only for batch outcomes.
type Outcome struct {
	Kind  OutcomeKind
	Task  Task
	Batch BatchProgress

	Bytes    int64
	Total    int64
	Download bool
}

// Terminal reports whether this outcome ends the reply.
func (o Outcome) Terminal() bool {
	switch o.Kind {
	case OutcomeTaskResult, OutcomeBatchFinished, OutcomeBatchAborted, OutcomeCanceled:
		return true
	}
	return false
}

// Reply is the caller's handle on a submitted task or batch. Progress
// outcomes arrive on Updates; the terminal outcome is available from Result
// once Done is closed. A reply settles exactly once.
type Reply struct {
	id      uint64
	batchID uint64

	done    chan struct{}
	updates chan Outcome

	once     sync.Once
	mu       sync.Mutex
	terminal Outcome
}

func newReply(id, batchID uint64) *Reply {
	return &Reply{
		id:      id,
		batchID: batchID,
		done:    make(chan struct{}),
		updates: make(chan Outcome, 16),
	}
}

// TaskID returns the task id this reply tracks, 0 for batch replies.
func (r *Reply) TaskID() uint64 { return r.id }

// BatchID returns the batch id this reply tracks, 0 for standalone tasks.
func (r *Reply) BatchID() uint64 { return r.batchID }

// Done is closed when the terminal outcome has been recorded.
func (r *Reply) Done() <-chan struct{} { return r.done }

// Updates streams non-terminal progress outcomes. The channel is closed
// after the terminal outcome settles. Deliveries are best-effort: a slow
// consumer loses intermediate updates, never the terminal result.
func (r *Reply) Updates() <-chan Outcome { return r.updates }

// Result blocks until the reply settles and returns the terminal outcome.
func (r *Reply) Result() Outcome {
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.terminal
}

// update delivers a non-terminal outcome without blocking the scheduler.
// Called only from the scheduler loop, never after settle.
func (r *Reply) update(o Outcome) {
	select {
	case <-r.done:
		return
	default:
	}
	select {
	case r.updates <- o:
	default:
	}
}

// settle records the terminal outcome. Only the first call has any effect.
func (r *Reply) settle(o Outcome) {
	r.once.Do(func() {
		r.mu.Lock()
		r.terminal = o
		r.mu.Unlock()
		close(r.done)
		close(r.updates)
	})
}
