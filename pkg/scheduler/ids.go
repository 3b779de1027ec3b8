package scheduler

import "sync/atomic"

// idAllocator produces strictly increasing, never-reused identifiers for
// tasks and batches from two independent counters starting at 1.
type idAllocator struct {
	task  atomic.Uint64
	batch atomic.Uint64
}

func (a *idAllocator) nextTaskID() uint64 {
	return a.task.Add(1)
}

func (a *idAllocator) nextBatchID() uint64 {
	return a.batch.Add(1)
}
