package scheduler

import (
	"context"
	"sync"
)

// runningTask is the bookkeeping for one in-flight execution: the task as
// dispatched, its cancel handle, and the last cumulative byte counts
// reported, used to derive per-report deltas for the transfer metrics.
type runningTask struct {
	task     Task
	cancel   context.CancelFunc
	lastDown int64
	lastUp   int64
}

// activeWorkers maps in-flight task ids to their running state. Membership is
// also the staleness test for completions: a result whose task id is no
// longer present was cancelled after the fact and is dropped.
type activeWorkers struct {
	mu      sync.Mutex
	running map[uint64]*runningTask
}

func newActiveWorkers() *activeWorkers {
	return &activeWorkers{running: make(map[uint64]*runningTask)}
}

func (a *activeWorkers) register(task Task, cancel context.CancelFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.running[task.ID] = &runningTask{task: task, cancel: cancel}
}

func (a *activeWorkers) remove(taskID uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.running[taskID]; !ok {
		return false
	}
	delete(a.running, taskID)
	return true
}

func (a *activeWorkers) contains(taskID uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.running[taskID]
	return ok
}

// byteDelta folds a cumulative progress report into the task's running state
// and returns the forward movement since the previous report.
func (a *activeWorkers) byteDelta(taskID uint64, bytes int64, download bool) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.running[taskID]
	if !ok {
		return 0
	}
	var delta int64
	if download {
		delta = bytes - r.lastDown
		if delta > 0 {
			r.lastDown = bytes
		}
	} else {
		delta = bytes - r.lastUp
		if delta > 0 {
			r.lastUp = bytes
		}
	}
	if delta < 0 {
		delta = 0
	}
	return delta
}

// cancel aborts the running task with the given id, removing it from the
// active set so its eventual completion is treated as stale. Returns the
// task as it was dispatched.
func (a *activeWorkers) cancel(taskID uint64) (Task, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.running[taskID]
	if !ok {
		return Task{}, false
	}
	delete(a.running, taskID)
	r.cancel()
	return r.task, true
}

// cancelBatch aborts every running task that belongs to the batch and
// returns the ids cancelled.
func (a *activeWorkers) cancelBatch(batchID uint64) []uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	var ids []uint64
	for id, r := range a.running {
		if r.task.BatchID == batchID {
			ids = append(ids, id)
			delete(a.running, id)
			r.cancel()
		}
	}
	return ids
}

// cancelAll aborts every running task and returns the ids cancelled.
func (a *activeWorkers) cancelAll() []uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	ids := make([]uint64, 0, len(a.running))
	for id, r := range a.running {
		ids = append(ids, id)
		delete(a.running, id)
		r.cancel()
	}
	return ids
}

func (a *activeWorkers) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.running)
}
