package scheduler

import "sync"

// waitQueue is the FIFO of tasks admitted but not yet dispatched. Removal by
// task id or batch id is an O(n) scan; the queue is expected to stay shallow.
type waitQueue struct {
	mu    sync.Mutex
	items []Task
}

func newWaitQueue() *waitQueue {
	return &waitQueue{}
}

func (q *waitQueue) enqueue(t Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, t)
}

func (q *waitQueue) dequeue() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Task{}, false
	}
	t := q.items[0]
	q.items = q.items[1:]
	return t, true
}

// removeTask removes the queued task with the given id, if present.
func (q *waitQueue) removeTask(id uint64) (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, t := range q.items {
		if t.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return t, true
		}
	}
	return Task{}, false
}

// removeBatch removes every queued task belonging to the batch and returns
// the removed tasks in queue order.
func (q *waitQueue) removeBatch(batchID uint64) []Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	var removed []Task
	kept := q.items[:0]
	for _, t := range q.items {
		if t.BatchID == batchID {
			removed = append(removed, t)
		} else {
			kept = append(kept, t)
		}
	}
	q.items = kept
	return removed
}

func (q *waitQueue) clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
}

func (q *waitQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *waitQueue) empty() bool {
	return q.len() == 0
}
