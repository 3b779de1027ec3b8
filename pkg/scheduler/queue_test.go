package scheduler

import (
	"testing"

	"github.com/vnykmshr/reqflow/internal/testutil"
)

func TestWaitQueueFIFO(t *testing.T) {
	q := newWaitQueue()
	q.enqueue(Task{ID: 1})
	q.enqueue(Task{ID: 2})
	q.enqueue(Task{ID: 3})

	testutil.AssertEqual(t, q.len(), 3)

	for want := uint64(1); want <= 3; want++ {
		task, ok := q.dequeue()
		testutil.AssertEqual(t, ok, true)
		testutil.AssertEqual(t, task.ID, want)
	}

	_, ok := q.dequeue()
	testutil.AssertEqual(t, ok, false)
	testutil.AssertEqual(t, q.empty(), true)
}

func TestWaitQueueRemoveTask(t *testing.T) {
	q := newWaitQueue()
	q.enqueue(Task{ID: 1})
	q.enqueue(Task{ID: 2})
	q.enqueue(Task{ID: 3})

	removed, ok := q.removeTask(2)
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, removed.ID, uint64(2))
	testutil.AssertEqual(t, q.len(), 2)

	_, ok = q.removeTask(2)
	testutil.AssertEqual(t, ok, false)

	first, _ := q.dequeue()
	second, _ := q.dequeue()
	testutil.AssertEqual(t, first.ID, uint64(1))
	testutil.AssertEqual(t, second.ID, uint64(3))
}

func TestWaitQueueRemoveBatch(t *testing.T) {
	q := newWaitQueue()
	q.enqueue(Task{ID: 1, BatchID: 10})
	q.enqueue(Task{ID: 2})
	q.enqueue(Task{ID: 3, BatchID: 10})
	q.enqueue(Task{ID: 4, BatchID: 20})

	removed := q.removeBatch(10)
	testutil.AssertEqual(t, len(removed), 2)
	testutil.AssertEqual(t, removed[0].ID, uint64(1))
	testutil.AssertEqual(t, removed[1].ID, uint64(3))
	testutil.AssertEqual(t, q.len(), 2)
}

func TestFailedRegistryOneRetryGate(t *testing.T) {
	r := newFailedRegistry()

	testutil.AssertEqual(t, r.markFailed(7), true)
	testutil.AssertEqual(t, r.markFailed(7), false)
	testutil.AssertEqual(t, r.len(), 1)

	r.forget(7)
	testutil.AssertEqual(t, r.markFailed(7), true)

	r.clear()
	testutil.AssertEqual(t, r.len(), 0)
	testutil.AssertEqual(t, r.markFailed(7), true)
}
