package scheduler

import "sync"

// failedRegistry records task ids that have failed once. It gates the
// one-retry rule: the first markFailed for an id returns true, every
// subsequent call returns false.
type failedRegistry struct {
	mu  sync.Mutex
	ids map[uint64]struct{}
}

func newFailedRegistry() *failedRegistry {
	return &failedRegistry{ids: make(map[uint64]struct{})}
}

// markFailed records the first failure for a task id. Returns true only if
// this is the first recorded failure.
func (r *failedRegistry) markFailed(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ids[id]; ok {
		return false
	}
	r.ids[id] = struct{}{}
	return true
}

func (r *failedRegistry) forget(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ids, id)
}

func (r *failedRegistry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = make(map[uint64]struct{})
}

func (r *failedRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}
