package scheduler

import "sync"

// batchState tracks one batch from submission to finalization. Progress is
// accumulated as deltas against the last cumulative byte count reported per
// task, so re-reports and retries never inflate the aggregate.
type batchState struct {
	total       int
	finished    int
	failed      int
	downBytes   int64
	upBytes     int64
	lastPerTask map[uint64]int64 // keyed by task id, per direction below
	lastUpTask  map[uint64]int64
}

// BatchProgress is a snapshot of a batch's aggregate state.
type BatchProgress struct {
	BatchID   uint64
	Total     int
	Finished  int
	Failed    int
	DownBytes int64
	UpBytes   int64
}

// batchTracker owns the per-batch accounting shared between the scheduler
// loop and external queries.
type batchTracker struct {
	mu      sync.Mutex
	batches map[uint64]*batchState
}

func newBatchTracker() *batchTracker {
	return &batchTracker{batches: make(map[uint64]*batchState)}
}

func (b *batchTracker) register(batchID uint64, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.batches[batchID] = &batchState{
		total:       total,
		lastPerTask: make(map[uint64]int64),
		lastUpTask:  make(map[uint64]int64),
	}
}

// recordProgress folds a cumulative byte count for one task into the batch
// aggregate. Only forward movement counts; a report below the last seen
// value contributes zero.
func (b *batchTracker) recordProgress(batchID, taskID uint64, bytes int64, download bool) (BatchProgress, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.batches[batchID]
	if !ok {
		return BatchProgress{}, false
	}
	last := s.lastPerTask
	if !download {
		last = s.lastUpTask
	}
	delta := bytes - last[taskID]
	if delta < 0 {
		delta = 0
	}
	last[taskID] = bytes
	if download {
		s.downBytes += delta
	} else {
		s.upBytes += delta
	}
	return snapshot(batchID, s), true
}

// recordCompletion advances the finished count (and the failed count when
// succeeded is false). done reports whether every task in the batch has now
// completed; when it does the batch is removed from the tracker.
func (b *batchTracker) recordCompletion(batchID uint64, succeeded bool) (BatchProgress, bool, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.batches[batchID]
	if !ok {
		return BatchProgress{}, false, false
	}
	s.finished++
	if !succeeded {
		s.failed++
	}
	p := snapshot(batchID, s)
	done := s.finished >= s.total
	if done {
		delete(b.batches, batchID)
	}
	return p, done, true
}

func (b *batchTracker) remove(batchID uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.batches, batchID)
}

func (b *batchTracker) clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.batches = make(map[uint64]*batchState)
}

func (b *batchTracker) contains(batchID uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.batches[batchID]
	return ok
}

func (b *batchTracker) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.batches)
}

func snapshot(batchID uint64, s *batchState) BatchProgress {
	return BatchProgress{
		BatchID:   batchID,
		Total:     s.total,
		Finished:  s.finished,
		Failed:    s.failed,
		DownBytes: s.downBytes,
		UpBytes:   s.upBytes,
	}
}
