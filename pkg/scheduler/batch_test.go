package scheduler

import (
	"testing"

	"github.com/vnykmshr/reqflow/internal/testutil"
)

func TestBatchTrackerCompletion(t *testing.T) {
	b := newBatchTracker()
	b.register(1, 3)

	p, done, ok := b.recordCompletion(1, true)
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, done, false)
	testutil.AssertEqual(t, p.Finished, 1)
	testutil.AssertEqual(t, p.Failed, 0)

	p, done, _ = b.recordCompletion(1, false)
	testutil.AssertEqual(t, done, false)
	testutil.AssertEqual(t, p.Failed, 1)

	p, done, _ = b.recordCompletion(1, true)
	testutil.AssertEqual(t, done, true)
	testutil.AssertEqual(t, p.Finished, 3)

	// batch purged after final completion
	testutil.AssertEqual(t, b.contains(1), false)
	_, _, ok = b.recordCompletion(1, true)
	testutil.AssertEqual(t, ok, false)
}

func TestBatchTrackerProgressDeltas(t *testing.T) {
	b := newBatchTracker()
	b.register(1, 2)

	p, ok := b.recordProgress(1, 100, 50, true)
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, p.DownBytes, int64(50))

	// cumulative report: only the delta counts
	p, _ = b.recordProgress(1, 100, 80, true)
	testutil.AssertEqual(t, p.DownBytes, int64(80))

	// regression (e.g. a retried task starting over) contributes nothing
	p, _ = b.recordProgress(1, 100, 10, true)
	testutil.AssertEqual(t, p.DownBytes, int64(80))

	// second task accumulates independently, uploads tracked separately
	p, _ = b.recordProgress(1, 101, 40, true)
	testutil.AssertEqual(t, p.DownBytes, int64(120))
	p, _ = b.recordProgress(1, 101, 25, false)
	testutil.AssertEqual(t, p.UpBytes, int64(25))
	testutil.AssertEqual(t, p.DownBytes, int64(120))
}

func TestBatchTrackerUnknownBatch(t *testing.T) {
	b := newBatchTracker()
	_, ok := b.recordProgress(99, 1, 10, true)
	testutil.AssertEqual(t, ok, false)
}
