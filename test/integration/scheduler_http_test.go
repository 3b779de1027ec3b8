// Package integration contains integration tests that verify cross-package
// functionality. These tests drive the scheduler with the real HTTP executor
// against a local server.
package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/vnykmshr/reqflow/internal/testutil"
	"github.com/vnykmshr/reqflow/pkg/executor"
	"github.com/vnykmshr/reqflow/pkg/metrics"
	"github.com/vnykmshr/reqflow/pkg/scheduler"
)

func newHTTPScheduler(t *testing.T, client *http.Client, maxConcurrency int) scheduler.Scheduler {
	t.Helper()
	config := scheduler.DefaultConfig()
	config.Name = "integration"
	config.MaxConcurrency = maxConcurrency
	config.Executor = executor.NewHTTP(client)
	config.Metrics = metrics.Config{Enabled: false}

	s, err := scheduler.New(config)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, s.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), testutil.TestTimeout)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

// TestSchedulerOverHTTP verifies that a batch of real HTTP fetches completes
// under a concurrency ceiling, with the ceiling never exceeded on the server
// side.
func TestSchedulerOverHTTP(t *testing.T) {
	const ceiling = 2

	var inFlight, peak int32
	release := make(chan struct{})
	var once sync.Once
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			old := atomic.LoadInt32(&peak)
			if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
				break
			}
		}
		once.Do(func() { close(release) })
		<-release
		fmt.Fprintf(w, "payload for %s", r.URL.Path)
	}))
	defer srv.Close()

	s := newHTTPScheduler(t, srv.Client(), ceiling)

	tasks := make([]scheduler.Task, 6)
	for i := range tasks {
		tasks[i] = scheduler.Task{Target: fmt.Sprintf("%s/item/%d", srv.URL, i)}
	}
	reply, err := s.SubmitBatch(tasks)
	testutil.AssertNoError(t, err)

	result := reply.Result()
	testutil.AssertEqual(t, result.Kind, scheduler.OutcomeBatchFinished)
	testutil.AssertEqual(t, result.Batch.Finished, 6)
	testutil.AssertEqual(t, result.Batch.Failed, 0)
	if result.Batch.DownBytes == 0 {
		t.Fatal("expected aggregate download bytes")
	}

	if p := atomic.LoadInt32(&peak); p > ceiling {
		t.Fatalf("server saw %d concurrent requests, ceiling is %d", p, ceiling)
	}
}

// TestRetryAgainstFlakyServer verifies the one-retry rule end to end: an
// endpoint that fails the first hit and serves the second yields a successful
// terminal result.
func TestRetryAgainstFlakyServer(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			http.Error(w, "try again", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "second time lucky")
	}))
	defer srv.Close()

	s := newHTTPScheduler(t, srv.Client(), 2)

	reply, err := s.Submit(scheduler.Task{Target: srv.URL, RetryOnFailure: true})
	testutil.AssertNoError(t, err)

	result := reply.Result()
	testutil.AssertEqual(t, result.Task.Success, true)
	testutil.AssertEqual(t, string(result.Task.Payload), "second time lucky")
	testutil.AssertEqual(t, atomic.LoadInt32(&hits), int32(2))
}

// TestStopAllReleasesConnections verifies that a stop request cancels
// in-flight HTTP work promptly instead of waiting out the server.
func TestStopAllReleasesConnections(t *testing.T) {
	started := make(chan struct{}, 8)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	s := newHTTPScheduler(t, srv.Client(), 2)

	var replies []*scheduler.Reply
	for i := 0; i < 4; i++ {
		r, err := s.Submit(scheduler.Task{Target: fmt.Sprintf("%s/slow/%d", srv.URL, i)})
		testutil.AssertNoError(t, err)
		replies = append(replies, r)
	}
	<-started
	<-started

	testutil.AssertNoError(t, s.StopAll())
	for _, r := range replies {
		testutil.AssertEqual(t, r.Result().Kind, scheduler.OutcomeCanceled)
	}
	testutil.Eventually(t, testutil.TestTimeout, func() bool {
		return s.ActiveCount() == 0
	}, "cancelled requests should release their slots")
}
