/*
Package reqflow provides a bounded-concurrency scheduler for asynchronous
network requests with batching, retry, progress tracking, and cooperative
cancellation.

Scheduling (pkg/scheduler):
  - Submit single requests or batches onto a fixed pool of concurrent executors
  - FIFO admission with a one-shot retry for failed requests
  - Batch progress aggregation and all-or-abort batch semantics
  - Future-like reply handles with intermediate and terminal deliveries
  - Cancel a single task, a whole batch, or everything

Executors (pkg/executor):
  - HTTP download/upload with chunked progress reporting
  - WebSocket request/response over ws and wss targets

Example usage:

	import (
		"github.com/vnykmshr/reqflow/pkg/executor"
		"github.com/vnykmshr/reqflow/pkg/scheduler"
	)

	config := scheduler.DefaultConfig()
	config.Executor = executor.NewHTTP(nil)
	config.MaxConcurrency = 4

	sched, _ := scheduler.New(config)
	_ = sched.Start()
	defer sched.Shutdown(context.Background())

	reply, _ := sched.Submit(scheduler.Task{Target: "https://example.com/data"})
	result := reply.Result()
	_ = result.Task.Payload
*/
package reqflow
