// Package scheduler provides bounded-concurrency scheduling for asynchronous
// network requests.
//
// A Scheduler admits tasks (standalone or in batches) into a FIFO wait queue
// and dispatches them to an Executor, never running more than the configured
// ceiling at once. Callers observe progress and results through Reply
// handles, which settle exactly once.
//
// Failure handling follows a one-retry rule: the first failure of a task
// marked RetryOnFailure silently re-enqueues it at the tail of the queue; a
// second failure is terminal. A batch member marked AbortBatchOnFailure tears
// the whole batch down on terminal failure.
//
// Basic usage:
//
//	config := scheduler.DefaultConfig()
//	config.Executor = executor.NewHTTP(nil)
//
//	s, err := scheduler.New(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := s.Start(); err != nil {
//		log.Fatal(err)
//	}
//	defer s.Shutdown(context.Background())
//
//	reply, err := s.Submit(scheduler.Task{Target: "https://example.com/data"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	result := reply.Result()
package scheduler
