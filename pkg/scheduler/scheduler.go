package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	rfcontext "github.com/vnykmshr/reqflow/pkg/common/context"
	rferrors "github.com/vnykmshr/reqflow/pkg/common/errors"
	"github.com/vnykmshr/reqflow/pkg/common/validation"
	"github.com/vnykmshr/reqflow/pkg/metrics"
)

// Scheduler admits network tasks, bounds how many execute at once, and
// delivers results through Reply handles.
type Scheduler interface {
	// Start launches the scheduler loop. Must be called before Submit.
	Start() error

	// Shutdown cancels in-flight work, settles open replies and stops the
	// loop. Safe to call more than once; waits for workers to exit or the
	// context to expire.
	Shutdown(ctx context.Context) error

	// Submit enqueues one standalone task and returns its reply handle.
	Submit(task Task) (*Reply, error)

	// SubmitBatch enqueues the tasks as one tracked batch and returns the
	// batch reply handle.
	SubmitBatch(tasks []Task) (*Reply, error)

	// StopTask cancels one task, whether queued or running.
	StopTask(id uint64) error

	// StopBatch cancels every remaining task of a batch.
	StopBatch(batchID uint64) error

	// StopAll cancels everything and holds dispatch until new work arrives.
	StopAll() error

	// SetMaxConcurrency adjusts the executor ceiling at runtime.
	SetMaxConcurrency(n int) error

	// MaxConcurrency returns the current executor ceiling.
	MaxConcurrency() int

	// ExecutorAvailable reports whether a dispatch slot is free right now.
	ExecutorAvailable() bool

	// WaitQueueEmpty reports whether any tasks are awaiting dispatch.
	WaitQueueEmpty() bool

	// QueueDepth returns the number of tasks awaiting dispatch.
	QueueDepth() int

	// ActiveCount returns the number of tasks currently executing.
	ActiveCount() int
}

type eventKind int

const (
	eventSubmit eventKind = iota
	eventSubmitBatch
	eventTaskDone
	eventProgress
	eventDispatch
	eventStopTask
	eventStopBatch
	eventStopAll
	eventShutdown
)

// event is the tagged variant carried on the scheduler's internal channel.
// Which fields are set depends on kind.
type event struct {
	kind eventKind

	task  Task
	tasks []Task
	reply *Reply

	taskID  uint64
	batchID uint64

	bytes    int64
	total    int64
	download bool

	ack chan struct{}
}

type scheduler struct {
	config   Config
	executor Executor
	valid    TargetValidator
	logger   *zap.Logger
	metrics  *metrics.Registry

	events  chan event
	done    chan struct{} // closed when the loop exits
	stopped chan struct{} // closed when Shutdown completes

	ids    idAllocator
	queue  *waitQueue
	failed *failedRegistry
	batch  *batchTracker
	active *activeWorkers

	// loop-owned, never touched outside run()
	replies      map[uint64]*Reply
	batchReplies map[uint64]*Reply

	workerWg     sync.WaitGroup
	shutdownOnce sync.Once

	// postMu orders posting against shutdown: once accepting is false no
	// post succeeds, so every accepted event sits ahead of the shutdown
	// event in the channel and is handled before teardown.
	postMu    sync.RWMutex
	accepting bool

	mu             sync.RWMutex
	started        bool
	running        bool
	closed         bool
	stopAll        bool
	maxConcurrency int
}

// New creates a scheduler from the given configuration.
func New(config Config) (Scheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = defaultConcurrency()
	}
	if config.EventBuffer == 0 {
		config.EventBuffer = defaultEventBuffer
	}
	if config.Name == "" {
		config.Name = "default"
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	valid := config.Validator
	if valid == nil {
		valid = TargetValidatorFunc(validation.IsValidTarget)
	}

	var reg *metrics.Registry
	if config.Metrics.Enabled {
		switch r := config.Metrics.Registry; {
		case r == nil, r == prometheus.Registerer(prometheus.DefaultRegisterer):
			reg = metrics.DefaultRegistry
		default:
			reg = metrics.NewRegistry(r)
		}
	}

	s := &scheduler{
		config:         config,
		executor:       config.Executor,
		valid:          valid,
		logger:         logger.Named("scheduler").With(zap.String("name", config.Name)),
		metrics:        reg,
		events:         make(chan event, config.EventBuffer),
		done:           make(chan struct{}),
		stopped:        make(chan struct{}),
		queue:          newWaitQueue(),
		failed:         newFailedRegistry(),
		batch:          newBatchTracker(),
		active:         newActiveWorkers(),
		replies:        make(map[uint64]*Reply),
		batchReplies:   make(map[uint64]*Reply),
		accepting:      true,
		maxConcurrency: config.MaxConcurrency,
	}
	if s.metrics != nil {
		s.metrics.MaxConcurrency.WithLabelValues(config.Name).Set(float64(config.MaxConcurrency))
	}
	return s, nil
}

func (s *scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return rferrors.ErrClosed
	}
	if s.started {
		return rferrors.NewValidationError("scheduler", "state", "started", "already started")
	}
	s.started = true
	s.running = true
	go s.run()
	s.logger.Info("scheduler started",
		zap.Int("max_concurrency", s.maxConcurrency))
	return nil
}

func (s *scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	wasStarted := s.started
	s.started = true
	s.running = false
	s.closed = true
	s.mu.Unlock()

	var err error
	s.shutdownOnce.Do(func() {
		// once this lock is held, no in-flight post can still succeed
		s.postMu.Lock()
		s.accepting = false
		s.postMu.Unlock()

		if !wasStarted {
			close(s.done)
			close(s.stopped)
			return
		}
		ack := make(chan struct{})
		s.events <- event{kind: eventShutdown, ack: ack}
		<-ack
		workersDone := make(chan struct{})
		go func() {
			s.workerWg.Wait()
			close(workersDone)
		}()
		select {
		case <-workersDone:
		case <-ctx.Done():
			err = ctx.Err()
		}
		close(s.stopped)
		s.logger.Info("scheduler stopped")
	})
	if err != nil {
		return err
	}
	select {
	case <-s.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *scheduler) Submit(task Task) (*Reply, error) {
	if err := s.admissible(); err != nil {
		return nil, err
	}
	task.ID = s.ids.nextTaskID()
	task.BatchID = 0
	reply := newReply(task.ID, 0)
	if !s.post(event{kind: eventSubmit, task: task, reply: reply}) {
		return nil, rferrors.ErrClosed
	}
	return reply, nil
}

func (s *scheduler) SubmitBatch(tasks []Task) (*Reply, error) {
	if err := s.admissible(); err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, rferrors.ErrEmptyBatch
	}
	batchID := s.ids.nextBatchID()
	batch := make([]Task, len(tasks))
	for i, t := range tasks {
		t.ID = s.ids.nextTaskID()
		t.BatchID = batchID
		batch[i] = t
	}
	reply := newReply(0, batchID)
	if !s.post(event{kind: eventSubmitBatch, tasks: batch, batchID: batchID, reply: reply}) {
		return nil, rferrors.ErrClosed
	}
	return reply, nil
}

func (s *scheduler) StopTask(id uint64) error {
	return s.postWait(event{kind: eventStopTask, taskID: id})
}

func (s *scheduler) StopBatch(batchID uint64) error {
	return s.postWait(event{kind: eventStopBatch, batchID: batchID})
}

func (s *scheduler) StopAll() error {
	return s.postWait(event{kind: eventStopAll})
}

func (s *scheduler) SetMaxConcurrency(n int) error {
	if err := validation.ValidateRange("scheduler", "maxConcurrency", n, MinConcurrency, MaxConcurrencyLimit); err != nil {
		return err
	}
	s.mu.Lock()
	grew := n > s.maxConcurrency
	s.maxConcurrency = n
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.MaxConcurrency.WithLabelValues(s.config.Name).Set(float64(n))
	}
	if grew {
		// blocking send: the wake-up must not be lost under a full buffer
		s.post(event{kind: eventDispatch})
	}
	return nil
}

func (s *scheduler) MaxConcurrency() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxConcurrency
}

func (s *scheduler) ExecutorAvailable() bool {
	s.mu.RLock()
	running, max := s.running, s.maxConcurrency
	s.mu.RUnlock()
	return running && s.active.count() < max
}

func (s *scheduler) WaitQueueEmpty() bool { return s.queue.empty() }

func (s *scheduler) QueueDepth() int { return s.queue.len() }

func (s *scheduler) ActiveCount() int { return s.active.count() }

// admissible reports whether new work may be accepted right now.
func (s *scheduler) admissible() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return rferrors.ErrClosed
	}
	if !s.running {
		return rferrors.ErrNotRunning
	}
	return nil
}

// post delivers an event to the loop. It fails once shutdown has begun;
// every event it does accept is ordered ahead of the shutdown event, so the
// loop handles it before teardown and no accepted reply is left open.
func (s *scheduler) post(ev event) bool {
	s.postMu.RLock()
	defer s.postMu.RUnlock()
	if !s.accepting {
		return false
	}
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

// tryPost delivers an event without blocking. Used for lossy signals.
func (s *scheduler) tryPost(ev event) bool {
	select {
	case s.events <- ev:
		return true
	default:
		return false
	}
}

// postWait delivers an event and blocks until the loop has handled it.
func (s *scheduler) postWait(ev event) error {
	if err := s.admissible(); err != nil {
		return err
	}
	ev.ack = make(chan struct{})
	if !s.post(ev) {
		return rferrors.ErrClosed
	}
	select {
	case <-ev.ack:
		return nil
	case <-s.done:
		return rferrors.ErrClosed
	}
}

// run is the scheduler loop. All reply maps and all ordering decisions live
// here; everything else only posts events.
func (s *scheduler) run() {
	defer close(s.done)
	for ev := range s.events {
		if ev.kind == eventShutdown {
			s.teardown()
			s.drainEvents()
			if ev.ack != nil {
				close(ev.ack)
			}
			return
		}
		s.handle(ev)
	}
}

// drainEvents empties whatever is still buffered behind the shutdown event,
// settling any reply it carries so no accepted submission is left open.
func (s *scheduler) drainEvents() {
	for {
		select {
		case ev := <-s.events:
			if ev.reply != nil {
				switch ev.kind {
				case eventSubmit:
					ev.reply.settle(Outcome{Kind: OutcomeCanceled, Task: ev.task})
				case eventSubmitBatch:
					ev.reply.settle(Outcome{Kind: OutcomeCanceled, Batch: BatchProgress{BatchID: ev.batchID}})
				}
			}
			if ev.ack != nil {
				close(ev.ack)
			}
		default:
			return
		}
	}
}

func (s *scheduler) handle(ev event) {
	switch ev.kind {
	case eventSubmit:
		s.admitTask(ev.task, ev.reply)
	case eventSubmitBatch:
		s.admitBatch(ev.batchID, ev.tasks, ev.reply)
	case eventTaskDone:
		s.completeTask(ev.task, false)
		s.dispatchNext()
	case eventProgress:
		s.handleProgress(ev)
	case eventDispatch:
		s.dispatchNext()
	case eventStopTask:
		s.stopTask(ev.taskID)
	case eventStopBatch:
		s.stopBatch(ev.batchID)
	case eventStopAll:
		s.stopEverything()
	}
	if ev.ack != nil {
		close(ev.ack)
	}
}

func (s *scheduler) admitTask(task Task, reply *Reply) {
	s.clearStopAll()
	s.replies[task.ID] = reply
	s.queue.enqueue(task)
	s.count(func(m *metrics.Registry) { m.TasksSubmitted.WithLabelValues(s.config.Name).Inc() })
	s.logger.Debug("task admitted",
		zap.Uint64("task_id", task.ID),
		zap.String("target", task.Target))
	s.dispatchNext()
}

func (s *scheduler) admitBatch(batchID uint64, tasks []Task, reply *Reply) {
	s.clearStopAll()
	s.batchReplies[batchID] = reply
	s.batch.register(batchID, len(tasks))
	for _, t := range tasks {
		s.queue.enqueue(t)
	}
	s.count(func(m *metrics.Registry) {
		m.BatchesSubmitted.WithLabelValues(s.config.Name).Inc()
		m.TasksSubmitted.WithLabelValues(s.config.Name).Add(float64(len(tasks)))
	})
	s.logger.Debug("batch admitted",
		zap.Uint64("batch_id", batchID),
		zap.Int("tasks", len(tasks)))
	s.dispatchNext()
}

// dispatchNext fills free executor slots from the head of the wait queue.
// Tasks with invalid targets fail without being dispatched, which feeds the
// same retry and batch accounting as an executor failure. When the queue
// drains with nothing running, the failure registry is reset.
func (s *scheduler) dispatchNext() {
	for {
		if s.stopAllActive() {
			return
		}
		s.mu.RLock()
		max := s.maxConcurrency
		s.mu.RUnlock()
		if s.active.count() >= max {
			s.setGauges()
			return
		}
		task, ok := s.queue.dequeue()
		if !ok {
			if s.active.count() == 0 {
				s.failed.clear()
			}
			s.setGauges()
			return
		}
		if !s.valid.IsValid(task.Target) {
			task.Success = false
			task.ErrText = rferrors.ErrInvalidTarget.Error()
			s.logger.Warn("invalid target",
				zap.Uint64("task_id", task.ID),
				zap.String("target", task.Target))
			s.completeTask(task, true)
			continue
		}
		s.startTask(task)
	}
}

func (s *scheduler) startTask(task Task) {
	ctx, cancel := rfcontext.ForTask(context.Background(), task.Timeout)
	s.active.register(task, cancel)
	s.setGauges()
	s.logger.Debug("task dispatched",
		zap.Uint64("task_id", task.ID),
		zap.Uint64("batch_id", task.BatchID))
	s.workerWg.Add(1)
	go s.execute(ctx, cancel, task)
}

func (s *scheduler) execute(ctx context.Context, cancel context.CancelFunc, task Task) {
	defer s.workerWg.Done()
	defer cancel()

	report := func(bytes, total int64, download bool) {
		s.tryPost(event{
			kind:     eventProgress,
			taskID:   task.ID,
			batchID:  task.BatchID,
			bytes:    bytes,
			total:    total,
			download: download,
		})
	}

	start := time.Now()
	payload, err := s.executor.Run(ctx, task, report)
	if s.metrics != nil {
		s.metrics.TaskDuration.WithLabelValues(s.config.Name).Observe(time.Since(start).Seconds())
	}

	task.Success = err == nil
	task.Payload = payload
	task.ErrText = ""
	if err != nil {
		task.ErrText = err.Error()
	}
	s.post(event{kind: eventTaskDone, task: task})
}

// completeTask applies the completion protocol: drop stale results, retry a
// first failure silently, then deliver the terminal outcome and fold batch
// accounting. synthetic marks completions that never went through a worker.
func (s *scheduler) completeTask(task Task, synthetic bool) {
	if !synthetic && !s.active.remove(task.ID) {
		// cancelled while in flight; the stop path already settled it
		s.logger.Debug("stale completion dropped", zap.Uint64("task_id", task.ID))
		return
	}

	if !task.Success && task.RetryOnFailure && s.failed.markFailed(task.ID) {
		s.queue.enqueue(task)
		s.count(func(m *metrics.Registry) { m.TasksRetried.WithLabelValues(s.config.Name).Inc() })
		s.logger.Debug("task re-enqueued after first failure",
			zap.Uint64("task_id", task.ID),
			zap.String("error", task.ErrText))
		return
	}
	s.failed.forget(task.ID)

	if task.Success {
		s.count(func(m *metrics.Registry) { m.TasksCompleted.WithLabelValues(s.config.Name).Inc() })
	} else {
		s.count(func(m *metrics.Registry) { m.TasksFailed.WithLabelValues(s.config.Name).Inc() })
		s.logger.Warn("task failed",
			zap.Uint64("task_id", task.ID),
			zap.String("target", task.Target),
			zap.String("error", task.ErrText))
	}

	if task.BatchID == 0 {
		if reply, ok := s.replies[task.ID]; ok {
			delete(s.replies, task.ID)
			reply.settle(Outcome{Kind: OutcomeTaskResult, Task: task})
		}
		return
	}

	if !task.Success && task.AbortBatchOnFailure && s.batch.contains(task.BatchID) {
		s.abortBatch(task)
		return
	}

	progress, done, ok := s.batch.recordCompletion(task.BatchID, task.Success)
	if !ok {
		return
	}
	reply := s.batchReplies[task.BatchID]
	if done {
		delete(s.batchReplies, task.BatchID)
		if reply != nil {
			reply.settle(Outcome{Kind: OutcomeBatchFinished, Task: task, Batch: progress})
		}
		s.count(func(m *metrics.Registry) { m.BatchesFinished.WithLabelValues(s.config.Name).Inc() })
		s.logger.Info("batch finished",
			zap.Uint64("batch_id", task.BatchID),
			zap.Int("total", progress.Total),
			zap.Int("failed", progress.Failed))
	} else if reply != nil {
		reply.update(Outcome{Kind: OutcomeBatchProgress, Task: task, Batch: progress})
	}
}

// abortBatch tears a batch down after a fatal member failure: queued members
// are discarded, running members cancelled, and the batch reply settles with
// the failing task attached.
func (s *scheduler) abortBatch(task Task) {
	batchID := task.BatchID
	removed := s.queue.removeBatch(batchID)
	cancelled := s.active.cancelBatch(batchID)
	progress, _, _ := s.batch.recordCompletion(batchID, false)
	s.batch.remove(batchID)

	if reply, ok := s.batchReplies[batchID]; ok {
		delete(s.batchReplies, batchID)
		reply.settle(Outcome{Kind: OutcomeBatchAborted, Task: task, Batch: progress})
	}
	s.count(func(m *metrics.Registry) {
		m.BatchesAborted.WithLabelValues(s.config.Name).Inc()
		m.TasksCanceled.WithLabelValues(s.config.Name).Add(float64(len(removed) + len(cancelled)))
	})
	s.setGauges()
	s.logger.Warn("batch aborted",
		zap.Uint64("batch_id", batchID),
		zap.Uint64("failed_task_id", task.ID),
		zap.Int("discarded", len(removed)+len(cancelled)))
}

// handleProgress folds a progress report into metrics and forwards it to the
// relevant reply. Empty transfers and reports from already-cancelled tasks
// are ignored.
func (s *scheduler) handleProgress(ev event) {
	if ev.bytes == 0 || ev.total == 0 {
		return
	}
	if !s.active.contains(ev.taskID) {
		return
	}
	delta := s.active.byteDelta(ev.taskID, ev.bytes, ev.download)
	if delta > 0 && s.metrics != nil {
		s.metrics.BytesTransferred.
			WithLabelValues(s.config.Name, direction(ev.download)).
			Add(float64(delta))
	}

	if ev.batchID == 0 {
		if reply, ok := s.replies[ev.taskID]; ok {
			reply.update(Outcome{
				Kind:     OutcomeTaskProgress,
				Task:     Task{ID: ev.taskID},
				Bytes:    ev.bytes,
				Total:    ev.total,
				Download: ev.download,
			})
		}
		return
	}
	if progress, ok := s.batch.recordProgress(ev.batchID, ev.taskID, ev.bytes, ev.download); ok {
		if reply, ok := s.batchReplies[ev.batchID]; ok {
			reply.update(Outcome{Kind: OutcomeBatchProgress, Batch: progress})
		}
	}
}

func (s *scheduler) stopTask(id uint64) {
	stopped := false
	if task, ok := s.queue.removeTask(id); ok {
		stopped = true
		if task.BatchID == 0 {
			if reply, ok := s.replies[id]; ok {
				delete(s.replies, id)
				reply.settle(Outcome{Kind: OutcomeCanceled, Task: task})
			}
		}
	} else if task, ok := s.active.cancel(id); ok {
		stopped = true
		if task.BatchID == 0 {
			if reply, ok := s.replies[id]; ok {
				delete(s.replies, id)
				reply.settle(Outcome{Kind: OutcomeCanceled, Task: task})
			}
		}
	}
	s.failed.forget(id)
	if stopped {
		s.count(func(m *metrics.Registry) { m.TasksCanceled.WithLabelValues(s.config.Name).Inc() })
		s.logger.Debug("task stopped", zap.Uint64("task_id", id))
	}
	s.dispatchNext()
}

func (s *scheduler) stopBatch(batchID uint64) {
	removed := s.queue.removeBatch(batchID)
	cancelled := s.active.cancelBatch(batchID)
	s.batch.remove(batchID)
	for _, t := range removed {
		s.failed.forget(t.ID)
	}
	for _, id := range cancelled {
		s.failed.forget(id)
	}

	if reply, ok := s.batchReplies[batchID]; ok {
		delete(s.batchReplies, batchID)
		reply.settle(Outcome{Kind: OutcomeCanceled, Batch: BatchProgress{BatchID: batchID}})
	}
	s.count(func(m *metrics.Registry) {
		m.BatchesCanceled.WithLabelValues(s.config.Name).Inc()
		m.TasksCanceled.WithLabelValues(s.config.Name).Add(float64(len(removed) + len(cancelled)))
	})
	s.logger.Debug("batch stopped",
		zap.Uint64("batch_id", batchID),
		zap.Int("discarded", len(removed)+len(cancelled)))
	s.dispatchNext()
}

// stopEverything discards queued work, cancels running work and settles every
// open reply. Dispatch stays suspended until the next submission.
func (s *scheduler) stopEverything() {
	s.mu.Lock()
	s.stopAll = true
	s.mu.Unlock()

	s.queue.clear()
	cancelled := s.active.cancelAll()

	taskCount := len(s.replies)
	for id, reply := range s.replies {
		delete(s.replies, id)
		reply.settle(Outcome{Kind: OutcomeCanceled, Task: Task{ID: id}})
	}
	batchCount := len(s.batchReplies)
	for batchID, reply := range s.batchReplies {
		delete(s.batchReplies, batchID)
		reply.settle(Outcome{Kind: OutcomeCanceled, Batch: BatchProgress{BatchID: batchID}})
	}
	s.batch.clear()
	s.failed.clear()

	s.count(func(m *metrics.Registry) {
		m.TasksCanceled.WithLabelValues(s.config.Name).Add(float64(taskCount))
		m.BatchesCanceled.WithLabelValues(s.config.Name).Add(float64(batchCount))
	})
	s.setGauges()
	s.logger.Info("all work stopped",
		zap.Int("tasks_settled", taskCount),
		zap.Int("batches_settled", batchCount),
		zap.Int("workers_cancelled", len(cancelled)))
}

// teardown runs once at shutdown and mirrors stopEverything without keeping
// the dispatch hold, since the loop is about to exit anyway.
func (s *scheduler) teardown() {
	s.stopEverything()
}

func (s *scheduler) clearStopAll() {
	s.mu.Lock()
	s.stopAll = false
	s.mu.Unlock()
}

func (s *scheduler) stopAllActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopAll
}

func (s *scheduler) count(fn func(*metrics.Registry)) {
	if s.metrics != nil {
		fn(s.metrics)
	}
}

func (s *scheduler) setGauges() {
	if s.metrics == nil {
		return
	}
	name := s.config.Name
	s.metrics.QueueDepth.WithLabelValues(name).Set(float64(s.queue.len()))
	s.metrics.ActiveWorkers.WithLabelValues(name).Set(float64(s.active.count()))
	s.metrics.BatchesActive.WithLabelValues(name).Set(float64(s.batch.len()))
}

func direction(download bool) string {
	if download {
		return "download"
	}
	return "upload"
}
