package index

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"codeindex/internal/shared/observability"

	"github.com/google/uuid"
)

// PreventStarvation is a process-wide switch that disables the worker
// thread-priority downshift entirely. Tests set it so that Background
// tasks don't get starved by the OS scheduler while a test is blocked
// waiting for them.
var PreventStarvation atomic.Bool

// ThreadPriorityController lowers and restores the OS-level priority
// of the calling goroutine's carrier thread. The standard library has
// no portable notion of per-goroutine thread priority, so this is an
// external collaborator; NoopThreadPriority is the default no-op used
// when the platform or caller has nothing to plug in.
type ThreadPriorityController interface {
	LowerToBackground()
	RestoreDefault()
}

// NoopThreadPriority implements ThreadPriorityController with no-ops.
type NoopThreadPriority struct{}

func (NoopThreadPriority) LowerToBackground() {}
func (NoopThreadPriority) RestoreDefault()    {}

// WorkQueue is a FIFO-within-priority deque drained by N worker
// goroutines. Two priorities exist: Normal and Background. Normal
// tasks are inserted immediately before the first queued Background
// task; Background tasks are inserted at the tail. A burst of Normal
// tasks therefore drains before any Background task, regardless of
// arrival order.
type WorkQueue struct {
	mu       sync.Mutex
	cv       *sync.Cond
	tasks    []Task
	active   int
	stopped  bool
	priority ThreadPriorityController
	wg       sync.WaitGroup
}

// NewWorkQueue constructs a queue and starts n long-lived worker
// goroutines. n must be >= 1; priority may be nil, in which case
// NoopThreadPriority is used.
func NewWorkQueue(n int, priority ThreadPriorityController) *WorkQueue {
	if n < 1 {
		panic("index: thread pool size can't be zero")
	}
	if priority == nil {
		priority = NoopThreadPriority{}
	}
	q := &WorkQueue{priority: priority}
	q.cv = sync.NewCond(&q.mu)
	for i := 0; i < n; i++ {
		q.wg.Add(1)
		go q.run()
	}
	return q
}

// Enqueue inserts a task according to the ordering rule. It is safe to
// call from any goroutine, including from inside a running task.
func (q *WorkQueue) Enqueue(run func(), priority Priority) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	t := Task{Run: run, Priority: priority, EnqueuedAt: time.Now(), ID: uuid.New()}
	if priority == PriorityNormal {
		idx := len(q.tasks)
		for i, existing := range q.tasks {
			if existing.Priority == PriorityBackground {
				idx = i
				break
			}
		}
		q.tasks = append(q.tasks, Task{})
		copy(q.tasks[idx+1:], q.tasks[idx:])
		q.tasks[idx] = t
	} else {
		q.tasks = append(q.tasks, t)
	}
	observability.IndexQueueDepth.Set(float64(len(q.tasks)))
	q.mu.Unlock()
	q.cv.Broadcast()
}

// run is a single worker's loop: Idle -> WaitForTask ->
// (Stopped -> Exit) | (TaskPopped -> Priority-Adjust -> Execute ->
// Priority-Restore -> Idle).
func (q *WorkQueue) run() {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		for !q.stopped && len(q.tasks) == 0 {
			q.cv.Wait()
		}
		if q.stopped {
			q.tasks = nil
			q.cv.Broadcast()
			q.mu.Unlock()
			return
		}
		q.active++
		t := q.tasks[0]
		q.tasks = q.tasks[1:]
		observability.IndexQueueDepth.Set(float64(len(q.tasks)))
		observability.IndexActiveTasks.Set(float64(q.active))
		q.mu.Unlock()

		downshift := t.Priority == PriorityBackground && !PreventStarvation.Load()
		if downshift {
			q.priority.LowerToBackground()
		}
		slog.Debug("task started", "task_id", t.ID, "priority", t.Priority, "queued_for", time.Since(t.EnqueuedAt))
		start := time.Now()
		t.Run()
		observability.IndexTaskDuration.WithLabelValues(t.Priority.String()).Observe(time.Since(start).Seconds())
		observability.IndexTasksProcessedTotal.WithLabelValues(t.Priority.String(), "completed").Inc()
		if downshift {
			q.priority.RestoreDefault()
		}

		q.mu.Lock()
		q.active--
		observability.IndexActiveTasks.Set(float64(q.active))
		q.mu.Unlock()
		q.cv.Broadcast()
	}
}

// BlockUntilIdle returns true once the queue is empty and no task is
// executing, or false if timeout elapses first. It never spins: it
// waits on the queue's condition variable, woken on every task
// completion and enqueue.
func (q *WorkQueue) BlockUntilIdle(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	done := make(chan struct{})
	var idle bool

	go func() {
		q.mu.Lock()
		for !(len(q.tasks) == 0 && q.active == 0) {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				q.mu.Unlock()
				close(done)
				return
			}
			waitOnCondWithTimeout(q.cv, &q.mu, remaining)
		}
		idle = len(q.tasks) == 0 && q.active == 0
		q.mu.Unlock()
		close(done)
	}()

	select {
	case <-done:
		return idle
	case <-time.After(timeout + time.Millisecond):
		return false
	}
}

// Stop sets the stop flag under the lock and wakes all waiters. A
// stopped worker clears the remaining queue and returns; subsequent
// enqueues are ignored.
func (q *WorkQueue) Stop() {
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()
	q.cv.Broadcast()
}

// Wait blocks until all workers have exited after Stop.
func (q *WorkQueue) Wait() {
	q.wg.Wait()
}

// Close stops the queue and joins all workers, matching the
// destructor semantics of the owning object.
func (q *WorkQueue) Close() {
	q.Stop()
	q.Wait()
}

// waitOnCondWithTimeout wakes cv.Wait() if timeout elapses without a
// Broadcast: a timer, whose callback runs on its own goroutine, re-locks
// and broadcasts once expired.
func waitOnCondWithTimeout(cv *sync.Cond, mu *sync.Mutex, timeout time.Duration) {
	timer := time.AfterFunc(timeout, func() {
		mu.Lock()
		cv.Broadcast()
		mu.Unlock()
	})
	defer timer.Stop()
	cv.Wait()
}
