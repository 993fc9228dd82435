// Package queue implements the per-device serialized task queue that a
// Commander hands tasks to: one worker goroutine per device, draining a
// FIFO of pending tasks one at a time so two tasks never race against the
// same device's session.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/liscain-net/liscain/pkg/task"
	"github.com/liscain-net/liscain/pkg/util"
)

// pollInterval bounds how long the worker can sit in cond.Wait on an empty
// queue before it re-checks the stop flag.
const pollInterval = time.Second

// CommandQueue runs tasks against one device, one at a time, in the order
// they were enqueued.
type CommandQueue struct {
	deviceName string

	mu      sync.Mutex
	cond    *sync.Cond
	tasks   []task.Task
	running bool
	stopped bool
}

// New returns an empty CommandQueue for the named device. The worker
// goroutine isn't started until the first task is enqueued.
func New(deviceName string) *CommandQueue {
	q := &CommandQueue{deviceName: deviceName}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue validates task under the queue's lock and appends it, rejecting a
// unique task if one of the same type is already queued. Starts the worker
// goroutine if it isn't already running.
func (q *CommandQueue) Enqueue(ctx context.Context, t task.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped {
		return fmt.Errorf("device %s: queue is stopped", q.deviceName)
	}

	if t.IsUnique() {
		for _, queued := range q.tasks {
			if queued.Name() == t.Name() {
				return fmt.Errorf("device %s: a %s is already queued", q.deviceName, t.Name())
			}
		}
	}

	if err := t.Validate(ctx); err != nil {
		return fmt.Errorf("device %s: %w", q.deviceName, err)
	}

	q.tasks = append(q.tasks, t)
	q.cond.Broadcast()

	if !q.running {
		q.running = true
		go q.run(ctx)
		go q.ticker()
	}

	return nil
}

// Length returns the number of pending tasks, including the one currently
// running.
func (q *CommandQueue) Length() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// PendingNames returns the type names of pending tasks, for RPC "status".
func (q *CommandQueue) PendingNames() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	names := make([]string, len(q.tasks))
	for i, t := range q.tasks {
		names[i] = t.Name()
	}
	return names
}

// IsRunning reports whether the worker goroutine is still active.
func (q *CommandQueue) IsRunning() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// Stop tells the worker to exit after its current task, if any, completes,
// and blocks until it has. Safe to call on a queue whose worker has already
// exited.
func (q *CommandQueue) Stop() {
	q.mu.Lock()
	q.stopped = true
	q.cond.Broadcast()
	for q.running {
		q.cond.Wait()
	}
	q.mu.Unlock()
}

// ticker wakes the worker's cond.Wait every pollInterval so a Stop called
// while the queue is empty is observed within one interval rather than
// blocking indefinitely. It exits once the worker itself exits.
func (q *CommandQueue) ticker() {
	t := time.NewTicker(pollInterval)
	defer t.Stop()

	for range t.C {
		q.mu.Lock()
		if !q.running {
			q.mu.Unlock()
			return
		}
		q.cond.Broadcast()
		q.mu.Unlock()
	}
}

func (q *CommandQueue) run(ctx context.Context) {
	log := util.WithDevice(q.deviceName)
	defer func() {
		q.mu.Lock()
		q.running = false
		q.cond.Broadcast()
		q.mu.Unlock()
	}()

	q.mu.Lock()
	for {
		for len(q.tasks) == 0 && !q.stopped {
			q.cond.Wait()
		}
		if len(q.tasks) == 0 && q.stopped {
			q.mu.Unlock()
			return
		}

		next := q.tasks[0]
		q.mu.Unlock()

		next.Run(ctx)
		next.Post(ctx)

		q.mu.Lock()
		q.tasks = q.tasks[1:]
		log.Debugf("completed %s", next.Name())
	}
}
