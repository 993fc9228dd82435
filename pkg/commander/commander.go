// Package commander routes tasks to each device's CommandQueue and reaps
// queues that have gone idle.
package commander

import (
	"context"
	"sync"
	"time"

	"github.com/liscain-net/liscain/pkg/queue"
	"github.com/liscain-net/liscain/pkg/task"
	"github.com/liscain-net/liscain/pkg/util"
)

// sweepInterval is how often the supervisor goroutine looks for idle queues
// to evict.
const sweepInterval = 60 * time.Second

// Commander owns one CommandQueue per device, created lazily on first use.
type Commander struct {
	mu     sync.Mutex
	queues map[int64]*queue.CommandQueue

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

// New returns a Commander and starts its idle-queue supervisor.
func New() *Commander {
	c := &Commander{
		queues: make(map[int64]*queue.CommandQueue),
		stop:   make(chan struct{}),
	}
	c.wg.Add(1)
	go c.supervise()
	return c
}

// Enqueue finds or creates deviceID's queue and hands it t. The commander's
// own lock is held only long enough to find-or-create the queue; the
// potentially-blocking call into queue.Enqueue (which runs Validate under
// its own lock) happens after the commander's lock is released, so a slow
// Validate on one device can never stall Enqueue calls for every other
// device.
func (c *Commander) Enqueue(ctx context.Context, deviceID int64, deviceName string, t task.Task) error {
	q := c.queueFor(deviceID, deviceName)
	return q.Enqueue(ctx, t)
}

func (c *Commander) queueFor(deviceID int64, deviceName string) *queue.CommandQueue {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, ok := c.queues[deviceID]
	if !ok {
		q = queue.New(deviceName)
		c.queues[deviceID] = q
	}
	return q
}

// GetQueueList returns the pending task type names for deviceID, or nil if
// the device has no queue (nothing has ever been enqueued for it).
func (c *Commander) GetQueueList(deviceID int64) []string {
	c.mu.Lock()
	q, ok := c.queues[deviceID]
	c.mu.Unlock()

	if !ok {
		return nil
	}
	return q.PendingNames()
}

// Stop halts the supervisor and every live queue.
func (c *Commander) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	c.wg.Wait()

	c.mu.Lock()
	queues := make([]*queue.CommandQueue, 0, len(c.queues))
	for _, q := range c.queues {
		queues = append(queues, q)
	}
	c.mu.Unlock()

	for _, q := range queues {
		q.Stop()
	}
}

func (c *Commander) supervise() {
	defer c.wg.Done()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictIdle()
		}
	}
}

func (c *Commander) evictIdle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for deviceID, q := range c.queues {
		if q.Length() == 0 {
			q.Stop()
			delete(c.queues, deviceID)
			util.Debugf("commander: evicted idle queue for device %d", deviceID)
		}
	}
}
