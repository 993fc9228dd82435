// Package task defines the three-phase unit of work a CommandQueue runs
// against a device: Validate (on the enqueuer's goroutine, under the
// queue's lock), Run, then Post.
package task

import (
	"context"
	"fmt"

	"github.com/liscain-net/liscain/pkg/device"
)

// Task is one operation a CommandQueue can run against a device. Validate
// is called synchronously by Enqueue, under the queue's lock, and must
// reject a task that can't legally run given the device's current state.
// Run and Post execute later, on the queue's worker goroutine.
type Task interface {
	Validate(ctx context.Context) error
	Run(ctx context.Context)
	Post(ctx context.Context)

	// IsUnique reports whether a task of this type is rejected if one is
	// already queued for the same device.
	IsUnique() bool

	// Name identifies the task's type for status reporting (RPC "status").
	Name() string
}

// Base provides the hook-on-terminal-state bookkeeping shared by every
// concrete Task. A Task embeds Base and calls RunHooks from its own Post.
type Base struct {
	Device *device.Device
	Unique bool
	Args   map[string]any
	Hooks  map[device.State]func(context.Context, *device.Device)
}

// IsUnique implements Task.
func (b *Base) IsUnique() bool { return b.Unique }

// OnState registers fn to run once Post observes the device in state s.
// A later call for the same state replaces the earlier callback.
func (b *Base) OnState(s device.State, fn func(context.Context, *device.Device)) {
	if b.Hooks == nil {
		b.Hooks = make(map[device.State]func(context.Context, *device.Device))
	}
	b.Hooks[s] = fn
}

// RunHooks invokes the callback registered for the device's current state,
// if any. Called once by a concrete Task's Post.
func (b *Base) RunHooks(ctx context.Context) {
	if fn, ok := b.Hooks[b.Device.State]; ok {
		fn(ctx, b.Device)
	}
}

// rejectUnlessIn returns a validation error unless the device's current
// state is one of allowed.
func rejectUnlessIn(d *device.Device, allowed []device.State) error {
	if device.InState(d.State, allowed) {
		return nil
	}
	return fmt.Errorf("device %s: state %s is not valid for this task", d.Identifier, d.State)
}
