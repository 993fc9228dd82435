// Package driver defines the vendor driver contract that Task implementations
// call through, and a registry mapping a device's device_class to the
// concrete Driver that knows how to talk to it.
package driver

import (
	"context"
	"fmt"
	"sync"

	"github.com/liscain-net/liscain/pkg/device"
	"github.com/liscain-net/liscain/pkg/ephemeral"
)

// Driver is the vendor-specific surface a Task calls through. Every method
// takes the device it applies to and reports success the same way the
// device's own lifecycle does: a bool, not an error, since the caller's only
// decision is which outgoing state edge to take.
type Driver interface {
	// EmitBaseConfig renders the minimal configuration a freshly discovered
	// device needs to reach the controller's management plane, for the
	// bootstrap file server to serve before any Task has run.
	EmitBaseConfig(ctx context.Context, d *device.Device) (string, error)

	// InitialSetup reaches the device and harvests its identity (platform,
	// MAC, software version) into d. Called by InitTask.
	InitialSetup(ctx context.Context, d *device.Device) bool

	// Configure applies the supplied configuration to the device. Large
	// payloads may be staged in blobs instead of pushed directly; the device
	// is then told where to fetch them.
	Configure(ctx context.Context, d *device.Device, configuration string, blobs *ephemeral.Store) bool

	// ChangeIdentity renames the device to identity, e.g. after the operator
	// assigns it a permanent hostname.
	ChangeIdentity(ctx context.Context, d *device.Device, identity string) bool

	// NeighborInfo returns the device's view of its link-layer neighbors,
	// used by the CDP adopter to discover what the device is plugged into.
	// Verbose requests the fuller per-port form where the driver supports it.
	NeighborInfo(ctx context.Context, d *device.Device, verbose bool) string
}

// Registry maps a device_class string to the Driver that handles it. A
// device's class is fixed at creation time; there is no runtime re-classing.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]Driver
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{drivers: make(map[string]Driver)}
}

// Register associates deviceClass with d, overwriting any prior registration.
func (r *Registry) Register(deviceClass string, d Driver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drivers[deviceClass] = d
}

// Get returns the Driver registered for deviceClass.
func (r *Registry) Get(deviceClass string) (Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.drivers[deviceClass]
	if !ok {
		return nil, fmt.Errorf("no driver registered for device_class %q", deviceClass)
	}
	return d, nil
}
