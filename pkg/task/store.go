package task

import (
	"context"

	"github.com/liscain-net/liscain/pkg/device"
)

// DeviceStore is the slice of the Device Store that tasks need to persist
// lifecycle transitions and harvested attributes. A narrow interface here
// keeps task tests from needing a real SQLite-backed store.
type DeviceStore interface {
	ChangeState(ctx context.Context, id int64, newState device.State) error
	UpdateDiscovered(ctx context.Context, id int64, deviceType, macAddress, version string) error
	UpdateIdentifier(ctx context.Context, id int64, identifier string) error
}
