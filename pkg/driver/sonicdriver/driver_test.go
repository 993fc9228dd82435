package sonicdriver

import (
	"context"
	"errors"
	"testing"

	"github.com/liscain-net/liscain/pkg/device"
)

func failingSessionFor(ctx context.Context, d *device.Device) (*Session, error) {
	return nil, errors.New("dial failed")
}

func TestNeighborInfoReturnsUnknownWhenSessionUnavailable(t *testing.T) {
	drv := NewDriver(failingSessionFor, "liscain.example.net")
	d := device.New("leaf1", "10.10.0.5", "sonic")

	info := drv.NeighborInfo(context.Background(), d, true)
	if info != "unknown" {
		t.Errorf("info = %q, want unknown", info)
	}
}
