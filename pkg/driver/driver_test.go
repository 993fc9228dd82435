package driver

import (
	"context"
	"testing"

	"github.com/liscain-net/liscain/pkg/device"
	"github.com/liscain-net/liscain/pkg/ephemeral"
)

type stubDriver struct{ tag string }

func (s *stubDriver) EmitBaseConfig(ctx context.Context, d *device.Device) (string, error) {
	return s.tag, nil
}
func (s *stubDriver) InitialSetup(ctx context.Context, d *device.Device) bool { return true }
func (s *stubDriver) Configure(ctx context.Context, d *device.Device, configuration string, blobs *ephemeral.Store) bool {
	return true
}
func (s *stubDriver) ChangeIdentity(ctx context.Context, d *device.Device, identity string) bool {
	return true
}
func (s *stubDriver) NeighborInfo(ctx context.Context, d *device.Device, verbose bool) string {
	return ""
}

func TestRegistryGetRegistered(t *testing.T) {
	r := NewRegistry()
	r.Register("sonic", &stubDriver{tag: "sonic-driver"})

	got, err := r.Get("sonic")
	if err != nil {
		t.Fatalf("Get(sonic): %v", err)
	}
	if got.(*stubDriver).tag != "sonic-driver" {
		t.Errorf("Get(sonic) = %v, want sonic-driver", got)
	}
}

func TestRegistryGetUnregistered(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Get("ios"); err == nil {
		t.Error("Get(ios) on empty registry: want error, got nil")
	}
}

func TestRegistryOverwrite(t *testing.T) {
	r := NewRegistry()
	r.Register("sonic", &stubDriver{tag: "first"})
	r.Register("sonic", &stubDriver{tag: "second"})

	got, err := r.Get("sonic")
	if err != nil {
		t.Fatalf("Get(sonic): %v", err)
	}
	if got.(*stubDriver).tag != "second" {
		t.Errorf("Get(sonic) = %v, want second", got)
	}
}
