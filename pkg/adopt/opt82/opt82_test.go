package opt82

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/liscain-net/liscain/pkg/adopt"
	"github.com/liscain-net/liscain/pkg/commander"
	"github.com/liscain-net/liscain/pkg/device"
	"github.com/liscain-net/liscain/pkg/ephemeral"
	"github.com/liscain-net/liscain/pkg/store"
)

type fakeStore struct{}

func (fakeStore) ChangeState(ctx context.Context, id int64, newState device.State) error { return nil }
func (fakeStore) UpdateDiscovered(ctx context.Context, id int64, deviceType, macAddress, version string) error {
	return nil
}
func (fakeStore) UpdateIdentifier(ctx context.Context, id int64, identifier string) error { return nil }

type fakeDriver struct{}

func (fakeDriver) EmitBaseConfig(ctx context.Context, d *device.Device) (string, error) {
	return "", nil
}
func (fakeDriver) InitialSetup(ctx context.Context, d *device.Device) bool { return true }
func (fakeDriver) Configure(ctx context.Context, d *device.Device, configuration string, blobs *ephemeral.Store) bool {
	return true
}
func (fakeDriver) ChangeIdentity(ctx context.Context, d *device.Device, identity string) bool {
	return true
}
func (fakeDriver) NeighborInfo(ctx context.Context, d *device.Device, verbose bool) string {
	return ""
}

type fakeAssociations struct {
	assoc *store.Option82Association
	err   error
}

func (f fakeAssociations) FindAssociationByDownstreamMAC(ctx context.Context, downstreamMAC string) (*store.Option82Association, error) {
	return f.assoc, f.err
}

func newAdopter(t *testing.T, assoc *store.Option82Association, err error) (*Adopter, *commander.Commander) {
	t.Helper()
	dir := t.TempDir()
	if werr := os.WriteFile(filepath.Join(dir, "sw1.cfg"), []byte("hostname sw1\n"), 0o644); werr != nil {
		t.Fatalf("seed config: %v", werr)
	}

	c := commander.New()
	a := &Adopter{
		Base: adopt.Base{
			Commander:    c,
			AutoconfPath: dir,
			Store:        fakeStore{},
			Driver:       fakeDriver{},
			Blobs:        mustStore(t),
		},
		Associations: fakeAssociations{assoc: assoc, err: err},
	}
	return a, c
}

func mustStore(t *testing.T) *ephemeral.Store {
	t.Helper()
	s, err := ephemeral.NewStore()
	if err != nil {
		t.Fatalf("ephemeral.NewStore: %v", err)
	}
	return s
}

func name(s string) *string { return &s }

func TestAutoadoptEnqueuesOnResolvedAssociation(t *testing.T) {
	assoc := &store.Option82Association{DownstreamSwitchName: name("sw1")}
	a, c := newAdopter(t, assoc, nil)
	defer c.Stop()

	d := device.New("lc-aabbcc", "10.0.0.5", "sonic")
	d.ID = 1
	d.State = device.StateReady

	a.Autoadopt(context.Background(), d)

	// No panic and no error path exercised; queue accepted the task.
	if list := c.GetQueueList(1); list == nil {
		t.Errorf("GetQueueList(1) = nil, want the enqueued ConfigureTask to show up eventually")
	}
}

func TestAutoadoptSkipsOnLookupError(t *testing.T) {
	a, c := newAdopter(t, nil, errors.New("not found"))
	defer c.Stop()

	d := device.New("lc-aabbcc", "10.0.0.5", "sonic")
	d.ID = 1

	a.Autoadopt(context.Background(), d)

	if list := c.GetQueueList(1); list != nil {
		t.Errorf("GetQueueList(1) = %v, want nil (nothing enqueued on lookup error)", list)
	}
}

func TestAutoadoptSkipsOnUnboundAssociation(t *testing.T) {
	assoc := &store.Option82Association{}
	a, c := newAdopter(t, assoc, nil)
	defer c.Stop()

	d := device.New("lc-aabbcc", "10.0.0.5", "sonic")
	d.ID = 1

	a.Autoadopt(context.Background(), d)

	if list := c.GetQueueList(1); list != nil {
		t.Errorf("GetQueueList(1) = %v, want nil (association has no switch name yet)", list)
	}
}
