package store

import (
	"context"
	"errors"
	"testing"

	"github.com/liscain-net/liscain/pkg/device"
	"github.com/liscain-net/liscain/pkg/util"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetByID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	d := device.New("aa:bb:cc:dd:ee:01", "10.0.1.1", "sonic-leaf")
	created, err := s.Create(ctx, d)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected a non-zero ID after Create")
	}

	got, err := s.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Identifier != d.Identifier {
		t.Errorf("Identifier = %q, want %q", got.Identifier, d.Identifier)
	}
	if got.DeviceType != device.UnknownSentinel {
		t.Errorf("DeviceType = %q, want %q", got.DeviceType, device.UnknownSentinel)
	}
	if got.State != device.StateNew {
		t.Errorf("State = %q, want %q", got.State, device.StateNew)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetByID(context.Background(), 999)
	if !errors.Is(err, util.ErrNotFound) {
		t.Errorf("err = %v, want util.ErrNotFound", err)
	}
}

func TestFindByIdentifierNotInState(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	d := device.New("aa:bb:cc:dd:ee:02", "10.0.1.2", "sonic-leaf")
	d.State = device.StateConfigured
	if _, err := s.Create(ctx, d); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := s.FindByIdentifierNotInState(ctx, "aa:bb:cc:dd:ee:02", device.StateConfigured)
	if !errors.Is(err, util.ErrNotFound) {
		t.Errorf("err = %v, want util.ErrNotFound (only CONFIGURED row exists)", err)
	}

	_, err = s.FindByIdentifierNotInState(ctx, "aa:bb:cc:dd:ee:02", device.StateNew)
	if err != nil {
		t.Errorf("FindByIdentifierNotInState: %v", err)
	}
}

func TestListAll(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	identifiers := []string{"aa:bb:cc:dd:ee:03", "aa:bb:cc:dd:ee:04", "aa:bb:cc:dd:ee:05"}
	for _, id := range identifiers {
		d := device.New(id, "10.0.1.1", "sonic-leaf")
		if _, err := s.Create(ctx, d); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(ListAll()) = %d, want 3", len(all))
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	d := device.New("aa:bb:cc:dd:ee:10", "10.0.1.3", "sonic-leaf")
	created, err := s.Create(ctx, d)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if err := s.Delete(ctx, created.ID); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("second Delete err = %v, want util.ErrNotFound", err)
	}
}

func TestChangeStateValidTransition(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	d := device.New("aa:bb:cc:dd:ee:11", "10.0.1.4", "sonic-leaf")
	created, err := s.Create(ctx, d)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.ChangeState(ctx, created.ID, device.StateInit); err != nil {
		t.Fatalf("ChangeState NEW->INIT: %v", err)
	}

	got, err := s.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.State != device.StateInit {
		t.Errorf("State = %q, want %q", got.State, device.StateInit)
	}
}

func TestChangeStateRejectsIllegalTransition(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	d := device.New("aa:bb:cc:dd:ee:12", "10.0.1.5", "sonic-leaf")
	created, err := s.Create(ctx, d)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.ChangeState(ctx, created.ID, device.StateConfiguring); err == nil {
		t.Fatal("expected NEW->CONFIGURING to be rejected")
	}

	got, err := s.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.State != device.StateNew {
		t.Errorf("State = %q, want unchanged %q", got.State, device.StateNew)
	}
}

func TestUpdateDiscovered(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	d := device.New("aa:bb:cc:dd:ee:13", "10.0.1.6", "sonic-leaf")
	created, err := s.Create(ctx, d)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.UpdateDiscovered(ctx, created.ID, "sonic-vs", "aa:bb:cc:dd:ee:13", "4.2.0"); err != nil {
		t.Fatalf("UpdateDiscovered: %v", err)
	}

	got, err := s.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.DeviceType != "sonic-vs" {
		t.Errorf("DeviceType = %q, want %q", got.DeviceType, "sonic-vs")
	}
	if got.Version != "4.2.0" {
		t.Errorf("Version = %q, want %q", got.Version, "4.2.0")
	}
	if got.State != device.StateNew {
		t.Errorf("State should be unaffected, got %q", got.State)
	}
}

func TestSetAssociationCreatesThenUpdates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	name := "leaf2-ny"
	a, err := s.SetAssociation(ctx, "AA:BB:CC:DD:EE:FF", " Ethernet4 ", &name)
	if err != nil {
		t.Fatalf("SetAssociation: %v", err)
	}
	if a.UpstreamSwitchMAC != "aa:bb:cc:dd:ee:ff" {
		t.Errorf("UpstreamSwitchMAC = %q, want normalized lowercase", a.UpstreamSwitchMAC)
	}
	if a.UpstreamPortInfo != "Ethernet4" {
		t.Errorf("UpstreamPortInfo = %q, want trimmed %q", a.UpstreamPortInfo, "Ethernet4")
	}

	newName := "leaf2-ny-renamed"
	updated, err := s.SetAssociation(ctx, "aa:bb:cc:dd:ee:ff", "Ethernet4", &newName)
	if err != nil {
		t.Fatalf("second SetAssociation: %v", err)
	}
	if updated.ID != a.ID {
		t.Errorf("expected upsert to reuse row ID %d, got %d", a.ID, updated.ID)
	}
	if updated.DownstreamSwitchName == nil || *updated.DownstreamSwitchName != newName {
		t.Errorf("DownstreamSwitchName = %v, want %q", updated.DownstreamSwitchName, newName)
	}

	all, err := s.ListAssociations(ctx)
	if err != nil {
		t.Fatalf("ListAssociations: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("len(ListAssociations()) = %d, want 1 (upsert should not duplicate)", len(all))
	}
}

func TestUpdateOption82InfoIgnoresUnknownUpstream(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.UpdateOption82Info(ctx, "aa:bb:cc:dd:ee:ff", "Ethernet0", "11:22:33:44:55:66"); err != nil {
		t.Fatalf("UpdateOption82Info on unknown upstream should be a no-op, got: %v", err)
	}

	all, err := s.ListAssociations(ctx)
	if err != nil {
		t.Fatalf("ListAssociations: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected no rows created for an unknown upstream, got %d", len(all))
	}
}

func TestUpdateOption82InfoBindsDownstream(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.SetAssociation(ctx, "aa:bb:cc:dd:ee:ff", "Ethernet0", nil); err != nil {
		t.Fatalf("SetAssociation: %v", err)
	}

	if err := s.UpdateOption82Info(ctx, "aa:bb:cc:dd:ee:ff", "Ethernet0", "11:22:33:44:55:66"); err != nil {
		t.Fatalf("UpdateOption82Info: %v", err)
	}

	assoc, err := s.FindAssociationByUpstream(ctx, "aa:bb:cc:dd:ee:ff", "Ethernet0")
	if err != nil {
		t.Fatalf("FindAssociationByUpstream: %v", err)
	}
	if assoc.DownstreamSwitchMAC == nil || *assoc.DownstreamSwitchMAC != "11:22:33:44:55:66" {
		t.Errorf("DownstreamSwitchMAC = %v, want %q", assoc.DownstreamSwitchMAC, "11:22:33:44:55:66")
	}
}

func TestUpdateOption82InfoClearsStaleBinding(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.SetAssociation(ctx, "aa:bb:cc:dd:ee:01", "Ethernet0", nil); err != nil {
		t.Fatalf("SetAssociation 1: %v", err)
	}
	if _, err := s.SetAssociation(ctx, "aa:bb:cc:dd:ee:02", "Ethernet0", nil); err != nil {
		t.Fatalf("SetAssociation 2: %v", err)
	}

	downstream := "11:22:33:44:55:66"

	if err := s.UpdateOption82Info(ctx, "aa:bb:cc:dd:ee:01", "Ethernet0", downstream); err != nil {
		t.Fatalf("first UpdateOption82Info: %v", err)
	}

	// The downstream device moved to a different upstream port: the old
	// binding must be cleared so at most one row ever holds this MAC.
	if err := s.UpdateOption82Info(ctx, "aa:bb:cc:dd:ee:02", "Ethernet0", downstream); err != nil {
		t.Fatalf("second UpdateOption82Info: %v", err)
	}

	first, err := s.FindAssociationByUpstream(ctx, "aa:bb:cc:dd:ee:01", "Ethernet0")
	if err != nil {
		t.Fatalf("FindAssociationByUpstream 1: %v", err)
	}
	if first.DownstreamSwitchMAC != nil {
		t.Errorf("expected first row's downstream binding to be cleared, got %v", *first.DownstreamSwitchMAC)
	}

	second, err := s.FindAssociationByDownstreamMAC(ctx, downstream)
	if err != nil {
		t.Fatalf("FindAssociationByDownstreamMAC: %v", err)
	}
	if second.UpstreamSwitchMAC != "aa:bb:cc:dd:ee:02" {
		t.Errorf("UpstreamSwitchMAC = %q, want %q", second.UpstreamSwitchMAC, "aa:bb:cc:dd:ee:02")
	}
}

func TestDeleteAssociation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, err := s.SetAssociation(ctx, "aa:bb:cc:dd:ee:20", "Ethernet0", nil)
	if err != nil {
		t.Fatalf("SetAssociation: %v", err)
	}

	if err := s.DeleteAssociation(ctx, a.ID); err != nil {
		t.Fatalf("DeleteAssociation: %v", err)
	}

	if err := s.DeleteAssociation(ctx, a.ID); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("second DeleteAssociation err = %v, want util.ErrNotFound", err)
	}
}
