//go:build integration

package sonicdriver_test

import (
	"testing"

	"github.com/liscain-net/liscain/internal/testutil"
)

func TestStateDBPortTable(t *testing.T) {
	s := testutil.ConnectedSession(t)

	if s.StateDB == nil {
		t.Fatal("StateDB is nil")
	}

	if len(s.StateDB.PortTable) != 2 {
		t.Fatalf("expected 2 ports in PortTable, got %d", len(s.StateDB.PortTable))
	}

	for _, name := range []string{"Ethernet0", "Ethernet4"} {
		port, ok := s.StateDB.PortTable[name]
		if !ok {
			t.Errorf("port %s not found in PortTable", name)
			continue
		}
		if port.Speed != "25000" {
			t.Errorf("port %s speed = %q, want %q", name, port.Speed, "25000")
		}
		if port.MTU != "9100" {
			t.Errorf("port %s mtu = %q, want %q", name, port.MTU, "9100")
		}
		if port.OperStatus != "up" {
			t.Errorf("port %s oper_status = %q, want %q", name, port.OperStatus, "up")
		}
	}
}

func TestStateDBEmptyTable(t *testing.T) {
	s := testutil.ConnectedSession(t)

	if len(s.StateDB.VRFTable) != 0 {
		t.Errorf("expected VRFTable to be empty, got %d entries", len(s.StateDB.VRFTable))
	}
	if len(s.StateDB.NeighTable) != 0 {
		t.Errorf("expected NeighTable to be empty, got %d entries", len(s.StateDB.NeighTable))
	}
	if len(s.StateDB.FDBTable) != 0 {
		t.Errorf("expected FDBTable to be empty, got %d entries", len(s.StateDB.FDBTable))
	}
}

func TestStateDBRefresh(t *testing.T) {
	s := testutil.ConnectedSession(t)

	port, ok := s.StateDB.PortTable["Ethernet0"]
	if !ok {
		t.Fatal("Ethernet0 not found in PortTable")
	}
	if port.OperStatus != "up" {
		t.Fatalf("Ethernet0 initial oper_status = %q, want %q", port.OperStatus, "up")
	}

	addr := testutil.RedisAddr()
	testutil.WriteSingleEntry(t, addr, 6, "PORT_TABLE", "Ethernet0", map[string]string{
		"admin_status": "up",
		"oper_status":  "down",
		"speed":        "25000",
		"mtu":          "9100",
	})

	if s.StateDB.PortTable["Ethernet0"].OperStatus != "up" {
		t.Error("oper_status should still be 'up' before RefreshState")
	}

	ctx := testutil.Context(t)
	if err := s.RefreshState(ctx); err != nil {
		t.Fatalf("RefreshState failed: %v", err)
	}

	port, ok = s.StateDB.PortTable["Ethernet0"]
	if !ok {
		t.Fatal("Ethernet0 not found in PortTable after RefreshState")
	}
	if port.OperStatus != "down" {
		t.Errorf("Ethernet0 oper_status = %q after RefreshState, want %q", port.OperStatus, "down")
	}
}
