//go:build integration

package sonicdriver_test

import (
	"testing"

	"github.com/liscain-net/liscain/internal/testutil"
	"github.com/liscain-net/liscain/pkg/driver/sonicdriver"
)

func TestConnect(t *testing.T) {
	testutil.SkipIfNoRedis(t)
	testutil.SetupBothDBs(t)

	s := sonicdriver.NewSession("test-leaf1", testutil.RedisIP(), "", "", 0)

	ctx := testutil.Context(t)
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer s.Disconnect()

	if !s.IsConnected() {
		t.Error("expected IsConnected to be true after Connect")
	}
}

func TestDisconnect(t *testing.T) {
	testutil.SkipIfNoRedis(t)
	testutil.SetupBothDBs(t)

	s := sonicdriver.NewSession("test-leaf1", testutil.RedisIP(), "", "", 0)

	ctx := testutil.Context(t)
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if err := s.Disconnect(); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}

	if s.IsConnected() {
		t.Error("expected IsConnected to be false after Disconnect")
	}
}

func TestReconnect(t *testing.T) {
	testutil.SkipIfNoRedis(t)
	testutil.SetupBothDBs(t)

	s := sonicdriver.NewSession("test-leaf1", testutil.RedisIP(), "", "", 0)

	ctx := testutil.Context(t)
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("initial Connect failed: %v", err)
	}

	if err := s.Disconnect(); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}

	if s.IsConnected() {
		t.Error("expected IsConnected to be false after Disconnect")
	}

	if err := s.Connect(ctx); err != nil {
		t.Fatalf("reconnect failed: %v", err)
	}
	defer s.Disconnect()

	if !s.IsConnected() {
		t.Error("expected IsConnected to be true after reconnect")
	}
}

func TestConfigDBLoaded(t *testing.T) {
	s := testutil.ConnectedSession(t)

	if s.ConfigDB == nil {
		t.Fatal("ConfigDB is nil after Connect")
	}
	if len(s.ConfigDB.Port) == 0 {
		t.Error("ConfigDB.Port is empty")
	}
	if len(s.ConfigDB.VLAN) == 0 {
		t.Error("ConfigDB.VLAN is empty")
	}
	if len(s.ConfigDB.VRF) == 0 {
		t.Error("ConfigDB.VRF is empty")
	}
	if len(s.ConfigDB.PortChannel) == 0 {
		t.Error("ConfigDB.PortChannel is empty")
	}
	if len(s.ConfigDB.BGPNeighbor) == 0 {
		t.Error("ConfigDB.BGPNeighbor is empty")
	}
	if len(s.ConfigDB.VXLANTunnel) == 0 {
		t.Error("ConfigDB.VXLANTunnel is empty")
	}
	if len(s.ConfigDB.ACLTable) == 0 {
		t.Error("ConfigDB.ACLTable is empty")
	}
	if len(s.ConfigDB.LiscainServiceBinding) == 0 {
		t.Error("ConfigDB.LiscainServiceBinding is empty")
	}
}

func TestPortTable(t *testing.T) {
	s := testutil.ConnectedSession(t)

	if len(s.ConfigDB.Port) != 3 {
		t.Fatalf("expected 3 ports, got %d", len(s.ConfigDB.Port))
	}

	for _, name := range []string{"Ethernet0", "Ethernet4", "Ethernet5"} {
		port, ok := s.ConfigDB.Port[name]
		if !ok {
			t.Errorf("port %s not found", name)
			continue
		}
		if port.MTU != "9100" {
			t.Errorf("port %s MTU = %q, want %q", name, port.MTU, "9100")
		}
		if port.Speed != "25000" {
			t.Errorf("port %s Speed = %q, want %q", name, port.Speed, "25000")
		}
		if port.AdminStatus != "up" {
			t.Errorf("port %s admin_status = %q, want %q", name, port.AdminStatus, "up")
		}
	}
}

func TestPortChannelTable(t *testing.T) {
	s := testutil.ConnectedSession(t)

	pc, ok := s.ConfigDB.PortChannel["PortChannel100"]
	if !ok {
		t.Fatal("PortChannel100 not found in ConfigDB.PortChannel")
	}
	if pc.AdminStatus != "up" {
		t.Errorf("PortChannel100 admin_status = %q, want %q", pc.AdminStatus, "up")
	}
	if pc.MTU != "9100" {
		t.Errorf("PortChannel100 mtu = %q, want %q", pc.MTU, "9100")
	}
	if pc.MinLinks != "1" {
		t.Errorf("PortChannel100 min_links = %q, want %q", pc.MinLinks, "1")
	}
}

func TestPortChannelMemberTable(t *testing.T) {
	s := testutil.ConnectedSession(t)

	if len(s.ConfigDB.PortChannelMember) != 2 {
		t.Fatalf("expected 2 port channel members, got %d", len(s.ConfigDB.PortChannelMember))
	}

	if _, ok := s.ConfigDB.PortChannelMember["PortChannel100|Ethernet4"]; !ok {
		t.Error("PortChannel100|Ethernet4 not found")
	}
	if _, ok := s.ConfigDB.PortChannelMember["PortChannel100|Ethernet5"]; !ok {
		t.Error("PortChannel100|Ethernet5 not found")
	}
}

func TestVLANTable(t *testing.T) {
	s := testutil.ConnectedSession(t)

	if len(s.ConfigDB.VLAN) != 1 {
		t.Fatalf("expected 1 VLAN, got %d", len(s.ConfigDB.VLAN))
	}

	vlan100, ok := s.ConfigDB.VLAN["Vlan100"]
	if !ok {
		t.Fatal("Vlan100 not found")
	}
	if vlan100.VLANID != "100" {
		t.Errorf("Vlan100 vlanid = %q, want %q", vlan100.VLANID, "100")
	}
	if vlan100.Description != "test-vlan" {
		t.Errorf("Vlan100 description = %q, want %q", vlan100.Description, "test-vlan")
	}
}

func TestVLANMemberTable(t *testing.T) {
	s := testutil.ConnectedSession(t)

	if len(s.ConfigDB.VLANMember) != 1 {
		t.Fatalf("expected 1 VLAN member, got %d", len(s.ConfigDB.VLANMember))
	}

	m, ok := s.ConfigDB.VLANMember["Vlan100|Ethernet0"]
	if !ok {
		t.Fatal("Vlan100|Ethernet0 not found")
	}
	if m.TaggingMode != "tagged" {
		t.Errorf("Vlan100|Ethernet0 tagging_mode = %q, want %q", m.TaggingMode, "tagged")
	}
}

func TestVRFTable(t *testing.T) {
	s := testutil.ConnectedSession(t)

	if len(s.ConfigDB.VRF) != 1 {
		t.Fatalf("expected 1 VRF, got %d", len(s.ConfigDB.VRF))
	}

	vrf, ok := s.ConfigDB.VRF["Vrf-test"]
	if !ok {
		t.Fatal("Vrf-test not found")
	}
	if vrf.VNI != "10100" {
		t.Errorf("Vrf-test vni = %q, want %q", vrf.VNI, "10100")
	}
}

func TestInterfaceTable(t *testing.T) {
	s := testutil.ConnectedSession(t)

	eth4, ok := s.ConfigDB.Interface["Ethernet4"]
	if !ok {
		t.Fatal("Ethernet4 not found in INTERFACE table")
	}
	if eth4.VRFName != "Vrf-test" {
		t.Errorf("Ethernet4 vrf_name = %q, want %q", eth4.VRFName, "Vrf-test")
	}
}

func TestVXLANTunnel(t *testing.T) {
	s := testutil.ConnectedSession(t)

	vtep, ok := s.ConfigDB.VXLANTunnel["vtep1"]
	if !ok {
		t.Fatal("vtep1 not found in VXLANTunnel")
	}
	if vtep.SrcIP != "10.0.0.10" {
		t.Errorf("vtep1 src_ip = %q, want %q", vtep.SrcIP, "10.0.0.10")
	}
}

func TestBGPNeighbor(t *testing.T) {
	s := testutil.ConnectedSession(t)

	if len(s.ConfigDB.BGPNeighbor) != 1 {
		t.Fatalf("expected 1 BGP neighbor, got %d", len(s.ConfigDB.BGPNeighbor))
	}

	n1, ok := s.ConfigDB.BGPNeighbor["10.0.0.1"]
	if !ok {
		t.Fatal("BGP neighbor 10.0.0.1 not found")
	}
	if n1.ASN != "13908" {
		t.Errorf("neighbor 10.0.0.1 asn = %q, want %q", n1.ASN, "13908")
	}
	if n1.Name != "spine1-test" {
		t.Errorf("neighbor 10.0.0.1 name = %q, want %q", n1.Name, "spine1-test")
	}
}

func TestACLTable(t *testing.T) {
	s := testutil.ConnectedSession(t)

	if len(s.ConfigDB.ACLTable) != 1 {
		t.Fatalf("expected 1 ACL table, got %d", len(s.ConfigDB.ACLTable))
	}

	acl, ok := s.ConfigDB.ACLTable["liscain-l3-in"]
	if !ok {
		t.Fatal("ACL table liscain-l3-in not found")
	}
	if acl.Type != "L3" {
		t.Errorf("liscain-l3-in type = %q, want %q", acl.Type, "L3")
	}
	if acl.Stage != "ingress" {
		t.Errorf("liscain-l3-in stage = %q, want %q", acl.Stage, "ingress")
	}
}

func TestServiceBinding(t *testing.T) {
	s := testutil.ConnectedSession(t)

	binding, ok := s.ConfigDB.LiscainServiceBinding["Ethernet0"]
	if !ok {
		t.Fatal("service binding for Ethernet0 not found")
	}
	if binding.ServiceName != "customer-l3" {
		t.Errorf("Ethernet0 service_name = %q, want %q", binding.ServiceName, "customer-l3")
	}
	if binding.IPAddress != "10.1.1.1/30" {
		t.Errorf("Ethernet0 ip_address = %q, want %q", binding.IPAddress, "10.1.1.1/30")
	}
	if binding.VRFName != "Vrf-test" {
		t.Errorf("Ethernet0 vrf_name = %q, want %q", binding.VRFName, "Vrf-test")
	}
}

func TestStateDB(t *testing.T) {
	s := testutil.ConnectedSession(t)

	if s.StateDB == nil {
		t.Fatal("StateDB is nil after Connect")
	}
	if len(s.StateDB.PortTable) == 0 {
		t.Error("StateDB.PortTable is empty")
	}
	if len(s.StateDB.VLANTable) == 0 {
		t.Error("StateDB.VLANTable is empty")
	}
}

func TestInterfaceExists(t *testing.T) {
	s := testutil.ConnectedSession(t)

	if !s.InterfaceExists("Ethernet0") {
		t.Error("InterfaceExists(Ethernet0) = false, want true")
	}
	if !s.InterfaceExists("PortChannel100") {
		t.Error("InterfaceExists(PortChannel100) = false, want true")
	}
	if s.InterfaceExists("Ethernet99") {
		t.Error("InterfaceExists(Ethernet99) = true, want false")
	}
}

func TestVLANExists(t *testing.T) {
	s := testutil.ConnectedSession(t)

	if !s.VLANExists(100) {
		t.Error("VLANExists(100) = false, want true")
	}
	if s.VLANExists(999) {
		t.Error("VLANExists(999) = true, want false")
	}
}

func TestVRFExists(t *testing.T) {
	s := testutil.ConnectedSession(t)

	if !s.VRFExists("Vrf-test") {
		t.Error("VRFExists(Vrf-test) = false, want true")
	}
	if s.VRFExists("Vrf-nonexistent") {
		t.Error("VRFExists(Vrf-nonexistent) = true, want false")
	}
}

func TestPortChannelExists(t *testing.T) {
	s := testutil.ConnectedSession(t)

	if !s.PortChannelExists("PortChannel100") {
		t.Error("PortChannelExists(PortChannel100) = false, want true")
	}
	if s.PortChannelExists("PortChannel999") {
		t.Error("PortChannelExists(PortChannel999) = true, want false")
	}
}

func TestVTEPExists(t *testing.T) {
	s := testutil.ConnectedSession(t)

	if !s.VTEPExists() {
		t.Error("VTEPExists() = false, want true")
	}
}

func TestBGPConfigured(t *testing.T) {
	s := testutil.ConnectedSession(t)

	if !s.BGPConfigured() {
		t.Error("BGPConfigured() = false, want true")
	}
}

func TestACLTableExists(t *testing.T) {
	s := testutil.ConnectedSession(t)

	if !s.ACLTableExists("liscain-l3-in") {
		t.Error("ACLTableExists(liscain-l3-in) = false, want true")
	}
	if s.ACLTableExists("nonexistent-acl") {
		t.Error("ACLTableExists(nonexistent-acl) = true, want false")
	}
}

func TestInterfaceIsLAGMember(t *testing.T) {
	s := testutil.ConnectedSession(t)

	if !s.InterfaceIsLAGMember("Ethernet4") {
		t.Error("InterfaceIsLAGMember(Ethernet4) = false, want true")
	}
	if !s.InterfaceIsLAGMember("Ethernet5") {
		t.Error("InterfaceIsLAGMember(Ethernet5) = false, want true")
	}
	if s.InterfaceIsLAGMember("Ethernet0") {
		t.Error("InterfaceIsLAGMember(Ethernet0) = true, want false")
	}
}

func TestGetInterfaceLAG(t *testing.T) {
	s := testutil.ConnectedSession(t)

	if lag := s.GetInterfaceLAG("Ethernet4"); lag != "PortChannel100" {
		t.Errorf("GetInterfaceLAG(Ethernet4) = %q, want %q", lag, "PortChannel100")
	}
	if lag := s.GetInterfaceLAG("Ethernet0"); lag != "" {
		t.Errorf("GetInterfaceLAG(Ethernet0) = %q, want empty string", lag)
	}
}

func TestLockUnlock(t *testing.T) {
	s := testutil.ConnectedSession(t)

	ctx := testutil.Context(t)

	if s.IsLocked() {
		t.Error("expected IsLocked to be false before Lock")
	}

	if err := s.Lock(ctx); err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	if !s.IsLocked() {
		t.Error("expected IsLocked to be true after Lock")
	}

	if err := s.Unlock(); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}

	if s.IsLocked() {
		t.Error("expected IsLocked to be false after Unlock")
	}
}

func TestInterfaceHasService(t *testing.T) {
	s := testutil.ConnectedSession(t)

	if !s.InterfaceHasService("Ethernet0") {
		t.Error("InterfaceHasService(Ethernet0) = false, want true")
	}
	if s.InterfaceHasService("Ethernet4") {
		t.Error("InterfaceHasService(Ethernet4) = true, want false")
	}
	if s.InterfaceHasService("Ethernet99") {
		t.Error("InterfaceHasService(Ethernet99) = true, want false")
	}
}
