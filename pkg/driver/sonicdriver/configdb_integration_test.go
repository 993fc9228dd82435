//go:build integration

package sonicdriver_test

import (
	"testing"

	"github.com/liscain-net/liscain/internal/testutil"
	"github.com/liscain-net/liscain/pkg/driver/sonicdriver"
)

func TestConfigDBClientConnect(t *testing.T) {
	testutil.SkipIfNoRedis(t)
	testutil.SetupBothDBs(t)

	addr := testutil.RedisAddr()
	client := sonicdriver.NewConfigDBClient(addr)
	defer client.Close()

	if err := client.Connect(); err != nil {
		t.Fatalf("ConfigDBClient.Connect failed: %v", err)
	}
}

func TestConfigDBGetAll(t *testing.T) {
	testutil.SkipIfNoRedis(t)
	testutil.SetupBothDBs(t)

	addr := testutil.RedisAddr()
	client := sonicdriver.NewConfigDBClient(addr)
	defer client.Close()

	if err := client.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	db, err := client.GetAll()
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}

	if len(db.Port) != 3 {
		t.Errorf("Port count = %d, want 3", len(db.Port))
	}
	if len(db.VLAN) != 1 {
		t.Errorf("VLAN count = %d, want 1", len(db.VLAN))
	}
	if len(db.VRF) != 1 {
		t.Errorf("VRF count = %d, want 1", len(db.VRF))
	}
}

func TestConfigDBGet(t *testing.T) {
	testutil.SkipIfNoRedis(t)
	testutil.SetupBothDBs(t)

	addr := testutil.RedisAddr()
	client := sonicdriver.NewConfigDBClient(addr)
	defer client.Close()

	if err := client.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	vals, err := client.Get("PORT", "Ethernet0")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if vals["admin_status"] != "up" {
		t.Errorf("admin_status = %q, want %q", vals["admin_status"], "up")
	}
	if vals["mtu"] != "9100" {
		t.Errorf("mtu = %q, want %q", vals["mtu"], "9100")
	}
	if vals["speed"] != "25000" {
		t.Errorf("speed = %q, want %q", vals["speed"], "25000")
	}
}

func TestConfigDBSet(t *testing.T) {
	testutil.SkipIfNoRedis(t)
	testutil.SetupBothDBs(t)

	addr := testutil.RedisAddr()
	client := sonicdriver.NewConfigDBClient(addr)
	defer client.Close()

	if err := client.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	fields := map[string]string{
		"vlanid":       "300",
		"description":  "TestVLAN",
		"admin_status": "up",
	}
	if err := client.Set("VLAN", "Vlan300", fields); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	vals, err := client.Get("VLAN", "Vlan300")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if vals["vlanid"] != "300" {
		t.Errorf("vlanid = %q, want %q", vals["vlanid"], "300")
	}
	if vals["description"] != "TestVLAN" {
		t.Errorf("description = %q, want %q", vals["description"], "TestVLAN")
	}
	if vals["admin_status"] != "up" {
		t.Errorf("admin_status = %q, want %q", vals["admin_status"], "up")
	}
}

func TestConfigDBDelete(t *testing.T) {
	testutil.SkipIfNoRedis(t)
	testutil.SetupBothDBs(t)

	addr := testutil.RedisAddr()
	client := sonicdriver.NewConfigDBClient(addr)
	defer client.Close()

	if err := client.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	fields := map[string]string{"vlanid": "999", "admin_status": "up"}
	if err := client.Set("VLAN", "Vlan999", fields); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	exists, err := client.Exists("VLAN", "Vlan999")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Fatal("expected entry to exist before delete")
	}

	if err := client.Delete("VLAN", "Vlan999"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	exists, err = client.Exists("VLAN", "Vlan999")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("expected entry to not exist after delete")
	}
}

func TestConfigDBDeleteField(t *testing.T) {
	testutil.SkipIfNoRedis(t)
	testutil.SetupBothDBs(t)

	addr := testutil.RedisAddr()
	client := sonicdriver.NewConfigDBClient(addr)
	defer client.Close()

	if err := client.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	fields := map[string]string{
		"vlanid":       "500",
		"description":  "TempVLAN",
		"admin_status": "up",
	}
	if err := client.Set("VLAN", "Vlan500", fields); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := client.DeleteField("VLAN", "Vlan500", "description"); err != nil {
		t.Fatalf("DeleteField failed: %v", err)
	}

	vals, err := client.Get("VLAN", "Vlan500")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if _, ok := vals["description"]; ok {
		t.Error("description field should have been deleted")
	}
	if vals["vlanid"] != "500" {
		t.Errorf("vlanid = %q, want %q (should still exist)", vals["vlanid"], "500")
	}
	if vals["admin_status"] != "up" {
		t.Errorf("admin_status = %q, want %q (should still exist)", vals["admin_status"], "up")
	}
}

func TestConfigDBExists(t *testing.T) {
	testutil.SkipIfNoRedis(t)
	testutil.SetupBothDBs(t)

	addr := testutil.RedisAddr()
	client := sonicdriver.NewConfigDBClient(addr)
	defer client.Close()

	if err := client.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	exists, err := client.Exists("PORT", "Ethernet0")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("expected PORT|Ethernet0 to exist")
	}

	exists, err = client.Exists("PORT", "Ethernet99")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("expected PORT|Ethernet99 to not exist")
	}
}
