//go:build integration

package testutil

import (
	"context"
	"testing"

	"github.com/go-redis/redis/v8"
)

// FlushDB flushes a specific Redis database.
func FlushDB(t *testing.T, addr string, db int) {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	defer client.Close()

	if err := client.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("flushing db %d: %v", db, err)
	}
}

// WriteSingleEntry writes a single hash entry to a specific Redis DB.
func WriteSingleEntry(t *testing.T, addr string, db int, table, key string, fields map[string]string) {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	defer client.Close()

	redisKey := table + "|" + key
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	if err := client.HSet(context.Background(), redisKey, args...).Err(); err != nil {
		t.Fatalf("writing %s: %v", redisKey, err)
	}
}

// DeleteEntry removes a key from a specific Redis DB.
func DeleteEntry(t *testing.T, addr string, db int, table, key string) {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	defer client.Close()

	redisKey := table + "|" + key
	if err := client.Del(context.Background(), redisKey).Err(); err != nil {
		t.Fatalf("deleting %s: %v", redisKey, err)
	}
}

// ReadEntry reads a hash entry from a specific Redis DB.
func ReadEntry(t *testing.T, addr string, db int, table, key string) map[string]string {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	defer client.Close()

	redisKey := table + "|" + key
	vals, err := client.HGetAll(context.Background(), redisKey).Result()
	if err != nil {
		t.Fatalf("reading %s: %v", redisKey, err)
	}
	return vals
}

// EntryExists checks if a key exists in a specific Redis DB.
func EntryExists(t *testing.T, addr string, db int, table, key string) bool {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	defer client.Close()

	redisKey := table + "|" + key
	n, err := client.Exists(context.Background(), redisKey).Result()
	if err != nil {
		t.Fatalf("checking existence of %s: %v", redisKey, err)
	}
	return n > 0
}

// configDBSeed is the set of CONFIG_DB hash entries written for a test
// switch: its DEVICE_METADATA, three physical ports, a VLAN with Ethernet0
// as a tagged member, a VRF bound to Ethernet4, a port channel over
// Ethernet4 and Ethernet5, one BGP neighbor, a VXLAN tunnel, an ACL table
// and a service binding on Ethernet0. Authored in-line rather than loaded
// from a fixture file, since there is no fixed corpus of test switches to
// snapshot.
var configDBSeed = map[string]map[string]map[string]string{
	"DEVICE_METADATA": {
		"localhost": {"hostname": "test-leaf1", "hwsku": "Force10-S6000", "mac": "52:54:00:12:34:56"},
	},
	"PORT": {
		"Ethernet0": {"admin_status": "up", "speed": "25000", "mtu": "9100"},
		"Ethernet4": {"admin_status": "up", "speed": "25000", "mtu": "9100"},
		"Ethernet5": {"admin_status": "up", "speed": "25000", "mtu": "9100"},
	},
	"VLAN": {
		"Vlan100": {"vlanid": "100", "description": "test-vlan"},
	},
	"VLAN_MEMBER": {
		"Vlan100|Ethernet0": {"tagging_mode": "tagged"},
	},
	"VRF": {
		"Vrf-test": {"vni": "10100"},
	},
	"INTERFACE": {
		"Ethernet4": {"vrf_name": "Vrf-test"},
	},
	"PORTCHANNEL": {
		"PortChannel100": {"admin_status": "up", "mtu": "9100", "min_links": "1"},
	},
	"PORTCHANNEL_MEMBER": {
		"PortChannel100|Ethernet4": {},
		"PortChannel100|Ethernet5": {},
	},
	"BGP_NEIGHBOR": {
		"10.0.0.1": {"asn": "13908", "name": "spine1-test"},
	},
	"VXLAN_TUNNEL": {
		"vtep1": {"src_ip": "10.0.0.10"},
	},
	"ACL_TABLE": {
		"liscain-l3-in": {"type": "L3", "stage": "ingress", "ports": "Ethernet0"},
	},
	"LISCAIN_SERVICE_BINDING": {
		"Ethernet0": {"service_name": "customer-l3", "ip_address": "10.1.1.1/30", "vrf_name": "Vrf-test"},
	},
}

// stateDBSeed mirrors configDBSeed with the operational counterparts that
// STATE_DB carries for two of its ports, Ethernet0 and Ethernet4.
var stateDBSeed = map[string]map[string]map[string]string{
	"PORT_TABLE": {
		"Ethernet0": {"admin_status": "up", "oper_status": "up", "speed": "25000", "mtu": "9100"},
		"Ethernet4": {"admin_status": "up", "oper_status": "up", "speed": "25000", "mtu": "9100"},
	},
	"VLAN_TABLE": {
		"Vlan100": {"oper_status": "up"},
	},
}

func seedTables(t *testing.T, addr string, db int, tables map[string]map[string]map[string]string) {
	t.Helper()
	for table, entries := range tables {
		for key, fields := range entries {
			WriteSingleEntry(t, addr, db, table, key, fields)
		}
	}
}

// SetupConfigDB flushes DB 4 and seeds it with a small fixed topology.
func SetupConfigDB(t *testing.T) {
	t.Helper()

	addr := RedisAddr()
	FlushDB(t, addr, 4)
	seedTables(t, addr, 4, configDBSeed)
}

// SetupStateDB flushes DB 6 and seeds it with operational state matching
// configDBSeed.
func SetupStateDB(t *testing.T) {
	t.Helper()

	addr := RedisAddr()
	FlushDB(t, addr, 6)
	seedTables(t, addr, 6, stateDBSeed)
}

// SetupBothDBs flushes and seeds both CONFIG_DB (4) and STATE_DB (6).
func SetupBothDBs(t *testing.T) {
	t.Helper()

	SetupConfigDB(t)
	SetupStateDB(t)
}
