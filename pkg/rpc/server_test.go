package rpc

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/liscain-net/liscain/pkg/device"
	"github.com/liscain-net/liscain/pkg/driver"
	"github.com/liscain-net/liscain/pkg/ephemeral"
	"github.com/liscain-net/liscain/pkg/store"
	"github.com/liscain-net/liscain/pkg/task"
	"github.com/liscain-net/liscain/pkg/util"
)

type fakeStore struct {
	mu           sync.Mutex
	devices      map[int64]*device.Device
	associations map[int64]*store.Option82Association
	deleted      []int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		devices:      make(map[int64]*device.Device),
		associations: make(map[int64]*store.Option82Association),
	}
}

func (s *fakeStore) ChangeState(ctx context.Context, id int64, newState device.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.devices[id]; ok {
		d.State = newState
	}
	return nil
}
func (s *fakeStore) UpdateDiscovered(ctx context.Context, id int64, deviceType, macAddress, version string) error {
	return nil
}
func (s *fakeStore) UpdateIdentifier(ctx context.Context, id int64, identifier string) error {
	return nil
}

func (s *fakeStore) GetByID(ctx context.Context, id int64) (*device.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[id]
	if !ok {
		return nil, util.ErrNotFound
	}
	return d, nil
}

func (s *fakeStore) ListAll(ctx context.Context) ([]*device.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*device.Device, 0, len(s.devices))
	for _, d := range s.devices {
		out = append(out, d)
	}
	return out, nil
}

func (s *fakeStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.devices[id]; !ok {
		return util.ErrNotFound
	}
	delete(s.devices, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *fakeStore) SetAssociation(ctx context.Context, upstreamMAC, upstreamPort string, downstreamName *string) (*store.Option82Association, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := int64(len(s.associations) + 1)
	a := &store.Option82Association{ID: id, UpstreamSwitchMAC: upstreamMAC, UpstreamPortInfo: upstreamPort, DownstreamSwitchName: downstreamName}
	s.associations[id] = a
	return a, nil
}

func (s *fakeStore) ListAssociations(ctx context.Context) ([]*store.Option82Association, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*store.Option82Association, 0, len(s.associations))
	for _, a := range s.associations {
		out = append(out, a)
	}
	return out, nil
}

func (s *fakeStore) DeleteAssociation(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.associations[id]; !ok {
		return util.ErrNotFound
	}
	delete(s.associations, id)
	return nil
}

type fakeCommander struct {
	mu       sync.Mutex
	enqueued []task.Task
}

func (c *fakeCommander) Enqueue(ctx context.Context, deviceID int64, deviceName string, t task.Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enqueued = append(c.enqueued, t)
	return nil
}

func (c *fakeCommander) GetQueueList(deviceID int64) []string { return nil }

type stubDriver struct{ neighborInfo string }

func (s *stubDriver) EmitBaseConfig(ctx context.Context, d *device.Device) (string, error) {
	return "", nil
}
func (s *stubDriver) InitialSetup(ctx context.Context, d *device.Device) bool { return true }
func (s *stubDriver) Configure(ctx context.Context, d *device.Device, configuration string, blobs *ephemeral.Store) bool {
	return true
}
func (s *stubDriver) ChangeIdentity(ctx context.Context, d *device.Device, identity string) bool {
	return true
}
func (s *stubDriver) NeighborInfo(ctx context.Context, d *device.Device, verbose bool) string {
	return s.neighborInfo
}

func mustBlobs(t *testing.T) *ephemeral.Store {
	t.Helper()
	blobs, err := ephemeral.NewStore()
	if err != nil {
		t.Fatalf("ephemeral.NewStore: %v", err)
	}
	return blobs
}

func startTestConn(t *testing.T) *nats.Conn {
	t.Helper()
	opts := &natsserver.Options{Host: "127.0.0.1", Port: -1}
	srv, err := natsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("natsserver.NewServer: %v", err)
	}
	go srv.Start()
	if !srv.ReadyForConnections(2 * time.Second) {
		t.Fatal("nats test server did not become ready")
	}
	t.Cleanup(srv.Shutdown)

	conn, err := nats.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("nats.Connect: %v", err)
	}
	t.Cleanup(conn.Close)
	return conn
}

func newTestServer(t *testing.T) (*Server, *fakeStore, *fakeCommander, *nats.Conn) {
	t.Helper()
	conn := startTestConn(t)
	fs := newFakeStore()
	fc := &fakeCommander{}
	registry := driver.NewRegistry()
	registry.Register("sonic", &stubDriver{neighborInfo: "lldp neighbor dump"})

	s := NewServer(conn, "", fs, registry, fc, mustBlobs(t), false, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { s.Stop() })
	return s, fs, fc, conn
}

func request(t *testing.T, conn *nats.Conn, req map[string]any) map[string]any {
	t.Helper()
	payload, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	msg, err := conn.Request(DefaultSubject, payload, 2*time.Second)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(msg.Data, &out); err != nil {
		t.Fatalf("unmarshal reply: %v", err)
	}
	return out
}

func requestList(t *testing.T, conn *nats.Conn, req map[string]any) []map[string]any {
	t.Helper()
	payload, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	msg, err := conn.Request(DefaultSubject, payload, 2*time.Second)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	var out []map[string]any
	if err := json.Unmarshal(msg.Data, &out); err != nil {
		t.Fatalf("unmarshal reply: %v", err)
	}
	return out
}

func TestCmdListReturnsDevices(t *testing.T) {
	_, fs, _, conn := newTestServer(t)
	fs.devices[1] = device.New("sw1", "10.0.0.1", "sonic")
	fs.devices[1].ID = 1

	out := requestList(t, conn, map[string]any{"cmd": "list"})
	if len(out) != 1 {
		t.Fatalf("list = %v, want 1 device", out)
	}
	if out[0]["identifier"] != "sw1" {
		t.Errorf("identifier = %v, want sw1", out[0]["identifier"])
	}
}

func TestCmdStatusUnknownDeviceReturnsError(t *testing.T) {
	_, _, _, conn := newTestServer(t)

	out := request(t, conn, map[string]any{"cmd": "status", "id": 42})
	if _, ok := out["error"]; !ok {
		t.Errorf("status(unknown) = %v, want error field", out)
	}
}

func TestCmdNeighborInfo(t *testing.T) {
	_, fs, _, conn := newTestServer(t)
	fs.devices[1] = device.New("sw1", "10.0.0.1", "sonic")
	fs.devices[1].ID = 1

	out := request(t, conn, map[string]any{"cmd": "neighbor-info", "id": 1})
	if out["info"] != "lldp neighbor dump" {
		t.Errorf("info = %v, want lldp neighbor dump", out["info"])
	}
}

func TestCmdDelete(t *testing.T) {
	_, fs, _, conn := newTestServer(t)
	fs.devices[1] = device.New("sw1", "10.0.0.1", "sonic")
	fs.devices[1].ID = 1

	out := request(t, conn, map[string]any{"cmd": "delete", "id": 1})
	if out["info"] != "deleted" {
		t.Errorf("reply = %v, want info=deleted", out)
	}
	if _, ok := fs.devices[1]; ok {
		t.Error("device 1 still present after delete")
	}
}

func TestCmdAdoptEnqueuesConfigureTask(t *testing.T) {
	_, fs, fc, conn := newTestServer(t)
	fs.devices[1] = device.New("sw1", "10.0.0.1", "sonic")
	fs.devices[1].ID = 1
	fs.devices[1].State = device.StateReady

	out := request(t, conn, map[string]any{"cmd": "adopt", "id": 1, "identity": "sw1", "config": "hostname sw1\n"})
	if out["info"] != "ok" {
		t.Fatalf("reply = %v, want info=ok", out)
	}
	if len(fc.enqueued) != 1 || fc.enqueued[0].Name() != "ConfigureTask" {
		t.Errorf("enqueued = %v, want one ConfigureTask", fc.enqueued)
	}
}

func TestCmdReinitEnqueuesInitTask(t *testing.T) {
	_, fs, fc, conn := newTestServer(t)
	fs.devices[1] = device.New("sw1", "10.0.0.1", "sonic")
	fs.devices[1].ID = 1
	fs.devices[1].State = device.StateReady

	out := request(t, conn, map[string]any{"cmd": "reinit", "id": 1})
	if out["info"] != "ok" {
		t.Fatalf("reply = %v, want info=ok", out)
	}
	if len(fc.enqueued) != 1 || fc.enqueued[0].Name() != "InitTask" {
		t.Errorf("enqueued = %v, want one InitTask", fc.enqueued)
	}
}

func TestCmdOpt82SetListDelete(t *testing.T) {
	_, _, _, conn := newTestServer(t)

	name := "sw1"
	setReply := request(t, conn, map[string]any{
		"cmd": "opt82-info", "upstream_switch_mac": "aa:bb:cc:dd:ee:ff",
		"upstream_port_info": "Ethernet0", "downstream_switch_name": name,
	})
	if setReply["downstream_switch_name"] != "sw1" {
		t.Fatalf("set reply = %v", setReply)
	}

	list := requestList(t, conn, map[string]any{"cmd": "opt82-list"})
	if len(list) != 1 {
		t.Fatalf("opt82-list = %v, want 1 entry", list)
	}

	id := int64(list[0]["id"].(float64))
	delReply := request(t, conn, map[string]any{"cmd": "opt82-delete", "id": id})
	if delReply["info"] != "deleted" {
		t.Errorf("delete reply = %v, want info=deleted", delReply)
	}
}

func TestCmdUnknownCommand(t *testing.T) {
	_, _, _, conn := newTestServer(t)

	out := request(t, conn, map[string]any{"cmd": "bogus"})
	if _, ok := out["error"]; !ok {
		t.Errorf("reply = %v, want error field", out)
	}
}
