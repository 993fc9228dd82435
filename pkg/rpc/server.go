// Package rpc answers the command-and-control surface: one JSON request,
// one JSON reply per message, over a NATS request/reply subject in place of
// the original's ZeroMQ REQ/REP socket.
package rpc

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/liscain-net/liscain/pkg/adopt"
	"github.com/liscain-net/liscain/pkg/device"
	"github.com/liscain-net/liscain/pkg/driver"
	"github.com/liscain-net/liscain/pkg/ephemeral"
	"github.com/liscain-net/liscain/pkg/store"
	"github.com/liscain-net/liscain/pkg/task"
	"github.com/liscain-net/liscain/pkg/util"
)

// DefaultSubject is the NATS subject the command server listens on.
const DefaultSubject = "liscain.cmd"

// Store is the slice of the device/association store the RPC surface
// needs.
type Store interface {
	task.DeviceStore
	GetByID(ctx context.Context, id int64) (*device.Device, error)
	ListAll(ctx context.Context) ([]*device.Device, error)
	Delete(ctx context.Context, id int64) error

	SetAssociation(ctx context.Context, upstreamMAC, upstreamPort string, downstreamName *string) (*store.Option82Association, error)
	ListAssociations(ctx context.Context) ([]*store.Option82Association, error)
	DeleteAssociation(ctx context.Context, id int64) error
}

// Commander is the slice of pkg/commander's Commander the RPC surface
// needs.
type Commander interface {
	Enqueue(ctx context.Context, deviceID int64, deviceName string, t task.Task) error
	GetQueueList(deviceID int64) []string
}

// Server answers one JSON command per request over Subject.
type Server struct {
	Conn            *nats.Conn
	Subject         string
	Store           Store
	Drivers         *driver.Registry
	Commander       Commander
	Blobs           *ephemeral.Store
	AutoconfEnabled bool
	Adopter         adopt.Adopter

	sub *nats.Subscription
}

// NewServer returns a Server that will subscribe on subject once Start is
// called. An empty subject falls back to DefaultSubject.
func NewServer(conn *nats.Conn, subject string, store Store, drivers *driver.Registry, commander Commander, blobs *ephemeral.Store, autoconfEnabled bool, adopter adopt.Adopter) *Server {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Server{
		Conn:            conn,
		Subject:         subject,
		Store:           store,
		Drivers:         drivers,
		Commander:       commander,
		Blobs:           blobs,
		AutoconfEnabled: autoconfEnabled,
		Adopter:         adopter,
	}
}

// Start subscribes to the configured subject.
func (s *Server) Start() error {
	sub, err := s.Conn.Subscribe(s.Subject, s.handle)
	if err != nil {
		return err
	}
	s.sub = sub
	return nil
}

// Stop unsubscribes.
func (s *Server) Stop() error {
	if s.sub == nil {
		return nil
	}
	return s.sub.Unsubscribe()
}

type request struct {
	Cmd                  string  `json:"cmd"`
	ID                   int64   `json:"id"`
	Identity             string  `json:"identity"`
	Config               string  `json:"config"`
	UpstreamSwitchMAC    string  `json:"upstream_switch_mac"`
	UpstreamPortInfo     string  `json:"upstream_port_info"`
	DownstreamSwitchName *string `json:"downstream_switch_name"`
}

func (s *Server) handle(msg *nats.Msg) {
	var req request
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.reply(msg, errorReply(err))
		return
	}

	ctx := context.Background()

	var reply any
	switch req.Cmd {
	case "list":
		reply = s.cmdList(ctx)
	case "status":
		reply = s.cmdStatus(ctx, req.ID)
	case "neighbor-info":
		reply = s.cmdNeighborInfo(ctx, req.ID)
	case "delete":
		reply = s.cmdDelete(ctx, req.ID)
	case "adopt":
		reply = s.cmdAdopt(ctx, req.ID, req.Identity, req.Config)
	case "reinit":
		reply = s.cmdReinit(ctx, req.ID)
	case "opt82-info":
		reply = s.cmdOpt82Info(ctx, req.UpstreamSwitchMAC, req.UpstreamPortInfo, req.DownstreamSwitchName)
	case "opt82-list":
		reply = s.cmdOpt82List(ctx)
	case "opt82-delete":
		reply = s.cmdOpt82Delete(ctx, req.ID)
	default:
		reply = map[string]string{"error": "unknown command: " + req.Cmd}
	}

	s.reply(msg, reply)
}

func (s *Server) reply(msg *nats.Msg, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		util.Errorf("rpc: marshaling reply: %v", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		util.Errorf("rpc: responding: %v", err)
	}
}

func errorReply(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}

// deviceDict is the wire shape of a device on the command RPC surface.
type deviceDict struct {
	ID          int64    `json:"id"`
	Identifier  string   `json:"identifier"`
	Address     string   `json:"address"`
	State       string   `json:"state"`
	DeviceClass string   `json:"device_class"`
	DeviceType  string   `json:"device_type"`
	MACAddress  string   `json:"mac_address"`
	Version     string   `json:"version"`
	CQueue      int      `json:"cqueue,omitempty"`
	CQueueItems []string `json:"cqueue_items,omitempty"`
}

func (s *Server) toDict(d *device.Device) deviceDict {
	pending := s.Commander.GetQueueList(d.ID)
	return deviceDict{
		ID:          d.ID,
		Identifier:  d.Identifier,
		Address:     d.Address,
		State:       string(d.State),
		DeviceClass: d.DeviceClass,
		DeviceType:  d.DeviceType,
		MACAddress:  d.MACAddress,
		Version:     d.Version,
		CQueue:      len(pending),
		CQueueItems: pending,
	}
}

func (s *Server) cmdList(ctx context.Context) any {
	devices, err := s.Store.ListAll(ctx)
	if err != nil {
		return errorReply(err)
	}
	out := make([]deviceDict, 0, len(devices))
	for _, d := range devices {
		out = append(out, s.toDict(d))
	}
	return out
}

func (s *Server) cmdStatus(ctx context.Context, id int64) any {
	d, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return errorReply(err)
	}
	return s.toDict(d)
}

func (s *Server) cmdNeighborInfo(ctx context.Context, id int64) any {
	d, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return errorReply(err)
	}
	drv, err := s.Drivers.Get(d.DeviceClass)
	if err != nil {
		return errorReply(err)
	}
	return map[string]string{"info": drv.NeighborInfo(ctx, d, true)}
}

func (s *Server) cmdDelete(ctx context.Context, id int64) any {
	if err := s.Store.Delete(ctx, id); err != nil {
		return errorReply(err)
	}
	return map[string]string{"info": "deleted"}
}

func (s *Server) cmdAdopt(ctx context.Context, id int64, identity, config string) any {
	d, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return errorReply(err)
	}
	drv, err := s.Drivers.Get(d.DeviceClass)
	if err != nil {
		return errorReply(err)
	}

	ct := task.NewConfigureTask(d, map[string]any{
		"identity":      identity,
		"configuration": config,
	}, s.Store, drv, s.Blobs)

	if err := s.Commander.Enqueue(ctx, d.ID, d.Identifier, ct); err != nil {
		return errorReply(err)
	}
	return map[string]string{"info": "ok"}
}

func (s *Server) cmdReinit(ctx context.Context, id int64) any {
	d, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return errorReply(err)
	}
	drv, err := s.Drivers.Get(d.DeviceClass)
	if err != nil {
		return errorReply(err)
	}

	it := task.NewInitTask(d, s.Store, drv)
	if s.AutoconfEnabled && s.Adopter != nil {
		it.OnState(device.StateReady, func(ctx context.Context, d *device.Device) {
			s.Adopter.Autoadopt(ctx, d)
		})
	}

	if err := s.Commander.Enqueue(ctx, d.ID, d.Identifier, it); err != nil {
		return errorReply(err)
	}
	return map[string]string{"info": "ok"}
}

type associationDict struct {
	ID                   int64   `json:"id"`
	UpstreamSwitchMAC    string  `json:"upstream_switch_mac"`
	UpstreamPortInfo     string  `json:"upstream_port_info"`
	DownstreamSwitchMAC  *string `json:"downstream_switch_mac,omitempty"`
	DownstreamSwitchName *string `json:"downstream_switch_name,omitempty"`
}

func toAssociationDict(a *store.Option82Association) associationDict {
	return associationDict{
		ID:                   a.ID,
		UpstreamSwitchMAC:    a.UpstreamSwitchMAC,
		UpstreamPortInfo:     a.UpstreamPortInfo,
		DownstreamSwitchMAC:  a.DownstreamSwitchMAC,
		DownstreamSwitchName: a.DownstreamSwitchName,
	}
}

func (s *Server) cmdOpt82Info(ctx context.Context, upstreamMAC, upstreamPort string, downstreamName *string) any {
	a, err := s.Store.SetAssociation(ctx, upstreamMAC, upstreamPort, downstreamName)
	if err != nil {
		return errorReply(err)
	}
	return toAssociationDict(a)
}

func (s *Server) cmdOpt82List(ctx context.Context) any {
	associations, err := s.Store.ListAssociations(ctx)
	if err != nil {
		return errorReply(err)
	}
	out := make([]associationDict, 0, len(associations))
	for _, a := range associations {
		out = append(out, toAssociationDict(a))
	}
	return out
}

func (s *Server) cmdOpt82Delete(ctx context.Context, id int64) any {
	if err := s.Store.DeleteAssociation(ctx, id); err != nil {
		return errorReply(err)
	}
	return map[string]string{"info": "deleted"}
}
