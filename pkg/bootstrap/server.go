// Package bootstrap serves the TFTP boot files a factory-fresh switch
// requests before it has any management-plane session: its base
// configuration on first boot, and large staged configuration blobs during
// adoption.
package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/pin/tftp/v3"

	"github.com/liscain-net/liscain/pkg/adopt"
	"github.com/liscain-net/liscain/pkg/device"
	"github.com/liscain-net/liscain/pkg/driver"
	"github.com/liscain-net/liscain/pkg/ephemeral"
	"github.com/liscain-net/liscain/pkg/task"
	"github.com/liscain-net/liscain/pkg/util"
)

// bootFilenames are the filenames a switch's startup-config-location
// feature requests on first boot. Both behave identically.
var bootFilenames = map[string]bool{
	"network-confg": true,
	"switch-confg":  true,
}

// Store is the slice of the device store the bootstrap handler needs.
type Store interface {
	task.DeviceStore
	FindByIdentifierNotInState(ctx context.Context, identifier string, excludeState device.State) (*device.Device, error)
	Create(ctx context.Context, d *device.Device) (*device.Device, error)
}

// Server answers TFTP read requests from booting switches.
type Server struct {
	Store              Store
	Drivers            *driver.Registry
	Commander          commanderForBootstrap
	Blobs              *ephemeral.Store
	DefaultDeviceClass string
	AutoconfEnabled    bool
	Adopter            adopt.Adopter
	listenAddr         string
	srv                *tftp.Server
}

// commanderForBootstrap narrows commander.Commander to what the bootstrap
// handler needs.
type commanderForBootstrap interface {
	Enqueue(ctx context.Context, deviceID int64, deviceName string, t task.Task) error
}

// NewServer returns a Server listening on addr (host:port, typically
// ":69") once Serve is called.
func NewServer(addr string, store Store, drivers *driver.Registry, commander commanderForBootstrap, blobs *ephemeral.Store, defaultDeviceClass string, autoconfEnabled bool, adopter adopt.Adopter) *Server {
	s := &Server{
		Store:              store,
		Drivers:            drivers,
		Commander:          commander,
		Blobs:              blobs,
		DefaultDeviceClass: defaultDeviceClass,
		AutoconfEnabled:    autoconfEnabled,
		Adopter:            adopter,
		listenAddr:         addr,
	}
	s.srv = tftp.NewServer(s.readHandler, nil)
	return s
}

// Serve blocks serving TFTP requests until ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	conn, err := net.ListenPacket("udp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("bootstrap: listen %s: %w", s.listenAddr, err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(conn) }()

	select {
	case <-ctx.Done():
		s.srv.Shutdown()
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) readHandler(filename string, rf io.ReaderFrom) error {
	ctx := context.Background()

	remoteAddr := ""
	if transfer, ok := rf.(tftp.OutgoingTransfer); ok {
		if udpAddr, ok := transfer.RemoteAddr().(*net.UDPAddr); ok {
			remoteAddr = udpAddr.IP.String()
		}
	}

	payload := s.resolve(ctx, filename, remoteAddr)
	_, err := rf.ReadFrom(bytes.NewReader([]byte(payload)))
	return err
}

func (s *Server) resolve(ctx context.Context, filename, remoteAddr string) string {
	if token, ok := strings.CutPrefix(filename, "adopt/"); ok {
		blob, found := s.Blobs.Get(token)
		if !found {
			util.Warnf("bootstrap: adopt token %s not found (expired or unknown)", token)
			return ""
		}
		return string(blob)
	}

	if !bootFilenames[filename] {
		util.Debugf("bootstrap: ignoring unrecognized filename %s from %s", filename, remoteAddr)
		return ""
	}

	identifier := aliasFor(remoteAddr)
	d, err := s.findOrCreate(ctx, identifier, remoteAddr)
	if err != nil {
		util.Errorf("bootstrap: %v", err)
		return ""
	}

	drv, err := s.Drivers.Get(d.DeviceClass)
	if err != nil {
		util.Errorf("bootstrap: %v", err)
		return ""
	}

	if err := s.enqueueInit(ctx, d, drv); err != nil {
		util.Warnf("bootstrap: enqueue init for %s: %v (ignoring, response continues)", d.Identifier, err)
	}

	config, err := drv.EmitBaseConfig(ctx, d)
	if err != nil {
		util.Errorf("bootstrap: EmitBaseConfig for %s: %v", d.Identifier, err)
		return ""
	}
	return config
}

// aliasFor derives the deterministic bootstrap identity from the low byte
// of the peer's IPv4 address: "lc-<hex>".
func aliasFor(remoteAddr string) string {
	ip := net.ParseIP(remoteAddr)
	if ip == nil {
		return "lc-00"
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return "lc-00"
	}
	return fmt.Sprintf("lc-%02x", ip4[3])
}

func (s *Server) findOrCreate(ctx context.Context, identifier, remoteAddr string) (*device.Device, error) {
	d, err := s.Store.FindByIdentifierNotInState(ctx, identifier, device.StateConfigured)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, util.ErrNotFound) {
		return nil, fmt.Errorf("looking up %s: %w", identifier, err)
	}

	newDevice := device.New(identifier, remoteAddr, s.DefaultDeviceClass)
	created, err := s.Store.Create(ctx, newDevice)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", identifier, err)
	}
	return created, nil
}

func (s *Server) enqueueInit(ctx context.Context, d *device.Device, drv driver.Driver) error {
	it := task.NewInitTask(d, s.Store, drv)
	if s.AutoconfEnabled && s.Adopter != nil {
		it.OnState(device.StateReady, func(ctx context.Context, d *device.Device) {
			s.Adopter.Autoadopt(ctx, d)
		})
	}
	return s.Commander.Enqueue(ctx, d.ID, d.Identifier, it)
}
