// Package broker optionally starts an in-process NATS server so a single
// liscaind binary can run without a separately operated message broker.
package broker

import (
	"fmt"
	"net"
	"strconv"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
)

// readyTimeout bounds how long Start waits for the embedded server to
// accept connections before giving up.
const readyTimeout = 5 * time.Second

// Embedded wraps a running in-process NATS server.
type Embedded struct {
	srv *natsserver.Server
}

// Start brings up an embedded NATS server bound to addr (host:port) and
// blocks until it is ready for connections.
func Start(addr string) (*Embedded, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("broker: parsing bind address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("broker: bind port %q is not numeric: %w", portStr, err)
	}

	srv, err := natsserver.NewServer(&natsserver.Options{Host: host, Port: port})
	if err != nil {
		return nil, fmt.Errorf("broker: creating embedded nats server: %w", err)
	}

	go srv.Start()
	if !srv.ReadyForConnections(readyTimeout) {
		srv.Shutdown()
		return nil, fmt.Errorf("broker: embedded nats server at %s did not become ready", addr)
	}

	return &Embedded{srv: srv}, nil
}

// ClientURL returns the URL a nats.Connect call should dial.
func (e *Embedded) ClientURL() string {
	return e.srv.ClientURL()
}

// Shutdown stops the embedded server.
func (e *Embedded) Shutdown() {
	e.srv.Shutdown()
}
