// Package ingest subscribes to Option-82 relay reports published by switch
// event handlers and folds them into the association table, replacing the
// original's ZeroMQ PULL socket with a NATS subscription of the same
// fire-and-forget shape.
package ingest

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/liscain-net/liscain/pkg/util"
)

// DefaultSubject is the NATS subject relay reports are published to.
const DefaultSubject = "opt82.ingest"

// message is the wire shape of one relay report.
type message struct {
	UpstreamSwitchMAC   string `json:"upstream_switch_mac"`
	UpstreamPortInfo    string `json:"upstream_port_info"`
	DownstreamSwitchMAC string `json:"downstream_switch_mac"`
}

// Store is the slice of the device store the listener writes through.
type Store interface {
	UpdateOption82Info(ctx context.Context, upstreamMAC, upstreamPort, downstreamMAC string) error
}

// Listener subscribes to Subject on a NATS connection and applies each
// relay report to Store.
type Listener struct {
	Conn    *nats.Conn
	Subject string
	Store   Store

	sub *nats.Subscription
}

// NewListener returns a Listener that will subscribe on subject once Start
// is called. An empty subject falls back to DefaultSubject.
func NewListener(conn *nats.Conn, subject string, store Store) *Listener {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Listener{Conn: conn, Subject: subject, Store: store}
}

// Start subscribes to the configured subject. nats.go delivers the
// subscription's messages one at a time, in order, on a single goroutine.
func (l *Listener) Start() error {
	sub, err := l.Conn.Subscribe(l.Subject, l.handle)
	if err != nil {
		return err
	}
	l.sub = sub
	return nil
}

// Stop unsubscribes.
func (l *Listener) Stop() error {
	if l.sub == nil {
		return nil
	}
	return l.sub.Unsubscribe()
}

func (l *Listener) handle(msg *nats.Msg) {
	var m message
	if err := json.Unmarshal(msg.Data, &m); err != nil {
		util.Errorf("ingest: malformed relay report: %v", err)
		return
	}

	if m.UpstreamSwitchMAC == "" || m.UpstreamPortInfo == "" || m.DownstreamSwitchMAC == "" {
		util.Errorf("ingest: incomplete option82 data, ignoring (usm=%q, upi=%q, dsm=%q)",
			m.UpstreamSwitchMAC, m.UpstreamPortInfo, m.DownstreamSwitchMAC)
		return
	}

	if err := l.Store.UpdateOption82Info(context.Background(), m.UpstreamSwitchMAC, m.UpstreamPortInfo, m.DownstreamSwitchMAC); err != nil {
		util.Errorf("ingest: updating option82 info: %v", err)
	}
}
