// opt82-hook — one-shot relay report publisher, invoked by a DHCP server's
// Option-82 hook on every lease it relays.
//
// Usage:
//
//	opt82-hook -M <upstream-mac> -P <upstream-port> -m <downstream-mac> -n <nats-url>
//
// It publishes one fire-and-forget message to liscaind's ingest subject and
// exits, replacing the original's ZeroMQ PUSH socket with a NATS publish of
// the same shape.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/nats-io/nats.go"

	"github.com/liscain-net/liscain/pkg/ingest"
)

type report struct {
	UpstreamSwitchMAC   string `json:"upstream_switch_mac"`
	UpstreamPortInfo    string `json:"upstream_port_info"`
	DownstreamSwitchMAC string `json:"downstream_switch_mac"`
}

func main() {
	upstreamMAC := flag.String("M", "", "upstream switch mac (required)")
	upstreamPort := flag.String("P", "", "upstream switch port (required)")
	downstreamMAC := flag.String("m", "", "downstream switch mac (required)")
	natsURL := flag.String("n", "nats://127.0.0.1:4222", "nats server URL")
	subject := flag.String("s", ingest.DefaultSubject, "ingest subject")
	flag.Parse()

	if *upstreamMAC == "" || *upstreamPort == "" || *downstreamMAC == "" {
		fmt.Fprintln(os.Stderr, "opt82-hook: -M, -P and -m are all required")
		flag.Usage()
		os.Exit(2)
	}

	if err := publish(*natsURL, *subject, report{
		UpstreamSwitchMAC:   *upstreamMAC,
		UpstreamPortInfo:    *upstreamPort,
		DownstreamSwitchMAC: *downstreamMAC,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "opt82-hook: %v\n", err)
		os.Exit(1)
	}
}

func publish(url, subject string, r report) error {
	conn, err := nats.Connect(url)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", url, err)
	}
	defer conn.Close()

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	if err := conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	return conn.Flush()
}
