package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// call dials natsURL, sends req as one JSON request on subject, and decodes
// the single JSON reply into result. The connection is short-lived: one
// request per process invocation, matching the original's one-shot
// REQ/REP socket per CLI call.
func call(req any, result any) error {
	d, err := time.ParseDuration(timeout)
	if err != nil {
		return fmt.Errorf("invalid --timeout %q: %w", timeout, err)
	}

	conn, err := nats.Connect(natsURL)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", natsURL, err)
	}
	defer conn.Close()

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	msg, err := conn.Request(subject, data, d)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", subject, err)
	}

	if err := json.Unmarshal(msg.Data, result); err != nil {
		return fmt.Errorf("decoding reply: %w", err)
	}
	return nil
}

// errorReply is the shape every command replies with on failure.
type errorReply struct {
	Error string `json:"error"`
}

func printIfError(e errorReply) bool {
	if e.Error != "" {
		fmt.Println(e.Error)
		return true
	}
	return false
}

// infoReply is the shape a handful of commands reply with on success.
type infoReply struct {
	Info  string `json:"info"`
	Error string `json:"error"`
}

func printInfoOrError(r infoReply) {
	if r.Error != "" {
		fmt.Println(r.Error)
		return
	}
	fmt.Println(r.Info)
}
