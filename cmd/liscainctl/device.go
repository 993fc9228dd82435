package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/liscain-net/liscain/pkg/cli"
)

// deviceReply mirrors the wire shape pkg/rpc's deviceDict encodes to.
type deviceReply struct {
	ID          int64    `json:"id"`
	Identifier  string   `json:"identifier"`
	Address     string   `json:"address"`
	State       string   `json:"state"`
	DeviceClass string   `json:"device_class"`
	DeviceType  string   `json:"device_type"`
	MACAddress  string   `json:"mac_address"`
	Version     string   `json:"version"`
	CQueue      int      `json:"cqueue"`
	CQueueItems []string `json:"cqueue_items"`
	Error       string   `json:"error"`
}

func formatState(state string) string {
	switch state {
	case "READY", "CONFIGURED":
		return cli.Green(state)
	case "INIT_FAILED", "CONFIGURE_FAILED":
		return cli.Red(state)
	case "":
		return cli.Yellow("n/a")
	default:
		return cli.Yellow(state)
	}
}

// printDevices renders device rows as a table, applying filterStates if
// non-empty (the -f/--filter equivalent from the original CLI).
func printDevices(devices []deviceReply, filterStates []string) {
	if jsonOut {
		_ = json.NewEncoder(os.Stdout).Encode(devices)
		return
	}

	t := cli.NewTable("id", "identifier", "device_class", "device_type", "address", "mac_address", "state")
	for _, d := range devices {
		if len(filterStates) > 0 && !contains(filterStates, d.State) {
			continue
		}
		t.Row(strconv.FormatInt(d.ID, 10), d.Identifier, d.DeviceClass, d.DeviceType, d.Address, d.MACAddress, formatState(d.State))
	}
	t.Flush()
}

func printDevice(d deviceReply) {
	if jsonOut {
		_ = json.NewEncoder(os.Stdout).Encode(d)
		return
	}
	if d.Error != "" {
		fmt.Println(d.Error)
		return
	}
	printDevices([]deviceReply{d}, nil)
	if len(d.CQueueItems) > 0 {
		fmt.Printf("pending: %s\n", strings.Join(d.CQueueItems, ", "))
	}
}

func contains(list []string, v string) bool {
	for _, c := range list {
		if c == v {
			return true
		}
	}
	return false
}
