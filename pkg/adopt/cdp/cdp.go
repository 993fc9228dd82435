// Package cdp adopts a device by resolving its CDP/LLDP neighbor's identity
// through a reverse interface lookup, for fleets where devices aren't
// relayed through an Option-82-aware switch.
package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/liscain-net/liscain/pkg/adopt"
	"github.com/liscain-net/liscain/pkg/device"
	"github.com/liscain-net/liscain/pkg/util"
)

var (
	reRemoteDevice = regexp.MustCompile(`(?m)^Device ID: (.+?)$`)
	reInterfaces   = regexp.MustCompile(`(?m)^Interface: (.+?),.*Port ID \(outgoing port\): (.+)$`)
)

// interfaceRecord is the subset of the reverse-lookup API's per-interface
// JSON object this adopter reads.
type interfaceRecord struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Alias       string `json:"alias"`
}

// Adopter resolves a READY device's identity by asking the API named by
// APIBaseURL which switch owns the port its CDP/LLDP neighbor reports
// being plugged into, then enqueues a ConfigureTask for it.
type Adopter struct {
	adopt.Base
	APIBaseURL string
	HTTPClient *http.Client
}

// Autoadopt implements adopt.Adopter.
func (a *Adopter) Autoadopt(ctx context.Context, d *device.Device) {
	log := util.WithDevice(d.Identifier)

	neighborInfo := a.Driver.NeighborInfo(ctx, d, true)

	candidates := make(map[string]struct{})
	for _, block := range strings.Split(neighborInfo, "------") {
		if !strings.Contains(block, "Device ID") {
			continue
		}
		block = strings.Trim(block, "-")

		remoteDevice := reRemoteDevice.FindStringSubmatch(block)
		ifaces := reInterfaces.FindStringSubmatch(block)
		if remoteDevice == nil || ifaces == nil {
			continue
		}

		name, err := a.reverseLookup(ctx, remoteDevice[1], ifaces[2])
		if err != nil {
			log.Warnf("cdp: reverse lookup for %s/%s: %v", remoteDevice[1], ifaces[2], err)
			continue
		}
		if name != "" {
			candidates[name] = struct{}{}
		}
	}

	switch len(candidates) {
	case 0:
		log.Errorf("cdp: unable to find reverse switch CDP neighbors for %s", d.Identifier)
		return
	case 1:
		var name string
		for c := range candidates {
			name = c
		}
		log.Infof("cdp: reverse switch CDP neighbors resolved to %s", name)
		if err := a.TryAdopt(ctx, d, name); err != nil {
			log.Errorf("cdp: %v", err)
		}
	default:
		log.Errorf("cdp: more than 1 result for reverse switch CDP neighbors of %s (%v)", d.Identifier, candidates)
	}
}

// reverseLookup asks APIBaseURL which liscain switch name owns the
// interface named (by name or description) remoteInterface on
// remoteDevice, by scanning its alias for a "liscain:<name>" tag.
func (a *Adopter) reverseLookup(ctx context.Context, remoteDevice, remoteInterface string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.APIBaseURL+"/interface", nil)
	if err != nil {
		return "", err
	}
	q := req.URL.Query()
	q.Set("device_fqdn", remoteDevice)
	req.URL.RawQuery = q.Encode()

	client := a.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("interface lookup request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("interface lookup: unexpected status %s", resp.Status)
	}

	var interfaces []interfaceRecord
	if err := json.NewDecoder(resp.Body).Decode(&interfaces); err != nil {
		return "", fmt.Errorf("decoding interface lookup response: %w", err)
	}

	for _, iface := range interfaces {
		if remoteInterface != iface.Name && remoteInterface != iface.Description {
			continue
		}
		for _, part := range strings.Fields(iface.Alias) {
			if strings.Contains(part, "liscain:") {
				_, name, _ := strings.Cut(part, ":")
				return name, nil
			}
		}
	}

	return "", nil
}
