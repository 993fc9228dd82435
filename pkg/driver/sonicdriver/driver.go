package sonicdriver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/liscain-net/liscain/pkg/baseconfig"
	"github.com/liscain-net/liscain/pkg/device"
	"github.com/liscain-net/liscain/pkg/ephemeral"
	"github.com/liscain-net/liscain/pkg/util"
)

// configureBlobThreshold is the configuration payload size above which
// Configure stages the blob in the ephemeral store instead of writing
// CONFIG_DB directly over Redis, matching spec.md's large-payload path.
const configureBlobThreshold = 32 << 10

// Driver adapts a Session to the driver.Driver interface, giving the task
// orchestrator a uniform way to drive SONiC switches regardless of whether
// they're reached directly or through an SSH tunnel.
type Driver struct {
	// SessionFor returns the live Session for d, establishing one if
	// necessary. Supplied by the caller so the driver never owns session
	// lifecycle or credentials itself.
	SessionFor func(ctx context.Context, d *device.Device) (*Session, error)

	// AdoptDN is the controller's adoption-callback hostname, stamped into
	// the base config template so a freshly booted switch knows where to
	// phone home to.
	AdoptDN string
}

// NewDriver returns a Driver that looks up sessions through sessionFor.
func NewDriver(sessionFor func(ctx context.Context, d *device.Device) (*Session, error), adoptDN string) *Driver {
	return &Driver{SessionFor: sessionFor, AdoptDN: adoptDN}
}

// EmitBaseConfig renders the minimal config a freshly discovered switch
// needs to reach the controller: a CONFIG_DB seed naming its hostname and
// the controller's adoption endpoint. InitTask applies the rest once the
// device has a session.
func (drv *Driver) EmitBaseConfig(ctx context.Context, d *device.Device) (string, error) {
	return baseconfig.Render("sonic.cfg", baseconfig.Vars{
		Hostname: d.Identifier,
		AdoptDN:  drv.AdoptDN,
	})
}

// InitialSetup connects to the switch and harvests its MAC and its hardware
// SKU (or, lacking one, its platform) from DEVICE_METADATA|localhost in the
// session's CONFIG_DB snapshot.
func (drv *Driver) InitialSetup(ctx context.Context, d *device.Device) bool {
	sess, err := drv.SessionFor(ctx, d)
	if err != nil {
		util.WithDevice(d.Identifier).Errorf("initial setup: %v", err)
		return false
	}

	meta := sess.ConfigDB.DeviceMetadata["localhost"]
	if meta == nil {
		util.WithDevice(d.Identifier).Error("initial setup: no DEVICE_METADATA|localhost entry")
		return false
	}

	if mac, ok := meta["mac"]; ok && mac != "" {
		d.MACAddress = mac
	}
	if hwsku, ok := meta["hwsku"]; ok && hwsku != "" {
		d.DeviceType = hwsku
	} else if platform, ok := meta["platform"]; ok && platform != "" {
		d.DeviceType = platform
	}

	return true
}

// Configure writes the supplied configuration into CONFIG_DB and reloads it.
// configuration is a JSON document shaped like config_db.json: a table name
// mapped to a key mapped to its field/value pairs. Payloads over
// configureBlobThreshold are staged in blobs instead, and the device is
// pointed at the TFTP path that will serve them.
func (drv *Driver) Configure(ctx context.Context, d *device.Device, configuration string, blobs *ephemeral.Store) bool {
	sess, err := drv.SessionFor(ctx, d)
	if err != nil {
		util.WithDevice(d.Identifier).Errorf("configure: %v", err)
		return false
	}

	if len(configuration) > configureBlobThreshold {
		token := fmt.Sprintf("%s-%d", d.Identifier, len(configuration))
		blobs.Put(token, []byte(configuration))

		if _, err := sess.Exec(fmt.Sprintf("liscain fetch-config adopt/%s", token)); err != nil {
			util.WithDevice(d.Identifier).Errorf("configure: staged fetch instruction: %v", err)
			return false
		}
		return true
	}

	var tables map[string]map[string]map[string]string
	if err := json.Unmarshal([]byte(configuration), &tables); err != nil {
		util.WithDevice(d.Identifier).Errorf("configure: invalid configuration payload: %v", err)
		return false
	}

	for table, keys := range tables {
		for key, fields := range keys {
			if err := sess.client.Set(table, key, fields); err != nil {
				util.WithDevice(d.Identifier).Errorf("configure: writing %s|%s: %v", table, key, err)
				return false
			}
		}
	}

	if _, err := sess.Exec("config reload -y"); err != nil {
		util.WithDevice(d.Identifier).Errorf("configure: config reload: %v", err)
		return false
	}

	return true
}

// ChangeIdentity rewrites DEVICE_METADATA|localhost.hostname, the field
// SONiC reads its hostname from on the next config reload.
func (drv *Driver) ChangeIdentity(ctx context.Context, d *device.Device, identity string) bool {
	sess, err := drv.SessionFor(ctx, d)
	if err != nil {
		util.WithDevice(d.Identifier).Errorf("change identity: %v", err)
		return false
	}

	if err := sess.client.Set("DEVICE_METADATA", "localhost", map[string]string{"hostname": identity}); err != nil {
		util.WithDevice(d.Identifier).Errorf("change identity: %v", err)
		return false
	}

	d.Identifier = identity
	return true
}

// NeighborInfo returns the device's LLDP neighbor table as raw text, for the
// CDP adopter to scrape with its Device ID / Port ID regexes. Verbose asks
// for the per-port detail form; the summary form omits remote port names.
func (drv *Driver) NeighborInfo(ctx context.Context, d *device.Device, verbose bool) string {
	sess, err := drv.SessionFor(ctx, d)
	if err != nil {
		util.WithDevice(d.Identifier).Errorf("neighbor info: %v", err)
		return "unknown"
	}

	cmd := "show lldp neighbors"
	if verbose {
		cmd = "show lldp neighbors detail"
	}

	out, err := sess.Exec(cmd)
	if err != nil {
		util.WithDevice(d.Identifier).Errorf("neighbor info: %v", err)
		return "unknown"
	}

	return strings.TrimSpace(out)
}
