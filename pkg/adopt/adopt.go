// Package adopt holds the shared autoadoption logic both adopter
// strategies (opt82, cdp) run once they've identified a candidate identity
// for a newly-initialized device: a version whitelist check and a
// per-identity configuration file load.
package adopt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/liscain-net/liscain/pkg/commander"
	"github.com/liscain-net/liscain/pkg/device"
	"github.com/liscain-net/liscain/pkg/ephemeral"
	"github.com/liscain-net/liscain/pkg/task"
)

// Adopter is the strategy interface run from a device's READY hook.
type Adopter interface {
	Autoadopt(ctx context.Context, d *device.Device)
}

// Base is the version-whitelist-check-then-load-config-then-enqueue logic
// shared by opt82 and cdp, deduplicating what the Python original
// (lib/cdp_adopter.py and lib/option82.py) each implemented separately.
type Base struct {
	Commander        *commander.Commander
	AutoconfPath     string
	VersionWhitelist []string
	Store            task.DeviceStore
	Driver           driverForTask
	Blobs            *ephemeral.Store
}

// driverForTask narrows driver.Driver to what ConfigureTask needs, avoiding
// an import cycle: pkg/adopt only ever builds tasks, never drives a
// device directly.
type driverForTask interface {
	ChangeIdentity(ctx context.Context, d *device.Device, identity string) bool
	Configure(ctx context.Context, d *device.Device, configuration string, blobs *ephemeral.Store) bool
	EmitBaseConfig(ctx context.Context, d *device.Device) (string, error)
	InitialSetup(ctx context.Context, d *device.Device) bool
	NeighborInfo(ctx context.Context, d *device.Device, verbose bool) string
}

// versionMeetsWhitelist reports whether version starts with one of the
// configured whitelist prefixes. An empty whitelist admits every version,
// matching the original's "whitelisted_prefixes is None" behavior.
func (b *Base) versionMeetsWhitelist(version string) bool {
	if len(b.VersionWhitelist) == 0 {
		return true
	}
	for _, prefix := range b.VersionWhitelist {
		if strings.HasPrefix(version, prefix) {
			return true
		}
	}
	return false
}

// loadConfig reads "<AutoconfPath>/<identity>.cfg".
func (b *Base) loadConfig(identity string) (string, error) {
	path := filepath.Join(b.AutoconfPath, identity+".cfg")
	contents, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading autoconf file %s: %w", path, err)
	}
	return string(contents), nil
}

// TryAdopt runs the whitelist check, loads identity's config, and enqueues a
// ConfigureTask for d. Any failure is the caller's to log; TryAdopt returns
// it rather than logging itself, since each adopter tags its own log lines.
func (b *Base) TryAdopt(ctx context.Context, d *device.Device, identity string) error {
	if !b.versionMeetsWhitelist(d.Version) {
		return fmt.Errorf("device %s version %q does not meet autoconf criteria", d.Identifier, d.Version)
	}

	configuration, err := b.loadConfig(identity)
	if err != nil {
		return err
	}

	ct := task.NewConfigureTask(d, map[string]any{
		"identity":      identity,
		"configuration": configuration,
	}, b.Store, b.Driver, b.Blobs)

	return b.Commander.Enqueue(ctx, d.ID, d.Identifier, ct)
}
