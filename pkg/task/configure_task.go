package task

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/liscain-net/liscain/pkg/device"
	"github.com/liscain-net/liscain/pkg/driver"
	"github.com/liscain-net/liscain/pkg/ephemeral"
	"github.com/liscain-net/liscain/pkg/util"
)

// ConfigureTask drives a device through CONFIGURING, applying an identity
// change and a configuration payload, landing on CONFIGURED on success or
// CONFIGURE_FAILED on either step's failure.
type ConfigureTask struct {
	Base

	Store  DeviceStore
	Driver driver.Driver
	Blobs  *ephemeral.Store
}

// NewConfigureTask returns a ConfigureTask for d. args must carry "identity"
// and "configuration" string values.
func NewConfigureTask(d *device.Device, args map[string]any, store DeviceStore, drv driver.Driver, blobs *ephemeral.Store) *ConfigureTask {
	return &ConfigureTask{
		Base:   Base{Device: d, Unique: true, Args: args},
		Store:  store,
		Driver: drv,
		Blobs:  blobs,
	}
}

// Name implements Task.
func (t *ConfigureTask) Name() string { return "ConfigureTask" }

// Validate rejects the task unless d is in one of
// device.ConfigurePrerequisites, and requires both "identity" and
// "configuration" arguments.
func (t *ConfigureTask) Validate(ctx context.Context) error {
	if err := rejectUnlessIn(t.Device, device.ConfigurePrerequisites); err != nil {
		return err
	}
	if _, ok := t.Args["identity"].(string); !ok {
		return fmt.Errorf("device %s: configure task requires an \"identity\" argument", t.Device.Identifier)
	}
	if _, ok := t.Args["configuration"].(string); !ok {
		return fmt.Errorf("device %s: configure task requires a \"configuration\" argument", t.Device.Identifier)
	}
	return nil
}

// Run transitions the device to CONFIGURING, rewrites its identity, applies
// its configuration, and lands on CONFIGURED or CONFIGURE_FAILED.
func (t *ConfigureTask) Run(ctx context.Context) {
	log := util.WithDevice(t.Device.Identifier)
	identity := t.Args["identity"].(string)
	configuration := t.Args["configuration"].(string)

	if err := t.Store.ChangeState(ctx, t.Device.ID, device.StateConfiguring); err != nil {
		log.Errorf("configure: %v", err)
		return
	}
	t.Device.State = device.StateConfiguring
	log.Info("begin configuration")

	if !t.Driver.ChangeIdentity(ctx, t.Device, identity) {
		log.Warn("identity change failed")
		t.fail(ctx, log)
		return
	}

	if err := t.Store.UpdateIdentifier(ctx, t.Device.ID, t.Device.Identifier); err != nil {
		log.Errorf("configure: recording identity: %v", err)
	}

	if !t.Driver.Configure(ctx, t.Device, configuration, t.Blobs) {
		log.Warn("configuration failed")
		t.fail(ctx, log)
		return
	}

	if err := t.Store.ChangeState(ctx, t.Device.ID, device.StateConfigured); err != nil {
		log.Errorf("configure: %v", err)
		return
	}
	t.Device.State = device.StateConfigured
	log.Info("configuration complete")
}

func (t *ConfigureTask) fail(ctx context.Context, log *logrus.Entry) {
	if err := t.Store.ChangeState(ctx, t.Device.ID, device.StateConfigureFailed); err != nil {
		log.Errorf("configure: %v", err)
		return
	}
	t.Device.State = device.StateConfigureFailed
}

// Post runs the hook registered for the device's resulting state.
func (t *ConfigureTask) Post(ctx context.Context) {
	t.RunHooks(ctx)
}
