package task

import (
	"context"

	"github.com/liscain-net/liscain/pkg/device"
	"github.com/liscain-net/liscain/pkg/driver"
	"github.com/liscain-net/liscain/pkg/util"
)

// InitTask drives a device through INIT, harvesting its identity via the
// driver and landing it in READY on success or INIT_FAILED on failure.
type InitTask struct {
	Base

	Store  DeviceStore
	Driver driver.Driver
}

// NewInitTask returns an InitTask for d, to be run via driver.
func NewInitTask(d *device.Device, store DeviceStore, drv driver.Driver) *InitTask {
	return &InitTask{
		Base:   Base{Device: d, Unique: true},
		Store:  store,
		Driver: drv,
	}
}

// Name implements Task.
func (t *InitTask) Name() string { return "InitTask" }

// Validate rejects the task unless d is in one of device.InitPrerequisites.
func (t *InitTask) Validate(ctx context.Context) error {
	return rejectUnlessIn(t.Device, device.InitPrerequisites)
}

// Run transitions the device to INIT, calls the driver's InitialSetup, and
// lands on READY or INIT_FAILED depending on the result.
func (t *InitTask) Run(ctx context.Context) {
	log := util.WithDevice(t.Device.Identifier)

	if err := t.Store.ChangeState(ctx, t.Device.ID, device.StateInit); err != nil {
		log.Errorf("init: %v", err)
		return
	}
	t.Device.State = device.StateInit

	if !t.Driver.InitialSetup(ctx, t.Device) {
		log.Warn("initial setup failed")
		if err := t.Store.ChangeState(ctx, t.Device.ID, device.StateInitFailed); err != nil {
			log.Errorf("init: %v", err)
			return
		}
		t.Device.State = device.StateInitFailed
		return
	}

	if err := t.Store.UpdateDiscovered(ctx, t.Device.ID, t.Device.DeviceType, t.Device.MACAddress, t.Device.Version); err != nil {
		log.Errorf("init: recording discovered attributes: %v", err)
	}

	if err := t.Store.ChangeState(ctx, t.Device.ID, device.StateReady); err != nil {
		log.Errorf("init: %v", err)
		return
	}
	t.Device.State = device.StateReady
	log.Info("initialization complete")
}

// Post runs the hook registered for the device's resulting state.
func (t *InitTask) Post(ctx context.Context) {
	t.RunHooks(ctx)
}
