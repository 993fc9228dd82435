// Package opt82 adopts a device by its DHCP Option-82 relay binding: the
// downstream switch's MAC, recorded by the ingest listener against an
// upstream switch/port pair, names the identity to adopt it as.
package opt82

import (
	"context"

	"github.com/liscain-net/liscain/pkg/adopt"
	"github.com/liscain-net/liscain/pkg/device"
	"github.com/liscain-net/liscain/pkg/store"
	"github.com/liscain-net/liscain/pkg/util"
)

// AssociationStore is the slice of the Device Store this adopter reads.
type AssociationStore interface {
	FindAssociationByDownstreamMAC(ctx context.Context, downstreamMAC string) (*store.Option82Association, error)
}

// Adopter resolves a READY device's identity from its Option-82 binding and
// enqueues a ConfigureTask for it.
type Adopter struct {
	adopt.Base
	Associations AssociationStore
}

// Autoadopt implements adopt.Adopter. A missing association (no relay
// report has bound this device's MAC yet) is logged and skipped rather
// than treated as an error — the device will be retried on its next READY
// hook once a relay report arrives.
func (a *Adopter) Autoadopt(ctx context.Context, d *device.Device) {
	log := util.WithDevice(d.Identifier)

	association, err := a.Associations.FindAssociationByDownstreamMAC(ctx, d.MACAddress)
	if err != nil {
		log.Infof("opt82: could not find association for %s: %v", d.Address, err)
		return
	}
	if association.DownstreamSwitchName == nil {
		log.Infof("opt82: association for %s has no switch name bound yet", d.Address)
		return
	}

	if err := a.TryAdopt(ctx, d, *association.DownstreamSwitchName); err != nil {
		log.Errorf("opt82: %v", err)
	}
}
