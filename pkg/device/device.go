// Package device defines the Device model and its lifecycle state machine.
package device

// UnknownSentinel is the default value for discovered-but-not-yet-known
// device attributes.
const UnknownSentinel = "UNKNOWN"

// State is a device lifecycle state.
type State string

const (
	StateNew             State = "NEW"
	StateInit            State = "INIT"
	StateInitFailed      State = "INIT_FAILED"
	StateReady           State = "READY"
	StateConfiguring     State = "CONFIGURING"
	StateConfigureFailed State = "CONFIGURE_FAILED"
	StateConfigured      State = "CONFIGURED"
)

// Device is one managed switch.
type Device struct {
	ID          int64
	Identifier  string
	Address     string
	DeviceClass string
	DeviceType  string
	MACAddress  string
	Version     string
	State       State
}

// New returns a Device in its initial NEW state with discovery fields set
// to the UNKNOWN sentinel, per the invariants in the data model.
func New(identifier, address, deviceClass string) *Device {
	return &Device{
		Identifier:  identifier,
		Address:     address,
		DeviceClass: deviceClass,
		DeviceType:  UnknownSentinel,
		MACAddress:  UnknownSentinel,
		Version:     UnknownSentinel,
		State:       StateNew,
	}
}

// transitions enumerates the allowed state machine edges. A transition not
// present here is rejected by CanTransition. CONFIGURED has no outgoing
// edges: it is terminal for the cycle, and a reinit request against a
// CONFIGURED device is rejected at Task.Validate time (see InitPrerequisites),
// never at the store layer.
var transitions = map[State][]State{
	StateNew:             {StateInit},
	StateInit:            {StateInitFailed, StateReady},
	StateInitFailed:      {StateInit},
	StateReady:           {StateInit, StateConfiguring},
	StateConfiguring:     {StateConfigureFailed, StateConfigured},
	StateConfigureFailed: {StateInit, StateConfiguring},
	StateConfigured:      {},
}

// CanTransition reports whether moving from "from" to "to" is a legal edge
// in the device lifecycle state machine.
func CanTransition(from, to State) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// InitPrerequisites is the set of states from which an InitTask may run.
var InitPrerequisites = []State{StateNew, StateInit, StateInitFailed, StateReady, StateConfigureFailed}

// ConfigurePrerequisites is the set of states from which a ConfigureTask may run.
var ConfigurePrerequisites = []State{StateReady, StateConfigureFailed}

// InState reports whether s appears in states.
func InState(s State, states []State) bool {
	for _, candidate := range states {
		if candidate == s {
			return true
		}
	}
	return false
}

// AsMap renders the device as the dict shape used by the command RPC and CLI
// (spec.md §6: id, identifier, address, state, device_class, device_type,
// mac_address, version).
func (d *Device) AsMap() map[string]interface{} {
	return map[string]interface{}{
		"id":           d.ID,
		"identifier":   d.Identifier,
		"address":      d.Address,
		"state":        string(d.State),
		"device_class": d.DeviceClass,
		"device_type":  d.DeviceType,
		"mac_address":  d.MACAddress,
		"version":      d.Version,
	}
}
