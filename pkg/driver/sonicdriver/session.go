package sonicdriver

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/liscain-net/liscain/pkg/util"
)

// DeviceState holds the parsed operational state of a SONiC switch, derived
// from CONFIG_DB on every Connect/LoadState.
type DeviceState struct {
	Interfaces   map[string]*InterfaceState
	PortChannels map[string]*PortChannelState
	VLANs        map[int]*VLANState
	VRFs         map[string]*VRFState
}

// InterfaceState represents interface operational state.
type InterfaceState struct {
	Name        string
	AdminStatus string
	OperStatus  string
	Speed       string
	MTU         int
	VRF         string
	IPAddresses []string
	Service     string
	IngressACL  string
	EgressACL   string
	LAGMember   string
}

// PortChannelState represents LAG operational state.
type PortChannelState struct {
	Name          string
	AdminStatus   string
	OperStatus    string
	Members       []string
	ActiveMembers []string
}

// VLANState represents VLAN operational state.
type VLANState struct {
	ID         int
	Name       string
	OperStatus string
	Ports      []string
	SVIStatus  string
	L2VNI      int
}

// VRFState represents VRF operational state.
type VRFState struct {
	Name       string
	State      string
	Interfaces []string
	L3VNI      int
}

// Device is the legacy alias kept for state.go's receiver; Session is the
// connection-bearing type tasks and the driver actually use.
type Device = Session

// Session is one live Redis connection to a SONiC switch's management
// databases (CONFIG_DB, STATE_DB, APP_DB), reached either directly or
// through an SSH tunnel when the switch only exposes Redis on loopback.
type Session struct {
	Name    string
	MgmtIP  string
	SSHUser string
	SSHPass string
	SSHPort int

	ConfigDB *ConfigDB
	StateDB  *StateDB
	State    *DeviceState

	client      *ConfigDBClient
	stateClient *StateDBClient
	applClient  *AppDBClient
	tunnel      *SSHTunnel
	connected   bool
	locked      bool
	lockHolder  string

	mu sync.RWMutex
}

// NewSession returns a Session targeting the switch's management address.
// If sshUser/sshPass are set, Connect tunnels Redis traffic over SSH instead
// of dialing the management IP directly — most SONiC switches only bind
// Redis to loopback and rely on SSH port-forwarding for remote access.
func NewSession(name, mgmtIP, sshUser, sshPass string, sshPort int) *Session {
	return &Session{
		Name:    name,
		MgmtIP:  mgmtIP,
		SSHUser: sshUser,
		SSHPass: sshPass,
		SSHPort: sshPort,
		State: &DeviceState{
			Interfaces:   make(map[string]*InterfaceState),
			PortChannels: make(map[string]*PortChannelState),
			VLANs:        make(map[int]*VLANState),
			VRFs:         make(map[string]*VRFState),
		},
	}
}

// Connect establishes the Redis session (optionally over an SSH tunnel),
// loads CONFIG_DB, and best-effort loads STATE_DB/APP_DB.
func (d *Session) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return nil
	}

	var addr string
	if d.SSHUser != "" && d.SSHPass != "" {
		tun, err := NewSSHTunnel(d.MgmtIP, d.SSHUser, d.SSHPass, d.SSHPort)
		if err != nil {
			return fmt.Errorf("ssh tunnel to %s: %w", d.Name, err)
		}
		d.tunnel = tun
		addr = tun.LocalAddr()
	} else {
		addr = fmt.Sprintf("%s:6379", d.MgmtIP)
	}

	d.client = NewConfigDBClient(addr)
	if err := d.client.Connect(); err != nil {
		return fmt.Errorf("connecting to config_db on %s: %w", d.Name, err)
	}

	var err error
	d.ConfigDB, err = d.client.GetAll()
	if err != nil {
		d.client.Close()
		return fmt.Errorf("loading config_db from %s: %w", d.Name, err)
	}

	d.stateClient = NewStateDBClient(addr)
	if err := d.stateClient.Connect(); err != nil {
		util.WithDevice(d.Name).Warnf("failed to connect to state_db: %v", err)
		d.stateClient = nil
	} else if d.StateDB, err = d.stateClient.GetAll(); err != nil {
		util.WithDevice(d.Name).Warnf("failed to load state_db: %v", err)
	}

	d.applClient = NewAppDBClient(addr)
	if err := d.applClient.Connect(); err != nil {
		util.WithDevice(d.Name).Debugf("failed to connect to app_db: %v", err)
		d.applClient = nil
	}

	d.State.Interfaces = d.parseInterfaces()
	d.State.PortChannels = d.parsePortChannels()
	d.State.VLANs = d.parseVLANs()
	d.State.VRFs = d.parseVRFs()

	d.connected = true
	util.WithDevice(d.Name).Info("connected")

	return nil
}

// RefreshState re-reads STATE_DB, picking up operational changes written by
// the switch since Connect (link flaps, BGP session transitions) without
// tearing down the session.
func (d *Session) RefreshState(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return util.ErrNotConnected
	}
	if d.stateClient == nil {
		return fmt.Errorf("state_db client not available for %s", d.Name)
	}

	stateDB, err := d.stateClient.GetAll()
	if err != nil {
		return fmt.Errorf("refreshing state_db from %s: %w", d.Name, err)
	}
	d.StateDB = stateDB

	return nil
}

// Disconnect releases the Redis clients and any SSH tunnel.
func (d *Session) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	if d.locked {
		if err := d.unlock(); err != nil {
			util.WithDevice(d.Name).Warnf("failed to release lock: %v", err)
		}
	}

	if d.client != nil {
		d.client.Close()
	}
	if d.stateClient != nil {
		d.stateClient.Close()
	}
	if d.applClient != nil {
		d.applClient.Close()
	}
	if d.tunnel != nil {
		d.tunnel.Close()
		d.tunnel = nil
	}

	d.connected = false
	util.WithDevice(d.Name).Info("disconnected")

	return nil
}

// Exec runs cmd on the device over the SSH tunnel and returns its combined
// output. Used for operations with no Redis equivalent: config reload,
// staged config fetches, LLDP neighbor dumps.
func (d *Session) Exec(cmd string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return "", util.ErrNotConnected
	}
	if d.tunnel == nil {
		return "", fmt.Errorf("no SSH tunnel open for %s", d.Name)
	}
	return d.tunnel.ExecCommand(cmd)
}

// IsConnected reports whether the session currently holds a live connection.
func (d *Session) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// RequireConnected returns an error if the session is not connected.
func (d *Session) RequireConnected() error {
	if !d.IsConnected() {
		return util.NewPreconditionError("operation", d.Name, "device must be connected", "")
	}
	return nil
}

// RequireLocked returns an error if the session is not connected and locked.
func (d *Session) RequireLocked() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return util.NewPreconditionError("operation", d.Name, "device must be connected", "")
	}
	if !d.locked {
		return util.NewPreconditionError("operation", d.Name, "device must be locked for changes", "use Lock() first")
	}
	return nil
}

var lockHolderSeq uint64

// Lock acquires a distributed lock on the device via STATE_DB, identifying
// the holder so a crashed worker's lock can be attributed during recovery.
func (d *Session) Lock(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return util.ErrNotConnected
	}
	if d.locked {
		return nil
	}

	holder := fmt.Sprintf("liscain-%d", atomic.AddUint64(&lockHolderSeq, 1))
	if d.stateClient != nil {
		if err := d.stateClient.AcquireLock(d.Name, holder, 30); err != nil {
			return err
		}
	}

	d.locked = true
	d.lockHolder = holder
	util.WithDevice(d.Name).Debugf("lock acquired by %s", holder)

	return nil
}

// Unlock releases the device lock acquired by Lock.
func (d *Session) Unlock() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.unlock()
}

func (d *Session) unlock() error {
	if !d.locked {
		return nil
	}

	if d.stateClient != nil && d.lockHolder != "" {
		if err := d.stateClient.ReleaseLock(d.Name, d.lockHolder); err != nil {
			util.WithDevice(d.Name).Warnf("failed to release lock: %v", err)
		}
	}

	d.locked = false
	d.lockHolder = ""
	util.WithDevice(d.Name).Debug("lock released")

	return nil
}

// IsLocked reports whether the session currently holds the device lock.
func (d *Session) IsLocked() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.locked
}

// InterfaceExists reports whether name is a known physical port or port
// channel.
func (d *Session) InterfaceExists(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if _, ok := d.State.Interfaces[name]; ok {
		return true
	}
	_, ok := d.State.PortChannels[name]
	return ok
}

// VLANExists reports whether a VLAN with the given ID is configured.
func (d *Session) VLANExists(id int) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.State.VLANs[id]
	return ok
}

// VRFExists reports whether a VRF with the given name is configured.
func (d *Session) VRFExists(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.State.VRFs[name]
	return ok
}

// PortChannelExists reports whether a port channel with the given name
// exists.
func (d *Session) PortChannelExists(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.State.PortChannels[name]
	return ok
}

// VTEPExists reports whether a VXLAN tunnel endpoint is configured.
func (d *Session) VTEPExists() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.ConfigDB == nil {
		return false
	}
	return len(d.ConfigDB.VXLANTunnel) > 0
}

// BGPConfigured reports whether any BGP neighbor is configured.
func (d *Session) BGPConfigured() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.ConfigDB == nil {
		return false
	}
	return len(d.ConfigDB.BGPNeighbor) > 0
}

// ACLTableExists reports whether an ACL table with the given name exists.
func (d *Session) ACLTableExists(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.ConfigDB == nil {
		return false
	}
	_, ok := d.ConfigDB.ACLTable[name]
	return ok
}

// InterfaceIsLAGMember reports whether name is a member of any port channel.
func (d *Session) InterfaceIsLAGMember(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	intf, ok := d.State.Interfaces[name]
	return ok && intf.LAGMember != ""
}

// GetInterfaceLAG returns the port channel name an interface belongs to, or
// "" if it is not a LAG member.
func (d *Session) GetInterfaceLAG(name string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	intf, ok := d.State.Interfaces[name]
	if !ok {
		return ""
	}
	return intf.LAGMember
}

// InterfaceHasService reports whether an interface has a customer service
// binding.
func (d *Session) InterfaceHasService(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	intf, ok := d.State.Interfaces[name]
	return ok && intf.Service != ""
}
