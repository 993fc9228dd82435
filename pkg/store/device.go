package store

import (
	"context"
	"fmt"

	"github.com/liscain-net/liscain/pkg/device"
	"github.com/liscain-net/liscain/pkg/util"
)

const deviceColumns = "id, identifier, address, device_class, device_type, mac_address, version, state"

func scanDevice(row interface{ Scan(...interface{}) error }) (*device.Device, error) {
	d := &device.Device{}
	var state string
	if err := row.Scan(&d.ID, &d.Identifier, &d.Address, &d.DeviceClass, &d.DeviceType, &d.MACAddress, &d.Version, &state); err != nil {
		return nil, err
	}
	d.State = device.State(state)
	return d, nil
}

// GetByID returns a device.Device by its primary key, or util.ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id int64) (*device.Device, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+deviceColumns+" FROM devices WHERE id = ?", id)
	d, err := scanDevice(row)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return d, nil
}

// FindByIdentifierNotInState returns the device with the given identifier
// whose state is not excludeState, or util.ErrNotFound if none exists. This
// is the lookup the bootstrap file server uses: it must find an
// already-initializing device by its peer alias, but ignore one that has
// already reached CONFIGURED (spec.md §4.7).
func (s *Store) FindByIdentifierNotInState(ctx context.Context, identifier string, excludeState device.State) (*device.Device, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+deviceColumns+" FROM devices WHERE identifier = ? AND state != ? ORDER BY id LIMIT 1",
		identifier, string(excludeState))
	d, err := scanDevice(row)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return d, nil
}

// ListAll returns every device row.
func (s *Store) ListAll(ctx context.Context) ([]*device.Device, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+deviceColumns+" FROM devices ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("store: list devices: %w", err)
	}
	defer rows.Close()

	var out []*device.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan device: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Create inserts a new device row. The device's null-after-creation fields
// (identifier, address, device_class, state) must already be set by the
// caller; device_type/mac_address/version default to the UNKNOWN sentinel.
func (s *Store) Create(ctx context.Context, d *device.Device) (*device.Device, error) {
	if d.DeviceType == "" {
		d.DeviceType = device.UnknownSentinel
	}
	if d.MACAddress == "" {
		d.MACAddress = device.UnknownSentinel
	}
	if d.Version == "" {
		d.Version = device.UnknownSentinel
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO devices (identifier, address, device_class, device_type, mac_address, version, state)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.Identifier, d.Address, d.DeviceClass, d.DeviceType, d.MACAddress, d.Version, string(d.State))
	if err != nil {
		return nil, fmt.Errorf("store: create device: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("store: create device: %w", err)
	}
	d.ID = id
	return d, nil
}

// Delete removes a device row by ID.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM devices WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("store: delete device: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete device: %w", err)
	}
	if n == 0 {
		return util.ErrNotFound
	}
	return nil
}

// Merge upserts a device row by ID (the Go analogue of SQLAlchemy's
// session.merge): every column is overwritten from d.
func (s *Store) Merge(ctx context.Context, d *device.Device) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE devices SET identifier = ?, address = ?, device_class = ?, device_type = ?,
		 mac_address = ?, version = ?, state = ?, updated_at = datetime('now') WHERE id = ?`,
		d.Identifier, d.Address, d.DeviceClass, d.DeviceType, d.MACAddress, d.Version, string(d.State), d.ID)
	if err != nil {
		return fmt.Errorf("store: merge device: %w", err)
	}
	return nil
}

// ChangeState persists a device's new lifecycle state. It is the single
// choke point through which Tasks and Adopters mutate device state
// (spec.md §3: "the Commander never moves a device's state; only Tasks and
// Adopters do, and always via the Device Store"). It rejects the write if
// the transition is not in the allowed set, re-checking against the
// currently persisted state rather than a caller-supplied one, since another
// goroutine may have changed it since the caller last read it.
func (s *Store) ChangeState(ctx context.Context, id int64, newState device.State) error {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !device.CanTransition(current.State, newState) {
		return util.NewPreconditionError("change_state", fmt.Sprintf("device %d", id),
			fmt.Sprintf("%s -> %s not allowed", current.State, newState), "")
	}
	_, err = s.db.ExecContext(ctx,
		"UPDATE devices SET state = ?, updated_at = datetime('now') WHERE id = ?",
		string(newState), id)
	if err != nil {
		return fmt.Errorf("store: change state: %w", err)
	}
	return nil
}

// UpdateDiscovered persists harvested identification attributes
// (device_type, mac_address, version) without touching lifecycle state.
func (s *Store) UpdateDiscovered(ctx context.Context, id int64, deviceType, macAddress, version string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE devices SET device_type = ?, mac_address = ?, version = ?, updated_at = datetime('now') WHERE id = ?",
		deviceType, macAddress, version, id)
	if err != nil {
		return fmt.Errorf("store: update discovered attributes: %w", err)
	}
	return nil
}

// UpdateIdentifier persists a new identifier (used by ConfigureTask once the
// driver's ChangeIdentity has succeeded).
func (s *Store) UpdateIdentifier(ctx context.Context, id int64, identifier string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE devices SET identifier = ?, updated_at = datetime('now') WHERE id = ?",
		identifier, id)
	if err != nil {
		return fmt.Errorf("store: update identifier: %w", err)
	}
	return nil
}
