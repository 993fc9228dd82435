package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/liscain-net/liscain/pkg/util"
)

// Option82Association mirrors a relay-report binding between an upstream
// switch/port and the downstream device connected on it (spec.md §3).
type Option82Association struct {
	ID                   int64
	UpstreamSwitchMAC    string
	UpstreamPortInfo     string
	DownstreamSwitchMAC  *string
	DownstreamSwitchName *string
}

const option82Columns = "id, upstream_switch_mac, upstream_port_info, downstream_switch_mac, downstream_switch_name"

func scanOption82(row interface{ Scan(...interface{}) error }) (*Option82Association, error) {
	a := &Option82Association{}
	if err := row.Scan(&a.ID, &a.UpstreamSwitchMAC, &a.UpstreamPortInfo, &a.DownstreamSwitchMAC, &a.DownstreamSwitchName); err != nil {
		return nil, err
	}
	return a, nil
}

// FindAssociationByUpstream looks up the (at most one) row for a given
// (upstream_switch_mac, upstream_port_info) pair.
func (s *Store) FindAssociationByUpstream(ctx context.Context, upstreamMAC, upstreamPort string) (*Option82Association, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+option82Columns+" FROM option82_associations WHERE upstream_switch_mac = ? AND upstream_port_info = ?",
		upstreamMAC, upstreamPort)
	a, err := scanOption82(row)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return a, nil
}

// FindAssociationByDownstreamMAC looks up the (at most one) row currently
// bound to a given downstream MAC — this is what the opt82 Adopter uses to
// resolve a READY device's intended identity.
func (s *Store) FindAssociationByDownstreamMAC(ctx context.Context, downstreamMAC string) (*Option82Association, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+option82Columns+" FROM option82_associations WHERE downstream_switch_mac = ?",
		downstreamMAC)
	a, err := scanOption82(row)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return a, nil
}

// ListAssociations returns every Option-82 association row.
func (s *Store) ListAssociations(ctx context.Context) ([]*Option82Association, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+option82Columns+" FROM option82_associations ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("store: list option82 associations: %w", err)
	}
	defer rows.Close()

	var out []*Option82Association
	for rows.Next() {
		a, err := scanOption82(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan option82 association: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteAssociation removes an association row by ID.
func (s *Store) DeleteAssociation(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM option82_associations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("store: delete option82 association: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete option82 association: %w", err)
	}
	if n == 0 {
		return util.ErrNotFound
	}
	return nil
}

// SetAssociation creates or updates the downstream_switch_name for a given
// (upstream_switch_mac, upstream_port_info) pair — this is the `opt82-info`
// RPC command / `liscainctl opt82 set` path, not the ingest path.
func (s *Store) SetAssociation(ctx context.Context, upstreamMAC, upstreamPort string, downstreamName *string) (*Option82Association, error) {
	upstreamMAC = normalizeMAC(upstreamMAC)
	upstreamPort = normalizePort(upstreamPort)

	existing, err := s.FindAssociationByUpstream(ctx, upstreamMAC, upstreamPort)
	if err == nil {
		_, execErr := s.db.ExecContext(ctx,
			"UPDATE option82_associations SET downstream_switch_name = ? WHERE id = ?",
			downstreamName, existing.ID)
		if execErr != nil {
			return nil, fmt.Errorf("store: update option82 association: %w", execErr)
		}
		existing.DownstreamSwitchName = downstreamName
		return existing, nil
	}
	if err != util.ErrNotFound {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO option82_associations (upstream_switch_mac, upstream_port_info, downstream_switch_name)
		 VALUES (?, ?, ?)`,
		upstreamMAC, upstreamPort, downstreamName)
	if err != nil {
		return nil, fmt.Errorf("store: create option82 association: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("store: create option82 association: %w", err)
	}
	return &Option82Association{
		ID:                   id,
		UpstreamSwitchMAC:    upstreamMAC,
		UpstreamPortInfo:     upstreamPort,
		DownstreamSwitchName: downstreamName,
	}, nil
}

// UpdateOption82Info implements the ingest path: it only ever touches rows
// that already exist for (upstream_switch_mac, upstream_port_info) — a
// relay report for an unknown upstream/port pair is logged and dropped, not
// created (mirrors original_source/lib/option82.py's update_info, which
// swallows sqlalchemy.orm.exc.NoResultFound).
//
// Uniqueness invariant (spec.md §3): at most one row may bind a given
// downstream_switch_mac. Any other row currently holding downstreamMAC is
// cleared to NULL before the target row is updated, all within one
// transaction so a concurrent reader never observes two rows holding the
// same MAC.
func (s *Store) UpdateOption82Info(ctx context.Context, upstreamMAC, upstreamPort, downstreamMAC string) error {
	upstreamMAC = normalizeMAC(upstreamMAC)
	upstreamPort = normalizePort(upstreamPort)
	downstreamMAC = normalizeMAC(downstreamMAC)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		"SELECT "+option82Columns+" FROM option82_associations WHERE upstream_switch_mac = ? AND upstream_port_info = ?",
		upstreamMAC, upstreamPort)
	info, err := scanOption82(row)
	if err == sql.ErrNoRows {
		util.WithField("upstream_switch_mac", upstreamMAC).
			WithField("upstream_port_info", upstreamPort).
			Info("opt82: no association found for upstream/port, ignoring ingest")
		return nil
	}
	if err != nil {
		return fmt.Errorf("store: lookup option82 association: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE option82_associations SET downstream_switch_mac = NULL WHERE downstream_switch_mac = ? AND id != ?",
		downstreamMAC, info.ID); err != nil {
		return fmt.Errorf("store: clear stale downstream mac bindings: %w", err)
	}

	if info.DownstreamSwitchMAC == nil || *info.DownstreamSwitchMAC != downstreamMAC {
		if _, err := tx.ExecContext(ctx,
			"UPDATE option82_associations SET downstream_switch_mac = ? WHERE id = ?",
			downstreamMAC, info.ID); err != nil {
			return fmt.Errorf("store: update downstream mac: %w", err)
		}
	}

	return tx.Commit()
}
