package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Measurement queries. Grouped with the rest of the package's SQL so every
// statement the store prepares is visible in one place per domain.
const (
	sqlInsertMeasurement = `INSERT INTO measurement
		(status, modality, file_format_version, distance, timestamp, files_size)
		VALUES (?, ?, ?, 0, ?, 0)`

	sqlMeasurementColumns = `id, status, modality, file_format_version, distance, timestamp, files_size`

	sqlGetMeasurementByID = `SELECT ` + sqlMeasurementColumns + ` FROM measurement WHERE id = ?`

	sqlUpdateMeasurementStatus = `UPDATE measurement SET status = ? WHERE id = ?`

	sqlUpdateMeasurementDistance = `UPDATE measurement SET distance = ? WHERE id = ? AND status IN ('OPEN', 'PAUSED')`

	sqlUpdateFileFormatVersion = `UPDATE measurement SET file_format_version = ? WHERE id = ?`

	sqlUpdateFilesSize = `UPDATE measurement SET files_size = ? WHERE id = ?`

	sqlUpdateModality = `UPDATE measurement SET modality = ? WHERE id = ?`

	sqlListMeasurementsByStatus = `SELECT ` + sqlMeasurementColumns + ` FROM measurement WHERE status = ? ORDER BY timestamp`

	sqlListAllMeasurements = `SELECT ` + sqlMeasurementColumns + ` FROM measurement ORDER BY timestamp`

	sqlCurrentActiveMeasurement = `SELECT ` + sqlMeasurementColumns + ` FROM measurement WHERE status IN ('OPEN', 'PAUSED') LIMIT 1`

	sqlDeleteMeasurement = `DELETE FROM measurement WHERE id = ?`
)

// legalTransitions encodes the state machine of spec.md §4.4. A transition
// not present here is rejected by UpdateStatus.
var legalTransitions = map[Status]map[Status]bool{
	StatusOpen: {
		StatusPaused:   true,
		StatusFinished: true,
	},
	StatusPaused: {
		StatusOpen:     true,
		StatusFinished: true,
	},
	StatusFinished: {
		StatusSynced:              true,
		StatusSyncableAttachments: true,
		StatusSkipped:             true,
		StatusDeprecated:          true,
	},
}

// NewMeasurement inserts a measurement with status OPEN, the given
// timestamp (ms) and modality, and distance 0. Fails if any measurement
// with status OPEN or PAUSED already exists (spec.md §3, §4.4).
func (s *Store) NewMeasurement(ctx context.Context, modality Modality, timestampMs int64, fileFormatVersion int32) (*Measurement, error) {
	var active Measurement

	err := s.measurementStmts.currentActive.QueryRowContext(ctx).Scan(
		&active.ID, &active.Status, &active.Modality, &active.FileFormatVersion,
		&active.Distance, &active.Timestamp, &active.FilesSize,
	)
	if err == nil {
		return nil, ErrActiveMeasurementExists
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("catalog: checking for active measurement: %w", err)
	}

	res, err := s.measurementStmts.insert.ExecContext(ctx, StatusOpen, modality, fileFormatVersion, timestampMs)
	if err != nil {
		return nil, fmt.Errorf("catalog: insert measurement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("catalog: read new measurement id: %w", err)
	}

	return &Measurement{
		ID:                id,
		Status:            StatusOpen,
		Modality:          modality,
		FileFormatVersion: fileFormatVersion,
		Distance:          0,
		Timestamp:         timestampMs,
		FilesSize:         0,
	}, nil
}

// GetMeasurement loads a single measurement by id.
func (s *Store) GetMeasurement(ctx context.Context, id int64) (*Measurement, error) {
	var m Measurement

	err := s.measurementStmts.getByID.QueryRowContext(ctx, id).Scan(
		&m.ID, &m.Status, &m.Modality, &m.FileFormatVersion, &m.Distance, &m.Timestamp, &m.FilesSize,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSuchMeasurement
	} else if err != nil {
		return nil, fmt.Errorf("catalog: get measurement %d: %w", id, err)
	}

	return &m, nil
}

// CurrentActiveMeasurement returns the single measurement with status OPEN
// or PAUSED, or ErrNoSuchMeasurement if none exists.
func (s *Store) CurrentActiveMeasurement(ctx context.Context) (*Measurement, error) {
	var m Measurement

	err := s.measurementStmts.currentActive.QueryRowContext(ctx).Scan(
		&m.ID, &m.Status, &m.Modality, &m.FileFormatVersion, &m.Distance, &m.Timestamp, &m.FilesSize,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSuchMeasurement
	} else if err != nil {
		return nil, fmt.Errorf("catalog: current active measurement: %w", err)
	}

	return &m, nil
}

// ListMeasurements returns all measurements, optionally filtered to a
// single status. Pass "" for no filter.
func (s *Store) ListMeasurements(ctx context.Context, status Status) ([]Measurement, error) {
	var rows *sql.Rows

	var err error

	if status == "" {
		rows, err = s.measurementStmts.listAll.QueryContext(ctx)
	} else {
		rows, err = s.measurementStmts.listByStatus.QueryContext(ctx, status)
	}

	if err != nil {
		return nil, fmt.Errorf("catalog: list measurements: %w", err)
	}
	defer rows.Close()

	var out []Measurement

	for rows.Next() {
		var m Measurement
		if err := rows.Scan(&m.ID, &m.Status, &m.Modality, &m.FileFormatVersion, &m.Distance, &m.Timestamp, &m.FilesSize); err != nil {
			return nil, fmt.Errorf("catalog: scan measurement: %w", err)
		}

		out = append(out, m)
	}

	return out, rows.Err()
}

// UpdateStatus transitions a measurement's status, rejecting any
// transition not present in legalTransitions. Used directly only by
// MarkFinishedAs, which has no Event to pair with the transition.
// Every transition that does pair with an Event (Pause, Resume, Stop)
// goes through RecordTransition instead, which performs both writes
// inside one SQLite transaction.
func (s *Store) UpdateStatus(ctx context.Context, id int64, newStatus Status) error {
	m, err := s.GetMeasurement(ctx, id)
	if err != nil {
		return err
	}

	if !legalTransitions[m.Status][newStatus] {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.Status, newStatus)
	}

	if _, err := s.measurementStmts.updateStatus.ExecContext(ctx, newStatus, id); err != nil {
		return fmt.Errorf("catalog: update status: %w", err)
	}

	return nil
}

// RecordTransition inserts an Event and applies the paired Measurement
// status transition atomically: InsertEvent's monotonic-timestamp check,
// UpdateStatus's legality check, and both writes happen inside a single
// SQLite transaction (spec.md §4.2's transactional-writes requirement
// for C2), so a crash between the two can never leave an Event recorded
// with no matching status change, or vice versa.
func (s *Store) RecordTransition(ctx context.Context, measurementID int64, timestampMs int64, typ EventType, value string, newStatus Status) (*Event, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: begin transition tx: %w", err)
	}
	defer tx.Rollback()

	event, err := insertEventTx(ctx, tx, s.eventStmts, measurementID, timestampMs, typ, value)
	if err != nil {
		return nil, err
	}

	var m Measurement

	err = tx.StmtContext(ctx, s.measurementStmts.getByID).QueryRowContext(ctx, measurementID).Scan(
		&m.ID, &m.Status, &m.Modality, &m.FileFormatVersion, &m.Distance, &m.Timestamp, &m.FilesSize,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSuchMeasurement
	} else if err != nil {
		return nil, fmt.Errorf("catalog: transition: get measurement %d: %w", measurementID, err)
	}

	if !legalTransitions[m.Status][newStatus] {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.Status, newStatus)
	}

	if _, err := tx.StmtContext(ctx, s.measurementStmts.updateStatus).ExecContext(ctx, newStatus, measurementID); err != nil {
		return nil, fmt.Errorf("catalog: transition: update status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("catalog: commit transition: %w", err)
	}

	return event, nil
}

// UpdateDistance sets a measurement's cumulative distance. Only legal while
// the measurement is OPEN or PAUSED; the caller (the distance accumulator)
// is responsible for monotonic non-decrease, per spec.md §4.2.
func (s *Store) UpdateDistance(ctx context.Context, id int64, distance float64) error {
	res, err := s.measurementStmts.updateDistance.ExecContext(ctx, distance, id)
	if err != nil {
		return fmt.Errorf("catalog: update distance: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("catalog: update distance rows affected: %w", err)
	}

	if n == 0 {
		return ErrDistanceWhileClosed
	}

	return nil
}

// UpdateFileFormatVersion records the point-file format version the
// capture pipeline is currently writing with.
func (s *Store) UpdateFileFormatVersion(ctx context.Context, id int64, version int32) error {
	if _, err := s.measurementStmts.updateFileFormatVersion.ExecContext(ctx, version, id); err != nil {
		return fmt.Errorf("catalog: update file format version: %w", err)
	}

	return nil
}

// UpdateFilesSize records the total byte size of attached files.
func (s *Store) UpdateFilesSize(ctx context.Context, id int64, size int64) error {
	if _, err := s.measurementStmts.updateFilesSize.ExecContext(ctx, size, id); err != nil {
		return fmt.Errorf("catalog: update files size: %w", err)
	}

	return nil
}

// UpdateModality sets the measurement's current transport mode, called by
// the lifecycle coordinator alongside a MODALITY_TYPE_CHANGE event.
func (s *Store) UpdateModality(ctx context.Context, id int64, modality Modality) error {
	if _, err := s.measurementStmts.updateModality.ExecContext(ctx, modality, id); err != nil {
		return fmt.Errorf("catalog: update modality: %w", err)
	}

	return nil
}

// DeleteMeasurement removes the measurement row; foreign keys with
// ON DELETE CASCADE remove its events, locations, pressures and
// attachments as a side effect of this single statement.
func (s *Store) DeleteMeasurement(ctx context.Context, id int64) error {
	res, err := s.measurementStmts.deleteByID.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("catalog: delete measurement: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("catalog: delete measurement rows affected: %w", err)
	}

	if n == 0 {
		return ErrNoSuchMeasurement
	}

	return nil
}
