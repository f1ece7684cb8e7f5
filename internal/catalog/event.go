package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const (
	sqlInsertEvent = `INSERT INTO event (measurement_id, timestamp, type, value) VALUES (?, ?, ?, ?)`

	sqlEventColumns = `id, measurement_id, timestamp, type, value`

	sqlListEventsByMeasurement = `SELECT ` + sqlEventColumns + ` FROM event WHERE measurement_id = ? ORDER BY timestamp`

	sqlLastLifecycleEventTimestamp = `SELECT timestamp FROM event
		WHERE measurement_id = ? AND type != 'MODALITY_TYPE_CHANGE'
		ORDER BY timestamp DESC LIMIT 1`
)

// InsertEvent appends an Event row. Lifecycle event timestamps for a given
// measurement must be strictly monotonic (spec.md §3); this is enforced
// here, not left to the caller, since it is cheap to check and callers
// have repeatedly gotten it wrong (the modality-change path does not
// participate in this ordering, since multiple modality changes may share
// a millisecond with an unrelated lifecycle event in the source data).
func (s *Store) InsertEvent(ctx context.Context, measurementID int64, timestampMs int64, typ EventType, value string) (*Event, error) {
	if typ != EventModalityTypeChange {
		var last sql.NullInt64

		err := s.eventStmts.lastLifecycleTimestamp.QueryRowContext(ctx, measurementID).Scan(&last)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("catalog: read last lifecycle event timestamp: %w", err)
		}

		if last.Valid && timestampMs <= last.Int64 {
			return nil, fmt.Errorf("%w: measurement %d, new=%d last=%d", ErrNonMonotonicEvent, measurementID, timestampMs, last.Int64)
		}
	}

	res, err := s.eventStmts.insert.ExecContext(ctx, measurementID, timestampMs, typ, nullableString(value))
	if err != nil {
		return nil, fmt.Errorf("catalog: insert event: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("catalog: read new event id: %w", err)
	}

	return &Event{ID: id, MeasurementID: measurementID, Timestamp: timestampMs, Type: typ, Value: value}, nil
}

// insertEventTx is InsertEvent's logic run against a transaction-bound
// statement set, shared by RecordTransition so the monotonic-timestamp
// check and the insert happen inside the caller's transaction rather
// than against the store's ambient connection.
func insertEventTx(ctx context.Context, tx *sql.Tx, stmts eventStatements, measurementID int64, timestampMs int64, typ EventType, value string) (*Event, error) {
	if typ != EventModalityTypeChange {
		var last sql.NullInt64

		err := tx.StmtContext(ctx, stmts.lastLifecycleTimestamp).QueryRowContext(ctx, measurementID).Scan(&last)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("catalog: read last lifecycle event timestamp: %w", err)
		}

		if last.Valid && timestampMs <= last.Int64 {
			return nil, fmt.Errorf("%w: measurement %d, new=%d last=%d", ErrNonMonotonicEvent, measurementID, timestampMs, last.Int64)
		}
	}

	res, err := tx.StmtContext(ctx, stmts.insert).ExecContext(ctx, measurementID, timestampMs, typ, nullableString(value))
	if err != nil {
		return nil, fmt.Errorf("catalog: insert event: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("catalog: read new event id: %w", err)
	}

	return &Event{ID: id, MeasurementID: measurementID, Timestamp: timestampMs, Type: typ, Value: value}, nil
}

// ListEvents returns every Event for a measurement ordered by timestamp
// ascending — the order every reader of this table must observe
// (spec.md §5).
func (s *Store) ListEvents(ctx context.Context, measurementID int64) ([]Event, error) {
	rows, err := s.eventStmts.listByMeasurement.QueryContext(ctx, measurementID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list events: %w", err)
	}
	defer rows.Close()

	var out []Event

	for rows.Next() {
		var e Event

		var value sql.NullString

		if err := rows.Scan(&e.ID, &e.MeasurementID, &e.Timestamp, &e.Type, &value); err != nil {
			return nil, fmt.Errorf("catalog: scan event: %w", err)
		}

		e.Value = value.String
		out = append(out, e)
	}

	return out, rows.Err()
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}

	return v
}
