package catalog

import (
	"fmt"

	"context"
)

const (
	sqlInsertPressure = `INSERT INTO pressure (measurement_id, timestamp, pressure) VALUES (?, ?, ?)`

	sqlPressureColumns = `id, measurement_id, timestamp, pressure`

	sqlPressurePage = `SELECT ` + sqlPressureColumns + ` FROM pressure
		WHERE measurement_id = ? AND (timestamp > ? OR (timestamp = ? AND id > ?))
		ORDER BY timestamp, id LIMIT ?`

	sqlCountPressuresByMeasurement = `SELECT COUNT(*) FROM pressure WHERE measurement_id = ?`
)

// InsertPressure appends a Pressure row.
func (s *Store) InsertPressure(ctx context.Context, p Pressure) (*Pressure, error) {
	res, err := s.pressureStmts.insert.ExecContext(ctx, p.MeasurementID, p.Timestamp, p.Pressure)
	if err != nil {
		return nil, fmt.Errorf("catalog: insert pressure: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("catalog: read new pressure id: %w", err)
	}

	out := p
	out.ID = id

	return &out, nil
}

// PressurePage returns up to PageSize Pressure rows after the given
// keyset cursor, mirroring LocationPage.
func (s *Store) PressurePage(ctx context.Context, measurementID int64, cursorTimestamp, cursorID int64) ([]Pressure, error) {
	rows, err := s.pressureStmts.page.QueryContext(ctx, measurementID, cursorTimestamp, cursorTimestamp, cursorID, PageSize)
	if err != nil {
		return nil, fmt.Errorf("catalog: pressure page: %w", err)
	}
	defer rows.Close()

	var out []Pressure

	for rows.Next() {
		var p Pressure
		if err := rows.Scan(&p.ID, &p.MeasurementID, &p.Timestamp, &p.Pressure); err != nil {
			return nil, fmt.Errorf("catalog: scan pressure: %w", err)
		}

		out = append(out, p)
	}

	return out, rows.Err()
}

// CountPressures returns the total number of Pressure rows for a
// measurement.
func (s *Store) CountPressures(ctx context.Context, measurementID int64) (int64, error) {
	var n int64

	if err := s.pressureStmts.countByMeasurement.QueryRowContext(ctx, measurementID).Scan(&n); err != nil {
		return 0, fmt.Errorf("catalog: count pressures: %w", err)
	}

	return n, nil
}
