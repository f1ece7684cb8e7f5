package catalog

import (
	"context"
	"database/sql"
	"fmt"
)

const (
	sqlInsertLocation = `INSERT INTO location
		(measurement_id, timestamp, lat, lon, altitude, speed, accuracy, vertical_accuracy)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	sqlLocationColumns = `id, measurement_id, timestamp, lat, lon, altitude, speed, accuracy, vertical_accuracy`

	sqlListLocationsByMeasurement = `SELECT ` + sqlLocationColumns + ` FROM location WHERE measurement_id = ? ORDER BY timestamp`

	// sqlLocationPage bounds memory per spec.md §4.2/§4.7: at most PageSize
	// rows per query, walked by (timestamp, id) keyset so a page boundary
	// falling mid-timestamp never drops or duplicates a row.
	sqlLocationPage = `SELECT ` + sqlLocationColumns + ` FROM location
		WHERE measurement_id = ? AND (timestamp > ? OR (timestamp = ? AND id > ?))
		ORDER BY timestamp, id LIMIT ?`

	sqlCountLocationsByMeasurement = `SELECT COUNT(*) FROM location WHERE measurement_id = ?`
)

// InsertLocation appends a Location row. Locations are never mutated once
// written (spec.md §3).
func (s *Store) InsertLocation(ctx context.Context, l Location) (*Location, error) {
	res, err := s.locationStmts.insert.ExecContext(ctx, l.MeasurementID, l.Timestamp, l.Lat, l.Lon,
		nullableFloat(l.Altitude), l.Speed, nullableFloat(l.Accuracy), nullableFloat(l.VerticalAccuracy))
	if err != nil {
		return nil, fmt.Errorf("catalog: insert location: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("catalog: read new location id: %w", err)
	}

	out := l
	out.ID = id

	return &out, nil
}

// ListLocations returns every Location for a measurement ordered by
// timestamp ascending, with no page limit. Intended for the track
// assembler, which needs the full ordered sequence; callers serializing
// large measurements should use LocationPage instead.
func (s *Store) ListLocations(ctx context.Context, measurementID int64) ([]Location, error) {
	rows, err := s.locationStmts.listByMeasurement.QueryContext(ctx, measurementID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list locations: %w", err)
	}
	defer rows.Close()

	return scanLocations(rows)
}

// LocationPage returns up to PageSize Locations for a measurement with
// timestamp/id strictly after the cursor, ordered by (timestamp, id).
// Pass cursorTimestamp=0, cursorID=0 for the first page. Returns an empty
// slice (not an error) once exhausted.
func (s *Store) LocationPage(ctx context.Context, measurementID int64, cursorTimestamp, cursorID int64) ([]Location, error) {
	rows, err := s.locationStmts.page.QueryContext(ctx, measurementID, cursorTimestamp, cursorTimestamp, cursorID, PageSize)
	if err != nil {
		return nil, fmt.Errorf("catalog: location page: %w", err)
	}
	defer rows.Close()

	return scanLocations(rows)
}

// CountLocations returns the total number of Location rows for a
// measurement.
func (s *Store) CountLocations(ctx context.Context, measurementID int64) (int64, error) {
	var n int64

	if err := s.locationStmts.countByMeasurement.QueryRowContext(ctx, measurementID).Scan(&n); err != nil {
		return 0, fmt.Errorf("catalog: count locations: %w", err)
	}

	return n, nil
}

func scanLocations(rows *sql.Rows) ([]Location, error) {
	var out []Location

	for rows.Next() {
		var l Location

		var altitude, accuracy, verticalAccuracy sql.NullFloat64

		if err := rows.Scan(&l.ID, &l.MeasurementID, &l.Timestamp, &l.Lat, &l.Lon, &altitude, &l.Speed, &accuracy, &verticalAccuracy); err != nil {
			return nil, fmt.Errorf("catalog: scan location: %w", err)
		}

		l.Altitude = fromNullFloat(altitude)
		l.Accuracy = fromNullFloat(accuracy)
		l.VerticalAccuracy = fromNullFloat(verticalAccuracy)

		out = append(out, l)
	}

	return out, rows.Err()
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}

	return *v
}

func fromNullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}

	f := v.Float64

	return &f
}
