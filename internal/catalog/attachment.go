package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const (
	sqlInsertAttachment = `INSERT INTO attachment
		(measurement_id, timestamp, status, type, file_format_version, size, path, lat, lon, location_timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	sqlAttachmentColumns = `id, measurement_id, timestamp, status, type, file_format_version, size, path, lat, lon, location_timestamp`

	sqlUpdateAttachmentStatus = `UPDATE attachment SET status = ? WHERE id = ?`

	sqlDeleteAttachmentsByMeasurement = `DELETE FROM attachment WHERE measurement_id = ?`

	sqlListAttachmentsByMeasurementAndStatus = `SELECT ` + sqlAttachmentColumns + `
		FROM attachment WHERE measurement_id = ? AND status = ? ORDER BY timestamp`

	sqlGetAttachmentByID = `SELECT ` + sqlAttachmentColumns + ` FROM attachment WHERE id = ?`
)

// ErrNoSuchAttachment mirrors ErrNoSuchMeasurement for attachment lookups.
var ErrNoSuchAttachment = errors.New("catalog: no such attachment")

// InsertAttachment appends an Attachment row.
func (s *Store) InsertAttachment(ctx context.Context, a Attachment) (*Attachment, error) {
	res, err := s.attachmentStmts.insert.ExecContext(ctx, a.MeasurementID, a.Timestamp, a.Status, a.Type,
		a.FileFormatVersion, a.Size, a.Path, nullableFloat(a.Lat), nullableFloat(a.Lon), nullableInt(a.LocationTimestamp))
	if err != nil {
		return nil, fmt.Errorf("catalog: insert attachment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("catalog: read new attachment id: %w", err)
	}

	out := a
	out.ID = id

	return &out, nil
}

// GetAttachment loads a single attachment by id.
func (s *Store) GetAttachment(ctx context.Context, id int64) (*Attachment, error) {
	row := s.attachmentStmts.getByID.QueryRowContext(ctx, id)

	a, err := scanAttachment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSuchAttachment
	} else if err != nil {
		return nil, fmt.Errorf("catalog: get attachment %d: %w", id, err)
	}

	return a, nil
}

// UpdateAttachmentStatus transitions an attachment's upload status. The
// attachment lifecycle is independent of the owning measurement's status
// (spec.md §4.8); no transition table is enforced here.
func (s *Store) UpdateAttachmentStatus(ctx context.Context, id int64, status AttachmentStatus) error {
	res, err := s.attachmentStmts.updateStatus.ExecContext(ctx, status, id)
	if err != nil {
		return fmt.Errorf("catalog: update attachment status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("catalog: update attachment status rows affected: %w", err)
	}

	if n == 0 {
		return ErrNoSuchAttachment
	}

	return nil
}

// DeleteAttachmentsByMeasurement removes every attachment row for a
// measurement. Normally this happens implicitly via the measurement's
// cascading delete; exposed separately for the attachment store's
// independent delete_by_measurement contract (spec.md §4.8).
func (s *Store) DeleteAttachmentsByMeasurement(ctx context.Context, measurementID int64) error {
	if _, err := s.attachmentStmts.deleteByMeasurement.ExecContext(ctx, measurementID); err != nil {
		return fmt.Errorf("catalog: delete attachments by measurement: %w", err)
	}

	return nil
}

// ListAttachmentsByMeasurementAndStatus returns attachments for a
// measurement filtered to one status, ordered by timestamp.
func (s *Store) ListAttachmentsByMeasurementAndStatus(ctx context.Context, measurementID int64, status AttachmentStatus) ([]Attachment, error) {
	rows, err := s.attachmentStmts.listByMeasurementAndStatus.QueryContext(ctx, measurementID, status)
	if err != nil {
		return nil, fmt.Errorf("catalog: list attachments: %w", err)
	}
	defer rows.Close()

	var out []Attachment

	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog: scan attachment: %w", err)
		}

		out = append(out, *a)
	}

	return out, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttachment(row rowScanner) (*Attachment, error) {
	var a Attachment

	var lat, lon sql.NullFloat64

	var locationTimestamp sql.NullInt64

	if err := row.Scan(&a.ID, &a.MeasurementID, &a.Timestamp, &a.Status, &a.Type, &a.FileFormatVersion,
		&a.Size, &a.Path, &lat, &lon, &locationTimestamp); err != nil {
		return nil, err
	}

	a.Lat = fromNullFloat(lat)
	a.Lon = fromNullFloat(lon)

	if locationTimestamp.Valid {
		v := locationTimestamp.Int64
		a.LocationTimestamp = &v
	}

	return &a, nil
}

func nullableInt(v *int64) any {
	if v == nil {
		return nil
	}

	return *v
}
