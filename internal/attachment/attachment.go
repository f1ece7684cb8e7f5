// Package attachment implements the attachment store (C8): tracking
// opaque files (logs, images) linked to a measurement with a lifecycle
// independent of the measurement's own status (spec.md §4.8). The core
// never interprets attachment bytes — the transfer serializer forwards
// them unchanged.
package attachment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/text/unicode/norm"

	"github.com/trailcapture/core/internal/catalog"
)

// Store wraps the catalog's attachment rows with filesystem placement: it
// normalizes file names before they touch disk and exposes the create /
// update_status / delete_by_measurement / list_by_measurement_and_status
// contract of spec.md §4.8.
type Store struct {
	cat  *catalog.Store
	root string
}

// New creates a Store rooted at dir, where attachment files are copied on
// Create.
func New(cat *catalog.Store, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("attachment: create root %s: %w", dir, err)
	}

	return &Store{cat: cat, root: dir}, nil
}

// NormalizeFileName returns the NFC-normalized form of name — the same
// concern the teacher's sync scanner uses x/text/unicode/norm for, applied
// here so two byte-different-but-visually-identical names (NFC vs NFD)
// never produce two files on disk for what the host considers one
// attachment.
func NormalizeFileName(name string) string {
	return norm.NFC.String(name)
}

// Create copies sourcePath into the attachment root under a normalized
// name, inserts the catalog row, and returns the stored Attachment.
func (s *Store) Create(ctx context.Context, mid int64, timestamp int64, typ catalog.AttachmentType, fileFormatVersion int32, sourcePath string, lat, lon *float64, locationTimestamp *int64) (*catalog.Attachment, error) {
	name := NormalizeFileName(filepath.Base(sourcePath))
	destPath := filepath.Join(s.root, fmt.Sprintf("%d-%s", mid, name))

	size, err := copyFile(sourcePath, destPath)
	if err != nil {
		return nil, fmt.Errorf("attachment: copying %s: %w", sourcePath, err)
	}

	a := catalog.Attachment{
		MeasurementID:     mid,
		Timestamp:         timestamp,
		Status:            catalog.AttachmentSaved,
		Type:              typ,
		FileFormatVersion: fileFormatVersion,
		Size:              size,
		Path:              destPath,
		Lat:               lat,
		Lon:               lon,
		LocationTimestamp: locationTimestamp,
	}

	return s.cat.InsertAttachment(ctx, a)
}

// UpdateStatus transitions an attachment's independent upload lifecycle.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status catalog.AttachmentStatus) error {
	return s.cat.UpdateAttachmentStatus(ctx, id, status)
}

// DeleteByMeasurement removes every attachment row for a measurement,
// and the files of those rows still in AttachmentSaved status; files of
// attachments in any other status are left on disk.
func (s *Store) DeleteByMeasurement(ctx context.Context, mid int64) error {
	attachments, err := s.cat.ListAttachmentsByMeasurementAndStatus(ctx, mid, catalog.AttachmentSaved)
	if err != nil {
		return fmt.Errorf("attachment: listing for delete: %w", err)
	}

	for _, a := range attachments {
		if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("attachment: removing file %s: %w", a.Path, err)
		}
	}

	return s.cat.DeleteAttachmentsByMeasurement(ctx, mid)
}

// ListByMeasurementAndStatus returns attachments for a measurement
// filtered to one status.
func (s *Store) ListByMeasurementAndStatus(ctx context.Context, mid int64, status catalog.AttachmentStatus) ([]catalog.Attachment, error) {
	return s.cat.ListAttachmentsByMeasurementAndStatus(ctx, mid, status)
}

// Get loads a single attachment by id.
func (s *Store) Get(ctx context.Context, id int64) (*catalog.Attachment, error) {
	return s.cat.GetAttachment(ctx, id)
}

func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	n, err := out.ReadFrom(in)
	if err != nil {
		return 0, err
	}

	return n, out.Sync()
}
