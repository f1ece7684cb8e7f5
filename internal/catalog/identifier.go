package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const (
	sqlGetIdentifier    = `SELECT device_uuid FROM identifier WHERE id = 1`
	sqlInsertIdentifier = `INSERT INTO identifier (id, device_uuid) VALUES (1, ?)`
)

// RestoreOrCreateDeviceID returns the installation's 128-bit device
// identifier, creating and persisting one on first call. The identifier
// is never rotated (spec.md §3).
func (s *Store) RestoreOrCreateDeviceID(ctx context.Context) (uuid.UUID, error) {
	var raw string

	err := s.identifierStmts.get.QueryRowContext(ctx).Scan(&raw)
	if err == nil {
		id, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			return uuid.UUID{}, fmt.Errorf("catalog: parse stored device id: %w", parseErr)
		}

		return id, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return uuid.UUID{}, fmt.Errorf("catalog: read device id: %w", err)
	}

	id := uuid.New()

	if _, err := s.identifierStmts.insert.ExecContext(ctx, id.String()); err != nil {
		return uuid.UUID{}, fmt.Errorf("catalog: persist new device id: %w", err)
	}

	s.logger.Info("generated device identifier")

	return id, nil
}
