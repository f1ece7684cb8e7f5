package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // pure-Go SQLite driver, registers as "sqlite"
)

// walJournalSizeLimit caps the WAL file at 64 MiB before a checkpoint is
// forced, bounding disk use for long-running capture sessions.
const walJournalSizeLimit = 67108864

// Store is the relational catalog (C2): a single writer, many readers,
// opened once and shared for the process lifetime. Every mutating method
// is safe to call from only one goroutine at a time — the persistence
// worker (spec.md §5) is the only intended caller of the write methods;
// reads may run concurrently from any goroutine.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	measurementStmts measurementStatements
	eventStmts       eventStatements
	locationStmts    locationStatements
	pressureStmts    pressureStatements
	attachmentStmts  attachmentStatements
	identifierStmts  identifierStatements
}

type measurementStatements struct {
	insert, getByID, updateStatus, updateDistance, updateFileFormatVersion,
	updateFilesSize, updateModality, listByStatus, listAll, currentActive, deleteByID *sql.Stmt
}

type eventStatements struct {
	insert, listByMeasurement, lastLifecycleTimestamp *sql.Stmt
}

type locationStatements struct {
	insert, page, listByMeasurement, countByMeasurement *sql.Stmt
}

type pressureStatements struct {
	insert, page, countByMeasurement *sql.Stmt
}

type attachmentStatements struct {
	insert, updateStatus, deleteByMeasurement, listByMeasurementAndStatus, getByID *sql.Stmt
}

type identifierStatements struct {
	get, insert *sql.Stmt
}

// NewStore opens (creating if absent) the SQLite database at dbPath,
// applies pending migrations, and prepares every repeated statement.
// Use ":memory:" for tests.
func NewStore(dbPath string, logger *slog.Logger) (*Store, error) {
	logger.Info("opening catalog database", "path", dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("catalog: open sqlite: %w", err)
	}

	// Single writer by design (spec.md §5): one physical connection avoids
	// SQLITE_BUSY from the pure-Go driver's internal pooling.
	db.SetMaxOpenConns(1)

	ctx := context.Background()

	if err := setPragmas(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, logger: logger}

	if err := s.prepareAllStatements(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: prepare statements: %w", err)
	}

	logger.Info("catalog database ready", "path", dbPath)

	return s, nil
}

// Close releases the underlying connection and all prepared statements.
func (s *Store) Close() error {
	return s.db.Close()
}

func setPragmas(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	pragmas := []struct {
		sql  string
		desc string
	}{
		{"PRAGMA journal_mode = WAL", "WAL mode"},
		{"PRAGMA synchronous = FULL", "synchronous FULL"},
		{"PRAGMA foreign_keys = ON", "foreign keys"},
		{fmt.Sprintf("PRAGMA journal_size_limit = %d", walJournalSizeLimit), "journal size limit"},
	}

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p.sql); err != nil {
			return fmt.Errorf("catalog: set pragma %s: %w", p.desc, err)
		}

		logger.Debug("pragma set", "pragma", p.desc)
	}

	return nil
}

func (s *Store) prepareAllStatements(ctx context.Context) error {
	type prep struct {
		dst **sql.Stmt
		sql string
	}

	stmts := []prep{
		{&s.measurementStmts.insert, sqlInsertMeasurement},
		{&s.measurementStmts.getByID, sqlGetMeasurementByID},
		{&s.measurementStmts.updateStatus, sqlUpdateMeasurementStatus},
		{&s.measurementStmts.updateDistance, sqlUpdateMeasurementDistance},
		{&s.measurementStmts.updateFileFormatVersion, sqlUpdateFileFormatVersion},
		{&s.measurementStmts.updateFilesSize, sqlUpdateFilesSize},
		{&s.measurementStmts.updateModality, sqlUpdateModality},
		{&s.measurementStmts.listByStatus, sqlListMeasurementsByStatus},
		{&s.measurementStmts.listAll, sqlListAllMeasurements},
		{&s.measurementStmts.currentActive, sqlCurrentActiveMeasurement},
		{&s.measurementStmts.deleteByID, sqlDeleteMeasurement},

		{&s.eventStmts.insert, sqlInsertEvent},
		{&s.eventStmts.listByMeasurement, sqlListEventsByMeasurement},
		{&s.eventStmts.lastLifecycleTimestamp, sqlLastLifecycleEventTimestamp},

		{&s.locationStmts.insert, sqlInsertLocation},
		{&s.locationStmts.page, sqlLocationPage},
		{&s.locationStmts.listByMeasurement, sqlListLocationsByMeasurement},
		{&s.locationStmts.countByMeasurement, sqlCountLocationsByMeasurement},

		{&s.pressureStmts.insert, sqlInsertPressure},
		{&s.pressureStmts.page, sqlPressurePage},
		{&s.pressureStmts.countByMeasurement, sqlCountPressuresByMeasurement},

		{&s.attachmentStmts.insert, sqlInsertAttachment},
		{&s.attachmentStmts.updateStatus, sqlUpdateAttachmentStatus},
		{&s.attachmentStmts.deleteByMeasurement, sqlDeleteAttachmentsByMeasurement},
		{&s.attachmentStmts.listByMeasurementAndStatus, sqlListAttachmentsByMeasurementAndStatus},
		{&s.attachmentStmts.getByID, sqlGetAttachmentByID},

		{&s.identifierStmts.get, sqlGetIdentifier},
		{&s.identifierStmts.insert, sqlInsertIdentifier},
	}

	for _, p := range stmts {
		stmt, err := s.db.PrepareContext(ctx, p.sql)
		if err != nil {
			return fmt.Errorf("prepare %q: %w", p.sql, err)
		}

		*p.dst = stmt
	}

	return nil
}
