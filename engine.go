// Package telemetry is the public API facade (spec.md §6): the single
// entry point a host application embeds to drive the capture lifecycle,
// read back measurements and tracks, and produce transfer payloads. It
// wires together the catalog, point files, lifecycle coordinator, track
// assembler, distance accumulator, attachment store and transfer
// serializer; callers never touch those packages directly.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/trailcapture/core/internal/attachment"
	"github.com/trailcapture/core/internal/capture"
	"github.com/trailcapture/core/internal/catalog"
	"github.com/trailcapture/core/internal/config"
	"github.com/trailcapture/core/internal/distance"
	"github.com/trailcapture/core/internal/lifecycle"
	"github.com/trailcapture/core/internal/pointfile"
	"github.com/trailcapture/core/internal/transfer"
)

// Engine owns every store the core needs and is safe for concurrent use
// by one ingest goroutine pair and any number of readers, matching the
// concurrency model of spec.md §5.
type Engine struct {
	cfg    *config.Config
	logger *slog.Logger

	catalog      *catalog.Store
	points       *pointfile.Store
	attachments  *attachment.Store
	serializer   *transfer.Serializer
	coordinator  *lifecycle.Coordinator
	activeAccum  *distance.Accumulator
	activeSess   *capture.Session
	activeListen capture.Listener

	reconcileCancel context.CancelFunc
	reconcileDone   chan struct{}
}

// New opens every store under cfg's configured directories and starts a
// capture pipeline for whichever measurement is currently OPEN or PAUSED,
// if any.
func New(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	cat, err := catalog.NewStore(cfg.Storage.DataDir+"/catalog.db", logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry: opening catalog: %w", err)
	}

	points, err := pointfile.NewStore(cfg.Storage.DataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry: opening point files: %w", err)
	}

	attach, err := attachment.New(cat, cfg.Storage.DataDir+"/attachments")
	if err != nil {
		return nil, fmt.Errorf("telemetry: opening attachment store: %w", err)
	}

	ser, err := transfer.New(cat, points, attach, cfg.Storage.CacheDir, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry: opening transfer serializer: %w", err)
	}

	coord := lifecycle.New(cat, points, func() int64 { return time.Now().UnixMilli() }, logger)

	e := &Engine{
		cfg:         cfg,
		logger:      logger,
		catalog:     cat,
		points:      points,
		attachments: attach,
		serializer:  ser,
		coordinator: coord,
	}

	if err := e.resumeActiveSession(context.Background()); err != nil {
		return nil, err
	}

	e.startReconciler()

	return e, nil
}

// startReconciler runs the attachment directory watcher for the lifetime of
// the Engine, so files dropped on disk without a Create call still become
// catalog rows (spec.md §4.8 supplemented reconciliation behavior).
func (e *Engine) startReconciler() {
	ctx, cancel := context.WithCancel(context.Background())
	e.reconcileCancel = cancel
	e.reconcileDone = make(chan struct{})

	rec := attachment.NewReconciler(e.attachments, e.logger)

	go func() {
		defer close(e.reconcileDone)

		if err := rec.Watch(ctx); err != nil {
			e.logger.Warn("attachment reconciler stopped", "error", err)
		}
	}()
}

// resumeActiveSession re-attaches a capture pipeline to whatever
// measurement was OPEN or PAUSED when the process last exited — restart
// re-opens the measurement in its last persisted status, per spec.md §5's
// crash-recovery guarantee.
func (e *Engine) resumeActiveSession(ctx context.Context) error {
	m, err := e.catalog.CurrentActiveMeasurement(ctx)
	if err != nil {
		if err == catalog.ErrNoSuchMeasurement {
			return nil
		}

		return fmt.Errorf("telemetry: checking for active measurement: %w", err)
	}

	return e.startSession(m)
}

func (e *Engine) startSession(m *catalog.Measurement) error {
	acc := distance.New(nil)
	e.coordinator.RegisterDistanceAccumulator(m.ID, acc)

	sess, err := capture.NewSession(
		m.ID, e.catalog, e.points, acc, e.cfg.Capture, e.logger, e.activeListen,
		func() bool { return e.isOpen(m.ID) }, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("telemetry: starting capture session: %w", err)
	}

	sess.Start(context.Background())

	e.activeAccum = acc
	e.activeSess = sess

	return nil
}

func (e *Engine) isOpen(mid int64) bool {
	m, err := e.catalog.GetMeasurement(context.Background(), mid)
	if err != nil {
		return false
	}

	return m.Status == catalog.StatusOpen
}

// SetListener installs the callback invoked on every accepted location
// fix and fix-lost transition (spec.md §4.3 step 3). It takes effect on
// the currently running session, if any, and on every session started
// afterwards.
func (e *Engine) SetListener(l capture.Listener) {
	e.activeListen = l

	if e.activeSess != nil {
		e.activeSess.SetListener(l)
	}
}

// Close flushes and releases every resource the Engine owns. Call during
// an orderly shutdown; a crash is handled instead by resumeActiveSession
// on the next New.
func (e *Engine) Close() error {
	if e.activeSess != nil {
		if err := e.activeSess.Stop(); err != nil {
			e.logger.Warn("error stopping active capture session on close", "error", err)
		}
	}

	if e.reconcileCancel != nil {
		e.reconcileCancel()
		<-e.reconcileDone
	}

	return e.catalog.Close()
}

// RestoreOrCreateDeviceID returns this installation's device identifier
// (spec.md §3), creating one on first call.
func (e *Engine) RestoreOrCreateDeviceID(ctx context.Context) (uuid.UUID, error) {
	return e.catalog.RestoreOrCreateDeviceID(ctx)
}
