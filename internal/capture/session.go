package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/trailcapture/core/internal/catalog"
	"github.com/trailcapture/core/internal/config"
	"github.com/trailcapture/core/internal/distance"
	"github.com/trailcapture/core/internal/pointfile"
)

const jobQueueDepth = 16

var sampleTypes = []pointfile.SampleType{
	pointfile.SampleAcceleration,
	pointfile.SampleRotation,
	pointfile.SampleDirection,
}

// sensorJob is one completed sensor batch awaiting the single persistence
// worker; locationJob carries one accepted location fix.
type sensorJob struct {
	typ     pointfile.SampleType
	samples []pointfile.Point3D
}

type locationJob struct {
	fix RawLocationFix
}

type pressureJob struct {
	timestampMs int64
	hPa         float64
}

// Session owns one active measurement's capture pipeline: the two ingest
// tasks (sensor, location) and the single persistence worker serializing
// all writes for that measurement (spec.md §5).
type Session struct {
	mid    int64
	cat    *catalog.Store
	points *pointfile.Store
	acc    *distance.Accumulator
	cfg    config.CaptureConfig
	logger *slog.Logger

	listenerMu sync.RWMutex
	listener   Listener

	files map[pointfile.SampleType]*pointfile.FileRef
	sems  map[pointfile.SampleType]*semaphore.Weighted

	batchMaxWindow       time.Duration
	locationFixLostAfter time.Duration
	startupTimeMs        int64
	rolloverOffsetMs     int64
	retryAttempts        uint64
	retryBackoff         time.Duration

	now func() time.Time

	statusOpen func() bool

	sensorJobs   chan sensorJob
	locationJobs chan locationJob
	pressureJobs chan pressureJob

	lastFixAtMs   int64
	fixLost       bool
	totalDistance float64

	g      *errgroup.Group
	cancel context.CancelFunc
}

// StatusFunc reports whether the owning measurement is currently OPEN, used
// to decide whether an accepted fix updates the distance accumulator
// (spec.md §4.3 step 2).
type StatusFunc func() bool

// NewSession opens the three point files for mid and prepares (but does not
// start) a capture session. startupTimeMs anchors cached-fix rejection.
func NewSession(
	mid int64,
	cat *catalog.Store,
	points *pointfile.Store,
	acc *distance.Accumulator,
	cfg config.CaptureConfig,
	logger *slog.Logger,
	listener Listener,
	statusOpen StatusFunc,
	startupTimeMs int64,
) (*Session, error) {
	if listener == nil {
		listener = NopListener{}
	}

	batchWindow, err := time.ParseDuration(cfg.BatchMaxWindow)
	if err != nil {
		return nil, fmt.Errorf("capture: invalid batch_max_window: %w", err)
	}

	fixLostAfter, err := time.ParseDuration(cfg.LocationFixLostAfter)
	if err != nil {
		return nil, fmt.Errorf("capture: invalid location_fix_lost_after: %w", err)
	}

	retryBackoff, err := time.ParseDuration(cfg.AppendRetryBackoff)
	if err != nil {
		return nil, fmt.Errorf("capture: invalid append_retry_backoff: %w", err)
	}

	m, err := cat.GetMeasurement(context.Background(), mid)
	if err != nil {
		return nil, fmt.Errorf("capture: loading measurement %d: %w", mid, err)
	}

	files := make(map[pointfile.SampleType]*pointfile.FileRef, len(sampleTypes))
	sems := make(map[pointfile.SampleType]*semaphore.Weighted, len(sampleTypes))

	for _, typ := range sampleTypes {
		ref, err := points.Create(mid, typ)
		if err != nil {
			return nil, fmt.Errorf("capture: opening point file for %s: %w", typ, err)
		}

		files[typ] = ref
		sems[typ] = semaphore.NewWeighted(1)
	}

	return &Session{
		mid:                  mid,
		cat:                  cat,
		points:               points,
		acc:                  acc,
		cfg:                  cfg,
		logger:               logger,
		listener:             listener,
		files:                files,
		sems:                 sems,
		batchMaxWindow:       batchWindow,
		locationFixLostAfter: fixLostAfter,
		startupTimeMs:        startupTimeMs,
		rolloverOffsetMs:     cfg.GPSWeekRolloverOffset,
		retryAttempts:        uint64(cfg.AppendRetryAttempts),
		retryBackoff:         retryBackoff,
		now:                  time.Now,
		statusOpen:           statusOpen,
		sensorJobs:           make(chan sensorJob, jobQueueDepth),
		locationJobs:         make(chan locationJob, jobQueueDepth),
		pressureJobs:         make(chan pressureJob, jobQueueDepth),
		totalDistance:        m.Distance,
	}, nil
}

// Start launches the persistence worker. Ingest is driven by calling
// IngestSensorBatch/IngestLocationFix directly — the "ingest task" in
// spec.md §5 is the caller's own single-threaded callback dispatch, which
// this session never blocks except at the bounded-channel handoff.
func (s *Session) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	g, gctx := errgroup.WithContext(ctx)
	s.g = g

	g.Go(func() error {
		return s.persistenceWorker(gctx)
	})
}

// IngestSensorBatch hands a completed batch of one sample type to the
// persistence worker, blocking until the previous append for that type has
// completed (spec.md §4.3: "at most one outstanding append per sample
// type; back-pressure is provided by serializing appends").
func (s *Session) IngestSensorBatch(ctx context.Context, typ pointfile.SampleType, samples []pointfile.Point3D) error {
	if len(samples) == 0 {
		return nil
	}

	if err := s.sems[typ].Acquire(ctx, 1); err != nil {
		return fmt.Errorf("capture: acquiring append slot for %s: %w", typ, err)
	}

	select {
	case s.sensorJobs <- sensorJob{typ: typ, samples: samples}:
		return nil
	case <-ctx.Done():
		s.sems[typ].Release(1)
		return ctx.Err()
	}
}

// IngestRawSensorBatch reconciles a batch of raw platform callbacks onto the
// wall-clock millisecond epoch before handing them to IngestSensorBatch.
// systemTimeMillis is the wall-clock time observed when the batch's
// callbacks fired; the offset it yields is computed once per batch and
// applied to every sample in it (spec.md §4.3 timestamp reconciliation).
func (s *Session) IngestRawSensorBatch(ctx context.Context, typ pointfile.SampleType, systemTimeMillis int64, samples []RawSensorSample) error {
	if len(samples) == 0 {
		return nil
	}

	offset := ComputeEventTimeOffset(systemTimeMillis, samples[0].EventTimeNanos)

	points := make([]pointfile.Point3D, len(samples))
	for i, raw := range samples {
		points[i] = pointfile.Point3D{
			Timestamp: ToWallClockMillis(raw.EventTimeNanos, offset),
			X:         raw.X,
			Y:         raw.Y,
			Z:         raw.Z,
		}
	}

	return s.IngestSensorBatch(ctx, typ, points)
}

// IngestPressureSample hands one barometric reading to the persistence
// worker for insertion as a Pressure row (spec.md §3, §6). Pressure has no
// point-file analog — it is low enough frequency to go straight to the
// relational store.
func (s *Session) IngestPressureSample(ctx context.Context, timestampMs int64, hPa float64) error {
	select {
	case s.pressureJobs <- pressureJob{timestampMs: timestampMs, hPa: hPa}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IngestLocationFix applies cached-fix rejection (spec.md §4.3) and, if
// accepted, hands the fix to the persistence worker. Rejected fixes are
// silently dropped, matching the idempotent cached-filter property of
// spec.md §8.
func (s *Session) IngestLocationFix(ctx context.Context, fix RawLocationFix) error {
	if IsCachedFix(fix.TimestampMs, s.startupTimeMs, s.rolloverOffsetMs) {
		s.logger.Debug("dropping cached location fix", "measurement_id", s.mid, "timestamp", fix.TimestampMs)
		return nil
	}

	select {
	case s.locationJobs <- locationJob{fix: fix}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NoteFixLost must be called periodically by the host's scheduling loop
// (e.g. on a timer tick) so the fix-lost transition can be emitted even
// when no new fix ever arrives to trigger it.
func (s *Session) NoteFixLost() {
	if s.lastFixAtMs == 0 || s.fixLost {
		return
	}

	if s.now().UnixMilli()-s.lastFixAtMs >= s.locationFixLostAfter.Milliseconds() {
		s.fixLost = true
		s.getListener().OnLocationFixLost()
	}
}

// SetListener swaps the callback used for subsequent fixes. Safe to call
// while the persistence worker is running; it takes effect on the next
// accepted fix or fix-lost check.
func (s *Session) SetListener(l Listener) {
	if l == nil {
		l = NopListener{}
	}

	s.listenerMu.Lock()
	s.listener = l
	s.listenerMu.Unlock()
}

func (s *Session) getListener() Listener {
	s.listenerMu.RLock()
	defer s.listenerMu.RUnlock()

	return s.listener
}

// Stop flushes all pending work and waits for the persistence worker to
// drain, then closes the point files. Callers must flush pending batches
// via Stop before the lifecycle coordinator emits LIFECYCLE_STOP
// (spec.md §5 cancellation policy).
func (s *Session) Stop() error {
	close(s.sensorJobs)
	close(s.locationJobs)
	close(s.pressureJobs)

	err := s.g.Wait()

	s.cancel()

	for _, ref := range s.files {
		if cerr := ref.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}

	return err
}

func (s *Session) persistenceWorker(ctx context.Context) error {
	sensorDone := s.sensorJobs == nil
	locationDone := s.locationJobs == nil
	pressureDone := s.pressureJobs == nil

	for !sensorDone || !locationDone || !pressureDone {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case job, ok := <-s.sensorJobs:
			if !ok {
				sensorDone = true
				s.sensorJobs = nil
				continue
			}

			s.writeSensorBatch(ctx, job)

		case job, ok := <-s.locationJobs:
			if !ok {
				locationDone = true
				s.locationJobs = nil
				continue
			}

			s.writeLocationFix(ctx, job)

		case job, ok := <-s.pressureJobs:
			if !ok {
				pressureDone = true
				s.pressureJobs = nil
				continue
			}

			s.writePressureSample(ctx, job)
		}
	}

	return nil
}

func (s *Session) writeSensorBatch(ctx context.Context, job sensorJob) {
	defer s.sems[job.typ].Release(1)

	err := s.retryable(ctx, func(ctx context.Context) error {
		return s.files[job.typ].Append(job.samples)
	})
	if err != nil {
		s.logger.Error("dropping sensor batch after exhausting retries",
			"measurement_id", s.mid, "type", job.typ, "samples", len(job.samples), "error", err)
	}
}

func (s *Session) writeLocationFix(ctx context.Context, job locationJob) {
	fix := job.fix

	var inserted *catalog.Location

	err := s.retryable(ctx, func(ctx context.Context) error {
		loc := catalog.Location{
			MeasurementID:    s.mid,
			Timestamp:        fix.TimestampMs,
			Lat:              fix.Lat,
			Lon:              fix.Lon,
			Altitude:         fix.Altitude,
			Speed:            fix.Speed,
			Accuracy:         fix.Accuracy,
			VerticalAccuracy: fix.VerticalAccuracy,
		}

		var err error

		inserted, err = s.cat.InsertLocation(ctx, loc)

		return err
	})
	if err != nil {
		s.logger.Error("dropping location fix after exhausting retries",
			"measurement_id", s.mid, "timestamp", fix.TimestampMs, "error", err)
		return
	}

	s.lastFixAtMs = fix.TimestampMs
	s.fixLost = false

	// Step 2 of spec.md §4.3's per-fix actions: update distance only while
	// OPEN, using the cumulative total (UpdateDistance sets an absolute
	// value, so the delta must be added here, not passed directly).
	if s.statusOpen() && s.acc != nil {
		delta := s.acc.Accept(distance.Point{Lat: fix.Lat, Lon: fix.Lon})
		s.totalDistance += delta

		if err := s.cat.UpdateDistance(ctx, s.mid, s.totalDistance); err != nil {
			s.logger.Error("updating distance failed", "measurement_id", s.mid, "error", err)
		}
	}

	s.getListener().OnLocationFix(*inserted)
}

func (s *Session) writePressureSample(ctx context.Context, job pressureJob) {
	err := s.retryable(ctx, func(ctx context.Context) error {
		_, err := s.cat.InsertPressure(ctx, catalog.Pressure{
			MeasurementID: s.mid,
			Timestamp:     job.timestampMs,
			Pressure:      job.hPa,
		})

		return err
	})
	if err != nil {
		s.logger.Error("dropping pressure sample after exhausting retries",
			"measurement_id", s.mid, "timestamp", job.timestampMs, "error", err)
	}
}

// retryable wraps fn with the bounded constant-backoff retry policy of
// spec.md's supplemented I/O-error handling: a transient write failure is
// retried rather than immediately dropping the sample, but capture must
// never stall indefinitely on a persistent fault (§7 propagation policy).
func (s *Session) retryable(ctx context.Context, fn func(context.Context) error) error {
	backoff := retry.WithMaxRetries(s.retryAttempts, retry.NewConstant(s.retryBackoff))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return retry.RetryableError(err)
		}

		return nil
	})
}
