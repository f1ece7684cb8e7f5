package attachment

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/trailcapture/core/internal/catalog"
)

// FsWatcher abstracts filesystem event monitoring, satisfied by
// *fsnotify.Watcher. Tests inject a fake to drive the reconciler without
// touching a real filesystem.
type FsWatcher interface {
	Add(name string) error
	Close() error
	Events() <-chan fsnotify.Event
	Errors() <-chan error
}

type fsnotifyWrapper struct {
	w *fsnotify.Watcher
}

func (fw *fsnotifyWrapper) Add(name string) error         { return fw.w.Add(name) }
func (fw *fsnotifyWrapper) Close() error                  { return fw.w.Close() }
func (fw *fsnotifyWrapper) Events() <-chan fsnotify.Event { return fw.w.Events }
func (fw *fsnotifyWrapper) Errors() <-chan error          { return fw.w.Errors }

// Reconciler watches the attachment root for files that appear without a
// corresponding Store.Create call — a crash log the OS wrote directly, or a
// file a background process dropped in. Every such file is inserted, under
// its path as found, as a catalog row with AttachmentStatus AttachmentSaved, mirroring
// what Create would have done.
type Reconciler struct {
	store          *Store
	logger         *slog.Logger
	watcherFactory func() (FsWatcher, error)
	dropped        atomic.Int64
}

// NewReconciler creates a Reconciler over store's root directory.
func NewReconciler(store *Store, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		store:  store,
		logger: logger,
		watcherFactory: func() (FsWatcher, error) {
			w, err := fsnotify.NewWatcher()
			if err != nil {
				return nil, err
			}

			return &fsnotifyWrapper{w: w}, nil
		},
	}
}

// Dropped reports how many created files could not be reconciled because
// inserting their catalog row failed.
func (r *Reconciler) Dropped() int64 {
	return r.dropped.Load()
}

// Watch adds a watch on the attachment root and reconciles every created
// file into the catalog until ctx is canceled.
func (r *Reconciler) Watch(ctx context.Context) error {
	watcher, err := r.watcherFactory()
	if err != nil {
		return fmt.Errorf("attachment: creating filesystem watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(r.store.root); err != nil {
		return fmt.Errorf("attachment: watching %s: %w", r.store.root, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events():
			if !ok {
				return nil
			}

			r.handle(ctx, ev)

		case err, ok := <-watcher.Errors():
			if !ok {
				return nil
			}

			r.logger.Warn("attachment watcher error", "error", err)
		}
	}
}

func (r *Reconciler) handle(ctx context.Context, ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) {
		return
	}

	info, err := os.Stat(ev.Name)
	if err != nil || info.IsDir() {
		return
	}

	mid, ok := measurementIDFromReconciledName(filepath.Base(ev.Name))
	if !ok {
		r.logger.Debug("ignoring attachment file with no measurement prefix", "path", ev.Name)
		return
	}

	a := catalog.Attachment{
		MeasurementID: mid,
		Status:        catalog.AttachmentSaved,
		Type:          attachmentTypeFromExtension(ev.Name),
		Size:          info.Size(),
		Path:          ev.Name,
	}

	if _, err := r.store.cat.InsertAttachment(ctx, a); err != nil {
		r.dropped.Add(1)
		r.logger.Warn("failed to reconcile attachment file", "path", ev.Name, "error", err)
	}
}

// attachmentTypeFromExtension guesses an Attachment's type from a
// reconciled file's extension, falling back to AttachmentJSON for anything
// unrecognized since structured logs are the common unsolicited drop.
func attachmentTypeFromExtension(path string) catalog.AttachmentType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return catalog.AttachmentCSV
	case ".jpg", ".jpeg":
		return catalog.AttachmentJPG
	default:
		return catalog.AttachmentJSON
	}
}

// measurementIDFromReconciledName parses the "<measurementID>-<name>" prefix
// that Store.Create writes, so a reconciled file dropped alongside
// host-created ones does not get double-counted for the wrong measurement.
func measurementIDFromReconciledName(base string) (int64, bool) {
	idx := strings.IndexByte(base, '-')
	if idx <= 0 {
		return 0, false
	}

	mid, err := strconv.ParseInt(base[:idx], 10, 64)
	if err != nil {
		return 0, false
	}

	return mid, true
}
