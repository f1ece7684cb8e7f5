package pointfile

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FileRef identifies one open append-only point file.
type FileRef struct {
	mid  int64
	typ  SampleType
	path string

	mu sync.Mutex
	f  *os.File
}

// Store owns the three point files for every measurement, laid out under
// root as <root>/<dir>/<mid>.<ext> (spec.md §6).
type Store struct {
	root   string
	logger *slog.Logger
}

// NewStore creates a Store rooted at root, creating the per-type
// subdirectories if they do not exist.
func NewStore(root string, logger *slog.Logger) (*Store, error) {
	for _, dir := range directory {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("pointfile: create directory %s: %w", dir, err)
		}
	}

	return &Store{root: root, logger: logger}, nil
}

func (s *Store) path(mid int64, typ SampleType) string {
	return filepath.Join(s.root, directory[typ], fmt.Sprintf("%d.%s", mid, extension[typ]))
}

// Create opens (creating if absent) the point file for (mid, typ). If the
// file already exists — the common case after a pause/resume cycle — it
// is opened for append without truncation, which is intentional: resume
// must not lose samples captured before the pause (spec.md §4.1).
func (s *Store) Create(mid int64, typ SampleType) (*FileRef, error) {
	path := s.path(mid, typ)

	_, statErr := os.Stat(path)
	existed := statErr == nil

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("pointfile: open %s: %w", path, err)
	}

	if !existed {
		var header [2]byte
		binary.BigEndian.PutUint16(header[:], FormatVersion)

		if _, err := f.Write(header[:]); err != nil {
			f.Close()
			return nil, fmt.Errorf("pointfile: write header %s: %w", path, err)
		}

		if err := f.Sync(); err != nil {
			f.Close()
			return nil, fmt.Errorf("pointfile: sync header %s: %w", path, err)
		}

		s.logger.Info("point file created", "path", path, "type", typ)
	} else {
		s.logger.Info("point file reopened for resume", "path", path, "type", typ)
	}

	return &FileRef{mid: mid, typ: typ, path: path, f: f}, nil
}

// Append writes one self-contained batch record and flushes it to disk
// before returning, per spec.md §4.1 ("guarantees flush before returning
// success"). A write failure here is fatal to this call only — it never
// corrupts previously appended batches, since each batch is independently
// length-prefixed.
func (r *FileRef) Append(samples []Point3D) error {
	record, err := EncodeBatch(samples, r.typ)
	if err != nil {
		return fmt.Errorf("pointfile: encode batch for %s: %w", r.path, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.f.Write(record); err != nil {
		return fmt.Errorf("pointfile: append %s: %w", r.path, err)
	}

	if err := r.f.Sync(); err != nil {
		return fmt.Errorf("pointfile: sync %s: %w", r.path, err)
	}

	return nil
}

// Close releases the underlying file handle.
func (r *FileRef) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.f.Close()
}

// Path returns the file's on-disk path.
func (r *FileRef) Path() string { return r.path }

// LoadBytes reads an entire point file into memory. Used only by the
// transfer serializer, which copies the bytes verbatim into the outer
// payload without re-parsing them (spec.md §4.1, §4.7).
func (s *Store) LoadBytes(mid int64, typ SampleType) ([]byte, error) {
	path := s.path(mid, typ)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("pointfile: load %s: %w", path, err)
	}

	return data, nil
}

// Delete removes all three point files for a measurement. A missing file
// is not an error (spec.md §4.1).
func (s *Store) Delete(mid int64) error {
	for typ := range directory {
		path := s.path(mid, typ)

		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("pointfile: delete %s: %w", path, err)
		}
	}

	return nil
}
