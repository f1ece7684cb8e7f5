// Package transfer implements the transfer serializer (C7): it merges a
// measurement's relational rows and its raw point-file bytes into one
// versioned binary payload ready for upload, without ever re-parsing the
// sensor bytes it copies (spec.md §4.7).
package transfer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/trailcapture/core/internal/attachment"
	"github.com/trailcapture/core/internal/catalog"
	"github.com/trailcapture/core/internal/pointfile"
)

// FormatVersion is TRANSFER_FORMAT_VERSION from spec.md §4.7/§6, written
// as the first two bytes of every payload.
const FormatVersion uint16 = 3

const (
	compressedScratchPrefix = "compressedTransferFile"
	rawScratchPrefix        = "transferFile"
	scratchSuffix           = ".tmp"
)

// Serializer builds transfer payloads for measurements and attachments.
// It owns a scratch directory for temp files; callers are responsible for
// deleting the returned path once the upload completes (spec.md §6).
type Serializer struct {
	cat        *catalog.Store
	points     *pointfile.Store
	attach     *attachment.Store
	scratchDir string
	logger     *slog.Logger
}

// New creates a Serializer rooted at scratchDir, sweeping any stale temp
// files left behind by a prior crash mid-write (spec.md §4.7 failure
// semantics: "the partially written temp file is deleted").
func New(cat *catalog.Store, points *pointfile.Store, attach *attachment.Store, scratchDir string, logger *slog.Logger) (*Serializer, error) {
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return nil, fmt.Errorf("transfer: create scratch dir %s: %w", scratchDir, err)
	}

	s := &Serializer{cat: cat, points: points, attach: attach, scratchDir: scratchDir, logger: logger}

	if err := s.sweepScratch(); err != nil {
		return nil, err
	}

	return s, nil
}

// sweepScratch deletes leftover scratch files from a previous process that
// crashed mid-serialization. A stale file here is never valid — every
// serialization either completes and hands the path to the caller, or
// fails and removes its own temp file, so anything still present at
// startup predates an unclean shutdown.
func (s *Serializer) sweepScratch() error {
	entries, err := os.ReadDir(s.scratchDir)
	if err != nil {
		return fmt.Errorf("transfer: reading scratch dir: %w", err)
	}

	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, scratchSuffix) {
			continue
		}

		if !strings.HasPrefix(name, compressedScratchPrefix) && !strings.HasPrefix(name, rawScratchPrefix) {
			continue
		}

		path := filepath.Join(s.scratchDir, name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("transfer: removing stale scratch file %s: %w", path, err)
		}

		s.logger.Warn("removed stale transfer scratch file from unclean shutdown", "path", path)
	}

	return nil
}

func (s *Serializer) newScratchFile(prefix string) (*os.File, error) {
	return os.CreateTemp(s.scratchDir, prefix+"*"+scratchSuffix)
}
