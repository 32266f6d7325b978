// Package watcher turns filesystem events in the drop directory into
// ingestion runs.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ichooserx/rxsync-engine/pkg/apperrors"
	"github.com/ichooserx/rxsync-engine/pkg/models"
	"github.com/ichooserx/rxsync-engine/pkg/tabular"
)

// Ingestor is the slice of the ingestion service the watcher drives.
type Ingestor interface {
	IngestFile(ctx context.Context, path string) (*models.IngestReport, error)
}

// Watcher delivers create/write events for supported files under one
// directory to the ingestor, serially. A failed file never stops the loop.
type Watcher struct {
	dir    string
	ingest Ingestor
	logger *zap.Logger
}

// New creates a Watcher over dir, creating the directory when missing.
func New(dir string, ingest Ingestor, logger *zap.Logger) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create watch directory %s: %w", dir, err)
	}
	return &Watcher{dir: dir, ingest: ingest, logger: logger}, nil
}

// Run watches until ctx is cancelled. Events arrive serially; no two files
// are processed concurrently.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("Watching directory", zap.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Watcher stopping")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !tabular.IsSupported(event.Name) {
				continue
			}
			w.handle(ctx, event.Name)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, path string) {
	w.logger.Info("Detected file update", zap.String("path", path))

	if _, err := w.ingest.IngestFile(ctx, path); err != nil {
		if errors.Is(err, apperrors.ErrDebounced) {
			w.logger.Debug("Ignored duplicate trigger", zap.String("path", path))
			return
		}
		// File-level aborts are logged and swallowed so the watch loop keeps
		// accepting subsequent events.
		w.logger.Error("Ingestion failed", zap.String("path", path), zap.Error(err))
	}
}
