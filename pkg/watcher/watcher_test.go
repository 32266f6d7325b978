package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ichooserx/rxsync-engine/pkg/apperrors"
	"github.com/ichooserx/rxsync-engine/pkg/models"
)

type recordingIngestor struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (r *recordingIngestor) IngestFile(_ context.Context, path string) (*models.IngestReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	return &models.IngestReport{}, r.err
}

func (r *recordingIngestor) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 5*time.Second, 10*time.Millisecond)
}

func TestNewCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "drops")

	_, err := New(dir, &recordingIngestor{}, zap.NewNop())
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestRunIngestsDroppedFiles(t *testing.T) {
	dir := t.TempDir()
	ingest := &recordingIngestor{}
	w, err := New(dir, ingest, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher a moment to register before dropping the file.
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "drop.csv")
	require.NoError(t, os.WriteFile(path, []byte("NDC\n111\n"), 0o644))

	waitFor(t, func() bool {
		for _, p := range ingest.seen() {
			if p == path {
				return true
			}
		}
		return false
	})

	cancel()
	require.NoError(t, <-done)
}

func TestRunIgnoresUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	ingest := &recordingIngestor{}
	w, err := New(dir, ingest, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644))
	csvPath := filepath.Join(dir, "real.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("NDC\n111\n"), 0o644))

	waitFor(t, func() bool { return len(ingest.seen()) > 0 })

	cancel()
	require.NoError(t, <-done)

	for _, p := range ingest.seen() {
		assert.Equal(t, csvPath, p)
	}
}

func TestRunSurvivesIngestErrors(t *testing.T) {
	dir := t.TempDir()
	ingest := &recordingIngestor{err: errors.New("boom")}
	w, err := New(dir, ingest, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "first.csv"), []byte("NDC\n1\n"), 0o644))
	waitFor(t, func() bool { return len(ingest.seen()) >= 1 })

	// The loop keeps accepting events after a failed file.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "second.csv"), []byte("NDC\n2\n"), 0o644))
	waitFor(t, func() bool {
		for _, p := range ingest.seen() {
			if filepath.Base(p) == "second.csv" {
				return true
			}
		}
		return false
	})

	cancel()
	require.NoError(t, <-done)
}

func TestRunSwallowsDebounced(t *testing.T) {
	dir := t.TempDir()
	ingest := &recordingIngestor{err: apperrors.ErrDebounced}
	w, err := New(dir, ingest, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "dup.csv"), []byte("NDC\n1\n"), 0o644))
	waitFor(t, func() bool { return len(ingest.seen()) >= 1 })

	cancel()
	require.NoError(t, <-done)
}
