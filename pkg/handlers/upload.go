package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ichooserx/rxsync-engine/pkg/apperrors"
	"github.com/ichooserx/rxsync-engine/pkg/models"
	"github.com/ichooserx/rxsync-engine/pkg/tabular"
)

// maxUploadBytes caps multipart parsing memory; larger files spill to disk.
const maxUploadBytes = 32 << 20

// UploadIngestor is the slice of the ingestion service the upload handler
// invokes after persisting a file.
type UploadIngestor interface {
	IngestFile(ctx context.Context, path string) (*models.IngestReport, error)
	IngestFileForOwner(ctx context.Context, path, ownerKey string) (*models.IngestReport, error)
}

// UploadHandler accepts inventory drops over HTTP, saves them into the
// watched directory and processes them immediately.
type UploadHandler struct {
	dir    string
	ingest UploadIngestor
	logger *zap.Logger
}

// NewUploadHandler creates a new UploadHandler saving into dir.
func NewUploadHandler(dir string, ingest UploadIngestor, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{dir: dir, ingest: ingest, logger: logger}
}

// RegisterRoutes registers the upload handler's routes on the given mux.
func (h *UploadHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/upload", h.Upload)
}

// Upload handles POST /upload multipart requests. The "file" part carries the
// drop; an optional "owner_key" field pins the pharmacy to the uploading
// account instead of deriving it from the data.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		_ = ErrorResponse(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "no_file", "no file uploaded")
		return
	}
	defer func() { _ = file.Close() }()

	if header.Filename == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "no_file", "no selected file")
		return
	}

	// Base() strips any path components a client smuggles into the filename.
	filename := filepath.Base(header.Filename)
	if !tabular.IsSupported(filename) {
		_ = ErrorResponse(w, http.StatusBadRequest, "unsupported_format",
			fmt.Sprintf("unsupported file extension on %q", filename))
		return
	}

	path := filepath.Join(h.dir, filename)
	if err := h.save(file, path); err != nil {
		h.logger.Error("Failed to persist upload", zap.String("path", path), zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "save_failed", "failed to save file")
		return
	}
	h.logger.Info("File received", zap.String("filename", filename))

	ownerKey := r.FormValue("owner_key")
	var report *models.IngestReport
	if ownerKey != "" {
		report, err = h.ingest.IngestFileForOwner(r.Context(), path, ownerKey)
	} else {
		report, err = h.ingest.IngestFile(r.Context(), path)
	}
	if err != nil {
		h.writeIngestError(w, filename, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("File %q uploaded and processed successfully.", filename),
		"report":  report,
	})
}

func (h *UploadHandler) save(src io.Reader, path string) error {
	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = dst.Close() }()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (h *UploadHandler) writeIngestError(w http.ResponseWriter, filename string, err error) {
	h.logger.Error("Failed to process upload", zap.String("filename", filename), zap.Error(err))

	switch {
	case errors.Is(err, apperrors.ErrUnsupportedFormat):
		_ = ErrorResponse(w, http.StatusBadRequest, "unsupported_format", err.Error())
	case errors.Is(err, apperrors.ErrPharmacyUnresolvable),
		errors.Is(err, apperrors.ErrNoAssociatedPharmacy):
		_ = ErrorResponse(w, http.StatusUnprocessableEntity, "pharmacy_unresolved", err.Error())
	case errors.Is(err, apperrors.ErrDebounced):
		// The save itself can fire the watcher; the duplicate is harmless.
		_ = WriteJSON(w, http.StatusAccepted, map[string]string{
			"message": fmt.Sprintf("File %q was already processed.", filename),
		})
	default:
		_ = ErrorResponse(w, http.StatusInternalServerError, "processing_failed",
			fmt.Sprintf("failed to process file: %v", err))
	}
}
