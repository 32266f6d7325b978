package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ichooserx/rxsync-engine/pkg/apperrors"
	"github.com/ichooserx/rxsync-engine/pkg/models"
)

type fakeIngestor struct {
	report      *models.IngestReport
	err         error
	gotPath     string
	gotOwnerKey string
}

func (f *fakeIngestor) IngestFile(_ context.Context, path string) (*models.IngestReport, error) {
	f.gotPath = path
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

func (f *fakeIngestor) IngestFileForOwner(_ context.Context, path, ownerKey string) (*models.IngestReport, error) {
	f.gotPath = path
	f.gotOwnerKey = ownerKey
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

func multipartUpload(t *testing.T, filename, contents string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(contents))
	require.NoError(t, err)

	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func TestUpload(t *testing.T) {
	dir := t.TempDir()
	ingest := &fakeIngestor{report: &models.IngestReport{Pharmacy: "Corner Rx", Rows: 2, Inserted: 2}}
	handler := NewUploadHandler(dir, ingest, zap.NewNop())

	body, contentType := multipartUpload(t, "drop.csv", "Pharmacy,NDC\nCorner Rx,111\nCorner Rx,222\n", nil)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Upload(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, filepath.Join(dir, "drop.csv"), ingest.gotPath)

	// The drop was persisted into the watched directory.
	saved, err := os.ReadFile(filepath.Join(dir, "drop.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(saved), "Corner Rx,111")

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["message"], "drop.csv")
}

func TestUploadWithOwnerKey(t *testing.T) {
	ingest := &fakeIngestor{report: &models.IngestReport{}}
	handler := NewUploadHandler(t.TempDir(), ingest, zap.NewNop())

	body, contentType := multipartUpload(t, "drop.csv", "NDC\n111\n", map[string]string{"owner_key": "owner-1"})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Upload(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "owner-1", ingest.gotOwnerKey)
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	ingest := &fakeIngestor{}
	handler := NewUploadHandler(t.TempDir(), ingest, zap.NewNop())

	body, contentType := multipartUpload(t, "drop.txt", "not a table", nil)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Upload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, ingest.gotPath)
}

func TestUploadStripsPathFromFilename(t *testing.T) {
	dir := t.TempDir()
	ingest := &fakeIngestor{report: &models.IngestReport{}}
	handler := NewUploadHandler(dir, ingest, zap.NewNop())

	body, contentType := multipartUpload(t, "../../etc/evil.csv", "NDC\n111\n", nil)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Upload(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, filepath.Join(dir, "evil.csv"), ingest.gotPath)
}

func TestUploadRequiresFile(t *testing.T) {
	handler := NewUploadHandler(t.TempDir(), &fakeIngestor{}, zap.NewNop())

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("owner_key", "owner-1"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()

	handler.Upload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadMethodNotAllowed(t *testing.T) {
	handler := NewUploadHandler(t.TempDir(), &fakeIngestor{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/upload", nil)
	rec := httptest.NewRecorder()

	handler.Upload(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestUploadIngestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unresolvable pharmacy", apperrors.ErrPharmacyUnresolvable, http.StatusUnprocessableEntity},
		{"no associated pharmacy", apperrors.ErrNoAssociatedPharmacy, http.StatusUnprocessableEntity},
		{"debounced duplicate", apperrors.ErrDebounced, http.StatusAccepted},
		{"unsupported format", apperrors.ErrUnsupportedFormat, http.StatusBadRequest},
		{"store failure", errors.New("connection lost"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ingest := &fakeIngestor{err: tt.err}
			handler := NewUploadHandler(t.TempDir(), ingest, zap.NewNop())

			body, contentType := multipartUpload(t, "drop.csv", "NDC\n111\n", nil)
			req := httptest.NewRequest(http.MethodPost, "/upload", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()

			handler.Upload(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
