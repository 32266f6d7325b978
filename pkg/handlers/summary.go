package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ichooserx/rxsync-engine/pkg/export"
	"github.com/ichooserx/rxsync-engine/pkg/services"
)

// SummaryHandler exposes the drug summary read-path.
type SummaryHandler struct {
	summaries services.SummaryService
	logger    *zap.Logger
}

// NewSummaryHandler creates a new SummaryHandler.
func NewSummaryHandler(summaries services.SummaryService, logger *zap.Logger) *SummaryHandler {
	return &SummaryHandler{summaries: summaries, logger: logger}
}

// RegisterRoutes registers the summary handler's routes on the given mux.
func (h *SummaryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/generate_summary", h.GenerateSummary)
}

type summaryRequest struct {
	DrugNames []string `json:"drug_names"`
	Filters   []string `json:"filters"`
}

// GenerateSummary handles POST /generate_summary. The JSON body names the
// drugs and optional filters; ?format=xlsx streams the tabular view as a
// workbook instead of returning JSON.
func (h *SummaryHandler) GenerateSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		_ = ErrorResponse(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	var req summaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if len(req.DrugNames) == 0 {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "drug_names must be provided")
		return
	}

	result, err := h.summaries.BuildSummary(r.Context(), req.DrugNames, req.Filters)
	if err != nil {
		h.logger.Error("Failed to build summary", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "summary_failed", err.Error())
		return
	}

	if r.URL.Query().Get("format") == "xlsx" {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="drug_summary.xlsx"`)
		if err := export.WriteXLSXTo(w, result.TableData); err != nil {
			h.logger.Error("Failed to stream workbook", zap.Error(err))
		}
		return
	}

	_ = WriteJSON(w, http.StatusOK, result)
}
