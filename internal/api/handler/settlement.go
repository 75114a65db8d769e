// internal/api/handler/settlement.go
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"parkledger/internal/service"
	"parkledger/internal/util"
)

// SettlementHandler handles settlement requests from the session-closing
// workflow.
type SettlementHandler struct {
	service service.SettlementService
	logger  *slog.Logger
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(svc service.SettlementService, logger *slog.Logger) *SettlementHandler {
	return &SettlementHandler{service: svc, logger: logger}
}

// Settle settles a closed parking session.
// POST /sessions/{sessionID}/settle
//
// Business-level settlement failures (insufficient balance, missing rule)
// still return 200 with status SETTLEMENT_FAILED and a reason, because the
// settlement attempt itself completed and its outcome was recorded. Only
// requests that could not run at all map to error statuses.
func (h *SettlementHandler) Settle(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	result, err := h.service.Settle(r.Context(), sessionID)
	if result != nil {
		respondWithJSON(w, h.logger, http.StatusOK, result)
		return
	}
	respondWithError(w, h.logger, err)
}
