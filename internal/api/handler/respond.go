// internal/api/handler/respond.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"parkledger/internal/util"
)

// DefaultTimeout bounds a single HTTP request end to end.
const DefaultTimeout = 30 * time.Second

// respondWithJSON sends a JSON response.
func respondWithJSON(w http.ResponseWriter, logger *slog.Logger, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithError maps service errors to HTTP status codes and sends a
// structured error body.
func respondWithError(w http.ResponseWriter, logger *slog.Logger, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case util.IsError(err, util.ErrInvalidInput), util.IsError(err, util.ErrInvalidInterval):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case util.IsError(err, util.ErrNotFound),
		util.IsError(err, util.ErrWalletNotFound),
		util.IsError(err, util.ErrSessionNotFound),
		util.IsError(err, util.ErrRuleNotFound),
		util.IsError(err, util.ErrNoDefaultRule):
		statusCode = http.StatusNotFound
		message = "Resource not found"
	case util.IsError(err, util.ErrSessionNotClosed):
		statusCode = http.StatusConflict
		message = "Session is not in a settleable state"
	case util.IsError(err, util.ErrInsufficientBalance):
		statusCode = http.StatusPaymentRequired
		message = "Insufficient wallet balance"
	case util.IsError(err, util.ErrWalletInactive):
		statusCode = http.StatusForbidden
		message = "Wallet is inactive"
	case util.IsError(err, util.ErrCurrencyMismatch):
		statusCode = http.StatusBadRequest
		message = "Currency mismatch"
	case util.IsError(err, util.ErrRuleNotApplicable):
		statusCode = http.StatusUnprocessableEntity
		message = "Pricing rule not applicable"
	default:
		logger.Error("Unhandled service error", "error", err)
	}

	body := map[string]string{"error": message}
	if code := util.ReasonCode(err); code != "INTERNAL" {
		body["reason"] = code
	}
	respondWithJSON(w, logger, statusCode, body)
}
