// internal/api/handler/session.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"parkledger/internal/domain"
	"parkledger/internal/service"
	"parkledger/internal/util"
)

// SessionHandler handles the parking-session lifecycle endpoints.
type SessionHandler struct {
	service service.SessionService
	logger  *slog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(svc service.SessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{service: svc, logger: logger}
}

// RegisterEntryRequest is the entry-gate payload.
type RegisterEntryRequest struct {
	UserID        int64     `json:"user_id"`
	VehicleID     string    `json:"vehicle_id"`
	VehicleType   string    `json:"vehicle_type"`
	LotID         int64     `json:"lot_id"`
	SpotID        *int64    `json:"spot_id,omitempty"`
	PricingRuleID *int64    `json:"pricing_rule_id,omitempty"`
	EntryTime     time.Time `json:"entry_time"`
}

// RegisterEntry opens a parking session.
// POST /sessions
func (h *SessionHandler) RegisterEntry(w http.ResponseWriter, r *http.Request) {
	var req RegisterEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}
	if req.UserID == 0 || req.LotID == 0 {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}
	entryTime := req.EntryTime
	if entryTime.IsZero() {
		entryTime = time.Now().UTC()
	}

	session, err := h.service.RegisterEntry(r.Context(), service.RegisterEntryInput{
		UserID:        req.UserID,
		VehicleID:     req.VehicleID,
		VehicleType:   domain.VehicleType(req.VehicleType),
		LotID:         req.LotID,
		SpotID:        req.SpotID,
		PricingRuleID: req.PricingRuleID,
		EntryTime:     entryTime,
	})
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusCreated, session)
}

// RegisterExitRequest is the exit-gate payload.
type RegisterExitRequest struct {
	ExitTime time.Time `json:"exit_time"`
}

// RegisterExit closes a parking session, making it settleable.
// POST /sessions/{sessionID}/exit
func (h *SessionHandler) RegisterExit(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req RegisterExitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}
	exitTime := req.ExitTime
	if exitTime.IsZero() {
		exitTime = time.Now().UTC()
	}

	session, err := h.service.RegisterExit(r.Context(), sessionID, exitTime)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, session)
}

// GetSession returns a session by id.
// GET /sessions/{sessionID}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, session)
}

// FindActiveByVehicle resolves the OPEN session for a plate at a lot.
// GET /lots/{lotID}/vehicles/{plate}/session
func (h *SessionHandler) FindActiveByVehicle(w http.ResponseWriter, r *http.Request) {
	lotID, err := strconv.ParseInt(chi.URLParam(r, "lotID"), 10, 64)
	if err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}
	plate := chi.URLParam(r, "plate")

	session, err := h.service.FindActiveByVehicle(r.Context(), lotID, plate)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, session)
}
