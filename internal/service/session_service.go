// internal/service/session_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"parkledger/internal/cache"
	"parkledger/internal/domain"
	"parkledger/internal/repository"
	"parkledger/internal/util"
)

// RegisterEntryInput describes a vehicle entering a lot.
type RegisterEntryInput struct {
	UserID        int64
	VehicleID     string
	VehicleType   domain.VehicleType
	LotID         int64
	SpotID        *int64
	PricingRuleID *int64 // nil → lot default resolved at settlement
	EntryTime     time.Time
}

// SessionService owns the OPEN → CLOSED part of the session lifecycle and the
// gate lookups around it. Settlement picks up from CLOSED.
type SessionService interface {
	RegisterEntry(ctx context.Context, input RegisterEntryInput) (*domain.ParkingSession, error)
	RegisterExit(ctx context.Context, sessionID string, exitTime time.Time) (*domain.ParkingSession, error)
	GetSession(ctx context.Context, sessionID string) (*domain.ParkingSession, error)
	FindActiveByVehicle(ctx context.Context, lotID int64, vehicleID string) (*domain.ParkingSession, error)
}

type sessionService struct {
	dbExecutor  repository.DBExecutor
	sessionRepo repository.SessionRepository
	activeStore *cache.ActiveSessionStore // optional; nil disables caching
	logger      *slog.Logger
}

// NewSessionService creates a new SessionService. activeStore may be nil when
// no redis is configured.
func NewSessionService(
	dbExecutor repository.DBExecutor,
	sessionRepo repository.SessionRepository,
	activeStore *cache.ActiveSessionStore,
	logger *slog.Logger,
) SessionService {
	return &sessionService{
		dbExecutor:  dbExecutor,
		sessionRepo: sessionRepo,
		activeStore: activeStore,
		logger:      logger,
	}
}

// RegisterEntry creates an OPEN session. The cache write is best-effort: a
// redis failure is logged and never blocks the gate.
func (s *sessionService) RegisterEntry(ctx context.Context, input RegisterEntryInput) (*domain.ParkingSession, error) {
	if input.VehicleID == "" || !input.VehicleType.IsValid() || input.EntryTime.IsZero() {
		return nil, util.ErrInvalidInput
	}
	if existing, err := s.sessionRepo.FindOpenByVehicle(ctx, s.dbExecutor, input.LotID, input.VehicleID); err == nil {
		return nil, fmt.Errorf("register entry: vehicle %s already has open session %s: %w",
			input.VehicleID, existing.ID, util.ErrInvalidInput)
	} else if !util.IsError(err, util.ErrSessionNotFound) {
		return nil, fmt.Errorf("register entry: failed to check open sessions: %w", err)
	}

	session := domain.NewParkingSession(
		input.UserID, input.VehicleID, input.VehicleType,
		input.LotID, input.SpotID, input.PricingRuleID, input.EntryTime,
	)
	if err := s.sessionRepo.CreateSession(ctx, s.dbExecutor, session); err != nil {
		return nil, fmt.Errorf("register entry: %w", err)
	}

	s.cacheSession(ctx, session)
	return session, nil
}

// RegisterExit transitions OPEN → CLOSED and stamps the exit time, after
// which the session is eligible for settlement.
func (s *sessionService) RegisterExit(ctx context.Context, sessionID string, exitTime time.Time) (*domain.ParkingSession, error) {
	session, err := s.sessionRepo.GetSessionByID(ctx, s.dbExecutor, sessionID)
	if err != nil {
		return nil, fmt.Errorf("register exit: %w", err)
	}
	if session.Status != domain.SessionStatusOpen {
		return nil, fmt.Errorf("register exit: session %s is %s: %w", sessionID, session.Status, util.ErrInvalidInput)
	}
	if !exitTime.After(session.EntryTime) {
		return nil, util.ErrInvalidInterval
	}

	if err := s.sessionRepo.CloseSession(ctx, s.dbExecutor, sessionID, exitTime); err != nil {
		return nil, fmt.Errorf("register exit: %w", err)
	}
	s.evictSession(ctx, session)

	closed, err := s.sessionRepo.GetSessionByID(ctx, s.dbExecutor, sessionID)
	if err != nil {
		return nil, fmt.Errorf("register exit: failed to re-fetch session %s: %w", sessionID, err)
	}
	return closed, nil
}

// GetSession returns a session by id.
func (s *sessionService) GetSession(ctx context.Context, sessionID string) (*domain.ParkingSession, error) {
	return s.sessionRepo.GetSessionByID(ctx, s.dbExecutor, sessionID)
}

// FindActiveByVehicle resolves the OPEN session for a plate at a lot,
// cache-first with database fallback.
func (s *sessionService) FindActiveByVehicle(ctx context.Context, lotID int64, vehicleID string) (*domain.ParkingSession, error) {
	if s.activeStore != nil {
		if cached, err := s.activeStore.Get(ctx, lotID, vehicleID); err == nil {
			if session, err := s.sessionRepo.GetSessionByID(ctx, s.dbExecutor, cached.SessionID); err == nil && session.Status == domain.SessionStatusOpen {
				return session, nil
			}
		}
	}
	return s.sessionRepo.FindOpenByVehicle(ctx, s.dbExecutor, lotID, vehicleID)
}

func (s *sessionService) cacheSession(ctx context.Context, session *domain.ParkingSession) {
	if s.activeStore == nil {
		return
	}
	err := s.activeStore.Save(ctx, cache.ActiveSession{
		SessionID:   session.ID,
		UserID:      session.UserID,
		LotID:       session.LotID,
		VehicleID:   session.VehicleID,
		VehicleType: string(session.VehicleType),
		EntryTime:   session.EntryTime,
	})
	if err != nil {
		s.logger.Warn("failed to cache active session", "session_id", session.ID, "error", err)
	}
}

func (s *sessionService) evictSession(ctx context.Context, session *domain.ParkingSession) {
	if s.activeStore == nil {
		return
	}
	if err := s.activeStore.Delete(ctx, session.LotID, session.VehicleID); err != nil {
		s.logger.Warn("failed to evict active session", "session_id", session.ID, "error", err)
	}
}
