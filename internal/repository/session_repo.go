// internal/repository/session_repo.go
package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"parkledger/internal/domain"
)

// SessionRepository defines parking-session data operations. Status
// transitions are owned by the services; the repository only persists them.
type SessionRepository interface {
	// CreateSession inserts a new OPEN session.
	CreateSession(ctx context.Context, q DBExecutor, session *domain.ParkingSession) error
	// GetSessionByID retrieves a session without locking.
	GetSessionByID(ctx context.Context, q DBExecutor, id string) (*domain.ParkingSession, error)
	// GetSessionByIDForUpdate retrieves a session holding an exclusive row
	// lock, serializing concurrent settlement attempts for the same session.
	GetSessionByIDForUpdate(ctx context.Context, q DBExecutor, id string) (*domain.ParkingSession, error)
	// FindOpenByVehicle finds the OPEN session for a vehicle in a lot.
	FindOpenByVehicle(ctx context.Context, q DBExecutor, lotID int64, vehicleID string) (*domain.ParkingSession, error)
	// CloseSession transitions OPEN → CLOSED and stamps the exit time.
	CloseSession(ctx context.Context, q DBExecutor, id string, exitTime time.Time) error
	// MarkSettled transitions CLOSED → SETTLED and records the amount owed.
	MarkSettled(ctx context.Context, q DBExecutor, id string, totalAmount decimal.Decimal) error
	// MarkSettlementFailed transitions CLOSED → SETTLEMENT_FAILED. The owed
	// amount, when already computed, is recorded for manual collection.
	MarkSettlementFailed(ctx context.Context, q DBExecutor, id string, totalAmount *decimal.Decimal, reason string) error
}
