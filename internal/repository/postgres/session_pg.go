// internal/repository/postgres/session_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"parkledger/internal/domain"
	"parkledger/internal/repository"
	"parkledger/internal/util"
)

// SessionRepository implements repository.SessionRepository for PostgreSQL.
type SessionRepository struct{}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db *sqlx.DB) repository.SessionRepository {
	return &SessionRepository{}
}

const sessionColumns = `id, user_id, vehicle_id, vehicle_type, lot_id, spot_id, entry_time, exit_time, pricing_rule_id, status, total_amount, failure_reason, created_at, updated_at`

// CreateSession inserts a new OPEN session.
func (r *SessionRepository) CreateSession(ctx context.Context, q repository.DBExecutor, session *domain.ParkingSession) error {
	query := `INSERT INTO parking_sessions
              (id, user_id, vehicle_id, vehicle_type, lot_id, spot_id, entry_time, pricing_rule_id, status, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := q.ExecContext(ctx, query,
		session.ID, session.UserID, session.VehicleID, session.VehicleType,
		session.LotID, session.SpotID, session.EntryTime, session.PricingRuleID,
		session.Status, session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create parking session: %w", err)
	}
	return nil
}

// GetSessionByID retrieves a session without locking.
func (r *SessionRepository) GetSessionByID(ctx context.Context, q repository.DBExecutor, id string) (*domain.ParkingSession, error) {
	var session domain.ParkingSession
	query := `SELECT ` + sessionColumns + ` FROM parking_sessions WHERE id = $1`
	err := q.GetContext(ctx, &session, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}
	return &session, nil
}

// GetSessionByIDForUpdate retrieves a session holding an exclusive row lock.
// Duplicate exit-event deliveries settle one after the other, never at once.
func (r *SessionRepository) GetSessionByIDForUpdate(ctx context.Context, q repository.DBExecutor, id string) (*domain.ParkingSession, error) {
	var session domain.ParkingSession
	query := `SELECT ` + sessionColumns + ` FROM parking_sessions WHERE id = $1 FOR UPDATE`
	err := q.GetContext(ctx, &session, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to lock session %s: %w", id, err)
	}
	return &session, nil
}

// FindOpenByVehicle finds the OPEN session for a vehicle in a lot.
func (r *SessionRepository) FindOpenByVehicle(ctx context.Context, q repository.DBExecutor, lotID int64, vehicleID string) (*domain.ParkingSession, error) {
	var session domain.ParkingSession
	query := `SELECT ` + sessionColumns + ` FROM parking_sessions
              WHERE lot_id = $1 AND vehicle_id = $2 AND status = $3
              ORDER BY entry_time DESC LIMIT 1`
	err := q.GetContext(ctx, &session, query, lotID, vehicleID, domain.SessionStatusOpen)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to find open session for vehicle %s in lot %d: %w", vehicleID, lotID, err)
	}
	return &session, nil
}

// CloseSession transitions OPEN → CLOSED and stamps the exit time. The status
// guard in the WHERE clause keeps a second exit event from re-closing.
func (r *SessionRepository) CloseSession(ctx context.Context, q repository.DBExecutor, id string, exitTime time.Time) error {
	query := `UPDATE parking_sessions SET status = $1, exit_time = $2, updated_at = $3 WHERE id = $4 AND status = $5`
	result, err := q.ExecContext(ctx, query,
		domain.SessionStatusClosed, exitTime.UTC(), time.Now().UTC(), id, domain.SessionStatusOpen)
	if err != nil {
		return fmt.Errorf("failed to close session %s: %w", id, err)
	}
	return requireOneRow(result, id)
}

// MarkSettled transitions CLOSED → SETTLED and records the amount owed.
func (r *SessionRepository) MarkSettled(ctx context.Context, q repository.DBExecutor, id string, totalAmount decimal.Decimal) error {
	query := `UPDATE parking_sessions SET status = $1, total_amount = $2, failure_reason = NULL, updated_at = $3 WHERE id = $4 AND status = $5`
	result, err := q.ExecContext(ctx, query,
		domain.SessionStatusSettled, totalAmount, time.Now().UTC(), id, domain.SessionStatusClosed)
	if err != nil {
		return fmt.Errorf("failed to mark session %s settled: %w", id, err)
	}
	return requireOneRow(result, id)
}

// MarkSettlementFailed transitions CLOSED → SETTLEMENT_FAILED. When the owed
// amount was already computed it is recorded for manual collection.
func (r *SessionRepository) MarkSettlementFailed(ctx context.Context, q repository.DBExecutor, id string, totalAmount *decimal.Decimal, reason string) error {
	query := `UPDATE parking_sessions SET status = $1, total_amount = $2, failure_reason = $3, updated_at = $4 WHERE id = $5 AND status = $6`
	var amount interface{}
	if totalAmount != nil {
		amount = *totalAmount
	}
	result, err := q.ExecContext(ctx, query,
		domain.SessionStatusSettlementFailed, amount, reason, time.Now().UTC(), id, domain.SessionStatusClosed)
	if err != nil {
		return fmt.Errorf("failed to mark session %s settlement-failed: %w", id, err)
	}
	return requireOneRow(result, id)
}

func requireOneRow(result sql.Result, sessionID string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for session %s: %w", sessionID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("session %s not in expected status: %w", sessionID, util.ErrSessionNotClosed)
	}
	return nil
}
