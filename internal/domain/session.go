// internal/domain/session.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionStatus is the parking-session lifecycle state.
// OPEN → CLOSED → SETTLED, or CLOSED → SETTLEMENT_FAILED.
type SessionStatus string

const (
	SessionStatusOpen             SessionStatus = "OPEN"
	SessionStatusClosed           SessionStatus = "CLOSED"
	SessionStatusSettled          SessionStatus = "SETTLED"
	SessionStatusSettlementFailed SessionStatus = "SETTLEMENT_FAILED"
)

// ParkingSession records one vehicle's stay. Created OPEN at entry, CLOSED at
// exit, and finalized by settlement. The session id doubles as the ledger
// idempotency key, so at most one financial effect ever exists per session.
type ParkingSession struct {
	ID            string              `db:"id" json:"id"` // UUID
	UserID        int64               `db:"user_id" json:"user_id"`
	VehicleID     string              `db:"vehicle_id" json:"vehicle_id"` // License plate
	VehicleType   VehicleType         `db:"vehicle_type" json:"vehicle_type"`
	LotID         int64               `db:"lot_id" json:"lot_id"`
	SpotID        *int64              `db:"spot_id" json:"spot_id,omitempty"`
	EntryTime     time.Time           `db:"entry_time" json:"entry_time"`
	ExitTime      *time.Time          `db:"exit_time" json:"exit_time,omitempty"`
	PricingRuleID *int64              `db:"pricing_rule_id" json:"pricing_rule_id,omitempty"` // nil → lot default for vehicle type
	Status        SessionStatus       `db:"status" json:"status"`
	TotalAmount   decimal.NullDecimal `db:"total_amount" json:"total_amount,omitempty"`
	FailureReason *string             `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt     time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time           `db:"updated_at" json:"updated_at"`
}

// NewParkingSession creates an OPEN session starting at entryTime.
func NewParkingSession(userID int64, vehicleID string, vehicleType VehicleType, lotID int64, spotID *int64, pricingRuleID *int64, entryTime time.Time) *ParkingSession {
	now := time.Now().UTC()
	return &ParkingSession{
		ID:            uuid.NewString(),
		UserID:        userID,
		VehicleID:     vehicleID,
		VehicleType:   vehicleType,
		LotID:         lotID,
		SpotID:        spotID,
		EntryTime:     entryTime.UTC(),
		PricingRuleID: pricingRuleID,
		Status:        SessionStatusOpen,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
