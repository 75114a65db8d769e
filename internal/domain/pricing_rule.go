// internal/domain/pricing_rule.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// VehicleType classifies vehicles for pricing.
type VehicleType string

const (
	VehicleTypeCar        VehicleType = "CAR"
	VehicleTypeMotorcycle VehicleType = "MOTORCYCLE"
	VehicleTypeTruck      VehicleType = "TRUCK"
)

// IsValid reports whether vt is one of the known vehicle types.
func (vt VehicleType) IsValid() bool {
	switch vt {
	case VehicleTypeCar, VehicleTypeMotorcycle, VehicleTypeTruck:
		return true
	}
	return false
}

// PricingRule defines a tiered tariff. Rules are owned by the external
// rule-management service; this service only reads them. A rule is usable
// while IsActive and the evaluation time falls in [ValidFrom, ValidUntil).
type PricingRule struct {
	ID                     int64           `db:"id" json:"id"`
	VehicleType            VehicleType     `db:"vehicle_type" json:"vehicle_type"`
	Currency               string          `db:"currency" json:"currency"`
	BaseRate               decimal.Decimal `db:"base_rate" json:"base_rate"`             // Per billing block
	DepositFee             decimal.Decimal `db:"deposit_fee" json:"deposit_fee"`         // Charged at entry, informational here
	InitialCharge          decimal.Decimal `db:"initial_charge" json:"initial_charge"`   // Flat entry fee once billing starts
	InitialDurationMinutes int64           `db:"initial_duration_minutes" json:"initial_duration_minutes"` // Billing block length
	FreeMinutes            int64           `db:"free_minutes" json:"free_minutes"`
	GracePeriodMinutes     int64           `db:"grace_period_minutes" json:"grace_period_minutes"`
	IsActive               bool            `db:"is_active" json:"is_active"`
	ValidFrom              time.Time       `db:"valid_from" json:"valid_from"`
	ValidUntil             time.Time       `db:"valid_until" json:"valid_until"`
	CreatedAt              time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time       `db:"updated_at" json:"updated_at"`
}

// UsableAt reports whether the rule may be applied at time t.
func (r PricingRule) UsableAt(t time.Time) bool {
	return r.IsActive && !t.Before(r.ValidFrom) && t.Before(r.ValidUntil)
}
