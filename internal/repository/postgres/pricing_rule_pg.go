// internal/repository/postgres/pricing_rule_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"parkledger/internal/domain"
	"parkledger/internal/repository"
	"parkledger/internal/util"
)

// PricingRuleRepository implements repository.PricingRuleRepository for
// PostgreSQL. Read-only: rule rows are written by the rule-management
// service.
type PricingRuleRepository struct{}

// NewPricingRuleRepository creates a new PricingRuleRepository.
func NewPricingRuleRepository(db *sqlx.DB) repository.PricingRuleRepository {
	return &PricingRuleRepository{}
}

const pricingRuleColumns = `id, vehicle_type, currency, base_rate, deposit_fee, initial_charge, initial_duration_minutes, free_minutes, grace_period_minutes, is_active, valid_from, valid_until, created_at, updated_at`

// GetRuleByID fetches a rule regardless of validity.
func (r *PricingRuleRepository) GetRuleByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.PricingRule, error) {
	var rule domain.PricingRule
	query := `SELECT ` + pricingRuleColumns + ` FROM pricing_rules WHERE id = $1`
	err := q.GetContext(ctx, &rule, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrRuleNotFound
		}
		return nil, fmt.Errorf("failed to get pricing rule %d: %w", id, err)
	}
	return &rule, nil
}

// GetDefaultRule fetches the default rule for (lotID, vehicleType) active and
// valid at the given time. The validity filter runs in SQL so the snapshot is
// taken at the session's exit time, not at resolution wall-clock time.
func (r *PricingRuleRepository) GetDefaultRule(ctx context.Context, q repository.DBExecutor, lotID int64, vehicleType domain.VehicleType, at time.Time) (*domain.PricingRule, error) {
	var rule domain.PricingRule
	query := `SELECT r.id, r.vehicle_type, r.currency, r.base_rate, r.deposit_fee, r.initial_charge, r.initial_duration_minutes, r.free_minutes, r.grace_period_minutes, r.is_active, r.valid_from, r.valid_until, r.created_at, r.updated_at
              FROM pricing_rules r
              JOIN default_pricing_rules d ON d.pricing_rule_id = r.id
              WHERE d.lot_id = $1 AND d.vehicle_type = $2
                AND r.is_active = TRUE
                AND r.valid_from <= $3 AND r.valid_until > $3`
	err := q.GetContext(ctx, &rule, query, lotID, vehicleType, at.UTC())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNoDefaultRule
		}
		return nil, fmt.Errorf("failed to get default rule for lot %d vehicle type %s: %w", lotID, vehicleType, err)
	}
	return &rule, nil
}
