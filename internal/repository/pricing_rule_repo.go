// internal/repository/pricing_rule_repo.go
package repository

import (
	"context"
	"time"

	"parkledger/internal/domain"
)

// PricingRuleRepository reads pricing rules and the default-rule mapping.
// Rules are owned by the external rule-management service; this repository
// never writes them.
type PricingRuleRepository interface {
	// GetRuleByID fetches a rule regardless of validity; applicability is the
	// resolver's concern.
	GetRuleByID(ctx context.Context, q DBExecutor, id int64) (*domain.PricingRule, error)
	// GetDefaultRule fetches the default rule configured for (lotID,
	// vehicleType) that is active and valid at the given time.
	GetDefaultRule(ctx context.Context, q DBExecutor, lotID int64, vehicleType domain.VehicleType, at time.Time) (*domain.PricingRule, error)
}
