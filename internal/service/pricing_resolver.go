// internal/service/pricing_resolver.go
package service

import (
	"context"
	"fmt"
	"time"

	"parkledger/internal/domain"
	"parkledger/internal/repository"
	"parkledger/internal/util"
)

// PricingResolver finds the rule that applies to a session: the explicitly
// selected rule when one was recorded at entry, otherwise the lot's default
// for the vehicle type. Resolution is snapshotted at the session's exit time,
// so a late settlement uses the rule that was in force when the stay ended.
type PricingResolver interface {
	Resolve(ctx context.Context, q repository.DBExecutor, lotID int64, vehicleType domain.VehicleType, explicitRuleID *int64, at time.Time) (*domain.PricingRule, error)
}

type pricingResolver struct {
	ruleRepo repository.PricingRuleRepository
}

// NewPricingResolver creates a new PricingResolver.
func NewPricingResolver(ruleRepo repository.PricingRuleRepository) PricingResolver {
	return &pricingResolver{ruleRepo: ruleRepo}
}

// Resolve returns the applicable pricing rule or one of ErrRuleNotFound,
// ErrRuleNotApplicable, ErrNoDefaultRule.
func (r *pricingResolver) Resolve(ctx context.Context, q repository.DBExecutor, lotID int64, vehicleType domain.VehicleType, explicitRuleID *int64, at time.Time) (*domain.PricingRule, error) {
	if explicitRuleID != nil {
		rule, err := r.ruleRepo.GetRuleByID(ctx, q, *explicitRuleID)
		if err != nil {
			if util.IsError(err, util.ErrRuleNotFound) {
				return nil, util.ErrRuleNotFound
			}
			return nil, fmt.Errorf("resolve pricing rule %d: %w", *explicitRuleID, err)
		}
		if rule.VehicleType != vehicleType || !rule.UsableAt(at) {
			return nil, util.ErrRuleNotApplicable
		}
		return rule, nil
	}

	rule, err := r.ruleRepo.GetDefaultRule(ctx, q, lotID, vehicleType, at)
	if err != nil {
		if util.IsError(err, util.ErrNoDefaultRule) {
			return nil, util.ErrNoDefaultRule
		}
		return nil, fmt.Errorf("resolve default rule for lot %d: %w", lotID, err)
	}
	return rule, nil
}
