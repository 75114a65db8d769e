// internal/tariff/calculator.go
package tariff

import (
	"time"

	"github.com/shopspring/decimal"

	"parkledger/internal/domain"
	"parkledger/internal/util"
)

// Compute returns the amount owed for a stay of [entryTime, exitTime) under
// the given rule. Pure and deterministic: identical inputs always yield the
// identical output, which makes idempotent replay safe.
//
// Tiering:
//   - duration ≤ freeMinutes                → 0
//   - effective ≤ gracePeriodMinutes        → initialCharge only
//   - otherwise                             → initialCharge + units × baseRate,
//     where units is the billable time rounded up to whole blocks of
//     initialDurationMinutes.
//
// The result is rounded half-up to 2 decimal places exactly once, at the end.
// DepositFee is charged at entry by the session workflow and is deliberately
// ignored here.
func Compute(entryTime, exitTime time.Time, rule domain.PricingRule) (decimal.Decimal, error) {
	if !exitTime.After(entryTime) {
		return decimal.Zero, util.ErrInvalidInterval
	}

	durationMinutes := ceilMinutes(exitTime.Sub(entryTime))
	if durationMinutes <= rule.FreeMinutes {
		return decimal.Zero, nil
	}

	effective := durationMinutes - rule.FreeMinutes
	if effective <= rule.GracePeriodMinutes {
		return rule.InitialCharge.Round(2), nil
	}

	billableMinutes := effective - rule.GracePeriodMinutes
	blockMinutes := rule.InitialDurationMinutes
	if blockMinutes < 1 {
		// Misconfigured rule; bill per minute rather than fail the settlement.
		blockMinutes = 1
	}
	units := (billableMinutes + blockMinutes - 1) / blockMinutes

	amount := rule.InitialCharge.Add(rule.BaseRate.Mul(decimal.NewFromInt(units)))
	return amount.Round(2), nil
}

// ceilMinutes converts a positive duration to whole minutes, rounding any
// partial minute up. Integer arithmetic only, no float drift.
func ceilMinutes(d time.Duration) int64 {
	minutes := int64(d / time.Minute)
	if d%time.Minute != 0 {
		minutes++
	}
	return minutes
}
