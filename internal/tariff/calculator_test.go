// internal/tariff/calculator_test.go
package tariff

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkledger/internal/domain"
	"parkledger/internal/util"
)

// standardRule mirrors the reference tariff used across the suite:
// 10000 per 60-minute block, 5000 flat entry charge, 15 free minutes,
// 10 grace minutes.
func standardRule() domain.PricingRule {
	return domain.PricingRule{
		ID:                     1,
		VehicleType:            domain.VehicleTypeCar,
		Currency:               "VND",
		BaseRate:               decimal.NewFromInt(10000),
		InitialCharge:          decimal.NewFromInt(5000),
		InitialDurationMinutes: 60,
		FreeMinutes:            15,
		GracePeriodMinutes:     10,
		IsActive:               true,
	}
}

func at(minutes int64) (time.Time, time.Time) {
	entry := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	return entry, entry.Add(time.Duration(minutes) * time.Minute)
}

func TestCompute_InvalidInterval(t *testing.T) {
	entry := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	_, err := Compute(entry, entry, standardRule())
	assert.ErrorIs(t, err, util.ErrInvalidInterval)

	_, err = Compute(entry, entry.Add(-time.Minute), standardRule())
	assert.ErrorIs(t, err, util.ErrInvalidInterval)
}

func TestCompute_WithinFreeMinutes(t *testing.T) {
	rule := standardRule()
	for _, minutes := range []int64{1, 5, 14, 15} {
		entry, exit := at(minutes)
		amount, err := Compute(entry, exit, rule)
		require.NoError(t, err)
		assert.True(t, amount.IsZero(), "expected 0 for %d minutes, got %s", minutes, amount)
	}
}

func TestCompute_GracePeriodChargesInitialOnly(t *testing.T) {
	rule := standardRule()

	// 20 min → effective 5, inside the 10-minute grace window.
	entry, exit := at(20)
	amount, err := Compute(entry, exit, rule)
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(5000)), "got %s", amount)

	// Boundary: effective exactly equal to grace still only pays the entry charge.
	entry, exit = at(25)
	amount, err = Compute(entry, exit, rule)
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(5000)), "got %s", amount)
}

func TestCompute_BlockBilling(t *testing.T) {
	rule := standardRule()

	// 80 min → effective 65, billable 55, 1 block of 60 → 5000 + 10000.
	entry, exit := at(80)
	amount, err := Compute(entry, exit, rule)
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(15000)), "got %s", amount)

	// 86 min → billable 61 → 2 blocks → 5000 + 20000.
	entry, exit = at(86)
	amount, err = Compute(entry, exit, rule)
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(25000)), "got %s", amount)
}

func TestCompute_PartialMinuteRoundsUp(t *testing.T) {
	rule := standardRule()
	entry := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	// 15m30s of parking counts as 16 minutes → past free time, inside grace.
	amount, err := Compute(entry, entry.Add(15*time.Minute+30*time.Second), rule)
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(5000)), "got %s", amount)
}

func TestCompute_MonotonicInDuration(t *testing.T) {
	rule := standardRule()
	prev := decimal.Zero
	for minutes := int64(1); minutes <= 360; minutes += 7 {
		entry, exit := at(minutes)
		amount, err := Compute(entry, exit, rule)
		require.NoError(t, err)
		assert.True(t, amount.GreaterThanOrEqual(prev),
			"amount decreased at %d minutes: %s < %s", minutes, amount, prev)
		prev = amount
	}
}

func TestCompute_RoundsHalfUpOnceAtEnd(t *testing.T) {
	// Fractional base rate: 3 blocks × 33.335 + 0 = 100.005 → 100.01.
	rule := domain.PricingRule{
		BaseRate:               decimal.RequireFromString("33.335"),
		InitialCharge:          decimal.Zero,
		InitialDurationMinutes: 60,
		FreeMinutes:            0,
		GracePeriodMinutes:     0,
	}
	entry, exit := at(180)
	amount, err := Compute(entry, exit, rule)
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.RequireFromString("100.01")), "got %s", amount)
}

func TestCompute_ZeroBlockLengthBillsPerMinute(t *testing.T) {
	rule := standardRule()
	rule.InitialDurationMinutes = 0
	rule.BaseRate = decimal.NewFromInt(100)

	// 30 min → effective 15, billable 5 → 5 one-minute blocks.
	entry, exit := at(30)
	amount, err := Compute(entry, exit, rule)
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(5500)), "got %s", amount)
}

func TestCompute_Deterministic(t *testing.T) {
	rule := standardRule()
	entry, exit := at(123)
	first, err := Compute(entry, exit, rule)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Compute(entry, exit, rule)
		require.NoError(t, err)
		assert.True(t, first.Equal(again))
	}
}
