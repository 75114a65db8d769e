// internal/util/errors.go
package util

import "errors"

// Application-specific errors. Settlement, resolution and ledger failures map
// 1:1 onto these sentinels so callers can branch with errors.Is.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrInvalidInput     = errors.New("invalid input provided")
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// Tariff computation
	ErrInvalidInterval = errors.New("exit time must be after entry time")

	// Pricing-rule resolution
	ErrRuleNotFound      = errors.New("pricing rule not found")
	ErrRuleNotApplicable = errors.New("pricing rule not applicable")
	ErrNoDefaultRule     = errors.New("no default pricing rule configured")

	// Wallet ledger
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrWalletInactive      = errors.New("wallet is inactive")
	ErrWalletNotFound      = errors.New("wallet not found")

	// Settlement
	ErrSessionNotFound       = errors.New("parking session not found")
	ErrSessionNotClosed      = errors.New("parking session is not closed")
	ErrSettlementPersistence = errors.New("settlement could not be persisted")
)

// IsError reports whether err matches target in its chain.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}

// AsError finds the first error in err's chain matching target's type.
func AsError(err error, target any) bool {
	return errors.As(err, target)
}

// reasonCodes is the process-wide failure-reason catalog. Initialized once,
// never mutated after startup.
var reasonCodes = []struct {
	sentinel error
	code     string
}{
	{ErrInvalidInterval, "INVALID_INTERVAL"},
	{ErrRuleNotFound, "RULE_NOT_FOUND"},
	{ErrRuleNotApplicable, "RULE_NOT_APPLICABLE"},
	{ErrNoDefaultRule, "NO_DEFAULT_RULE"},
	{ErrSessionNotClosed, "SESSION_NOT_CLOSED"},
	{ErrInsufficientBalance, "INSUFFICIENT_BALANCE"},
	{ErrWalletInactive, "WALLET_INACTIVE"},
	{ErrWalletNotFound, "WALLET_NOT_FOUND"},
	{ErrSettlementPersistence, "SETTLEMENT_PERSISTENCE_FAILED"},
}

// ReasonCode returns the stable machine-readable code for a known failure, or
// "INTERNAL" when the error is outside the catalog.
func ReasonCode(err error) string {
	for _, rc := range reasonCodes {
		if errors.Is(err, rc.sentinel) {
			return rc.code
		}
	}
	return "INTERNAL"
}
