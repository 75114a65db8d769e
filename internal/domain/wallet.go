// internal/domain/wallet.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// Wallet represents a user's prepaid parking wallet. Balance is mutated
// exclusively through the ledger service; no other component writes it.
type Wallet struct {
	ID             int64           `db:"id" json:"id"`                           // Primary key, BIGSERIAL in DB
	UserID         int64           `db:"user_id" json:"user_id"`                 // External account id, UNIQUE in DB
	Currency       string          `db:"currency" json:"currency"`               // e.g., "USD", "VND"
	Balance        decimal.Decimal `db:"balance" json:"balance"`                 // Current balance, NUMERIC(20, 4) in DB
	IsActive       bool            `db:"is_active" json:"is_active"`             // Inactive wallets reject all mutations
	AllowOverdraft bool            `db:"allow_overdraft" json:"allow_overdraft"` // Policy: may balance go below zero
	Version        int64           `db:"version" json:"version"`                 // Bumped on every balance write
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// NewWallet creates a new active Wallet for a user with a zero balance.
func NewWallet(userID int64, currency string) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		UserID:    userID,
		Currency:  currency,
		Balance:   decimal.Zero,
		IsActive:  true,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
