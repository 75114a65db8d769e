// internal/domain/transaction.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// TransactionType defines the type of a wallet transaction.
type TransactionType string

const (
	TransactionTypeTopUp        TransactionType = "TOP_UP"
	TransactionTypeDeduction    TransactionType = "DEDUCTION"
	TransactionTypeRefund       TransactionType = "REFUND"
	TransactionTypeReversal     TransactionType = "REVERSAL"
	TransactionTypePenalty      TransactionType = "PENALTY"
	TransactionTypeSubscription TransactionType = "SUBSCRIPTION"
)

// IsDebit reports whether the type decreases the wallet balance. Every type
// is either a debit or a credit; there is no third direction.
func (t TransactionType) IsDebit() bool {
	switch t {
	case TransactionTypeDeduction, TransactionTypePenalty, TransactionTypeSubscription:
		return true
	case TransactionTypeTopUp, TransactionTypeRefund, TransactionTypeReversal:
		return false
	}
	return false
}

// IsValid reports whether t is one of the known transaction types.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeTopUp, TransactionTypeDeduction, TransactionTypeRefund,
		TransactionTypeReversal, TransactionTypePenalty, TransactionTypeSubscription:
		return true
	}
	return false
}

// TransactionStatus defines the status of a wallet transaction.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "PENDING"
	TransactionStatusProcessing TransactionStatus = "PROCESSING"
	TransactionStatusCompleted  TransactionStatus = "COMPLETED"
	TransactionStatusFailed     TransactionStatus = "FAILED"
	TransactionStatusCancelled  TransactionStatus = "CANCELLED"
)

// WalletTransaction is an append-only ledger record. Once COMPLETED it is
// immutable, and BalanceAfter always equals BalanceBefore ± NetAmount exactly.
type WalletTransaction struct {
	ID                    int64             `db:"id" json:"id"` // Primary key, BIGSERIAL in DB
	WalletID              int64             `db:"wallet_id" json:"wallet_id"`
	SessionID             *string           `db:"session_id" json:"session_id,omitempty"` // Triggering parking session, if any
	Type                  TransactionType   `db:"type" json:"type"`
	Amount                decimal.Decimal   `db:"amount" json:"amount"`
	Fee                   decimal.Decimal   `db:"fee" json:"fee"`
	NetAmount             decimal.Decimal   `db:"net_amount" json:"net_amount"`
	BalanceBefore         decimal.Decimal   `db:"balance_before" json:"balance_before"`
	BalanceAfter          decimal.Decimal   `db:"balance_after" json:"balance_after"`
	ExternalTransactionID string            `db:"external_transaction_id" json:"external_transaction_id"` // Idempotency key, UNIQUE in DB
	Status                TransactionStatus `db:"status" json:"status"`
	Description           *string           `db:"description" json:"description,omitempty"`
	ProcessedAt           *time.Time        `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt             time.Time         `db:"created_at" json:"created_at"`
}

// NewWalletTransaction builds a COMPLETED transaction record for a balance
// mutation that has already been computed under the wallet lock.
func NewWalletTransaction(
	walletID int64,
	sessionID *string,
	txType TransactionType,
	amount, fee, netAmount decimal.Decimal,
	balanceBefore, balanceAfter decimal.Decimal,
	externalTransactionID string,
	description *string,
) *WalletTransaction {
	now := time.Now().UTC()
	return &WalletTransaction{
		WalletID:              walletID,
		SessionID:             sessionID,
		Type:                  txType,
		Amount:                amount,
		Fee:                   fee,
		NetAmount:             netAmount,
		BalanceBefore:         balanceBefore,
		BalanceAfter:          balanceAfter,
		ExternalTransactionID: externalTransactionID,
		Status:                TransactionStatusCompleted,
		Description:           description,
		ProcessedAt:           &now,
		CreatedAt:             now,
	}
}
