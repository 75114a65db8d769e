// internal/repository/transaction_repo.go
package repository

import (
	"context"

	"parkledger/internal/domain"
)

// TransactionRepository defines wallet-transaction data operations. The
// table is append-only; COMPLETED rows are never updated.
type TransactionRepository interface {
	// CreateTransaction inserts a new transaction record. A unique-constraint
	// violation on external_transaction_id is surfaced as
	// util.ErrDuplicate-style wrapped error for the ledger to resolve.
	CreateTransaction(ctx context.Context, q DBExecutor, transaction *domain.WalletTransaction) error
	// GetByExternalID fetches a transaction by its idempotency key.
	GetByExternalID(ctx context.Context, q DBExecutor, externalTransactionID string) (*domain.WalletTransaction, error)
	// GetTransactionsByWalletID returns a page of a wallet's history, newest
	// first, plus the total count.
	GetTransactionsByWalletID(ctx context.Context, q DBExecutor, walletID int64, limit, offset int) ([]domain.WalletTransaction, int64, error)
	// ListCompletedByWalletAsc returns every COMPLETED transaction of a
	// wallet in application order (reconciliation replay).
	ListCompletedByWalletAsc(ctx context.Context, q DBExecutor, walletID int64) ([]domain.WalletTransaction, error)
}
