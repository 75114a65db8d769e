// internal/repository/wallet_repo.go
package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"parkledger/internal/domain"
)

// WalletRepository defines wallet data operations. Balance writes must go
// through UpdateWalletBalance after the row was fetched with
// GetWalletByUserIDForUpdate inside the same transaction.
type WalletRepository interface {
	// CreateWallet inserts a new wallet.
	CreateWallet(ctx context.Context, q DBExecutor, wallet *domain.Wallet) error
	// GetWalletByUserID retrieves a wallet without locking (read paths).
	GetWalletByUserID(ctx context.Context, q DBExecutor, userID int64) (*domain.Wallet, error)
	// GetWalletByUserIDForUpdate retrieves a wallet holding an exclusive row
	// lock for the remainder of the surrounding transaction.
	GetWalletByUserIDForUpdate(ctx context.Context, q DBExecutor, userID int64) (*domain.Wallet, error)
	// UpdateWalletBalance writes the new balance and bumps the version.
	// Returns util.ErrSettlementPersistence wrapped if the expected version no
	// longer matches.
	UpdateWalletBalance(ctx context.Context, q DBExecutor, walletID int64, newBalance decimal.Decimal, expectedVersion int64) error
	// ListWalletIDs returns all wallet ids (reconciliation sweep).
	ListWalletIDs(ctx context.Context, q DBExecutor) ([]int64, error)
}
