// internal/repository/postgres/wallet_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"parkledger/internal/domain"
	"parkledger/internal/repository"
	"parkledger/internal/util"
)

// WalletRepository implements repository.WalletRepository for PostgreSQL.
type WalletRepository struct{}

// NewWalletRepository creates a new WalletRepository. Methods receive their
// executor per call, so nothing is stored.
func NewWalletRepository(db *sqlx.DB) repository.WalletRepository {
	return &WalletRepository{}
}

const walletColumns = `id, user_id, currency, balance, is_active, allow_overdraft, version, created_at, updated_at`

// CreateWallet inserts a new wallet.
func (r *WalletRepository) CreateWallet(ctx context.Context, q repository.DBExecutor, wallet *domain.Wallet) error {
	query := `INSERT INTO wallets (user_id, currency, balance, is_active, allow_overdraft, version, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		wallet.UserID, wallet.Currency, wallet.Balance, wallet.IsActive,
		wallet.AllowOverdraft, wallet.Version, wallet.CreatedAt, wallet.UpdatedAt,
	).Scan(&wallet.ID)
	if err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

// GetWalletByUserID retrieves a wallet without locking.
func (r *WalletRepository) GetWalletByUserID(ctx context.Context, q repository.DBExecutor, userID int64) (*domain.Wallet, error) {
	var wallet domain.Wallet
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1`
	err := q.GetContext(ctx, &wallet, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet for user %d: %w", userID, err)
	}
	return &wallet, nil
}

// GetWalletByUserIDForUpdate retrieves a wallet holding an exclusive row lock
// until the surrounding transaction ends. Concurrent callers for the same
// wallet queue here, which is what makes balanceBefore reads safe.
func (r *WalletRepository) GetWalletByUserIDForUpdate(ctx context.Context, q repository.DBExecutor, userID int64) (*domain.Wallet, error) {
	var wallet domain.Wallet
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 FOR UPDATE`
	err := q.GetContext(ctx, &wallet, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to lock wallet for user %d: %w", userID, err)
	}
	return &wallet, nil
}

// UpdateWalletBalance writes the new balance, guarded by the version the
// caller read under lock.
func (r *WalletRepository) UpdateWalletBalance(ctx context.Context, q repository.DBExecutor, walletID int64, newBalance decimal.Decimal, expectedVersion int64) error {
	query := `UPDATE wallets SET balance = $1, version = version + 1, updated_at = $2 WHERE id = $3 AND version = $4`
	result, err := q.ExecContext(ctx, query, newBalance, time.Now().UTC(), walletID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update balance for wallet %d: %w", walletID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for wallet %d: %w", walletID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("wallet %d version moved under lock: %w", walletID, util.ErrSettlementPersistence)
	}
	return nil
}

// ListWalletIDs returns every wallet id.
func (r *WalletRepository) ListWalletIDs(ctx context.Context, q repository.DBExecutor) ([]int64, error) {
	ids := []int64{}
	if err := q.SelectContext(ctx, &ids, `SELECT id FROM wallets ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list wallet ids: %w", err)
	}
	return ids, nil
}
