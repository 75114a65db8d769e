// internal/repository/postgres/transaction_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"parkledger/internal/domain"
	"parkledger/internal/repository"
	"parkledger/internal/util"
)

// TransactionRepository implements repository.TransactionRepository for
// PostgreSQL.
type TransactionRepository struct{}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db *sqlx.DB) repository.TransactionRepository {
	return &TransactionRepository{}
}

const transactionColumns = `id, wallet_id, session_id, type, amount, fee, net_amount, balance_before, balance_after, external_transaction_id, status, description, processed_at, created_at`

// CreateTransaction inserts a new transaction record. The unique constraint
// on external_transaction_id is the database-level idempotency guard; a
// violation comes back as a *pq.Error (code 23505) for the ledger to resolve.
func (r *TransactionRepository) CreateTransaction(ctx context.Context, q repository.DBExecutor, transaction *domain.WalletTransaction) error {
	query := `INSERT INTO wallet_transactions
              (wallet_id, session_id, type, amount, fee, net_amount, balance_before, balance_after, external_transaction_id, status, description, processed_at, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		transaction.WalletID,
		transaction.SessionID,
		transaction.Type,
		transaction.Amount,
		transaction.Fee,
		transaction.NetAmount,
		transaction.BalanceBefore,
		transaction.BalanceAfter,
		transaction.ExternalTransactionID,
		transaction.Status,
		transaction.Description,
		transaction.ProcessedAt,
		transaction.CreatedAt,
	).Scan(&transaction.ID)
	if err != nil {
		return fmt.Errorf("failed to create wallet transaction: %w", err)
	}
	return nil
}

// GetByExternalID fetches a transaction by its idempotency key.
func (r *TransactionRepository) GetByExternalID(ctx context.Context, q repository.DBExecutor, externalTransactionID string) (*domain.WalletTransaction, error) {
	var transaction domain.WalletTransaction
	query := `SELECT ` + transactionColumns + ` FROM wallet_transactions WHERE external_transaction_id = $1`
	err := q.GetContext(ctx, &transaction, query, externalTransactionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by external id %s: %w", externalTransactionID, err)
	}
	return &transaction, nil
}

// GetTransactionsByWalletID returns a page of a wallet's history, newest
// first, plus the total count.
func (r *TransactionRepository) GetTransactionsByWalletID(ctx context.Context, q repository.DBExecutor, walletID int64, limit, offset int) ([]domain.WalletTransaction, int64, error) {
	transactions := []domain.WalletTransaction{}
	query := `SELECT ` + transactionColumns + `
              FROM wallet_transactions
              WHERE wallet_id = $1
              ORDER BY created_at DESC, id DESC
              LIMIT $2 OFFSET $3`
	if err := q.SelectContext(ctx, &transactions, query, walletID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions for wallet %d: %w", walletID, err)
	}

	var totalCount int64
	countQuery := `SELECT COUNT(*) FROM wallet_transactions WHERE wallet_id = $1`
	if err := q.GetContext(ctx, &totalCount, countQuery, walletID); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions for wallet %d: %w", walletID, err)
	}

	return transactions, totalCount, nil
}

// ListCompletedByWalletAsc returns every COMPLETED transaction of a wallet in
// application order. Insertion order under the wallet lock equals id order.
func (r *TransactionRepository) ListCompletedByWalletAsc(ctx context.Context, q repository.DBExecutor, walletID int64) ([]domain.WalletTransaction, error) {
	transactions := []domain.WalletTransaction{}
	query := `SELECT ` + transactionColumns + `
              FROM wallet_transactions
              WHERE wallet_id = $1 AND status = $2
              ORDER BY id ASC`
	if err := q.SelectContext(ctx, &transactions, query, walletID, domain.TransactionStatusCompleted); err != nil {
		return nil, fmt.Errorf("failed to list completed transactions for wallet %d: %w", walletID, err)
	}
	return transactions, nil
}
