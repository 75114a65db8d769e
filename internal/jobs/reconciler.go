// internal/jobs/reconciler.go
package jobs

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"parkledger/internal/repository"
)

// Reconciler audits wallet ledgers: replaying a wallet's COMPLETED
// transactions in application order must reproduce its current balance, with
// every balance_before equal to the previous balance_after.
type Reconciler struct {
	dbExecutor      repository.DBExecutor
	walletRepo      repository.WalletRepository
	transactionRepo repository.TransactionRepository
	logger          *slog.Logger
}

// NewReconciler creates a new Reconciler.
func NewReconciler(
	dbExecutor repository.DBExecutor,
	walletRepo repository.WalletRepository,
	transactionRepo repository.TransactionRepository,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		dbExecutor:      dbExecutor,
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		logger:          logger,
	}
}

// runWithRecovery wraps job execution with panic recovery so one bad wallet
// cannot take the scheduler down.
func (r *Reconciler) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("job panicked", "job", jobName, "panic", rec)
		}
	}()

	r.logger.Info("starting job", "job", jobName)
	jobFunc()
	r.logger.Info("job completed", "job", jobName)
}

// AuditWalletChains sweeps every wallet and reports chain violations. It
// never mutates anything; drift is an operator problem, not something to
// paper over automatically.
func (r *Reconciler) AuditWalletChains(ctx context.Context) {
	r.runWithRecovery("AuditWalletChains", func() {
		ids, err := r.walletRepo.ListWalletIDs(ctx, r.dbExecutor)
		if err != nil {
			r.logger.Error("failed to list wallets", "error", err)
			return
		}

		audited, broken := 0, 0
		for _, walletID := range ids {
			ok, err := r.auditWallet(ctx, walletID)
			if err != nil {
				r.logger.Error("wallet audit errored", "wallet_id", walletID, "error", err)
				continue
			}
			audited++
			if !ok {
				broken++
			}
		}
		r.logger.Info("wallet chain audit finished", "audited", audited, "broken", broken)
	})
}

// auditWallet verifies one wallet's chain. Returns false when a link is
// broken or the replayed balance disagrees with the stored one.
func (r *Reconciler) auditWallet(ctx context.Context, walletID int64) (bool, error) {
	transactions, err := r.transactionRepo.ListCompletedByWalletAsc(ctx, r.dbExecutor, walletID)
	if err != nil {
		return false, err
	}

	ok := true
	for i, transaction := range transactions {
		expected := transaction.BalanceBefore
		if transaction.Type.IsDebit() {
			expected = expected.Sub(transaction.NetAmount)
		} else {
			expected = expected.Add(transaction.NetAmount)
		}
		if !transaction.BalanceAfter.Equal(expected) {
			r.logger.Error("transaction arithmetic broken",
				"wallet_id", walletID, "transaction_id", transaction.ID,
				"balance_after", transaction.BalanceAfter.String(), "expected", expected.String())
			ok = false
		}
		if i > 0 && !transaction.BalanceBefore.Equal(transactions[i-1].BalanceAfter) {
			r.logger.Error("balance chain broken",
				"wallet_id", walletID, "transaction_id", transaction.ID,
				"balance_before", transaction.BalanceBefore.String(),
				"previous_balance_after", transactions[i-1].BalanceAfter.String())
			ok = false
		}
	}

	if len(transactions) > 0 {
		wallet, err := r.walletByID(ctx, walletID)
		if err != nil {
			return false, err
		}
		final := transactions[len(transactions)-1].BalanceAfter
		if wallet != nil && !wallet.Balance.Equal(final) {
			r.logger.Error("stored balance disagrees with replayed history",
				"wallet_id", walletID,
				"stored", wallet.Balance.String(), "replayed", final.String())
			ok = false
		}
	}
	return ok, nil
}

// walletByID reads the wallet row for the final-balance comparison.
func (r *Reconciler) walletByID(ctx context.Context, walletID int64) (*walletRow, error) {
	var row walletRow
	err := r.dbExecutor.GetContext(ctx, &row, `SELECT id, balance FROM wallets WHERE id = $1`, walletID)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

type walletRow struct {
	ID      int64           `db:"id"`
	Balance decimal.Decimal `db:"balance"`
}
