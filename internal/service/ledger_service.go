// internal/service/ledger_service.go
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"parkledger/internal/domain"
	"parkledger/internal/repository"
	"parkledger/internal/util"
	"parkledger/pkg/db"
)

// uniqueViolation is the PostgreSQL error code for a unique-constraint
// violation, raised when two writers race on the same idempotency key.
const uniqueViolation = pq.ErrorCode("23505")

// ApplyTransactionInput describes one balance mutation.
type ApplyTransactionInput struct {
	UserID                int64
	Type                  domain.TransactionType
	Amount                decimal.Decimal
	Fee                   decimal.Decimal
	Currency              string // empty → wallet currency, no check
	ExternalTransactionID string // idempotency key, required
	SessionID             *string
	Description           *string
}

// LedgerService owns wallet balance state. Every mutation is an atomic
// read-compute-write cycle under an exclusive per-wallet lock, paired with an
// append-only transaction record; the two are committed together or not at
// all.
type LedgerService interface {
	// ApplyTransaction applies a debit or credit exactly once per external
	// transaction id. Retries with the same key return the original record.
	ApplyTransaction(ctx context.Context, input ApplyTransactionInput) (*domain.WalletTransaction, error)
	// TopUp credits a wallet, generating a fresh external transaction id.
	TopUp(ctx context.Context, userID int64, amount decimal.Decimal, currency string) (*domain.Wallet, *domain.WalletTransaction, error)
	// GetWallet returns the wallet read-only projection.
	GetWallet(ctx context.Context, userID int64) (*domain.Wallet, error)
	// GetStatement returns a page of a wallet's transaction history.
	GetStatement(ctx context.Context, userID int64, limit, offset int) ([]domain.WalletTransaction, int64, error)
}

type ledgerService struct {
	dbBeginner      db.DBTxBeginner
	dbExecutor      repository.DBExecutor
	walletRepo      repository.WalletRepository
	transactionRepo repository.TransactionRepository
	beginTx         db.BeginTxFunc
	commitTx        db.CommitTxFunc
	rollbackTx      db.RollbackTxFunc
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	walletRepo repository.WalletRepository,
	transactionRepo repository.TransactionRepository,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
) LedgerService {
	return &ledgerService{
		dbBeginner:      dbBeginner,
		dbExecutor:      dbExecutor,
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		beginTx:         beginTx,
		commitTx:        commitTx,
		rollbackTx:      rollbackTx,
	}
}

// ApplyTransaction applies a single balance mutation.
//
// Sequence inside one database transaction: idempotency pre-check, exclusive
// wallet lock, policy checks, balance write, transaction insert, commit. No
// external call happens while the lock is held, and a failure anywhere before
// commit leaves no partial effect.
func (s *ledgerService) ApplyTransaction(ctx context.Context, input ApplyTransactionInput) (*domain.WalletTransaction, error) {
	if !input.Type.IsValid() || input.ExternalTransactionID == "" {
		return nil, util.ErrInvalidInput
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) || input.Fee.IsNegative() {
		return nil, util.ErrInvalidInput
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("apply transaction: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("apply transaction: transaction controller does not implement DBExecutor")
	}

	// Idempotent replay: a prior COMPLETED or in-flight record with the same
	// key means the financial effect already exists.
	existing, err := s.transactionRepo.GetByExternalID(ctx, txExecutor, input.ExternalTransactionID)
	if err == nil {
		if existing.Status == domain.TransactionStatusCompleted || existing.Status == domain.TransactionStatusPending {
			return existing, nil
		}
		return nil, fmt.Errorf("apply transaction: external id %s already used by a %s transaction: %w",
			input.ExternalTransactionID, existing.Status, util.ErrInvalidInput)
	}
	if !util.IsError(err, util.ErrNotFound) {
		return nil, fmt.Errorf("apply transaction: failed idempotency check: %w", err)
	}

	wallet, err := s.walletRepo.GetWalletByUserIDForUpdate(ctx, txExecutor, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("apply transaction: failed to lock wallet for user %d: %w", input.UserID, err)
	}
	if !wallet.IsActive {
		return nil, util.ErrWalletInactive
	}
	if input.Currency != "" && wallet.Currency != input.Currency {
		return nil, util.ErrCurrencyMismatch
	}

	balanceBefore := wallet.Balance
	var net, balanceAfter decimal.Decimal
	if input.Type.IsDebit() {
		net = input.Amount.Add(input.Fee)
		if balanceBefore.LessThan(net) && !wallet.AllowOverdraft {
			return nil, util.ErrInsufficientBalance
		}
		balanceAfter = balanceBefore.Sub(net)
	} else {
		net = input.Amount.Sub(input.Fee)
		if net.IsNegative() {
			return nil, util.ErrInvalidInput
		}
		balanceAfter = balanceBefore.Add(net)
	}

	if err := s.walletRepo.UpdateWalletBalance(ctx, txExecutor, wallet.ID, balanceAfter, wallet.Version); err != nil {
		return nil, fmt.Errorf("apply transaction: %w", err)
	}

	transaction := domain.NewWalletTransaction(
		wallet.ID, input.SessionID, input.Type,
		input.Amount, input.Fee, net,
		balanceBefore, balanceAfter,
		input.ExternalTransactionID, input.Description,
	)
	if err := s.transactionRepo.CreateTransaction(ctx, txExecutor, transaction); err != nil {
		if isUniqueViolation(err) {
			// A concurrent writer committed the same key between our
			// pre-check and insert. Their effect stands; hand back theirs.
			s.rollbackTx(txController)
			return s.replayExisting(ctx, input.ExternalTransactionID)
		}
		return nil, fmt.Errorf("apply transaction: %w: %v", util.ErrSettlementPersistence, err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("apply transaction: commit failed: %w: %v", util.ErrSettlementPersistence, err)
	}

	return transaction, nil
}

// replayExisting fetches the transaction a concurrent writer won with.
func (s *ledgerService) replayExisting(ctx context.Context, externalTransactionID string) (*domain.WalletTransaction, error) {
	existing, err := s.transactionRepo.GetByExternalID(ctx, s.dbExecutor, externalTransactionID)
	if err != nil {
		return nil, fmt.Errorf("apply transaction: duplicate key but record unreadable: %w: %v", util.ErrSettlementPersistence, err)
	}
	return existing, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if util.AsError(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}

// TopUp credits a wallet. The generated uuid keys the operation so a retried
// HTTP request cannot double-credit once the caller reuses the returned id.
func (s *ledgerService) TopUp(ctx context.Context, userID int64, amount decimal.Decimal, currency string) (*domain.Wallet, *domain.WalletTransaction, error) {
	transaction, err := s.ApplyTransaction(ctx, ApplyTransactionInput{
		UserID:                userID,
		Type:                  domain.TransactionTypeTopUp,
		Amount:                amount,
		Fee:                   decimal.Zero,
		Currency:              currency,
		ExternalTransactionID: uuid.NewString(),
	})
	if err != nil {
		return nil, nil, err
	}
	wallet, err := s.walletRepo.GetWalletByUserID(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("top up: failed to re-fetch wallet for user %d: %w", userID, err)
	}
	return wallet, transaction, nil
}

// GetWallet returns the wallet for a user.
func (s *ledgerService) GetWallet(ctx context.Context, userID int64) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetWalletByUserID(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return wallet, nil
}

// GetStatement returns a page of a wallet's transaction history.
func (s *ledgerService) GetStatement(ctx context.Context, userID int64, limit, offset int) ([]domain.WalletTransaction, int64, error) {
	wallet, err := s.walletRepo.GetWalletByUserID(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("get statement: %w", err)
	}
	transactions, totalCount, err := s.transactionRepo.GetTransactionsByWalletID(ctx, s.dbExecutor, wallet.ID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("get statement: %w", err)
	}
	return transactions, totalCount, nil
}
