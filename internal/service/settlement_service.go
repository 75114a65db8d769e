// internal/service/settlement_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"parkledger/internal/domain"
	"parkledger/internal/repository"
	"parkledger/internal/tariff"
	"parkledger/internal/util"
	"parkledger/pkg/db"
)

// SettlementResult is what the session-closing workflow gets back.
type SettlementResult struct {
	SessionID     string               `json:"session_id"`
	Status        domain.SessionStatus `json:"status"`
	Amount        decimal.Decimal      `json:"amount"`
	TransactionID *int64               `json:"transaction_id,omitempty"`
	Reason        string               `json:"reason,omitempty"`
}

// SettlementService converts CLOSED parking sessions into ledger
// transactions. Settle is idempotent at two levels: the session id keys the
// ledger effect, and an already-SETTLED session short-circuits to its stored
// result.
type SettlementService interface {
	Settle(ctx context.Context, sessionID string) (*SettlementResult, error)
}

type settlementService struct {
	dbBeginner      db.DBTxBeginner
	dbExecutor      repository.DBExecutor
	sessionRepo     repository.SessionRepository
	transactionRepo repository.TransactionRepository
	resolver        PricingResolver
	ledger          LedgerService
	beginTx         db.BeginTxFunc
	commitTx        db.CommitTxFunc
	rollbackTx      db.RollbackTxFunc
	logger          *slog.Logger
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	sessionRepo repository.SessionRepository,
	transactionRepo repository.TransactionRepository,
	resolver PricingResolver,
	ledger LedgerService,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
	logger *slog.Logger,
) SettlementService {
	return &settlementService{
		dbBeginner:      dbBeginner,
		dbExecutor:      dbExecutor,
		sessionRepo:     sessionRepo,
		transactionRepo: transactionRepo,
		resolver:        resolver,
		ledger:          ledger,
		beginTx:         beginTx,
		commitTx:        commitTx,
		rollbackTx:      rollbackTx,
		logger:          logger,
	}
}

// Settle runs the settlement state machine for one session.
//
// The session row is locked FOR UPDATE for the whole attempt, so duplicate
// exit-event deliveries serialize: the first one settles, the second re-reads
// a SETTLED session and returns the stored result. The ledger call itself
// runs in its own transaction; if this function dies between ledger commit
// and session-status commit, the session stays CLOSED and the next Settle
// replays the ledger idempotently before fixing the status.
func (s *settlementService) Settle(ctx context.Context, sessionID string) (*SettlementResult, error) {
	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("settle: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("settle: transaction controller does not implement DBExecutor")
	}

	session, err := s.sessionRepo.GetSessionByIDForUpdate(ctx, txExecutor, sessionID)
	if err != nil {
		return nil, fmt.Errorf("settle: %w", err)
	}

	switch session.Status {
	case domain.SessionStatusSettled:
		return s.priorResult(ctx, session), nil
	case domain.SessionStatusClosed:
		// proceed
	default:
		return nil, fmt.Errorf("settle: session %s is %s: %w", sessionID, session.Status, util.ErrSessionNotClosed)
	}
	if session.ExitTime == nil {
		// CLOSED without an exit time is upstream data corruption.
		return s.fail(ctx, txController, txExecutor, session, nil, util.ErrInvalidInterval)
	}

	rule, err := s.resolver.Resolve(ctx, txExecutor, session.LotID, session.VehicleType, session.PricingRuleID, *session.ExitTime)
	if err != nil {
		return s.fail(ctx, txController, txExecutor, session, nil, err)
	}

	amount, err := tariff.Compute(session.EntryTime, *session.ExitTime, *rule)
	if err != nil {
		return s.fail(ctx, txController, txExecutor, session, nil, err)
	}

	result := &SettlementResult{SessionID: session.ID, Status: domain.SessionStatusSettled, Amount: amount}

	if amount.IsPositive() {
		// The session id is the idempotency key: at most one financial
		// effect per session, no matter how often settlement is retried.
		transaction, err := s.ledger.ApplyTransaction(ctx, ApplyTransactionInput{
			UserID:                session.UserID,
			Type:                  domain.TransactionTypeDeduction,
			Amount:                amount,
			Fee:                   decimal.Zero,
			Currency:              rule.Currency,
			ExternalTransactionID: session.ID,
			SessionID:             &session.ID,
			Description:           settlementDescription(session),
		})
		if err != nil {
			if util.IsError(err, util.ErrInsufficientBalance) || util.IsError(err, util.ErrWalletInactive) || util.IsError(err, util.ErrWalletNotFound) {
				// The amount owed is still recorded for manual collection.
				return s.fail(ctx, txController, txExecutor, session, &amount, err)
			}
			return nil, fmt.Errorf("settle: ledger rejected session %s: %w", sessionID, err)
		}
		result.TransactionID = &transaction.ID
	}

	if err := s.sessionRepo.MarkSettled(ctx, txExecutor, session.ID, amount); err != nil {
		return nil, fmt.Errorf("settle: %w: %v", util.ErrSettlementPersistence, err)
	}
	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("settle: commit failed: %w: %v", util.ErrSettlementPersistence, err)
	}

	s.logger.Info("session settled", "session_id", session.ID, "amount", amount.String())
	return result, nil
}

// fail marks the session SETTLEMENT_FAILED with the taxonomy reason, commits
// that transition, and returns a structured failure result alongside the
// causing error.
func (s *settlementService) fail(ctx context.Context, txController db.TxController, txExecutor repository.DBExecutor, session *domain.ParkingSession, amount *decimal.Decimal, cause error) (*SettlementResult, error) {
	reason := util.ReasonCode(cause)
	if err := s.sessionRepo.MarkSettlementFailed(ctx, txExecutor, session.ID, amount, reason); err != nil {
		return nil, fmt.Errorf("settle: failed to record failure for session %s: %w", session.ID, err)
	}
	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("settle: commit of failure state failed: %w: %v", util.ErrSettlementPersistence, err)
	}

	result := &SettlementResult{
		SessionID: session.ID,
		Status:    domain.SessionStatusSettlementFailed,
		Reason:    reason,
	}
	if amount != nil {
		result.Amount = *amount
	}
	s.logger.Warn("session settlement failed", "session_id", session.ID, "reason", reason, "error", cause)
	return result, cause
}

// priorResult reconstructs the result of an earlier successful settlement.
func (s *settlementService) priorResult(ctx context.Context, session *domain.ParkingSession) *SettlementResult {
	result := &SettlementResult{SessionID: session.ID, Status: domain.SessionStatusSettled}
	if session.TotalAmount.Valid {
		result.Amount = session.TotalAmount.Decimal
	}
	if transaction, err := s.transactionRepo.GetByExternalID(ctx, s.dbExecutor, session.ID); err == nil {
		result.TransactionID = &transaction.ID
	}
	return result
}

func settlementDescription(session *domain.ParkingSession) *string {
	d := fmt.Sprintf("parking session %s, lot %d", session.ID, session.LotID)
	return &d
}
