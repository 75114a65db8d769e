// internal/service/mocks_test.go
package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"parkledger/internal/domain"
	"parkledger/internal/repository"
	"parkledger/pkg/db"
)

// MockDBExecutor is a mock implementation of repository.DBExecutor.
type MockDBExecutor struct {
	mock.Mock
}

func (m *MockDBExecutor) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	argsCalled := m.Called(ctx, query, args)
	return argsCalled.Get(0).(sql.Result), argsCalled.Error(1)
}

func (m *MockDBExecutor) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	m.Called(ctx, query, args)
	return &sql.Row{}
}

// MockTxController is a mock transaction controller that also satisfies
// repository.DBExecutor, mirroring how *sqlx.Tx plays both roles.
type MockTxController struct {
	mock.Mock
	MockDBExecutor
}

func (m *MockTxController) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTxController) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// txManagerFor wires a service's tx-manager hooks to a single controller.
func txManagerFor(controller *MockTxController) (db.BeginTxFunc, db.CommitTxFunc, db.RollbackTxFunc) {
	return func(ctx context.Context, dbConn db.DBTxBeginner) (db.TxController, error) {
			return controller, nil
		}, func(tx db.TxController) error {
			return tx.Commit()
		}, func(tx db.TxController) {
			_ = tx.Rollback()
		}
}

// MockWalletRepository is a mock implementation of repository.WalletRepository.
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) CreateWallet(ctx context.Context, q repository.DBExecutor, wallet *domain.Wallet) error {
	args := m.Called(ctx, q, wallet)
	return args.Error(0)
}

func (m *MockWalletRepository) GetWalletByUserID(ctx context.Context, q repository.DBExecutor, userID int64) (*domain.Wallet, error) {
	args := m.Called(ctx, q, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetWalletByUserIDForUpdate(ctx context.Context, q repository.DBExecutor, userID int64) (*domain.Wallet, error) {
	args := m.Called(ctx, q, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) UpdateWalletBalance(ctx context.Context, q repository.DBExecutor, walletID int64, newBalance decimal.Decimal, expectedVersion int64) error {
	args := m.Called(ctx, q, walletID, newBalance, expectedVersion)
	return args.Error(0)
}

func (m *MockWalletRepository) ListWalletIDs(ctx context.Context, q repository.DBExecutor) ([]int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockTransactionRepository is a mock implementation of
// repository.TransactionRepository.
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) CreateTransaction(ctx context.Context, q repository.DBExecutor, transaction *domain.WalletTransaction) error {
	args := m.Called(ctx, q, transaction)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByExternalID(ctx context.Context, q repository.DBExecutor, externalTransactionID string) (*domain.WalletTransaction, error) {
	args := m.Called(ctx, q, externalTransactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WalletTransaction), args.Error(1)
}

func (m *MockTransactionRepository) GetTransactionsByWalletID(ctx context.Context, q repository.DBExecutor, walletID int64, limit, offset int) ([]domain.WalletTransaction, int64, error) {
	args := m.Called(ctx, q, walletID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]domain.WalletTransaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockTransactionRepository) ListCompletedByWalletAsc(ctx context.Context, q repository.DBExecutor, walletID int64) ([]domain.WalletTransaction, error) {
	args := m.Called(ctx, q, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WalletTransaction), args.Error(1)
}

// MockSessionRepository is a mock implementation of
// repository.SessionRepository.
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) CreateSession(ctx context.Context, q repository.DBExecutor, session *domain.ParkingSession) error {
	args := m.Called(ctx, q, session)
	return args.Error(0)
}

func (m *MockSessionRepository) GetSessionByID(ctx context.Context, q repository.DBExecutor, id string) (*domain.ParkingSession, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParkingSession), args.Error(1)
}

func (m *MockSessionRepository) GetSessionByIDForUpdate(ctx context.Context, q repository.DBExecutor, id string) (*domain.ParkingSession, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParkingSession), args.Error(1)
}

func (m *MockSessionRepository) FindOpenByVehicle(ctx context.Context, q repository.DBExecutor, lotID int64, vehicleID string) (*domain.ParkingSession, error) {
	args := m.Called(ctx, q, lotID, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParkingSession), args.Error(1)
}

func (m *MockSessionRepository) CloseSession(ctx context.Context, q repository.DBExecutor, id string, exitTime time.Time) error {
	args := m.Called(ctx, q, id, exitTime)
	return args.Error(0)
}

func (m *MockSessionRepository) MarkSettled(ctx context.Context, q repository.DBExecutor, id string, totalAmount decimal.Decimal) error {
	args := m.Called(ctx, q, id, totalAmount)
	return args.Error(0)
}

func (m *MockSessionRepository) MarkSettlementFailed(ctx context.Context, q repository.DBExecutor, id string, totalAmount *decimal.Decimal, reason string) error {
	args := m.Called(ctx, q, id, totalAmount, reason)
	return args.Error(0)
}

// MockPricingRuleRepository is a mock implementation of
// repository.PricingRuleRepository.
type MockPricingRuleRepository struct {
	mock.Mock
}

func (m *MockPricingRuleRepository) GetRuleByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.PricingRule, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PricingRule), args.Error(1)
}

func (m *MockPricingRuleRepository) GetDefaultRule(ctx context.Context, q repository.DBExecutor, lotID int64, vehicleType domain.VehicleType, at time.Time) (*domain.PricingRule, error) {
	args := m.Called(ctx, q, lotID, vehicleType, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PricingRule), args.Error(1)
}

// MockLedgerService is a mock implementation of LedgerService for the
// settlement tests.
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) ApplyTransaction(ctx context.Context, input ApplyTransactionInput) (*domain.WalletTransaction, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WalletTransaction), args.Error(1)
}

func (m *MockLedgerService) TopUp(ctx context.Context, userID int64, amount decimal.Decimal, currency string) (*domain.Wallet, *domain.WalletTransaction, error) {
	args := m.Called(ctx, userID, amount, currency)
	var wallet *domain.Wallet
	var transaction *domain.WalletTransaction
	if args.Get(0) != nil {
		wallet = args.Get(0).(*domain.Wallet)
	}
	if args.Get(1) != nil {
		transaction = args.Get(1).(*domain.WalletTransaction)
	}
	return wallet, transaction, args.Error(2)
}

func (m *MockLedgerService) GetWallet(ctx context.Context, userID int64) (*domain.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockLedgerService) GetStatement(ctx context.Context, userID int64, limit, offset int) ([]domain.WalletTransaction, int64, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]domain.WalletTransaction), args.Get(1).(int64), args.Error(2)
}
