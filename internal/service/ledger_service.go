package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/loyalty-rewards-system/internal/model"
	"github.com/fairyhunter13/loyalty-rewards-system/pkg/database"
)

// AccountRepositoryInterface defines the interface for account data access.
type AccountRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, account *model.Account) error
	Get(ctx context.Context, id uuid.UUID) (*model.Account, error)
	GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.Account, error)
	UpdateBalance(ctx context.Context, tx database.TxQuerier, id uuid.UUID, balance int) error
	SetStatus(ctx context.Context, tx database.TxQuerier, id uuid.UUID, status model.AccountStatus) error
}

// LedgerRepositoryInterface defines the interface for ledger data access.
type LedgerRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, entry *model.LedgerEntry) error
	ListByAccount(ctx context.Context, accountID uuid.UUID, filter model.HistoryFilter) ([]model.LedgerEntry, error)
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// LedgerService maintains the append-only history of point movements and
// the derived account balances. Every mutation locks the account row so
// the balance always equals the sum of the account's entries.
type LedgerService struct {
	pool         TxBeginner
	accountRepo  AccountRepositoryInterface
	ledgerRepo   LedgerRepositoryInterface
	welcomeBonus int
}

// NewLedgerService creates a new LedgerService with the given pool and repositories.
func NewLedgerService(pool *pgxpool.Pool, accountRepo AccountRepositoryInterface, ledgerRepo LedgerRepositoryInterface, welcomeBonus int) *LedgerService {
	return &LedgerService{
		pool:         pool,
		accountRepo:  accountRepo,
		ledgerRepo:   ledgerRepo,
		welcomeBonus: welcomeBonus,
	}
}

// NewLedgerServiceWithTxBeginner creates a LedgerService with a custom TxBeginner.
// Primarily used for testing.
func NewLedgerServiceWithTxBeginner(pool TxBeginner, accountRepo AccountRepositoryInterface, ledgerRepo LedgerRepositoryInterface, welcomeBonus int) *LedgerService {
	return &LedgerService{
		pool:         pool,
		accountRepo:  accountRepo,
		ledgerRepo:   ledgerRepo,
		welcomeBonus: welcomeBonus,
	}
}

// CreateAccount creates a new active account and grants the welcome bonus
// in the same transaction, so a new account is never visible with a zero
// balance and no ledger entry.
func (s *LedgerService) CreateAccount(ctx context.Context) (*model.Account, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	account := &model.Account{
		ID:     uuid.New(),
		Status: model.AccountActive,
	}
	if err := s.accountRepo.Insert(ctx, tx, account); err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}

	if s.welcomeBonus > 0 {
		account.Balance = s.welcomeBonus
		if err := s.accountRepo.UpdateBalance(ctx, tx, account.ID, account.Balance); err != nil {
			return nil, fmt.Errorf("apply welcome bonus: %w", err)
		}
		entry := &model.LedgerEntry{
			ID:           uuid.New(),
			AccountID:    account.ID,
			Amount:       s.welcomeBonus,
			Reason:       model.ReasonWelcomeBonus,
			BalanceAfter: account.Balance,
		}
		if err := s.ledgerRepo.Insert(ctx, tx, entry); err != nil {
			return nil, fmt.Errorf("insert welcome entry: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return account, nil
}

// Grant increases the account balance and appends a ledger entry.
// Returns:
//   - ErrInvalidAmount if amount is not positive
//   - ErrInvalidRequest if the reason code is unknown
//   - ErrAccountNotFound if the account is missing or deactivated
func (s *LedgerService) Grant(ctx context.Context, accountID uuid.UUID, amount int, reason model.Reason, ref *model.Ref) (*model.LedgerEntry, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.apply(ctx, accountID, amount, reason, ref)
}

// Debit decreases the account balance and appends a ledger entry.
// A debit that would leave a negative balance is entirely rejected with
// ErrInsufficientBalance; nothing is written.
func (s *LedgerService) Debit(ctx context.Context, accountID uuid.UUID, amount int, reason model.Reason, ref *model.Ref) (*model.LedgerEntry, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.apply(ctx, accountID, -amount, reason, ref)
}

// Adjust applies a signed admin adjustment. Positive deltas grant,
// negative deltas debit; zero is rejected.
func (s *LedgerService) Adjust(ctx context.Context, accountID uuid.UUID, delta int) (*model.LedgerEntry, error) {
	if delta == 0 {
		return nil, ErrInvalidAmount
	}
	return s.apply(ctx, accountID, delta, model.ReasonAdminAdjustment, nil)
}

// apply locks the account row and writes the balance update together with
// the ledger entry in one transaction.
func (s *LedgerService) apply(ctx context.Context, accountID uuid.UUID, amount int, reason model.Reason, ref *model.Ref) (*model.LedgerEntry, error) {
	if !reason.Valid() {
		return nil, ErrInvalidRequest
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	account, err := s.accountRepo.GetForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}
	if account.Status != model.AccountActive {
		return nil, ErrAccountNotFound
	}

	newBalance := account.Balance + amount
	if newBalance < 0 {
		return nil, ErrInsufficientBalance
	}

	if err := s.accountRepo.UpdateBalance(ctx, tx, accountID, newBalance); err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	entry := &model.LedgerEntry{
		ID:           uuid.New(),
		AccountID:    accountID,
		Amount:       amount,
		Reason:       reason,
		BalanceAfter: newBalance,
	}
	if ref != nil {
		entry.RefType = &ref.Type
		entry.RefID = &ref.ID
	}
	if err := s.ledgerRepo.Insert(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("insert ledger entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return entry, nil
}

// Balance returns the current account balance.
// Returns ErrAccountNotFound if the account doesn't exist.
func (s *LedgerService) Balance(ctx context.Context, accountID uuid.UUID) (int, error) {
	account, err := s.accountRepo.Get(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		return 0, ErrAccountNotFound
	}
	return account.Balance, nil
}

// History returns the account's ledger entries, newest first.
func (s *LedgerService) History(ctx context.Context, accountID uuid.UUID, filter model.HistoryFilter) ([]model.LedgerEntry, error) {
	account, err := s.accountRepo.Get(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return s.ledgerRepo.ListByAccount(ctx, accountID, filter)
}

// Deactivate transitions the account to the deactivated state.
// Ledger history is retained.
func (s *LedgerService) Deactivate(ctx context.Context, accountID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.accountRepo.SetStatus(ctx, tx, accountID, model.AccountDeactivated); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
