package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/loyalty-rewards-system/internal/model"
	"github.com/fairyhunter13/loyalty-rewards-system/internal/service"
	"github.com/fairyhunter13/loyalty-rewards-system/pkg/database"
)

// AccountPoolInterface defines the database operations needed by AccountRepository.
type AccountPoolInterface interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository provides data access for accounts using pgx.
type AccountRepository struct {
	pool AccountPoolInterface
}

// NewAccountRepository creates a new AccountRepository with the given pool.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// NewAccountRepositoryWithPool creates a new AccountRepository with a custom pool interface.
// This is primarily used for testing.
func NewAccountRepositoryWithPool(pool AccountPoolInterface) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Insert inserts a new account within a transaction.
func (r *AccountRepository) Insert(ctx context.Context, tx database.TxQuerier, account *model.Account) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO accounts (id, balance, status) VALUES ($1, $2, $3)`,
		account.ID, account.Balance, account.Status)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// Get retrieves an account by ID.
// Returns nil, nil if the account is not found (service layer handles this).
func (r *AccountRepository) Get(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	query := `SELECT id, balance, status, created_at FROM accounts WHERE id = $1`

	var account model.Account
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&account.ID,
		&account.Balance,
		&account.Status,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found - let service handle
		}
		return nil, fmt.Errorf("get account %s: %w", id, err)
	}
	return &account, nil
}

// GetForUpdate retrieves an account with a row lock (SELECT FOR UPDATE).
// All balance mutations must go through this lock.
// Returns service.ErrAccountNotFound if the account doesn't exist.
func (r *AccountRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.Account, error) {
	query := `SELECT id, balance, status, created_at FROM accounts WHERE id = $1 FOR UPDATE`

	var account model.Account
	err := tx.QueryRow(ctx, query, id).Scan(
		&account.ID,
		&account.Balance,
		&account.Status,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account for update %s: %w", id, err)
	}
	return &account, nil
}

// UpdateBalance sets the account balance to the given value.
// Must be called within a transaction after locking the row.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx database.TxQuerier, id uuid.UUID, balance int) error {
	_, err := tx.Exec(ctx, `UPDATE accounts SET balance = $2 WHERE id = $1`, id, balance)
	if err != nil {
		return fmt.Errorf("update balance for %s: %w", id, err)
	}
	return nil
}

// SetStatus transitions the account lifecycle state.
// Returns service.ErrAccountNotFound if no row was updated.
func (r *AccountRepository) SetStatus(ctx context.Context, tx database.TxQuerier, id uuid.UUID, status model.AccountStatus) error {
	tag, err := tx.Exec(ctx, `UPDATE accounts SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("set status for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrAccountNotFound
	}
	return nil
}
