package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/loyalty-rewards-system/internal/model"
	"github.com/fairyhunter13/loyalty-rewards-system/pkg/database"
)

// LedgerPoolInterface defines the database operations needed by LedgerRepository.
type LedgerPoolInterface interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// LedgerRepository provides data access for ledger entries using pgx.
// Entries are append-only: there is no update or delete path.
type LedgerRepository struct {
	pool LedgerPoolInterface
}

// NewLedgerRepository creates a new LedgerRepository with the given pool.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// NewLedgerRepositoryWithPool creates a new LedgerRepository with a custom pool interface.
// This is primarily used for testing.
func NewLedgerRepositoryWithPool(pool LedgerPoolInterface) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// Insert appends a ledger entry within a transaction.
// The caller supplies BalanceAfter from the locked account row.
func (r *LedgerRepository) Insert(ctx context.Context, tx database.TxQuerier, entry *model.LedgerEntry) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO ledger_entries (id, account_id, amount, reason, ref_type, ref_id, balance_after)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.AccountID, entry.Amount, entry.Reason,
		entry.RefType, entry.RefID, entry.BalanceAfter)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// ListByAccount retrieves ledger entries for an account, newest first.
// On success, returns an empty slice (not nil) when no entries exist.
func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, filter model.HistoryFilter) ([]model.LedgerEntry, error) {
	query := `SELECT id, account_id, amount, reason, ref_type, ref_id, balance_after, created_at
	          FROM ledger_entries WHERE account_id = $1`
	args := []any{accountID}
	idx := 2

	if filter.Reason != nil {
		query += fmt.Sprintf(" AND reason = $%d", idx)
		args = append(args, *filter.Reason)
		idx++
	}
	if filter.From != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", idx)
		args = append(args, *filter.From)
		idx++
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", idx)
		args = append(args, *filter.To)
		idx++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries for %s: %w", accountID, err)
	}
	defer rows.Close()

	entries := make([]model.LedgerEntry, 0)
	for rows.Next() {
		var e model.LedgerEntry
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Amount, &e.Reason,
			&e.RefType, &e.RefID, &e.BalanceAfter, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger rows: %w", err)
	}

	return entries, nil
}
