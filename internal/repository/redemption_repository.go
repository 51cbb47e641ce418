package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/loyalty-rewards-system/internal/model"
	"github.com/fairyhunter13/loyalty-rewards-system/internal/service"
	"github.com/fairyhunter13/loyalty-rewards-system/pkg/database"
)

const redemptionColumns = `id, coupon_id, account_id, points_spent, code, status,
	expires_at, used_at, used_location, created_at`

// RedemptionPoolInterface defines the database operations needed by RedemptionRepository.
type RedemptionPoolInterface interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RedemptionRepository provides data access for redemption records using pgx.
type RedemptionRepository struct {
	pool RedemptionPoolInterface
}

// NewRedemptionRepository creates a new RedemptionRepository with the given pool.
func NewRedemptionRepository(pool *pgxpool.Pool) *RedemptionRepository {
	return &RedemptionRepository{pool: pool}
}

// NewRedemptionRepositoryWithPool creates a new RedemptionRepository with a custom pool interface.
// This is primarily used for testing.
func NewRedemptionRepositoryWithPool(pool RedemptionPoolInterface) *RedemptionRepository {
	return &RedemptionRepository{pool: pool}
}

func scanRedemption(row pgx.Row) (*model.Redemption, error) {
	var red model.Redemption
	err := row.Scan(
		&red.ID, &red.CouponID, &red.AccountID, &red.PointsSpent, &red.Code,
		&red.Status, &red.ExpiresAt, &red.UsedAt, &red.UsedLocation, &red.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &red, nil
}

// Insert inserts a new redemption record within a transaction.
func (r *RedemptionRepository) Insert(ctx context.Context, tx database.TxQuerier, red *model.Redemption) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO redemptions (id, coupon_id, account_id, points_spent, code, status, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		red.ID, red.CouponID, red.AccountID, red.PointsSpent, red.Code, red.Status, red.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert redemption: %w", err)
	}
	return nil
}

// CountByAccountAndCoupon counts prior redemptions of a coupon by an account.
// Called within the redeem transaction, after the coupon row lock, so the
// per-user cap check cannot race with a concurrent redeem of the same coupon.
func (r *RedemptionRepository) CountByAccountAndCoupon(ctx context.Context, tx database.TxQuerier, accountID, couponID uuid.UUID) (int, error) {
	var count int
	err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM redemptions WHERE account_id = $1 AND coupon_id = $2`,
		accountID, couponID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count redemptions: %w", err)
	}
	return count, nil
}

// CodeExists reports whether a redemption code is already taken.
func (r *RedemptionRepository) CodeExists(ctx context.Context, tx database.TxQuerier, code string) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM redemptions WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check redemption code: %w", err)
	}
	return exists, nil
}

// GetByCode retrieves a redemption by its verification code.
// Returns nil, nil if not found (service layer handles this).
func (r *RedemptionRepository) GetByCode(ctx context.Context, code string) (*model.Redemption, error) {
	query := `SELECT ` + redemptionColumns + ` FROM redemptions WHERE code = $1`

	red, err := scanRedemption(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found - let service handle
		}
		return nil, fmt.Errorf("get redemption by code: %w", err)
	}
	return red, nil
}

// GetByCodeForUpdate retrieves a redemption with a row lock (SELECT FOR UPDATE).
// Returns service.ErrRedemptionNotFound if no redemption matches the code.
func (r *RedemptionRepository) GetByCodeForUpdate(ctx context.Context, tx database.TxQuerier, code string) (*model.Redemption, error) {
	query := `SELECT ` + redemptionColumns + ` FROM redemptions WHERE code = $1 FOR UPDATE`

	red, err := scanRedemption(tx.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrRedemptionNotFound
		}
		return nil, fmt.Errorf("get redemption for update: %w", err)
	}
	return red, nil
}

// MarkUsed transitions an active redemption to used, recording metadata.
func (r *RedemptionRepository) MarkUsed(ctx context.Context, tx database.TxQuerier, id uuid.UUID, usedAt time.Time, location string) error {
	_, err := tx.Exec(ctx,
		`UPDATE redemptions SET status = $2, used_at = $3, used_location = $4 WHERE id = $1`,
		id, model.RedemptionUsed, usedAt, location)
	if err != nil {
		return fmt.Errorf("mark redemption used: %w", err)
	}
	return nil
}

// MarkExpired materializes the expired status for a redemption past its TTL.
// Only active redemptions transition; used is terminal, so a concurrently
// committed used status is never overwritten.
func (r *RedemptionRepository) MarkExpired(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`UPDATE redemptions SET status = $2 WHERE id = $1 AND status = $3`,
		id, model.RedemptionExpired, model.RedemptionActive)
	if err != nil {
		return fmt.Errorf("mark redemption expired: %w", err)
	}
	return nil
}
