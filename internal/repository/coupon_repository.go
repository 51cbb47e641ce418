package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/loyalty-rewards-system/internal/model"
	"github.com/fairyhunter13/loyalty-rewards-system/internal/service"
	"github.com/fairyhunter13/loyalty-rewards-system/pkg/database"
)

const couponColumns = `id, code, title, description, discount, cost, valid_from, valid_until,
	total_cap, per_user_cap, featured, status, total_redemptions, unique_users, created_at`

// CouponPoolInterface defines the database operations needed by CouponRepository.
type CouponPoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// CouponRepository provides data access for coupons using pgx.
type CouponRepository struct {
	pool CouponPoolInterface
}

// NewCouponRepository creates a new CouponRepository with the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// NewCouponRepositoryWithPool creates a new CouponRepository with a custom pool interface.
// This is primarily used for testing.
func NewCouponRepositoryWithPool(pool CouponPoolInterface) *CouponRepository {
	return &CouponRepository{pool: pool}
}

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var c model.Coupon
	err := row.Scan(
		&c.ID, &c.Code, &c.Title, &c.Description, &c.Discount, &c.Cost,
		&c.ValidFrom, &c.ValidUntil, &c.TotalCap, &c.PerUserCap,
		&c.Featured, &c.Status, &c.TotalRedemptions, &c.UniqueUsers, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Insert inserts a new coupon into the database.
// Returns service.ErrCouponExists if a coupon with the same code already exists.
func (r *CouponRepository) Insert(ctx context.Context, coupon *model.Coupon) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO coupons (id, code, title, description, discount, cost, valid_from, valid_until,
		                      total_cap, per_user_cap, featured, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		coupon.ID, coupon.Code, coupon.Title, coupon.Description, coupon.Discount, coupon.Cost,
		coupon.ValidFrom, coupon.ValidUntil, coupon.TotalCap, coupon.PerUserCap,
		coupon.Featured, coupon.Status)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrCouponExists
		}
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

// GetByCode retrieves a coupon by its code.
// Returns nil, nil if the coupon is not found (service layer handles this).
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	coupon, err := scanCoupon(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found - let service handle
		}
		return nil, fmt.Errorf("get coupon by code %s: %w", code, err)
	}
	return coupon, nil
}

// GetByCodeForUpdate retrieves a coupon with a row lock (SELECT FOR UPDATE).
// Redeem takes this lock first, before the account lock, so that concurrent
// redemptions of the same coupon serialize here.
// Returns service.ErrCouponNotFound if the coupon doesn't exist.
func (r *CouponRepository) GetByCodeForUpdate(ctx context.Context, tx database.TxQuerier, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1 FOR UPDATE`

	coupon, err := scanCoupon(tx.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrCouponNotFound
		}
		return nil, fmt.Errorf("get coupon for update %s: %w", code, err)
	}
	return coupon, nil
}

// IncrementStats bumps the redemption counters after a successful redemption.
// firstForUser controls whether unique_users is incremented.
// Must be called within a transaction after locking the row.
func (r *CouponRepository) IncrementStats(ctx context.Context, tx database.TxQuerier, id uuid.UUID, firstForUser bool) error {
	uniqueDelta := 0
	if firstForUser {
		uniqueDelta = 1
	}
	_, err := tx.Exec(ctx,
		`UPDATE coupons SET total_redemptions = total_redemptions + 1, unique_users = unique_users + $2
		 WHERE id = $1`,
		id, uniqueDelta)
	if err != nil {
		return fmt.Errorf("increment stats for %s: %w", id, err)
	}
	return nil
}

// ListFeatured retrieves currently-valid featured coupons, cheapest first.
func (r *CouponRepository) ListFeatured(ctx context.Context, now time.Time, limit int) ([]model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons
	          WHERE featured AND status = 'active' AND valid_from <= $1 AND valid_until >= $1
	          ORDER BY cost ASC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list featured coupons: %w", err)
	}
	return collectCoupons(rows)
}

// ListAvailable retrieves coupons the account can redeem right now:
// valid, active, affordable, global cap not reached, per-user cap not reached.
// Ordered by (featured desc, cost asc).
func (r *CouponRepository) ListAvailable(ctx context.Context, accountID uuid.UUID, balance int, now time.Time) ([]model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons c
	          WHERE c.status = 'active'
	            AND c.valid_from <= $2 AND c.valid_until >= $2
	            AND c.cost <= $3
	            AND (c.total_cap IS NULL OR c.total_redemptions < c.total_cap)
	            AND (SELECT COUNT(*) FROM redemptions r
	                 WHERE r.coupon_id = c.id AND r.account_id = $1) < c.per_user_cap
	          ORDER BY c.featured DESC, c.cost ASC`

	rows, err := r.pool.Query(ctx, query, accountID, now, balance)
	if err != nil {
		return nil, fmt.Errorf("list available coupons for %s: %w", accountID, err)
	}
	return collectCoupons(rows)
}

func collectCoupons(rows pgx.Rows) ([]model.Coupon, error) {
	defer rows.Close()

	coupons := make([]model.Coupon, 0)
	for rows.Next() {
		coupon, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, *coupon)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coupon rows: %w", err)
	}

	return coupons, nil
}
