package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/loyalty-rewards-system/internal/model"
	"github.com/fairyhunter13/loyalty-rewards-system/pkg/database"
)

// RedemptionRepositoryInterface defines the interface for redemption data access.
type RedemptionRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, red *model.Redemption) error
	CountByAccountAndCoupon(ctx context.Context, tx database.TxQuerier, accountID, couponID uuid.UUID) (int, error)
	CodeExists(ctx context.Context, tx database.TxQuerier, code string) (bool, error)
	GetByCode(ctx context.Context, code string) (*model.Redemption, error)
	GetByCodeForUpdate(ctx context.Context, tx database.TxQuerier, code string) (*model.Redemption, error)
	MarkUsed(ctx context.Context, tx database.TxQuerier, id uuid.UUID, usedAt time.Time, location string) error
	MarkExpired(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error
}

// RedemptionOptions tunes the redemption workflow.
type RedemptionOptions struct {
	TTL          time.Duration // redemption validity window
	CodeLength   int
	CodeAttempts int // collision-check retries before giving up
}

// RedemptionService is the only write path that moves points in exchange
// for a reward and the only producer of redemption records.
type RedemptionService struct {
	pool           TxBeginner
	accountRepo    AccountRepositoryInterface
	couponRepo     CouponRepositoryInterface
	ledgerRepo     LedgerRepositoryInterface
	redemptionRepo RedemptionRepositoryInterface
	opts           RedemptionOptions
}

// NewRedemptionService creates a new RedemptionService with the given pool and repositories.
func NewRedemptionService(pool *pgxpool.Pool, accountRepo AccountRepositoryInterface, couponRepo CouponRepositoryInterface, ledgerRepo LedgerRepositoryInterface, redemptionRepo RedemptionRepositoryInterface, opts RedemptionOptions) *RedemptionService {
	return newRedemptionService(pool, accountRepo, couponRepo, ledgerRepo, redemptionRepo, opts)
}

// NewRedemptionServiceWithTxBeginner creates a RedemptionService with a custom TxBeginner.
// Primarily used for testing.
func NewRedemptionServiceWithTxBeginner(pool TxBeginner, accountRepo AccountRepositoryInterface, couponRepo CouponRepositoryInterface, ledgerRepo LedgerRepositoryInterface, redemptionRepo RedemptionRepositoryInterface, opts RedemptionOptions) *RedemptionService {
	return newRedemptionService(pool, accountRepo, couponRepo, ledgerRepo, redemptionRepo, opts)
}

func newRedemptionService(pool TxBeginner, accountRepo AccountRepositoryInterface, couponRepo CouponRepositoryInterface, ledgerRepo LedgerRepositoryInterface, redemptionRepo RedemptionRepositoryInterface, opts RedemptionOptions) *RedemptionService {
	if opts.TTL <= 0 {
		opts.TTL = 30 * 24 * time.Hour
	}
	if opts.CodeLength <= 0 {
		opts.CodeLength = 8
	}
	if opts.CodeAttempts <= 0 {
		opts.CodeAttempts = 5
	}
	return &RedemptionService{
		pool:           pool,
		accountRepo:    accountRepo,
		couponRepo:     couponRepo,
		ledgerRepo:     ledgerRepo,
		redemptionRepo: redemptionRepo,
		opts:           opts,
	}
}

// Redeem atomically exchanges points for a coupon.
// The whole operation runs in a single transaction: the point debit and the
// redemption record are committed together or not at all.
//
// Lock order is always coupon row first, then account row. Concurrent
// redemptions of the same coupon serialize on the coupon lock (global cap,
// per-user cap); concurrent debits of the same account serialize on the
// account lock (balance).
//
// Returns:
//   - ErrCouponNotFound / ErrAccountNotFound if either is missing or inactive
//   - *RedemptionRejectedError with the precise reason when not eligible
func (s *RedemptionService) Redeem(ctx context.Context, accountID uuid.UUID, couponCode string, now time.Time) (*model.Redemption, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	coupon, err := s.couponRepo.GetByCodeForUpdate(ctx, tx, couponCode)
	if err != nil {
		return nil, err
	}

	account, err := s.accountRepo.GetForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}
	if account.Status != model.AccountActive {
		return nil, ErrAccountNotFound
	}

	prior, err := s.redemptionRepo.CountByAccountAndCoupon(ctx, tx, accountID, coupon.ID)
	if err != nil {
		return nil, fmt.Errorf("count prior redemptions: %w", err)
	}

	if err := CheckEligibility(coupon, prior, now); err != nil {
		return nil, err
	}

	if account.Balance < coupon.Cost {
		return nil, Reject(ReasonInsufficientPoints)
	}

	// Debit: balance update + ledger entry, inside this transaction.
	newBalance := account.Balance - coupon.Cost
	if err := s.accountRepo.UpdateBalance(ctx, tx, accountID, newBalance); err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	refType := "coupon"
	refID := coupon.ID.String()
	entry := &model.LedgerEntry{
		ID:           uuid.New(),
		AccountID:    accountID,
		Amount:       -coupon.Cost,
		Reason:       model.ReasonCouponRedeemed,
		RefType:      &refType,
		RefID:        &refID,
		BalanceAfter: newBalance,
	}
	if err := s.ledgerRepo.Insert(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("insert ledger entry: %w", err)
	}

	code, err := s.uniqueCode(ctx, tx)
	if err != nil {
		return nil, err
	}

	red := &model.Redemption{
		ID:          uuid.New(),
		CouponID:    coupon.ID,
		AccountID:   accountID,
		PointsSpent: coupon.Cost,
		Code:        code,
		Status:      model.RedemptionActive,
		ExpiresAt:   now.Add(s.opts.TTL),
		CreatedAt:   now,
	}
	if err := s.redemptionRepo.Insert(ctx, tx, red); err != nil {
		return nil, fmt.Errorf("insert redemption: %w", err)
	}

	if err := s.couponRepo.IncrementStats(ctx, tx, coupon.ID, prior == 0); err != nil {
		return nil, fmt.Errorf("increment stats: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return red, nil
}

// uniqueCode generates a redemption code, collision-checked against
// existing codes. The unique constraint on redemptions.code is the backstop.
func (s *RedemptionService) uniqueCode(ctx context.Context, tx database.TxQuerier) (string, error) {
	for attempt := 0; attempt < s.opts.CodeAttempts; attempt++ {
		code := generateRedemptionCode(s.opts.CodeLength)
		exists, err := s.redemptionRepo.CodeExists(ctx, tx, code)
		if err != nil {
			return "", fmt.Errorf("check code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("generate redemption code: %d attempts exhausted", s.opts.CodeAttempts)
}

// MarkUsed transitions an active redemption to used, recording where and
// when it was verified. Detecting an expired redemption materializes the
// expired status before the typed error is returned.
// Returns:
//   - ErrRedemptionNotFound if no redemption matches the code
//   - ErrAlreadyUsed if it was already marked used
//   - ErrRedemptionExpired if it is past its validity window
func (s *RedemptionService) MarkUsed(ctx context.Context, code, location string, now time.Time) (*model.Redemption, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	red, err := s.redemptionRepo.GetByCodeForUpdate(ctx, tx, code)
	if err != nil {
		return nil, err
	}

	switch red.Status {
	case model.RedemptionUsed:
		return nil, ErrAlreadyUsed
	case model.RedemptionExpired:
		return nil, ErrRedemptionExpired
	}

	if now.After(red.ExpiresAt) {
		// Lazy expiration: the read is the transition.
		if err := s.redemptionRepo.MarkExpired(ctx, tx, red.ID); err != nil {
			return nil, fmt.Errorf("mark expired: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		return nil, ErrRedemptionExpired
	}

	if err := s.redemptionRepo.MarkUsed(ctx, tx, red.ID, now, location); err != nil {
		return nil, fmt.Errorf("mark used: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	red.Status = model.RedemptionUsed
	red.UsedAt = &now
	red.UsedLocation = &location
	return red, nil
}

// GetByCode retrieves a redemption, materializing the expired status if its
// validity window has passed.
// Returns ErrRedemptionNotFound if no redemption matches the code.
func (s *RedemptionService) GetByCode(ctx context.Context, code string, now time.Time) (*model.Redemption, error) {
	red, err := s.redemptionRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get redemption: %w", err)
	}
	if red == nil {
		return nil, ErrRedemptionNotFound
	}

	if red.Status == model.RedemptionActive && now.After(red.ExpiresAt) {
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return nil, fmt.Errorf("begin tx: %w", err)
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if err := s.redemptionRepo.MarkExpired(ctx, tx, red.ID); err != nil {
			return nil, fmt.Errorf("mark expired: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		red.Status = model.RedemptionExpired
	}

	return red, nil
}
