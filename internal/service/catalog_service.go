package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fairyhunter13/loyalty-rewards-system/internal/model"
	"github.com/fairyhunter13/loyalty-rewards-system/pkg/database"
)

// CouponRepositoryInterface defines the interface for coupon data access.
type CouponRepositoryInterface interface {
	Insert(ctx context.Context, coupon *model.Coupon) error
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	GetByCodeForUpdate(ctx context.Context, tx database.TxQuerier, code string) (*model.Coupon, error)
	IncrementStats(ctx context.Context, tx database.TxQuerier, id uuid.UUID, firstForUser bool) error
	ListFeatured(ctx context.Context, now time.Time, limit int) ([]model.Coupon, error)
	ListAvailable(ctx context.Context, accountID uuid.UUID, balance int, now time.Time) ([]model.Coupon, error)
}

// FeaturedCache caches the featured-coupon listing. Implementations must
// degrade to misses on any backend failure.
type FeaturedCache interface {
	Get(ctx context.Context, limit int) ([]model.Coupon, bool)
	Set(ctx context.Context, limit int, coupons []model.Coupon)
}

const defaultFeaturedLimit = 10

// CatalogService exposes which coupons exist and which are redeemable
// for a given account. Read-only apart from coupon creation.
type CatalogService struct {
	couponRepo  CouponRepositoryInterface
	accountRepo AccountRepositoryInterface
	cache       FeaturedCache // nil disables caching
}

// NewCatalogService creates a new CatalogService.
// cache may be nil, in which case featured listings always hit the database.
func NewCatalogService(couponRepo CouponRepositoryInterface, accountRepo AccountRepositoryInterface, cache FeaturedCache) *CatalogService {
	return &CatalogService{
		couponRepo:  couponRepo,
		accountRepo: accountRepo,
		cache:       cache,
	}
}

// CheckEligibility applies the catalog rules for one account+coupon pair.
// priorRedemptions is the account's redemption count for this coupon.
// Returns nil when redeemable, otherwise a *RedemptionRejectedError with
// the precise reason. Pure: callers supply current state and clock.
func CheckEligibility(coupon *model.Coupon, priorRedemptions int, now time.Time) error {
	if coupon.Status != model.CouponActive {
		return Reject(ReasonCouponInactive)
	}
	if now.Before(coupon.ValidFrom) {
		return Reject(ReasonNotYetValid)
	}
	if now.After(coupon.ValidUntil) {
		return Reject(ReasonCouponExpired)
	}
	if coupon.TotalCap != nil && coupon.TotalRedemptions >= *coupon.TotalCap {
		return Reject(ReasonCapReached)
	}
	if priorRedemptions >= coupon.PerUserCap {
		return Reject(ReasonAlreadyRedeemed)
	}
	return nil
}

// CreateCoupon creates a new coupon from the request.
// Returns ErrCouponExists if the code is already taken.
// Returns ErrInvalidRequest if request data is nil or incomplete.
func (s *CatalogService) CreateCoupon(ctx context.Context, req *model.CreateCouponRequest) (*model.Coupon, error) {
	// Defense-in-depth: check for nil pointer even though handler validates
	if req == nil || req.Cost == nil {
		return nil, ErrInvalidRequest
	}
	if !req.ValidUntil.After(req.ValidFrom) {
		return nil, ErrInvalidRequest
	}

	perUserCap := 1
	if req.PerUserCap != nil {
		perUserCap = *req.PerUserCap
	}

	coupon := &model.Coupon{
		ID:          uuid.New(),
		Code:        req.Code,
		Title:       req.Title,
		Description: req.Description,
		Discount:    req.Discount,
		Cost:        *req.Cost,
		ValidFrom:   req.ValidFrom,
		ValidUntil:  req.ValidUntil,
		TotalCap:    req.TotalCap,
		PerUserCap:  perUserCap,
		Featured:    req.Featured,
		Status:      model.CouponActive,
	}
	if err := s.couponRepo.Insert(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// GetByCode retrieves a coupon with its redemption statistics.
// Returns ErrCouponNotFound if the coupon doesn't exist.
func (s *CatalogService) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return coupon, nil
}

// Featured returns currently-valid featured coupons, cheapest first,
// bounded by limit. Served from the cache when one is configured.
func (s *CatalogService) Featured(ctx context.Context, now time.Time, limit int) ([]model.Coupon, error) {
	if limit <= 0 {
		limit = defaultFeaturedLimit
	}

	if s.cache != nil {
		if coupons, ok := s.cache.Get(ctx, limit); ok {
			return coupons, nil
		}
	}

	coupons, err := s.couponRepo.ListFeatured(ctx, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list featured: %w", err)
	}

	if s.cache != nil {
		s.cache.Set(ctx, limit, coupons)
	}
	return coupons, nil
}

// AvailableFor returns the coupons the account can redeem right now:
// currently redeemable and affordable, ordered by (featured desc, cost asc).
// Returns ErrAccountNotFound if the account doesn't exist.
func (s *CatalogService) AvailableFor(ctx context.Context, accountID uuid.UUID, now time.Time) ([]model.Coupon, error) {
	account, err := s.accountRepo.Get(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return s.couponRepo.ListAvailable(ctx, accountID, account.Balance, now)
}
