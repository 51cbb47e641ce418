package model

import (
	"time"

	"github.com/google/uuid"
)

// CouponStatus is the lifecycle state of a coupon.
type CouponStatus string

const (
	CouponActive   CouponStatus = "active"
	CouponDisabled CouponStatus = "disabled"
)

// Coupon is a redeemable offer.
// TotalCap is nil for unlimited global redemptions.
type Coupon struct {
	ID               uuid.UUID    `json:"id"`
	Code             string       `json:"code"`
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	Discount         string       `json:"discount"`
	Cost             int          `json:"cost"`
	ValidFrom        time.Time    `json:"valid_from"`
	ValidUntil       time.Time    `json:"valid_until"`
	TotalCap         *int         `json:"total_cap,omitempty"`
	PerUserCap       int          `json:"per_user_cap"`
	Featured         bool         `json:"featured"`
	Status           CouponStatus `json:"status"`
	TotalRedemptions int          `json:"total_redemptions"`
	UniqueUsers      int          `json:"unique_users"`
	CreatedAt        time.Time    `json:"-"` // Not exposed in API
}

// CreateCouponRequest is the DTO for creating a coupon.
type CreateCouponRequest struct {
	Code        string    `json:"code" validate:"required,notblank,max=64"`
	Title       string    `json:"title" validate:"required,notblank,max=255"`
	Description string    `json:"description" validate:"max=1024"`
	Discount    string    `json:"discount" validate:"required,notblank,max=255"`
	Cost        *int      `json:"cost" validate:"required,gte=1"`
	ValidFrom   time.Time `json:"valid_from" validate:"required"`
	ValidUntil  time.Time `json:"valid_until" validate:"required,gtfield=ValidFrom"`
	TotalCap    *int      `json:"total_cap" validate:"omitempty,gte=1"`
	PerUserCap  *int      `json:"per_user_cap" validate:"omitempty,gte=1"`
	Featured    bool      `json:"featured"`
}
