package model

import (
	"time"

	"github.com/google/uuid"
)

// RedemptionStatus is the state of a committed redemption.
// Active redemptions transition to used (partner verification) or
// expired (lazily, once past ExpiresAt).
type RedemptionStatus string

const (
	RedemptionActive  RedemptionStatus = "active"
	RedemptionUsed    RedemptionStatus = "used"
	RedemptionExpired RedemptionStatus = "expired"
)

// Redemption records that an account redeemed a coupon.
// Code is the partner-facing verification code.
type Redemption struct {
	ID           uuid.UUID        `json:"id"`
	CouponID     uuid.UUID        `json:"coupon_id"`
	AccountID    uuid.UUID        `json:"account_id"`
	PointsSpent  int              `json:"points_spent"`
	Code         string           `json:"code"`
	Status       RedemptionStatus `json:"status"`
	ExpiresAt    time.Time        `json:"expires_at"`
	UsedAt       *time.Time       `json:"used_at,omitempty"`
	UsedLocation *string          `json:"used_location,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// RedeemRequest is the DTO for POST /api/redemptions.
type RedeemRequest struct {
	AccountID  string `json:"account_id" validate:"required,uuid4"`
	CouponCode string `json:"coupon_code" validate:"required,notblank,max=64"`
}

// MarkUsedRequest is the DTO for the partner verification call.
type MarkUsedRequest struct {
	Location string `json:"location" validate:"omitempty,max=255"`
}
