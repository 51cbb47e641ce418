package service

import "errors"

var (
	// ErrAccountNotFound is returned when an account is missing or deactivated
	ErrAccountNotFound = errors.New("account not found")

	// ErrCouponExists is returned when attempting to create a coupon whose code is taken
	ErrCouponExists = errors.New("coupon already exists")

	// ErrCouponNotFound is returned when a coupon cannot be found
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrRedemptionNotFound is returned when no redemption matches a code
	ErrRedemptionNotFound = errors.New("redemption not found")

	// ErrInsufficientBalance is returned when a debit would leave a negative balance
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidAmount is returned for non-positive grant/debit amounts
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrAlreadyUsed is returned when marking an already-used redemption
	ErrAlreadyUsed = errors.New("redemption already used")

	// ErrRedemptionExpired is returned when a redemption is past its TTL
	ErrRedemptionExpired = errors.New("redemption expired")

	// ErrRedemptionRejected is the base error every rejection reason wraps.
	// Use errors.As with *RedemptionRejectedError to read the reason.
	ErrRedemptionRejected = errors.New("redemption rejected")
)

// RejectionReason enumerates why a redemption attempt was refused.
// The values are stable API strings.
type RejectionReason string

const (
	ReasonNotYetValid        RejectionReason = "not_yet_valid"
	ReasonCouponExpired      RejectionReason = "expired_coupon"
	ReasonCouponInactive     RejectionReason = "coupon_inactive"
	ReasonCapReached         RejectionReason = "cap_reached"
	ReasonAlreadyRedeemed    RejectionReason = "already_redeemed"
	ReasonInsufficientPoints RejectionReason = "insufficient_points"
)

// RedemptionRejectedError carries the precise rejection reason so callers
// can present exact messages.
type RedemptionRejectedError struct {
	Reason RejectionReason
}

func (e *RedemptionRejectedError) Error() string {
	return "redemption rejected: " + string(e.Reason)
}

func (e *RedemptionRejectedError) Unwrap() error {
	return ErrRedemptionRejected
}

// Reject builds a rejection error for the given reason.
func Reject(reason RejectionReason) error {
	return &RedemptionRejectedError{Reason: reason}
}
