package model

import (
	"time"

	"github.com/google/uuid"
)

// Reason identifies why points moved. Every ledger entry carries one.
type Reason string

const (
	ReasonWelcomeBonus    Reason = "welcome-bonus"
	ReasonDailyLogin      Reason = "daily-login"
	ReasonPostCreated     Reason = "post-created"
	ReasonPostLiked       Reason = "post-liked"
	ReasonCommentPosted   Reason = "comment-posted"
	ReasonFollow          Reason = "follow"
	ReasonFollowed        Reason = "followed"
	ReasonCouponRedeemed  Reason = "coupon-redeemed"
	ReasonCheckIn         Reason = "check-in"
	ReasonAdminAdjustment Reason = "admin-adjustment"
)

// Valid reports whether r is a known reason code.
func (r Reason) Valid() bool {
	switch r {
	case ReasonWelcomeBonus, ReasonDailyLogin, ReasonPostCreated, ReasonPostLiked,
		ReasonCommentPosted, ReasonFollow, ReasonFollowed, ReasonCouponRedeemed,
		ReasonCheckIn, ReasonAdminAdjustment:
		return true
	}
	return false
}

// Ref points at the entity that caused a point movement.
type Ref struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// LedgerEntry is an immutable record of a single point movement.
// Positive amounts are earned, negative amounts are spent.
// BalanceAfter snapshots the account balance after the entry applied.
type LedgerEntry struct {
	ID           uuid.UUID `json:"id"`
	AccountID    uuid.UUID `json:"account_id"`
	Amount       int       `json:"amount"`
	Reason       Reason    `json:"reason"`
	RefType      *string   `json:"ref_type,omitempty"`
	RefID        *string   `json:"ref_id,omitempty"`
	BalanceAfter int       `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}

// HistoryFilter narrows a ledger history query.
type HistoryFilter struct {
	Reason *Reason
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// EventRequest is the DTO for POST /api/events. External event sources
// (posts, comments, follows, check-ins) report activity through it.
type EventRequest struct {
	AccountID string `json:"account_id" validate:"required,uuid4"`
	Type      string `json:"type" validate:"required,notblank,max=64"`
	RefType   string `json:"ref_type" validate:"omitempty,max=64"`
	RefID     string `json:"ref_id" validate:"omitempty,max=255"`
}
