package model

import (
	"time"

	"github.com/google/uuid"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	AccountActive      AccountStatus = "active"
	AccountDeactivated AccountStatus = "deactivated"
)

// Account represents a point-bearing identity.
// Balance is authoritative and must always equal the sum of the
// account's ledger entries.
type Account struct {
	ID        uuid.UUID     `json:"id"`
	Balance   int           `json:"balance"`
	Status    AccountStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

// BalanceResponse is the API response DTO for GET /api/accounts/:id/balance.
type BalanceResponse struct {
	AccountID uuid.UUID `json:"account_id"`
	Balance   int       `json:"balance"`
}

// AdjustRequest is the DTO for an admin balance adjustment.
// Delta may be negative; zero is rejected.
type AdjustRequest struct {
	Delta *int `json:"delta" validate:"required"`
}
