package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/loyalty-rewards-system/internal/model"
	"github.com/fairyhunter13/loyalty-rewards-system/internal/service"
)

// LedgerServiceInterface defines the interface for ledger business logic.
type LedgerServiceInterface interface {
	CreateAccount(ctx context.Context) (*model.Account, error)
	Grant(ctx context.Context, accountID uuid.UUID, amount int, reason model.Reason, ref *model.Ref) (*model.LedgerEntry, error)
	Adjust(ctx context.Context, accountID uuid.UUID, delta int) (*model.LedgerEntry, error)
	Balance(ctx context.Context, accountID uuid.UUID) (int, error)
	History(ctx context.Context, accountID uuid.UUID, filter model.HistoryFilter) ([]model.LedgerEntry, error)
	Deactivate(ctx context.Context, accountID uuid.UUID) error
}

// AccountHandler handles HTTP requests for account and ledger operations.
type AccountHandler struct {
	service   LedgerServiceInterface
	validator *validator.Validate
}

// NewAccountHandler creates a new AccountHandler with the given service and validator.
func NewAccountHandler(svc LedgerServiceInterface, v *validator.Validate) *AccountHandler {
	return &AccountHandler{service: svc, validator: v}
}

func parseAccountID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request: account id must be a valid uuid",
		})
	}
	return id, nil
}

// CreateAccount handles POST /api/accounts. The new account receives the
// welcome bonus immediately.
func (h *AccountHandler) CreateAccount(c *fiber.Ctx) error {
	account, err := h.service.CreateAccount(c.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to create account")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("account_id", account.ID.String()).
		Int("balance", account.Balance).
		Msg("account created")

	return c.Status(fiber.StatusCreated).JSON(account)
}

// GetBalance handles GET /api/accounts/:id/balance.
func (h *AccountHandler) GetBalance(c *fiber.Ctx) error {
	id, err := parseAccountID(c)
	if err != nil {
		return err
	}

	balance, err := h.service.Balance(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "account not found"})
		}
		log.Error().Err(err).Str("account_id", id.String()).Msg("failed to get balance")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(model.BalanceResponse{AccountID: id, Balance: balance})
}

// GetHistory handles GET /api/accounts/:id/history.
// Supports reason, from, to (RFC3339), limit and offset query parameters.
func (h *AccountHandler) GetHistory(c *fiber.Ctx) error {
	id, err := parseAccountID(c)
	if err != nil {
		return err
	}

	var filter model.HistoryFilter
	if raw := c.Query("reason"); raw != "" {
		reason := model.Reason(raw)
		if !reason.Valid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request: unknown reason code",
			})
		}
		filter.Reason = &reason
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request: from must be RFC3339",
			})
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request: to must be RFC3339",
			})
		}
		filter.To = &to
	}
	filter.Limit, _ = strconv.Atoi(c.Query("limit"))
	filter.Offset, _ = strconv.Atoi(c.Query("offset"))

	entries, err := h.service.History(c.Context(), id, filter)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "account not found"})
		}
		log.Error().Err(err).Str("account_id", id.String()).Msg("failed to get history")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(fiber.Map{"entries": entries})
}

// Adjust handles POST /api/accounts/:id/adjust for admin corrections.
// The delta is signed; negative deltas are debits.
func (h *AccountHandler) Adjust(c *fiber.Ctx) error {
	id, err := parseAccountID(c)
	if err != nil {
		return err
	}

	var req model.AdjustRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	entry, err := h.service.Adjust(c.Context(), id, *req.Delta)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "account not found"})
		}
		if errors.Is(err, service.ErrInvalidAmount) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: delta must be non-zero"})
		}
		if errors.Is(err, service.ErrInsufficientBalance) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "insufficient balance"})
		}
		log.Error().Err(err).Str("account_id", id.String()).Msg("failed to adjust balance")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("account_id", id.String()).
		Int("delta", *req.Delta).
		Int("balance_after", entry.BalanceAfter).
		Msg("balance adjusted")

	return c.JSON(entry)
}

// Deactivate handles POST /api/accounts/:id/deactivate.
func (h *AccountHandler) Deactivate(c *fiber.Ctx) error {
	id, err := parseAccountID(c)
	if err != nil {
		return err
	}

	if err := h.service.Deactivate(c.Context(), id); err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "account not found"})
		}
		log.Error().Err(err).Str("account_id", id.String()).Msg("failed to deactivate account")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.Status(fiber.StatusOK).Send(nil)
}
