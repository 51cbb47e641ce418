package handler

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/loyalty-rewards-system/internal/model"
	"github.com/fairyhunter13/loyalty-rewards-system/internal/service"
)

// RedemptionServiceInterface defines the interface for redemption business logic.
type RedemptionServiceInterface interface {
	Redeem(ctx context.Context, accountID uuid.UUID, couponCode string, now time.Time) (*model.Redemption, error)
	MarkUsed(ctx context.Context, code, location string, now time.Time) (*model.Redemption, error)
	GetByCode(ctx context.Context, code string, now time.Time) (*model.Redemption, error)
}

// RedemptionHandler handles HTTP requests for redemption operations.
type RedemptionHandler struct {
	service   RedemptionServiceInterface
	validator *validator.Validate
}

// NewRedemptionHandler creates a new RedemptionHandler with the given service and validator.
func NewRedemptionHandler(svc RedemptionServiceInterface, v *validator.Validate) *RedemptionHandler {
	return &RedemptionHandler{service: svc, validator: v}
}

// rejectionStatus maps a rejection reason to its HTTP status.
// Cap rejections are conflicts; the rest are plain bad requests.
func rejectionStatus(reason service.RejectionReason) int {
	switch reason {
	case service.ReasonAlreadyRedeemed, service.ReasonCapReached:
		return fiber.StatusConflict
	default:
		return fiber.StatusBadRequest
	}
}

// Redeem handles POST /api/redemptions requests to redeem a coupon.
func (h *RedemptionHandler) Redeem(c *fiber.Ctx) error {
	var req model.RedeemRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: account_id must be a valid uuid"})
	}

	red, err := h.service.Redeem(c.Context(), accountID, req.CouponCode, time.Now())
	if err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "coupon not found"})
		}
		if errors.Is(err, service.ErrAccountNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "account not found"})
		}
		var rejErr *service.RedemptionRejectedError
		if errors.As(err, &rejErr) {
			return c.Status(rejectionStatus(rejErr.Reason)).JSON(fiber.Map{
				"error":  rejErr.Error(),
				"reason": rejErr.Reason,
			})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("account_id", req.AccountID).
			Str("coupon_code", req.CouponCode).
			Msg("failed to redeem coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("account_id", req.AccountID).
		Str("coupon_code", req.CouponCode).
		Str("redemption_code", red.Code).
		Int("points_spent", red.PointsSpent).
		Msg("coupon redeemed")

	return c.Status(fiber.StatusCreated).JSON(red)
}

// MarkUsed handles POST /api/redemptions/:code/use, the partner
// verification call.
func (h *RedemptionHandler) MarkUsed(c *fiber.Ctx) error {
	code := c.Params("code")

	var req model.MarkUsedRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if err := h.validator.Struct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
		}
	}

	red, err := h.service.MarkUsed(c.Context(), code, req.Location, time.Now())
	if err != nil {
		if errors.Is(err, service.ErrRedemptionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "redemption not found"})
		}
		if errors.Is(err, service.ErrAlreadyUsed) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "redemption already used"})
		}
		if errors.Is(err, service.ErrRedemptionExpired) {
			return c.Status(fiber.StatusGone).JSON(fiber.Map{"error": "redemption expired"})
		}
		log.Error().Err(err).Str("redemption_code", code).Msg("failed to mark redemption used")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("redemption_code", code).
		Str("location", req.Location).
		Msg("redemption marked used")

	return c.JSON(red)
}

// GetRedemption handles GET /api/redemptions/:code.
func (h *RedemptionHandler) GetRedemption(c *fiber.Ctx) error {
	code := c.Params("code")

	red, err := h.service.GetByCode(c.Context(), code, time.Now())
	if err != nil {
		if errors.Is(err, service.ErrRedemptionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "redemption not found"})
		}
		log.Error().Err(err).Str("redemption_code", code).Msg("failed to get redemption")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(red)
}
