package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/loyalty-rewards-system/internal/config"
	"github.com/fairyhunter13/loyalty-rewards-system/internal/model"
	"github.com/fairyhunter13/loyalty-rewards-system/internal/service"
)

type eventAward struct {
	reason model.Reason
	points int
}

// EventHandler ingests activity events from external sources (posts,
// comments, follows, check-ins) and turns them into point grants.
// The welcome bonus is not ingestible; it is granted at account creation.
type EventHandler struct {
	service   LedgerServiceInterface
	validator *validator.Validate
	awards    map[string]eventAward
}

// NewEventHandler creates a new EventHandler with the award table built
// from the points configuration.
func NewEventHandler(svc LedgerServiceInterface, v *validator.Validate, points config.PointsConfig) *EventHandler {
	return &EventHandler{
		service:   svc,
		validator: v,
		awards: map[string]eventAward{
			"daily-login":    {model.ReasonDailyLogin, points.DailyLogin},
			"post-created":   {model.ReasonPostCreated, points.PostCreated},
			"post-liked":     {model.ReasonPostLiked, points.PostLiked},
			"comment-posted": {model.ReasonCommentPosted, points.CommentPosted},
			"follow":         {model.ReasonFollow, points.Follow},
			"followed":       {model.ReasonFollowed, points.Followed},
			"check-in":       {model.ReasonCheckIn, points.CheckIn},
		},
	}
}

// PostEvent handles POST /api/events.
func (h *EventHandler) PostEvent(c *fiber.Ctx) error {
	var req model.EventRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	award, ok := h.awards[req.Type]
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: unknown event type"})
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: account_id must be a valid uuid"})
	}

	var ref *model.Ref
	if req.RefType != "" && req.RefID != "" {
		ref = &model.Ref{Type: req.RefType, ID: req.RefID}
	}

	entry, err := h.service.Grant(c.Context(), accountID, award.points, award.reason, ref)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "account not found"})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("account_id", req.AccountID).
			Str("event_type", req.Type).
			Msg("failed to grant event points")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("account_id", req.AccountID).
		Str("event_type", req.Type).
		Int("points", award.points).
		Msg("event points granted")

	return c.Status(fiber.StatusCreated).JSON(entry)
}
