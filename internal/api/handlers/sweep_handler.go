package handlers

import (
	"context"
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

type Sweeper interface {
	Run(ctx context.Context) (transfer.SweepSummary, error)
}

// SweepHandler lets an external scheduler trigger a sweep. It is disabled
// when no secret is configured.
type SweepHandler struct {
	sweeper Sweeper
	secret  string
}

func NewSweepHandler(sweeper Sweeper, secret string) *SweepHandler {
	return &SweepHandler{sweeper: sweeper, secret: secret}
}

func (h *SweepHandler) Trigger(c *fiber.Ctx) error {
	given := c.Get("X-Cron-Secret")
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(given), []byte(h.secret)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthorized",
		})
	}

	summary, err := h.sweeper.Run(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}
