package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postpilot/internal/service"
)

type UserHandler struct {
	s service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{s: service}
}

// GetAccount returns the caller's profile with brand, key and post counts.
func (h *UserHandler) GetAccount(c *fiber.Ctx) error {
	overview, err := h.s.Overview(c.Context(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(overview)
}
