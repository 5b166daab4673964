package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/service"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

type PlatformHandler struct {
	ps service.PlatformService
}

func NewPlatformHandler(ps service.PlatformService) *PlatformHandler {
	return &PlatformHandler{ps: ps}
}

func (h *PlatformHandler) ConnectAccount(c *fiber.Ctx) error {
	brandID, err := ParamID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req transfer.AccountConnection
	if err := ParseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	account, err := h.ps.Connect(c.Context(), GetUserID(c), brandID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(account)
}

func (h *PlatformHandler) ListSocialAccounts(c *fiber.Ctx) error {
	brandID, err := ParamID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	accounts, err := h.ps.List(c.Context(), GetUserID(c), brandID)
	if err != nil {
		return respondError(c, err)
	}
	if accounts == nil {
		accounts = []*models.SocialAccount{}
	}
	return c.JSON(accounts)
}

func (h *PlatformHandler) ActivateAccount(c *fiber.Ctx) error {
	return h.setActive(c, true)
}

func (h *PlatformHandler) DeactivateAccount(c *fiber.Ctx) error {
	return h.setActive(c, false)
}

func (h *PlatformHandler) setActive(c *fiber.Ctx, active bool) error {
	accountID, err := ParamID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.ps.SetActive(c.Context(), GetUserID(c), accountID, active); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PlatformHandler) DeleteSocialAccount(c *fiber.Ctx) error {
	accountID, err := ParamID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.ps.Remove(c.Context(), GetUserID(c), accountID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
