package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/service"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

type BrandHandler struct {
	s service.BrandService
}

func NewBrandHandler(service service.BrandService) *BrandHandler {
	return &BrandHandler{s: service}
}

func (h *BrandHandler) CreateBrand(c *fiber.Ctx) error {
	var req transfer.BrandCreation
	if err := ParseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	brand, err := h.s.Create(c.Context(), GetUserID(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(brand)
}

func (h *BrandHandler) ListBrands(c *fiber.Ctx) error {
	brands, err := h.s.List(c.Context(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	if brands == nil {
		brands = []*models.Brand{}
	}
	return c.JSON(brands)
}

func (h *BrandHandler) GetBrand(c *fiber.Ctx) error {
	brandID, err := ParamID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	brand, err := h.s.Get(c.Context(), GetUserID(c), brandID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(brand)
}

func (h *BrandHandler) UpdateBrand(c *fiber.Ctx) error {
	brandID, err := ParamID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req transfer.BrandCreation
	if err := ParseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	brand, err := h.s.Update(c.Context(), GetUserID(c), brandID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(brand)
}

func (h *BrandHandler) RemoveBrand(c *fiber.Ctx) error {
	brandID, err := ParamID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.s.Remove(c.Context(), GetUserID(c), brandID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
