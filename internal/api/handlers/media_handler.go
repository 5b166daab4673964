package handlers

import (
	"io"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postpilot/internal/service"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

type MediaHandler struct {
	ms service.MediaService
	cs service.CaptionService
}

func NewMediaHandler(ms service.MediaService, cs service.CaptionService) *MediaHandler {
	return &MediaHandler{ms: ms, cs: cs}
}

func (h *MediaHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file selected",
		})
	}
	if file.Size > service.MaxMediaSize {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": "File is too large",
		})
	}

	f, err := file.Open()
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to read file",
		})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to read file",
		})
	}

	asset, err := h.ms.Upload(c.Context(), GetUserID(c), file.Filename, data)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(asset)
}

func (h *MediaHandler) GetMedia(c *fiber.Ctx) error {
	mediaID, err := ParamID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	asset, err := h.ms.Get(c.Context(), GetUserID(c), mediaID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(asset)
}

// GenerateCaption always answers 200 once ownership checks pass; an empty
// caption means generation failed and the user writes one.
func (h *MediaHandler) GenerateCaption(c *fiber.Ctx) error {
	var req transfer.CaptionRequest
	if err := ParseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	caption, err := h.cs.Generate(c.Context(), GetUserID(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transfer.CaptionResponse{Caption: caption})
}
