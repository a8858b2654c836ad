package handlers

import (
	"go_lecture_backend/pkg/apperrors"
	"go_lecture_backend/services"

	"github.com/gofiber/fiber/v2"
)

type AssetHandler struct {
	assets *services.AssetService
}

func NewAssetHandler(assets *services.AssetService) *AssetHandler {
	return &AssetHandler{assets: assets}
}

func (h *AssetHandler) GetStatus(c *fiber.Ctx) error {
	status, err := h.assets.GetStatus(c.Context(), c.Params("id"))
	if err != nil {
		return apperrors.Reply(c, err)
	}
	return c.JSON(status)
}

// GetFile answers 423 while the render is in flight so clients poll instead
// of treating it as an error.
func (h *AssetHandler) GetFile(c *fiber.Ctx) error {
	url, err := h.assets.FileURL(c.Context(), c.Params("id"))
	if err != nil {
		return apperrors.Reply(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}

func (h *AssetHandler) Replay(c *fiber.Ctx) error {
	if err := h.assets.Replay(c.Context(), c.Params("id")); err != nil {
		return apperrors.Reply(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"id":     c.Params("id"),
		"status": "QUEUED",
	})
}

func (h *AssetHandler) ListByModule(c *fiber.Ctx) error {
	assets, err := h.assets.ListByModule(c.Context(), c.Params("id"))
	if err != nil {
		return apperrors.Reply(c, err)
	}
	return c.JSON(fiber.Map{"assets": assets})
}
