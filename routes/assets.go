package routes

import (
	"go_lecture_backend/handlers"

	"github.com/gofiber/fiber/v2"
)

func RegisterAssetRoutes(app *fiber.App, handler *handlers.AssetHandler) {
	assets := app.Group("api/assets")
	assets.Get("/:id/status", handler.GetStatus)
	assets.Get("/:id/file", handler.GetFile)
	assets.Post("/:id/replay", handler.Replay)

	app.Get("api/modules/:id/assets", handler.ListByModule)
}
