package routes

import (
	"go_lecture_backend/handlers"

	"github.com/gofiber/fiber/v2"
)

func RegisterUploadRoutes(app *fiber.App, handler *handlers.UploadHandler) {
	uploads := app.Group("api/uploads")
	uploads.Post("/init", handler.InitUpload)
	uploads.Post("/chunk", handler.UploadChunk)
	uploads.Post("/finalize", handler.Finalize)
	uploads.Post("/direct", handler.DirectUpload)
}
