package bootstrap

import (
	"go_lecture_backend/config"
	"go_lecture_backend/handlers"
)

type Handlers struct {
	UploadHandler *handlers.UploadHandler
	AssetHandler  *handlers.AssetHandler
}

func NewHandlers(cfg *config.Config, services *Services) *Handlers {
	res := &Handlers{}
	res.UploadHandler = handlers.NewUploadHandler(services.UploadService, services.IngestService, cfg)
	res.AssetHandler = handlers.NewAssetHandler(services.AssetService)
	return res
}
