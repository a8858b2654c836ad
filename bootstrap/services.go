package bootstrap

import (
	"go_lecture_backend/config"
	"go_lecture_backend/pkg/watermark"
	"go_lecture_backend/services"
	"go_lecture_backend/utils"
)

type Services struct {
	IngestService *services.IngestService
	UploadService *services.UploadService
	RenderService *services.RenderService
	AssetService  *services.AssetService
}

func NewServices(cfg *config.Config, repos *Repositories, infra *Infrastructure) *Services {
	res := &Services{}

	keys := utils.NewFileKeyGenerator()

	ingest := services.NewIngestService(
		repos.AssetRepository, repos.ModuleRepository,
		infra.Storage, infra.Queue, keys, cfg)
	res.IngestService = ingest

	res.UploadService = services.NewUploadService(
		infra.Sessions, repos.ModuleRepository, ingest, infra.Scratch, cfg)

	converter := services.NewConverterClient(cfg.ConverterURL, cfg.ConvertTimeout)
	res.RenderService = services.NewRenderService(
		repos.AssetRepository, infra.Storage,
		converter, watermark.NewStamper(),
		infra.EventPublisher, infra.Cache, keys, cfg)

	res.AssetService = services.NewAssetService(
		repos.AssetRepository, infra.Storage, infra.Queue, infra.Cache, cfg)

	return res
}
