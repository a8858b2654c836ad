package services

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"go_lecture_backend/config"
	"go_lecture_backend/models"
	"go_lecture_backend/pkg/apperrors"
	"go_lecture_backend/pkg/logging"
	"go_lecture_backend/platform/cache"
	"go_lecture_backend/platform/events"
	"go_lecture_backend/platform/storage"
	"go_lecture_backend/repository"
	"go_lecture_backend/utils"
)

// PageStamper watermarks every page of a normalized document and reports
// the page count. Implemented by pkg/watermark.
type PageStamper interface {
	Stamp(src []byte, primary, secondary string) ([]byte, int, error)
}

// RenderService runs the worker-side state machine:
// PROCESSING -> COMPLETED, or PROCESSING -> FAILED on any step error.
// Redelivery is safe: a COMPLETED asset is a no-op, and the rendered output
// key is deterministic so a repeat run overwrites the same object.
type RenderService struct {
	assets    repository.AssetRepository
	store     storage.ObjectStore
	converter DocumentConverter
	stamper   PageStamper
	events    *events.EventPublisher
	cacheSvc  cache.CacheService
	keys      *utils.FileKeyGenerator
	cfg       *config.Config
}

func NewRenderService(
	assets repository.AssetRepository,
	store storage.ObjectStore,
	converter DocumentConverter,
	stamper PageStamper,
	eventPublisher *events.EventPublisher,
	cacheSvc cache.CacheService,
	keys *utils.FileKeyGenerator,
	cfg *config.Config) *RenderService {
	return &RenderService{
		assets:    assets,
		store:     store,
		converter: converter,
		stamper:   stamper,
		events:    eventPublisher,
		cacheSvc:  cacheSvc,
		keys:      keys,
		cfg:       cfg,
	}
}

// Process handles one render job. The returned error is for the queue's
// failure bookkeeping only; nothing is reported back to the uploader, who
// already received QUEUED.
func (s *RenderService) Process(ctx context.Context, job *models.RenderJob) error {
	log := logging.Logger.With("asset_id", job.AssetID, "source_key", job.SourceKey)

	asset, err := s.assets.GetByID(ctx, job.AssetID)
	if err != nil {
		return fmt.Errorf("load asset %s: %w", job.AssetID, err)
	}
	if asset.IsCompleted() && asset.StorageKey != "" {
		// queue redelivery after a crash between upload and ack
		log.Info("asset already completed, skipping redelivered job")
		return nil
	}

	if err := s.render(ctx, job, asset); err != nil {
		log.Error("render failed", "error", err)
		if mfErr := s.assets.MarkFailed(ctx, job.AssetID); mfErr != nil {
			log.Error("could not mark asset FAILED", "error", mfErr)
		}
		s.publishEvent(asset, models.StatusFailed, 0, err)
		return err
	}
	return nil
}

func (s *RenderService) render(ctx context.Context, job *models.RenderJob, asset *models.Asset) error {
	log := logging.Logger.With("asset_id", job.AssetID, "source_key", job.SourceKey)

	// step 1: confirm PROCESSING (a replayed FAILED asset re-enters here)
	if asset.RenderStatus != models.StatusProcessing {
		if err := s.assets.UpdateStatus(ctx, asset.ID, models.StatusProcessing); err != nil {
			return fmt.Errorf("%w: set PROCESSING: %v", apperrors.ErrDbUpdateFailed, err)
		}
	}

	// step 2: fetch staged source
	rc, err := s.store.Download(ctx, job.SourceKey)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", apperrors.ErrSourceNotFound, job.SourceKey, err)
	}
	src, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", apperrors.ErrSourceNotFound, job.SourceKey, err)
	}

	// step 3: normalize to PDF unless the source already is one
	pdf := src
	if job.SourceMime != CanonicalMime {
		pdf, err = s.converter.Convert(ctx, job.Filename, src)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", apperrors.ErrConvertFailed, job.SourceMime, err)
		}
	}

	// steps 4-5: watermark every page and serialize
	brand := job.BrandLabel
	if brand == "" {
		brand = s.cfg.BrandLabel
	}
	stamped, pageCount, err := s.stamper.Stamp(pdf, brand, s.cfg.ContactLabel)
	if err != nil {
		return fmt.Errorf("%w: watermark: %v", apperrors.ErrConvertFailed, err)
	}

	// step 6: deterministic private key, so reruns overwrite
	renderedKey := s.keys.RenderedKey(asset.ID)
	if err := s.store.UploadPrivate(ctx, renderedKey, bytes.NewReader(stamped), int64(len(stamped)), CanonicalMime); err != nil {
		return fmt.Errorf("%w: %s: %v", apperrors.ErrUploadFailed, renderedKey, err)
	}

	// step 7: terminal record update; failure here still fails the job even
	// though the upload landed, because replay is idempotent on the same key
	displayName := s.keys.DisplayName(job.Filename)
	if err := s.assets.MarkCompleted(ctx, asset.ID, renderedKey, displayName, pageCount); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrDbUpdateFailed, err)
	}

	// step 8: best-effort staging cleanup
	if err := s.store.Delete(ctx, job.SourceKey); err != nil {
		log.Warn("could not delete staged source", "error", err)
	}

	log.Info("render completed", "pages", pageCount, "storage_key", renderedKey)
	s.publishEvent(asset, models.StatusCompleted, pageCount, nil)
	return nil
}

func (s *RenderService) publishEvent(asset *models.Asset, status string, pages int, cause error) {
	if s.cacheSvc != nil {
		if err := s.cacheSvc.DelCache(assetStatusCacheKey(asset.ID)); err != nil {
			logging.Logger.Warn("status cache invalidation failed", "asset_id", asset.ID, "error", err)
		}
	}
	if s.events == nil {
		return
	}
	event := &models.AssetEvent{
		AssetID:   asset.ID,
		ModuleID:  asset.ModuleID,
		Status:    status,
		PageCount: pages,
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	if err := s.events.PublishRenderEvent(event); err != nil {
		logging.Logger.Warn("render event publish failed", "asset_id", asset.ID, "error", err)
	}
}
