package services

import (
	"context"
	"time"

	"go_lecture_backend/config"
	"go_lecture_backend/models"
	"go_lecture_backend/pkg/apperrors"
	"go_lecture_backend/pkg/logging"
	"go_lecture_backend/platform/queue"
	"go_lecture_backend/platform/storage"
	"go_lecture_backend/repository"
	"go_lecture_backend/utils"

	"github.com/google/uuid"
)

// CanonicalMime is the only distributable document form. Anything else must
// be normalized before it can be read.
const CanonicalMime = "application/pdf"

// IngestService routes an assembled document onto the direct-publish path
// (already canonical, caller opted out of securing) or the secure path
// (staged privately, asset created PROCESSING, render job enqueued).
type IngestService struct {
	assets  repository.AssetRepository
	modules repository.ModuleRepository
	store   storage.ObjectStore
	queue   queue.JobQueue
	keys    *utils.FileKeyGenerator
	cfg     *config.Config
}

func NewIngestService(
	assets repository.AssetRepository,
	modules repository.ModuleRepository,
	store storage.ObjectStore,
	jobQueue queue.JobQueue,
	keys *utils.FileKeyGenerator,
	cfg *config.Config) *IngestService {
	return &IngestService{
		assets:  assets,
		modules: modules,
		store:   store,
		queue:   jobQueue,
		keys:    keys,
		cfg:     cfg,
	}
}

func (s *IngestService) Publish(ctx context.Context, in PublishInput) (*models.Asset, error) {
	ok, err := s.modules.IsOwner(ctx, in.ModuleID, in.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrForbidden
	}

	// Non-canonical formats are forced onto the secure path even when the
	// caller asked for direct publish: normalization precedes distribution.
	secure := in.Secure || in.MimeType != CanonicalMime

	position, err := s.assets.NextPosition(ctx, in.ModuleID)
	if err != nil {
		logging.Logger.Warn("next position lookup failed, defaulting to 0", "module_id", in.ModuleID, "error", err)
		position = 0
	}

	if !secure {
		return s.publishDirect(ctx, in, position)
	}
	return s.publishSecure(ctx, in, position)
}

func (s *IngestService) publishDirect(ctx context.Context, in PublishInput, position int) (*models.Asset, error) {
	key := s.keys.PublicKey(in.Filename)
	if err := s.store.UploadPublic(ctx, key, in.Body, in.Size, in.MimeType); err != nil {
		return nil, err
	}

	now := time.Now()
	asset := &models.Asset{
		ID:           uuid.New().String(),
		ModuleID:     in.ModuleID,
		Title:        in.Filename,
		DisplayName:  s.keys.CleanFilename(in.Filename),
		Kind:         models.KindDocument,
		StorageKey:   key,
		RenderStatus: models.StatusCompleted,
		IsSecure:     false,
		Position:     position,
		CompletedAt:  &now,
	}
	if err := s.assets.Create(ctx, asset); err != nil {
		return nil, err
	}
	logging.Logger.Info("asset published directly", "asset_id", asset.ID, "storage_key", key)
	return asset, nil
}

func (s *IngestService) publishSecure(ctx context.Context, in PublishInput, position int) (*models.Asset, error) {
	srcKey := s.keys.StagingKey(in.Filename)
	if err := s.store.UploadPrivate(ctx, srcKey, in.Body, in.Size, in.MimeType); err != nil {
		return nil, err
	}

	asset := &models.Asset{
		ID:           uuid.New().String(),
		ModuleID:     in.ModuleID,
		Title:        in.Filename,
		Kind:         models.KindDocument,
		RenderStatus: models.StatusProcessing,
		IsSecure:     true,
		Position:     position,
		SourceKey:    srcKey,
		SourceMime:   in.MimeType,
	}
	if err := s.assets.Create(ctx, asset); err != nil {
		return nil, err
	}

	job := &models.RenderJob{
		AssetID:    asset.ID,
		SourceKey:  srcKey,
		SourceMime: in.MimeType,
		Filename:   in.Filename,
		BrandLabel: s.cfg.BrandLabel,
		EnqueuedAt: time.Now(),
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		// the asset row exists but no job does; mark it so the operator
		// replay endpoint can pick it up from the staged source
		if mfErr := s.assets.MarkFailed(ctx, asset.ID); mfErr != nil {
			logging.Logger.Error("mark failed after enqueue error", "asset_id", asset.ID, "error", mfErr)
		}
		return nil, err
	}
	logging.Logger.Info("asset queued for render",
		"asset_id", asset.ID, "source_key", srcKey, "mime", in.MimeType)
	return asset, nil
}
