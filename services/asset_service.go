package services

import (
	"context"
	"encoding/json"
	"time"

	"go_lecture_backend/config"
	"go_lecture_backend/models"
	"go_lecture_backend/pkg/apperrors"
	"go_lecture_backend/pkg/logging"
	"go_lecture_backend/platform/cache"
	"go_lecture_backend/platform/queue"
	"go_lecture_backend/platform/storage"
	"go_lecture_backend/repository"
)

const (
	statusCacheTTL = 10 * time.Second
	downloadExpiry = 15 * time.Minute
	statusCachePfx = "asset:status:"
)

func assetStatusCacheKey(assetID string) string {
	return statusCachePfx + assetID
}

// AssetStatus is what pollers see. Readers must treat anything other than
// COMPLETED as "not yet available", never as an error.
type AssetStatus struct {
	AssetID   string `json:"asset_id"`
	Status    string `json:"status"`
	PageCount int    `json:"page_count"`
}

// AssetService is the read/replay surface over asset records.
type AssetService struct {
	assets   repository.AssetRepository
	store    storage.ObjectStore
	queue    queue.JobQueue
	cacheSvc cache.CacheService
	cfg      *config.Config
}

func NewAssetService(
	assets repository.AssetRepository,
	store storage.ObjectStore,
	jobQueue queue.JobQueue,
	cacheSvc cache.CacheService,
	cfg *config.Config) *AssetService {
	return &AssetService{
		assets:   assets,
		store:    store,
		queue:    jobQueue,
		cacheSvc: cacheSvc,
		cfg:      cfg,
	}
}

// GetStatus serves the poll endpoint through the layered cache; concurrent
// pollers for the same asset collapse into one DB read.
func (s *AssetService) GetStatus(ctx context.Context, assetID string) (*AssetStatus, error) {
	val, err := s.cacheSvc.GetOrLoad(assetStatusCacheKey(assetID), statusCacheTTL, func() (interface{}, error) {
		asset, err := s.assets.GetByID(ctx, assetID)
		if err != nil {
			return nil, err
		}
		return &AssetStatus{AssetID: asset.ID, Status: asset.RenderStatus, PageCount: asset.PageCount}, nil
	})
	if err != nil {
		return nil, err
	}
	switch v := val.(type) {
	case *AssetStatus:
		return v, nil
	case string:
		// L2 hit: redis hands back the JSON it stored
		var status AssetStatus
		if err := json.Unmarshal([]byte(v), &status); err != nil {
			return nil, err
		}
		return &status, nil
	default:
		return nil, apperrors.ErrNotFound
	}
}

// FileURL returns a short-lived download link for a rendered asset. While
// the render is still in flight the caller gets Locked, not an error.
func (s *AssetService) FileURL(ctx context.Context, assetID string) (string, error) {
	asset, err := s.assets.GetByID(ctx, assetID)
	if err != nil {
		return "", err
	}
	if !asset.IsCompleted() || asset.StorageKey == "" {
		return "", apperrors.ErrLocked
	}
	return s.store.PresignedGet(ctx, asset.StorageKey, asset.DisplayName, downloadExpiry)
}

// Replay re-enqueues a FAILED asset whose staged source is still
// retrievable. This is the only recovery path; the worker never retries on
// its own.
func (s *AssetService) Replay(ctx context.Context, assetID string) error {
	asset, err := s.assets.GetByID(ctx, assetID)
	if err != nil {
		return err
	}
	if !asset.IsFailed() {
		return apperrors.InvalidRequestf("only FAILED assets can be replayed (current: %s)", asset.RenderStatus)
	}
	if asset.SourceKey == "" {
		return apperrors.ErrSourceNotFound
	}
	exists, err := s.store.Exists(ctx, asset.SourceKey)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.ErrSourceNotFound
	}

	if err := s.assets.UpdateStatus(ctx, asset.ID, models.StatusProcessing); err != nil {
		return err
	}
	job := &models.RenderJob{
		AssetID:    asset.ID,
		SourceKey:  asset.SourceKey,
		SourceMime: asset.SourceMime,
		Filename:   asset.Title,
		BrandLabel: s.cfg.BrandLabel,
		EnqueuedAt: time.Now(),
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		if mfErr := s.assets.MarkFailed(ctx, asset.ID); mfErr != nil {
			logging.Logger.Error("mark failed after replay enqueue error", "asset_id", asset.ID, "error", mfErr)
		}
		return err
	}
	if err := s.cacheSvc.DelCache(assetStatusCacheKey(asset.ID)); err != nil {
		logging.Logger.Warn("status cache invalidation failed", "asset_id", asset.ID, "error", err)
	}
	logging.Logger.Info("render replay queued", "asset_id", asset.ID, "source_key", asset.SourceKey)
	return nil
}

// InvalidateStatus drops the cached status for an asset. The event
// subscriber calls this when a worker reports a terminal state, so pollers
// on any instance see it without waiting out the cache TTL.
func (s *AssetService) InvalidateStatus(assetID string) {
	if err := s.cacheSvc.DelCache(assetStatusCacheKey(assetID)); err != nil {
		logging.Logger.Warn("status cache invalidation failed", "asset_id", assetID, "error", err)
	}
}

// ListByModule returns the ordered assets of one module.
func (s *AssetService) ListByModule(ctx context.Context, moduleID string) ([]*models.Asset, error) {
	return s.assets.ListByModule(ctx, moduleID)
}
