package repository

import (
	"context"
	"errors"
	"time"

	"go_lecture_backend/models"
	"go_lecture_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type assetRepository struct {
	DB *gorm.DB
}

func NewAssetRepository(db *gorm.DB) AssetRepository {
	return &assetRepository{DB: db}
}

func (r *assetRepository) Create(ctx context.Context, asset *models.Asset) error {
	return r.DB.WithContext(ctx).Create(asset).Error
}

func (r *assetRepository) GetByID(ctx context.Context, id string) (*models.Asset, error) {
	var asset models.Asset
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *assetRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	return r.DB.WithContext(ctx).Model(&models.Asset{}).Where("id = ?", id).
		Update("render_status", status).Error
}

func (r *assetRepository) MarkCompleted(ctx context.Context, id, storageKey, displayName string, pageCount int) error {
	now := time.Now()
	return r.DB.WithContext(ctx).Model(&models.Asset{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"render_status": models.StatusCompleted,
			"storage_key":   storageKey,
			"display_name":  displayName,
			"page_count":    pageCount,
			"completed_at":  now,
		}).Error
}

func (r *assetRepository) MarkFailed(ctx context.Context, id string) error {
	now := time.Now()
	return r.DB.WithContext(ctx).Model(&models.Asset{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"render_status": models.StatusFailed,
			"completed_at":  now,
		}).Error
}

func (r *assetRepository) ListByModule(ctx context.Context, moduleID string) ([]*models.Asset, error) {
	var assets []*models.Asset
	err := r.DB.WithContext(ctx).Where("module_id = ?", moduleID).
		Order("position asc").Find(&assets).Error
	return assets, err
}

func (r *assetRepository) NextPosition(ctx context.Context, moduleID string) (int, error) {
	var maxPos int
	err := r.DB.WithContext(ctx).Model(&models.Asset{}).Where("module_id = ?", moduleID).
		Select("COALESCE(MAX(position), -1)").Scan(&maxPos).Error
	if err != nil {
		return 0, err
	}
	return maxPos + 1, nil
}
