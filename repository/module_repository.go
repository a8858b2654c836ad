package repository

import (
	"context"
	"errors"

	"go_lecture_backend/models"
	"go_lecture_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type moduleRepository struct {
	DB *gorm.DB
}

func NewModuleRepository(db *gorm.DB) ModuleRepository {
	return &moduleRepository{DB: db}
}

func (r *moduleRepository) GetByID(ctx context.Context, id string) (*models.CourseModule, error) {
	var mod models.CourseModule
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&mod).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &mod, nil
}

func (r *moduleRepository) IsOwner(ctx context.Context, moduleID, userID string) (bool, error) {
	mod, err := r.GetByID(ctx, moduleID)
	if err != nil {
		return false, err
	}
	return mod.OwnerID == userID, nil
}
