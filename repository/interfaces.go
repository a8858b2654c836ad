package repository

import (
	"context"

	"go_lecture_backend/models"
)

type AssetRepository interface {
	Create(ctx context.Context, asset *models.Asset) error
	GetByID(ctx context.Context, id string) (*models.Asset, error)
	UpdateStatus(ctx context.Context, id string, status string) error
	// MarkCompleted records the terminal happy state in one write: status,
	// rendered storage key, normalized display name and page count.
	MarkCompleted(ctx context.Context, id, storageKey, displayName string, pageCount int) error
	MarkFailed(ctx context.Context, id string) error
	ListByModule(ctx context.Context, moduleID string) ([]*models.Asset, error)
	NextPosition(ctx context.Context, moduleID string) (int, error)
}

type ModuleRepository interface {
	GetByID(ctx context.Context, id string) (*models.CourseModule, error)
	// IsOwner reports whether userID may manage the module's content.
	IsOwner(ctx context.Context, moduleID, userID string) (bool, error)
}
