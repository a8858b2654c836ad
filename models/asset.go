package models

import (
	"time"

	"gorm.io/gorm"
)

// Render status values for an Asset. The storage key is non-empty iff the
// status is COMPLETED, and the page count is positive only once COMPLETED.
const (
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

const KindDocument = "document"

// Asset is the durable record tracking one uploaded document through the
// render pipeline. It is created by the ingestion router and, on the secure
// path, mutated only by the render worker.
type Asset struct {
	ID       string `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	ModuleID string `gorm:"column:module_id;type:varchar(64);not null;index:idx_asset_module" json:"module_id"`

	Title       string `gorm:"column:title;type:varchar(512);not null" json:"title"`
	DisplayName string `gorm:"column:display_name;type:varchar(512)" json:"display_name"`
	Kind        string `gorm:"column:kind;type:varchar(32);not null;default:'document'" json:"kind"`

	StorageKey   string `gorm:"column:storage_key;type:varchar(512)" json:"storage_key"`
	RenderStatus string `gorm:"column:render_status;type:varchar(32);not null;index:idx_asset_status" json:"render_status"`
	IsSecure     bool   `gorm:"column:is_secure;not null;default:true" json:"is_secure"`
	PageCount    int    `gorm:"column:page_count;type:int;default:0" json:"page_count"`
	Position     int    `gorm:"column:position;type:int;default:0" json:"position"`

	// Staged source location, kept so a FAILED render can be replayed while
	// the source is still retrievable.
	SourceKey  string `gorm:"column:source_key;type:varchar(512)" json:"-"`
	SourceMime string `gorm:"column:source_mime;type:varchar(128)" json:"-"`

	CreatedAt   time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at" json:"updated_at"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

func (Asset) TableName() string {
	return "assets"
}

func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.Kind == "" {
		a.Kind = KindDocument
	}
	if a.RenderStatus == "" {
		a.RenderStatus = StatusProcessing
	}
	return nil
}

func (a *Asset) IsCompleted() bool {
	return a.RenderStatus == StatusCompleted
}

func (a *Asset) IsFailed() bool {
	return a.RenderStatus == StatusFailed
}

// CourseModule is the content container an asset belongs to. Course CRUD is
// owned elsewhere; this subsystem only reads it for the ownership check.
type CourseModule struct {
	ID        string    `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	OwnerID   string    `gorm:"column:owner_id;type:varchar(64);not null;index:idx_module_owner" json:"owner_id"`
	Title     string    `gorm:"column:title;type:varchar(512)" json:"title"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (CourseModule) TableName() string {
	return "course_modules"
}
