package models

import "time"

// UploadSession tracks one in-progress chunked upload. The metadata below is
// immutable after creation; the set of received chunk indices lives beside it
// in the session store and is mutated atomically per chunk write.
type UploadSession struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ModuleID    string    `json:"module_id"`
	Filename    string    `json:"filename"`
	FileSize    int64     `json:"file_size"`
	MimeType    string    `json:"mime_type"`
	TotalChunks int       `json:"total_chunks"`
	Secure      bool      `json:"secure"`
	ScratchDir  string    `json:"scratch_dir"`
	CreatedAt   time.Time `json:"created_at"`
}

// RenderJob is the unit of work placed on the render queue. Exactly one job
// exists per PROCESSING asset under normal operation; delivery is
// at-least-once, so the worker must tolerate duplicates.
type RenderJob struct {
	AssetID    string    `json:"asset_id"`
	SourceKey  string    `json:"source_key"`
	SourceMime string    `json:"source_mime"`
	Filename   string    `json:"filename"`
	BrandLabel string    `json:"brand_label,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

type InitUploadReq struct {
	Filename    string `json:"filename"`
	FileSize    int64  `json:"file_size"`
	TotalChunks int    `json:"total_chunks"`
	MimeType    string `json:"mime_type"`
	ModuleID    string `json:"module_id"`
	Secure      *bool  `json:"secure"`
}

type InitUploadResp struct {
	UploadID string `json:"upload_id"`
}

type ChunkResp struct {
	Received int `json:"received"`
	Total    int `json:"total"`
}

type FinalizeReq struct {
	UploadID string `json:"upload_id"`
}

type FinalizeResp struct {
	AssetID    string `json:"asset_id"`
	StorageKey string `json:"storage_key"`
	Status     string `json:"status"`
}

// AssetEvent is published on the asset event channel when a render reaches a
// terminal state.
type AssetEvent struct {
	AssetID   string    `json:"asset_id"`
	ModuleID  string    `json:"module_id"`
	Status    string    `json:"status"`
	PageCount int       `json:"page_count,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
