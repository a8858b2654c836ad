package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go_lecture_backend/config"
	"go_lecture_backend/models"
	"go_lecture_backend/pkg/apperrors"
)

func newTestAssetService() (*AssetService, *fakeAssetRepo, *fakeObjectStore, *fakeQueue, *fakeCache) {
	assets := newFakeAssetRepo()
	store := newFakeObjectStore()
	jobQueue := newFakeQueue()
	cacheSvc := newFakeCache()
	svc := NewAssetService(assets, store, jobQueue, cacheSvc, &config.Config{BrandLabel: "Lecture Library"})
	return svc, assets, store, jobQueue, cacheSvc
}

func seedAsset(t *testing.T, assets *fakeAssetRepo, a *models.Asset) {
	t.Helper()
	if err := assets.Create(context.Background(), a); err != nil {
		t.Fatal(err)
	}
}

func TestGetStatusReadsThroughCache(t *testing.T) {
	svc, assets, _, _, _ := newTestAssetService()
	seedAsset(t, assets, &models.Asset{ID: "a1", ModuleID: "m1", RenderStatus: models.StatusProcessing})

	status, err := svc.GetStatus(context.Background(), "a1")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status.Status != models.StatusProcessing || status.PageCount != 0 {
		t.Fatalf("status = %+v", status)
	}
}

func TestGetStatusDecodesL2Payload(t *testing.T) {
	svc, _, _, _, cacheSvc := newTestAssetService()

	raw, _ := json.Marshal(&AssetStatus{AssetID: "a1", Status: models.StatusCompleted, PageCount: 12})
	cacheSvc.SetCache(assetStatusCacheKey("a1"), string(raw), statusCacheTTL)

	status, err := svc.GetStatus(context.Background(), "a1")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status.Status != models.StatusCompleted || status.PageCount != 12 {
		t.Fatalf("status = %+v", status)
	}
}

func TestFileURLLockedWhileProcessing(t *testing.T) {
	svc, assets, _, _, _ := newTestAssetService()
	seedAsset(t, assets, &models.Asset{ID: "a1", RenderStatus: models.StatusProcessing})

	if _, err := svc.FileURL(context.Background(), "a1"); !errors.Is(err, apperrors.ErrLocked) {
		t.Fatalf("want ErrLocked, got %v", err)
	}
}

func TestFileURLLockedAfterFailure(t *testing.T) {
	svc, assets, _, _, _ := newTestAssetService()
	seedAsset(t, assets, &models.Asset{ID: "a1", RenderStatus: models.StatusFailed})

	if _, err := svc.FileURL(context.Background(), "a1"); !errors.Is(err, apperrors.ErrLocked) {
		t.Fatalf("want ErrLocked, got %v", err)
	}
}

func TestFileURLForCompletedAsset(t *testing.T) {
	svc, assets, store, _, _ := newTestAssetService()
	store.private["rendered/a1.pdf"] = []byte("%PDF")
	seedAsset(t, assets, &models.Asset{
		ID:           "a1",
		RenderStatus: models.StatusCompleted,
		StorageKey:   "rendered/a1.pdf",
		DisplayName:  "notes.pdf",
	})

	url, err := svc.FileURL(context.Background(), "a1")
	if err != nil {
		t.Fatalf("FileURL: %v", err)
	}
	if url == "" {
		t.Fatal("empty url for completed asset")
	}
}

func TestFileURLUnknownAssetNotFound(t *testing.T) {
	svc, _, _, _, _ := newTestAssetService()
	if _, err := svc.FileURL(context.Background(), "nope"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestReplayOnlyForFailedAssets(t *testing.T) {
	svc, assets, _, _, _ := newTestAssetService()
	seedAsset(t, assets, &models.Asset{ID: "a1", RenderStatus: models.StatusProcessing, SourceKey: "staging/x"})

	err := svc.Replay(context.Background(), "a1")
	if !errors.Is(err, apperrors.ErrInvalidRequest) {
		t.Fatalf("want ErrInvalidRequest, got %v", err)
	}
}

func TestReplayRequiresRetrievableSource(t *testing.T) {
	svc, assets, _, _, _ := newTestAssetService()
	seedAsset(t, assets, &models.Asset{ID: "a1", RenderStatus: models.StatusFailed, SourceKey: "staging/gone"})

	if err := svc.Replay(context.Background(), "a1"); !errors.Is(err, apperrors.ErrSourceNotFound) {
		t.Fatalf("want ErrSourceNotFound, got %v", err)
	}
}

func TestReplayRequeuesAndResetsStatus(t *testing.T) {
	svc, assets, store, jobQueue, _ := newTestAssetService()
	store.private["staging/x"] = []byte("doc bytes")
	seedAsset(t, assets, &models.Asset{
		ID:           "a1",
		RenderStatus: models.StatusFailed,
		SourceKey:    "staging/x",
		SourceMime:   "application/msword",
		Title:        "notes.doc",
	})

	if err := svc.Replay(context.Background(), "a1"); err != nil {
		t.Fatalf("Replay: %v", err)
	}

	asset, _ := assets.GetByID(context.Background(), "a1")
	if asset.RenderStatus != models.StatusProcessing {
		t.Fatalf("status = %s, want PROCESSING", asset.RenderStatus)
	}
	jobs := jobQueue.jobs()
	if len(jobs) != 1 || jobs[0].SourceKey != "staging/x" || jobs[0].SourceMime != "application/msword" {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}
}

func TestReplayEnqueueFailureRestoresFailed(t *testing.T) {
	svc, assets, store, jobQueue, _ := newTestAssetService()
	store.private["staging/x"] = []byte("doc bytes")
	jobQueue.failEnqueue = true
	seedAsset(t, assets, &models.Asset{ID: "a1", RenderStatus: models.StatusFailed, SourceKey: "staging/x"})

	if err := svc.Replay(context.Background(), "a1"); err == nil {
		t.Fatal("want enqueue error")
	}
	asset, _ := assets.GetByID(context.Background(), "a1")
	if asset.RenderStatus != models.StatusFailed {
		t.Fatalf("status = %s, want FAILED after enqueue failure", asset.RenderStatus)
	}
}
