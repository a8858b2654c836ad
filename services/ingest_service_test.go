package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go_lecture_backend/config"
	"go_lecture_backend/models"
	"go_lecture_backend/pkg/apperrors"
	"go_lecture_backend/utils"
)

func newTestIngestService() (*IngestService, *fakeAssetRepo, *fakeObjectStore, *fakeQueue) {
	assets := newFakeAssetRepo()
	modules := newFakeModuleRepo()
	modules.owners["mod-1"] = "alice"
	store := newFakeObjectStore()
	jobQueue := newFakeQueue()
	cfg := &config.Config{BrandLabel: "Lecture Library"}
	svc := NewIngestService(assets, modules, store, jobQueue, utils.NewFileKeyGenerator(), cfg)
	return svc, assets, store, jobQueue
}

func publishInput(filename, mime string, secure bool) PublishInput {
	return PublishInput{
		UserID:   "alice",
		ModuleID: "mod-1",
		Filename: filename,
		MimeType: mime,
		Secure:   secure,
		Body:     strings.NewReader("document bytes"),
		Size:     14,
	}
}

func TestDirectPublishCanonicalInsecure(t *testing.T) {
	svc, _, store, jobQueue := newTestIngestService()

	asset, err := svc.Publish(context.Background(), publishInput("slides.pdf", "application/pdf", false))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if asset.RenderStatus != models.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", asset.RenderStatus)
	}
	if asset.StorageKey == "" {
		t.Fatal("direct-published asset must carry its storage key")
	}
	if asset.IsSecure {
		t.Fatal("direct-published asset must not be secure")
	}
	if _, ok := store.public[asset.StorageKey]; !ok {
		t.Fatalf("bytes not found in public storage under %s", asset.StorageKey)
	}
	if len(jobQueue.jobs()) != 0 {
		t.Fatal("direct publish must not enqueue a render job")
	}
}

func TestNonCanonicalMimeForcedOntoSecurePath(t *testing.T) {
	svc, _, store, jobQueue := newTestIngestService()

	// caller asked for direct publish, but a docx must be normalized first
	asset, err := svc.Publish(context.Background(), publishInput(
		"notes.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", false))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if asset.RenderStatus != models.StatusProcessing {
		t.Fatalf("status = %s, want PROCESSING", asset.RenderStatus)
	}
	if asset.StorageKey != "" {
		t.Fatalf("storage key must stay empty until render completes, got %q", asset.StorageKey)
	}
	if !asset.IsSecure {
		t.Fatal("forced-secure asset must be secure")
	}

	jobs := jobQueue.jobs()
	if len(jobs) != 1 {
		t.Fatalf("enqueued jobs = %d, want 1", len(jobs))
	}
	if jobs[0].AssetID != asset.ID {
		t.Fatalf("job asset = %s, want %s", jobs[0].AssetID, asset.ID)
	}
	if _, ok := store.private[jobs[0].SourceKey]; !ok {
		t.Fatalf("staged source not found under %s", jobs[0].SourceKey)
	}
}

func TestSecureFlagKeepsCanonicalPdfOffDirectPath(t *testing.T) {
	svc, _, _, jobQueue := newTestIngestService()

	asset, err := svc.Publish(context.Background(), publishInput("slides.pdf", "application/pdf", true))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if asset.RenderStatus != models.StatusProcessing {
		t.Fatalf("status = %s, want PROCESSING", asset.RenderStatus)
	}
	if len(jobQueue.jobs()) != 1 {
		t.Fatal("secure pdf must enqueue a render job")
	}
}

func TestPublishForbiddenForNonOwner(t *testing.T) {
	svc, _, _, _ := newTestIngestService()

	in := publishInput("slides.pdf", "application/pdf", false)
	in.UserID = "mallory"
	if _, err := svc.Publish(context.Background(), in); !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}

func TestEnqueueFailureMarksAssetFailed(t *testing.T) {
	svc, assets, _, jobQueue := newTestIngestService()
	jobQueue.failEnqueue = true

	_, err := svc.Publish(context.Background(), publishInput("slides.pdf", "application/pdf", true))
	if err == nil {
		t.Fatal("want enqueue error")
	}

	// the one created asset must be FAILED so the replay endpoint can act
	for _, a := range assets.assets {
		if a.RenderStatus != models.StatusFailed {
			t.Fatalf("asset status = %s, want FAILED", a.RenderStatus)
		}
	}
}
