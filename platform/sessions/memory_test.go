package sessions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go_lecture_backend/models"
	"go_lecture_backend/pkg/apperrors"
)

func newSession(id string, chunks int) *models.UploadSession {
	return &models.UploadSession{
		ID:          id,
		UserID:      "alice",
		ModuleID:    "mod-1",
		Filename:    "slides.pdf",
		FileSize:    int64(chunks * 5),
		TotalChunks: chunks,
		CreatedAt:   time.Now(),
	}
}

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)

	if err := store.Create(ctx, newSession("s1", 3)); err != nil {
		t.Fatal(err)
	}
	if err := store.Create(ctx, newSession("s1", 3)); err == nil {
		t.Fatal("duplicate session id must be rejected")
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalChunks != 3 {
		t.Fatalf("total chunks = %d", got.TotalChunks)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreAddChunkCountsDistinctIndices(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	store.Create(ctx, newSession("s1", 3))

	if n, _ := store.AddChunk(ctx, "s1", 2); n != 1 {
		t.Fatalf("received = %d, want 1", n)
	}
	if n, _ := store.AddChunk(ctx, "s1", 0); n != 2 {
		t.Fatalf("received = %d, want 2", n)
	}
	// re-upload must not double count
	if n, _ := store.AddChunk(ctx, "s1", 2); n != 2 {
		t.Fatalf("received after re-upload = %d, want 2", n)
	}

	indices, err := store.ReceivedIndices(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(indices) != 2 || !indices[0] || !indices[2] || indices[1] {
		t.Fatalf("indices = %v", indices)
	}
}

func TestMemoryStoreConcurrentAddChunk(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	const chunks = 64
	store.Create(ctx, newSession("s1", chunks))

	var wg sync.WaitGroup
	for i := 0; i < chunks; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			if _, err := store.AddChunk(ctx, "s1", idx); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	indices, _ := store.ReceivedIndices(ctx, "s1")
	if len(indices) != chunks {
		t.Fatalf("received %d of %d", len(indices), chunks)
	}
}

func TestMemoryStoreDeleteHasSingleWinner(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	store.Create(ctx, newSession("s1", 1))

	const callers = 16
	var wg sync.WaitGroup
	wins := make(chan bool, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			deleted, err := store.Delete(ctx, "s1")
			if err != nil {
				t.Error(err)
				return
			}
			wins <- deleted
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for w := range wins {
		if w {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("session should be gone, got %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10 * time.Millisecond)
	store.Create(ctx, newSession("s1", 1))

	time.Sleep(30 * time.Millisecond)
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expired session should be NotFound, got %v", err)
	}
	if _, err := store.AddChunk(ctx, "s1", 0); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("AddChunk on expired session should be NotFound, got %v", err)
	}
}
