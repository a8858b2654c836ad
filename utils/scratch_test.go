package utils

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestScratchSessionDirLayout(t *testing.T) {
	sm, err := NewScratchManager(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	dir, err := sm.CreateSessionDir("sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("session dir not created: %v", err)
	}
	want := filepath.Join(dir, "chunk_00007")
	if got := sm.ChunkPath("sess-1", 7); got != want {
		t.Fatalf("chunk path = %s, want %s", got, want)
	}

	if err := sm.RemoveSession("sess-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatal("session dir should be gone")
	}
}

func TestSweepRemovesOnlyDeadExpiredSessions(t *testing.T) {
	sm, err := NewScratchManager(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"dead-old", "live-old", "dead-fresh"} {
		if _, err := sm.CreateSessionDir(id); err != nil {
			t.Fatal(err)
		}
	}
	old := time.Now().Add(-2 * time.Hour)
	for _, id := range []string{"dead-old", "live-old"} {
		if err := os.Chtimes(sm.SessionDir(id), old, old); err != nil {
			t.Fatal(err)
		}
	}

	live := func(ctx context.Context, id string) bool { return id == "live-old" }
	removed := sm.Sweep(context.Background(), time.Hour, live)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	if _, err := os.Stat(sm.SessionDir("dead-old")); !os.IsNotExist(err) {
		t.Fatal("dead-old should have been swept")
	}
	for _, id := range []string{"live-old", "dead-fresh"} {
		if _, err := os.Stat(sm.SessionDir(id)); err != nil {
			t.Fatalf("%s should have survived: %v", id, err)
		}
	}
}
