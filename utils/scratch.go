package utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go_lecture_backend/pkg/logging"
)

// ScratchManager owns the on-disk scratch area for chunked uploads. Each
// session gets its own directory, so cleanup for one session can never touch
// another session's chunks.
type ScratchManager struct {
	root string
}

func NewScratchManager(root string) (*ScratchManager, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch root: %w", err)
	}
	return &ScratchManager{root: root}, nil
}

func (sm *ScratchManager) SessionDir(sessionID string) string {
	return filepath.Join(sm.root, sessionID)
}

func (sm *ScratchManager) ChunkPath(sessionID string, index int) string {
	return filepath.Join(sm.SessionDir(sessionID), fmt.Sprintf("chunk_%05d", index))
}

func (sm *ScratchManager) CreateSessionDir(sessionID string) (string, error) {
	dir := sm.SessionDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	return dir, nil
}

func (sm *ScratchManager) RemoveSession(sessionID string) error {
	return os.RemoveAll(sm.SessionDir(sessionID))
}

// Sweep removes scratch directories older than ttl whose session is no
// longer live. The session TTL in the store is the real expiry; this is the
// backstop that releases disk for abandoned uploads.
func (sm *ScratchManager) Sweep(ctx context.Context, ttl time.Duration, sessionLive func(ctx context.Context, id string) bool) int {
	entries, err := os.ReadDir(sm.root)
	if err != nil {
		logging.Logger.Error("scratch sweep: read root", "error", err)
		return 0
	}
	removed := 0
	cutoff := time.Now().Add(-ttl)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if sessionLive(ctx, e.Name()) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(sm.root, e.Name())); err != nil {
			logging.Logger.Error("scratch sweep: remove", "dir", e.Name(), "error", err)
			continue
		}
		removed++
	}
	return removed
}

// RunSweeper blocks until ctx is cancelled, sweeping on the given interval.
func (sm *ScratchManager) RunSweeper(ctx context.Context, interval, ttl time.Duration, sessionLive func(ctx context.Context, id string) bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
			if n := sm.Sweep(ctx, ttl, sessionLive); n > 0 {
				logging.Logger.Info("scratch sweep", "removed", n)
			}
		}
	}
}
