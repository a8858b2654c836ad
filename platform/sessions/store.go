// Package sessions holds in-flight chunked-upload session state in a shared,
// TTL-expiring key space so any server instance can service chunks for the
// same session and a restart does not strand in-flight uploads.
package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go_lecture_backend/models"
	"go_lecture_backend/pkg/apperrors"

	"github.com/redis/go-redis/v9"
)

// Store is the injected session key-value space. AddChunk must be atomic with
// respect to concurrent chunk writes for the same session, and Delete must
// report whether this caller removed the session, so concurrent finalize
// calls resolve to exactly one winner.
type Store interface {
	Create(ctx context.Context, s *models.UploadSession) error
	Get(ctx context.Context, id string) (*models.UploadSession, error)
	AddChunk(ctx context.Context, id string, index int) (received int, err error)
	ReceivedIndices(ctx context.Context, id string) (map[int]bool, error)
	Delete(ctx context.Context, id string) (deleted bool, err error)
}

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func metaKey(id string) string   { return "upload:session:" + id }
func chunksKey(id string) string { return "upload:session:" + id + ":chunks" }

func (s *RedisStore) Create(ctx context.Context, session *models.UploadSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ok, err := s.rdb.SetNX(ctx, metaKey(session.ID), data, s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("session %s already exists", session.ID)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.UploadSession, error) {
	val, err := s.rdb.Get(ctx, metaKey(id)).Result()
	if err == redis.Nil {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var session models.UploadSession
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

// AddChunk records one received chunk index and returns the distinct count.
// SADD/SCARD run in one pipeline so a concurrent writer can never make a
// receipt disappear; re-adding the same index does not change the count. The
// session TTL is refreshed on every write.
func (s *RedisStore) AddChunk(ctx context.Context, id string, index int) (int, error) {
	pipe := s.rdb.TxPipeline()
	pipe.SAdd(ctx, chunksKey(id), index)
	card := pipe.SCard(ctx, chunksKey(id))
	pipe.Expire(ctx, metaKey(id), s.ttl)
	pipe.Expire(ctx, chunksKey(id), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(card.Val()), nil
}

func (s *RedisStore) ReceivedIndices(ctx context.Context, id string) (map[int]bool, error) {
	members, err := s.rdb.SMembers(ctx, chunksKey(id)).Result()
	if err != nil {
		return nil, err
	}
	indices := make(map[int]bool, len(members))
	for _, m := range members {
		n, err := strconv.Atoi(m)
		if err != nil {
			return nil, fmt.Errorf("corrupt chunk index %q: %w", m, err)
		}
		indices[n] = true
	}
	return indices, nil
}

// Delete removes the session. Only one concurrent caller observes
// deleted=true; everyone else sees the key already gone.
func (s *RedisStore) Delete(ctx context.Context, id string) (bool, error) {
	removed, err := s.rdb.Del(ctx, metaKey(id)).Result()
	if err != nil {
		return false, err
	}
	// chunk set is advisory state, safe to clear unconditionally
	s.rdb.Del(ctx, chunksKey(id))
	return removed > 0, nil
}
