package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go_lecture_backend/models"
	"go_lecture_backend/pkg/apperrors"
)

// --- module repository fake ---

type fakeModuleRepo struct {
	owners map[string]string // moduleID -> ownerID
}

func newFakeModuleRepo() *fakeModuleRepo {
	return &fakeModuleRepo{owners: map[string]string{}}
}

func (r *fakeModuleRepo) GetByID(ctx context.Context, id string) (*models.CourseModule, error) {
	owner, ok := r.owners[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &models.CourseModule{ID: id, OwnerID: owner}, nil
}

func (r *fakeModuleRepo) IsOwner(ctx context.Context, moduleID, userID string) (bool, error) {
	mod, err := r.GetByID(ctx, moduleID)
	if err != nil {
		return false, err
	}
	return mod.OwnerID == userID, nil
}

// --- asset repository fake ---

type fakeAssetRepo struct {
	mu     sync.Mutex
	assets map[string]*models.Asset

	failMarkCompleted bool
}

func newFakeAssetRepo() *fakeAssetRepo {
	return &fakeAssetRepo{assets: map[string]*models.Asset{}}
}

func (r *fakeAssetRepo) Create(ctx context.Context, asset *models.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if asset.RenderStatus == "" {
		asset.RenderStatus = models.StatusProcessing
	}
	cp := *asset
	r.assets[asset.ID] = &cp
	return nil
}

func (r *fakeAssetRepo) GetByID(ctx context.Context, id string) (*models.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	asset, ok := r.assets[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *asset
	return &cp, nil
}

func (r *fakeAssetRepo) UpdateStatus(ctx context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	asset, ok := r.assets[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	asset.RenderStatus = status
	return nil
}

func (r *fakeAssetRepo) MarkCompleted(ctx context.Context, id, storageKey, displayName string, pageCount int) error {
	if r.failMarkCompleted {
		return fmt.Errorf("simulated db outage")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	asset, ok := r.assets[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	now := time.Now()
	asset.RenderStatus = models.StatusCompleted
	asset.StorageKey = storageKey
	asset.DisplayName = displayName
	asset.PageCount = pageCount
	asset.CompletedAt = &now
	return nil
}

func (r *fakeAssetRepo) MarkFailed(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	asset, ok := r.assets[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	now := time.Now()
	asset.RenderStatus = models.StatusFailed
	asset.CompletedAt = &now
	return nil
}

func (r *fakeAssetRepo) ListByModule(ctx context.Context, moduleID string) ([]*models.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Asset
	for _, a := range r.assets {
		if a.ModuleID == moduleID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAssetRepo) NextPosition(ctx context.Context, moduleID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.assets {
		if a.ModuleID == moduleID {
			n++
		}
	}
	return n, nil
}

// --- object store fake ---

type fakeObjectStore struct {
	mu      sync.Mutex
	public  map[string][]byte
	private map[string][]byte

	failPrivateUpload bool
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{
		public:  map[string][]byte{},
		private: map[string][]byte{},
	}
}

func (s *fakeObjectStore) UploadPublic(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.public[key] = data
	return nil
}

func (s *fakeObjectStore) UploadPrivate(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if s.failPrivateUpload {
		return fmt.Errorf("simulated storage outage")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.private[key] = data
	return nil
}

func (s *fakeObjectStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.private[key]
	if !ok {
		return nil, fmt.Errorf("NoSuchKey: %s", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeObjectStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.private, key)
	return nil
}

func (s *fakeObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.private[key]
	return ok, nil
}

func (s *fakeObjectStore) PresignedGet(ctx context.Context, key, displayName string, expiry time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.private[key]; !ok {
		return "", fmt.Errorf("NoSuchKey: %s", key)
	}
	return "https://storage.test/" + key, nil
}

// --- job queue fake ---

type fakeQueue struct {
	mu      sync.Mutex
	pending []*models.RenderJob
	failed  []string

	failEnqueue bool
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{}
}

func (q *fakeQueue) Enqueue(ctx context.Context, job *models.RenderJob) error {
	if q.failEnqueue {
		return fmt.Errorf("simulated queue outage")
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, job)
	return nil
}

func (q *fakeQueue) Dequeue(ctx context.Context, timeout time.Duration) (*models.RenderJob, string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil, "", nil
	}
	job := q.pending[0]
	q.pending = q.pending[1:]
	return job, job.AssetID, nil
}

func (q *fakeQueue) Ack(ctx context.Context, token string) error { return nil }

func (q *fakeQueue) Nack(ctx context.Context, token string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.failed = append(q.failed, token)
	return nil
}

func (q *fakeQueue) RequeueOrphans(ctx context.Context) (int, error) { return 0, nil }
func (q *fakeQueue) ReplayFailed(ctx context.Context) (int, error)  { return 0, nil }

func (q *fakeQueue) jobs() []*models.RenderJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*models.RenderJob, len(q.pending))
	copy(out, q.pending)
	return out
}

// --- converter and stamper fakes ---

type fakeConverter struct {
	calls int
	fail  bool
}

func (c *fakeConverter) Convert(ctx context.Context, filename string, src []byte) ([]byte, error) {
	c.calls++
	if c.fail {
		return nil, fmt.Errorf("simulated converter outage")
	}
	return append([]byte("%PDF-converted\n"), src...), nil
}

type fakeStamper struct {
	calls int
	pages int
	fail  bool
}

func (s *fakeStamper) Stamp(src []byte, primary, secondary string) ([]byte, int, error) {
	s.calls++
	if s.fail {
		return nil, 0, fmt.Errorf("simulated stamp failure")
	}
	pages := s.pages
	if pages == 0 {
		pages = 3
	}
	return append([]byte("stamped:"), src...), pages, nil
}

// --- cache fake ---

type fakeCache struct {
	mu    sync.Mutex
	items map[string]interface{}
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: map[string]interface{}{}}
}

func (c *fakeCache) GetCache(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *fakeCache) SetCache(key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *fakeCache) DelCache(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func (c *fakeCache) GetOrLoad(key string, expiration time.Duration, loader func() (interface{}, error)) (interface{}, error) {
	if v, ok := c.GetCache(key); ok {
		return v, nil
	}
	v, err := loader()
	if err != nil {
		return nil, err
	}
	c.SetCache(key, v, expiration)
	return v, nil
}

// --- publisher fake (assembler boundary) ---

type capturePublisher struct {
	mu        sync.Mutex
	published []PublishInput
	bodies    [][]byte
	fail      bool
}

func (p *capturePublisher) Publish(ctx context.Context, in PublishInput) (*models.Asset, error) {
	if p.fail {
		return nil, fmt.Errorf("simulated publish failure")
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, in)
	p.bodies = append(p.bodies, body)
	status := models.StatusProcessing
	if !in.Secure && in.MimeType == CanonicalMime {
		status = models.StatusCompleted
	}
	return &models.Asset{
		ID:           fmt.Sprintf("asset-%d", len(p.published)),
		ModuleID:     in.ModuleID,
		Title:        in.Filename,
		RenderStatus: status,
	}, nil
}
