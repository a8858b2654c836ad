package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go_lecture_backend/config"
	"go_lecture_backend/models"
	"go_lecture_backend/pkg/apperrors"
	"go_lecture_backend/pkg/logging"
	"go_lecture_backend/platform/sessions"
	"go_lecture_backend/repository"
	"go_lecture_backend/utils"

	"github.com/google/uuid"
)

// PublishInput carries one assembled (or directly uploaded) document into
// the ingestion router.
type PublishInput struct {
	UserID   string
	ModuleID string
	Filename string
	MimeType string
	Secure   bool
	Body     io.Reader
	Size     int64
}

// AssetPublisher is the router boundary the assembler hands finished bytes
// to. Implemented by IngestService.
type AssetPublisher interface {
	Publish(ctx context.Context, in PublishInput) (*models.Asset, error)
}

// UploadService implements the resumable chunked-upload protocol: session
// init, out-of-order concurrent chunk writes, and finalize/assembly.
type UploadService struct {
	store     sessions.Store
	modules   repository.ModuleRepository
	publisher AssetPublisher
	scratch   *utils.ScratchManager
	cfg       *config.Config
}

func NewUploadService(
	store sessions.Store,
	modules repository.ModuleRepository,
	publisher AssetPublisher,
	scratch *utils.ScratchManager,
	cfg *config.Config) *UploadService {
	return &UploadService{
		store:     store,
		modules:   modules,
		publisher: publisher,
		scratch:   scratch,
		cfg:       cfg,
	}
}

func (s *UploadService) InitUpload(ctx context.Context, userID string, req models.InitUploadReq) (string, error) {
	if req.Filename == "" || req.ModuleID == "" {
		return "", apperrors.InvalidRequestf("filename and module_id are required")
	}
	if req.FileSize <= 0 || req.FileSize > s.cfg.MaxFileSize {
		return "", apperrors.InvalidRequestf("file_size must be in (0, %d]", s.cfg.MaxFileSize)
	}
	expected := int((req.FileSize + s.cfg.ChunkSize - 1) / s.cfg.ChunkSize)
	if req.TotalChunks != expected {
		return "", apperrors.InvalidRequestf("total_chunks mismatch: expected %d for %d bytes, got %d",
			expected, req.FileSize, req.TotalChunks)
	}

	ok, err := s.modules.IsOwner(ctx, req.ModuleID, userID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", apperrors.ErrForbidden
	}

	// secure is the default when the caller leaves it unspecified
	secure := true
	if req.Secure != nil {
		secure = *req.Secure
	}

	session := &models.UploadSession{
		ID:          uuid.New().String(),
		UserID:      userID,
		ModuleID:    req.ModuleID,
		Filename:    req.Filename,
		FileSize:    req.FileSize,
		MimeType:    req.MimeType,
		TotalChunks: req.TotalChunks,
		Secure:      secure,
		CreatedAt:   time.Now(),
	}
	dir, err := s.scratch.CreateSessionDir(session.ID)
	if err != nil {
		return "", err
	}
	session.ScratchDir = dir

	if err := s.store.Create(ctx, session); err != nil {
		if rmErr := s.scratch.RemoveSession(session.ID); rmErr != nil {
			logging.Logger.Error("cleanup after failed session create", "session_id", session.ID, "error", rmErr)
		}
		return "", err
	}
	logging.Logger.Info("upload session created",
		"session_id", session.ID, "filename", req.Filename,
		"size", req.FileSize, "chunks", req.TotalChunks, "secure", secure)
	return session.ID, nil
}

// UploadChunk persists one chunk. Chunks may arrive out of order and
// concurrently; re-uploading an index overwrites the prior bytes without
// double-counting completeness.
func (s *UploadService) UploadChunk(ctx context.Context, userID, uploadID string, chunkIndex, totalChunks int, r io.Reader, size int64) (*models.ChunkResp, error) {
	session, err := s.store.Get(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, apperrors.ErrForbidden
	}
	if totalChunks != session.TotalChunks {
		return nil, apperrors.InvalidRequestf("total_chunks %d does not match session (%d)", totalChunks, session.TotalChunks)
	}
	if chunkIndex < 0 || chunkIndex >= session.TotalChunks {
		return nil, apperrors.InvalidRequestf("chunk_index %d out of range [0, %d)", chunkIndex, session.TotalChunks)
	}
	if size > s.cfg.ChunkSize {
		return nil, apperrors.InvalidRequestf("chunk exceeds %d bytes", s.cfg.ChunkSize)
	}

	if err := s.writeChunk(session.ID, chunkIndex, r); err != nil {
		return nil, err
	}

	received, err := s.store.AddChunk(ctx, session.ID, chunkIndex)
	if err != nil {
		return nil, err
	}
	return &models.ChunkResp{Received: received, Total: session.TotalChunks}, nil
}

// writeChunk lands the bytes in a temp file and renames it into the chunk
// slot, so a concurrent re-upload of the same index can never leave a
// half-written chunk behind.
func (s *UploadService) writeChunk(sessionID string, chunkIndex int, r io.Reader) error {
	dir := s.scratch.SessionDir(sessionID)
	tmp, err := os.CreateTemp(dir, "part-*")
	if err != nil {
		return fmt.Errorf("create chunk temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(r, s.cfg.ChunkSize+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write chunk: %w", err)
	}
	if n > s.cfg.ChunkSize {
		return apperrors.InvalidRequestf("chunk exceeds %d bytes", s.cfg.ChunkSize)
	}
	return os.Rename(tmp.Name(), s.scratch.ChunkPath(sessionID, chunkIndex))
}

// Finalize validates completeness, assembles the chunks in strict ascending
// order, claims the session (the exclusivity point for concurrent finalize
// calls) and hands the assembled stream to the ingestion router.
func (s *UploadService) Finalize(ctx context.Context, userID, uploadID string) (*models.Asset, error) {
	session, err := s.store.Get(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, apperrors.ErrForbidden
	}

	indices, err := s.store.ReceivedIndices(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if len(indices) != session.TotalChunks {
		return nil, apperrors.InvalidRequestf("upload incomplete: received %d of %d chunks",
			len(indices), session.TotalChunks)
	}
	for i := 0; i < session.TotalChunks; i++ {
		if !indices[i] {
			return nil, apperrors.InvalidRequestf("upload incomplete: received %d of %d chunks",
				len(indices), session.TotalChunks)
		}
	}

	// Exclusive claim. Only one concurrent finalize deletes the session key;
	// every other caller observes NotFound and creates nothing. Claiming
	// before assembly keeps a racing loser from reading scratch files the
	// winner is about to purge.
	claimed, err := s.store.Delete(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, apperrors.ErrNotFound
	}

	assembledPath, assembledSize, err := s.assemble(session)
	if err != nil {
		return nil, err
	}
	if assembledSize != session.FileSize {
		logging.Logger.Warn("assembled size differs from declared size",
			"session_id", session.ID, "declared", session.FileSize, "assembled", assembledSize)
	}

	f, err := os.Open(assembledPath)
	if err != nil {
		return nil, fmt.Errorf("open assembled file: %w", err)
	}
	defer f.Close()

	asset, err := s.publisher.Publish(ctx, PublishInput{
		UserID:   session.UserID,
		ModuleID: session.ModuleID,
		Filename: session.Filename,
		MimeType: session.MimeType,
		Secure:   session.Secure,
		Body:     f,
		Size:     assembledSize,
	})
	if err != nil {
		return nil, err
	}

	// scratch purge is best-effort; the TTL sweep is the backstop
	if err := s.scratch.RemoveSession(session.ID); err != nil {
		logging.Logger.Error("scratch cleanup after finalize", "session_id", session.ID, "error", err)
	}
	return asset, nil
}

// assemble concatenates the chunk files strictly by ascending index into a
// file unique to this finalize call, so racing finalizes never interleave
// writes. Order is the correctness-critical invariant: any gap or
// reordering silently corrupts the output.
func (s *UploadService) assemble(session *models.UploadSession) (string, int64, error) {
	out, err := os.CreateTemp(s.scratch.SessionDir(session.ID), "assembled-*")
	if err != nil {
		return "", 0, fmt.Errorf("create assembled file: %w", err)
	}
	defer out.Close()

	var total int64
	for i := 0; i < session.TotalChunks; i++ {
		n, err := s.appendChunk(out, session.ID, i)
		if err != nil {
			return "", 0, err
		}
		total += n
	}
	if err := out.Sync(); err != nil {
		return "", 0, fmt.Errorf("sync assembled file: %w", err)
	}
	return out.Name(), total, nil
}

func (s *UploadService) appendChunk(out io.Writer, sessionID string, index int) (int64, error) {
	in, err := os.Open(s.scratch.ChunkPath(sessionID, index))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, apperrors.InvalidRequestf("chunk %d missing from scratch storage", index)
		}
		return 0, err
	}
	defer in.Close()
	return io.Copy(out, in)
}

// SessionLive reports whether a scratch directory still has a backing
// session; the scratch sweeper uses it to spare in-flight uploads.
func (s *UploadService) SessionLive(ctx context.Context, sessionID string) bool {
	_, err := s.store.Get(ctx, sessionID)
	return err == nil
}
