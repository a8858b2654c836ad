package handlers

import (
	"strconv"

	"go_lecture_backend/config"
	"go_lecture_backend/models"
	"go_lecture_backend/pkg/apperrors"
	"go_lecture_backend/services"

	"github.com/gofiber/fiber/v2"
)

// UploadHandler exposes the chunked-upload protocol plus the single-request
// direct upload for small documents. Authentication happens upstream; the
// trusted gateway injects the caller identity as X-User-ID.
type UploadHandler struct {
	uploads *services.UploadService
	ingest  *services.IngestService
	cfg     *config.Config
}

func NewUploadHandler(uploads *services.UploadService, ingest *services.IngestService, cfg *config.Config) *UploadHandler {
	return &UploadHandler{uploads: uploads, ingest: ingest, cfg: cfg}
}

func callerID(c *fiber.Ctx) string {
	return c.Get("X-User-ID")
}

func (h *UploadHandler) InitUpload(c *fiber.Ctx) error {
	userID := callerID(c)
	if userID == "" {
		return apperrors.Reply(c, apperrors.ErrForbidden)
	}

	var req models.InitUploadReq
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Reply(c, apperrors.InvalidRequestf("malformed body"))
	}

	uploadID, err := h.uploads.InitUpload(c.Context(), userID, req)
	if err != nil {
		return apperrors.Reply(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.InitUploadResp{UploadID: uploadID})
}

func (h *UploadHandler) UploadChunk(c *fiber.Ctx) error {
	userID := callerID(c)
	if userID == "" {
		return apperrors.Reply(c, apperrors.ErrForbidden)
	}

	uploadID := c.FormValue("upload_id")
	chunkIndex, err := strconv.Atoi(c.FormValue("chunk_index"))
	if err != nil {
		return apperrors.Reply(c, apperrors.InvalidRequestf("chunk_index must be an integer"))
	}
	totalChunks, err := strconv.Atoi(c.FormValue("total_chunks"))
	if err != nil {
		return apperrors.Reply(c, apperrors.InvalidRequestf("total_chunks must be an integer"))
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return apperrors.Reply(c, apperrors.InvalidRequestf("chunk file is required"))
	}
	f, err := fileHeader.Open()
	if err != nil {
		return apperrors.Reply(c, err)
	}
	defer f.Close()

	resp, err := h.uploads.UploadChunk(c.Context(), userID, uploadID, chunkIndex, totalChunks, f, fileHeader.Size)
	if err != nil {
		return apperrors.Reply(c, err)
	}
	return c.JSON(resp)
}

func (h *UploadHandler) Finalize(c *fiber.Ctx) error {
	userID := callerID(c)
	if userID == "" {
		return apperrors.Reply(c, apperrors.ErrForbidden)
	}

	var req models.FinalizeReq
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Reply(c, apperrors.InvalidRequestf("malformed body"))
	}

	asset, err := h.uploads.Finalize(c.Context(), userID, req.UploadID)
	if err != nil {
		return apperrors.Reply(c, err)
	}
	return c.JSON(models.FinalizeResp{
		AssetID:    asset.ID,
		StorageKey: asset.StorageKey,
		Status:     asset.RenderStatus,
	})
}

// DirectUpload handles small documents in one request: synchronous for the
// direct-publish path, 202 QUEUED for the secure path.
func (h *UploadHandler) DirectUpload(c *fiber.Ctx) error {
	userID := callerID(c)
	if userID == "" {
		return apperrors.Reply(c, apperrors.ErrForbidden)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return apperrors.Reply(c, apperrors.InvalidRequestf("file is required"))
	}
	if fileHeader.Size > h.cfg.MaxFileSize {
		return apperrors.Reply(c, apperrors.InvalidRequestf("file exceeds %d bytes", h.cfg.MaxFileSize))
	}

	mimeType := c.FormValue("mime_type")
	if mimeType == "" {
		mimeType = fileHeader.Header.Get("Content-Type")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return apperrors.Reply(c, err)
	}
	defer f.Close()

	asset, err := h.ingest.Publish(c.Context(), services.PublishInput{
		UserID:   userID,
		ModuleID: c.FormValue("module_id"),
		Filename: fileHeader.Filename,
		MimeType: mimeType,
		Secure:   c.FormValue("secure") != "false",
		Body:     f,
		Size:     fileHeader.Size,
	})
	if err != nil {
		return apperrors.Reply(c, err)
	}

	if asset.IsCompleted() {
		return c.JSON(fiber.Map{
			"id":          asset.ID,
			"storage_key": asset.StorageKey,
			"status":      asset.RenderStatus,
		})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"id":     asset.ID,
		"status": "QUEUED",
	})
}
