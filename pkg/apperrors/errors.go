// Package apperrors defines the error taxonomy shared by the upload
// pipeline and the render worker. Handlers map these onto HTTP statuses;
// the worker records them on the asset row for operator triage.
package apperrors

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")

	// render worker step failures
	ErrSourceNotFound = errors.New("source not found")
	ErrConvertFailed  = errors.New("convert failed")
	ErrUploadFailed   = errors.New("upload failed")
	ErrDbUpdateFailed = errors.New("db update failed")

	// ErrLocked is not a failure: the asset exists but is still rendering.
	ErrLocked = errors.New("asset still processing")
)

// InvalidRequestf wraps ErrInvalidRequest with a caller-facing detail.
func InvalidRequestf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidRequest}, args...)...)
}

// HTTPStatus maps a taxonomy error to its response status. Unknown errors
// map to 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrSourceNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrLocked):
		return fiber.StatusLocked
	default:
		return fiber.StatusInternalServerError
	}
}

// Reply writes the canonical JSON error body for err.
func Reply(c *fiber.Ctx, err error) error {
	status := HTTPStatus(err)
	if status == fiber.StatusLocked {
		return c.Status(status).JSON(fiber.Map{"status": "PROCESSING"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
