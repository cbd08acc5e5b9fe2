package api

import (
	"strconv"

	"github.com/Egham-7/cloudlines/internal/models"
	"github.com/Egham-7/cloudlines/internal/services/stream/contracts"

	"github.com/gofiber/fiber/v2"
)

// SnapshotHandler serves the current frame as a single image
type SnapshotHandler struct {
	frames contracts.FrameReader
}

func NewSnapshotHandler(frames contracts.FrameReader) *SnapshotHandler {
	return &SnapshotHandler{frames: frames}
}

// Latest returns the most recent frame, or 404 before the first one exists
func (h *SnapshotHandler) Latest(c *fiber.Ctx) error {
	setNoCacheHeaders(c)

	frame, ok := h.frames.Read()
	if !ok {
		appErr := models.NewUnavailableError()
		return c.Status(appErr.GetStatusCode()).JSON(fiber.Map{
			"error": appErr.Message,
			"code":  appErr.Code,
		})
	}

	c.Set(fiber.HeaderContentType, frame.ContentType)
	c.Set(headerFrameSeq, strconv.FormatUint(frame.Seq, 10))

	return c.Status(fiber.StatusOK).Send(frame.Data)
}
