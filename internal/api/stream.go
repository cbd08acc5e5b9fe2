package api

import (
	"bufio"

	"github.com/Egham-7/cloudlines/internal/services/stream"
	"github.com/Egham-7/cloudlines/internal/services/stream/writers"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// StreamHandler serves the multipart-replace frame stream
type StreamHandler struct {
	svc *stream.Service
}

func NewStreamHandler(svc *stream.Service) *StreamHandler {
	return &StreamHandler{svc: svc}
}

// Stream attaches the caller as a subscriber and streams until it disconnects
func (h *StreamHandler) Stream(c *fiber.Ctx) error {
	boundary := h.svc.Boundary()

	c.Set(fiber.HeaderContentType, writers.MultipartContentType(boundary))
	setNoCacheHeaders(c)

	sub := h.svc.Attach(c.IP(), c.Get(fiber.HeaderUserAgent))

	fasthttpCtx := c.Context()
	fasthttpCtx.SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		connState := writers.NewFastHTTPConnectionState(fasthttpCtx)
		go connState.WatchPeer(fasthttpCtx.Conn())

		mw := writers.NewMultipartWriter(w, connState, boundary, sub.ID)

		h.svc.Serve(sub, connState, mw)
	}))

	return nil
}
