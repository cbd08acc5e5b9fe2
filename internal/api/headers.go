package api

import "github.com/gofiber/fiber/v2"

const (
	noCacheControl = "private, no-cache, no-store, max-age=0"
	headerFrameSeq = "X-Frame-Seq"
)

// setNoCacheHeaders marks a frame response as never cacheable and single-use
func setNoCacheHeaders(c *fiber.Ctx) {
	c.Set(fiber.HeaderCacheControl, noCacheControl)
	c.Set(fiber.HeaderPragma, "no-cache")
	c.Set(fiber.HeaderConnection, "close")
}
