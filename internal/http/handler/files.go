package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"digilocker/internal/gateway"
	"digilocker/internal/service"
)

// ServeFile godoc
// @Summary      Download a stored file by its public path
// @Description  The path is the part of a file_url after the public base URL.
// @Tags         files
// @Produce      octet-stream
// @Param        path  path  string  true  "bucket/health id/file"
// @Success      200
// @Failure      404  {object}  errorPayload
// @Router       /files/{path} [get]
func ServeFile(svc service.DocumentService, urls gateway.URLScheme) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rel := c.Params("*")
		if rel == "" {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found")
		}
		rc, info, err := svc.Open(c.UserContext(), urls.Join(rel))
		if err != nil {
			return respondError(c, err)
		}

		ct := info.ContentType
		if ct == "" {
			ct = fiber.MIMEOctetStream
		}
		c.Set(fiber.HeaderContentType, ct)
		if name := info.Metadata["original-filename"]; name != "" {
			c.Set(fiber.HeaderContentDisposition, "inline; filename="+strconv.Quote(name))
		}
		size := -1
		if info.Size > 0 {
			size = int(info.Size)
		}
		// The body stream is closed by fasthttp once it has been written.
		return c.SendStream(rc, size)
	}
}
