package handler

import (
	"io"
	"mime/multipart"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"digilocker/internal/model"
	"digilocker/internal/service"
)

// documentView is a record as returned by the API. Preview is "pdf" when the
// file can be shown inline.
type documentView struct {
	model.DocumentRecord
	Preview string `json:"preview,omitempty"`
}

func viewOf(rec model.DocumentRecord) documentView {
	v := documentView{DocumentRecord: rec}
	if rec.IsPDF() {
		v.Preview = "pdf"
	}
	return v
}

func viewsOf(recs []model.DocumentRecord) []documentView {
	out := make([]documentView, len(recs))
	for i, r := range recs {
		out[i] = viewOf(r)
	}
	return out
}

type listResponse struct {
	HealthID model.Identifier `json:"health_id"`
	Data     []documentView   `json:"data"`
	Total    int              `json:"total"`
}

type uploadResponse struct {
	*service.UploadResult
	Documents []documentView `json:"documents"`
}

// healthIDParam reads the locker from the path. Fiber leaves params escaped.
func healthIDParam(c *fiber.Ctx) (model.Identifier, error) {
	raw, err := url.PathUnescape(c.Params("healthID"))
	if err != nil {
		return "", &model.ValidationError{Field: "health_id", Reason: "bad escaping"}
	}
	return model.ParseIdentifier(raw)
}

// ListDocuments godoc
// @Summary  List the documents of a locker, newest first
// @Tags     documents
// @Produce  json
// @Param    healthID  path      string  true  "Health ID"
// @Success  200       {object}  listResponse
// @Failure  400,502   {object}  errorPayload
// @Router   /lockers/{healthID}/documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := healthIDParam(c)
		if err != nil {
			return respondError(c, err)
		}
		recs, err := svc.List(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(listResponse{HealthID: id, Data: viewsOf(recs), Total: len(recs)})
	}
}

// UploadDocuments godoc
// @Summary      Upload up to five files to a locker
// @Description  Files are uploaded one after another; a failed file does not stop the rest.
// @Description  201 when every file was stored, 207 when some were, 502 when none were.
// @Tags         documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        healthID  path      string  true  "Health ID"
// @Param        files     formData  file    true  "Files (repeat the field, at most 5)"
// @Success      201,207   {object}  uploadResponse
// @Failure      400       {object}  errorPayload
// @Failure      502       {object}  uploadResponse
// @Router       /lockers/{healthID}/documents [post]
func UploadDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := healthIDParam(c)
		if err != nil {
			return respondError(c, err)
		}
		form, err := c.MultipartForm()
		if err != nil || len(form.File["files"]) == 0 {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "at least one file is required in field \"files\"")
		}

		res, err := svc.Upload(c.UserContext(), id, fileHandles(form.File["files"]))
		if err != nil {
			return respondError(c, err)
		}

		status := fiber.StatusCreated
		switch {
		case res.Succeeded == 0:
			status = fiber.StatusBadGateway
		case res.Failed > 0:
			status = fiber.StatusMultiStatus
		}
		return c.Status(status).JSON(uploadResponse{UploadResult: res, Documents: viewsOf(res.Documents)})
	}
}

func fileHandles(headers []*multipart.FileHeader) []model.FileHandle {
	files := make([]model.FileHandle, len(headers))
	for i, fh := range headers {
		files[i] = model.FileHandle{
			Name:        fh.Filename,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
			Open:        func() (io.ReadCloser, error) { return fh.Open() },
		}
	}
	return files
}

// GetDocument godoc
// @Summary  Get one document of a locker
// @Tags     documents
// @Produce  json
// @Param    healthID  path      string  true  "Health ID"
// @Param    id        path      string  true  "Document ID"
// @Success  200       {object}  documentView
// @Failure  400,404   {object}  errorPayload
// @Router   /lockers/{healthID}/documents/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := healthIDParam(c)
		if err != nil {
			return respondError(c, err)
		}
		rec, err := svc.Get(c.UserContext(), id, c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(viewOf(*rec))
	}
}

// DocumentLink godoc
// @Summary  Time-limited download link for a document
// @Tags     documents
// @Produce  json
// @Param    healthID  path      string  true  "Health ID"
// @Param    id        path      string  true  "Document ID"
// @Success  200       {object}  service.Link
// @Failure  404,502   {object}  errorPayload
// @Router   /lockers/{healthID}/documents/{id}/link [get]
func DocumentLink(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := healthIDParam(c)
		if err != nil {
			return respondError(c, err)
		}
		link, err := svc.Link(c.UserContext(), id, c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(link)
	}
}

// DeleteDocument godoc
// @Summary      Delete a document
// @Description  The stored file is removed first; if that fails the record is kept.
// @Tags         documents
// @Param        healthID     path  string  true  "Health ID"
// @Param        id           path  string  true  "Document ID"
// @Success      204
// @Failure      404,500,502  {object}  errorPayload
// @Router       /lockers/{healthID}/documents/{id} [delete]
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := healthIDParam(c)
		if err != nil {
			return respondError(c, err)
		}
		if err := svc.Delete(c.UserContext(), id, c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
