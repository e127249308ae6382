package handler

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	docapp "github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/application/document"
)

// ResourceHandler serves /api/v1/resource
type ResourceHandler struct {
	BaseHandler
	resources *docapp.ResourceService
}

// NewResourceHandler creates a new ResourceHandler
func NewResourceHandler(resources *docapp.ResourceService) *ResourceHandler {
	return &ResourceHandler{resources: resources}
}

// Upload stores the multipart "file" field.
// POST /api/v1/resource
func (h *ResourceHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "Missing multipart field 'file'")
		return
	}
	file, err := header.Open()
	if err != nil {
		h.BadRequest(c, "Unreadable upload")
		return
	}
	defer file.Close()

	res, err := h.resources.Upload(c.Request.Context(), header.Filename, header.Size,
		header.Header.Get("Content-Type"), file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, res)
}

// Download redirects to a presigned URL when the storage supports it and
// streams the bytes otherwise. ?metadata=true returns the resource metadata.
// GET /api/v1/resource/:id
func (h *ResourceHandler) Download(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if c.Query("metadata") == "true" {
		res, err := h.resources.Get(ctx, id)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, res)
		return
	}

	url, err := h.resources.DownloadURL(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if url != "" {
		c.Redirect(http.StatusTemporaryRedirect, url)
		return
	}

	body, res, err := h.resources.Open(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer body.Close()

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.FileName}))
	c.DataFromReader(http.StatusOK, res.Size, res.ContentType, body, nil)
}

// Delete removes the stored object and its metadata.
// DELETE /api/v1/resource/:id
func (h *ResourceHandler) Delete(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.resources.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
