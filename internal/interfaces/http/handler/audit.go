package handler

import (
	"github.com/gin-gonic/gin"
	auditapp "github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/application/audit"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

// AuditHandler serves the audit trail
type AuditHandler struct {
	BaseHandler
	audit *auditapp.AuditService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(audit *auditapp.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// Search filters records, newest first.
// GET /api/audit
func (h *AuditHandler) Search(c *gin.Context) {
	var req auditapp.SearchAuditRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.audit.Search(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// Get returns a single record.
// GET /api/audit/:id
func (h *AuditHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	record, err := h.audit.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// ByDocument returns the records of a document, optionally limited to ?event_type values.
// GET /api/v1/document/:id/audit
func (h *AuditHandler) ByDocument(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	defaults := shared.DefaultFilter()
	page, err := h.audit.FindByDocument(c.Request.Context(), id, c.QueryArray("event_type"),
		intQuery(c, "page", defaults.Page), intQuery(c, "page_size", defaults.PageSize))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}
