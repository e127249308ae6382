package handler

import (
	"github.com/gin-gonic/gin"
	formapp "github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/application/form"
)

// FormHandler serves form management and prefilled form rendering
type FormHandler struct {
	BaseHandler
	forms *formapp.FormService
}

// NewFormHandler creates a new FormHandler
func NewFormHandler(forms *formapp.FormService) *FormHandler {
	return &FormHandler{forms: forms}
}

// List returns form definitions ordered by name.
// GET /api/v1/form-management
func (h *FormHandler) List(c *gin.Context) {
	var req formapp.ListFormsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.forms.List(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// Create creates a form definition.
// POST /api/v1/form-management
func (h *FormHandler) Create(c *gin.Context) {
	var req formapp.CreateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	f, err := h.forms.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, f)
}

// Get returns a form definition.
// GET /api/v1/form-management/:id
func (h *FormHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	f, err := h.forms.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, f)
}

// Modify updates a form definition; read-only forms answer 403.
// PUT /api/v1/form-management/:id
func (h *FormHandler) Modify(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req formapp.ModifyFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	f, err := h.forms.Modify(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, f)
}

// Delete removes a form definition.
// DELETE /api/v1/form-management/:id
func (h *FormHandler) Delete(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.forms.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Exists reports whether a form name is taken.
// GET /api/v1/form-management/exists/:name
func (h *FormHandler) Exists(c *gin.Context) {
	exists, err := h.forms.Exists(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"exists": exists})
}

// Prefilled returns the named form prefilled from ?documentId.
// GET /api/v1/form/:name
func (h *FormHandler) Prefilled(c *gin.Context) {
	documentID, ok := h.optionalUUIDQuery(c, "documentId")
	if !ok {
		return
	}
	definition, err := h.forms.PrefillByName(c.Request.Context(), c.Param("name"), documentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, definition)
}
