package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	formlinkapp "github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/application/formlink"
)

// FormAssociationHandler serves /api/form-association
type FormAssociationHandler struct {
	BaseHandler
	links *formlinkapp.FormLinkService
}

// NewFormAssociationHandler creates a new FormAssociationHandler
func NewFormAssociationHandler(links *formlinkapp.FormLinkService) *FormAssociationHandler {
	return &FormAssociationHandler{links: links}
}

// List returns the associations of a process.
// GET /api/form-association/form-association?processDefinitionKey=
func (h *FormAssociationHandler) List(c *gin.Context) {
	key := c.Query("processDefinitionKey")
	if key == "" {
		h.BadRequest(c, "processDefinitionKey is required")
		return
	}
	list, err := h.links.ListByProcess(c.Request.Context(), key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}

// Create links a flow element to a form, URL or front-end state.
// POST /api/form-association/form-association
func (h *FormAssociationHandler) Create(c *gin.Context) {
	var req formlinkapp.CreateAssociationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	a, err := h.links.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, a)
}

// Modify replaces an association.
// PUT /api/form-association/form-association
func (h *FormAssociationHandler) Modify(c *gin.Context) {
	var req formlinkapp.ModifyAssociationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	a, err := h.links.Modify(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, a)
}

// Delete removes an association.
// DELETE /api/form-association/form-association?processDefinitionKey=&formAssociationId=
func (h *FormAssociationHandler) Delete(c *gin.Context) {
	key := c.Query("processDefinitionKey")
	if key == "" {
		h.BadRequest(c, "processDefinitionKey is required")
		return
	}
	id, err := uuid.Parse(c.Query("formAssociationId"))
	if err != nil {
		h.BadRequest(c, "Invalid formAssociationId: must be a UUID")
		return
	}
	if err := h.links.Delete(c.Request.Context(), key, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// FormDefinition returns what is linked to a flow element, prefilled for forms.
// GET /api/form-association/form-definition
func (h *FormAssociationHandler) FormDefinition(c *gin.Context) {
	var req formlinkapp.FormForNodeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.links.FormForNode(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Submit handles a submitted form.
// POST /api/form-association/form-definition/submission
func (h *FormAssociationHandler) Submit(c *gin.Context) {
	var req formlinkapp.SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.links.Submit(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
