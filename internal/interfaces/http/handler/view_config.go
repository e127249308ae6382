package handler

import (
	"github.com/gin-gonic/gin"
	viewconfigapp "github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/application/viewconfig"
)

// ViewConfigHandler serves /api/v1/view-config
type ViewConfigHandler struct {
	BaseHandler
	views *viewconfigapp.ViewConfigService
}

// NewViewConfigHandler creates a new ViewConfigHandler
func NewViewConfigHandler(views *viewconfigapp.ViewConfigService) *ViewConfigHandler {
	return &ViewConfigHandler{views: views}
}

// List returns the configurations of ?processDefinitionKey, or all of them.
// GET /api/v1/view-config
func (h *ViewConfigHandler) List(c *gin.Context) {
	list, err := h.views.List(c.Request.Context(), c.Query("processDefinitionKey"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}

// POST /api/v1/view-config
func (h *ViewConfigHandler) Create(c *gin.Context) {
	var req viewconfigapp.CreateViewConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	vc, err := h.views.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, vc)
}

// PUT /api/v1/view-config/:id
func (h *ViewConfigHandler) Update(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req viewconfigapp.UpdateViewConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	vc, err := h.views.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, vc)
}

// DELETE /api/v1/view-config/:id
func (h *ViewConfigHandler) Delete(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.views.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Resolve picks the view the current user sees for a process task.
// GET /api/v1/view-config/resolve?processDefinitionKey&taskDefinitionKey
func (h *ViewConfigHandler) Resolve(c *gin.Context) {
	key := c.Query("processDefinitionKey")
	if key == "" {
		h.BadRequest(c, "processDefinitionKey is required")
		return
	}
	vc, err := h.views.Resolve(c.Request.Context(), key, c.Query("taskDefinitionKey"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, vc)
}

// Views lists the registered view ids.
// GET /api/v1/view-config/views
func (h *ViewConfigHandler) Views(c *gin.Context) {
	h.Success(c, h.views.Views())
}
