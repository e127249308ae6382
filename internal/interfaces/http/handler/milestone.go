package handler

import (
	"github.com/gin-gonic/gin"
	milestoneapp "github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/application/milestone"
)

// MilestoneHandler serves milestones and milestone sets
type MilestoneHandler struct {
	BaseHandler
	milestones *milestoneapp.MilestoneService
}

// NewMilestoneHandler creates a new MilestoneHandler
func NewMilestoneHandler(milestones *milestoneapp.MilestoneService) *MilestoneHandler {
	return &MilestoneHandler{milestones: milestones}
}

// List returns all milestones.
// GET /api/v1/milestones
func (h *MilestoneHandler) List(c *gin.Context) {
	list, err := h.milestones.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}

// Save creates a milestone, or updates it when the body carries an id.
// POST /api/v1/milestones
func (h *MilestoneHandler) Save(c *gin.Context) {
	var req milestoneapp.SaveMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	m, err := h.milestones.Save(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if req.ID == nil {
		h.Created(c, m)
		return
	}
	h.Success(c, m)
}

// GET /api/v1/milestones/:id
func (h *MilestoneHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	m, err := h.milestones.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, m)
}

// DELETE /api/v1/milestones/:id
func (h *MilestoneHandler) Delete(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.milestones.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// FlowNodes lists the user tasks and events of a process definition.
// GET /api/v1/milestones/:id/flownodes
func (h *MilestoneHandler) FlowNodes(c *gin.Context) {
	nodes, err := h.milestones.GetFlowNodes(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, nodes)
}

// GET /api/v1/milestonesets
func (h *MilestoneHandler) ListSets(c *gin.Context) {
	sets, err := h.milestones.ListSets(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sets)
}

// SaveSet creates a set, or renames it when the body carries an id.
// POST /api/v1/milestonesets
func (h *MilestoneHandler) SaveSet(c *gin.Context) {
	var req milestoneapp.SaveMilestoneSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	set, err := h.milestones.SaveSet(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if req.ID == nil {
		h.Created(c, set)
		return
	}
	h.Success(c, set)
}

// GET /api/v1/milestonesets/:id
func (h *MilestoneHandler) GetSet(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	set, err := h.milestones.GetSet(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, set)
}

// DeleteSet removes a set together with its milestones.
// DELETE /api/v1/milestonesets/:id
func (h *MilestoneHandler) DeleteSet(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.milestones.DeleteSet(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
