package handler

import (
	"github.com/gin-gonic/gin"
	processapp "github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/application/processdocument"
)

// ProcessDocumentHandler serves /api/v1/process-document
type ProcessDocumentHandler struct {
	BaseHandler
	processes *processapp.ProcessDocumentService
}

// NewProcessDocumentHandler creates a new ProcessDocumentHandler
func NewProcessDocumentHandler(processes *processapp.ProcessDocumentService) *ProcessDocumentHandler {
	return &ProcessDocumentHandler{processes: processes}
}

// ListDefinitions returns the links of ?documentDefinitionName or ?processDefinitionKey.
// GET /api/v1/process-document/definition
func (h *ProcessDocumentHandler) ListDefinitions(c *gin.Context) {
	if name := c.Query("documentDefinitionName"); name != "" {
		h.respondDefinitions(c, func() ([]processapp.DefinitionResponse, error) {
			return h.processes.FindByDocumentDefinition(c.Request.Context(), name)
		})
		return
	}
	if key := c.Query("processDefinitionKey"); key != "" {
		h.respondDefinitions(c, func() ([]processapp.DefinitionResponse, error) {
			return h.processes.FindByProcessDefinition(c.Request.Context(), key)
		})
		return
	}
	h.BadRequest(c, "documentDefinitionName or processDefinitionKey is required")
}

// ByDocumentDefinition returns the processes linked to a document definition.
// GET /api/v1/process-document/definition/document/:name
func (h *ProcessDocumentHandler) ByDocumentDefinition(c *gin.Context) {
	h.respondDefinitions(c, func() ([]processapp.DefinitionResponse, error) {
		return h.processes.FindByDocumentDefinition(c.Request.Context(), c.Param("name"))
	})
}

// ByProcessDefinition returns the document definitions linked to a process.
// GET /api/v1/process-document/definition/process/:key
func (h *ProcessDocumentHandler) ByProcessDefinition(c *gin.Context) {
	h.respondDefinitions(c, func() ([]processapp.DefinitionResponse, error) {
		return h.processes.FindByProcessDefinition(c.Request.Context(), c.Param("key"))
	})
}

func (h *ProcessDocumentHandler) respondDefinitions(c *gin.Context, find func() ([]processapp.DefinitionResponse, error)) {
	defs, err := find()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, defs)
}

// CreateDefinition links a process to a document definition.
// POST /api/v1/process-document/definition
func (h *ProcessDocumentHandler) CreateDefinition(c *gin.Context) {
	var req processapp.CreateDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	def, err := h.processes.CreateDefinition(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, def)
}

// DeleteDefinition removes a link.
// DELETE /api/v1/process-document/definition
func (h *ProcessDocumentHandler) DeleteDefinition(c *gin.Context) {
	var req processapp.DefinitionIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if err := h.processes.DeleteDefinition(c.Request.Context(), req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// NewDocumentAndStartProcess creates a document and starts its process.
// POST /api/v1/process-document/operation/new-document-and-start-process
func (h *ProcessDocumentHandler) NewDocumentAndStartProcess(c *gin.Context) {
	var req processapp.NewDocumentAndStartProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.processes.NewDocumentAndStartProcess(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ModifyDocumentAndStartProcess updates a document and starts another process for it.
// POST /api/v1/process-document/operation/modify-document-and-start-process
func (h *ProcessDocumentHandler) ModifyDocumentAndStartProcess(c *gin.Context) {
	var req processapp.ModifyDocumentAndStartProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.processes.ModifyDocumentAndStartProcess(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ModifyDocumentAndCompleteTask updates a document and completes one of its tasks.
// POST /api/v1/process-document/operation/modify-document-and-complete-task
func (h *ProcessDocumentHandler) ModifyDocumentAndCompleteTask(c *gin.Context) {
	var req processapp.ModifyDocumentAndCompleteTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.processes.ModifyDocumentAndCompleteTask(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// InstancesByDocument lists the process instances of a document.
// GET /api/v1/process-document/instance/document/:documentId
func (h *ProcessDocumentHandler) InstancesByDocument(c *gin.Context) {
	id, ok := h.uuidParam(c, "documentId")
	if !ok {
		return
	}
	instances, err := h.processes.FindInstancesByDocument(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, instances)
}
