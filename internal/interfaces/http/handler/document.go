package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	docapp "github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/application/document"
)

// DocumentDefinitionHandler serves /api/v1/document-definition
type DocumentDefinitionHandler struct {
	BaseHandler
	definitions *docapp.DefinitionService
}

// NewDocumentDefinitionHandler creates a new DocumentDefinitionHandler
func NewDocumentDefinitionHandler(definitions *docapp.DefinitionService) *DocumentDefinitionHandler {
	return &DocumentDefinitionHandler{definitions: definitions}
}

// List returns the latest version of each definition.
// GET /api/v1/document-definition?page&size&sort
func (h *DocumentDefinitionHandler) List(c *gin.Context) {
	var req docapp.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.definitions.List(c.Request.Context(), req.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// Deploy deploys a JSON schema. Identical schemas answer 200, new versions 201.
// POST /api/v1/document-definition
func (h *DocumentDefinitionHandler) Deploy(c *gin.Context) {
	var req docapp.DeployDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.definitions.Deploy(c.Request.Context(), req, false)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.Deployed {
		h.Created(c, result)
		return
	}
	h.Success(c, result)
}

// GetLatest returns the latest version of a definition.
// GET /api/v1/document-definition/:name
func (h *DocumentDefinitionHandler) GetLatest(c *gin.Context) {
	def, err := h.definitions.FindLatest(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, def)
}

// GetVersion returns one version of a definition.
// GET /api/v1/document-definition/:name/version/:version
func (h *DocumentDefinitionHandler) GetVersion(c *gin.Context) {
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < 1 {
		h.BadRequest(c, "Invalid version")
		return
	}
	def, err := h.definitions.FindVersion(c.Request.Context(), c.Param("name"), version)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, def)
}

// Delete removes every version of a definition.
// DELETE /api/v1/document-definition/:name
func (h *DocumentDefinitionHandler) Delete(c *gin.Context) {
	if err := h.definitions.Delete(c.Request.Context(), c.Param("name")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// DocumentHandler serves /api/v1/document
type DocumentHandler struct {
	BaseHandler
	documents *docapp.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documents *docapp.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// Create creates a document.
// POST /api/v1/document
func (h *DocumentHandler) Create(c *gin.Context) {
	var req docapp.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	doc, err := h.documents.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// Modify replaces the content of a document; a stale version_based_on answers 409.
// PUT /api/v1/document
func (h *DocumentHandler) Modify(c *gin.Context) {
	var req docapp.ModifyDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	doc, err := h.documents.Modify(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Get returns a document.
// GET /api/v1/document/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	doc, err := h.documents.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Delete removes a document.
// DELETE /api/v1/document/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.documents.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Assign sets the assignee.
// POST /api/v1/document/:id/assign
func (h *DocumentHandler) Assign(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req docapp.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	doc, err := h.documents.Assign(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Unassign clears the assignee.
// POST /api/v1/document/:id/unassign
func (h *DocumentHandler) Unassign(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	doc, err := h.documents.Unassign(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// AddResource links an uploaded resource.
// POST /api/v1/document/:id/resource/:resourceId
func (h *DocumentHandler) AddResource(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	resourceID, ok := h.uuidParam(c, "resourceId")
	if !ok {
		return
	}
	doc, err := h.documents.AddResource(c.Request.Context(), id, resourceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// RemoveResource unlinks a resource.
// DELETE /api/v1/document/:id/resource/:resourceId
func (h *DocumentHandler) RemoveResource(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	resourceID, ok := h.uuidParam(c, "resourceId")
	if !ok {
		return
	}
	doc, err := h.documents.RemoveResource(c.Request.Context(), id, resourceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Search runs a basic search.
// POST /api/v1/document-search
func (h *DocumentHandler) Search(c *gin.Context) {
	var req docapp.DocumentSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.documents.Search(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// AdvancedSearch searches through the definition's search fields.
// POST /api/v1/document-search/:name
func (h *DocumentHandler) AdvancedSearch(c *gin.Context) {
	var req docapp.AdvancedSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.documents.AdvancedSearch(c.Request.Context(), c.Param("name"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// SearchFieldHandler serves /api/v1/document-search/:name/fields
type SearchFieldHandler struct {
	BaseHandler
	fields *docapp.SearchFieldService
}

// NewSearchFieldHandler creates a new SearchFieldHandler
func NewSearchFieldHandler(fields *docapp.SearchFieldService) *SearchFieldHandler {
	return &SearchFieldHandler{fields: fields}
}

func (h *SearchFieldHandler) List(c *gin.Context) {
	fields, err := h.fields.List(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, fields)
}

func (h *SearchFieldHandler) Create(c *gin.Context) {
	var req docapp.SearchFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	field, err := h.fields.Create(c.Request.Context(), c.Param("name"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, field)
}

func (h *SearchFieldHandler) Update(c *gin.Context) {
	var req docapp.SearchFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	field, err := h.fields.Update(c.Request.Context(), c.Param("name"), c.Param("key"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, field)
}

func (h *SearchFieldHandler) Delete(c *gin.Context) {
	if err := h.fields.Delete(c.Request.Context(), c.Param("name"), c.Param("key")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
