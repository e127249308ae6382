package document

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/document"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

// DeployDefinitionRequest carries a JSON schema whose $id names the definition
type DeployDefinitionRequest struct {
	Schema json.RawMessage `json:"schema" binding:"required"`
}

// DefinitionResponse represents a document definition in API responses
type DefinitionResponse struct {
	Name      string          `json:"name"`
	Version   int             `json:"version"`
	Schema    json.RawMessage `json:"schema"`
	CreatedOn time.Time       `json:"created_on"`
	ReadOnly  bool            `json:"read_only"`
}

// DeployResult reports the outcome of a deployment
type DeployResult struct {
	Definition DefinitionResponse `json:"definition"`
	// Deployed is false when an identical schema was already deployed
	Deployed bool `json:"deployed"`
}

// ToDefinitionResponse converts a definition
func ToDefinitionResponse(d *document.Definition) DefinitionResponse {
	return DefinitionResponse{
		Name:      d.ID.Name,
		Version:   d.ID.Version,
		Schema:    d.Schema,
		CreatedOn: d.CreatedOn,
		ReadOnly:  d.ReadOnly,
	}
}

// CreateDocumentRequest creates a document of the latest definition version
type CreateDocumentRequest struct {
	DefinitionName string          `json:"definition_name" binding:"required"`
	Content        json.RawMessage `json:"content" binding:"required"`
}

// ModifyDocumentRequest replaces the content of a document
type ModifyDocumentRequest struct {
	DocumentID     uuid.UUID       `json:"document_id" binding:"required"`
	Content        json.RawMessage `json:"content" binding:"required"`
	VersionBasedOn int             `json:"version_based_on" binding:"required,min=1"`
}

// AssignRequest names the user a document is assigned to
type AssignRequest struct {
	AssigneeID string `json:"assignee_id" binding:"required"`
}

// ResourceResponse represents a file linked to a document
type ResourceResponse struct {
	ResourceID  uuid.UUID `json:"resource_id"`
	FileName    string    `json:"file_name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	CreatedOn   time.Time `json:"created_on"`
}

// DocumentResponse represents a document in API responses
type DocumentResponse struct {
	ID                uuid.UUID          `json:"id"`
	DefinitionName    string             `json:"definition_name"`
	DefinitionVersion int                `json:"definition_version"`
	Content           json.RawMessage    `json:"content"`
	Sequence          int64              `json:"sequence"`
	CreatedOn         time.Time          `json:"created_on"`
	ModifiedOn        time.Time          `json:"modified_on"`
	CreatedBy         string             `json:"created_by"`
	AssigneeID        string             `json:"assignee_id,omitempty"`
	AssigneeFullName  string             `json:"assignee_full_name,omitempty"`
	Version           int                `json:"version"`
	Resources         []ResourceResponse `json:"resources"`
}

// ToDocumentResponse converts a document
func ToDocumentResponse(d *document.Document) DocumentResponse {
	resources := make([]ResourceResponse, len(d.Resources))
	for i, r := range d.Resources {
		resources[i] = toResourceResponse(r)
	}
	return DocumentResponse{
		ID:                d.ID,
		DefinitionName:    d.DefinitionID.Name,
		DefinitionVersion: d.DefinitionID.Version,
		Content:           d.Content,
		Sequence:          d.Sequence,
		CreatedOn:         d.CreatedAt,
		ModifiedOn:        d.UpdatedAt,
		CreatedBy:         d.CreatedBy,
		AssigneeID:        d.AssigneeID,
		AssigneeFullName:  d.AssigneeFullName,
		Version:           d.Version,
		Resources:         resources,
	}
}

func toResourceResponse(r document.Resource) ResourceResponse {
	return ResourceResponse{
		ResourceID:  r.ResourceID,
		FileName:    r.FileName,
		Size:        r.Size,
		ContentType: r.ContentType,
		CreatedOn:   r.CreatedOn,
	}
}

// PageRequest holds paging and sorting. Sort is "field" or "field,asc|desc".
type PageRequest struct {
	Page int    `json:"page" form:"page" binding:"omitempty,min=1"`
	Size int    `json:"size" form:"size" binding:"omitempty,min=1,max=200"`
	Sort string `json:"sort" form:"sort"`
}

// Filter converts paging to a repository filter
func (p PageRequest) Filter() shared.Filter {
	f := shared.DefaultFilter()
	if p.Page > 0 {
		f.Page = p.Page
	}
	if p.Size > 0 {
		f.PageSize = p.Size
	}
	if p.Sort != "" {
		field, dir, _ := strings.Cut(p.Sort, ",")
		f.OrderBy = strings.TrimSpace(field)
		if dir != "" {
			f.OrderDir = strings.ToLower(strings.TrimSpace(dir))
		}
	}
	return f
}

// DocumentSearchRequest is the body of a basic document search
type DocumentSearchRequest struct {
	PageRequest
	DefinitionName     string                `json:"definition_name"`
	Sequence           *int64                `json:"sequence"`
	CreatedBy          string                `json:"created_by"`
	AssigneeID         string                `json:"assignee_id"`
	GlobalSearchFilter string                `json:"global_search_filter"`
	OtherFilters       []document.PathFilter `json:"other_filters" binding:"dive"`
}

// AdvancedSearchRequest is the body of a search over a definition's search fields
type AdvancedSearchRequest struct {
	PageRequest
	AssigneeFilter document.AssigneeFilter `json:"assignee_filter" binding:"omitempty,oneof=all open mine"`
	SearchOperator document.SearchOperator `json:"search_operator" binding:"omitempty,oneof=and or"`
	OtherFilters   []document.FieldFilter  `json:"other_filters"`
}

// SearchFieldRequest creates or updates a search field
type SearchFieldRequest struct {
	Key       string             `json:"key" binding:"required,max=255"`
	Path      string             `json:"path" binding:"required"`
	DataType  document.DataType  `json:"data_type" binding:"required"`
	FieldType document.FieldType `json:"field_type"`
	MatchType document.MatchType `json:"match_type"`
	Order     int                `json:"order"`
}
