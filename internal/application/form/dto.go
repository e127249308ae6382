package form

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/form"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

// CreateFormRequest is the body for creating a form definition
type CreateFormRequest struct {
	Name       string          `json:"name" binding:"required,max=255"`
	Definition json.RawMessage `json:"form_definition" binding:"required"`
}

// ModifyFormRequest is the body for modifying a form definition
type ModifyFormRequest struct {
	Name       string          `json:"name" binding:"required,max=255"`
	Definition json.RawMessage `json:"form_definition" binding:"required"`
}

// ListFormsRequest is bound from the query string of the form list endpoint
type ListFormsRequest struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Filter converts the request into a repository filter ordered by name
func (r ListFormsRequest) Filter() shared.Filter {
	f := shared.DefaultFilter()
	f.OrderBy = "name"
	f.OrderDir = "asc"
	f.Search = r.Search
	if r.Page > 0 {
		f.Page = r.Page
	}
	if r.PageSize > 0 {
		f.PageSize = r.PageSize
	}
	return f
}

// FormResponse is the API view of a form definition
type FormResponse struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Definition json.RawMessage `json:"form_definition"`
	ReadOnly   bool            `json:"read_only"`
	CreatedOn  time.Time       `json:"created_on"`
	ModifiedOn time.Time       `json:"modified_on"`
}

// ToFormResponse converts a form definition
func ToFormResponse(f *form.FormDefinition) FormResponse {
	return FormResponse{
		ID:         f.ID,
		Name:       f.Name,
		Definition: f.Definition,
		ReadOnly:   f.ReadOnly,
		CreatedOn:  f.CreatedAt,
		ModifiedOn: f.UpdatedAt,
	}
}

// ExistsResponse answers the form name check
type ExistsResponse struct {
	Exists bool `json:"exists"`
}
