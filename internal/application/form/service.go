package form

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/contract"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/document"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/form"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"go.uber.org/zap"
)

// DocumentReader loads documents for prefilling
type DocumentReader interface {
	GetDocument(ctx context.Context, id uuid.UUID) (*document.Document, error)
}

// FormService manages form definitions and fills them with case data
type FormService struct {
	forms     form.FormDefinitionRepository
	documents DocumentReader
	engine    contract.ProcessEngine
	logger    *zap.Logger
}

// NewFormService creates a new FormService
func NewFormService(
	forms form.FormDefinitionRepository,
	documents DocumentReader,
	engine contract.ProcessEngine,
	logger *zap.Logger,
) *FormService {
	return &FormService{
		forms:     forms,
		documents: documents,
		engine:    engine,
		logger:    logger,
	}
}

// Create stores a new editable form
func (s *FormService) Create(ctx context.Context, req CreateFormRequest) (*FormResponse, error) {
	exists, err := s.forms.ExistsByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Form already exists: "+req.Name)
	}
	f, err := form.NewFormDefinition(req.Name, req.Definition, false)
	if err != nil {
		return nil, err
	}
	if err := s.forms.Create(ctx, f); err != nil {
		return nil, err
	}
	s.logger.Info("Form created", zap.String("form", f.Name), zap.String("id", f.ID.String()))
	resp := ToFormResponse(f)
	return &resp, nil
}

// Deploy creates or replaces a read-only form
func (s *FormService) Deploy(ctx context.Context, name string, definition json.RawMessage) (*FormResponse, error) {
	existing, err := s.forms.FindByName(ctx, name)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		f, err := form.NewFormDefinition(name, definition, true)
		if err != nil {
			return nil, err
		}
		if err := s.forms.Create(ctx, f); err != nil {
			return nil, err
		}
		resp := ToFormResponse(f)
		return &resp, nil
	case err != nil:
		return nil, err
	}

	if err := existing.Redeploy(definition); err != nil {
		return nil, err
	}
	if err := s.forms.Update(ctx, existing); err != nil {
		return nil, err
	}
	resp := ToFormResponse(existing)
	return &resp, nil
}

// Modify changes name and definition of an editable form
func (s *FormService) Modify(ctx context.Context, id uuid.UUID, req ModifyFormRequest) (*FormResponse, error) {
	f, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != f.Name {
		exists, err := s.forms.ExistsByName(ctx, req.Name)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Form already exists: "+req.Name)
		}
	}
	if err := f.Modify(req.Name, req.Definition); err != nil {
		return nil, err
	}
	if err := s.forms.Update(ctx, f); err != nil {
		return nil, err
	}
	resp := ToFormResponse(f)
	return &resp, nil
}

// Delete removes an editable form
func (s *FormService) Delete(ctx context.Context, id uuid.UUID) error {
	f, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := f.EnsureDeletable(); err != nil {
		return err
	}
	return s.forms.Delete(ctx, id)
}

// Get returns a form by id
func (s *FormService) Get(ctx context.Context, id uuid.UUID) (*FormResponse, error) {
	f, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToFormResponse(f)
	return &resp, nil
}

// GetByName returns a form by name
func (s *FormService) GetByName(ctx context.Context, name string) (*FormResponse, error) {
	f, err := s.findByName(ctx, name)
	if err != nil {
		return nil, err
	}
	resp := ToFormResponse(f)
	return &resp, nil
}

// List returns a page of forms ordered by name
func (s *FormService) List(ctx context.Context, req ListFormsRequest) (shared.Paginated[FormResponse], error) {
	filter := req.Filter()
	forms, total, err := s.forms.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[FormResponse]{}, err
	}
	items := make([]FormResponse, len(forms))
	for i := range forms {
		items[i] = ToFormResponse(&forms[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Exists reports whether a form with the name exists
func (s *FormService) Exists(ctx context.Context, name string) (bool, error) {
	return s.forms.ExistsByName(ctx, name)
}

// PrefillByName returns the named form filled with the content of a document, if given
func (s *FormService) PrefillByName(ctx context.Context, name string, documentID *uuid.UUID) (json.RawMessage, error) {
	f, err := s.findByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.prefill(ctx, f, documentID, "")
}

// PrefillByID returns a form filled with document content and, when taskID is
// set, the variables of that task
func (s *FormService) PrefillByID(ctx context.Context, id uuid.UUID, documentID *uuid.UUID, taskID string) (json.RawMessage, error) {
	f, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.prefill(ctx, f, documentID, taskID)
}

func (s *FormService) prefill(ctx context.Context, f *form.FormDefinition, documentID *uuid.UUID, taskID string) (json.RawMessage, error) {
	var data form.PrefillData
	if documentID != nil {
		doc, err := s.documents.GetDocument(ctx, *documentID)
		if err != nil {
			return nil, err
		}
		data.DocumentContent = doc.Content
	}
	if taskID != "" {
		if s.engine == nil {
			return nil, shared.NewDomainError("PROCESS_ENGINE_ERROR", "No process engine configured")
		}
		vars, err := s.engine.GetTaskVariables(ctx, taskID)
		if err != nil {
			return nil, err
		}
		data.ProcessVariables = vars
	}
	if data.DocumentContent == nil && data.ProcessVariables == nil {
		return f.Definition, nil
	}
	return form.Prefill(f.Definition, data)
}

func (s *FormService) find(ctx context.Context, id uuid.UUID) (*form.FormDefinition, error) {
	f, err := s.forms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, formNotFound(id.String())
		}
		return nil, err
	}
	return f, nil
}

func (s *FormService) findByName(ctx context.Context, name string) (*form.FormDefinition, error) {
	f, err := s.forms.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, formNotFound(name)
		}
		return nil, err
	}
	return f, nil
}

func formNotFound(what string) error {
	return shared.NewDomainError("FORM_NOT_FOUND", "Form not found: "+what)
}
