package formlink

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	appform "github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/application/form"
	appprocess "github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/application/processdocument"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/document"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/form"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/formlink"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"go.uber.org/zap"
)

// FormCatalog resolves and prefills the forms a link points at
type FormCatalog interface {
	Get(ctx context.Context, id uuid.UUID) (*appform.FormResponse, error)
	GetByName(ctx context.Context, name string) (*appform.FormResponse, error)
	PrefillByID(ctx context.Context, id uuid.UUID, documentID *uuid.UUID, taskID string) (json.RawMessage, error)
}

// ProcessOperations runs the document and process operations a submission triggers
type ProcessOperations interface {
	FindByProcessDefinition(ctx context.Context, key string) ([]appprocess.DefinitionResponse, error)
	NewDocumentAndStartProcess(ctx context.Context, req appprocess.NewDocumentAndStartProcessRequest) (*appprocess.OperationResult, error)
	ModifyDocumentAndStartProcess(ctx context.Context, req appprocess.ModifyDocumentAndStartProcessRequest) (*appprocess.OperationResult, error)
	ModifyDocumentAndCompleteTask(ctx context.Context, req appprocess.ModifyDocumentAndCompleteTaskRequest) (*appprocess.OperationResult, error)
}

// DocumentReader loads the document a submission patches
type DocumentReader interface {
	GetDocument(ctx context.Context, id uuid.UUID) (*document.Document, error)
}

// FormLinkService manages form associations and handles form submissions
type FormLinkService struct {
	associations formlink.FormAssociationRepository
	forms        FormCatalog
	processes    ProcessOperations
	documents    DocumentReader
	logger       *zap.Logger
}

// NewFormLinkService creates a new FormLinkService
func NewFormLinkService(
	associations formlink.FormAssociationRepository,
	forms FormCatalog,
	processes ProcessOperations,
	documents DocumentReader,
	logger *zap.Logger,
) *FormLinkService {
	return &FormLinkService{
		associations: associations,
		forms:        forms,
		processes:    processes,
		documents:    documents,
		logger:       logger,
	}
}

// Create stores a new association; one per process definition key and flow element
func (s *FormLinkService) Create(ctx context.Context, req CreateAssociationRequest) (*AssociationResponse, error) {
	link, err := s.buildLink(ctx, req.FormLink)
	if err != nil {
		return nil, err
	}
	a, err := formlink.NewFormAssociation(req.ProcessDefinitionKey, req.Type, link)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, a.ProcessDefinitionKey, link.ID, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.associations.Create(ctx, a); err != nil {
		return nil, err
	}
	resp := ToAssociationResponse(a)
	return &resp, nil
}

// Deploy creates the association or replaces the link of an existing one for the same flow element
func (s *FormLinkService) Deploy(ctx context.Context, req CreateAssociationRequest) (*AssociationResponse, error) {
	existing, err := s.associations.FindByFormLinkID(ctx, req.ProcessDefinitionKey, req.FormLink.ID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return s.Create(ctx, req)
	case err != nil:
		return nil, err
	}
	link, err := s.buildLink(ctx, req.FormLink)
	if err != nil {
		return nil, err
	}
	if err := existing.ChangeLink(req.Type, link); err != nil {
		return nil, err
	}
	if err := s.associations.Update(ctx, existing); err != nil {
		return nil, err
	}
	resp := ToAssociationResponse(existing)
	return &resp, nil
}

// Modify replaces type and link of an association
func (s *FormLinkService) Modify(ctx context.Context, req ModifyAssociationRequest) (*AssociationResponse, error) {
	a, err := s.find(ctx, req.ProcessDefinitionKey, req.ID)
	if err != nil {
		return nil, err
	}
	link, err := s.buildLink(ctx, req.FormLink)
	if err != nil {
		return nil, err
	}
	if link.ID != a.FormLink.ID {
		if err := s.ensureUnique(ctx, a.ProcessDefinitionKey, link.ID, a.ID); err != nil {
			return nil, err
		}
	}
	if err := a.ChangeLink(req.Type, link); err != nil {
		return nil, err
	}
	if err := s.associations.Update(ctx, a); err != nil {
		return nil, err
	}
	resp := ToAssociationResponse(a)
	return &resp, nil
}

// Delete removes an association of a process definition
func (s *FormLinkService) Delete(ctx context.Context, processDefinitionKey string, id uuid.UUID) error {
	if _, err := s.find(ctx, processDefinitionKey, id); err != nil {
		return err
	}
	return s.associations.Delete(ctx, id)
}

// ListByProcess returns the associations of a process definition
func (s *FormLinkService) ListByProcess(ctx context.Context, processDefinitionKey string) ([]AssociationResponse, error) {
	list, err := s.associations.FindByProcessDefinitionKey(ctx, processDefinitionKey)
	if err != nil {
		return nil, err
	}
	out := make([]AssociationResponse, len(list))
	for i := range list {
		out[i] = ToAssociationResponse(&list[i])
	}
	return out, nil
}

// GetByFormLinkID returns the association of one flow element
func (s *FormLinkService) GetByFormLinkID(ctx context.Context, processDefinitionKey, formLinkID string) (*AssociationResponse, error) {
	a, err := s.byFormLinkID(ctx, processDefinitionKey, formLinkID)
	if err != nil {
		return nil, err
	}
	resp := ToAssociationResponse(a)
	return &resp, nil
}

// GetStartEventAssociation returns the association of the process's start event
func (s *FormLinkService) GetStartEventAssociation(ctx context.Context, processDefinitionKey string) (*AssociationResponse, error) {
	list, err := s.associations.FindByType(ctx, processDefinitionKey, formlink.AssociationTypeStartEvent)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, associationNotFound("start event of " + processDefinitionKey)
	}
	resp := ToAssociationResponse(&list[0])
	return &resp, nil
}

// FormForNode returns the target of a flow element's link, with form links
// prefilled from the document and task
func (s *FormLinkService) FormForNode(ctx context.Context, req FormForNodeRequest) (*FormForNodeResponse, error) {
	a, err := s.byFormLinkID(ctx, req.ProcessDefinitionKey, req.FormLinkID)
	if err != nil {
		return nil, err
	}
	resp := &FormForNodeResponse{
		Kind:         a.FormLink.Kind,
		FormID:       a.FormLink.FormID,
		URL:          a.FormLink.URL,
		AngularState: a.FormLink.AngularState,
	}
	if a.FormLink.Kind != formlink.LinkKindFormID {
		return resp, nil
	}

	var documentID *uuid.UUID
	if req.DocumentID != "" {
		id, err := uuid.Parse(req.DocumentID)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "Invalid document id")
		}
		documentID = &id
	}
	resp.Definition, err = s.forms.PrefillByID(ctx, *a.FormLink.FormID, documentID, req.TaskInstanceID)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Submit routes a form submission: a start event creates or modifies the
// document and starts the process, a user task modifies the document and
// completes the task
func (s *FormLinkService) Submit(ctx context.Context, req SubmissionRequest) (*SubmissionResult, error) {
	a, err := s.byFormLinkID(ctx, req.ProcessDefinitionKey, req.FormLinkID)
	if err != nil {
		return nil, err
	}
	sub, err := form.ExtractSubmission(req.Submission)
	if err != nil {
		return nil, err
	}

	var result *appprocess.OperationResult
	switch {
	case a.IsStartEvent() && req.DocumentID == nil:
		definitionName, err := s.documentDefinitionFor(ctx, a.ProcessDefinitionKey, req.DocumentDefinition)
		if err != nil {
			return nil, err
		}
		result, err = s.processes.NewDocumentAndStartProcess(ctx, appprocess.NewDocumentAndStartProcessRequest{
			ProcessDefinitionKey:   a.ProcessDefinitionKey,
			DocumentDefinitionName: definitionName,
			Content:                sub.DocumentContent,
			Variables:              sub.ProcessVariables,
		})
		if err != nil {
			return nil, err
		}

	case a.IsStartEvent():
		content, err := s.mergedContent(ctx, *req.DocumentID, sub)
		if err != nil {
			return nil, err
		}
		result, err = s.processes.ModifyDocumentAndStartProcess(ctx, appprocess.ModifyDocumentAndStartProcessRequest{
			ProcessDefinitionKey: a.ProcessDefinitionKey,
			DocumentID:           *req.DocumentID,
			Content:              content,
			Variables:            sub.ProcessVariables,
		})
		if err != nil {
			return nil, err
		}

	case a.Type == formlink.AssociationTypeUserTask:
		if req.TaskInstanceID == "" || req.DocumentID == nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "A user task submission needs a task instance id and a document id")
		}
		content, err := s.mergedContent(ctx, *req.DocumentID, sub)
		if err != nil {
			return nil, err
		}
		result, err = s.processes.ModifyDocumentAndCompleteTask(ctx, appprocess.ModifyDocumentAndCompleteTaskRequest{
			TaskID:     req.TaskInstanceID,
			DocumentID: *req.DocumentID,
			Content:    content,
			Variables:  sub.ProcessVariables,
		})
		if err != nil {
			return nil, err
		}

	default:
		return nil, shared.NewDomainError("INVALID_STATE", "Forms of type "+string(a.Type)+" cannot be submitted")
	}

	s.logger.Debug("Form submitted",
		zap.String("process_definition_key", a.ProcessDefinitionKey),
		zap.String("form_link_id", a.FormLink.ID),
		zap.String("document_id", result.Document.ID.String()),
	)
	return &SubmissionResult{DocumentID: result.Document.ID, ProcessInstanceID: result.ProcessInstanceID}, nil
}

// mergedContent applies the submitted patch to the stored content. Nil means nothing to change.
func (s *FormLinkService) mergedContent(ctx context.Context, documentID uuid.UUID, sub form.Submission) (json.RawMessage, error) {
	if !sub.HasDocumentContent() {
		return nil, nil
	}
	doc, err := s.documents.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return form.MergeContent(doc.Content, sub.DocumentContent)
}

// documentDefinitionFor picks the requested document definition, or the only one linked to the process
func (s *FormLinkService) documentDefinitionFor(ctx context.Context, processDefinitionKey, requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	links, err := s.processes.FindByProcessDefinition(ctx, processDefinitionKey)
	if err != nil {
		return "", err
	}
	if len(links) != 1 {
		return "", shared.NewDomainError("INVALID_INPUT",
			"Process "+processDefinitionKey+" is not linked to exactly one document definition; name it in the submission")
	}
	return links[0].DocumentDefinitionName, nil
}

func (s *FormLinkService) buildLink(ctx context.Context, req FormLinkRequest) (formlink.FormLink, error) {
	link := formlink.FormLink{
		ID:           req.ID,
		Kind:         req.Kind,
		FormID:       req.FormID,
		URL:          req.URL,
		AngularState: req.AngularState,
	}
	if link.Kind != formlink.LinkKindFormID {
		return link, nil
	}

	var (
		f   *appform.FormResponse
		err error
	)
	switch {
	case req.FormID != nil:
		f, err = s.forms.Get(ctx, *req.FormID)
	case req.FormName != "":
		f, err = s.forms.GetByName(ctx, req.FormName)
	default:
		return link, shared.NewDomainError("INVALID_FORM_LINK", "Form link of kind form-id needs a form id or name")
	}
	if err != nil {
		if shared.IsDomainError(err, "FORM_NOT_FOUND") {
			return link, shared.NewDomainError("INVALID_FORM_LINK", "Linked form does not exist")
		}
		return link, err
	}
	link.FormID = &f.ID
	return link, nil
}

func (s *FormLinkService) ensureUnique(ctx context.Context, processDefinitionKey, formLinkID string, self uuid.UUID) error {
	existing, err := s.associations.FindByFormLinkID(ctx, processDefinitionKey, formLinkID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID == self:
		return nil
	}
	return shared.NewDomainError("ALREADY_EXISTS",
		"Flow element "+formLinkID+" of "+processDefinitionKey+" already has a form association")
}

func (s *FormLinkService) find(ctx context.Context, processDefinitionKey string, id uuid.UUID) (*formlink.FormAssociation, error) {
	a, err := s.associations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, associationNotFound(id.String())
		}
		return nil, err
	}
	if a.ProcessDefinitionKey != processDefinitionKey {
		return nil, associationNotFound(id.String())
	}
	return a, nil
}

func (s *FormLinkService) byFormLinkID(ctx context.Context, processDefinitionKey, formLinkID string) (*formlink.FormAssociation, error) {
	a, err := s.associations.FindByFormLinkID(ctx, processDefinitionKey, formLinkID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, associationNotFound(processDefinitionKey + "/" + formLinkID)
		}
		return nil, err
	}
	return a, nil
}

func associationNotFound(what string) error {
	return shared.NewDomainError("FORM_ASSOCIATION_NOT_FOUND", "Form association not found: "+what)
}
