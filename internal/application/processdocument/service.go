package processdocument

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	appdocument "github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/application/document"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/contract"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/document"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/processdocument"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"go.uber.org/zap"
)

// DocumentOperations is the part of the document service the process operations drive
type DocumentOperations interface {
	CreateDocument(ctx context.Context, definitionName string, content json.RawMessage) (*document.Document, error)
	ModifyDocument(ctx context.Context, id uuid.UUID, content json.RawMessage, versionBasedOn int) (*document.Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*document.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProcessDocumentService links processes to documents and runs the combined
// document and process operations
type ProcessDocumentService struct {
	definitions  processdocument.DefinitionRepository
	instances    processdocument.InstanceRepository
	documentDefs document.DefinitionRepository
	documents    DocumentOperations
	engine       contract.ProcessEngine
	events       shared.EventPublisher
	logger       *zap.Logger
}

// NewProcessDocumentService creates a new ProcessDocumentService
func NewProcessDocumentService(
	definitions processdocument.DefinitionRepository,
	instances processdocument.InstanceRepository,
	documentDefs document.DefinitionRepository,
	documents DocumentOperations,
	engine contract.ProcessEngine,
	events shared.EventPublisher,
	logger *zap.Logger,
) *ProcessDocumentService {
	return &ProcessDocumentService{
		definitions:  definitions,
		instances:    instances,
		documentDefs: documentDefs,
		documents:    documents,
		engine:       engine,
		events:       events,
		logger:       logger,
	}
}

// CreateDefinition links a process definition to an existing document definition
func (s *ProcessDocumentService) CreateDefinition(ctx context.Context, req CreateDefinitionRequest) (*DefinitionResponse, error) {
	return s.createDefinition(ctx, req, false)
}

// DeployDefinition creates a read-only link; an existing link is left as is
func (s *ProcessDocumentService) DeployDefinition(ctx context.Context, req CreateDefinitionRequest) (*DefinitionResponse, error) {
	resp, err := s.createDefinition(ctx, req, true)
	if errors.Is(err, shared.ErrAlreadyExists) {
		existing, findErr := s.definitions.FindByID(ctx, processdocument.DefinitionID{
			ProcessDefinitionKey:   req.ProcessDefinitionKey,
			DocumentDefinitionName: req.DocumentDefinitionName,
		})
		if findErr != nil {
			return nil, findErr
		}
		r := ToDefinitionResponse(existing)
		return &r, nil
	}
	return resp, err
}

func (s *ProcessDocumentService) createDefinition(ctx context.Context, req CreateDefinitionRequest, readOnly bool) (*DefinitionResponse, error) {
	def, err := processdocument.NewDefinition(req.ProcessDefinitionKey, req.DocumentDefinitionName, req.CanInitializeDocument, req.StartableByUser)
	if err != nil {
		return nil, err
	}
	def.ReadOnly = readOnly

	if _, err := s.documentDefs.FindLatest(ctx, def.ID.DocumentDefinitionName); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("DOCUMENT_DEFINITION_NOT_FOUND",
				"Document definition not found: "+def.ID.DocumentDefinitionName)
		}
		return nil, err
	}
	if err := s.definitions.Create(ctx, def); err != nil {
		return nil, err
	}
	s.logger.Info("Process linked to document definition",
		zap.String("process_definition_key", def.ID.ProcessDefinitionKey),
		zap.String("document_definition", def.ID.DocumentDefinitionName),
	)
	resp := ToDefinitionResponse(def)
	return &resp, nil
}

// DeleteDefinition removes a link
func (s *ProcessDocumentService) DeleteDefinition(ctx context.Context, req DefinitionIDRequest) error {
	id := processdocument.DefinitionID{
		ProcessDefinitionKey:   req.ProcessDefinitionKey,
		DocumentDefinitionName: req.DocumentDefinitionName,
	}
	def, err := s.findDefinition(ctx, id)
	if err != nil {
		return err
	}
	if def.ReadOnly {
		return shared.NewDomainError("READ_ONLY", "Process-document link is read-only")
	}
	return s.definitions.Delete(ctx, id)
}

// FindByDocumentDefinition lists the processes linked to a document definition
func (s *ProcessDocumentService) FindByDocumentDefinition(ctx context.Context, name string) ([]DefinitionResponse, error) {
	defs, err := s.definitions.FindByDocumentDefinitionName(ctx, name)
	if err != nil {
		return nil, err
	}
	return toDefinitionResponses(defs), nil
}

// FindByProcessDefinition lists the document definitions linked to a process
func (s *ProcessDocumentService) FindByProcessDefinition(ctx context.Context, key string) ([]DefinitionResponse, error) {
	defs, err := s.definitions.FindByProcessDefinitionKey(ctx, key)
	if err != nil {
		return nil, err
	}
	return toDefinitionResponses(defs), nil
}

// NewDocumentAndStartProcess creates a document and starts the linked process
// with the document id as business key. The document is removed again when
// the process cannot be started.
func (s *ProcessDocumentService) NewDocumentAndStartProcess(ctx context.Context, req NewDocumentAndStartProcessRequest) (*OperationResult, error) {
	link, err := s.findDefinition(ctx, processdocument.DefinitionID{
		ProcessDefinitionKey:   req.ProcessDefinitionKey,
		DocumentDefinitionName: req.DocumentDefinitionName,
	})
	if err != nil {
		return nil, err
	}
	if err := link.EnsureCanInitialize(); err != nil {
		return nil, err
	}

	doc, err := s.documents.CreateDocument(ctx, req.DocumentDefinitionName, req.Content)
	if err != nil {
		return nil, err
	}
	instance, err := s.startProcess(ctx, req.ProcessDefinitionKey, doc, req.Variables)
	if err != nil {
		if delErr := s.documents.Delete(ctx, doc.ID); delErr != nil {
			s.logger.Error("Failed to remove document after process start failure",
				zap.String("document_id", doc.ID.String()),
				zap.Error(delErr),
			)
		}
		return nil, err
	}
	return &OperationResult{Document: appdocument.ToDocumentResponse(doc), ProcessInstanceID: instance.ProcessInstanceID}, nil
}

// ModifyDocumentAndStartProcess applies new content (when given) and starts a
// linked process for an existing document
func (s *ProcessDocumentService) ModifyDocumentAndStartProcess(ctx context.Context, req ModifyDocumentAndStartProcessRequest) (*OperationResult, error) {
	doc, err := s.documents.GetDocument(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.findDefinition(ctx, processdocument.DefinitionID{
		ProcessDefinitionKey:   req.ProcessDefinitionKey,
		DocumentDefinitionName: doc.DefinitionID.Name,
	}); err != nil {
		return nil, err
	}
	if len(req.Content) > 0 {
		if doc, err = s.documents.ModifyDocument(ctx, req.DocumentID, req.Content, req.VersionBasedOn); err != nil {
			return nil, err
		}
	}
	instance, err := s.startProcess(ctx, req.ProcessDefinitionKey, doc, req.Variables)
	if err != nil {
		return nil, err
	}
	return &OperationResult{Document: appdocument.ToDocumentResponse(doc), ProcessInstanceID: instance.ProcessInstanceID}, nil
}

// ModifyDocumentAndCompleteTask applies new content (when given) and completes
// a user task of one of the document's processes
func (s *ProcessDocumentService) ModifyDocumentAndCompleteTask(ctx context.Context, req ModifyDocumentAndCompleteTaskRequest) (*OperationResult, error) {
	task, err := s.engine.GetTask(ctx, req.TaskID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureTaskOfDocument(ctx, task, req.DocumentID); err != nil {
		return nil, err
	}

	var doc *document.Document
	if len(req.Content) > 0 {
		doc, err = s.documents.ModifyDocument(ctx, req.DocumentID, req.Content, req.VersionBasedOn)
	} else {
		doc, err = s.documents.GetDocument(ctx, req.DocumentID)
	}
	if err != nil {
		return nil, err
	}

	if err := s.engine.CompleteTask(ctx, task.ID, req.Variables); err != nil {
		return nil, err
	}
	s.publish(ctx, processdocument.NewTaskCompletedEvent(doc.ID, task.ID, task.Name, task.ProcessInstanceID, contract.ActorFrom(ctx)))
	return &OperationResult{Document: appdocument.ToDocumentResponse(doc), ProcessInstanceID: task.ProcessInstanceID}, nil
}

// FindInstancesByDocument lists the processes started for a document
func (s *ProcessDocumentService) FindInstancesByDocument(ctx context.Context, documentID uuid.UUID) ([]InstanceResponse, error) {
	instances, err := s.instances.FindByDocumentID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	out := make([]InstanceResponse, len(instances))
	for i := range instances {
		out[i] = ToInstanceResponse(&instances[i])
	}
	return out, nil
}

func (s *ProcessDocumentService) startProcess(ctx context.Context, key string, doc *document.Document, variables map[string]any) (*processdocument.Instance, error) {
	pi, err := s.engine.StartProcess(ctx, key, doc.ID.String(), variables)
	if err != nil {
		return nil, err
	}
	instance, err := processdocument.NewInstance(pi.ID, doc.ID, key, "")
	if err != nil {
		return nil, err
	}
	if err := s.instances.Create(ctx, instance); err != nil {
		s.cancelProcess(ctx, pi.ID, doc.ID)
		return nil, err
	}
	s.publish(ctx, processdocument.NewProcessStartedEvent(instance, contract.ActorFrom(ctx)))
	return instance, nil
}

// cancelProcess removes an engine process that could not be linked to its document
func (s *ProcessDocumentService) cancelProcess(ctx context.Context, processInstanceID string, documentID uuid.UUID) {
	if err := s.engine.DeleteProcessInstance(ctx, processInstanceID, "process link could not be stored"); err != nil {
		s.logger.Error("Failed to cancel unlinked process instance",
			zap.String("process_instance_id", processInstanceID),
			zap.String("document_id", documentID.String()),
			zap.Error(err),
		)
	}
}

// ensureTaskOfDocument checks the task runs in a process of the document,
// either recorded locally or through the business key of the engine's instance
func (s *ProcessDocumentService) ensureTaskOfDocument(ctx context.Context, task *contract.Task, documentID uuid.UUID) error {
	instance, err := s.instances.FindByProcessInstanceID(ctx, task.ProcessInstanceID)
	switch {
	case err == nil:
		if instance.DocumentID == documentID {
			return nil
		}
	case errors.Is(err, shared.ErrNotFound):
		pi, err := s.engine.GetProcessInstance(ctx, task.ProcessInstanceID)
		if err != nil {
			return err
		}
		if pi.BusinessKey == documentID.String() {
			return nil
		}
	default:
		return err
	}
	return shared.NewDomainError("INVALID_STATE", "Task "+task.ID+" does not belong to document "+documentID.String())
}

func (s *ProcessDocumentService) findDefinition(ctx context.Context, id processdocument.DefinitionID) (*processdocument.Definition, error) {
	def, err := s.definitions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PROCESS_DOCUMENT_DEFINITION_NOT_FOUND",
				"No link between process "+id.ProcessDefinitionKey+" and document definition "+id.DocumentDefinitionName)
		}
		return nil, err
	}
	return def, nil
}

func (s *ProcessDocumentService) publish(ctx context.Context, event shared.DomainEvent) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish process-document event",
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
	}
}

func toDefinitionResponses(defs []processdocument.Definition) []DefinitionResponse {
	out := make([]DefinitionResponse, len(defs))
	for i := range defs {
		out[i] = ToDefinitionResponse(&defs[i])
	}
	return out
}
