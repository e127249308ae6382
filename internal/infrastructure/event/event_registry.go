package event

import (
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/document"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/processdocument"
)

// RegisterAllEvents registers the event types audit records can be decoded back into
func RegisterAllEvents(serializer *EventSerializer) {
	// Document definitions
	serializer.Register(document.EventTypeDefinitionDeployed, &document.DefinitionDeployedEvent{})
	serializer.Register(document.EventTypeDefinitionDeleted, &document.DefinitionDeletedEvent{})

	// Documents
	serializer.Register(document.EventTypeDocumentCreated, &document.DocumentCreatedEvent{})
	serializer.Register(document.EventTypeDocumentModified, &document.DocumentModifiedEvent{})
	serializer.Register(document.EventTypeDocumentAssigned, &document.DocumentAssignedEvent{})
	serializer.Register(document.EventTypeDocumentUnassigned, &document.DocumentUnassignedEvent{})
	serializer.Register(document.EventTypeDocumentResourceAdded, &document.DocumentResourceEvent{})
	serializer.Register(document.EventTypeDocumentResourceRemoved, &document.DocumentResourceEvent{})
	serializer.Register(document.EventTypeDocumentDeleted, &document.DocumentDeletedEvent{})

	// Process documents
	serializer.Register(processdocument.EventTypeProcessStarted, &processdocument.ProcessStartedEvent{})
	serializer.Register(processdocument.EventTypeTaskCompleted, &processdocument.TaskCompletedEvent{})
}
