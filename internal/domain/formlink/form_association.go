package formlink

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

// AssociationType is the kind of flow element a form is linked to
type AssociationType string

const (
	AssociationTypeUserTask      AssociationType = "user-task"
	AssociationTypeStartEvent    AssociationType = "start-event"
	AssociationTypeBoundaryEvent AssociationType = "boundary-event"
)

// IsValid checks if the association type is known
func (t AssociationType) IsValid() bool {
	switch t {
	case AssociationTypeUserTask, AssociationTypeStartEvent, AssociationTypeBoundaryEvent:
		return true
	}
	return false
}

// LinkKind is what a form link points to
type LinkKind string

const (
	LinkKindFormID       LinkKind = "form-id"
	LinkKindURL          LinkKind = "url"
	LinkKindAngularState LinkKind = "angular-state"
)

// FormLink points a flow element at a form, an external URL or a front-end state
type FormLink struct {
	// ID is the flow element id in the process definition
	ID           string     `json:"id"`
	Kind         LinkKind   `json:"kind"`
	FormID       *uuid.UUID `json:"form_id,omitempty"`
	URL          string     `json:"url,omitempty"`
	AngularState string     `json:"angular_state,omitempty"`
}

// Validate checks the link target matches its kind
func (l FormLink) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return invalidLink("Form link needs a flow element id")
	}
	switch l.Kind {
	case LinkKindFormID:
		if l.FormID == nil || *l.FormID == uuid.Nil {
			return invalidLink("Form link of kind form-id needs a form id")
		}
	case LinkKindURL:
		u, err := url.Parse(l.URL)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return invalidLink(fmt.Sprintf("Form link URL %q must be absolute", l.URL))
		}
	case LinkKindAngularState:
		if strings.TrimSpace(l.AngularState) == "" {
			return invalidLink("Form link of kind angular-state needs a state name")
		}
	default:
		return invalidLink(fmt.Sprintf("Unknown form link kind %q", l.Kind))
	}
	return nil
}

// FormAssociation maps a flow element of a process definition to a form link
type FormAssociation struct {
	ID                   uuid.UUID
	ProcessDefinitionKey string
	Type                 AssociationType
	FormLink             FormLink
}

// NewFormAssociation validates and creates an association
func NewFormAssociation(processDefinitionKey string, associationType AssociationType, link FormLink) (*FormAssociation, error) {
	a := &FormAssociation{
		ID:                   uuid.New(),
		ProcessDefinitionKey: strings.TrimSpace(processDefinitionKey),
		Type:                 associationType,
		FormLink:             link,
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Validate checks the association
func (a *FormAssociation) Validate() error {
	if a.ProcessDefinitionKey == "" {
		return invalidLink("Process definition key cannot be empty")
	}
	if !a.Type.IsValid() {
		return invalidLink(fmt.Sprintf("Unknown form association type %q", a.Type))
	}
	return a.FormLink.Validate()
}

// ChangeLink replaces type and link of the association
func (a *FormAssociation) ChangeLink(associationType AssociationType, link FormLink) error {
	updated := *a
	updated.Type = associationType
	updated.FormLink = link
	if err := updated.Validate(); err != nil {
		return err
	}
	*a = updated
	return nil
}

// IsStartEvent reports whether submitting this form starts a process
func (a *FormAssociation) IsStartEvent() bool {
	return a.Type == AssociationTypeStartEvent
}

func invalidLink(message string) error {
	return shared.NewDomainError("INVALID_FORM_LINK", message)
}
