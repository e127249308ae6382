package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

// FormDefinition is a form.io form stored by unique name
type FormDefinition struct {
	shared.BaseEntity
	Name       string
	Definition json.RawMessage
	ReadOnly   bool
}

// NewFormDefinition creates a new form definition
func NewFormDefinition(name string, definition json.RawMessage, readOnly bool) (*FormDefinition, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Form name cannot be empty")
	}
	if len(name) > 255 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Form name cannot exceed 255 characters")
	}
	if err := validateDefinition(definition); err != nil {
		return nil, err
	}

	return &FormDefinition{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Definition: definition,
		ReadOnly:   readOnly,
	}, nil
}

// Modify replaces name and definition of an editable form
func (f *FormDefinition) Modify(name string, definition json.RawMessage) error {
	if f.ReadOnly {
		return shared.NewDomainError("READ_ONLY", fmt.Sprintf("Form %s is read-only", f.Name))
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_INPUT", "Form name cannot be empty")
	}
	if err := validateDefinition(definition); err != nil {
		return err
	}
	f.Name = name
	f.Definition = definition
	f.Touch()
	return nil
}

// Redeploy replaces the definition of a deployed form and marks it read-only
func (f *FormDefinition) Redeploy(definition json.RawMessage) error {
	if err := validateDefinition(definition); err != nil {
		return err
	}
	f.Definition = definition
	f.ReadOnly = true
	f.Touch()
	return nil
}

// EnsureDeletable returns READ_ONLY for forms that came from deployment
func (f *FormDefinition) EnsureDeletable() error {
	if f.ReadOnly {
		return shared.NewDomainError("READ_ONLY", fmt.Sprintf("Form %s is read-only", f.Name))
	}
	return nil
}

// ExternalKeys lists the component keys bound to document content or process variables
func (f *FormDefinition) ExternalKeys() ([]string, error) {
	var tree any
	if err := json.Unmarshal(f.Definition, &tree); err != nil {
		return nil, err
	}
	var keys []string
	walkComponents(tree, func(component map[string]any) {
		key, _ := component["key"].(string)
		if _, _, ok := ParseKey(key); ok {
			keys = append(keys, key)
		}
	})
	return keys, nil
}

func validateDefinition(definition json.RawMessage) error {
	trimmed := bytes.TrimSpace(definition)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return shared.NewDomainError("INVALID_INPUT", "Form definition must be a JSON object")
	}
	return nil
}
