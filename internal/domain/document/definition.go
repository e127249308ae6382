package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/tidwall/sjson"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

var definitionNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// DefinitionID identifies one version of a document definition
type DefinitionID struct {
	Name    string `json:"name"`
	Version int    `json:"version"`
}

// String renders the id as name:version
func (id DefinitionID) String() string {
	return fmt.Sprintf("%s:%d", id.Name, id.Version)
}

// Definition is a JSON-schema backed case data template
type Definition struct {
	ID        DefinitionID
	Schema    json.RawMessage
	CreatedOn time.Time
	ReadOnly  bool

	resolved *jsonschema.Resolved
}

// NewDefinition compiles the schema and creates version 1 of a definition
func NewDefinition(name string, schema json.RawMessage, readOnly bool) (*Definition, error) {
	name = strings.TrimSpace(name)
	if !definitionNamePattern.MatchString(name) {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid document definition name %q", name))
	}

	def := &Definition{
		ID:        DefinitionID{Name: name, Version: 1},
		Schema:    schema,
		CreatedOn: time.Now().UTC(),
		ReadOnly:  readOnly,
	}
	if err := def.Compile(); err != nil {
		return nil, err
	}
	return def, nil
}

// NameFromSchema reads the definition name from the schema's $id ("name.schema" → "name")
func NameFromSchema(schema json.RawMessage) (string, error) {
	var head struct {
		ID string `json:"$id"`
	}
	if err := json.Unmarshal(schema, &head); err != nil {
		return "", shared.NewDomainError("INVALID_INPUT", "Schema is not a JSON object")
	}
	name := strings.TrimSuffix(head.ID, ".schema")
	if name == "" {
		return "", shared.NewDomainError("INVALID_INPUT", "Schema has no $id to derive the definition name from")
	}
	return name, nil
}

// Compile parses and resolves the schema. It must be called on definitions loaded from storage
// before Validate is used; Validate compiles lazily otherwise.
func (d *Definition) Compile() error {
	trimmed := bytes.TrimSpace(d.Schema)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return shared.NewDomainError("INVALID_INPUT", "Document definition schema must be a JSON object")
	}

	// $schema and $id are descriptive in stored definitions; validation always uses the default draft.
	normalized, err := sjson.DeleteBytes(trimmed, `\$schema`)
	if err == nil {
		normalized, err = sjson.DeleteBytes(normalized, `\$id`)
	}
	if err != nil {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid schema: %v", err))
	}

	var s jsonschema.Schema
	if err := json.Unmarshal(normalized, &s); err != nil {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid schema: %v", err))
	}
	resolved, err := s.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid schema: %v", err))
	}
	d.resolved = resolved
	return nil
}

// Validate checks document content against the schema
func (d *Definition) Validate(content json.RawMessage) error {
	if d.resolved == nil {
		if err := d.Compile(); err != nil {
			return err
		}
	}

	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return shared.NewDomainError("DOCUMENT_CONTENT_INVALID", "Document content must be a JSON object")
	}
	var instance map[string]any
	if err := json.Unmarshal(trimmed, &instance); err != nil {
		return shared.NewDomainError("DOCUMENT_CONTENT_INVALID", "Document content is not valid JSON")
	}
	if err := d.resolved.Validate(instance); err != nil {
		return shared.NewDomainError("DOCUMENT_CONTENT_INVALID", err.Error())
	}
	return nil
}

// SameSchema reports whether schema is semantically equal to the definition's schema
func (d *Definition) SameSchema(schema json.RawMessage) bool {
	var a, b any
	if json.Unmarshal(d.Schema, &a) != nil || json.Unmarshal(schema, &b) != nil {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// NextVersion creates the successor of this definition with a new schema.
// readOnly marks the successor as managed by deployment resources.
func (d *Definition) NextVersion(schema json.RawMessage, readOnly bool) (*Definition, error) {
	if d.ReadOnly {
		return nil, shared.NewDomainError("READ_ONLY", fmt.Sprintf("Document definition %s is read-only", d.ID.Name))
	}
	next, err := NewDefinition(d.ID.Name, schema, readOnly)
	if err != nil {
		return nil, err
	}
	next.ID.Version = d.ID.Version + 1
	return next, nil
}
