package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/document"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/processdocument"
)

func TestEventSerializer_RegistersValtimoEvents(t *testing.T) {
	s := NewEventSerializer()

	for _, eventType := range []string{
		document.EventTypeDocumentCreated,
		document.EventTypeDocumentModified,
		document.EventTypeDocumentResourceAdded,
		document.EventTypeDefinitionDeployed,
		processdocument.EventTypeProcessStarted,
		processdocument.EventTypeTaskCompleted,
	} {
		assert.True(t, s.IsRegistered(eventType), eventType)
	}

	types := s.RegisteredTypes()
	assert.IsIncreasing(t, types)
	assert.False(t, s.IsRegistered("SalesOrderCreated"))
}

func TestEventSerializer_DocumentEventRoundTrip(t *testing.T) {
	s := NewEventSerializer()

	def, err := document.NewDefinition("person", json.RawMessage(`{"$id":"person.schema","type":"object"}`), false)
	require.NoError(t, err)
	doc, err := document.NewDocument(def, json.RawMessage(`{"name":"Ann"}`), 7, "alice")
	require.NoError(t, err)
	original := doc.GetDomainEvents()[0]

	data, err := s.Serialize(original)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"document_id"`)
	assert.Contains(t, string(data), `"sequence":7`)

	decoded, err := s.Deserialize(document.EventTypeDocumentCreated, data)
	require.NoError(t, err)
	created, ok := decoded.(*document.DocumentCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, original.EventID(), created.EventID())
	assert.Equal(t, doc.ID, created.DocumentID())
	assert.Equal(t, int64(7), created.Sequence)
	assert.Equal(t, "alice", created.Actor())
}

func TestEventSerializer_Deserialize_Errors(t *testing.T) {
	s := NewEventSerializer()

	_, err := s.Deserialize("Unknown", []byte(`{}`))
	assert.ErrorContains(t, err, "unknown event type")

	_, err = s.Deserialize(document.EventTypeDocumentCreated, []byte(`{not json`))
	assert.ErrorContains(t, err, "failed to unmarshal")
}

func TestEventSerializer_Register(t *testing.T) {
	s := NewEventSerializer()
	s.Register("Custom", &testEvent{})

	decoded, err := s.Deserialize("Custom", []byte(`{"type":"Custom","data":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, "x", decoded.(*testEvent).Data)
}
