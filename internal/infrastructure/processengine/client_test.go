package processengine

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/config"
	"go.uber.org/zap"
)

const loanBPMN = `<?xml version="1.0" encoding="UTF-8"?>
<bpmn:definitions xmlns:bpmn="http://www.omg.org/spec/BPMN/20100524/MODEL" id="defs">
  <bpmn:process id="loan" isExecutable="true">
    <bpmn:startEvent id="start" name="Application received"/>
    <bpmn:sequenceFlow id="f1" sourceRef="start" targetRef="review"/>
    <bpmn:userTask id="review" name="Review application"/>
    <bpmn:boundaryEvent id="timeout" attachedToRef="review"/>
    <bpmn:subProcess id="payout">
      <bpmn:serviceTask id="transfer" name="Transfer money"/>
    </bpmn:subProcess>
    <bpmn:endEvent id="end"/>
  </bpmn:process>
  <bpmndi:BPMNDiagram xmlns:bpmndi="http://www.omg.org/spec/BPMN/20100524/DI" id="diagram">
    <bpmndi:BPMNShape id="shape" bpmnElement="review"/>
  </bpmndi:BPMNDiagram>
</bpmn:definitions>`

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.ProcessEngineConfig{
		BaseURL:  srv.URL + "/engine-rest/",
		Username: "demo",
		Password: "demo",
		Timeout:  5 * time.Second,
	}, zap.NewNop())
}

func TestParseFlowNodes(t *testing.T) {
	nodes, err := ParseFlowNodes(strings.NewReader(loanBPMN))
	require.NoError(t, err)

	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	assert.Equal(t, []string{"start", "review", "timeout", "payout", "transfer", "end"}, ids)
	assert.Equal(t, "userTask", nodes[1].Type)
	assert.Equal(t, "Review application", nodes[1].Name)

	_, err = ParseFlowNodes(strings.NewReader("<definitions><process>"))
	assert.Error(t, err)
}

func TestClient_StartProcess(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/engine-rest/process-definition/key/loan/start", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "demo", user)
		assert.Equal(t, "demo", pass)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"id":"pi-1","businessKey":"doc-1","definitionId":"loan:3:abc","ended":false}`))
	}))

	pi, err := c.StartProcess(t.Context(), "loan", "doc-1", map[string]any{
		"amount":    1000,
		"applicant": map[string]any{"name": "Jan"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pi-1", pi.ID)
	assert.Equal(t, "loan:3:abc", pi.ProcessDefinitionID)

	assert.Equal(t, "doc-1", body["businessKey"])
	vars := body["variables"].(map[string]any)
	assert.Equal(t, float64(1000), vars["amount"].(map[string]any)["value"])
	applicant := vars["applicant"].(map[string]any)
	assert.Equal(t, "Json", applicant["type"])
	assert.JSONEq(t, `{"name":"Jan"}`, applicant["value"].(string))
}

func TestClient_GetTaskAndVariables(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /engine-rest/task/t-1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"t-1","name":"Review","taskDefinitionKey":"review","processInstanceId":"pi-1","processDefinitionId":"loan:3:abc","created":"2024-05-01T10:00:00.000+0200"}`))
	})
	mux.HandleFunc("GET /engine-rest/task/t-1/variables", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"approved":{"value":true,"type":"Boolean"},"person":{"value":"{\"age\":40}","type":"Json"}}`))
	})
	mux.HandleFunc("GET /engine-rest/task/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"type":"InvalidRequestException","message":"No matching task with id missing"}`))
	})
	c := newTestClient(t, mux)

	task, err := c.GetTask(t.Context(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, "loan", task.ProcessDefinitionKey())
	require.NotNil(t, task.Created)
	assert.Equal(t, 8, task.Created.UTC().Hour())

	vars, err := c.GetTaskVariables(t.Context(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, true, vars["approved"])
	assert.Equal(t, map[string]any{"age": float64(40)}, vars["person"])

	_, err = c.GetTask(t.Context(), "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestClient_CompleteTask_EngineError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"ProcessEngineException","message":"Unknown property used in expression"}`))
	}))

	err := c.CompleteTask(t.Context(), "t-1", nil)
	require.Error(t, err)
	assert.True(t, IsEngineError(err))
	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, 500, de.Details["status"])
}

func TestClient_CompleteTask(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/engine-rest/task/t-1/complete", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	require.NoError(t, c.CompleteTask(t.Context(), "t-1", map[string]any{"approved": true}))
}

func TestClient_GetFlowNodes(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/engine-rest/process-definition/loan:3:abc/xml", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "loan:3:abc", "bpmn20Xml": loanBPMN})
	}))

	nodes, err := c.GetFlowNodes(t.Context(), "loan:3:abc")
	require.NoError(t, err)
	assert.Len(t, nodes, 6)
}

func TestClient_Unreachable(t *testing.T) {
	c := NewClient(config.ProcessEngineConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, zap.NewNop())
	_, err := c.GetProcessInstance(t.Context(), "pi-1")
	assert.True(t, IsEngineError(err))
}

func TestClient_DeleteProcessInstance(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/engine-rest/process-instance/pi-1", r.URL.Path)
		assert.Equal(t, "link failed", r.URL.Query().Get("deleteReason"))
		w.WriteHeader(http.StatusNoContent)
	}))
	require.NoError(t, c.DeleteProcessInstance(t.Context(), "pi-1", "link failed"))

	missing := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	assert.ErrorIs(t, missing.DeleteProcessInstance(t.Context(), "pi-2", ""), shared.ErrNotFound)
}
