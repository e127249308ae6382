// Package processengine is a REST client for a Camunda compatible process engine.
package processengine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/contract"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrProcessEngine is returned when the engine rejects a call or cannot be reached
var ErrProcessEngine = shared.NewDomainError("PROCESS_ENGINE_ERROR", "Process engine call failed")

const engineTimeLayout = "2006-01-02T15:04:05.000-0700"

// Client implements contract.ProcessEngine over the engine REST API
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
	logger   *zap.Logger
}

// NewClient creates a client for the configured engine
func NewClient(cfg config.ProcessEngineConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   logger.Named("process-engine"),
	}
}

type variableValue struct {
	Value any    `json:"value"`
	Type  string `json:"type,omitempty"`
}

type processInstanceDTO struct {
	ID           string `json:"id"`
	BusinessKey  string `json:"businessKey"`
	DefinitionID string `json:"definitionId"`
	Ended        bool   `json:"ended"`
}

func (p processInstanceDTO) toContract() *contract.ProcessInstance {
	return &contract.ProcessInstance{
		ID:                  p.ID,
		BusinessKey:         p.BusinessKey,
		ProcessDefinitionID: p.DefinitionID,
		Ended:               p.Ended,
	}
}

type taskDTO struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	TaskDefinitionKey   string `json:"taskDefinitionKey"`
	ProcessInstanceID   string `json:"processInstanceId"`
	ProcessDefinitionID string `json:"processDefinitionId"`
	Assignee            string `json:"assignee"`
	Created             string `json:"created"`
}

type definitionXMLDTO struct {
	ID        string `json:"id"`
	BPMN20XML string `json:"bpmn20Xml"`
}

func toVariables(vars map[string]any) map[string]variableValue {
	if len(vars) == 0 {
		return nil
	}
	out := make(map[string]variableValue, len(vars))
	for k, v := range vars {
		switch v.(type) {
		case map[string]any, []any:
			raw, err := json.Marshal(v)
			if err == nil {
				out[k] = variableValue{Value: string(raw), Type: "Json"}
				continue
			}
		}
		out[k] = variableValue{Value: v}
	}
	return out
}

// StartProcess starts the latest version of the definition with the business key
func (c *Client) StartProcess(ctx context.Context, processDefinitionKey, businessKey string, variables map[string]any) (*contract.ProcessInstance, error) {
	body := map[string]any{
		"businessKey": businessKey,
		"variables":   toVariables(variables),
	}
	var out processInstanceDTO
	path := "/process-definition/key/" + url.PathEscape(processDefinitionKey) + "/start"
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	c.logger.Info("process started",
		zap.String("process_definition_key", processDefinitionKey),
		zap.String("process_instance_id", out.ID),
		zap.String("business_key", businessKey),
	)
	return out.toContract(), nil
}

// GetProcessInstance returns a running process instance
func (c *Client) GetProcessInstance(ctx context.Context, processInstanceID string) (*contract.ProcessInstance, error) {
	var out processInstanceDTO
	if err := c.do(ctx, http.MethodGet, "/process-instance/"+url.PathEscape(processInstanceID), nil, &out); err != nil {
		return nil, err
	}
	return out.toContract(), nil
}

// DeleteProcessInstance cancels a running process instance
func (c *Client) DeleteProcessInstance(ctx context.Context, processInstanceID, reason string) error {
	path := "/process-instance/" + url.PathEscape(processInstanceID)
	if reason != "" {
		path += "?deleteReason=" + url.QueryEscape(reason)
	}
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return err
	}
	c.logger.Info("process instance deleted",
		zap.String("process_instance_id", processInstanceID),
		zap.String("reason", reason),
	)
	return nil
}

// GetTask returns an open task
func (c *Client) GetTask(ctx context.Context, taskID string) (*contract.Task, error) {
	var out taskDTO
	if err := c.do(ctx, http.MethodGet, "/task/"+url.PathEscape(taskID), nil, &out); err != nil {
		return nil, err
	}
	task := &contract.Task{
		ID:                  out.ID,
		Name:                out.Name,
		TaskDefinitionKey:   out.TaskDefinitionKey,
		ProcessInstanceID:   out.ProcessInstanceID,
		ProcessDefinitionID: out.ProcessDefinitionID,
		Assignee:            out.Assignee,
	}
	if t, err := time.Parse(engineTimeLayout, out.Created); err == nil {
		task.Created = &t
	}
	return task, nil
}

// GetTaskVariables returns the variables visible from the task, Json typed values decoded
func (c *Client) GetTaskVariables(ctx context.Context, taskID string) (map[string]any, error) {
	var out map[string]variableValue
	if err := c.do(ctx, http.MethodGet, "/task/"+url.PathEscape(taskID)+"/variables", nil, &out); err != nil {
		return nil, err
	}
	vars := make(map[string]any, len(out))
	for k, v := range out {
		if s, ok := v.Value.(string); ok && strings.EqualFold(v.Type, "json") {
			var decoded any
			if err := json.Unmarshal([]byte(s), &decoded); err == nil {
				vars[k] = decoded
				continue
			}
		}
		vars[k] = v.Value
	}
	return vars, nil
}

// CompleteTask completes the task with the given variables
func (c *Client) CompleteTask(ctx context.Context, taskID string, variables map[string]any) error {
	body := map[string]any{"variables": toVariables(variables)}
	if err := c.do(ctx, http.MethodPost, "/task/"+url.PathEscape(taskID)+"/complete", body, nil); err != nil {
		return err
	}
	c.logger.Info("task completed", zap.String("task_id", taskID))
	return nil
}

// GetFlowNodes parses the definition's BPMN model for tasks and events
func (c *Client) GetFlowNodes(ctx context.Context, processDefinitionID string) ([]contract.FlowNode, error) {
	var out definitionXMLDTO
	if err := c.do(ctx, http.MethodGet, "/process-definition/"+url.PathEscape(processDefinitionID)+"/xml", nil, &out); err != nil {
		return nil, err
	}
	return ParseFlowNodes(strings.NewReader(out.BPMN20XML))
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("process engine unreachable", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrProcessEngine, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return shared.ErrNotFound
	}
	if resp.StatusCode >= 300 {
		return c.engineError(resp, path)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode process engine response: %w", err)
	}
	return nil
}

func (c *Client) engineError(resp *http.Response, path string) error {
	var payload struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &payload)

	c.logger.Warn("process engine returned an error",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("type", payload.Type),
		zap.String("message", payload.Message),
	)

	// engine reports missing entities as 400 or 500 with a message rather than 404
	if strings.Contains(strings.ToLower(payload.Message), "not found") ||
		strings.Contains(strings.ToLower(payload.Message), "no matching") {
		return shared.ErrNotFound
	}

	details := map[string]any{"status": resp.StatusCode}
	if payload.Message != "" {
		details["message"] = payload.Message
	}
	return ErrProcessEngine.WithDetails(details)
}

// IsEngineError reports whether err came from the process engine
func IsEngineError(err error) bool {
	return errors.Is(err, ErrProcessEngine)
}

var _ contract.ProcessEngine = (*Client)(nil)
