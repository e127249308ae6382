package contract

import (
	"context"
	"time"
)

// Task is a user task of a running process instance
type Task struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	TaskDefinitionKey   string     `json:"task_definition_key"`
	ProcessInstanceID   string     `json:"process_instance_id"`
	ProcessDefinitionID string     `json:"process_definition_id"`
	Assignee            string     `json:"assignee,omitempty"`
	Created             *time.Time `json:"created,omitempty"`
}

// ProcessDefinitionKey derives the definition key from an id of the form key:version:deployment
func (t Task) ProcessDefinitionKey() string {
	return DefinitionKeyFromID(t.ProcessDefinitionID)
}

// ProcessInstance is a started process
type ProcessInstance struct {
	ID                  string `json:"id"`
	BusinessKey         string `json:"business_key"`
	ProcessDefinitionID string `json:"process_definition_id"`
	Ended               bool   `json:"ended"`
}

// FlowNode is an element of a process definition
type FlowNode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// ProcessEngine is the external BPM runtime
type ProcessEngine interface {
	StartProcess(ctx context.Context, processDefinitionKey, businessKey string, variables map[string]any) (*ProcessInstance, error)
	GetProcessInstance(ctx context.Context, processInstanceID string) (*ProcessInstance, error)
	DeleteProcessInstance(ctx context.Context, processInstanceID, reason string) error
	GetTask(ctx context.Context, taskID string) (*Task, error)
	GetTaskVariables(ctx context.Context, taskID string) (map[string]any, error)
	CompleteTask(ctx context.Context, taskID string, variables map[string]any) error
	GetFlowNodes(ctx context.Context, processDefinitionID string) ([]FlowNode, error)
}

// DefinitionKeyFromID returns the key portion of a process definition id
func DefinitionKeyFromID(processDefinitionID string) string {
	for i := 0; i < len(processDefinitionID); i++ {
		if processDefinitionID[i] == ':' {
			return processDefinitionID[:i]
		}
	}
	return processDefinitionID
}
