package domain

import (
	"time"
)

// FormFieldType enumerates the supported form input types.
type FormFieldType string

const (
	FieldText     FormFieldType = "text"
	FieldEmail    FormFieldType = "email"
	FieldNumber   FormFieldType = "number"
	FieldSelect   FormFieldType = "select"
	FieldTextarea FormFieldType = "textarea"
	FieldDate     FormFieldType = "date"
)

// ValidFieldType reports whether t is one of the supported field types.
func ValidFieldType(t FormFieldType) bool {
	switch t {
	case FieldText, FieldEmail, FieldNumber, FieldSelect, FieldTextarea, FieldDate:
		return true
	}
	return false
}

// FormField describes one input of a task form. Options is only meaningful
// for FieldSelect.
type FormField struct {
	ID       string        `json:"id"`
	Label    string        `json:"label"`
	Type     FormFieldType `json:"type"`
	Required bool          `json:"required"`
	Options  []string      `json:"options,omitempty"`
}

// ProcessDefinition is a saved BPMN process. Forms maps diagram element ids
// to the ordered form fields collected when that element executes.
type ProcessDefinition struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	DiagramXML  string                 `json:"bpmnXml,omitempty"`
	Forms       map[string][]FormField `json:"forms"`
	CreatedBy   string                 `json:"createdBy"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// InstanceStatus is the lifecycle state of a running process instance.
type InstanceStatus string

const (
	InstanceRunning   InstanceStatus = "running"
	InstanceCompleted InstanceStatus = "completed"
	InstancePaused    InstanceStatus = "paused"
)

// DefaultStartNodeID is the element id a fresh instance points at when the
// diagram's own start event cannot be resolved.
const DefaultStartNodeID = "StartEvent_1"

// ProcessInstance is one execution of a ProcessDefinition. Instances keep
// referencing their definition by id even after the definition is deleted;
// they are historical records, not live views.
type ProcessInstance struct {
	ID            string         `json:"id"`
	ProcessID     string         `json:"processId"`
	ProcessName   string         `json:"processName"`
	CurrentNodeID string         `json:"currentNodeId"`
	Status        InstanceStatus `json:"status"`
	Data          map[string]any `json:"data"`
	StartedBy     string         `json:"startedBy"`
	StartedAt     time.Time      `json:"startedAt"`
	CompletedAt   *time.Time     `json:"completedAt,omitempty"`
}

// IsRunning returns true while the instance still accepts task completions.
func (i *ProcessInstance) IsRunning() bool {
	return i.Status == InstanceRunning
}
