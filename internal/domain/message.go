package domain

// Message is a single chat turn. Messages are append-only: once created they
// are never mutated, only dropped wholesale when the session resets.
type Message struct {
	ID         string `json:"id"`
	Role       string `json:"role"` // "user" or "assistant"
	Content    string `json:"content"`
	DiagramXML string `json:"bpmnXml,omitempty"`
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// HasDiagram returns true if the message carries an extracted BPMN document.
func (m *Message) HasDiagram() bool {
	return m.DiagramXML != ""
}

// ConnectionState is the chat backend health indicator shown in the UI.
type ConnectionState string

const (
	ConnectionConnected ConnectionState = "connected"
	ConnectionError     ConnectionState = "error"
	ConnectionTesting   ConnectionState = "testing"
)

// ApplyState records the outcome of the most recent diagram apply. It is a
// display affordance, auto-cleared after a short delay.
type ApplyState string

const (
	ApplyNone    ApplyState = ""
	ApplySuccess ApplyState = "success"
	ApplyError   ApplyState = "error"
)

// Conversation is the persisted snapshot of a chat session.
type Conversation struct {
	UserID   string    `json:"user_id"`
	Messages []Message `json:"messages"`
}
