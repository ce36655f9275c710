package llm

import "context"

// Role values for conversation messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry in a model conversation.
type Message struct {
	Role    string
	Content string
	// ToolCalls is set on assistant messages that requested tool execution.
	ToolCalls []ToolCall
	// ToolCallID links a tool-role message to the call it answers.
	ToolCallID string
}

// ToolCall is a model-requested tool invocation. Ephemeral: scoped to one
// streaming turn, persisted only as part of the assistant message content.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolSpec describes a callable tool to the model.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Request captures one model invocation.
type Request struct {
	System   string
	Messages []Message
	Model    string
	Tools    []ToolSpec
}

// EventType discriminates stream events.
type EventType string

const (
	EventText       EventType = "text"
	EventReasoning  EventType = "reasoning"
	EventToolCall   EventType = "tool-call"
	EventToolResult EventType = "tool-result"
	EventFinish     EventType = "finish"
	EventError      EventType = "error"
)

// Finish reasons reported by providers.
const (
	FinishStop      = "stop"
	FinishToolCalls = "tool_calls"
)

// Event is one incremental chunk from a streaming model turn.
type Event struct {
	Type       EventType
	Text       string
	Reasoning  string
	ToolCall   *ToolCall
	ToolResult string
	Reason     string
	Err        error
}

// Provider abstracts a streaming chat model. StreamChat returns a channel
// closed after a finish or error event; the channel respects ctx cancellation.
type Provider interface {
	StreamChat(ctx context.Context, req Request) (<-chan Event, error)
	Complete(ctx context.Context, req Request) (string, error)
}
