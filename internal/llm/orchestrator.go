package llm

import (
	"context"
	"strings"

	"invoice-backend/internal/shared/telemetry"
)

// ToolDispatcher exposes a tool set to the orchestrator. Implemented by
// tools.Registry; nil means no tools are offered to the model.
type ToolDispatcher interface {
	Specs() []ToolSpec
	Dispatch(ctx context.Context, name, arguments string) (string, error)
}

// TurnResult is the complete accumulated response of one model turn.
type TurnResult struct {
	Text      string
	Reasoning string
}

// FinishFunc receives the full turn exactly once after the model signals
// completion. It is not called when the client aborts mid-stream.
type FinishFunc func(ctx context.Context, result TurnResult)

// Orchestrator drives one streaming model turn with a bounded number of
// sequential tool-augmented steps and a word-level smoothing transform.
type Orchestrator struct {
	Provider Provider
	Tools    ToolDispatcher
	MaxSteps int
}

const defaultMaxSteps = 5

// StreamTurn starts the turn and returns a live event stream. Text events
// are word-smoothed. Tool calls requested by the model are dispatched and
// fed back for up to MaxSteps steps. onFinish runs on a context detached
// from client cancellation so finalization side effects survive a
// disconnect that happens after the model completed.
func (o *Orchestrator) StreamTurn(ctx context.Context, req Request, onFinish FinishFunc) <-chan Event {
	out := make(chan Event, 16)
	maxSteps := o.MaxSteps
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}
	if o.Tools != nil {
		req.Tools = o.Tools.Specs()
	}

	go func() {
		defer close(out)

		var text, reasoning strings.Builder
		var smoother Smoother
		completed := false

		messages := append([]Message(nil), req.Messages...)

	steps:
		for step := 0; step < maxSteps; step++ {
			stepReq := req
			stepReq.Messages = messages

			events, err := o.Provider.StreamChat(ctx, stepReq)
			if err != nil {
				emitEvent(ctx, out, Event{Type: EventError, Err: err})
				return
			}

			var toolCalls []ToolCall
			finishReason := ""
			sawFinish := false

			for ev := range events {
				switch ev.Type {
				case EventText:
					text.WriteString(ev.Text)
					if chunk := smoother.Push(ev.Text); chunk != "" {
						if !emitEvent(ctx, out, Event{Type: EventText, Text: chunk}) {
							return
						}
					}
				case EventReasoning:
					reasoning.WriteString(ev.Reasoning)
					if !emitEvent(ctx, out, Event{Type: EventReasoning, Reasoning: ev.Reasoning}) {
						return
					}
				case EventToolCall:
					toolCalls = append(toolCalls, *ev.ToolCall)
					if !emitEvent(ctx, out, ev) {
						return
					}
				case EventFinish:
					finishReason = ev.Reason
					sawFinish = true
				case EventError:
					emitEvent(ctx, out, ev)
					return
				}
			}
			if !sawFinish {
				// Provider stream ended without completion (cancellation).
				return
			}

			if finishReason == FinishToolCalls && len(toolCalls) > 0 && step < maxSteps-1 {
				messages = append(messages, Message{Role: RoleAssistant, ToolCalls: toolCalls})
				for _, call := range toolCalls {
					result, err := o.Tools.Dispatch(ctx, call.Name, call.Arguments)
					if err != nil {
						telemetry.Error("llm.tool.failed", map[string]any{"tool": call.Name, "err": err.Error()})
						result = "tool error: " + err.Error()
					}
					if !emitEvent(ctx, out, Event{Type: EventToolResult, ToolCall: &call, ToolResult: result}) {
						return
					}
					messages = append(messages, Message{Role: RoleTool, Content: result, ToolCallID: call.ID})
				}
				continue steps
			}

			completed = true
			break steps
		}

		if !completed {
			return
		}

		// The model has signaled completion: trailing deliveries are
		// best-effort, a client disconnect from here on must not cancel
		// finalization.
		if tail := smoother.Flush(); tail != "" {
			emitEvent(ctx, out, Event{Type: EventText, Text: tail})
		}
		emitEvent(ctx, out, Event{Type: EventFinish, Reason: FinishStop})

		if onFinish != nil {
			onFinish(context.WithoutCancel(ctx), TurnResult{
				Text:      text.String(),
				Reasoning: reasoning.String(),
			})
		}
	}()

	return out
}

func emitEvent(ctx context.Context, ch chan<- Event, ev Event) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
