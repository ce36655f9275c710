package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"invoice-backend/internal/llm"
)

// Tool is one callable exposed to the model during a streaming turn.
type Tool interface {
	Spec() llm.ToolSpec
	Call(ctx context.Context, arguments json.RawMessage) (string, error)
}

// Registry holds the fixed active tool set for a turn.
type Registry struct {
	tools map[string]Tool
	order []string
}

func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		name := t.Spec().Name
		r.tools[name] = t
		r.order = append(r.order, name)
	}
	return r
}

// Specs returns tool specs in registration order.
func (r *Registry) Specs() []llm.ToolSpec {
	if r == nil {
		return nil
	}
	out := make([]llm.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Spec())
	}
	return out
}

// Dispatch executes a named tool with raw JSON arguments.
func (r *Registry) Dispatch(ctx context.Context, name string, arguments string) (string, error) {
	if r == nil {
		return "", fmt.Errorf("no tools registered")
	}
	t, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", name)
	}
	return t.Call(ctx, json.RawMessage(arguments))
}
