package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"invoice-backend/internal/llm"
)

const apiURL = "https://api.openai.com/v1/chat/completions"

// Client implements llm.Provider using OpenAI Chat Completions with SSE
// streaming.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	// models maps our logical model keys to provider model names.
	models map[string]string
}

// NewClient constructs a new OpenAI client. models maps logical keys
// (e.g. chat-model-large) to provider model names.
func NewClient(apiKey string, models map[string]string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("OPENAI_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    apiURL,
		httpClient: &http.Client{Timeout: timeout},
		models:     models,
	}, nil
}

// WithBaseURL overrides the endpoint, used by tests.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = url
	return c
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type chatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description,omitempty"`
		Parameters  map[string]any `json:"parameters,omitempty"`
	} `json:"function"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Tools    []chatTool    `json:"tools,omitempty"`
}

type streamDelta struct {
	Content   string `json:"content"`
	Reasoning string `json:"reasoning"`
	ToolCalls []struct {
		Index    int    `json:"index"`
		ID       string `json:"id"`
		Function struct {
			Name      string `json:"name"`
			Arguments string `json:"arguments"`
		} `json:"function"`
	} `json:"tool_calls"`
}

type streamChunk struct {
	Choices []struct {
		Delta        streamDelta `json:"delta"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) resolveModel(key string) string {
	if name, ok := c.models[key]; ok {
		return name
	}
	return key
}

func (c *Client) buildRequest(req llm.Request, stream bool) chatRequest {
	messages := make([]chatMessage, 0, len(req.Messages)+1)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, chatMessage{Role: llm.RoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		cm := chatMessage{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID}
		for _, tc := range m.ToolCalls {
			call := chatToolCall{ID: tc.ID, Type: "function"}
			call.Function.Name = tc.Name
			call.Function.Arguments = tc.Arguments
			cm.ToolCalls = append(cm.ToolCalls, call)
		}
		messages = append(messages, cm)
	}
	out := chatRequest{Model: c.resolveModel(req.Model), Messages: messages, Stream: stream}
	for _, spec := range req.Tools {
		t := chatTool{Type: "function"}
		t.Function.Name = spec.Name
		t.Function.Description = spec.Description
		t.Function.Parameters = spec.Parameters
		out.Tools = append(out.Tools, t)
	}
	return out
}

func (c *Client) post(ctx context.Context, body chatRequest) (*http.Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		resp.Body.Close()
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("openai: %s", msg)
	}
	return resp, nil
}

// Complete performs one non-streaming call and returns the assistant text.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	resp, err := c.post(ctx, c.buildRequest(req, false))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", errors.New(decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("openai: empty response")
	}
	return decoded.Choices[0].Message.Content, nil
}

// StreamChat streams assistant deltas via SSE. The returned channel closes
// after a finish or error event. Tool calls accumulate across deltas and are
// emitted whole once the provider reports a tool_calls finish.
func (c *Client) StreamChat(ctx context.Context, req llm.Request) (<-chan llm.Event, error) {
	events := make(chan llm.Event, 16)

	go func() {
		defer close(events)

		resp, err := c.post(ctx, c.buildRequest(req, true))
		if err != nil {
			emit(ctx, events, llm.Event{Type: llm.EventError, Err: err})
			return
		}
		defer resp.Body.Close()

		type partialCall struct {
			id   string
			name string
			args strings.Builder
		}
		calls := map[int]*partialCall{}
		callOrder := []int{}
		finishReason := ""
		done := false

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			data := strings.TrimPrefix(line, "data: ")
			if data == "[DONE]" {
				done = true
				break
			}
			var chunk streamChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				continue
			}
			if chunk.Error != nil && chunk.Error.Message != "" {
				emit(ctx, events, llm.Event{Type: llm.EventError, Err: errors.New(chunk.Error.Message)})
				return
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			choice := chunk.Choices[0]
			if choice.Delta.Content != "" {
				if !emit(ctx, events, llm.Event{Type: llm.EventText, Text: choice.Delta.Content}) {
					return
				}
			}
			if choice.Delta.Reasoning != "" {
				if !emit(ctx, events, llm.Event{Type: llm.EventReasoning, Reasoning: choice.Delta.Reasoning}) {
					return
				}
			}
			for _, tc := range choice.Delta.ToolCalls {
				pc, ok := calls[tc.Index]
				if !ok {
					pc = &partialCall{}
					calls[tc.Index] = pc
					callOrder = append(callOrder, tc.Index)
				}
				if tc.ID != "" {
					pc.id = tc.ID
				}
				if tc.Function.Name != "" {
					pc.name = tc.Function.Name
				}
				pc.args.WriteString(tc.Function.Arguments)
			}
			if choice.FinishReason != "" {
				finishReason = choice.FinishReason
			}
		}
		if err := scanner.Err(); err != nil {
			emit(ctx, events, llm.Event{Type: llm.EventError, Err: err})
			return
		}

		// A body that ends without [DONE] or a finish_reason is a truncated
		// stream, not a completion: close without a finish event so the turn
		// is never finalized from partial output.
		if !done && finishReason == "" {
			return
		}

		for _, idx := range callOrder {
			pc := calls[idx]
			call := llm.ToolCall{ID: pc.id, Name: pc.name, Arguments: pc.args.String()}
			if !emit(ctx, events, llm.Event{Type: llm.EventToolCall, ToolCall: &call}) {
				return
			}
		}
		if finishReason == "" {
			finishReason = llm.FinishStop
		}
		emit(ctx, events, llm.Event{Type: llm.EventFinish, Reason: finishReason})
	}()

	return events, nil
}

func emit(ctx context.Context, ch chan<- llm.Event, ev llm.Event) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
