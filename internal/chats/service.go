package chats

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"invoice-backend/internal/invoices"
	"invoice-backend/internal/llm"
	"invoice-backend/internal/shared/metrics"
	"invoice-backend/internal/shared/telemetry"
	"invoice-backend/internal/usage"
)

// ErrNoUserMessage is returned when a turn request carries no user message.
var ErrNoUserMessage = errors.New("no user message found")

// Service runs one conversational turn: persistence of the incoming message,
// sanitization, prompt selection, token accounting, the streamed model call,
// and the post-stream finalization chain.
type Service struct {
	Repo       Repo
	Invoices   *invoices.Service
	Accountant *usage.Accountant
	Usage      usage.Store
	Provider   llm.Provider
	Tools      llm.ToolDispatcher

	// ReasoningModelKey names the model that reasons in-band and gets no
	// tools offered.
	ReasoningModelKey string
	RejectionKeywords []string
	MaxSteps          int
}

// TurnInput is one POST /chat request after authentication.
type TurnInput struct {
	ChatID   string
	UserID   string
	ModelKey string
	Messages []Message
}

// StreamTurn validates and prepares the turn, then returns the live event
// stream. Validation errors (no user message, rejected document, unsupported
// model) fail before any model call; after streaming begins, failures only
// surface as stream error events.
func (s *Service) StreamTurn(ctx context.Context, in TurnInput) (<-chan llm.Event, error) {
	userMsg, ok := latestUserMessage(in.Messages)
	if !ok {
		return nil, ErrNoUserMessage
	}

	sanitized := FoldPDFAttachments(in.Messages)
	documentText := DocumentText(sanitized)
	if err := CheckRejected(documentText, s.RejectionKeywords); err != nil {
		return nil, err
	}

	system := llm.SystemPrompt()
	if strings.TrimSpace(documentText) != "" {
		existing, err := s.Invoices.Existing(ctx)
		if err != nil {
			telemetry.Error("chats.existing_invoices.failed", map[string]any{"err": err.Error()})
			existing = nil
		}
		system = llm.InvoiceExtractionPrompt(documentText, existing)
	}

	// Input accounting is a precondition: an unknown model key fails the
	// whole request before anything streams. The basis is the system prompt
	// plus the joined message contents; on document turns the system prompt
	// carries the extracted text and dominates the count.
	inputTokens, err := s.Accountant.CountTokens(system+"\n"+concatContent(sanitized), in.ModelKey)
	if err != nil {
		return nil, err
	}
	s.recordUsage(ctx, in.ChatID, in.ModelKey, usage.DirectionInput, inputTokens)

	if err := s.ensureChat(ctx, in, userMsg); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveMessages(ctx, []Message{normalizeIncoming(in.ChatID, userMsg)}); err != nil {
		telemetry.Error("chats.save_user_message.failed", map[string]any{
			"chat_id": in.ChatID,
			"err":     err.Error(),
		})
	}

	req := llm.Request{
		System:   system,
		Messages: toModelMessages(sanitized),
		Model:    in.ModelKey,
	}

	orch := &llm.Orchestrator{
		Provider: s.Provider,
		Tools:    s.Tools,
		MaxSteps: s.MaxSteps,
	}
	if in.ModelKey == s.ReasoningModelKey {
		orch.Tools = nil
	}

	metrics.IncTurnStarted()
	started := time.Now()
	return orch.StreamTurn(ctx, req, func(ctx context.Context, result llm.TurnResult) {
		metrics.IncTurnCompleted()
		metrics.ObserveTurnDurationMs(float64(time.Since(started).Milliseconds()))
		s.finalize(ctx, in, result)
	}), nil
}

// finalize runs once per completed turn. Each stage is independent: a
// failure is logged and the remaining stages still run, so a broken
// structured block never loses the assistant message, and vice versa.
func (s *Service) finalize(ctx context.Context, in TurnInput, result llm.TurnResult) {
	outputTokens, err := s.Accountant.CountTokens(result.Text, in.ModelKey)
	if err != nil {
		telemetry.Error("chats.output_tokens.failed", map[string]any{
			"chat_id": in.ChatID,
			"err":     err.Error(),
		})
	} else {
		s.recordUsage(ctx, in.ChatID, in.ModelKey, usage.DirectionOutput, outputTokens)
	}

	candidate, err := invoices.ParseCandidate(result.Text)
	switch {
	case errors.Is(err, invoices.ErrNoStructuredBlock):
		// Plain conversational reply; nothing to persist.
	case err != nil:
		telemetry.Error("chats.candidate.malformed", map[string]any{
			"chat_id": in.ChatID,
			"err":     err.Error(),
		})
	default:
		s.Invoices.SaveCandidate(ctx, in.ChatID, candidate)
	}

	assistant := Message{
		ID:        uuid.NewString(),
		ChatID:    in.ChatID,
		Role:      "assistant",
		Content:   result.Text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Repo.SaveMessages(ctx, []Message{assistant}); err != nil {
		telemetry.Error("chats.save_assistant_message.failed", map[string]any{
			"chat_id": in.ChatID,
			"err":     err.Error(),
		})
	}
}

// ensureChat creates the chat row on the first turn, titling it from the
// opening user message. Title generation failures fall back to a truncation
// of the message text.
func (s *Service) ensureChat(ctx context.Context, in TurnInput, userMsg Message) error {
	_, err := s.Repo.GetChat(ctx, in.ChatID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	title, err := s.generateTitle(ctx, userMsg.Content)
	if err != nil {
		telemetry.Error("chats.title.failed", map[string]any{
			"chat_id": in.ChatID,
			"err":     err.Error(),
		})
		title = fallbackTitle(userMsg.Content)
	}
	return s.Repo.CreateChat(ctx, Chat{
		ID:        in.ChatID,
		UserID:    in.UserID,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	})
}

// Delete removes a chat after checking ownership.
func (s *Service) Delete(ctx context.Context, chatID, userID string) error {
	chat, err := s.Repo.GetChat(ctx, chatID)
	if err != nil {
		return err
	}
	if chat.UserID != userID {
		return ErrNotFound
	}
	return s.Repo.DeleteChat(ctx, chatID)
}

func (s *Service) recordUsage(ctx context.Context, chatID, modelKey string, dir usage.Direction, tokens int) {
	rec := usage.Record{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Direction: dir,
		ModelKey:  modelKey,
		Tokens:    tokens,
		Cost:      s.Accountant.Cost(tokens),
		CreatedAt: time.Now().UTC(),
	}
	telemetry.Info("chats.usage", map[string]any{
		"chat_id":   chatID,
		"direction": string(dir),
		"model":     modelKey,
		"tokens":    tokens,
		"cost":      rec.Cost,
	})
	if s.Usage == nil {
		return
	}
	if err := s.Usage.Add(ctx, rec); err != nil {
		telemetry.Error("chats.usage.store_failed", map[string]any{
			"chat_id": chatID,
			"err":     err.Error(),
		})
	}
}

func latestUserMessage(messages []Message) (Message, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i], true
		}
	}
	return Message{}, false
}

// normalizeIncoming stamps the stored copy of the latest user message with
// the chat id and, when missing, an id and timestamp.
func normalizeIncoming(chatID string, msg Message) Message {
	msg.ChatID = chatID
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	return msg
}

func concatContent(messages []Message) string {
	var b strings.Builder
	for _, msg := range messages {
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}

func toModelMessages(messages []Message) []llm.Message {
	out := make([]llm.Message, 0, len(messages))
	for _, msg := range messages {
		out = append(out, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	return out
}

func fallbackTitle(content string) string {
	content = strings.TrimSpace(content)
	if len(content) > 80 {
		content = content[:80]
	}
	if content == "" {
		content = "New chat"
	}
	return content
}
