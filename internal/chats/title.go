package chats

import (
	"context"
	"strings"

	"invoice-backend/internal/llm"
)

// TitleModelKey selects the lightweight model used for chat titling.
const TitleModelKey = "title-model"

// generateTitle asks the title model for a short summary of the opening
// user message. Non-streaming; callers fall back on error.
func (s *Service) generateTitle(ctx context.Context, firstUserContent string) (string, error) {
	title, err := s.Provider.Complete(ctx, llm.Request{
		System:   llm.TitlePrompt(),
		Messages: []llm.Message{{Role: llm.RoleUser, Content: firstUserContent}},
		Model:    TitleModelKey,
	})
	if err != nil {
		return "", err
	}
	title = strings.Trim(strings.TrimSpace(title), `"`)
	if len(title) > 80 {
		title = title[:80]
	}
	return title, nil
}
