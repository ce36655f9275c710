package chats

import (
	"context"
	"errors"
)

// ErrNotFound reports a missing chat.
var ErrNotFound = errors.New("chat not found")

// Repo persists chats and their messages. Messages are append-only within a
// chat; deleting a chat removes its messages with it.
type Repo interface {
	CreateChat(ctx context.Context, chat Chat) error
	GetChat(ctx context.Context, id string) (Chat, error)
	DeleteChat(ctx context.Context, id string) error
	ListChatsByUser(ctx context.Context, userID string) ([]Chat, error)

	SaveMessages(ctx context.Context, messages []Message) error
	ListMessages(ctx context.Context, chatID string) ([]Message, error)
}
