package chats

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-process Repo for tests and DB-less local runs.
type MemoryRepo struct {
	mu       sync.RWMutex
	chats    map[string]Chat
	messages map[string][]Message
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		chats:    make(map[string]Chat),
		messages: make(map[string][]Message),
	}
}

func (r *MemoryRepo) CreateChat(ctx context.Context, chat Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chats[chat.ID] = chat
	return nil
}

func (r *MemoryRepo) GetChat(ctx context.Context, id string) (Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chat, ok := r.chats[id]
	if !ok {
		return Chat{}, ErrNotFound
	}
	return chat, nil
}

func (r *MemoryRepo) DeleteChat(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.chats[id]; !ok {
		return ErrNotFound
	}
	delete(r.chats, id)
	delete(r.messages, id)
	return nil
}

func (r *MemoryRepo) ListChatsByUser(ctx context.Context, userID string) ([]Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Chat
	for _, chat := range r.chats {
		if chat.UserID == userID {
			out = append(out, chat)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) SaveMessages(ctx context.Context, messages []Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range messages {
		r.messages[msg.ChatID] = append(r.messages[msg.ChatID], msg)
	}
	return nil
}

func (r *MemoryRepo) ListMessages(ctx context.Context, chatID string) ([]Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Message, len(r.messages[chatID]))
	copy(out, r.messages[chatID])
	return out, nil
}
