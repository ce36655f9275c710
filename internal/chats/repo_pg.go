package chats

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// PGRepo implements Repo using Postgres. Message attachments are stored as a
// jsonb column; the messages table cascades on chat deletion.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) CreateChat(ctx context.Context, chat Chat) error {
	const query = `
INSERT INTO chats (id, user_id, title, created_at)
VALUES ($1, $2, $3, $4)`
	_, err := r.DB.ExecContext(ctx, query, chat.ID, chat.UserID, chat.Title, chat.CreatedAt)
	return err
}

func (r *PGRepo) GetChat(ctx context.Context, id string) (Chat, error) {
	const query = `
SELECT id, user_id, title, created_at
FROM chats
WHERE id = $1`
	var chat Chat
	err := r.DB.QueryRowContext(ctx, query, id).
		Scan(&chat.ID, &chat.UserID, &chat.Title, &chat.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Chat{}, ErrNotFound
		}
		return Chat{}, err
	}
	return chat, nil
}

func (r *PGRepo) DeleteChat(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM chats WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) ListChatsByUser(ctx context.Context, userID string) ([]Chat, error) {
	const query = `
SELECT id, user_id, title, created_at
FROM chats
WHERE user_id = $1
ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Chat
	for rows.Next() {
		var chat Chat
		if err := rows.Scan(&chat.ID, &chat.UserID, &chat.Title, &chat.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, chat)
	}
	return out, rows.Err()
}

func (r *PGRepo) SaveMessages(ctx context.Context, messages []Message) error {
	const query = `
INSERT INTO messages (id, chat_id, role, content, attachments, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	for _, msg := range messages {
		attachments, err := json.Marshal(msg.Attachments)
		if err != nil {
			return err
		}
		if msg.Attachments == nil {
			attachments = []byte("[]")
		}
		_, err = r.DB.ExecContext(ctx, query,
			msg.ID, msg.ChatID, msg.Role, msg.Content, attachments, msg.CreatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *PGRepo) ListMessages(ctx context.Context, chatID string) ([]Message, error) {
	const query = `
SELECT id, chat_id, role, content, attachments, created_at
FROM messages
WHERE chat_id = $1
ORDER BY created_at ASC`
	rows, err := r.DB.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var msg Message
		var attachments []byte
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.Role, &msg.Content, &attachments, &msg.CreatedAt); err != nil {
			return nil, err
		}
		if len(attachments) > 0 {
			if err := json.Unmarshal(attachments, &msg.Attachments); err != nil {
				return nil, err
			}
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}
