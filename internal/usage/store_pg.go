package usage

import (
	"context"
	"database/sql"
)

type pgStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed usage store.
func NewPGStore(db *sql.DB) Store {
	return &pgStore{DB: db}
}

func (s *pgStore) Add(ctx context.Context, rec Record) error {
	const query = `
INSERT INTO token_usage (id, chat_id, direction, model_key, tokens, cost, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.DB.ExecContext(
		ctx,
		query,
		rec.ID,
		rec.ChatID,
		string(rec.Direction),
		rec.ModelKey,
		rec.Tokens,
		rec.Cost,
		rec.CreatedAt,
	)
	return err
}

func (s *pgStore) ListByChat(ctx context.Context, chatID string) ([]Record, error) {
	const query = `
SELECT id, chat_id, direction, model_key, tokens, cost, created_at
FROM token_usage
WHERE chat_id = $1
ORDER BY created_at ASC`
	rows, err := s.DB.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var direction string
		if err := rows.Scan(&rec.ID, &rec.ChatID, &direction, &rec.ModelKey, &rec.Tokens, &rec.Cost, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Direction = Direction(direction)
		out = append(out, rec)
	}
	return out, rows.Err()
}
