package usage

import "time"

// Direction marks which side of a model turn a record measures.
type Direction string

const (
	DirectionInput  Direction = "input"
	DirectionOutput Direction = "output"
)

// Record is one token-count snapshot for a chat turn. Counts come from a
// local encoding table and are estimates; they are not guaranteed to match
// the model vendor's billed totals.
type Record struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chatId"`
	Direction Direction `json:"direction"`
	ModelKey  string    `json:"modelKey"`
	Tokens    int       `json:"tokens"`
	Cost      float64   `json:"cost"`
	CreatedAt time.Time `json:"createdAt"`
}
