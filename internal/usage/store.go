package usage

import "context"

// Store persists token usage records. Failures here are bookkeeping noise:
// callers log and continue, they never fail a request over a usage write.
type Store interface {
	Add(ctx context.Context, rec Record) error
	ListByChat(ctx context.Context, chatID string) ([]Record, error)
}
