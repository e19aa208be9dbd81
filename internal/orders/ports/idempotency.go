package ports

import "context"

// StoredResponse is the response replayed for a reused Idempotency-Key.
type StoredResponse struct {
	StatusCode int
	Body       []byte
	OrderID    string
}

// IdempotencyStore remembers create responses so retried checkouts are not duplicated.
// Get returns nil, nil for an unknown key. Save keeps the first response for a key.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*StoredResponse, error)
	Save(ctx context.Context, key string, response StoredResponse) error
}
