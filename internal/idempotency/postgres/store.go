package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dejobratic/storefront/internal/orders/ports"
)

// Store keeps replayable checkout responses in idempotency_keys. With a positive TTL,
// rows older than the TTL read as absent and the next Save replaces them.
type Store struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

func NewStore(pool *pgxpool.Pool, ttl time.Duration) *Store {
	return &Store{pool: pool, ttl: ttl}
}

const selectLive = `
	SELECT status_code, body, order_id
	FROM idempotency_keys
	WHERE key = @key
	  AND (@ttl::bigint = 0 OR created_at > NOW() - make_interval(secs => @ttl::bigint))
`

const insertOrReplaceExpired = `
	INSERT INTO idempotency_keys (key, status_code, body, order_id)
	VALUES (@key, @status, @body, @order_id)
	ON CONFLICT (key) DO UPDATE
	SET status_code = EXCLUDED.status_code,
	    body = EXCLUDED.body,
	    order_id = EXCLUDED.order_id,
	    created_at = NOW()
	WHERE @ttl::bigint > 0
	  AND idempotency_keys.created_at <= NOW() - make_interval(secs => @ttl::bigint)
`

func (s *Store) Get(ctx context.Context, key string) (*ports.StoredResponse, error) {
	args := pgx.NamedArgs{"key": key, "ttl": s.ttlSeconds()}

	var resp ports.StoredResponse
	err := s.pool.QueryRow(ctx, selectLive, args).Scan(&resp.StatusCode, &resp.Body, &resp.OrderID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("select idempotency key: %w", err)
	}
	return &resp, nil
}

func (s *Store) Save(ctx context.Context, key string, response ports.StoredResponse) error {
	args := pgx.NamedArgs{
		"key":      key,
		"status":   response.StatusCode,
		"body":     response.Body,
		"order_id": response.OrderID,
		"ttl":      s.ttlSeconds(),
	}
	if _, err := s.pool.Exec(ctx, insertOrReplaceExpired, args); err != nil {
		return fmt.Errorf("save idempotency key: %w", err)
	}
	return nil
}

func (s *Store) ttlSeconds() int64 {
	return int64(s.ttl / time.Second)
}
