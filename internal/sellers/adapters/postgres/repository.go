package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dejobratic/storefront/internal/sellers/domain"
	"github.com/dejobratic/storefront/internal/sellers/ports"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, seller domain.Seller) error {
	query := `
		INSERT INTO sellers (id, email, password_hash, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		seller.ID,
		seller.Email,
		seller.PasswordHash,
		seller.Name,
		seller.CreatedAt,
		seller.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ports.ErrEmailTaken
		}
		return fmt.Errorf("insert seller: %w", err)
	}

	return nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*domain.Seller, error) {
	query := `
		SELECT id, email, password_hash, name, created_at, updated_at
		FROM sellers
		WHERE LOWER(email) = $1
	`
	return r.getOne(ctx, query, email)
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Seller, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ports.ErrNotFound
	}

	query := `
		SELECT id, email, password_hash, name, created_at, updated_at
		FROM sellers
		WHERE id = $1
	`
	return r.getOne(ctx, query, id)
}

func (r *Repository) getOne(ctx context.Context, query string, arg string) (*domain.Seller, error) {
	var seller domain.Seller
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&seller.ID,
		&seller.Email,
		&seller.PasswordHash,
		&seller.Name,
		&seller.CreatedAt,
		&seller.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select seller: %w", err)
	}

	return &seller, nil
}
