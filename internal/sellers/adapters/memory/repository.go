package memory

import (
	"context"
	"sync"

	"github.com/dejobratic/storefront/internal/sellers/domain"
	"github.com/dejobratic/storefront/internal/sellers/ports"
)

// Repository keeps sellers in memory for local development and tests.
type Repository struct {
	mu      sync.RWMutex
	sellers map[string]domain.Seller
	byEmail map[string]string
}

func NewRepository() *Repository {
	return &Repository{
		sellers: make(map[string]domain.Seller),
		byEmail: make(map[string]string),
	}
}

func (r *Repository) Create(_ context.Context, seller domain.Seller) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[seller.Email]; taken {
		return ports.ErrEmailTaken
	}
	r.sellers[seller.ID] = seller
	r.byEmail[seller.Email] = seller.ID
	return nil
}

func (r *Repository) GetByEmail(_ context.Context, email string) (*domain.Seller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ports.ErrNotFound
	}
	seller := r.sellers[id]
	return &seller, nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Seller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seller, ok := r.sellers[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &seller, nil
}
