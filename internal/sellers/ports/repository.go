package ports

import (
	"context"
	"errors"

	"github.com/dejobratic/storefront/internal/auth"
	"github.com/dejobratic/storefront/internal/sellers/domain"
)

// SellerRepository persists seller accounts. Emails are passed already normalized.
type SellerRepository interface {
	Create(ctx context.Context, seller domain.Seller) error
	GetByEmail(ctx context.Context, email string) (*domain.Seller, error)
	GetByID(ctx context.Context, id string) (*domain.Seller, error)
}

// TokenIssuer is the part of auth.TokenIssuer the seller use cases need.
type TokenIssuer interface {
	IssueAccess(id auth.Identity) (string, error)
	IssueRefresh(id auth.Identity) (string, error)
	VerifyRefresh(token string) (auth.Identity, error)
}

var (
	ErrNotFound   = errors.New("seller not found")
	ErrEmailTaken = errors.New("email already registered")
)
