package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dejobratic/storefront/internal/apperror"
	"github.com/dejobratic/storefront/internal/auth"
	"github.com/dejobratic/storefront/internal/sellers/domain"
	"github.com/dejobratic/storefront/internal/sellers/ports"
	"github.com/dejobratic/storefront/internal/validation"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const passwordCost = 10

const invalidCredentials = "Invalid email or password"

type LoginInput struct {
	Email    string `json:"email" validate:"notblank"`
	Password string `json:"password" validate:"notblank"`
}

type RegisterInput struct {
	Email    string `json:"email" validate:"notblank"`
	Password string `json:"password" validate:"notblank,min=6"`
	Name     string `json:"name" validate:"notblank"`
}

type RefreshInput struct {
	RefreshToken string `json:"refreshToken" validate:"notblank"`
}

// SessionResult is returned by login and register.
type SessionResult struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	Seller       domain.Summary `json:"seller"`
}

type RefreshResult struct {
	AccessToken string `json:"accessToken"`
}

// Service implements seller authentication and profile lookups.
type Service struct {
	repo   ports.SellerRepository
	tokens ports.TokenIssuer
	logger *slog.Logger
	now    func() time.Time
	cost   int
}

type Option func(*Service)

// WithPasswordCost lowers the bcrypt cost, for tests.
func WithPasswordCost(cost int) Option {
	return func(s *Service) {
		s.cost = cost
	}
}

func NewService(repo ports.SellerRepository, tokens ports.TokenIssuer, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		tokens: tokens,
		logger: logger,
		now:    time.Now,
		cost:   passwordCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Login(ctx context.Context, input LoginInput) (*SessionResult, error) {
	if err := validation.Struct(input, validation.Static("Email and password are required")); err != nil {
		return nil, err
	}

	seller, err := s.repo.GetByEmail(ctx, domain.NormalizeEmail(input.Email))
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			return nil, fmt.Errorf("find seller: %w", err)
		}
		// Unknown emails still pay for one comparison.
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(input.Password))
		return nil, apperror.Authentication(invalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(seller.PasswordHash), []byte(input.Password)); err != nil {
		s.logger.InfoContext(ctx, "seller login rejected", "seller_id", seller.ID)
		return nil, apperror.Authentication(invalidCredentials)
	}

	return s.session(*seller)
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (*SessionResult, error) {
	if err := validation.Struct(input, registerMessage); err != nil {
		return nil, err
	}

	email := domain.NormalizeEmail(input.Email)

	_, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperror.Conflict("Email already registered")
	case !errors.Is(err, ports.ErrNotFound):
		return nil, fmt.Errorf("check existing seller: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	seller := domain.Seller{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         input.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, seller); err != nil {
		if errors.Is(err, ports.ErrEmailTaken) {
			return nil, apperror.Conflict("Email already registered")
		}
		return nil, fmt.Errorf("create seller: %w", err)
	}

	s.logger.InfoContext(ctx, "seller registered", "seller_id", seller.ID)

	return s.session(seller)
}

func (s *Service) Refresh(_ context.Context, input RefreshInput) (*RefreshResult, error) {
	if err := validation.Struct(input, validation.Static("Refresh token is required")); err != nil {
		return nil, err
	}

	id, err := s.tokens.VerifyRefresh(input.RefreshToken)
	if err != nil {
		return nil, apperror.Authentication("Invalid or expired refresh token").Wrap(err)
	}

	access, err := s.tokens.IssueAccess(id)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	return &RefreshResult{AccessToken: access}, nil
}

func (s *Service) Profile(ctx context.Context, sellerID string) (*domain.Profile, error) {
	seller, err := s.repo.GetByID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, apperror.NotFound("Seller")
		}
		return nil, fmt.Errorf("get seller: %w", err)
	}

	profile := seller.Profile()
	return &profile, nil
}

func (s *Service) session(seller domain.Seller) (*SessionResult, error) {
	id := auth.Identity{SellerID: seller.ID, Email: seller.Email, Name: seller.Name}

	access, err := s.tokens.IssueAccess(id)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefresh(id)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &SessionResult{
		AccessToken:  access,
		RefreshToken: refresh,
		Seller:       seller.Summary(),
	}, nil
}

func registerMessage(failed []validation.FieldError) string {
	if validation.Failed(failed, "notblank") {
		return "Email, password, and name are required"
	}
	return "Password must be at least 6 characters long"
}

var (
	dummyOnce sync.Once
	dummy     []byte
)

func dummyHash() []byte {
	dummyOnce.Do(func() {
		dummy, _ = bcrypt.GenerateFromPassword([]byte("storefront-unknown-seller"), passwordCost)
	})
	return dummy
}
