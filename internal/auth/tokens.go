package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type claims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// TokenIssuer signs HS256 access and refresh tokens with separate secrets and lifetimes.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

type IssuerOption func(*TokenIssuer)

// WithClock overrides the time source used for iat, exp and validation.
func WithClock(now func() time.Time) IssuerOption {
	return func(ti *TokenIssuer) {
		ti.now = now
	}
}

func NewTokenIssuer(cfg Config, opts ...IssuerOption) *TokenIssuer {
	ti := &TokenIssuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(ti)
	}
	return ti
}

func (ti *TokenIssuer) IssueAccess(id Identity) (string, error) {
	return ti.issue(id, ti.accessSecret, ti.accessTTL)
}

func (ti *TokenIssuer) IssueRefresh(id Identity) (string, error) {
	return ti.issue(id, ti.refreshSecret, ti.refreshTTL)
}

func (ti *TokenIssuer) VerifyAccess(token string) (Identity, error) {
	return ti.verify(token, ti.accessSecret)
}

func (ti *TokenIssuer) VerifyRefresh(token string) (Identity, error) {
	return ti.verify(token, ti.refreshSecret)
}

func (ti *TokenIssuer) issue(id Identity, secret []byte, ttl time.Duration) (string, error) {
	now := ti.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		ID:    id.SellerID,
		Email: id.Email,
		Name:  id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (ti *TokenIssuer) verify(token string, secret []byte) (Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if c.ID == "" {
		return Identity{}, fmt.Errorf("%w: missing seller id", ErrInvalidToken)
	}

	return Identity{SellerID: c.ID, Email: c.Email, Name: c.Name}, nil
}
