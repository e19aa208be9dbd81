package domain

import (
	"strings"
	"time"
)

// Seller is a registered storefront account. PasswordHash never leaves the service.
type Seller struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Summary is the seller shape returned alongside tokens.
type Summary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s Seller) Summary() Summary {
	return Summary{ID: s.ID, Email: s.Email, Name: s.Name}
}

func (s Seller) Profile() Profile {
	return Profile{ID: s.ID, Email: s.Email, Name: s.Name, CreatedAt: s.CreatedAt}
}

// NormalizeEmail is the canonical stored and looked-up form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
