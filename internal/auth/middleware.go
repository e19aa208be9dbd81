package auth

import (
	"net/http"
	"strings"

	"github.com/dejobratic/storefront/internal/apperror"
	"github.com/dejobratic/storefront/internal/httpx"
)

const bearerPrefix = "Bearer "

// Authenticator rejects requests without a valid access token.
type Authenticator struct {
	tokens    *TokenIssuer
	responder *httpx.Responder
}

func NewAuthenticator(tokens *TokenIssuer, responder *httpx.Responder) *Authenticator {
	return &Authenticator{tokens: tokens, responder: responder}
}

// Require wraps next so that it only runs with an Identity in the request context.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			a.responder.Error(w, r, apperror.Authentication("Missing or invalid authorization header"))
			return
		}

		id, err := a.tokens.VerifyAccess(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			a.responder.Error(w, r, apperror.Authentication("Invalid or expired token").Wrap(err))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func (a *Authenticator) RequireFunc(next http.HandlerFunc) http.Handler {
	return a.Require(next)
}
