package auth

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dejobratic/storefront/internal/httpx"
)

func TestAuthenticatorRequire(t *testing.T) {
	issuer := testIssuer(time.Now)
	responder := httpx.NewResponder(slog.New(slog.NewTextHandler(io.Discard, nil)), false)
	authn := NewAuthenticator(issuer, responder)

	var seen Identity
	protected := authn.RequireFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	access, _ := issuer.IssueAccess(seller)
	refresh, _ := issuer.IssueRefresh(seller)

	tests := []struct {
		name        string
		header      string
		wantStatus  int
		wantMessage string
	}{
		{"missing header", "", http.StatusUnauthorized, "Missing or invalid authorization header"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Missing or invalid authorization header"},
		{"lowercase scheme", "bearer " + access, http.StatusUnauthorized, "Missing or invalid authorization header"},
		{"empty token", "Bearer ", http.StatusUnauthorized, "Invalid or expired token"},
		{"refresh token", "Bearer " + refresh, http.StatusUnauthorized, "Invalid or expired token"},
		{"valid", "Bearer " + access, http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = Identity{}
			req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			protected.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantMessage == "" {
				if seen != seller {
					t.Errorf("expected identity %+v in context, got %+v", seller, seen)
				}
				return
			}

			var body struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("response is not JSON: %v", err)
			}
			if body.Error.Code != "AUTHENTICATION_ERROR" || body.Error.Message != tt.wantMessage {
				t.Errorf("unexpected error %+v", body.Error)
			}
		})
	}
}
