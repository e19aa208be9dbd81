package http

import (
	"net/http"

	"github.com/dejobratic/storefront/internal/auth"
	"github.com/dejobratic/storefront/internal/httpx"
	"github.com/dejobratic/storefront/internal/sellers/app"
)

// Handler exposes seller authentication endpoints.
type Handler struct {
	service   *app.Service
	responder *httpx.Responder
	authn     *auth.Authenticator
}

func NewHandler(service *app.Service, responder *httpx.Responder, authn *auth.Authenticator) *Handler {
	return &Handler{service: service, responder: responder, authn: authn}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/seller/login", h.login)
	mux.HandleFunc("POST /api/auth/seller/register", h.register)
	mux.HandleFunc("POST /api/auth/seller/refresh-token", h.refresh)
	mux.Handle("GET /api/auth/seller/profile", h.authn.RequireFunc(h.profile))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var input app.LoginInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	result, err := h.service.Login(r.Context(), input)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	h.responder.Data(w, http.StatusOK, result)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var input app.RegisterInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	result, err := h.service.Register(r.Context(), input)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	h.responder.Data(w, http.StatusCreated, result)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var input app.RefreshInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	result, err := h.service.Refresh(r.Context(), input)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	h.responder.Data(w, http.StatusOK, result)
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	profile, err := h.service.Profile(r.Context(), id.SellerID)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	h.responder.Data(w, http.StatusOK, profile)
}
