package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dejobratic/storefront/internal/auth"
	"github.com/dejobratic/storefront/internal/httpx"
	"github.com/dejobratic/storefront/internal/orders/app"
	"github.com/dejobratic/storefront/internal/orders/app/commands"
	"github.com/dejobratic/storefront/internal/orders/app/queries"
	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"
)

// Handler exposes HTTP endpoints for order operations.
type Handler struct {
	service   *app.Service
	responder *httpx.Responder
	authn     *auth.Authenticator
}

func NewHandler(service *app.Service, responder *httpx.Responder, authn *auth.Authenticator) *Handler {
	return &Handler{service: service, responder: responder, authn: authn}
}

// Register binds the order handlers to the provided ServeMux. Checkout and order lookup
// are public; the rest is for signed-in sellers.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/orders", h.createOrder)
	mux.HandleFunc("GET /api/orders/{id}", h.getOrder)
	mux.Handle("GET /api/orders", h.authn.RequireFunc(h.listOrders))
	mux.Handle("PATCH /api/orders/{id}/status", h.authn.RequireFunc(h.updateStatus))
	mux.Handle("PATCH /api/orders/{id}/courier", h.authn.RequireFunc(h.updateCourier))
	mux.Handle("GET /api/orders/seller/stats", h.authn.RequireFunc(h.stats))
}

// createOrder replays the stored response when the Idempotency-Key was seen before.
// Without the header every request creates a new order.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idemKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))

	if idemKey != "" {
		stored, err := h.service.GetIdempotentResponse(ctx, idemKey)
		if err != nil {
			h.responder.Error(w, r, fmt.Errorf("load idempotent response: %w", err))
			return
		}
		if stored != nil {
			w.Header().Set(replayedHeader, "true")
			httpx.WriteBody(w, stored.StatusCode, stored.Body)
			return
		}
	}

	var cmd commands.CreateOrderCommand
	if err := httpx.DecodeJSON(r, &cmd); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	order, err := h.service.CreateOrder(ctx, cmd)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	body, err := httpx.MarshalData(order)
	if err != nil {
		h.responder.Error(w, r, fmt.Errorf("encode order: %w", err))
		return
	}

	if idemKey != "" {
		stored := ports.StoredResponse{
			StatusCode: http.StatusCreated,
			Body:       body,
			OrderID:    order.ID,
		}
		if err := h.service.SaveIdempotentResponse(ctx, idemKey, stored); err != nil {
			h.responder.Error(w, r, fmt.Errorf("save idempotent response: %w", err))
			return
		}
	}

	httpx.WriteBody(w, http.StatusCreated, body)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	h.responder.Data(w, http.StatusOK, order)
}

type orderList struct {
	Orders []domain.Order `json:"orders"`
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	page, limit := httpx.PageParams(r)
	query := r.URL.Query()

	result, err := h.service.ListOrders(r.Context(), queries.ListOrdersQuery{
		Status: query.Get("status"),
		Search: query.Get("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	h.responder.Page(w, orderList{Orders: result.Orders}, httpx.Pagination{
		Page:  result.Page,
		Limit: result.Limit,
		Total: result.Total,
	})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var body statusRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), r.PathValue("id"), body.Status)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	h.responder.Data(w, http.StatusOK, order)
}

func (h *Handler) updateCourier(w http.ResponseWriter, r *http.Request) {
	var cmd commands.UpdateCourierCommand
	if err := httpx.DecodeJSON(r, &cmd); err != nil {
		h.responder.Error(w, r, err)
		return
	}
	cmd.OrderID = r.PathValue("id")

	order, err := h.service.UpdateCourier(r.Context(), cmd)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	h.responder.Data(w, http.StatusOK, order)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	h.responder.Data(w, http.StatusOK, stats)
}
