package http

import (
	"net/http"

	"github.com/dejobratic/storefront/internal/auth"
	"github.com/dejobratic/storefront/internal/catalog/app"
	"github.com/dejobratic/storefront/internal/catalog/domain"
	"github.com/dejobratic/storefront/internal/catalog/ports"
	"github.com/dejobratic/storefront/internal/httpx"
)

// Handler exposes the product catalog over HTTP.
type Handler struct {
	service   *app.Service
	responder *httpx.Responder
	authn     *auth.Authenticator
}

func NewHandler(service *app.Service, responder *httpx.Responder, authn *auth.Authenticator) *Handler {
	return &Handler{service: service, responder: responder, authn: authn}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.list)
	mux.HandleFunc("GET /api/products/{id}", h.get)
	mux.HandleFunc("GET /api/products/seller/{sellerId}/products", h.listBySeller)
	mux.Handle("POST /api/products", h.authn.RequireFunc(h.create))
	mux.Handle("PUT /api/products/{id}", h.authn.RequireFunc(h.update))
	mux.Handle("DELETE /api/products/{id}", h.authn.RequireFunc(h.delete))
}

type productList struct {
	Products []domain.Product `json:"products"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, limit := httpx.PageParams(r)
	query := r.URL.Query()

	result, err := h.service.List(r.Context(), app.ListInput{
		Search:   query.Get("search"),
		Category: query.Get("category"),
		Page:     app.Page{Number: page, Size: limit},
	})
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	h.writePage(w, result, page, limit)
}

func (h *Handler) listBySeller(w http.ResponseWriter, r *http.Request) {
	page, limit := httpx.PageParams(r)

	result, err := h.service.ListBySeller(r.Context(), r.PathValue("sellerId"), app.Page{Number: page, Size: limit})
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	h.writePage(w, result, page, limit)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	h.responder.Data(w, http.StatusOK, product)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input app.CreateProductInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	seller, _ := auth.FromContext(r.Context())
	product, err := h.service.Create(r.Context(), seller.SellerID, input)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	h.responder.Data(w, http.StatusCreated, product)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var patch domain.ProductPatch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	seller, _ := auth.FromContext(r.Context())
	product, err := h.service.Update(r.Context(), r.PathValue("id"), seller.SellerID, patch)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	h.responder.Data(w, http.StatusOK, product)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	seller, _ := auth.FromContext(r.Context())
	if err := h.service.Delete(r.Context(), r.PathValue("id"), seller.SellerID); err != nil {
		h.responder.Error(w, r, err)
		return
	}
	h.responder.Success(w)
}

func (h *Handler) writePage(w http.ResponseWriter, result *ports.ListResult, page, limit int) {
	h.responder.Page(w, productList{Products: result.Products}, httpx.Pagination{
		Page:  page,
		Limit: limit,
		Total: result.Total,
	})
}
