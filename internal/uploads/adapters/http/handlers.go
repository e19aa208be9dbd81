package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/dejobratic/storefront/internal/apperror"
	"github.com/dejobratic/storefront/internal/httpx"
	"github.com/dejobratic/storefront/internal/uploads/app"
)

// formOverhead leaves room for the other form fields and multipart boundaries.
const formOverhead = 1 << 20

// sizeLimit is the largest file an endpoint accepts and the message for anything bigger.
type sizeLimit struct {
	bytes   int64
	message string
}

var (
	imageLimit        = sizeLimit{bytes: app.MaxImageSize, message: app.ImageTooLarge}
	paymentProofLimit = sizeLimit{bytes: app.MaxPaymentProofSize, message: app.PaymentProofTooLarge}
)

// Handler accepts multipart uploads with one "file" part.
type Handler struct {
	service   *app.Service
	responder *httpx.Responder
}

func NewHandler(service *app.Service, responder *httpx.Responder) *Handler {
	return &Handler{service: service, responder: responder}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/upload/image", h.uploadImage)
	mux.HandleFunc("POST /api/upload/payment-proof", h.uploadPaymentProof)
}

func (h *Handler) uploadImage(w http.ResponseWriter, r *http.Request) {
	file, err := readForm(w, r, imageLimit)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	result, err := h.service.UploadImage(r.Context(), r.FormValue("productId"), file)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	h.responder.Data(w, http.StatusOK, result)
}

func (h *Handler) uploadPaymentProof(w http.ResponseWriter, r *http.Request) {
	file, err := readForm(w, r, paymentProofLimit)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	result, err := h.service.UploadPaymentProof(r.Context(), r.FormValue("orderId"), file)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	h.responder.Data(w, http.StatusOK, result)
}

// readForm parses the multipart body. A missing file part yields a nil file so the use
// case can report it.
func readForm(w http.ResponseWriter, r *http.Request, limit sizeLimit) (*app.File, error) {
	maxRequest := limit.bytes + formOverhead
	r.Body = http.MaxBytesReader(w, r.Body, maxRequest)
	if err := r.ParseMultipartForm(maxRequest); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, apperror.Validation(limit.message).Wrap(err)
		}
		return nil, apperror.Validation("Invalid multipart form").Wrap(err)
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("open file part: %w", err)
	}
	defer part.Close()

	return readPart(part, header, limit)
}

func readPart(part multipart.File, header *multipart.FileHeader, limit sizeLimit) (*app.File, error) {
	if header.Size > limit.bytes {
		return nil, apperror.Validation(limit.message)
	}

	data, err := io.ReadAll(part)
	if err != nil {
		return nil, fmt.Errorf("read file part: %w", err)
	}

	return &app.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
