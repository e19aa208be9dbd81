// Package httpx holds the JSON envelope, the boundary error translator and the request
// middleware shared by every HTTP adapter.
package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dejobratic/storefront/internal/apperror"
)

const internalErrorMessage = "An unexpected error occurred"

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type Meta struct {
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// Responder writes envelopes. Internal error text is only exposed when exposeDetails is set.
type Responder struct {
	logger        *slog.Logger
	exposeDetails bool
}

func NewResponder(logger *slog.Logger, exposeDetails bool) *Responder {
	return &Responder{logger: logger, exposeDetails: exposeDetails}
}

// Data writes {"success":true,"data":data}.
func (rs *Responder) Data(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, envelope{Success: true, Data: data})
}

// Page writes a successful list response with pagination metadata.
func (rs *Responder) Page(w http.ResponseWriter, data any, page Pagination) {
	WriteJSON(w, http.StatusOK, envelope{Success: true, Data: data, Meta: &Meta{Pagination: &page}})
}

// Success writes {"success":true} with no data.
func (rs *Responder) Success(w http.ResponseWriter) {
	WriteJSON(w, http.StatusOK, envelope{Success: true})
}

// Error translates err into an error envelope. Unclassified errors become a 500.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	status, body := rs.translate(err)
	if status >= http.StatusInternalServerError {
		rs.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	WriteJSON(w, status, envelope{Success: false, Error: &body})
}

func (rs *Responder) translate(err error) (int, ErrorBody) {
	var appErr *apperror.Error
	if errors.As(err, &appErr) && appErr.Kind != apperror.KindInternal {
		return appErr.Kind.StatusCode(), ErrorBody{
			Code:    appErr.Kind.Code(),
			Message: appErr.Message,
			Details: appErr.Details,
		}
	}

	body := ErrorBody{Code: apperror.KindInternal.Code(), Message: internalErrorMessage}
	if rs.exposeDetails && err != nil {
		body.Details = err.Error()
	}
	return http.StatusInternalServerError, body
}

// WriteJSON encodes payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// MarshalData encodes the success envelope for data so it can be stored and replayed.
func MarshalData(data any) ([]byte, error) {
	body, err := json.Marshal(envelope{Success: true, Data: data})
	if err != nil {
		return nil, err
	}
	return append(body, '\n'), nil
}

// WriteBody writes an already encoded JSON body.
func WriteBody(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
