package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/dejobratic/storefront/internal/apperror"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100

	maxJSONBody = 1 << 20
)

// DecodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func DecodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return apperror.Validation("Invalid JSON payload").Wrap(err)
}

// PageParams reads page and limit query parameters. Missing or invalid values fall back
// to the defaults and limit is capped at MaxLimit.
func PageParams(r *http.Request) (page, limit int) {
	query := r.URL.Query()

	page = DefaultPage
	if value, err := strconv.Atoi(query.Get("page")); err == nil && value >= 1 {
		page = value
	}

	limit = DefaultLimit
	if value, err := strconv.Atoi(query.Get("limit")); err == nil && value >= 1 {
		limit = min(value, MaxLimit)
	}

	return page, limit
}

// NotFound answers unmatched routes.
func (rs *Responder) NotFound(w http.ResponseWriter, r *http.Request) {
	rs.Error(w, r, apperror.NotFound("Route "+r.Method+" "+r.URL.Path))
}
