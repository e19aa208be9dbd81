package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dejobratic/storefront/internal/database"
	"github.com/dejobratic/storefront/internal/httpx"
)

// Registrar is implemented by every context's HTTP handler.
type Registrar interface {
	Register(mux *http.ServeMux)
}

type Options struct {
	Logger    *slog.Logger
	Responder *httpx.Responder
	Metrics   *httpx.Metrics
	// Readiness is pinged by /readyz. Nil reports ready.
	Readiness   database.Pinger
	FrontendURL string
	Handlers    []Registrar
	Now         func() time.Time
}

// NewHandler builds the API router behind CORS, tracing, request logging, panic recovery
// and route metrics.
func NewHandler(opts Options) http.Handler {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health(opts.Now))
	mux.HandleFunc("GET /readyz", readiness(opts.Readiness))
	for _, h := range opts.Handlers {
		h.Register(mux)
	}
	mux.HandleFunc("/", opts.Responder.NotFound)

	var handler http.Handler = mux
	if opts.Metrics != nil {
		handler = httpx.WithMetrics(handler, opts.Metrics)
	}
	handler = httpx.WithRecovery(handler, opts.Responder)
	handler = httpx.WithLogging(handler, opts.Logger)
	handler = otelhttp.NewHandler(handler, "http.server",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return "HTTP " + r.Method
		}),
	)

	return corsPolicy(opts.FrontendURL).Handler(handler)
}

func corsPolicy(frontendURL string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:   []string{frontendURL},
		AllowCredentials: true,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders: []string{"Idempotent-Replayed"},
	})
}

func health(now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{
			"status":    "ok",
			"timestamp": now().UTC().Format(time.RFC3339),
		})
	}
}

func readiness(db database.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := database.CheckHealth(r.Context(), db); err != nil {
				httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
