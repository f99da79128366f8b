// Package rest assembles the HTTP API: routes, middleware and CORS.
package rest

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/kevin07696/recurringhub/internal/handlers/analytics"
	"github.com/kevin07696/recurringhub/internal/handlers/bulk"
	"github.com/kevin07696/recurringhub/internal/handlers/cron"
	"github.com/kevin07696/recurringhub/internal/handlers/customer"
	"github.com/kevin07696/recurringhub/internal/handlers/payment"
	"github.com/kevin07696/recurringhub/internal/handlers/reminder"
	"github.com/kevin07696/recurringhub/pkg/middleware"
	"github.com/kevin07696/recurringhub/pkg/observability"
	"github.com/kevin07696/recurringhub/pkg/resilience"
)

// APIPrefix is the versioned root of the operator API
const APIPrefix = "/api/v1"

// Handlers are the route groups served by the API
type Handlers struct {
	Customers *customer.Handler
	Payments  *payment.Handler
	Reminders *reminder.Handler
	Analytics *analytics.Handler
	Bulk      *bulk.Handler
	Cron      *cron.ReminderHandler
}

// Config configures the router's middleware
type Config struct {
	// RateLimiter is optional; nil disables per-client limiting
	RateLimiter    *middleware.RateLimiter
	Timeouts       *resilience.TimeoutConfig
	APIKey         string
	AllowedOrigins []string
}

// NewRouter builds the HTTP handler. The operator API lives under /api/v1
// behind the API key; cron endpoints authenticate with the cron secret.
func NewRouter(h Handlers, cfg Config, logger *zap.Logger) http.Handler {
	if cfg.Timeouts == nil {
		cfg.Timeouts = resilience.DefaultTimeoutConfig()
	}

	r := mux.NewRouter()
	r.Use(observability.HTTPMiddleware)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Middleware)
	}

	api := r.PathPrefix(APIPrefix).Subrouter()
	api.Use(middleware.APIKey(cfg.APIKey, logger), middleware.Timeout(cfg.Timeouts))

	h.Customers.RegisterRoutes(api)
	h.Payments.RegisterRoutes(api)
	h.Reminders.RegisterRoutes(api)
	h.Analytics.RegisterRoutes(api)
	h.Bulk.RegisterRoutes(api)

	reports := api.PathPrefix("/reports").Subrouter()
	reports.Use(middleware.Gzip(logger))
	h.Analytics.RegisterReportRoutes(reports)

	h.Cron.RegisterRoutes(r)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Origin", "Content-Type", "Authorization", middleware.APIKeyHeader},
		ExposedHeaders: []string{"Content-Length", "Content-Disposition", "Retry-After"},
		MaxAge:         int((12 * time.Hour).Seconds()),
	})

	var handler http.Handler = c.Handler(r)
	handler = middleware.SecurityHeaders(handler)
	handler = middleware.RequestLogger(logger)(handler)
	handler = middleware.Recovery(logger)(handler)
	return handler
}

// NewServer wraps handler in an http.Server with the configured timeouts
func NewServer(port string, handler http.Handler, timeouts *resilience.TimeoutConfig) *http.Server {
	if timeouts == nil {
		timeouts = resilience.DefaultTimeoutConfig()
	}
	return &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      timeouts.HTTPHandler + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
