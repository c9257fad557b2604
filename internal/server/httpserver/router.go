package httpserver

import (
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/yndnr/stm-go/internal/server/httpserver/handler"
)

// RouterConfig configures NewRouter.
type RouterConfig struct {
	Engine handler.Engine

	// Metrics serves GET /metrics. Nil leaves the route unregistered.
	Metrics http.Handler

	Logger *slog.Logger

	// RateLimit caps requests per second across all clients. Zero disables it.
	RateLimit rate.Limit
	Burst     int
}

// NewRouter returns the admin handler and the handler.Handler behind it.
func NewRouter(cfg *RouterConfig) (http.Handler, *handler.Handler) {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	h := handler.New(cfg.Engine, log)

	mux := http.NewServeMux()
	mux.Handle("GET /health", h)
	mux.Handle("GET /ready", h)
	mux.Handle("GET /v1/stats", h)
	mux.Handle("GET /v1/cells", h)
	mux.Handle("GET /v1/cells/{id}", h)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	middlewares := []Middleware{RequestID(), Recover(log), AccessLog(log)}
	if cfg.RateLimit > 0 {
		burst := max(cfg.Burst, 1)
		middlewares = append(middlewares, RateLimit(cfg.RateLimit, burst))
	}
	return Chain(mux, middlewares...), h
}
