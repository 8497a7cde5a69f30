package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/weather-screen/internal/observability"
)

// RouterConfig carries the per-route limits.
type RouterConfig struct {
	RequestTimeout time.Duration
	Limiter        *rate.Limiter // nil disables rate limiting on POST /search
}

// NewRouter wires all routes and middleware.
func NewRouter(h *Handler, logger *zap.Logger, cfg RouterConfig) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)

	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler())
	router.HandleFunc("/screen", h.GetScreen).Methods(http.MethodGet)
	router.HandleFunc("/state", h.GetState).Methods(http.MethodGet)

	var postSearch http.Handler = http.HandlerFunc(h.PostSearch)
	postSearch = TimeoutMiddleware(cfg.RequestTimeout)(postSearch)
	postSearch = RateLimitMiddleware(cfg.Limiter)(postSearch)
	router.Handle("/search", postSearch).Methods(http.MethodPost)

	weatherRouter := router.PathPrefix("/weather").Subrouter()
	weatherRouter.Use(TimeoutMiddleware(cfg.RequestTimeout))
	weatherRouter.HandleFunc("/{city}", h.GetWeather).Methods(http.MethodGet)

	return router
}
