package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-screen/internal/client"
	"github.com/kjstillabower/weather-screen/internal/lifecycle"
	"github.com/kjstillabower/weather-screen/internal/models"
	"github.com/kjstillabower/weather-screen/internal/observability"
	"github.com/kjstillabower/weather-screen/internal/screen"
	"github.com/kjstillabower/weather-screen/internal/search"
)

// StateSource exposes the screen's current state.
type StateSource interface {
	State() models.AppState
}

// WeatherGetter runs a one-shot resolve+fetch.
type WeatherGetter interface {
	GetWeather(ctx context.Context, city string) (models.WeatherResult, error)
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	screen           StateSource
	events           chan<- search.SubmitEvent
	weather          WeatherGetter
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler. Search submissions are emitted on events,
// the same channel the terminal's search field feeds.
func NewHandler(screen StateSource, events chan<- search.SubmitEvent, weather WeatherGetter, logger *zap.Logger) *Handler {
	return &Handler{
		screen:  screen,
		events:  events,
		weather: weather,
		logger:  logger,
	}
}

// GetScreen handles GET /screen. Returns the rendered view of the current state.
func (h *Handler) GetScreen(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, screen.Render(h.screen.State(), ""))
}

// GetState handles GET /state.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.screen.State())
}

type searchRequest struct {
	City string `json:"city"`
}

// PostSearch handles POST /search. The city is typed into a fresh search field
// and submitted, so the screen sees it exactly like a terminal entry.
func (h *Handler) PostSearch(w http.ResponseWriter, r *http.Request) {
	if lifecycle.IsShuttingDown() {
		writeError(w, r, http.StatusServiceUnavailable, "SHUTTING_DOWN", "screen is shutting down")
		return
	}

	var body searchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "body must be JSON with a city field")
		return
	}
	if body.City == "" {
		writeError(w, r, http.StatusBadRequest, "INVALID_CITY", "city is required")
		return
	}

	input := search.NewInput(h.events, search.SourceHTTP)
	input.SetText(body.City)
	if _, err := input.Submit(r.Context()); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "SCREEN_BUSY", "search could not be delivered")
		if logger := observability.LoggerFromContext(r.Context()); logger != nil {
			logger.Warn("search submission dropped", zap.String("city", body.City), zap.Error(err))
		}
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"accepted": true,
		"city":     body.City,
	})
}

// GetWeather handles GET /weather/{city}. One-shot lookup; the screen is not touched.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(mux.Vars(r)["city"])
	if city == "" {
		writeError(w, r, http.StatusBadRequest, "INVALID_CITY", "city is required")
		return
	}

	result, err := h.weather.GetWeather(r.Context(), city)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	apiHealthy := weatherAPIHealthy(h.screen.State())
	result := computeHealthStatus(apiHealthy)

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := map[string]string{"weatherApi": "healthy"}
	if !apiHealthy {
		checks["weatherApi"] = "unhealthy"
	}

	writeJSON(w, result.statusCode, map[string]interface{}{
		"status":    result.status,
		"service":   "weather-screen",
		"version":   "dev",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// weatherAPIHealthy judges the provider by the last screen cycle. An unknown
// city still proves the provider answered, and a canceled cycle says nothing
// about it.
func weatherAPIHealthy(s models.AppState) bool {
	if !s.Error {
		return true
	}
	switch client.ErrorCategory(s.ErrorKind) {
	case client.ErrorCategoryLocationNotFound, client.ErrorCategoryCanceled:
		return true
	}
	return false
}

// computeHealthStatus evaluates, in order: shutting-down > starting > degraded > healthy.
// Degraded stays 200: the screen still serves its last result.
func computeHealthStatus(apiHealthy bool) healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if !lifecycle.IsMounted() {
		return healthResult{"starting", http.StatusServiceUnavailable, "not_mounted"}
	}
	if !apiHealthy {
		return healthResult{"degraded", http.StatusOK, "weather_api_failed"}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the standard error envelope with code, message and the
// request's correlation ID.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": observability.CorrelationIDFromContext(r.Context()),
		},
	})
}

// writeServiceError maps lookup failures: unknown city → 404, anything else → 503.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, client.ErrLocationNotFound) || errors.Is(err, client.ErrNoForecast) {
		writeError(w, r, http.StatusNotFound, "LOCATION_NOT_FOUND", "Location not found")
	} else {
		writeError(w, r, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "Unable to fetch weather data")
	}
	if logger := observability.LoggerFromContext(r.Context()); logger != nil {
		logger.Debug("upstream error", zap.String("category", string(client.CategorizeError(err))), zap.Error(err))
	}
}
