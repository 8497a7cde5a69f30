package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kjstillabower/weather-screen/internal/models"
	"github.com/kjstillabower/weather-screen/internal/observability"
)

// WeatherClient resolves cities to location IDs and location IDs to current conditions.
type WeatherClient interface {
	ResolveLocationID(ctx context.Context, city string) (models.LocationID, error)
	FetchWeather(ctx context.Context, id models.LocationID) (models.WeatherResult, error)
}

var (
	ErrLocationNotFound = errors.New("location not found")
	ErrNoForecast       = errors.New("no forecast available")
	ErrUpstreamFailure  = errors.New("upstream failure")
	ErrRateLimited      = errors.New("rate limited")
	ErrInvalidBaseURL   = errors.New("invalid base URL")
)

// Endpoint labels for metrics.
const (
	EndpointSearch   = "search"
	EndpointLocation = "location"
)

// DefaultBaseURL is the public MetaWeather API.
const DefaultBaseURL = "https://www.metaweather.com"

// MetaWeatherClient talks to a MetaWeather-compatible API. One GET per call, no retry.
type MetaWeatherClient struct {
	baseURL *url.URL
	client  *http.Client
}

// NewMetaWeatherClient returns a client for baseURL. timeout bounds each request; 0 disables it.
func NewMetaWeatherClient(baseURL string, timeout time.Duration) (*MetaWeatherClient, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q needs scheme and host", ErrInvalidBaseURL, baseURL)
	}

	return &MetaWeatherClient{
		baseURL: u,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type searchRecord struct {
	Title        string `json:"title"`
	LocationType string `json:"location_type"`
	WOEID        int64  `json:"woeid"`
	LattLong     string `json:"latt_long"`
}

type locationResponse struct {
	Title               string `json:"title"`
	WOEID               int64  `json:"woeid"`
	ConsolidatedWeather []struct {
		WeatherStateName string  `json:"weather_state_name"`
		WeatherStateAbbr string  `json:"weather_state_abbr"`
		TheTemp          float64 `json:"the_temp"`
	} `json:"consolidated_weather"`
}

// ResolveLocationID searches for city and returns the first match's WOEID.
// An empty result set yields ErrLocationNotFound.
func (c *MetaWeatherClient) ResolveLocationID(ctx context.Context, city string) (models.LocationID, error) {
	params := url.Values{}
	params.Set("query", city)

	var records []searchRecord
	if err := c.getJSON(ctx, EndpointSearch, c.endpointURL("api/location/search/", params), &records); err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("%w: no match for %q", ErrLocationNotFound, city)
	}
	return models.LocationID(records[0].WOEID), nil
}

// FetchWeather returns the title and the first consolidated forecast entry for id.
// An empty forecast collection yields ErrNoForecast.
func (c *MetaWeatherClient) FetchWeather(ctx context.Context, id models.LocationID) (models.WeatherResult, error) {
	path := "api/location/" + strconv.FormatInt(int64(id), 10) + "/"

	var resp locationResponse
	if err := c.getJSON(ctx, EndpointLocation, c.endpointURL(path, nil), &resp); err != nil {
		return models.WeatherResult{}, err
	}
	if len(resp.ConsolidatedWeather) == 0 {
		return models.WeatherResult{}, fmt.Errorf("%w: location %d", ErrNoForecast, id)
	}

	current := resp.ConsolidatedWeather[0]
	return models.WeatherResult{
		LocationID:   id,
		Location:     resp.Title,
		Weather:      current.WeatherStateName,
		Abbreviation: current.WeatherStateAbbr,
		Temperature:  current.TheTemp,
	}, nil
}

// endpointURL joins path onto the base URL, keeping the provider's trailing slash.
func (c *MetaWeatherClient) endpointURL(path string, params url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + path
	u.RawQuery = ""
	if params != nil {
		u.RawQuery = params.Encode()
	}
	return u.String()
}

func (c *MetaWeatherClient) getJSON(ctx context.Context, endpoint, rawURL string, out interface{}) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if corrID := observability.CorrelationIDFromContext(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues(endpoint, "error").Inc()
		observability.WeatherAPIDuration.WithLabelValues(endpoint, "error").Observe(time.Since(start).Seconds())
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("%s request canceled: %w", endpoint, err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%s request timeout: %w", endpoint, err)
		}
		return fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	status := statusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(endpoint, status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(endpoint, status).Observe(time.Since(start).Seconds())

	if err := handleErrorResponse(endpoint, resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response body: %w", endpoint, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse %s response: %w", endpoint, err)
	}
	return nil
}

func handleErrorResponse(endpoint string, resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusNotFound:
		if endpoint == EndpointLocation {
			return fmt.Errorf("%w: HTTP 404", ErrLocationNotFound)
		}
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w", ErrRateLimited)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s HTTP %d", ErrUpstreamFailure, endpoint, resp.StatusCode)
	}
	return nil
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
