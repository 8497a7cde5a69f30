//go:build integration
// +build integration

package testhelpers

import (
	"os"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/kjstillabower/weather-screen/internal/client"
	"github.com/kjstillabower/weather-screen/internal/screen"
	"github.com/kjstillabower/weather-screen/internal/service"
)

// IntegrationTestConfig holds configuration for tests against a live provider.
type IntegrationTestConfig struct {
	APIURL  string
	Timeout time.Duration
	City    string
}

// GetIntegrationConfig reads the provider location from the environment.
// Skips the test if WEATHER_API_URL is not set.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	t.Helper()
	apiURL := os.Getenv("WEATHER_API_URL")
	if apiURL == "" {
		t.Skip("WEATHER_API_URL not set, skipping integration test")
	}
	city := os.Getenv("INTEGRATION_CITY")
	if city == "" {
		city = "London"
	}
	return IntegrationTestConfig{APIURL: apiURL, Timeout: 10 * time.Second, City: city}
}

// SetupIntegrationService builds the two-step lookup over a live client.
func SetupIntegrationService(t *testing.T, cfg IntegrationTestConfig) *service.WeatherService {
	t.Helper()
	c, err := client.NewMetaWeatherClient(cfg.APIURL, cfg.Timeout)
	if err != nil {
		t.Fatalf("NewMetaWeatherClient() error = %v", err)
	}
	return service.NewWeatherService(c)
}

// SetupIntegrationController builds a screen whose default city is cfg.City.
func SetupIntegrationController(t *testing.T, cfg IntegrationTestConfig) *screen.Controller {
	t.Helper()
	return screen.NewController(SetupIntegrationService(t, cfg), cfg.City, zaptest.NewLogger(t))
}
