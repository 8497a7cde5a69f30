package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-screen/internal/client"
	"github.com/kjstillabower/weather-screen/internal/models"
	"github.com/kjstillabower/weather-screen/internal/observability"
)

// WeatherService runs the two-step lookup: city → location ID → current conditions.
// The steps never overlap; the second needs the first's result.
type WeatherService struct {
	client client.WeatherClient
}

// NewWeatherService creates a WeatherService backed by the given client.
func NewWeatherService(client client.WeatherClient) *WeatherService {
	return &WeatherService{client: client}
}

// GetWeather resolves city and fetches its current conditions.
// Errors from either step are wrapped as "fetch weather for <city>: <cause>".
func (s *WeatherService) GetWeather(ctx context.Context, city string) (models.WeatherResult, error) {
	start := time.Now()
	logger := observability.LoggerFromContext(ctx)

	id, err := s.client.ResolveLocationID(ctx, city)
	if err != nil {
		return models.WeatherResult{}, s.fail(logger, city, "resolve", err)
	}
	if logger != nil {
		logger.Debug("location resolved", zap.String("city", city), zap.Int64("woeid", int64(id)))
	}

	result, err := s.client.FetchWeather(ctx, id)
	if err != nil {
		return models.WeatherResult{}, s.fail(logger, city, "fetch", err)
	}

	observability.WeatherLookupsTotal.WithLabelValues("success").Inc()
	if logger != nil {
		logger.Debug("weather served",
			zap.String("city", city),
			zap.String("location", result.Location),
			zap.String("weather", result.Weather),
			zap.Duration("duration", time.Since(start)))
	}
	return result, nil
}

func (s *WeatherService) fail(logger *zap.Logger, city, step string, err error) error {
	category := client.CategorizeError(err)
	observability.WeatherLookupsTotal.WithLabelValues(string(category)).Inc()
	if logger != nil {
		logger.Debug("weather lookup failed",
			zap.String("city", city),
			zap.String("step", step),
			zap.String("category", string(category)),
			zap.Error(err))
	}
	return fmt.Errorf("fetch weather for %s: %w", city, err)
}
