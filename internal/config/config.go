package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultCity is loaded when the screen first appears.
const DefaultCity = "San Francisco"

// Config holds application configuration loaded from YAML, .env and environment.
type Config struct {
	WeatherAPIURL     string
	WeatherAPITimeout time.Duration

	DefaultCity string

	ServerEnabled  bool
	ServerPort     string
	RequestTimeout time.Duration
	RateLimitRPS   int
	RateLimitBurst int

	ShutdownTimeout               time.Duration
	ShutdownInFlightTimeout       time.Duration
	ShutdownInFlightCheckInterval time.Duration
}

type fileConfig struct {
	WeatherAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"weather_api"`

	Screen struct {
		DefaultCity string `yaml:"default_city"`
	} `yaml:"screen"`

	Server struct {
		Enabled bool   `yaml:"enabled"`
		Port    string `yaml:"port"`
	} `yaml:"server"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Reliability struct {
		RateLimitRPS   int `yaml:"rate_limit_rps"`
		RateLimitBurst int `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout               string `yaml:"timeout"`
		InFlightTimeout       string `yaml:"in_flight_timeout"`
		InFlightCheckInterval string `yaml:"in_flight_check_interval"`
	} `yaml:"shutdown"`
}

// Load reads configuration. When path is empty it looks for config/{ENV_NAME}.yaml
// (default dev) under the working directory and falls back to defaults if that file
// is absent; an explicit path must exist. A .env file in the working directory is
// loaded first without overriding variables already set.
// Env overrides: WEATHER_API_URL, DEFAULT_CITY, SERVER_PORT.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	fc, err := readFileConfig(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}

	cfg.WeatherAPIURL = strings.TrimSpace(os.Getenv("WEATHER_API_URL"))
	if cfg.WeatherAPIURL == "" {
		cfg.WeatherAPIURL = strings.TrimSpace(fc.WeatherAPI.URL)
	}
	if cfg.WeatherAPIURL == "" {
		cfg.WeatherAPIURL = "https://www.metaweather.com"
	}
	cfg.WeatherAPITimeout = parseDurationOrZero(fc.WeatherAPI.Timeout, 10*time.Second)

	cfg.DefaultCity = strings.TrimSpace(os.Getenv("DEFAULT_CITY"))
	if cfg.DefaultCity == "" {
		cfg.DefaultCity = strings.TrimSpace(fc.Screen.DefaultCity)
	}
	if cfg.DefaultCity == "" {
		cfg.DefaultCity = DefaultCity
	}

	cfg.ServerEnabled = fc.Server.Enabled
	cfg.ServerPort = strings.TrimSpace(os.Getenv("SERVER_PORT"))
	if cfg.ServerPort == "" {
		cfg.ServerPort = fc.Server.Port
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 25*time.Second)

	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 5
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 10
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 10*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 5*time.Second)
	cfg.ShutdownInFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFileConfig(path string) (fileConfig, error) {
	var fc fileConfig

	explicit := path != ""
	if !explicit {
		env := os.Getenv("ENV_NAME")
		if env == "" {
			env = "dev"
		}
		cwd, err := os.Getwd()
		if err != nil {
			return fc, fmt.Errorf("config: get working directory: %w", err)
		}
		path = filepath.Join(cwd, "config", env+".yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if explicit {
				return fc, fmt.Errorf("config file not found: %s", path)
			}
			return fc, nil
		}
		return fc, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config file: %w", err)
	}
	return fc, nil
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Zero or negative durations are returned as-is for validate to reject.
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate rejects a non-positive weather API timeout and raises RequestTimeout
// so a request can cover both sequential provider calls.
func validate(cfg *Config) error {
	if cfg.WeatherAPITimeout <= 0 {
		return fmt.Errorf("weather_api.timeout must be positive")
	}
	if min := 2 * cfg.WeatherAPITimeout; cfg.RequestTimeout <= min {
		cfg.RequestTimeout = min + time.Second
	}
	if cfg.ServerPort == "" {
		return fmt.Errorf("server.port must not be empty")
	}
	return nil
}
