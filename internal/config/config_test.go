package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalEnvYAML = `
weather_api:
  url: "https://api.example.com"
  timeout: "2s"
screen:
  default_city: "Paris"
server:
  enabled: true
  port: "9090"
request:
  timeout: "30s"
reliability:
  rate_limit_rps: 3
  rate_limit_burst: 6
shutdown:
  timeout: "15s"
  in_flight_timeout: "3s"
`

// clearEnv unsets every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"ENV_NAME", "WEATHER_API_URL", "DEFAULT_CITY", "SERVER_PORT"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

// chdir switches into dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(origWd) })
}

func writeEnvFile(t *testing.T, dir, name, content string) {
	t.Helper()
	configDir := filepath.Join(dir, "config")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("mkdir config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, name+".yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
}

func TestLoad_DefaultsWithoutConfigFile(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WeatherAPIURL != "https://www.metaweather.com" {
		t.Errorf("WeatherAPIURL = %q, want MetaWeather default", cfg.WeatherAPIURL)
	}
	if cfg.WeatherAPITimeout != 10*time.Second {
		t.Errorf("WeatherAPITimeout = %v, want 10s", cfg.WeatherAPITimeout)
	}
	if cfg.DefaultCity != DefaultCity {
		t.Errorf("DefaultCity = %q, want %q", cfg.DefaultCity, DefaultCity)
	}
	if cfg.ServerEnabled {
		t.Error("ServerEnabled = true, want false by default")
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.RateLimitRPS != 5 || cfg.RateLimitBurst != 10 {
		t.Errorf("rate limit = %d/%d, want 5/10", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.ShutdownInFlightCheckInterval != 100*time.Millisecond {
		t.Errorf("ShutdownInFlightCheckInterval = %v, want 100ms", cfg.ShutdownInFlightCheckInterval)
	}
}

func TestLoad_ReadsEnvNameFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, "dev", minimalEnvYAML)
	chdir(t, dir)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WeatherAPIURL != "https://api.example.com" {
		t.Errorf("WeatherAPIURL = %q", cfg.WeatherAPIURL)
	}
	if cfg.WeatherAPITimeout != 2*time.Second {
		t.Errorf("WeatherAPITimeout = %v, want 2s", cfg.WeatherAPITimeout)
	}
	if cfg.DefaultCity != "Paris" {
		t.Errorf("DefaultCity = %q, want Paris", cfg.DefaultCity)
	}
	if !cfg.ServerEnabled || cfg.ServerPort != "9090" {
		t.Errorf("server = %v/%q, want enabled on 9090", cfg.ServerEnabled, cfg.ServerPort)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", cfg.RequestTimeout)
	}
	if cfg.RateLimitRPS != 3 || cfg.RateLimitBurst != 6 {
		t.Errorf("rate limit = %d/%d, want 3/6", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.ShutdownTimeout != 15*time.Second || cfg.ShutdownInFlightTimeout != 3*time.Second {
		t.Errorf("shutdown = %v/%v, want 15s/3s", cfg.ShutdownTimeout, cfg.ShutdownInFlightTimeout)
	}
}

func TestLoad_EnvNameSelectsFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, "dev", minimalEnvYAML)
	writeEnvFile(t, dir, "prod", "screen:\n  default_city: \"Tokyo\"\n")
	chdir(t, dir)
	t.Setenv("ENV_NAME", "prod")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DefaultCity != "Tokyo" {
		t.Errorf("DefaultCity = %q, want Tokyo from prod.yaml", cfg.DefaultCity)
	}
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing explicit file, got nil")
	}
	if cfg != nil {
		t.Fatalf("Load() expected nil config on error, got %+v", cfg)
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("Load() error = %v, want message about config file not found", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	chdir(t, dir)

	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parse config file") {
		t.Errorf("Load() error = %v, want parse error", err)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, "dev", minimalEnvYAML)
	chdir(t, dir)
	t.Setenv("WEATHER_API_URL", "http://localhost:3000")
	t.Setenv("DEFAULT_CITY", "Berlin")
	t.Setenv("SERVER_PORT", "7070")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WeatherAPIURL != "http://localhost:3000" {
		t.Errorf("WeatherAPIURL = %q, want env override", cfg.WeatherAPIURL)
	}
	if cfg.DefaultCity != "Berlin" {
		t.Errorf("DefaultCity = %q, want env override", cfg.DefaultCity)
	}
	if cfg.ServerPort != "7070" {
		t.Errorf("ServerPort = %q, want env override", cfg.ServerPort)
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("DEFAULT_CITY=Lisbon\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	chdir(t, dir)
	t.Cleanup(func() { os.Unsetenv("DEFAULT_CITY") })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DefaultCity != "Lisbon" {
		t.Errorf("DefaultCity = %q, want Lisbon from .env", cfg.DefaultCity)
	}
}

func TestLoad_InvalidDurationFallsBackToDefault(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, "dev", "weather_api:\n  timeout: \"soon\"\nshutdown:\n  timeout: \"-5s\"\n")
	chdir(t, dir)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WeatherAPITimeout != 10*time.Second {
		t.Errorf("WeatherAPITimeout = %v, want default 10s", cfg.WeatherAPITimeout)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want default 10s", cfg.ShutdownTimeout)
	}
}

func TestLoad_ValidationFailsWhenWeatherAPITimeoutZero(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, "dev", "weather_api:\n  timeout: \"0s\"\n")
	chdir(t, dir)

	cfg, err := Load("")
	if err == nil {
		t.Fatal("Load() expected validation error, got nil")
	}
	if cfg != nil {
		t.Errorf("Load() expected nil config, got %+v", cfg)
	}
}

// TestLoad_RequestTimeoutCoversBothCalls verifies RequestTimeout is raised above two provider timeouts.
func TestLoad_RequestTimeoutCoversBothCalls(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, "dev", "weather_api:\n  timeout: \"5s\"\nrequest:\n  timeout: \"6s\"\n")
	chdir(t, dir)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RequestTimeout != 11*time.Second {
		t.Errorf("RequestTimeout = %v, want 11s", cfg.RequestTimeout)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		def  time.Duration
		want time.Duration
	}{
		{"", time.Second, time.Second},
		{"  3s ", time.Second, 3 * time.Second},
		{"bogus", time.Second, time.Second},
		{"0s", time.Second, time.Second},
		{"-1s", time.Second, time.Second},
	}
	for _, tt := range tests {
		if got := parseDuration(tt.in, tt.def); got != tt.want {
			t.Errorf("parseDuration(%q, %v) = %v, want %v", tt.in, tt.def, got, tt.want)
		}
	}
}
