package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/weather-screen/internal/client"
	"github.com/kjstillabower/weather-screen/internal/config"
	httphandler "github.com/kjstillabower/weather-screen/internal/http"
	"github.com/kjstillabower/weather-screen/internal/lifecycle"
	"github.com/kjstillabower/weather-screen/internal/observability"
	"github.com/kjstillabower/weather-screen/internal/screen"
	"github.com/kjstillabower/weather-screen/internal/search"
	"github.com/kjstillabower/weather-screen/internal/service"
)

const quitCommand = ":q"

var exampleUsage = strings.TrimSpace(`
  weatherscreen
  weatherscreen --city Tokyo
  weatherscreen --config config/prod.yaml --serve --port 8080
`)

type options struct {
	configPath string
	city       string
	serve      bool
	port       string
}

func main() {
	var opts options

	root := &cobra.Command{
		Use:     "weatherscreen",
		Short:   "Show current weather for a city, type another city to switch",
		Example: exampleUsage,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			// Flags win over file and env.
			if cmd.Flags().Changed("city") {
				cfg.DefaultCity = opts.city
			}
			if cmd.Flags().Changed("serve") {
				cfg.ServerEnabled = opts.serve
			}
			if cmd.Flags().Changed("port") {
				cfg.ServerPort = opts.port
			}
			return run(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}
	root.Flags().StringVar(&opts.configPath, "config", "", "path to YAML config (default config/$ENV_NAME.yaml)")
	root.Flags().StringVar(&opts.city, "city", config.DefaultCity, "city shown at start")
	root.Flags().BoolVar(&opts.serve, "serve", false, "also expose the screen over HTTP")
	root.Flags().StringVar(&opts.port, "port", "8080", "HTTP port when serving")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	logger, err := observability.NewLogger()
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	weatherClient, err := client.NewMetaWeatherClient(cfg.WeatherAPIURL, cfg.WeatherAPITimeout)
	if err != nil {
		return fmt.Errorf("weather client: %w", err)
	}
	weatherService := service.NewWeatherService(weatherClient)
	controller := screen.NewController(weatherService, cfg.DefaultCity, logger)

	// ctx ends only on a signal or after the screen drained; fetches run under it,
	// so ending the input does not abort them.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan search.SubmitEvent, 8)
	input := search.NewInput(events, search.SourceTerminal)

	// Draws until unsubscribed. The channel keeps the latest state buffered,
	// so the final state is drawn before the loop sees the close.
	states, unsubscribe := controller.Subscribe()
	terminal := screen.NewTerminal(out)
	drawn := make(chan struct{})
	go func() {
		defer close(drawn)
		for s := range states {
			if err := terminal.Draw(screen.Render(s, input.Text())); err != nil {
				logger.Warn("draw failed", zap.Error(err))
			}
		}
	}()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := controller.Run(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("screen loop stopped", zap.Error(err))
		}
	}()

	var srv *http.Server
	if cfg.ServerEnabled {
		srv = startServer(cfg, controller, events, weatherService, logger)
	}

	// Typed searches queue behind the default city, so the last line read wins.
	if err := controller.Mount(ctx); err != nil {
		logger.Debug("mount cycle failed", zap.Error(err))
	}
	lifecycle.SetMounted(true)

	inputDone := make(chan struct{})
	// The reader is not joined: a blocked stdin read cannot be interrupted.
	go readSearches(ctx, in, input, logger, func() { close(inputDone) })

	inputEnded := false
	select {
	case <-ctx.Done():
	case <-inputDone:
		inputEnded = true
	}
	logger.Info("graceful shutdown triggered", zap.Bool("input_ended", inputEnded))
	lifecycle.SetShuttingDown(true)

	sendersStopped := inputEnded
	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", zap.Error(err))
		}

		logger.Info("waiting for in-flight requests", zap.Int64("count", httphandler.InFlightCount()))
		waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
		defer waitCancel()
		if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
			logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
			sendersStopped = false
		}
	}

	if sendersStopped {
		// Run returns once the cycles it started have finished.
		close(events)
	} else {
		cancel()
	}
	<-loopDone
	unsubscribe()
	<-drawn

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
	logger.Info("shutdown complete")
	return nil
}

// readSearches turns stdin lines into submissions and calls done on EOF or ":q".
func readSearches(ctx context.Context, in io.Reader, input *search.Input, logger *zap.Logger, done func()) {
	defer done()
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == quitCommand {
			return
		}
		input.SetText(line)
		if _, err := input.Submit(ctx); err != nil {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("stdin read failed", zap.Error(err))
	}
}

func startServer(cfg *config.Config, controller *screen.Controller, events chan<- search.SubmitEvent, weather httphandler.WeatherGetter, logger *zap.Logger) *http.Server {
	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	handler := httphandler.NewHandler(controller, events, weather, logger)
	router := httphandler.NewRouter(handler, logger, httphandler.RouterConfig{
		RequestTimeout: cfg.RequestTimeout,
		Limiter:        limiter,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()
	return srv
}
