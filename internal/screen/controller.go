// Package screen owns the weather screen's state. The Controller reconciles
// fetch cycles into an AppState and Render turns a state into a View.
package screen

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-screen/internal/client"
	"github.com/kjstillabower/weather-screen/internal/models"
	"github.com/kjstillabower/weather-screen/internal/observability"
	"github.com/kjstillabower/weather-screen/internal/search"
)

// ErrSuperseded is returned by UpdateLocation when a newer search was issued
// before this one completed; its result was discarded.
var ErrSuperseded = errors.New("superseded by a newer search")

// WeatherFetcher runs the resolve+fetch sequence for a city.
type WeatherFetcher interface {
	GetWeather(ctx context.Context, city string) (models.WeatherResult, error)
}

// Controller is the only owner of screen state. Each UpdateLocation call takes
// a new sequence token; only the cycle holding the latest token may apply its
// result, so the last submitted search wins.
type Controller struct {
	weather     WeatherFetcher
	defaultCity string
	logger      *zap.Logger

	mu     sync.Mutex
	state  models.AppState
	latest uint64
	subs   []chan models.AppState

	inFlight sync.WaitGroup
}

// NewController returns a Controller in the initial state. defaultCity is loaded by Mount.
func NewController(weather WeatherFetcher, defaultCity string, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		weather:     weather,
		defaultCity: defaultCity,
		logger:      logger,
	}
}

// State returns a snapshot of the current state.
func (c *Controller) State() models.AppState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe returns a channel that always holds the most recently published
// state. A slow reader skips intermediate states. Call cancel to unsubscribe.
func (c *Controller) Subscribe() (<-chan models.AppState, func()) {
	ch := make(chan models.AppState, 1)

	c.mu.Lock()
	c.subs = append(c.subs, ch)
	ch <- c.state
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.subs {
			if s == ch {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

// Mount loads the default city, as the screen does when it first appears.
func (c *Controller) Mount(ctx context.Context) error {
	observability.SearchSubmissionsTotal.WithLabelValues(search.SourceMount).Inc()
	return c.UpdateLocation(ctx, c.defaultCity)
}

// UpdateLocation runs one fetch cycle for city. An empty city is a no-op.
// On failure the error flag is set and the previous data stays on screen;
// the fetch error is also returned.
func (c *Controller) UpdateLocation(ctx context.Context, city string) error {
	if city == "" {
		return nil
	}

	seq := c.begin()
	logger := observability.LoggerFromContext(ctx)
	if logger == nil {
		logger = c.logger
	}
	logger = logger.With(zap.Uint64("seq", seq), zap.String("city", city))
	logger.Debug("weather update started")

	result, err := c.weather.GetWeather(observability.ContextWithLogger(ctx, logger), city)
	return c.finish(logger, seq, result, err)
}

// Run consumes submit events until ctx is done or events is closed, starting
// one cycle per event without waiting for earlier cycles. It returns after
// all cycles it started have finished.
func (c *Controller) Run(ctx context.Context, events <-chan search.SubmitEvent) error {
	defer c.inFlight.Wait()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			observability.SearchSubmissionsTotal.WithLabelValues(ev.Source).Inc()
			c.inFlight.Add(1)
			go func(city string) {
				defer c.inFlight.Done()
				_ = c.UpdateLocation(ctx, city)
			}(ev.Text)
		}
	}
}

func (c *Controller) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest++
	c.state = c.state.SetLoading(c.latest)
	observability.SetScreenLoading(true)
	c.publishLocked()
	return c.latest
}

func (c *Controller) finish(logger *zap.Logger, seq uint64, result models.WeatherResult, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.latest {
		observability.RecordScreenCycle(observability.CycleSuperseded, c.state.Loading)
		logger.Debug("discarding superseded response", zap.Uint64("latest", c.latest), zap.Bool("failed", err != nil))
		return ErrSuperseded
	}

	if err != nil {
		kind := client.CategorizeError(err)
		c.state = c.state.SetError(string(kind))
		observability.RecordScreenCycle(observability.CycleError, false)
		logger.Info("weather update failed", zap.String("category", string(kind)), zap.Error(err))
		c.publishLocked()
		return err
	}

	c.state = c.state.SetResult(result)
	observability.RecordScreenCycle(observability.CycleSuccess, false)
	logger.Debug("weather updated",
		zap.String("location", result.Location),
		zap.String("weather", result.Weather),
		zap.Float64("temperature", result.Temperature))
	c.publishLocked()
	return nil
}

// publishLocked replaces any unread state in each subscriber's buffer.
// Only publishers send, and they hold c.mu, so the send cannot block.
func (c *Controller) publishLocked() {
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- c.state
	}
}
