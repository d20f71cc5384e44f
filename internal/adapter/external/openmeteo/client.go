package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/farmassist-bd/farmassist/internal/domain"
	"github.com/farmassist-bd/farmassist/internal/observability/telemetry"
	"github.com/farmassist-bd/farmassist/internal/ports"
)

const defaultBaseURL = "https://api.open-meteo.com/v1"

// Forecasts barely move within the hour, and coordinates are rounded to two
// decimals (~1km) so nearby requests share a cache entry.
const cacheTTL = 15 * time.Minute

// Client fetches hourly forecasts from the open-meteo API. It implements
// ports.WeatherProvider with a circuit breaker around the upstream call and
// a cache in front of it.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      ports.Cache
	breaker    *gobreaker.CircuitBreaker
	log        *zap.Logger
}

// NewClient creates a new open-meteo client. cache may be nil.
func NewClient(cache ports.Cache, log *zap.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
		cache:      cache,
		breaker:    breaker,
		log:        log,
	}
}

func (c *Client) Forecast(ctx context.Context, lat, lon float64) (*domain.Forecast, error) {
	key := cacheKey(lat, lon)

	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, key); err == nil && cached != "" {
			var f domain.Forecast
			if json.Unmarshal([]byte(cached), &f) == nil {
				telemetry.WeatherLookupsTotal.WithLabelValues("cache_hit").Inc()
				return &f, nil
			}
		}
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, lat, lon)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			telemetry.WeatherLookupsTotal.WithLabelValues("breaker_open").Inc()
		} else {
			telemetry.WeatherLookupsTotal.WithLabelValues("failure").Inc()
		}
		return nil, err
	}

	f := result.(*domain.Forecast)
	telemetry.WeatherLookupsTotal.WithLabelValues("success").Inc()

	if c.cache != nil && !f.Empty() {
		if payload, err := json.Marshal(f); err == nil {
			if err := c.cache.Set(ctx, key, string(payload), cacheTTL); err != nil {
				c.log.Debug("forecast cache write failed", zap.Error(err))
			}
		}
	}
	return f, nil
}

func (c *Client) fetch(ctx context.Context, lat, lon float64) (*domain.Forecast, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("hourly", "temperature_2m,relativehumidity_2m,precipitation")
	q.Set("forecast_days", "1")
	q.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/forecast?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("openmeteo: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openmeteo: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("openmeteo: API error status %d", resp.StatusCode)
	}

	var f domain.Forecast
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		return nil, fmt.Errorf("openmeteo: decode response: %w", err)
	}
	return &f, nil
}

func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("weather:%.2f:%.2f", lat, lon)
}
