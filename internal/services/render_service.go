package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/prudhvinik1/displayhub/internal/cache"
	"github.com/prudhvinik1/displayhub/internal/feeds"
	"github.com/prudhvinik1/displayhub/internal/metrics"
	"github.com/prudhvinik1/displayhub/internal/models"
	"github.com/prudhvinik1/displayhub/internal/repositories"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ErrUnsupportedModule = errors.New("unsupported module type")

const (
	defaultTextWidth   = 16
	maxTextLines       = 4
	defaultTextMessage = "Hello from ESP32!"
	defaultCity        = "Portland,US"

	textRenderTTL  = 60
	textNextPoll   = 15
	priceRenderTTL = 12
	priceNextPoll  = 10
	wxRenderTTL    = 300
	wxNextPoll     = 60

	unconfiguredTTL  = 15
	unconfiguredPoll = 10

	// Failure path: short ttl/poll so the device retries soon.
	degradedTTL  = 5
	degradedPoll = 5

	// Second error line is truncated to fit a small display.
	maxDiagnosticChars = 18

	priceCacheKey  = "btc_price"
	priceCacheTTL  = 12 * time.Second
	wxCachePrefix  = "wx_"
	wxCacheTTL     = 5 * time.Minute
)

// RenderService turns a stored module config into render-ready display
// lines. ResolveConfig cannot fail: every renderer error, upstream
// outage or panic is absorbed at the render boundary into a degraded
// render with a short retry TTL.
type RenderService struct {
	store   repositories.Store
	cache   cache.Store
	clock   cache.Clock
	price   feeds.PriceClient
	weather feeds.WeatherClient
	logger  *zap.Logger
	printer *message.Printer
}

func NewRenderService(
	store repositories.Store,
	cacheStore cache.Store,
	clock cache.Clock,
	price feeds.PriceClient,
	weather feeds.WeatherClient,
	logger *zap.Logger,
) *RenderService {
	if clock == nil {
		clock = cache.SystemClock
	}
	return &RenderService{
		store:   store,
		cache:   cacheStore,
		clock:   clock,
		price:   price,
		weather: weather,
		logger:  logger,
		printer: message.NewPrinter(language.English),
	}
}

// SetModule replaces the device's active module config wholesale.
func (s *RenderService) SetModule(ctx context.Context, deviceID, moduleType string, params json.RawMessage) error {
	if !models.ValidModuleType(moduleType) {
		return ErrUnsupportedModule
	}
	if err := s.store.UpsertModuleConfig(ctx, deviceID, models.ModuleType(moduleType), params); err != nil {
		return fmt.Errorf("failed to store module config: %w", err)
	}
	s.logger.Info("module config updated",
		zap.String("device_id", deviceID),
		zap.String("type", moduleType),
	)
	return nil
}

// ResolveConfig resolves the device's current module into display
// lines. It has no failure variant; callers always get a pollable
// response.
func (s *RenderService) ResolveConfig(ctx context.Context, deviceID string) *models.ConfigResponse {
	config, err := s.store.FindModuleConfig(ctx, deviceID)
	if errors.Is(err, repositories.ErrNotFound) {
		metrics.Renders.WithLabelValues("unconfigured").Inc()
		return &models.ConfigResponse{
			Render: models.Render{
				Lines: []string{"Not configured", "Pick module in web UI"},
				TTL:   unconfiguredTTL,
			},
			NextPollSec: unconfiguredPoll,
		}
	}
	if err != nil {
		s.logger.Error("module config lookup failed", zap.String("device_id", deviceID), zap.Error(err))
		return s.degradedResponse(err)
	}

	metrics.Renders.WithLabelValues(string(config.Type)).Inc()
	return s.renderModule(ctx, config)
}

func (s *RenderService) renderModule(ctx context.Context, config *models.ModuleConfig) (resp *models.ConfigResponse) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("render panic",
				zap.String("device_id", config.DeviceID),
				zap.Any("panic", r),
			)
			resp = s.degradedResponse(fmt.Errorf("%v", r))
		}
	}()

	switch config.Type {
	case models.ModuleText:
		return s.renderText(config.Params)
	case models.ModuleBTCPrice:
		return s.renderPrice(ctx)
	case models.ModuleWeather:
		return s.renderWeather(ctx, config.Params)
	default:
		return s.degradedResponse(fmt.Errorf("%w: %s", ErrUnsupportedModule, config.Type))
	}
}

func (s *RenderService) renderText(params json.RawMessage) *models.ConfigResponse {
	var p struct {
		Message  string `json:"message"`
		MaxChars int    `json:"max_chars"`
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return s.degradedResponse(err)
		}
	}

	msg := strings.TrimSpace(p.Message)
	if msg == "" {
		msg = defaultTextMessage
	}
	width := p.MaxChars
	if width <= 0 {
		width = defaultTextWidth
	}

	return &models.ConfigResponse{
		Render: models.Render{
			Lines: wrapFixed(msg, width, maxTextLines),
			TTL:   textRenderTTL,
		},
		NextPollSec: textNextPoll,
	}
}

// wrapFixed slices msg into fixed-width chunks (not word-aware) and
// caps the line count.
func wrapFixed(msg string, width, maxLines int) []string {
	runes := []rune(msg)
	lines := make([]string, 0, maxLines)
	for start := 0; start < len(runes) && len(lines) < maxLines; start += width {
		end := start + width
		if end > len(runes) {
			end = len(runes)
		}
		lines = append(lines, string(runes[start:end]))
	}
	return lines
}

func (s *RenderService) renderPrice(ctx context.Context) *models.ConfigResponse {
	price, stale, err := s.fetchPrice(ctx)
	if err != nil {
		return s.degradedResponse(err)
	}

	lines := []string{
		s.printer.Sprintf("BTC $%d", int64(math.Round(price.USD))),
		fmt.Sprintf("24h %+.2f%%", price.Change24h),
	}
	ttl, poll := priceRenderTTL, priceNextPoll
	if stale {
		// Last-known value served during an outage; retry soon.
		ttl, poll = degradedTTL, degradedPoll
	}
	return &models.ConfigResponse{
		Render:      models.Render{Lines: lines, TTL: ttl},
		NextPollSec: poll,
	}
}

// fetchPrice serves the shared price cache, refreshing on miss. During
// an upstream failure the last cached value is returned with
// stale=true when one exists.
func (s *RenderService) fetchPrice(ctx context.Context) (*feeds.Price, bool, error) {
	if data, ok := s.cache.Get(ctx, priceCacheKey); ok {
		var price feeds.Price
		if err := json.Unmarshal(data, &price); err == nil {
			metrics.CacheHits.Inc()
			return &price, false, nil
		}
	}
	metrics.CacheMisses.Inc()

	price, err := s.price.CurrentPrice(ctx)
	if err != nil {
		metrics.UpstreamFailures.WithLabelValues("coingecko").Inc()
		s.logger.Warn("price fetch failed", zap.Error(err))
		if data, ok := s.cache.GetStale(ctx, priceCacheKey); ok {
			var last feeds.Price
			if jsonErr := json.Unmarshal(data, &last); jsonErr == nil {
				return &last, true, nil
			}
		}
		return nil, false, err
	}

	if data, err := json.Marshal(price); err == nil {
		s.cache.Set(ctx, priceCacheKey, data, priceCacheTTL)
	}
	return price, false, nil
}

func (s *RenderService) renderWeather(ctx context.Context, params json.RawMessage) *models.ConfigResponse {
	var p struct {
		City string `json:"city"`
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return s.degradedResponse(err)
		}
	}
	city := p.City
	if city == "" {
		city = defaultCity
	}

	weather, stale, err := s.fetchWeather(ctx, city)
	if err != nil {
		// Weather never errors outward: neutral defaults, short ttl.
		return &models.ConfigResponse{
			Render: models.Render{
				Lines: []string{city, "--°C  Wind --"},
				TTL:   degradedTTL,
			},
			NextPollSec: degradedPoll,
		}
	}

	label := weather.City
	if label == "" {
		label = city
	}
	lines := []string{
		label,
		fmt.Sprintf("%.1f°C  Wind %.1f", weather.TempC, weather.WindSpeedKPH),
	}
	ttl, poll := wxRenderTTL, wxNextPoll
	if stale {
		ttl, poll = degradedTTL, degradedPoll
	}
	return &models.ConfigResponse{
		Render:      models.Render{Lines: lines, TTL: ttl},
		NextPollSec: poll,
	}
}

func (s *RenderService) fetchWeather(ctx context.Context, city string) (*feeds.Weather, bool, error) {
	key := wxCachePrefix + city
	if data, ok := s.cache.Get(ctx, key); ok {
		var weather feeds.Weather
		if err := json.Unmarshal(data, &weather); err == nil {
			metrics.CacheHits.Inc()
			return &weather, false, nil
		}
	}
	metrics.CacheMisses.Inc()

	weather, err := s.weather.CurrentWeather(ctx, city)
	if err != nil {
		metrics.UpstreamFailures.WithLabelValues("openmeteo").Inc()
		s.logger.Warn("weather fetch failed", zap.String("city", city), zap.Error(err))
		if data, ok := s.cache.GetStale(ctx, key); ok {
			var last feeds.Weather
			if jsonErr := json.Unmarshal(data, &last); jsonErr == nil {
				return &last, true, nil
			}
		}
		return nil, false, err
	}

	if data, err := json.Marshal(weather); err == nil {
		s.cache.Set(ctx, key, data, wxCacheTTL)
	}
	return weather, false, nil
}

// degradedResponse is the generic 2-line error render: first line
// generic, second a truncated diagnostic small enough for the display.
func (s *RenderService) degradedResponse(err error) *models.ConfigResponse {
	diag := err.Error()
	if runes := []rune(diag); len(runes) > maxDiagnosticChars {
		diag = string(runes[:maxDiagnosticChars])
	}
	return &models.ConfigResponse{
		Render: models.Render{
			Lines: []string{"Err fetching data", diag},
			TTL:   degradedTTL,
		},
		NextPollSec: degradedPoll,
	}
}
