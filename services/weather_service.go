package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go-cropadvisor/logger"
	"go-cropadvisor/metrics"
	"go-cropadvisor/models"
)

// WeatherService 代理 OpenWeather 当前天气接口
type WeatherService struct {
	apiKey  string
	baseURL string
	ttl     time.Duration
	client  *http.Client
	cache   Cache
	log     *logger.Logger
}

// NewWeatherService 创建天气服务，cache 为 nil 时不缓存
func NewWeatherService(apiKey, baseURL string, ttl time.Duration, cache Cache, log *logger.Logger) *WeatherService {
	if cache == nil {
		cache = NoopCache{}
	}
	return &WeatherService{
		apiKey:  apiKey,
		baseURL: baseURL,
		ttl:     ttl,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   cache,
		log:     log.With("service", "WeatherService"),
	}
}

type openWeatherResponse struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Rain map[string]float64 `json:"rain"`
}

// ByCity 按城市名查询
func (s *WeatherService) ByCity(ctx context.Context, city string) (*models.Weather, error) {
	params := url.Values{"q": {city}}
	w, err := s.fetch(ctx, "city:"+strings.ToLower(city), params)
	if err != nil {
		return nil, err
	}
	w.City = city
	return w, nil
}

// ByCoordinates 按经纬度查询
func (s *WeatherService) ByCoordinates(ctx context.Context, lat, lon string) (*models.Weather, error) {
	params := url.Values{"lat": {lat}, "lon": {lon}}
	return s.fetch(ctx, "coord:"+lat+","+lon, params)
}

func (s *WeatherService) fetch(ctx context.Context, key string, params url.Values) (*models.Weather, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("weather API key: %w", ErrNotConfigured)
	}

	cacheKey := "weather:" + key
	var cached models.Weather
	if ok, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
		s.log.Warn("Weather cache read failed", "key", cacheKey, "error", err)
	} else if ok {
		return &cached, nil
	}

	params.Set("appid", s.apiKey)
	params.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build weather request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("openweather", "error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		metrics.UpstreamRequestsTotal.WithLabelValues("openweather", "error").Inc()
		return nil, fmt.Errorf("%w: OpenWeather error: %s", ErrUpstream, strings.TrimSpace(string(body)))
	}

	var data openWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("openweather", "error").Inc()
		return nil, fmt.Errorf("%w: decode weather: %v", ErrUpstream, err)
	}
	metrics.UpstreamRequestsTotal.WithLabelValues("openweather", "ok").Inc()

	w := &models.Weather{
		Temperature: data.Main.Temp,
		Humidity:    data.Main.Humidity,
		Rainfall:    data.Rain["1h"],
	}

	if err := s.cache.Set(ctx, cacheKey, w, s.ttl); err != nil {
		s.log.Warn("Weather cache write failed", "key", cacheKey, "error", err)
	}
	return w, nil
}
