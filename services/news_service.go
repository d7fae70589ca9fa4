package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go-cropadvisor/logger"
	"go-cropadvisor/metrics"
	"go-cropadvisor/models"
)

const (
	newsCacheKey  = "news:agriculture"
	newsFetchSize = 40
	newsMaxItems  = 6
	newsQuery     = "(agriculture OR farming OR agronomy OR 'crop yield' OR livestock OR " +
		"horticulture OR 'agri-tech' OR 'sustainable farming' OR irrigation) " +
		"AND (farmer OR crops OR harvest OR soil OR agribusiness)"
)

// 标题或摘要至少包含其中一个关键词才保留
var sectorKeywords = []string{
	"farm", "crop", "soil", "livestock", "agriculture", "agri",
	"harvest", "irrigation", "yield", "cultivation", "cattle",
}

// NewsService 代理 NewsAPI 并过滤出农业相关新闻
type NewsService struct {
	apiKey  string
	baseURL string
	ttl     time.Duration
	client  *http.Client
	cache   Cache
	log     *logger.Logger
	now     func() time.Time
}

func NewNewsService(apiKey, baseURL string, ttl time.Duration, cache Cache, log *logger.Logger) *NewsService {
	if cache == nil {
		cache = NoopCache{}
	}
	return &NewsService{
		apiKey:  apiKey,
		baseURL: baseURL,
		ttl:     ttl,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   cache,
		log:     log.With("service", "NewsService"),
		now:     time.Now,
	}
}

// NewsAPIError NewsAPI 返回的业务错误
type NewsAPIError struct {
	Message string
}

func (e *NewsAPIError) Error() string {
	return e.Message
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// Latest 最近7天的农业新闻，最多6条
func (s *NewsService) Latest(ctx context.Context) ([]models.Article, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("news API key: %w", ErrNotConfigured)
	}

	var cached []models.Article
	if ok, err := s.cache.Get(ctx, newsCacheKey, &cached); err != nil {
		s.log.Warn("News cache read failed", "error", err)
	} else if ok {
		return cached, nil
	}

	params := url.Values{
		"q":        {newsQuery},
		"from":     {s.now().UTC().AddDate(0, 0, -7).Format("2006-01-02")},
		"sortBy":   {"relevance"},
		"language": {"en"},
		"pageSize": {strconv.Itoa(newsFetchSize)},
		"apiKey":   {s.apiKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build news request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("newsapi", "error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	var data newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("newsapi", "error").Inc()
		return nil, fmt.Errorf("%w: decode news: %v", ErrUpstream, err)
	}
	if data.Status != "ok" {
		metrics.UpstreamRequestsTotal.WithLabelValues("newsapi", "error").Inc()
		return nil, &NewsAPIError{Message: data.Message}
	}
	metrics.UpstreamRequestsTotal.WithLabelValues("newsapi", "ok").Inc()

	articles := make([]models.Article, 0, newsMaxItems)
	for _, a := range data.Articles {
		if !isAgricultural(a.Title + " " + a.Description) {
			continue
		}
		articles = append(articles, models.Article{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Image:       a.URLToImage,
			Source:      a.Source.Name,
			Published:   a.PublishedAt,
		})
		if len(articles) == newsMaxItems {
			break
		}
	}

	if err := s.cache.Set(ctx, newsCacheKey, articles, s.ttl); err != nil {
		s.log.Warn("News cache write failed", "error", err)
	}
	return articles, nil
}

// InvalidateCache 清除新闻缓存
func (s *NewsService) InvalidateCache(ctx context.Context) error {
	return s.cache.Invalidate(ctx, newsCacheKey)
}

func isAgricultural(text string) bool {
	text = strings.ToLower(text)
	for _, kw := range sectorKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
