// Package assistant 农业问答助手，通过大模型接口回答用户的种植问题
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-cropadvisor/config"
	"go-cropadvisor/logger"
	"go-cropadvisor/metrics"
)

const systemPrompt = "You are CropAdvisor's farming assistant. Answer questions about crops, soil nutrients " +
	"(nitrogen, phosphorus, potassium, pH), weather, irrigation and pest management. " +
	"Keep answers short, practical and suitable for smallholder farmers. " +
	"If a question is unrelated to agriculture, say that you can only help with farming topics."

// ErrNotConfigured 未配置大模型密钥
var ErrNotConfigured = errors.New("assistant not configured")

// RateLimitError 上游返回429
type RateLimitError struct {
	Err error
}

func (e *RateLimitError) Error() string { return fmt.Sprintf("assistant rate limited: %v", e.Err) }

func (e *RateLimitError) Unwrap() error { return e.Err }

// UnavailableError 上游不可用或返回内容为空
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("assistant unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Assistant 回答一个问题
type Assistant interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Disabled 未配置时使用，所有请求返回 ErrNotConfigured
type Disabled struct{}

func (Disabled) Ask(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}

// New 按配置创建助手，密钥为空时返回 Disabled
func New(cfg config.AssistantConfig, log *logger.Logger) (Assistant, error) {
	if cfg.APIKey == "" {
		return Disabled{}, nil
	}

	var (
		base Assistant
		err  error
	)
	switch cfg.Provider {
	case config.AssistantAnthropic:
		base, err = newAnthropicAssistant(cfg)
	case config.AssistantOpenAI:
		base, err = newOpenAIAssistant(cfg)
	default:
		return nil, fmt.Errorf("unknown assistant provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s assistant: %w", cfg.Provider, err)
	}
	return withInstrumentation(base, cfg.Provider, cfg.Timeout, log), nil
}

type instrumented struct {
	next     Assistant
	provider string
	timeout  time.Duration
	log      *logger.Logger
}

func withInstrumentation(next Assistant, provider string, timeout time.Duration, log *logger.Logger) Assistant {
	return &instrumented{
		next:     next,
		provider: provider,
		timeout:  timeout,
		log:      log.With("assistant", provider),
	}
}

func (a *instrumented) Ask(ctx context.Context, question string) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	answer, err := a.next.Ask(ctx, question)
	if err == nil && strings.TrimSpace(answer) == "" {
		err = &UnavailableError{Err: errors.New("empty answer")}
	}
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(a.provider, "error").Inc()
		a.log.Warn("Assistant request failed", "question_length", len(question), "duration", time.Since(start), "error", err)
		return "", err
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(a.provider, "ok").Inc()
	a.log.Debug("Assistant answered", "question_length", len(question), "duration", time.Since(start))
	return strings.TrimSpace(answer), nil
}

// resolveModel 将简称映射为完整模型ID，未知名称原样使用
func resolveModel(name, fallback string, models map[string]string) string {
	if name == "" {
		name = fallback
	}
	if id, ok := models[name]; ok {
		return id
	}
	return name
}
