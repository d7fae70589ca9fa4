// Package metrics 定义服务的 Prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 预测结果状态
const (
	StatusOK              = "ok"
	StatusInvalid         = "invalid"
	StatusStorageError    = "storage_error"
	StatusClassifierError = "classifier_error"
)

var (
	// PredictionsTotal 按结果状态统计的预测次数
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cropadvisor",
			Name:      "predictions_total",
			Help:      "Total number of prediction requests by status",
		},
		[]string{"status"},
	)

	// PredictionDuration 一次完整预测流程的耗时
	PredictionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "cropadvisor",
			Name:      "prediction_duration_seconds",
			Help:      "Duration of the prediction pipeline in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	// HTTPRequestsTotal 入站HTTP请求
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cropadvisor",
			Name:      "http_requests_total",
			Help:      "Total number of inbound HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// UpstreamRequestsTotal 天气、新闻和问答助手的出站请求
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cropadvisor",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total number of outbound requests to third-party providers",
		},
		[]string{"provider", "result"},
	)
)
