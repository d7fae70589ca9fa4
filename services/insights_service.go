package services

import (
	"context"
	"math"

	"go-cropadvisor/models"
	"go-cropadvisor/repository"
)

// 置信度分档阈值
const (
	highConfidence   = 0.7
	mediumConfidence = 0.4
)

// InsightsService 汇总用户的历史预测
type InsightsService struct {
	repo repository.PredictionRepository
}

func NewInsightsService(repo repository.PredictionRepository) *InsightsService {
	return &InsightsService{repo: repo}
}

// Aggregate 读取用户全部记录并计算汇总，没有记录时返回零值汇总
func (s *InsightsService) Aggregate(ctx context.Context, userID int64) (*models.InsightsSummary, error) {
	records, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Summarize(records), nil
}

// Summarize records 为创建时间倒序，统计时按创建顺序遍历
func Summarize(records []models.Prediction) *models.InsightsSummary {
	summary := &models.InsightsSummary{
		TotalPredictions:  len(records),
		CropFrequency:     map[string]int{},
		AverageConditions: map[string]float64{},
	}
	if len(records) == 0 {
		return summary
	}

	var (
		seen                                []string
		rainfall, temperature, ph, humidity float64
	)

	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		rainfall += r.Inputs.Rainfall
		temperature += r.Inputs.Temperature
		ph += r.Inputs.Ph
		humidity += r.Inputs.Humidity

		top, ok := r.Result.Top()
		if !ok {
			summary.ConfidenceDistribution.Low++
			continue
		}

		if summary.CropFrequency[top.Crop] == 0 {
			seen = append(seen, top.Crop)
		}
		summary.CropFrequency[top.Crop]++

		switch {
		case top.Confidence >= highConfidence:
			summary.ConfidenceDistribution.High++
		case top.Confidence >= mediumConfidence:
			summary.ConfidenceDistribution.Medium++
		default:
			summary.ConfidenceDistribution.Low++
		}
	}

	// 频次相同时取最早出现的作物
	bestCount := 0
	for _, crop := range seen {
		if c := summary.CropFrequency[crop]; c > bestCount {
			crop := crop
			summary.MostRecommendedCrop = &crop
			bestCount = c
		}
	}

	n := float64(len(records))
	summary.AverageConditions["rainfall"] = round2(rainfall / n)
	summary.AverageConditions["temperature"] = round2(temperature / n)
	summary.AverageConditions["ph"] = round2(ph / n)
	summary.AverageConditions["humidity"] = round2(humidity / n)

	return summary
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
