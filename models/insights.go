package models

// ConfidenceDistribution 首选作物置信度分布
type ConfidenceDistribution struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// InsightsSummary 用户历史预测的汇总
type InsightsSummary struct {
	TotalPredictions       int                    `json:"total_predictions"`
	MostRecommendedCrop    *string                `json:"most_recommended_crop"`
	CropFrequency          map[string]int         `json:"crop_frequency"`
	ConfidenceDistribution ConfidenceDistribution `json:"confidence_distribution"`
	AverageConditions      map[string]float64     `json:"average_conditions"`
}
