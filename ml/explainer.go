package ml

import (
	"fmt"
	"strings"
)

// GenerateExplanation 根据输入条件和首选作物生成推荐理由
func GenerateExplanation(rainfall, temperature, ph float64, topCrop string, importance []FeatureImportance) string {
	var reasons []string

	// 降雨
	switch {
	case rainfall > 150:
		reasons = append(reasons, "high rainfall conditions")
	case rainfall < 60:
		reasons = append(reasons, "low rainfall conditions")
	default:
		reasons = append(reasons, "moderate rainfall levels")
	}

	// 温度
	switch {
	case temperature >= 20 && temperature <= 30:
		reasons = append(reasons, "optimal temperature range")
	case temperature > 35:
		reasons = append(reasons, "high temperature conditions")
	}

	// 土壤pH
	switch {
	case ph >= 6 && ph <= 7.5:
		reasons = append(reasons, "near-neutral soil pH ideal for nutrient absorption")
	case ph < 5.5:
		reasons = append(reasons, "acidic soil conditions")
	}

	if len(importance) > 0 {
		reasons = append(reasons, fmt.Sprintf("%s being a key influencing factor", importance[0].Feature))
	}

	return fmt.Sprintf("%s is recommended due to %s. These conditions align well with its growth requirements.",
		topCrop, strings.Join(reasons, ", "))
}
