package ml

import "strconv"

// 适宜性等级
const (
	LevelGood     = "good"
	LevelModerate = "moderate"
	LevelPoor     = "poor"
)

// Suitability 单项指标的适宜性结论
type Suitability struct {
	Status string `json:"status"`
	Level  string `json:"level"`
	Value  any    `json:"value"`
}

// AnalyzeSuitability 按固定区间对降雨、温度、pH、氮四项逐一分级，互不影响
func AnalyzeSuitability(rainfall, temperature, ph, nitrogen float64) map[string]Suitability {
	analysis := make(map[string]Suitability, 4)

	var status, level string

	switch {
	case rainfall >= 100 && rainfall <= 200:
		status, level = "Ideal", LevelGood
	case (rainfall >= 60 && rainfall < 100) || (rainfall > 200 && rainfall <= 250):
		status, level = "Acceptable", LevelModerate
	default:
		status, level = "Low Suitability", LevelPoor
	}
	analysis["Rainfall"] = Suitability{Status: status, Level: level, Value: formatNumber(rainfall) + " mm"}

	switch {
	case temperature >= 20 && temperature <= 30:
		status, level = "Optimal", LevelGood
	case (temperature >= 15 && temperature < 20) || (temperature > 30 && temperature <= 35):
		status, level = "Moderate", LevelModerate
	default:
		status, level = "High Risk", LevelPoor
	}
	analysis["Temperature"] = Suitability{Status: status, Level: level, Value: formatNumber(temperature) + " °C"}

	switch {
	case ph >= 6 && ph <= 7.5:
		status, level = "Balanced", LevelGood
	case (ph >= 5.5 && ph < 6) || (ph > 7.5 && ph <= 8):
		status, level = "Slightly Off", LevelModerate
	default:
		status, level = "Unsuitable", LevelPoor
	}
	analysis["Soil pH"] = Suitability{Status: status, Level: level, Value: ph}

	switch {
	case nitrogen >= 80:
		status, level = "Sufficient", LevelGood
	case nitrogen >= 50 && nitrogen < 80:
		status, level = "Moderate", LevelModerate
	default:
		status, level = "Low", LevelPoor
	}
	analysis["Nitrogen"] = Suitability{Status: status, Level: level, Value: formatNumber(nitrogen) + " kg/ha"}

	return analysis
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
