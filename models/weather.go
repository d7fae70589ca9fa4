package models

// Weather 当前天气，降雨为最近1小时雨量
type Weather struct {
	City        string  `json:"city,omitempty"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Rainfall    float64 `json:"rainfall"`
}
