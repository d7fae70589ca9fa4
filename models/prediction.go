package models

import (
	"encoding/json"
	"fmt"
	"time"

	"go-cropadvisor/ml"
)

// EnvelopeSchemaVersion 当前结果结构版本
const EnvelopeSchemaVersion = 2

// FeatureVector 七项必填的土壤和气象输入
type FeatureVector struct {
	Nitrogen    float64 `json:"nitrogen" db:"nitrogen"`
	Phosphorus  float64 `json:"phosphorus" db:"phosphorus"`
	Potassium   float64 `json:"potassium" db:"potassium"`
	Temperature float64 `json:"temperature" db:"temperature"`
	Humidity    float64 `json:"humidity" db:"humidity"`
	Rainfall    float64 `json:"rainfall" db:"rainfall"`
	Ph          float64 `json:"ph" db:"ph"`
}

// ModelInput 转换为分类器使用的内部特征代码
func (f FeatureVector) ModelInput() map[string]float64 {
	return map[string]float64{
		"N":           f.Nitrogen,
		"P":           f.Phosphorus,
		"K":           f.Potassium,
		"temperature": f.Temperature,
		"humidity":    f.Humidity,
		"ph":          f.Ph,
		"rainfall":    f.Rainfall,
	}
}

// FeatureImportanceChart 特征重要性，labels 与 values 一一对应
type FeatureImportanceChart struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Envelope 一次预测的完整结果
type Envelope struct {
	SchemaVersion       int                       `json:"schema_version"`
	Predictions         []ml.CropConfidence       `json:"predictions"`
	FeatureImportance   FeatureImportanceChart    `json:"feature_importance"`
	Explanation         string                    `json:"explanation"`
	SuitabilityAnalysis map[string]ml.Suitability `json:"suitability_analysis"`
}

// Top 排名第一的作物
func (e *Envelope) Top() (ml.CropConfidence, bool) {
	if e == nil || len(e.Predictions) == 0 {
		return ml.CropConfidence{}, false
	}
	return e.Predictions[0], true
}

// legacyEnvelope 早期版本存储的结果结构
type legacyEnvelope struct {
	SchemaVersion     int                       `json:"schema_version"`
	Top3Crops         []ml.CropConfidence       `json:"top_3_crops"`
	FeatureImportance json.RawMessage           `json:"feature_importance"`
	Explanation       string                    `json:"explanation"`
	Suitability       map[string]ml.Suitability `json:"suitability_analysis"`
}

// DecodeEnvelope 解析存储的结果，旧结构会被转换成当前结构
func DecodeEnvelope(raw []byte) (*Envelope, error) {
	var head legacyEnvelope
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	if head.SchemaVersion >= EnvelopeSchemaVersion {
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("decode envelope: %w", err)
		}
		return &env, nil
	}

	env := &Envelope{
		SchemaVersion:       EnvelopeSchemaVersion,
		Predictions:         head.Top3Crops,
		Explanation:         head.Explanation,
		SuitabilityAnalysis: head.Suitability,
	}

	var current struct {
		Predictions []ml.CropConfidence `json:"predictions"`
	}
	if err := json.Unmarshal(raw, &current); err == nil && len(current.Predictions) > 0 {
		env.Predictions = current.Predictions
	}

	if len(head.FeatureImportance) > 0 {
		var list []ml.FeatureImportance
		if err := json.Unmarshal(head.FeatureImportance, &list); err == nil {
			env.FeatureImportance = ImportanceChart(list)
		} else {
			var chart FeatureImportanceChart
			if err := json.Unmarshal(head.FeatureImportance, &chart); err == nil {
				env.FeatureImportance = chart
			}
		}
	}

	return env, nil
}

// ImportanceChart 把有序的特征重要性列表转换为图表结构
func ImportanceChart(list []ml.FeatureImportance) FeatureImportanceChart {
	chart := FeatureImportanceChart{
		Labels: make([]string, 0, len(list)),
		Values: make([]float64, 0, len(list)),
	}
	for _, fi := range list {
		chart.Labels = append(chart.Labels, fi.Feature)
		chart.Values = append(chart.Values, fi.Importance)
	}
	return chart
}

// Prediction 预测记录，创建后只允许删除
type Prediction struct {
	ID        int64         `json:"id"`
	UserID    int64         `json:"-"`
	Inputs    FeatureVector `json:"inputs"`
	Result    *Envelope     `json:"result"`
	CreatedAt time.Time     `json:"created_at"`
}
