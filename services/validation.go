package services

import (
	"math"

	"github.com/tidwall/gjson"

	"go-cropadvisor/models"
)

// RequiredFields 必填字段，按此顺序校验
var RequiredFields = []string{
	"nitrogen",
	"phosphorus",
	"potassium",
	"temperature",
	"humidity",
	"rainfall",
	"ph",
}

// ParseFeatureVector 校验请求体并取出七项输入，遇到第一个错误即返回
func ParseFeatureVector(body []byte) (models.FeatureVector, error) {
	var fv models.FeatureVector

	if !gjson.ValidBytes(body) {
		return fv, ErrMalformedPayload
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return fv, ErrMalformedPayload
	}

	values := make(map[string]float64, len(RequiredFields))
	for _, field := range RequiredFields {
		v := doc.Get(field)
		if !v.Exists() {
			return fv, &FieldError{Field: field, Kind: FieldMissing}
		}
		if v.Type != gjson.Number {
			return fv, &FieldError{Field: field, Kind: FieldNotNumber}
		}
		f := v.Float()
		// 超出 float64 范围的字面量会被解析成 ±Inf
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return fv, &FieldError{Field: field, Kind: FieldNotNumber}
		}
		values[field] = f
	}

	fv = models.FeatureVector{
		Nitrogen:    values["nitrogen"],
		Phosphorus:  values["phosphorus"],
		Potassium:   values["potassium"],
		Temperature: values["temperature"],
		Humidity:    values["humidity"],
		Rainfall:    values["rainfall"],
		Ph:          values["ph"],
	}
	return fv, nil
}
