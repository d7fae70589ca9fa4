package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
)

var (
	// ErrModelUnavailable 模型文件缺失或损坏，进程不能对外提供预测
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrInvalidFeatureVector 打分时缺少必需特征
	ErrInvalidFeatureVector = errors.New("invalid feature vector")
)

// FeatureNameMap 模型内部特征代码到展示名称的映射
var FeatureNameMap = map[string]string{
	"N":           "Nitrogen",
	"P":           "Phosphorus",
	"K":           "Potassium",
	"temperature": "Temperature",
	"humidity":    "Humidity",
	"ph":          "Soil pH",
	"rainfall":    "Rainfall",
}

// CropConfidence 单个作物及其置信度
type CropConfidence struct {
	Crop       string  `json:"crop"`
	Confidence float64 `json:"confidence"`
}

// FeatureImportance 单个特征的全局重要性
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Score 一次打分的结果
type Score struct {
	Top        []CropConfidence
	Importance []FeatureImportance
}

// Classifier 预训练分类器的打分接口
type Classifier interface {
	Score(features map[string]float64) (*Score, error)
}

// node 决策树节点，Feature < 0 表示叶子
type node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value"`
}

type tree struct {
	Nodes []node `json:"nodes"`
}

// ForestModel 从JSON导出文件加载的随机森林，加载后只读
type ForestModel struct {
	Version            string    `json:"version"`
	Features           []string  `json:"features"`
	Classes            []string  `json:"classes"`
	FeatureImportances []float64 `json:"feature_importances"`
	Trees              []tree    `json:"trees"`

	importance []FeatureImportance
}

// LoadForest 读取并校验模型文件
func LoadForest(path string) (*ForestModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrModelUnavailable, path, err)
	}

	var m ForestModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrModelUnavailable, path, err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	m.importance = m.rankImportance()
	return &m, nil
}

func (m *ForestModel) validate() error {
	if len(m.Features) == 0 {
		return errors.New("model has no features")
	}
	if len(m.Classes) < 3 {
		return fmt.Errorf("model needs at least 3 classes, got %d", len(m.Classes))
	}
	if len(m.FeatureImportances) != len(m.Features) {
		return fmt.Errorf("feature_importances has %d entries for %d features", len(m.FeatureImportances), len(m.Features))
	}
	if len(m.Trees) == 0 {
		return errors.New("model has no trees")
	}
	for ti, t := range m.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.Feature < 0 {
				if len(n.Value) != len(m.Classes) {
					return fmt.Errorf("tree %d node %d: leaf has %d values for %d classes", ti, ni, len(n.Value), len(m.Classes))
				}
				continue
			}
			if n.Feature >= len(m.Features) {
				return fmt.Errorf("tree %d node %d: feature index %d out of range", ti, ni, n.Feature)
			}
			if n.Left <= ni || n.Left >= len(t.Nodes) || n.Right <= ni || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d: child index out of range", ti, ni)
			}
		}
	}
	return nil
}

// rankImportance 全局特征重要性，与输入无关，只需计算一次
func (m *ForestModel) rankImportance() []FeatureImportance {
	out := make([]FeatureImportance, len(m.Features))
	for i, code := range m.Features {
		name, ok := FeatureNameMap[code]
		if !ok {
			name = code
		}
		out[i] = FeatureImportance{Feature: name, Importance: round3(m.FeatureImportances[i])}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Importance > out[j].Importance
	})
	return out
}

// Importance 按重要性降序排列的全局特征重要性
func (m *ForestModel) Importance() []FeatureImportance {
	out := make([]FeatureImportance, len(m.importance))
	copy(out, m.importance)
	return out
}

// Score 按模型要求的特征顺序构造输入，返回前3名作物和特征重要性
func (m *ForestModel) Score(features map[string]float64) (*Score, error) {
	x := make([]float64, len(m.Features))
	for i, code := range m.Features {
		v, ok := features[code]
		if !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrInvalidFeatureVector, code)
		}
		x[i] = v
	}

	proba := m.PredictProba(x)

	idx := make([]int, len(proba))
	for i := range idx {
		idx[i] = i
	}
	// 概率相同时保持类别原始顺序
	sort.SliceStable(idx, func(a, b int) bool {
		return proba[idx[a]] > proba[idx[b]]
	})

	top := make([]CropConfidence, 0, 3)
	for _, i := range idx[:3] {
		top = append(top, CropConfidence{Crop: m.Classes[i], Confidence: round3(proba[i])})
	}

	return &Score{Top: top, Importance: m.Importance()}, nil
}

// PredictProba 各棵树叶子节点归一化类别分布的平均值
func (m *ForestModel) PredictProba(x []float64) []float64 {
	proba := make([]float64, len(m.Classes))
	for _, t := range m.Trees {
		leaf := t.leaf(x)
		var total float64
		for _, v := range leaf.Value {
			total += v
		}
		if total == 0 {
			continue
		}
		for i, v := range leaf.Value {
			proba[i] += v / total
		}
	}
	n := float64(len(m.Trees))
	for i := range proba {
		proba[i] /= n
	}
	return proba
}

func (t tree) leaf(x []float64) node {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
