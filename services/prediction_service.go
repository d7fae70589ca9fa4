package services

import (
	"context"
	"fmt"
	"time"

	"go-cropadvisor/logger"
	"go-cropadvisor/metrics"
	"go-cropadvisor/ml"
	"go-cropadvisor/models"
	"go-cropadvisor/repository"
)

// PredictionService 预测流程：校验、打分、生成解释和适宜性分析、保存
type PredictionService struct {
	classifier ml.Classifier
	repo       repository.PredictionRepository
	log        *logger.Logger
}

// NewPredictionService 创建预测服务
func NewPredictionService(classifier ml.Classifier, repo repository.PredictionRepository, log *logger.Logger) *PredictionService {
	return &PredictionService{
		classifier: classifier,
		repo:       repo,
		log:        log.With("service", "PredictionService"),
	}
}

// Predict 对请求体执行一次完整预测，保存成功后才返回结果
func (s *PredictionService) Predict(ctx context.Context, userID int64, body []byte) (*models.Envelope, error) {
	start := time.Now()
	defer func() {
		metrics.PredictionDuration.Observe(time.Since(start).Seconds())
	}()

	inputs, err := ParseFeatureVector(body)
	if err != nil {
		metrics.PredictionsTotal.WithLabelValues(metrics.StatusInvalid).Inc()
		return nil, err
	}

	env, err := s.Run(inputs)
	if err != nil {
		metrics.PredictionsTotal.WithLabelValues(metrics.StatusClassifierError).Inc()
		return nil, err
	}

	id, err := s.repo.Create(ctx, userID, inputs, env)
	if err != nil {
		metrics.PredictionsTotal.WithLabelValues(metrics.StatusStorageError).Inc()
		return nil, &StorageError{Op: "create prediction", Err: err}
	}

	top, _ := env.Top()
	s.log.Info("Prediction stored", "user_id", userID, "prediction_id", id, "crop", top.Crop, "confidence", top.Confidence)
	metrics.PredictionsTotal.WithLabelValues(metrics.StatusOK).Inc()
	return env, nil
}

// Run 对已校验的输入打分并组装结果，不做持久化
func (s *PredictionService) Run(inputs models.FeatureVector) (*models.Envelope, error) {
	score, err := s.classifier.Score(inputs.ModelInput())
	if err != nil {
		return nil, fmt.Errorf("score features: %w", err)
	}
	if len(score.Top) == 0 {
		return nil, fmt.Errorf("score features: %w: classifier returned no classes", ml.ErrInvalidFeatureVector)
	}

	explanation := ml.GenerateExplanation(inputs.Rainfall, inputs.Temperature, inputs.Ph, score.Top[0].Crop, score.Importance)
	suitability := ml.AnalyzeSuitability(inputs.Rainfall, inputs.Temperature, inputs.Ph, inputs.Nitrogen)

	return &models.Envelope{
		SchemaVersion:       models.EnvelopeSchemaVersion,
		Predictions:         score.Top,
		FeatureImportance:   models.ImportanceChart(score.Importance),
		Explanation:         explanation,
		SuitabilityAnalysis: suitability,
	}, nil
}

// History 当前用户的预测历史，最新的在前
func (s *PredictionService) History(ctx context.Context, userID int64) ([]models.Prediction, error) {
	return s.repo.ListByOwner(ctx, userID)
}

// Delete 删除当前用户的一条记录
func (s *PredictionService) Delete(ctx context.Context, userID, id int64) error {
	return s.repo.DeleteOne(ctx, userID, id)
}

// Reset 删除当前用户的全部记录
func (s *PredictionService) Reset(ctx context.Context, userID int64) (int64, error) {
	n, err := s.repo.DeleteAll(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.log.Info("Prediction history reset", "user_id", userID, "deleted", n)
	return n, nil
}
