package services

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-cropadvisor/config"
	"go-cropadvisor/logger"
	"go-cropadvisor/ml"
	"go-cropadvisor/models"
	"go-cropadvisor/repository"
)

const validBody = `{"nitrogen":90,"phosphorus":40,"potassium":40,"temperature":25,"humidity":80,"rainfall":120,"ph":6.5}`

type stubClassifier struct {
	score *ml.Score
	err   error
	calls int
}

func (s *stubClassifier) Score(features map[string]float64) (*ml.Score, error) {
	s.calls++
	return s.score, s.err
}

func defaultScore() *ml.Score {
	return &ml.Score{
		Top: []ml.CropConfidence{
			{Crop: "rice", Confidence: 0.82},
			{Crop: "jute", Confidence: 0.1},
			{Crop: "maize", Confidence: 0.05},
		},
		Importance: []ml.FeatureImportance{
			{Feature: "Rainfall", Importance: 0.4},
			{Feature: "Humidity", Importance: 0.35},
			{Feature: "Nitrogen", Importance: 0.25},
		},
	}
}

type failingRepo struct {
	repository.PredictionRepository
}

func (failingRepo) Create(context.Context, int64, models.FeatureVector, *models.Envelope) (int64, error) {
	return 0, errors.New("disk full")
}

func openDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := config.InitDB(config.DatabaseConfig{Driver: config.DriverSQLite, DSN: ":memory:"}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newUser(t *testing.T, db *sqlx.DB, email string) int64 {
	t.Helper()
	id, err := repository.NewUserRepository(db).Create(context.Background(), &models.User{Username: email, Email: email, Password: "x"})
	require.NoError(t, err)
	return id
}

func TestPredictionService_Predict(t *testing.T) {
	db := openDB(t)
	userID := newUser(t, db, "a@example.com")
	repo := repository.NewPredictionRepository(db, logger.Nop())
	svc := NewPredictionService(&stubClassifier{score: defaultScore()}, repo, logger.Nop())

	env, err := svc.Predict(context.Background(), userID, []byte(validBody))
	require.NoError(t, err)

	assert.Equal(t, models.EnvelopeSchemaVersion, env.SchemaVersion)
	assert.Equal(t, "rice", env.Predictions[0].Crop)
	assert.Equal(t, []string{"Rainfall", "Humidity", "Nitrogen"}, env.FeatureImportance.Labels)
	assert.Equal(t, []float64{0.4, 0.35, 0.25}, env.FeatureImportance.Values)
	assert.Equal(t, ml.GenerateExplanation(120, 25, 6.5, "rice", defaultScore().Importance), env.Explanation)
	assert.Len(t, env.SuitabilityAnalysis, 4)

	records, err := svc.History(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, env, records[0].Result)
}

func TestPredictionService_ValidationSkipsClassifier(t *testing.T) {
	db := openDB(t)
	userID := newUser(t, db, "a@example.com")
	classifier := &stubClassifier{score: defaultScore()}
	svc := NewPredictionService(classifier, repository.NewPredictionRepository(db, logger.Nop()), logger.Nop())

	_, err := svc.Predict(context.Background(), userID, []byte(`{"nitrogen":90}`))
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "phosphorus", fe.Field)
	assert.Equal(t, 0, classifier.calls)

	records, err := svc.History(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPredictionService_StorageFailureDiscardsResult(t *testing.T) {
	svc := NewPredictionService(&stubClassifier{score: defaultScore()}, failingRepo{}, logger.Nop())

	env, err := svc.Predict(context.Background(), 1, []byte(validBody))
	assert.Nil(t, env)

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.False(t, IsValidationError(err))
}

func TestPredictionService_ClassifierError(t *testing.T) {
	svc := NewPredictionService(&stubClassifier{err: ml.ErrInvalidFeatureVector}, failingRepo{}, logger.Nop())

	_, err := svc.Predict(context.Background(), 1, []byte(validBody))
	assert.ErrorIs(t, err, ml.ErrInvalidFeatureVector)
}

func TestPredictionService_DeleteAndReset(t *testing.T) {
	db := openDB(t)
	alice := newUser(t, db, "alice@example.com")
	bob := newUser(t, db, "bob@example.com")
	svc := NewPredictionService(&stubClassifier{score: defaultScore()}, repository.NewPredictionRepository(db, logger.Nop()), logger.Nop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.Predict(ctx, alice, []byte(validBody))
		require.NoError(t, err)
	}
	records, err := svc.History(ctx, alice)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.ErrorIs(t, svc.Delete(ctx, bob, records[0].ID), repository.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, alice, records[0].ID))

	n, err := svc.Reset(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = svc.Reset(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
