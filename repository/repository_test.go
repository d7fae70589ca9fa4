package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-cropadvisor/config"
	"go-cropadvisor/logger"
	"go-cropadvisor/ml"
	"go-cropadvisor/models"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := config.InitDB(config.DatabaseConfig{Driver: config.DriverSQLite, DSN: ":memory:"}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, users UserRepository, email string) int64 {
	t.Helper()
	id, err := users.Create(context.Background(), &models.User{Username: email, Email: email, Password: "x"})
	require.NoError(t, err)
	return id
}

func envelope(crop string, confidence float64) *models.Envelope {
	return &models.Envelope{
		SchemaVersion: models.EnvelopeSchemaVersion,
		Predictions: []ml.CropConfidence{
			{Crop: crop, Confidence: confidence},
			{Crop: "maize", Confidence: 0.1},
			{Crop: "coffee", Confidence: 0.05},
		},
		FeatureImportance: models.FeatureImportanceChart{Labels: []string{"Rainfall"}, Values: []float64{1}},
		Explanation:       crop + " is recommended due to moderate rainfall levels.",
	}
}

var inputs = models.FeatureVector{Nitrogen: 90, Phosphorus: 40, Potassium: 40, Temperature: 25, Humidity: 80, Rainfall: 120, Ph: 6.5}

func TestPredictionRepository_CreateAndList(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	owner := createUser(t, users, "a@example.com")

	repo := NewPredictionRepository(db, logger.Nop()).(*sqlPredictionRepository)
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	firstID, err := repo.Create(ctx, owner, inputs, envelope("rice", 0.8))
	require.NoError(t, err)
	secondID, err := repo.Create(ctx, owner, inputs, envelope("maize", 0.3))
	require.NoError(t, err)

	list, err := repo.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, secondID, list[0].ID)
	assert.Equal(t, firstID, list[1].ID)
	assert.Equal(t, inputs, list[1].Inputs)
	assert.Equal(t, "rice", list[1].Result.Predictions[0].Crop)
	assert.True(t, list[0].CreatedAt.After(list[1].CreatedAt))
}

func TestPredictionRepository_Ownership(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	alice := createUser(t, users, "alice@example.com")
	bob := createUser(t, users, "bob@example.com")
	repo := NewPredictionRepository(db, logger.Nop())

	id, err := repo.Create(ctx, alice, inputs, envelope("rice", 0.8))
	require.NoError(t, err)

	list, err := repo.ListByOwner(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, repo.DeleteOne(ctx, bob, id), ErrNotFound)
	assert.ErrorIs(t, repo.DeleteOne(ctx, alice, id+100), ErrNotFound)

	require.NoError(t, repo.DeleteOne(ctx, alice, id))
	assert.ErrorIs(t, repo.DeleteOne(ctx, alice, id), ErrNotFound)
}

func TestPredictionRepository_DeleteAll(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	alice := createUser(t, users, "alice@example.com")
	bob := createUser(t, users, "bob@example.com")
	repo := NewPredictionRepository(db, logger.Nop())

	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, alice, inputs, envelope("rice", 0.8))
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, bob, inputs, envelope("maize", 0.5))
	require.NoError(t, err)

	n, err := repo.DeleteAll(ctx, alice)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	left, err := repo.ListByOwner(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestPredictionRepository_ReadsLegacyEnvelope(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	owner := createUser(t, NewUserRepository(db), "old@example.com")

	legacy := `{"top_3_crops":[{"crop":"jute","confidence":0.61},{"crop":"rice","confidence":0.2},{"crop":"maize","confidence":0.1}],` +
		`"feature_importance":[{"feature":"Rainfall","importance":0.3},{"feature":"Humidity","importance":0.2}]}`
	_, err := db.Exec(`INSERT INTO predictions (user_id, nitrogen, phosphorus, potassium, temperature, humidity, rainfall, ph, result, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`, owner, 1, 2, 3, 4, 5, 6, 7, legacy, time.Now().UTC())
	require.NoError(t, err)

	list, err := NewPredictionRepository(db, logger.Nop()).ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	env := list[0].Result
	assert.Equal(t, models.EnvelopeSchemaVersion, env.SchemaVersion)
	assert.Equal(t, "jute", env.Predictions[0].Crop)
	assert.Equal(t, []string{"Rainfall", "Humidity"}, env.FeatureImportance.Labels)
	assert.Equal(t, []float64{0.3, 0.2}, env.FeatureImportance.Values)
}

func TestPredictionRepository_SkipsUnreadableRows(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	owner := createUser(t, NewUserRepository(db), "mixed@example.com")
	repo := NewPredictionRepository(db, logger.Nop())

	goodID, err := repo.Create(ctx, owner, inputs, envelope("rice", 0.8))
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO predictions (user_id, nitrogen, phosphorus, potassium, temperature, humidity, rainfall, ph, result, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`, owner, 1, 2, 3, 4, 5, 6, 7, "not json", time.Now().UTC())
	require.NoError(t, err)

	list, err := repo.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, goodID, list[0].ID)
	assert.Equal(t, "rice", list[0].Result.Predictions[0].Crop)
}

func TestUserRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)

	u := &models.User{
		Username:          "farmer",
		Email:             "farmer@example.com",
		Password:          "hash",
		VerificationToken: sql.NullString{String: "tok123", Valid: true},
	}
	id, err := users.Create(ctx, u)
	require.NoError(t, err)

	got, err := users.GetByEmail(ctx, "farmer@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.False(t, got.IsActive)

	exists, err := users.UsernameExists(ctx, "farmer")
	require.NoError(t, err)
	assert.True(t, exists)

	count, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = users.Activate(ctx, "wrong")
	assert.ErrorIs(t, err, ErrNotFound)

	activated, err := users.Activate(ctx, "tok123")
	require.NoError(t, err)
	assert.True(t, activated.IsActive)

	again, err := users.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, again.IsActive)
	assert.False(t, again.VerificationToken.Valid)

	_, err = users.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
