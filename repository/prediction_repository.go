package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"go-cropadvisor/logger"
	"go-cropadvisor/models"
)

// ErrNotFound 记录不存在或不属于当前用户
var ErrNotFound = errors.New("record not found")

// PredictionRepository 预测记录的持久化
type PredictionRepository interface {
	Create(ctx context.Context, userID int64, inputs models.FeatureVector, result *models.Envelope) (int64, error)
	ListByOwner(ctx context.Context, userID int64) ([]models.Prediction, error)
	DeleteOne(ctx context.Context, userID, id int64) error
	DeleteAll(ctx context.Context, userID int64) (int64, error)
}

type predictionRow struct {
	ID     int64 `db:"id"`
	UserID int64 `db:"user_id"`
	models.FeatureVector
	Result    []byte    `db:"result"`
	CreatedAt time.Time `db:"created_at"`
}

type sqlPredictionRepository struct {
	db  *sqlx.DB
	log *logger.Logger
	now func() time.Time
}

// NewPredictionRepository 创建基于SQL的预测记录仓库
func NewPredictionRepository(db *sqlx.DB, log *logger.Logger) PredictionRepository {
	return &sqlPredictionRepository{
		db:  db,
		log: log.With("repository", "predictions"),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Create 在一个事务中写入一条预测记录
func (r *sqlPredictionRepository) Create(ctx context.Context, userID int64, inputs models.FeatureVector, result *models.Envelope) (int64, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return 0, fmt.Errorf("marshal result: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO predictions (
			user_id, nitrogen, phosphorus, potassium,
			temperature, humidity, rainfall, ph, result, created_at
		) VALUES (?,?,?,?,?,?,?,?,?,?)
	`,
		userID, inputs.Nitrogen, inputs.Phosphorus, inputs.Potassium,
		inputs.Temperature, inputs.Humidity, inputs.Rainfall, inputs.Ph, string(payload), r.now(),
	)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("insert prediction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prediction: %w", err)
	}
	return id, nil
}

// ListByOwner 按创建时间倒序返回用户的全部预测，无法解码的记录跳过
func (r *sqlPredictionRepository) ListByOwner(ctx context.Context, userID int64) ([]models.Prediction, error) {
	var rows []predictionRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, nitrogen, phosphorus, potassium,
			temperature, humidity, rainfall, ph, result, created_at
		FROM predictions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}

	out := make([]models.Prediction, 0, len(rows))
	for _, row := range rows {
		env, err := models.DecodeEnvelope(row.Result)
		if err != nil {
			r.log.Warn("Skipping unreadable prediction", "prediction_id", row.ID, "user_id", row.UserID, "error", err)
			continue
		}
		out = append(out, models.Prediction{
			ID:        row.ID,
			UserID:    row.UserID,
			Inputs:    row.FeatureVector,
			Result:    env,
			CreatedAt: row.CreatedAt,
		})
	}
	return out, nil
}

// DeleteOne 删除单条记录，其他用户的记录按不存在处理
func (r *sqlPredictionRepository) DeleteOne(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM predictions WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete prediction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete prediction: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll 清空用户的全部记录，返回删除条数
func (r *sqlPredictionRepository) DeleteAll(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM predictions WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("reset predictions: %w", err)
	}
	return res.RowsAffected()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
