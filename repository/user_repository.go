package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"go-cropadvisor/models"
)

// UserRepository 用户账号的持久化
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Count(ctx context.Context) (int, error)
	Activate(ctx context.Context, token string) (*models.User, error)
	SetVerificationToken(ctx context.Context, id int64, token string) error
}

type sqlUserRepository struct {
	db *sqlx.DB
}

// NewUserRepository 创建基于SQL的用户仓库
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &sqlUserRepository{db: db}
}

const userColumns = "id, username, email, password, is_active, verification_token, created_at"

func (r *sqlUserRepository) Create(ctx context.Context, user *models.User) (int64, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (username, email, password, is_active, verification_token, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		user.Username, user.Email, user.Password, user.IsActive, user.VerificationToken, user.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	user.ID = id
	return id, nil
}

func (r *sqlUserRepository) get(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, "SELECT "+userColumns+" FROM users WHERE "+where, arg)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

func (r *sqlUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.get(ctx, "id = ?", id)
}

func (r *sqlUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.get(ctx, "email = ?", email)
}

func (r *sqlUserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM users WHERE username = ?", username); err != nil {
		return false, fmt.Errorf("count username: %w", err)
	}
	return count > 0, nil
}

func (r *sqlUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM users"); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// Activate 通过验证令牌激活账号，令牌使用后清空
func (r *sqlUserRepository) Activate(ctx context.Context, token string) (*models.User, error) {
	user, err := r.get(ctx, "verification_token = ?", token)
	if err != nil {
		return nil, err
	}
	_, err = r.db.ExecContext(ctx, "UPDATE users SET is_active = ?, verification_token = NULL WHERE id = ?", true, user.ID)
	if err != nil {
		return nil, fmt.Errorf("activate user: %w", err)
	}
	user.IsActive = true
	user.VerificationToken = sql.NullString{}
	return user, nil
}

func (r *sqlUserRepository) SetVerificationToken(ctx context.Context, id int64, token string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET verification_token = ? WHERE id = ?", token, id)
	if err != nil {
		return fmt.Errorf("set verification token: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
