package models

import (
	"database/sql"
	"time"
)

type User struct {
	ID                int64          `db:"id" json:"id"`
	Username          string         `db:"username" json:"username"`
	Email             string         `db:"email" json:"email"`
	Password          string         `db:"password" json:"-"`
	IsActive          bool           `db:"is_active" json:"is_active"`
	VerificationToken sql.NullString `db:"verification_token" json:"-"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" binding:"required"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ResendVerificationRequest 重新发送验证邮件请求
type ResendVerificationRequest struct {
	Email string `json:"email" binding:"required,email"`
}
