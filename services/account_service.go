package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"go-cropadvisor/logger"
	"go-cropadvisor/middleware"
	"go-cropadvisor/models"
	"go-cropadvisor/repository"
	"go-cropadvisor/utils"
)

var (
	ErrPasswordMismatch   = errors.New("Passwords do not match.")
	ErrEmailTaken         = errors.New("An account with this email already exists.")
	ErrInvalidCredentials = errors.New("Invalid email or password.")
	ErrAccountInactive    = errors.New("Please verify your email before logging in.")
	ErrInvalidVerifyToken = errors.New("Invalid or expired verification link.")
)

const verificationEmailSubject = "Verify your CropAdvisor account"

// AccountService 注册、邮箱验证和登录
type AccountService struct {
	users         repository.UserRepository
	mailer        Mailer
	jwtSecret     string
	tokenTTL      time.Duration
	verifyBaseURL string
	log           *logger.Logger
}

// AccountOptions 账号服务参数
type AccountOptions struct {
	JWTSecret     string
	TokenTTL      time.Duration
	VerifyBaseURL string
}

func NewAccountService(users repository.UserRepository, mailer Mailer, opts AccountOptions, log *logger.Logger) *AccountService {
	return &AccountService{
		users:         users,
		mailer:        mailer,
		jwtSecret:     opts.JWTSecret,
		tokenTTL:      opts.TokenTTL,
		verifyBaseURL: strings.TrimRight(opts.VerifyBaseURL, "/"),
		log:           log.With("service", "AccountService"),
	}
}

// Register 创建未激活账号并发送验证邮件
func (s *AccountService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if req.Password != req.PasswordConfirm {
		return nil, ErrPasswordMismatch
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	username, err := s.uniqueUsername(ctx, email)
	if err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	token, err := utils.GenerateVerificationToken()
	if err != nil {
		return nil, fmt.Errorf("generate verification token: %w", err)
	}

	user := &models.User{
		Username:          username,
		Email:             email,
		Password:          string(hashed),
		IsActive:          false,
		VerificationToken: sql.NullString{String: token, Valid: true},
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("User registered", "user_id", user.ID, "username", user.Username)
	s.sendVerification(ctx, user.Email, token)
	return user, nil
}

func (s *AccountService) uniqueUsername(ctx context.Context, email string) (string, error) {
	username := utils.UsernameFromEmail(email)
	exists, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return "", err
	}
	if !exists {
		return username, nil
	}
	count, err := s.users.Count(ctx)
	if err != nil {
		return "", err
	}
	return utils.UsernameWithSuffix(username, count), nil
}

// sendVerification 邮件发送失败只记录日志，可通过重新发送接口补发
func (s *AccountService) sendVerification(ctx context.Context, email, token string) {
	link := s.VerificationLink(token)
	body := fmt.Sprintf("Click the link below to verify your account:\n\n%s", link)
	if err := s.mailer.Send(ctx, email, verificationEmailSubject, body); err != nil {
		s.log.Error("Failed to send verification email", "email", email, "error", err)
	}
}

// VerificationLink 邮件中的验证链接
func (s *AccountService) VerificationLink(token string) string {
	return s.verifyBaseURL + "/verify-email/" + token
}

// Verify 使用令牌激活账号
func (s *AccountService) Verify(ctx context.Context, token string) (*models.User, error) {
	if !utils.ValidateVerificationToken(token) {
		return nil, ErrInvalidVerifyToken
	}
	user, err := s.users.Activate(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidVerifyToken
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("User verified", "user_id", user.ID)
	return user, nil
}

// ResendVerification 账号不存在或已激活时静默返回
func (s *AccountService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if user.IsActive {
		return nil
	}

	token, err := utils.GenerateVerificationToken()
	if err != nil {
		return fmt.Errorf("generate verification token: %w", err)
	}
	if err := s.users.SetVerificationToken(ctx, user.ID, token); err != nil {
		return err
	}
	s.sendVerification(ctx, user.Email, token)
	return nil
}

// Login 校验密码并签发JWT
func (s *AccountService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", nil, ErrAccountInactive
	}

	token, err := middleware.GenerateToken(s.jwtSecret, user.ID, s.tokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}
	s.log.Info("User logged in", "user_id", user.ID)
	return token, user, nil
}

// Profile 当前用户信息
func (s *AccountService) Profile(ctx context.Context, userID int64) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}
