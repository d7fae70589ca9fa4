package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-cropadvisor/logger"
	"go-cropadvisor/middleware"
	"go-cropadvisor/models"
	"go-cropadvisor/repository"
	"go-cropadvisor/services"
	"go-cropadvisor/utils"
)

// AuthController 处理用户认证相关的请求
type AuthController struct {
	accounts *services.AccountService
	log      *logger.Logger
}

// NewAuthController 创建一个新的AuthController实例
func NewAuthController(accounts *services.AccountService, log *logger.Logger) *AuthController {
	return &AuthController{accounts: accounts, log: log.With("controller", "AuthController")}
}

// Register 用户注册
func (c *AuthController) Register(ctx *gin.Context) {
	var req models.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.accounts.Register(ctx.Request.Context(), req)
	switch {
	case errors.Is(err, services.ErrPasswordMismatch), errors.Is(err, services.ErrEmailTaken):
		utils.BadRequest(ctx, err.Error())
		return
	case err != nil:
		c.log.Error("Registration failed", "error", err)
		utils.InternalServerError(ctx, "Registration failed")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful. Please check your email to verify your account.",
		"user":    user,
	})
}

// VerifyEmail 邮箱验证
func (c *AuthController) VerifyEmail(ctx *gin.Context) {
	_, err := c.accounts.Verify(ctx.Request.Context(), ctx.Param("token"))
	if errors.Is(err, services.ErrInvalidVerifyToken) {
		utils.BadRequest(ctx, err.Error())
		return
	}
	if err != nil {
		c.log.Error("Email verification failed", "error", err)
		utils.InternalServerError(ctx, "Email verification failed")
		return
	}
	utils.Message(ctx, http.StatusOK, "Email verified successfully. You can now log in.")
}

// ResendVerification 重新发送验证邮件，不暴露账号是否存在
func (c *AuthController) ResendVerification(ctx *gin.Context) {
	var req models.ResendVerificationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(ctx, err.Error())
		return
	}

	if err := c.accounts.ResendVerification(ctx.Request.Context(), req.Email); err != nil {
		c.log.Error("Resend verification failed", "error", err)
		utils.InternalServerError(ctx, "Failed to resend verification email")
		return
	}
	utils.Message(ctx, http.StatusOK, "If an unverified account exists for this email, a new verification link has been sent.")
}

// Login 用户登录
func (c *AuthController) Login(ctx *gin.Context) {
	var req models.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(ctx, err.Error())
		return
	}

	token, user, err := c.accounts.Login(ctx.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.BadRequest(ctx, err.Error())
		return
	case errors.Is(err, services.ErrAccountInactive):
		utils.Forbidden(ctx, err.Error())
		return
	case err != nil:
		c.log.Error("Login failed", "error", err)
		utils.InternalServerError(ctx, "Login failed")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// Me 当前登录用户
func (c *AuthController) Me(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		utils.Unauthorized(ctx, "Authentication required")
		return
	}

	user, err := c.accounts.Profile(ctx.Request.Context(), userID)
	if errors.Is(err, repository.ErrNotFound) {
		utils.Unauthorized(ctx, "Authentication required")
		return
	}
	if err != nil {
		c.log.Error("Failed to load profile", "user_id", userID, "error", err)
		utils.InternalServerError(ctx, "Failed to load profile")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
}
