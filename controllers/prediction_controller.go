package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"go-cropadvisor/logger"
	"go-cropadvisor/middleware"
	"go-cropadvisor/repository"
	"go-cropadvisor/services"
	"go-cropadvisor/utils"
)

// 请求体上限
const maxPredictBody = 1 << 20

// PredictionController 处理预测和历史记录相关的请求
type PredictionController struct {
	service *services.PredictionService
	log     *logger.Logger
}

// NewPredictionController 创建一个新的PredictionController实例
func NewPredictionController(service *services.PredictionService, log *logger.Logger) *PredictionController {
	return &PredictionController{service: service, log: log.With("controller", "PredictionController")}
}

// Predict 校验输入、打分并保存
func (c *PredictionController) Predict(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		utils.Unauthorized(ctx, "Authentication required")
		return
	}

	body, err := io.ReadAll(io.LimitReader(ctx.Request.Body, maxPredictBody))
	if err != nil {
		utils.BadRequest(ctx, services.ErrMalformedPayload.Error())
		return
	}

	env, err := c.service.Predict(ctx.Request.Context(), userID, body)
	if err != nil {
		var storageErr *services.StorageError
		switch {
		case services.IsValidationError(err):
			utils.BadRequest(ctx, err.Error())
		case errors.As(err, &storageErr):
			c.log.Error("Failed to save prediction", "user_id", userID, "error", err)
			utils.InternalServerError(ctx, "Failed to save prediction")
		default:
			c.log.Error("Prediction failed", "user_id", userID, "error", err)
			utils.InternalServerError(ctx, "Prediction failed")
		}
		return
	}

	ctx.JSON(http.StatusOK, env)
}

// History 获取当前用户的预测记录，最新的在前
func (c *PredictionController) History(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		utils.Unauthorized(ctx, "Authentication required")
		return
	}

	records, err := c.service.History(ctx.Request.Context(), userID)
	if err != nil {
		c.log.Error("Failed to load history", "user_id", userID, "error", err)
		utils.InternalServerError(ctx, "Failed to load history")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"history": records})
}

// Delete 删除一条记录，不存在和不属于当前用户都返回404
func (c *PredictionController) Delete(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		utils.Unauthorized(ctx, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		utils.NotFound(ctx, "Prediction not found")
		return
	}

	err = c.service.Delete(ctx.Request.Context(), userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		utils.NotFound(ctx, "Prediction not found")
		return
	}
	if err != nil {
		c.log.Error("Failed to delete prediction", "user_id", userID, "prediction_id", id, "error", err)
		utils.InternalServerError(ctx, "Failed to delete prediction")
		return
	}

	utils.Message(ctx, http.StatusOK, "Prediction deleted")
}

// Reset 清空当前用户的全部记录
func (c *PredictionController) Reset(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		utils.Unauthorized(ctx, "Authentication required")
		return
	}

	n, err := c.service.Reset(ctx.Request.Context(), userID)
	if err != nil {
		c.log.Error("Failed to reset history", "user_id", userID, "error", err)
		utils.InternalServerError(ctx, "Failed to reset history")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Deleted %d predictions", n),
		"deleted": n,
	})
}
