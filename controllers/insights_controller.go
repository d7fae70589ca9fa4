package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-cropadvisor/logger"
	"go-cropadvisor/middleware"
	"go-cropadvisor/services"
	"go-cropadvisor/utils"
)

// InsightsController 处理历史汇总请求
type InsightsController struct {
	service *services.InsightsService
	log     *logger.Logger
}

func NewInsightsController(service *services.InsightsService, log *logger.Logger) *InsightsController {
	return &InsightsController{service: service, log: log.With("controller", "InsightsController")}
}

// Summary 当前用户的预测汇总
func (c *InsightsController) Summary(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		utils.Unauthorized(ctx, "Authentication required")
		return
	}

	summary, err := c.service.Aggregate(ctx.Request.Context(), userID)
	if err != nil {
		c.log.Error("Failed to aggregate insights", "user_id", userID, "error", err)
		utils.InternalServerError(ctx, "Failed to load insights")
		return
	}

	ctx.JSON(http.StatusOK, summary)
}
