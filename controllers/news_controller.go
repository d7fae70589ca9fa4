package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-cropadvisor/logger"
	"go-cropadvisor/services"
	"go-cropadvisor/utils"
)

// NewsController 农业新闻代理
type NewsController struct {
	service *services.NewsService
	log     *logger.Logger
}

func NewNewsController(service *services.NewsService, log *logger.Logger) *NewsController {
	return &NewsController{service: service, log: log.With("controller", "NewsController")}
}

// Latest 最新农业新闻
func (c *NewsController) Latest(ctx *gin.Context) {
	articles, err := c.service.Latest(ctx.Request.Context())
	var apiErr *services.NewsAPIError
	switch {
	case err == nil:
		ctx.JSON(http.StatusOK, gin.H{"news": articles})
	case errors.Is(err, services.ErrNotConfigured):
		utils.Error(ctx, http.StatusServiceUnavailable, "News API key not configured")
	case errors.As(err, &apiErr):
		utils.BadRequest(ctx, apiErr.Message)
	default:
		c.log.Warn("News lookup failed", "error", err)
		utils.Error(ctx, http.StatusBadGateway, "Failed to fetch news")
	}
}

// InvalidateCache 清除新闻缓存
func (c *NewsController) InvalidateCache(ctx *gin.Context) {
	if err := c.service.InvalidateCache(ctx.Request.Context()); err != nil {
		c.log.Error("Failed to invalidate news cache", "error", err)
		utils.InternalServerError(ctx, "Failed to invalidate news cache")
		return
	}
	utils.Message(ctx, http.StatusOK, "News cache cleared")
}
