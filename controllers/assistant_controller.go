package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"go-cropadvisor/assistant"
	"go-cropadvisor/logger"
	"go-cropadvisor/middleware"
	"go-cropadvisor/utils"
)

const maxAssistantBody = 64 << 10

// AssistantController 农业问答助手
type AssistantController struct {
	assistant assistant.Assistant
	log       *logger.Logger
}

func NewAssistantController(a assistant.Assistant, log *logger.Logger) *AssistantController {
	return &AssistantController{assistant: a, log: log.With("controller", "AssistantController")}
}

// Ask 转发问题并原样返回提问内容
func (c *AssistantController) Ask(ctx *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(ctx.Request.Body, maxAssistantBody))
	if err != nil || !gjson.ValidBytes(body) {
		utils.BadRequest(ctx, "Invalid JSON")
		return
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		utils.BadRequest(ctx, "Invalid JSON")
		return
	}

	query := doc.Get("query")
	question := strings.TrimSpace(query.Str)
	if query.Type != gjson.String || question == "" {
		utils.BadRequest(ctx, "Query is required")
		return
	}

	answer, err := c.assistant.Ask(ctx.Request.Context(), question)
	var rateLimited *assistant.RateLimitError
	switch {
	case errors.Is(err, assistant.ErrNotConfigured):
		utils.Error(ctx, http.StatusServiceUnavailable, "Assistant not configured")
		return
	case errors.As(err, &rateLimited):
		utils.Error(ctx, http.StatusTooManyRequests, "Assistant is busy, please try again later")
		return
	case err != nil:
		userID, _ := middleware.CurrentUserID(ctx)
		c.log.Warn("Assistant request failed", "user_id", userID, "error", err)
		utils.Error(ctx, http.StatusBadGateway, "Failed to get an answer from the assistant")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"query": query.Str, "answer": answer})
}
