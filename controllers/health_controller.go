package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"go-cropadvisor/ml"
)

// HealthController 存活检查
type HealthController struct {
	db         *sqlx.DB
	classifier ml.Classifier
}

func NewHealthController(db *sqlx.DB, classifier ml.Classifier) *HealthController {
	return &HealthController{db: db, classifier: classifier}
}

// Health 数据库可连接且模型已加载时返回ok
func (c *HealthController) Health(ctx *gin.Context) {
	checks := gin.H{"database": "ok", "model": "ok"}
	healthy := true

	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()
	if err := c.db.PingContext(pingCtx); err != nil {
		checks["database"] = err.Error()
		healthy = false
	}
	if c.classifier == nil {
		checks["model"] = "not loaded"
		healthy = false
	}

	if !healthy {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": checks})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ok", "checks": checks})
}
