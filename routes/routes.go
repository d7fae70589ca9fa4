package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"go-cropadvisor/assistant"
	"go-cropadvisor/config"
	"go-cropadvisor/controllers"
	"go-cropadvisor/logger"
	"go-cropadvisor/middleware"
	"go-cropadvisor/ml"
	"go-cropadvisor/services"
	"go-cropadvisor/utils"
)

// Services 路由依赖的业务服务
type Services struct {
	Classifier  ml.Classifier
	Predictions *services.PredictionService
	Insights    *services.InsightsService
	Accounts    *services.AccountService
	Weather     *services.WeatherService
	News        *services.NewsService
	Assistant   assistant.Assistant
}

// SetupRouter 配置所有路由
func SetupRouter(cfg *config.Config, db *sqlx.DB, svc Services, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(log), middleware.CORS(cfg.CORS.AllowOrigins))
	r.NoMethod(methodNotAllowed)
	r.NoRoute(func(c *gin.Context) {
		utils.NotFound(c, "Not found")
	})

	// 创建控制器实例
	authController := controllers.NewAuthController(svc.Accounts, log)
	predictionController := controllers.NewPredictionController(svc.Predictions, log)
	insightsController := controllers.NewInsightsController(svc.Insights, log)
	weatherController := controllers.NewWeatherController(svc.Weather, log)
	newsController := controllers.NewNewsController(svc.News, log)
	healthController := controllers.NewHealthController(db, svc.Classifier)
	if svc.Assistant == nil {
		svc.Assistant = assistant.Disabled{}
	}
	assistantController := controllers.NewAssistantController(svc.Assistant, log)

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)

	// 公共路由
	public := r.Group("/")
	{
		public.GET("/healthz", healthController.Health)
		public.GET("/metrics", gin.WrapH(promhttp.Handler()))

		// 用户认证相关路由
		public.POST("/register", limiter.RateLimit(), authController.Register)
		public.POST("/login", limiter.RateLimit(), authController.Login)
		public.POST("/resend-verification", limiter.RateLimit(), authController.ResendVerification)
		public.GET("/verify-email/:token", authController.VerifyEmail)
	}

	// 需要认证的路由
	protected := r.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret))
	{
		protected.GET("/me", authController.Me)

		// 预测相关路由
		protected.POST("/predict", predictionController.Predict)
		protected.GET("/history", predictionController.History)
		protected.DELETE("/history/reset", predictionController.Reset)
		protected.DELETE("/history/:id", predictionController.Delete)
		protected.GET("/insights", insightsController.Summary)

		// 天气和新闻
		protected.GET("/weather", weatherController.Current)
		protected.GET("/news", newsController.Latest)
		protected.DELETE("/news/cache", newsController.InvalidateCache)

		// 问答助手
		protected.POST("/assistant", assistantController.Ask)
	}

	return r
}

// 个别接口沿用旧客户端识别的提示语
var methodMessages = map[string]string{
	"/assistant": "POST request required",
}

// methodNotAllowed 路径存在但方法不匹配
func methodNotAllowed(c *gin.Context) {
	allowed := c.Writer.Header().Get("Allow")
	msg := "Method not allowed"
	if custom, ok := methodMessages[c.Request.URL.Path]; ok {
		msg = custom
	} else if allowed != "" && !strings.Contains(allowed, ",") {
		msg = "Only " + allowed + " method is allowed"
	}
	utils.AbortWithError(c, http.StatusMethodNotAllowed, msg)
}
