package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"go-cropadvisor/assistant"
	"go-cropadvisor/config"
	"go-cropadvisor/ml"
	"go-cropadvisor/repository"
	"go-cropadvisor/routes"
	"go-cropadvisor/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	// 模型不可用时拒绝启动
	forest, err := ml.LoadForest(cfg.Model.Path)
	if err != nil {
		log.Error("Failed to load model", "path", cfg.Model.Path, "error", err)
		return err
	}
	log.Info("Model loaded", "path", cfg.Model.Path, "version", forest.Version, "classes", len(forest.Classes), "trees", len(forest.Trees))

	db, err := config.InitDB(cfg.Database, log)
	if err != nil {
		log.Error("Failed to initialize database", "error", err)
		return err
	}
	defer db.Close()
	log.Info("Database ready", "driver", cfg.Database.Driver)

	var cache services.Cache = services.NoopCache{}
	if cfg.Redis.URL != "" {
		rc, err := services.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			log.Warn("Redis unavailable, proxy caching disabled", "error", err)
		} else {
			defer rc.Close()
			cache = rc
			log.Info("Redis cache enabled")
		}
	}

	helper, err := assistant.New(cfg.Assistant, log)
	if err != nil {
		return err
	}
	if _, disabled := helper.(assistant.Disabled); disabled {
		log.Info("Assistant API key not set, /assistant disabled")
	}

	users := repository.NewUserRepository(db)
	predictions := repository.NewPredictionRepository(db, log)

	svc := routes.Services{
		Classifier:  forest,
		Predictions: services.NewPredictionService(forest, predictions, log),
		Insights:    services.NewInsightsService(predictions),
		Accounts: services.NewAccountService(users, services.NewMailer(cfg.Mail, log), services.AccountOptions{
			JWTSecret:     cfg.Auth.JWTSecret,
			TokenTTL:      cfg.Auth.TokenTTL,
			VerifyBaseURL: cfg.Auth.VerifyBaseURL,
		}, log),
		Weather:   services.NewWeatherService(cfg.Weather.APIKey, cfg.Weather.BaseURL, cfg.Cache.WeatherTTL, cache, log),
		News:      services.NewNewsService(cfg.News.APIKey, cfg.News.BaseURL, cfg.Cache.NewsTTL, cache, log),
		Assistant: helper,
	}

	gin.SetMode(cfg.Server.Mode)
	router := routes.SetupRouter(cfg, db, svc, log)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Failed to start server", "error", err)
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case sig := <-quit:
		log.Info("Shutting down server", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		return err
	}

	log.Info("Server exited")
	return nil
}
