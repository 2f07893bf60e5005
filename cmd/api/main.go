// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/todo-api/internal/auth"
	"github.com/yourusername/todo-api/internal/config"
	"github.com/yourusername/todo-api/internal/logging"
	"github.com/yourusername/todo-api/internal/metrics"
	"github.com/yourusername/todo-api/internal/store"
	"github.com/yourusername/todo-api/internal/todo"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	gin.SetMode(cfg.GinMode)
	logger := logging.New(cfg.LogLevel, cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open store")
	}
	defer st.Close()

	purger, shutdownJobs, err := setupJobs(cfg, st, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to set up jobs")
	}
	defer shutdownJobs()

	m := metrics.New()
	router, err := newRouter(cfg, st, purger, m, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build router")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":    srv.Addr,
			"mode":    cfg.GinMode,
			"storage": cfg.StorageDriver,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}
}

// newRouter はミドルウェアとルーティングを組み立てます。
func newRouter(cfg *config.Config, st store.Store, purger auth.TodoPurger, m *metrics.Metrics, logger *logrus.Logger) (*gin.Engine, error) {
	tokens, err := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL(), st)
	if err != nil {
		return nil, err
	}
	credentials := auth.NewCredentialService(st, auth.NewBcryptHasher(cfg.BcryptCost), tokens)
	authManager, err := auth.NewManager(credentials, tokens, st, auth.Options{
		Purger:   purger,
		Recorder: m,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery(), logging.Middleware(logger), m.Middleware())
	router.Use(cors.New(corsConfig(cfg)))

	setupRoutes(router, authManager, todo.NewService(st, todo.Options{AdminOverride: cfg.AdminItemOverride}), m)
	return router, nil
}

func corsConfig(cfg *config.Config) cors.Config {
	corsConfig := cors.DefaultConfig()
	origins := cfg.AllowedOrigins()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		"Authorization",
	}
	return corsConfig
}

// handleRoot は稼働確認用のハンドラーです。
func handleRoot(c *gin.Context) {
	c.String(http.StatusOK, "API is running...")
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "todo-api",
		"version": "0.1.0",
	})
}

// setupRoutes は API グループと認証周りの配線を行います。
func setupRoutes(router *gin.Engine, authManager *auth.Manager, todos todo.ItemService, m *metrics.Metrics) {
	router.GET("/", handleRoot)
	router.GET("/health", handleHealth)
	router.GET("/metrics", gin.WrapH(m.Handler()))

	api := router.Group("/api/v1")
	{
		users := api.Group("/users")
		{
			users.POST("", authManager.Register)
			users.POST("/login", authManager.Login)
			users.POST("/logout", authManager.Logout)
			users.GET("/me", authManager.RequireLogin(), authManager.Me)

			admin := users.Group("/:id", authManager.RequireLogin(), authManager.RequireAdmin())
			admin.GET("", authManager.GetUser)
			admin.DELETE("", authManager.DeleteUser)
		}

		todo.RegisterRoutes(api.Group("/todos", authManager.RequireLogin()), todos)
	}
}
