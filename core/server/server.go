package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatcal-api/core/cache"
	"chatcal-api/core/config"
	"chatcal-api/core/database"
	"chatcal-api/core/logger"
	"chatcal-api/core/middleware"
	"chatcal-api/modules/colorslot"
	"chatcal-api/modules/webhook"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

// Run starts the HTTP server and the task worker and blocks until a
// shutdown signal arrives.
func Run() error {
	if err := config.Init(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := config.Get()
	logger.Init(cfg.LogLevel)

	db, err := database.InitDB(database.DatabaseConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		DBName:   cfg.DBName,
	})
	if err != nil {
		return err
	}

	cacheClient, err := cache.NewCache(cfg)
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echoMiddleware.Recover())

	mw := middleware.NewMiddleware(cfg.JWTSecret)
	e.Use(mw.RequestID)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	if err := colorslot.Init(e, db, cacheClient); err != nil {
		return err
	}

	worker, mux, err := webhook.Init(e, db, cacheClient)
	if err != nil {
		return err
	}

	go func() {
		if err := worker.Run(mux); err != nil {
			logger.Error("task worker stopped", "error", err)
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%d", cfg.ServerPort)
		logger.Info("Starting server", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	worker.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(ctx)
}
