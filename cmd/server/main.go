package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"case_desk_app_go/config"
	"case_desk_app_go/handlers"
	"case_desk_app_go/logger"
	"case_desk_app_go/middleware"
	"case_desk_app_go/services"
	"case_desk_app_go/services/jobs"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logr, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logr.Sync()

	// Open the persistence backend and load the snapshot
	ctx := context.Background()
	gateway, closeGateway, err := services.NewGateway(ctx, cfg, logr)
	if err != nil {
		logr.Fatalw("Failed to open persistence backend", "backend", cfg.PersistenceBackend, "error", err)
	}
	defer func() {
		if err := closeGateway(); err != nil {
			logr.Errorw("Failed to close persistence backend", "error", err)
		}
	}()

	store := services.NewCaseStore(services.LoadOrDefault(ctx, gateway, logr), gateway, logr)
	mailer := services.NewMailer(cfg, logr)
	sessions := services.NewSessionManager(cfg.SessionTTL)
	h := handlers.New(store, mailer, sessions, cfg, logr)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := []interface{}{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				logr.Warnw("Request", append(fields, "error", v.Error)...)
				return nil
			}
			logr.Debugw("Request", fields...)
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: true,
	}))
	e.Use(echomiddleware.BodyLimit("64M"))

	// Make config available to handlers
	e.Use(middleware.InjectConfig(cfg))

	h.RegisterRoutes(e, middleware.NewLoginRateLimiter())

	// Start the deadline digest scheduler
	if cfg.DigestEnabled {
		scheduler, err := jobs.StartScheduler(store, mailer, cfg, logr)
		if err != nil {
			logr.Fatalw("Failed to start scheduler", "error", err)
		}
		defer scheduler.Stop()
	}

	// Start server
	go func() {
		logr.Infow("Server starting", "port", cfg.ServerPort, "backend", store.Backend(), "environment", cfg.Environment)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatalw("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logr.Infow("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logr.Errorw("Server shutdown failed", "error", err)
	}
	mailer.Wait()
}
