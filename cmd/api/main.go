package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/getflash/salesops/config"
	"github.com/getflash/salesops/pkg/api/handlers"
	apimw "github.com/getflash/salesops/pkg/api/middleware"
	"github.com/getflash/salesops/pkg/container"
	"github.com/getflash/salesops/pkg/logger"
	"github.com/getflash/salesops/pkg/metrics"
	custommiddleware "github.com/getflash/salesops/pkg/middleware"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)
	log.Info("configuration loaded", "environment", cfg.APIEnvironment)

	// Sentry error tracking (optional)
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.APIEnvironment,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Warn("failed to initialize sentry", "error", err)
		} else {
			log.Info("sentry initialized", "environment", cfg.APIEnvironment)
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx := context.Background()
	c, err := container.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize services", "error", err)
		os.Exit(1)
	}
	defer c.Close()

	prometheusMetrics := metrics.New()

	e := echo.New()
	e.HideBanner = true

	// Rate limiters
	globalRateLimiter := custommiddleware.NewRateLimiter(cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	loginRateLimiter := custommiddleware.NewRateLimiter(5, 2) // prevent credential stuffing

	// Global middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request", "method", c.Request().Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	if cfg.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{
			// Repanic so the Recover middleware still handles the panic.
			Repanic: true,
		}))
	}

	e.Use(prometheusMetrics.Middleware())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSAllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(middleware.Gzip())
	e.Use(middleware.Secure())
	e.Use(globalRateLimiter.RateLimitMiddleware())

	// Health and info endpoints (public)
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"name":        "Flash Sales Ops API",
			"status":      "running",
			"environment": cfg.APIEnvironment,
			"timestamp":   time.Now().Unix(),
		})
	})

	e.GET("/health", func(ec echo.Context) error {
		ctx, cancel := context.WithTimeout(ec.Request().Context(), 2*time.Second)
		defer cancel()

		if err := c.Ping(ctx); err != nil {
			return ec.JSON(http.StatusServiceUnavailable, map[string]any{"status": "unhealthy"})
		}
		return ec.JSON(http.StatusOK, map[string]any{"status": "healthy"})
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Handlers
	authHandler := handlers.NewAuthHandler(c.Users, log)
	submissionHandler := handlers.NewSubmissionHandler(c.Submissions, log)
	pipelineHandler := handlers.NewPipelineHandler(c.Pipeline, log)
	analyticsHandler := handlers.NewAnalyticsHandler(c.Analytics, log)
	repTrackingHandler := handlers.NewRepTrackingHandler(c.RepTracking, log)
	exportHandler := handlers.NewExportHandler(c.Export, log)
	phoneHandler := handlers.NewPhoneHandler()

	jwtMiddleware := apimw.JWTMiddleware(cfg.JWTSecret, c.Blacklist)

	v1 := e.Group("/api/v1")

	// Authentication routes
	authRoutes := v1.Group("/auth")
	{
		authRoutes.POST("/login", authHandler.Login, loginRateLimiter.RateLimitMiddleware())
		authRoutes.POST("/logout", authHandler.Logout, jwtMiddleware)
		authRoutes.GET("/me", authHandler.Me, jwtMiddleware)
		authRoutes.POST("/register", authHandler.Register, jwtMiddleware)
	}

	// Protected routes
	protected := v1.Group("")
	protected.Use(jwtMiddleware)
	{
		submissionsGroup := protected.Group("/submissions")
		{
			submissionsGroup.POST("/search", submissionHandler.Search)
			submissionsGroup.POST("", submissionHandler.Create)
			submissionsGroup.GET("/:id", submissionHandler.GetByID)
			submissionsGroup.PATCH("/:id", submissionHandler.Update)
			submissionsGroup.DELETE("/:id", submissionHandler.Delete)
		}

		pipelineGroup := protected.Group("/pipeline")
		{
			pipelineGroup.GET("/board", pipelineHandler.Board)
			pipelineGroup.GET("/:id", pipelineHandler.Card)
		}

		analyticsGroup := protected.Group("/analytics")
		{
			analyticsGroup.GET("/overview", analyticsHandler.Overview)
			analyticsGroup.GET("/scoreboard", analyticsHandler.RepScoreboard)
			analyticsGroup.GET("/territories", analyticsHandler.TerritoryRollup)
			analyticsGroup.GET("/leads", analyticsHandler.LeadStats)
			analyticsGroup.GET("/funnel", analyticsHandler.StageFunnel)
		}

		repTrackingGroup := protected.Group("/rep-tracking")
		{
			repTrackingGroup.GET("", repTrackingHandler.List)
			repTrackingGroup.POST("", repTrackingHandler.Upsert)
		}

		protected.POST("/exports", exportHandler.Create)

		phoneGroup := protected.Group("/phone")
		{
			phoneGroup.POST("/validate", phoneHandler.Validate)
			phoneGroup.POST("/normalize", phoneHandler.Normalize)
		}
	}

	// Scheduled jobs
	if err := c.Cron.SetupJobs(); err != nil {
		log.Error("failed to setup cron jobs", "error", err)
		os.Exit(1)
	}
	c.Cron.Start()
	log.Info("cron jobs started")

	// Start server
	address := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Info("starting server", "address", address, "rate_limit_rpm", cfg.RateLimitRequestsPerMinute)

	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			log.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
