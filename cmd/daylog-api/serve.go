package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/JonnyWalker81/daylog/internal/apierror"
	"github.com/JonnyWalker81/daylog/internal/config"
	"github.com/JonnyWalker81/daylog/internal/handlers"
	"github.com/JonnyWalker81/daylog/internal/logger"
	"github.com/JonnyWalker81/daylog/internal/metrics"
	"github.com/JonnyWalker81/daylog/internal/middleware"
	"github.com/JonnyWalker81/daylog/internal/reflection"
	"github.com/JonnyWalker81/daylog/internal/repository"
	"github.com/JonnyWalker81/daylog/internal/service"
	"github.com/JonnyWalker81/daylog/pkg/supabase"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Start the HTTP API server and listen for requests.`,
	RunE:  runServe,
}

var (
	port string
)

const shutdownTimeout = 15 * time.Second

func init() {
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Override port from flag if provided
	if port != "" {
		cfg.Server.Port = port
	}

	log := logger.New(cfg.Log.LoggerConfig())
	logger.SetDefault(log)
	defer func() { _ = logger.Flush(log) }()

	log.Info("starting daylog api",
		logger.String("env", cfg.Server.Env),
		logger.String("supabase_url", cfg.Supabase.URL),
		logger.String("log_backend", cfg.Log.Backend),
		logger.Strings("cors_origins", cfg.CORS.AllowedOrigins),
	)

	collector := metrics.New()

	// Initialize Supabase client
	supabaseClient := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceKey)

	// Initialize repositories
	logRepo := repository.NewLogRepository(supabaseClient)
	reflectionRepo := repository.NewReflectionRepository(supabaseClient)
	idempotencyRepo := repository.NewIdempotencyRepository(supabaseClient)

	detector := reflection.NewDetector(
		reflection.WithLogger(log),
		reflection.WithObserver(collector),
		reflection.WithMaxPreviousSessions(cfg.Analysis.MaxPreviousSessions),
		reflection.WithClock(time.Now),
	)

	// Initialize services
	insightService := service.NewInsightService(logRepo, cfg.Analysis, collector)
	reflectionService := service.NewReflectionService(logRepo, reflectionRepo, detector, cfg.Analysis, collector, time.Now)

	// Initialize handlers
	insightsHandler := handlers.NewInsightsHandler(insightService)
	reflectionHandler := handlers.NewReflectionHandler(reflectionService)

	// Set Gin mode based on environment
	production := cfg.Server.Env == "production"
	if production {
		gin.SetMode(gin.ReleaseMode)
	}
	apierror.RegisterFieldNames()

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(log, collector))
	router.Use(middleware.SecurityHeaders(production))
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	router.Use(middleware.RateLimit())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"env":    cfg.Server.Env,
		})
	})
	router.GET("/metrics", gin.WrapH(collector.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(supabaseClient))
	{
		// Insight routes
		insights := v1.Group("/insights")
		{
			insights.GET("/dashboard", insightsHandler.GetDashboard)
			insights.GET("/correlation", insightsHandler.GetCorrelation)
			insights.GET("/correlations", insightsHandler.ScanCorrelations)
			insights.GET("/similar-days", insightsHandler.GetSimilarDays)
			insights.GET("/summary", insightsHandler.GetSummary)
		}

		// Reflection routes
		reflections := v1.Group("/reflections")
		{
			reflections.GET("/catalog", reflectionHandler.Catalog)
			reflections.POST("",
				middleware.RateLimitReflections(),
				middleware.Idempotency(idempotencyRepo),
				reflectionHandler.CreateReflection,
			)
			reflections.GET("", reflectionHandler.ListReflections)
			reflections.GET("/:id", reflectionHandler.GetReflection)
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", logger.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
