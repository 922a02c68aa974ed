package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/edupulse/emis-api/docs" // Swagger docs
	"github.com/edupulse/emis-api/internal/config"
	"github.com/edupulse/emis-api/internal/database"
	"github.com/edupulse/emis-api/internal/handlers"
	"github.com/edupulse/emis-api/internal/jobs"
	"github.com/edupulse/emis-api/internal/middleware"
	"github.com/edupulse/emis-api/internal/repository"
	"github.com/edupulse/emis-api/internal/services"
	"github.com/edupulse/emis-api/pkg/logger"
)

// @title EMIS API
// @version 1.0
// @description REST API for the Education Management Information System submission workflow

// @contact.name API Support

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	// Apply pending schema migrations
	if err := database.Migrate(context.Background(), db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("Database migrations applied")

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, worker, cfg)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs, cfg)

	// Initialize handlers
	h := handlers.NewHandlers(svcs)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Shutdown background worker
	worker.Shutdown()
	logger.Info("Background worker stopped")

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Redirect root to swagger
		router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})

		// Swagger documentation
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Authentication (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/logout", h.Auth.Logout)
		}

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Admin-only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				// Category management
				admin.POST("/categories", h.Category.Create)
				admin.PUT("/categories/:category_id", h.Category.Update)

				// Audit trail
				admin.GET("/audits", h.Audit.Index)
				admin.GET("/audits/stats", h.Audit.Stats)

				// Background jobs
				admin.GET("/jobs/status", h.Job.Status)
				admin.POST("/jobs/auto_approval", h.Job.TriggerAutoApproval)
			}

			// Reviewer routes (sector admins, region admins, admins)
			reviewer := protected.Group("")
			reviewer.Use(middleware.RequireReviewer())
			{
				reviewer.POST("/submissions/:submission_id/approve", h.Submission.Approve)
				reviewer.POST("/submissions/:submission_id/reject", h.Submission.Reject)
				reviewer.POST("/submissions/:submission_id/return", h.Submission.Return)
				reviewer.POST("/submissions/bulk", h.Submission.Bulk)
			}

			// Category browsing (all authenticated users)
			protected.GET("/categories", h.Category.Index)
			protected.GET("/categories/:category_id", h.Category.Show)

			// Entry writing (owner accounts; ownership enforced in the service)
			protected.PUT("/categories/:category_id/entries", h.Submission.WriteEntries)

			// Submissions
			protected.GET("/submissions", h.Submission.Index)
			protected.GET("/submissions/:submission_id", h.Submission.Show)
			protected.POST("/submissions/:submission_id/submit", h.Submission.Submit)

			// Notifications (users manage their own notifications)
			// Static route first so "mark_all_as_read" is not matched as :notification_id
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.Notification.Index)
				notifications.POST("/mark_all_as_read", h.Notification.MarkAllAsRead)
				notifications.PUT("/:notification_id", h.Notification.Update)
				notifications.DELETE("/:notification_id", h.Notification.Delete)
			}
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services, cfg *config.Config) {
	// Sweep expired category deadlines. Runs once at startup so submissions
	// whose deadline passed while the service was down are not left pending.
	worker.ScheduleEveryImmediate(cfg.AutoApprovalInterval, func(ctx context.Context) error {
		logger.Info("[Job] Running auto-approval sweep...")
		summary, err := svcs.AutoApproval.Run(ctx)
		if err != nil {
			return err
		}
		logger.Info("[Job] Auto-approval sweep finished",
			"categories", summary.CategoriesProcessed,
			"approved", summary.SubmissionsApproved,
			"already_handled", summary.AlreadyHandled,
			"failed", summary.Failed)
		return nil
	})

	logger.Info("Scheduled recurring jobs")
}
