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
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/rmejia/labtrack-api/docs" // Swagger docs
	"github.com/rmejia/labtrack-api/internal/config"
	"github.com/rmejia/labtrack-api/internal/database"
	"github.com/rmejia/labtrack-api/internal/handlers"
	"github.com/rmejia/labtrack-api/internal/jobs"
	"github.com/rmejia/labtrack-api/internal/middleware"
	"github.com/rmejia/labtrack-api/internal/repository"
	"github.com/rmejia/labtrack-api/internal/services"
	"github.com/rmejia/labtrack-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title LabTrack API
// @version 1.0
// @description REST API for university lab inventory and borrowing management

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

	if cfg.ResendAPIKey == "" || cfg.FromEmail == "" {
		logger.Warn("Resend email disabled: RESEND_API_KEY or FROM_EMAIL not set")
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

	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, worker, cfg, db)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs, repos)

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
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/logout", h.Auth.Logout)
			auth.POST("/forgot_password", h.Auth.ForgotPassword)
			auth.POST("/reset_password", h.Auth.ResetPassword)
		}

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Admin-only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				// User administration
				admin.GET("/users", h.User.Index)
				admin.POST("/users", h.User.Create)
				admin.DELETE("/users/:user_id", h.User.Delete)
				admin.PUT("/users/:user_id/approve", h.User.Approve)
				admin.PUT("/users/:user_id/toggle_status", h.User.ToggleStatus)
				admin.PUT("/users/:user_id/revoke_ban", h.User.RevokeBan)
				admin.PUT("/users/:user_id/departments", h.User.AssignDepartments)
				admin.POST("/users/:user_id/restore", h.User.Restore)

				// Departments and categories
				admin.POST("/departments", h.Department.Create)
				admin.PUT("/departments/:department_id", h.Department.Update)
				admin.DELETE("/departments/:department_id", h.Department.Delete)
				admin.POST("/categories", h.Category.Create)
				admin.PUT("/categories/:category_id", h.Category.Update)
				admin.DELETE("/categories/:category_id", h.Category.Delete)

				// Policy settings
				admin.GET("/settings", h.Setting.Index)
				admin.POST("/settings/reset", h.Setting.Reset)
				admin.PUT("/settings/:key", h.Setting.Update)

				// Audit trail
				admin.GET("/audit_logs", h.Audit.Index)
				admin.GET("/audit_logs/entity", h.Audit.Entity)

				// Background worker status
				admin.GET("/jobs/status", h.Job.Status)
			}

			// Staff routes (incharge, admin, procurement); department scoping
			// happens inside the services
			staff := protected.Group("")
			staff.Use(middleware.RequireStaff())
			{
				// Inventory management
				staff.POST("/items", h.Item.Create)
				staff.PUT("/items/:item_id", h.Item.Update)
				staff.PUT("/items/:item_id/maintenance", h.Item.SetMaintenance)
				staff.DELETE("/items/:item_id", h.Item.Delete)
				staff.POST("/items/import", h.Item.Import)
				staff.GET("/items/export", h.Item.Export)

				// Request decisions and issuance
				staff.PUT("/issue_requests/:request_id/approve", h.Request.Approve)
				staff.PUT("/issue_requests/:request_id/reject", h.Request.Reject)
				staff.POST("/issue_records", h.Issue.Create)
				staff.PUT("/issue_records/:record_id/return", h.Issue.Return)

				// Transfer decisions
				staff.PUT("/transfers/:transfer_id/approve", h.Transfer.Approve)
				staff.PUT("/transfers/:transfer_id/reject", h.Transfer.Reject)
				staff.PUT("/transfers/:transfer_id/complete", h.Transfer.Complete)

				// Reports
				staff.GET("/reports/stats", h.Report.Stats)
				staff.GET("/reports/overdue_csv", h.Report.OverdueCSV)

				// Department incharge roster
				staff.GET("/departments/:department_id/incharges", h.Department.Incharges)
			}

			// All authenticated users
			protected.GET("/users/:user_id", middleware.RequireAdminOrOwner(), h.User.Show)
			protected.PUT("/users/:user_id", middleware.RequireAdminOrOwner(), h.User.Update)

			protected.GET("/departments", h.Department.Index)
			protected.GET("/departments/:department_id", h.Department.Show)
			protected.GET("/categories", h.Category.Index)
			protected.GET("/categories/:category_id", h.Category.Show)

			// Catalog browsing
			protected.GET("/items", h.Item.Index)
			protected.GET("/items/:item_id", h.Item.Show)

			// Borrow requests (services enforce ownership)
			protected.GET("/issue_requests", h.Request.Index)
			protected.POST("/issue_requests", h.Request.Create)
			protected.GET("/issue_requests/:request_id", h.Request.Show)
			protected.PUT("/issue_requests/:request_id/cancel", h.Request.Cancel)

			// Loans
			protected.GET("/issue_records", h.Issue.Index)
			protected.GET("/issue_records/:record_id", h.Issue.Show)
			protected.GET("/issue_records/:record_id/slip", h.Issue.Slip)

			// Transfers (creation authz is role-checked in the service)
			protected.GET("/transfers", h.Transfer.Index)
			protected.POST("/transfers", h.Transfer.Create)
			protected.GET("/transfers/:transfer_id", h.Transfer.Show)
			protected.PUT("/transfers/:transfer_id/cancel", h.Transfer.Cancel)

			// Notifications
			// Static route first so "mark_all_as_read" is not matched as :notification_id
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.Notification.Index)
				notifications.POST("/mark_all_as_read", h.Notification.MarkAllAsRead)
				notifications.PUT("/:notification_id/read", h.Notification.MarkAsRead)
			}
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services, repos *repository.Repositories) {
	// Overdue reminder sweep every hour; the job itself honors the
	// overdue_reminders_enabled setting
	worker.ScheduleEvery(1*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Checking overdue loans...")
		return svcs.Job.SendOverdueReminders(ctx, time.Now())
	})

	// Purge expired refresh tokens daily
	worker.ScheduleEvery(24*time.Hour, func(ctx context.Context) error {
		deleted, err := repos.RefreshToken.DeleteExpired(ctx)
		if err != nil {
			return err
		}
		logger.Info("[Job] Purged expired refresh tokens", "deleted", deleted)
		return nil
	})

	logger.Info("Scheduled recurring jobs")
}
