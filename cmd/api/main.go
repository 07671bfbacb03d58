package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"google.golang.org/genai"

	"wealth/internal/config"
	"wealth/internal/database"
	"wealth/internal/handlers"
	"wealth/internal/logger"
	"wealth/internal/middleware"
	"wealth/internal/revalidate"
	"wealth/internal/services"
	"wealth/internal/validator"

	_ "wealth/internal/docs" // Import swagger docs
)

// @title           Wealth API
// @version         1.0
// @description     Wealth is a personal finance ledger with account balances, recurring transactions, budgets and AI receipt scanning.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Cache revalidation publisher. Optional: without a broker the app
	// runs fine, downstream caches just go stale until their TTL.
	var notifier revalidate.Notifier = revalidate.NewNoop()
	if appConfig.AMQPURL != "" {
		amqpNotifier, err := revalidate.NewAMQPNotifier(appConfig.AMQPURL, appConfig.RevalidateExchange)
		if err != nil {
			log.Warnw("revalidation publisher unavailable, continuing without it", "error", err)
		} else {
			notifier = amqpNotifier
			defer notifier.Close()
		}
	}

	// Gemini client for receipt scanning
	genaiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      appConfig.GeminiAPIKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return fmt.Errorf("failed to create genai client: %w", err)
	}

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	accountService := services.NewAccountService(db, notifier)
	transactionService := services.NewTransactionService(db, notifier)
	recurringService := services.NewRecurringService(db, notifier)
	budgetService := services.NewBudgetService(db)
	seedService := services.NewSeedService(db, notifier)
	receiptService := services.NewReceiptService(genaiClient, appConfig.GeminiModelPrimary, appConfig.GeminiModelFallback)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	accountHandler := handlers.NewAccountHandler(accountService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService)
	receiptHandler := handlers.NewReceiptHandler(receiptService)
	cronHandler := handlers.NewCronHandler(recurringService)
	seedHandler := handlers.NewSeedHandler(seedService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Cron endpoint, guarded by the shared secret rather than a user JWT
	router.GET("/api/cron/recurring-transactions",
		middleware.CronAuthMiddleware(appConfig.CronSecret, appConfig.IsDevelopment()),
		cronHandler.ProcessRecurringTransactions)

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Account routes
	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetAccounts)
	accounts.GET("/:id", accountHandler.GetAccount)
	accounts.PUT("/:id/default", accountHandler.SetDefaultAccount)

	// Transaction routes
	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.POST("/bulk-delete", transactionHandler.BulkDeleteTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Budget routes
	budget := protected.Group("/budget")
	budget.GET("", budgetHandler.GetCurrentBudget)
	budget.PUT("", budgetHandler.UpdateBudget)

	// Receipt scanning
	receipts := protected.Group("/receipts")
	receipts.POST("/scan", receiptHandler.ScanReceipt)

	// Demo data seeding, development only
	if appConfig.IsDevelopment() {
		protected.POST("/seed", seedHandler.SeedTransactions)
	}

	log.Infof("Starting Wealth backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
