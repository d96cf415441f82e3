package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"haushalt/internal/config"
	"haushalt/internal/database"
	"haushalt/internal/handlers"
	"haushalt/internal/logger"
	"haushalt/internal/middleware"
	"haushalt/internal/services"
	"haushalt/internal/validator"
)

// @title           Haushalt API
// @version         1.0
// @description     Haushalt is a personal finance ledger with envelope budgeting, paired transfers and recurring transaction planning.

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
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	// Initialize services
	db := dbManager.DB()
	categoryService := services.NewCategoryService(db)
	userService := services.NewUserService(db, categoryService)
	groupService := services.NewAccountGroupService(db)
	accountService := services.NewAccountService(db)
	monthlyService := services.NewMonthlyBalanceService(db)
	transactionService := services.NewTransactionService(db, accountService, categoryService, monthlyService)
	ruleService := services.NewRuleService(db)
	planningService := services.NewPlanningService(db, accountService, categoryService, transactionService, ruleService)
	tagService := services.NewTagService(db)
	recipientService := services.NewRecipientService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	groupHandler := handlers.NewAccountGroupHandler(groupService)
	accountHandler := handlers.NewAccountHandler(accountService, monthlyService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	planningHandler := handlers.NewPlanningHandler(planningService)
	tagHandler := handlers.NewTagHandler(tagService)
	recipientHandler := handlers.NewRecipientHandler(recipientService)
	ruleHandler := handlers.NewRuleHandler(ruleService)

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

	// Account group routes
	groups := protected.Group("/account-groups")
	groups.POST("", groupHandler.CreateGroup)
	groups.GET("", groupHandler.GetUserGroups)
	groups.PUT("/:id", groupHandler.UpdateGroup)
	groups.DELETE("/:id", groupHandler.DeleteGroup)

	// Account routes
	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetUserAccounts)
	accounts.GET("/:id", accountHandler.GetAccountByID)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)
	accounts.GET("/:id/transactions", transactionHandler.GetAccountTransactions)
	accounts.GET("/:id/monthly-balances", accountHandler.GetMonthlyBalances)
	protected.GET("/monthly-balances", accountHandler.GetUserMonthlyBalances)

	// Category routes
	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetUserCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)
	categories.GET("/:id/saldo", categoryHandler.GetCategorySaldo)
	categories.GET("/:id/transactions", transactionHandler.GetCategoryTransactions)

	// Transaction routes
	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)
	transactions.POST("/reconcile", transactionHandler.ReconcileAccount)

	// Transfer routes
	transfers := protected.Group("/transfers")
	transfers.POST("", transactionHandler.CreateTransfer)
	transfers.POST("/categories", transactionHandler.CreateCategoryTransfer)

	// Planning routes
	plannings := protected.Group("/plannings")
	plannings.POST("", planningHandler.CreatePlanning)
	plannings.GET("", planningHandler.GetUserPlannings)
	plannings.GET("/:id", planningHandler.GetPlanningByID)
	plannings.PUT("/:id", planningHandler.UpdatePlanning)
	plannings.DELETE("/:id", planningHandler.DeletePlanning)
	plannings.GET("/:id/occurrences", planningHandler.GetOccurrences)
	plannings.POST("/execute-due", planningHandler.ExecuteDue)

	// Tag routes
	tags := protected.Group("/tags")
	tags.POST("", tagHandler.CreateTag)
	tags.GET("", tagHandler.GetUserTags)
	tags.PUT("/:id", tagHandler.UpdateTag)
	tags.DELETE("/:id", tagHandler.DeleteTag)

	// Recipient routes
	recipients := protected.Group("/recipients")
	recipients.POST("", recipientHandler.CreateRecipient)
	recipients.GET("", recipientHandler.GetUserRecipients)
	recipients.PUT("/:id", recipientHandler.UpdateRecipient)
	recipients.DELETE("/:id", recipientHandler.DeleteRecipient)

	// Rule routes
	rules := protected.Group("/rules")
	rules.POST("", ruleHandler.CreateRule)
	rules.GET("", ruleHandler.GetUserRules)
	rules.GET("/:id", ruleHandler.GetRuleByID)
	rules.PUT("/:id", ruleHandler.UpdateRule)
	rules.DELETE("/:id", ruleHandler.DeleteRule)

	log.Infof("Starting Haushalt backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
