package main

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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"wealthbook/internal/app"
	"wealthbook/internal/config"
	"wealthbook/internal/database"
	"wealthbook/internal/dates"
	"wealthbook/internal/handlers"
	"wealthbook/internal/logger"
	"wealthbook/internal/middleware"
	"wealthbook/internal/scheduler"
	"wealthbook/internal/validator"

	_ "wealthbook/internal/docs" // Import swagger docs
)

// @title           wealthbook API
// @version         1.0
// @description     wealthbook values investment portfolios and non-portfolio wealth into daily HUF snapshots.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the owner token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description Pipeline API key.

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

	// Create database manager
	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() { _ = dbManager.Close() }()

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Initialize services
	a, err := app.New(appConfig, dbManager.DB())
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	validator.Register()
	router := newRouter(a, func(ctx context.Context) error {
		sqlDB, err := dbManager.DB().DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})

	// Daily close scheduler
	if appConfig.ScheduleDailyClose != "" {
		sched := scheduler.New(log)
		job := scheduler.NewJob("daily-close", appConfig.ScheduleDailyClose, func(ctx context.Context) error {
			_, err := a.Pipeline.DailyClose(ctx, dates.Today())
			return err
		})
		if err := sched.AddJob(job); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting wealthbook server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Infof("Received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// newRouter registers every route. ping backs the health check.
func newRouter(a *app.App, ping func(ctx context.Context) error) *gin.Engine {
	cfg := a.Config
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	instrumentHandler := handlers.NewInstrumentHandler(a.Instruments)
	portfolioHandler := handlers.NewPortfolioHandler(a.Portfolios, a.Valuation)
	transactionHandler := handlers.NewTransactionHandler(a.Transactions)
	priceHandler := handlers.NewPriceHandler(a.Prices)
	fxHandler := handlers.NewFxRateHandler(a.FxRates)
	wealthHandler := handlers.NewWealthHandler(a.Wealth)
	pipelineHandler := handlers.NewPipelineHandler(a.Pipeline, a.Valuation, a.Wealth, a.Loans)
	healthHandler := handlers.NewHealthHandler(ping)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 group
	v1 := router.Group("/api/v1")
	v1.GET("/health", healthHandler.Health)

	// Pipeline routes (API key)
	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(cfg.PipelineAPIKey))
	pipeline.GET("/instruments", instrumentHandler.ListTrackedInstruments)
	pipeline.POST("/prices", priceHandler.RecordPrices)
	pipeline.POST("/fx-rates", fxHandler.RecordRates)
	pipeline.POST("/valuations", pipelineHandler.RunValuations)
	pipeline.POST("/snapshots", pipelineHandler.RunSnapshot)
	pipeline.POST("/daily", pipelineHandler.RunDailyClose)
	pipeline.POST("/backfill", pipelineHandler.RunBackfill)
	pipeline.POST("/loan-reductions", pipelineHandler.ApplyLoanReductions)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	// Instrument routes
	instruments := protected.Group("/instruments")
	instruments.POST("", instrumentHandler.CreateInstrument)
	instruments.GET("", instrumentHandler.ListInstruments)
	instruments.GET("/isin/:isin", instrumentHandler.GetInstrumentByISIN)
	instruments.GET("/:id", instrumentHandler.GetInstrument)
	instruments.PATCH("/:id", instrumentHandler.UpdateInstrument)
	instruments.GET("/:id/prices", priceHandler.GetPriceHistory)
	instruments.GET("/:id/price", priceHandler.ResolvePrice)
	instruments.PUT("/:id/manual-prices", priceHandler.SetManualPrice)
	instruments.GET("/:id/manual-prices", priceHandler.ListManualPrices)
	protected.DELETE("/manual-prices/:id", priceHandler.DeleteManualPrice)

	// FX routes
	protected.GET("/fx-rates/:base/:target", fxHandler.GetRateHistory)
	protected.GET("/fx-rates/:base/:target/resolve", fxHandler.ResolveRate)

	// Portfolio routes
	portfolios := protected.Group("/portfolios")
	portfolios.POST("", portfolioHandler.CreatePortfolio)
	portfolios.GET("", portfolioHandler.ListPortfolios)
	portfolios.GET("/:id", portfolioHandler.GetPortfolio)
	portfolios.GET("/:id/holdings", portfolioHandler.ListHoldings)
	portfolios.POST("/:id/holdings", portfolioHandler.OpenHolding)
	portfolios.GET("/:id/snapshot", portfolioHandler.GetSnapshot)
	portfolios.GET("/:id/summary", portfolioHandler.GetSummary)
	portfolios.GET("/:id/history", portfolioHandler.GetHistory)
	portfolios.POST("/:id/valuations", portfolioHandler.ValuePortfolio)
	portfolios.POST("/:id/transactions", transactionHandler.CreateTransaction)
	portfolios.GET("/:id/transactions", transactionHandler.ListTransactions)
	protected.GET("/transactions/:id", transactionHandler.GetTransaction)

	// Wealth routes
	wealth := protected.Group("/wealth")
	wealth.POST("/categories", wealthHandler.CreateCategory)
	wealth.GET("/categories", wealthHandler.ListCategories)
	wealth.GET("/categories/:id", wealthHandler.GetCategory)
	wealth.PUT("/categories/:id", wealthHandler.UpdateCategory)
	wealth.DELETE("/categories/:id", wealthHandler.DeleteCategory)
	wealth.GET("/categories/:id/values", wealthHandler.GetValueHistory)
	wealth.PUT("/values", wealthHandler.UpsertValue)
	wealth.GET("/values", wealthHandler.ListValues)
	wealth.DELETE("/values/:id", wealthHandler.DeleteValue)
	wealth.GET("/dates", wealthHandler.ListValueDates)
	wealth.GET("/total/:date", wealthHandler.GetTotalWealth)
	wealth.GET("/snapshots", wealthHandler.ListSnapshots)
	wealth.POST("/snapshots/:date", wealthHandler.CreateSnapshot)
	wealth.GET("/snapshots/:date", wealthHandler.GetSnapshot)
	wealth.GET("/yoy/:date", wealthHandler.GetYoYChange)

	return router
}
