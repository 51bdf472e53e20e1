package main

import (
	_ "backend/api/swagger" // swagger docs
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/notify"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/websocket"
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Fish Market Stock API
// @version         1.0
// @description     Movement ledger, stock projection, CUMP costing and variance alerting for a multi-store fish market chain.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Logger init failed: %v", err)
	}
	defer logger.Sync()

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		logger.Fatal("Database connection failed", zap.Error(err))
	}
	logger.Info("Connected to PostgreSQL")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	storeRepo := repository.NewStoreRepository(db)
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	levelRepo := repository.NewStockLevelRepository(db)
	costRepo := repository.NewAverageCostRepository(db)
	alertRepo := repository.NewAlertRepository(db)

	locks := service.NewKeyedMutex()
	stockService := service.NewStockService(levelRepo, locks, wsHub, logger)
	costingService := service.NewCostingService(costRepo)
	ledgerService := service.NewLedgerService(movementRepo, storeRepo, productRepo, txManager, stockService, costingService, locks, logger)
	transferService := service.NewTransferService(ledgerService, stockService, storeRepo, logger)
	forecastService := service.NewForecastService(movementRepo, levelRepo)
	catalogService := service.NewCatalogService(storeRepo, productRepo)

	notifier := buildNotifier(wsHub, logger)
	varianceService, err := service.NewVarianceService(
		movementRepo, alertRepo, storeRepo, productRepo,
		loadAnomalyThresholds(), notifier, logger,
	)
	if err != nil {
		logger.Fatal("Variance service init failed", zap.Error(err))
	}

	// Background variance sweep across all stores
	scanInterval, _ := time.ParseDuration(os.Getenv("VARIANCE_SCAN_INTERVAL"))
	scheduler := service.NewVarianceScheduler(varianceService, storeRepo, scanInterval, logger)
	scheduler.Start(context.Background())
	defer scheduler.Stop()

	// Initialize Handlers
	stockHandler := handler.NewStockHandler(ledgerService, stockService, forecastService, varianceService)
	transferHandler := handler.NewTransferHandler(transferService)
	alertHandler := handler.NewAlertHandler(forecastService, varianceService)
	catalogHandler := handler.NewCatalogHandler(catalogService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	stockHandler.RegisterRoutes(router.Group(""))
	transferHandler.RegisterRoutes(router.Group(""))
	alertHandler.RegisterRoutes(router.Group(""))
	catalogHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info("Server listening", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// buildNotifier always pushes alerts to connected dashboards; email is added
// only when SMTP env vars are present.
func buildNotifier(hub *websocket.Hub, logger *zap.Logger) notify.Notifier {
	notifiers := []notify.Notifier{notify.NewHubNotifier(hub)}

	smtpHost := os.Getenv("SMTP_HOST")
	if smtpHost != "" {
		smtpPort, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
		if err != nil {
			smtpPort = 587
		}
		to := strings.Split(os.Getenv("ALERT_EMAIL_TO"), ",")
		for i := range to {
			to[i] = strings.TrimSpace(to[i])
		}
		notifiers = append(notifiers, notify.NewEmailNotifier(notify.EmailConfig{
			Host:     smtpHost,
			Port:     smtpPort,
			User:     os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("ALERT_EMAIL_FROM"),
			To:       to,
		}))
		logger.Info("Email alerting enabled", zap.String("host", smtpHost))
	}

	if len(notifiers) == 1 {
		return notifiers[0]
	}
	return notify.Multi(notifiers)
}

func loadAnomalyThresholds() model.AnomalyThresholds {
	thresholds := model.DefaultAnomalyThresholds
	if v, err := strconv.ParseFloat(os.Getenv("LOSS_RATE_WARNING_PCT"), 64); err == nil {
		thresholds.LossRateWarning = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("LOSS_RATE_CRITICAL_PCT"), 64); err == nil {
		thresholds.LossRateCritical = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("FLOW_VARIANCE_PCT"), 64); err == nil {
		thresholds.FlowVariancePct = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("DAILY_LOSS_MULTIPLIER"), 64); err == nil {
		thresholds.DailyLossMultiplier = v
	}
	return thresholds
}
