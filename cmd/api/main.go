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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/stoolpool-api/internal/config"
	"github.com/yourusername/stoolpool-api/internal/handler"
	"github.com/yourusername/stoolpool-api/internal/middleware"
	pgRepo "github.com/yourusername/stoolpool-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/stoolpool-api/internal/repository/redis"
	"github.com/yourusername/stoolpool-api/internal/service"
	ws "github.com/yourusername/stoolpool-api/internal/websocket"
	"github.com/yourusername/stoolpool-api/pkg/auth"
	"github.com/yourusername/stoolpool-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db, cfg.Database.MigrationsPath); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis с использованием унифицированной конфигурации
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	userRepo := pgRepo.NewUserRepo(db)
	entryRepo := pgRepo.NewHealthEntryRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient, cfg.Redis.KeyPrefix)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs, cfg.JWT.WSTicketExpirySec, cacheRepo)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// Создаем контекст с отменой для корректного завершения работы горутин
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализация WebSocket
	wsHub := ws.NewHub()
	wsManager := ws.NewManager(wsHub)
	clientConfig := ws.ClientConfig{
		BufferSize:     cfg.WebSocket.SendBuffer,
		PingInterval:   time.Duration(cfg.WebSocket.PingInterval) * time.Second,
		PongWait:       time.Duration(cfg.WebSocket.PongWait) * time.Second,
		WriteWait:      time.Duration(cfg.WebSocket.WriteWait) * time.Second,
		MaxMessageSize: int64(cfg.WebSocket.MaxMessageSize),
	}

	// Почта: Resend или заглушка
	var emailService service.EmailService = &service.NoopEmailService{}
	if cfg.Email.Provider == "resend" {
		resendService, err := service.NewResendEmailService(cfg.Email.ResendAPIKey, cfg.Email.From)
		if err != nil {
			log.Printf("Failed to initialize ResendEmailService: %v", err)
			os.Exit(1)
		}
		emailService = resendService
	}
	location := cfg.Stats.Location()

	// Инициализируем сервисы
	authService, err := service.NewAuthService(userRepo, jwtService, cfg.Auth.MinPasswordLength)
	if err != nil {
		log.Printf("Failed to initialize AuthService: %v", err)
		os.Exit(1)
	}
	healthService, err := service.NewHealthService(entryRepo, userRepo, cacheRepo, wsManager, emailService, cfg.Stats.CacheTTL(), location)
	if err != nil {
		log.Printf("Failed to initialize HealthService: %v", err)
		os.Exit(1)
	}
	userService, err := service.NewUserService(userRepo, entryRepo, jwtService, wsManager, cfg.Auth.MinPasswordLength)
	if err != nil {
		log.Printf("Failed to initialize UserService: %v", err)
		os.Exit(1)
	}

	if cfg.Reports.Enabled {
		reportService, err := service.NewReportService(
			userRepo,
			entryRepo,
			emailService,
			time.Duration(cfg.Reports.IntervalHours)*time.Hour,
			cfg.Reports.BatchSize,
			location,
		)
		if err != nil {
			log.Printf("Failed to initialize ReportService: %v", err)
			os.Exit(1)
		}
		reportService.Start(ctx)
	}

	// Инициализируем обработчики
	authHandler := handler.NewAuthHandler(authService, cfg.JWT.WSTicketExpirySec)
	healthHandler := handler.NewHealthHandler(healthService)
	userHandler := handler.NewUserHandler(userService)
	wsHandler := handler.NewWSHandler(wsHub, wsManager, jwtService, clientConfig, cfg.CORS.AllowedOrigins)

	// Инициализируем middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(cacheRepo)

	// Инициализируем роутер Gin
	router := gin.Default()

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	isProduction := gin.Mode() == gin.ReleaseMode
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS (список источников общий с проверкой Origin для WebSocket)
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	status := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"websocket": wsManager.GetMetrics(),
		})
	}
	router.GET("/", status)

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		api.GET("/health-check", status)

		// Аутентификация
		authGroup := api.Group("/auth")
		authGroup.Use(rateLimiter.LimitByIP(middleware.AuthRateLimitConfig(cfg.Auth.RateLimitRequests, cfg.Auth.RateLimitWindowS)))
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/ws-ticket", authMiddleware.RequireAuth(), authHandler.GetWsTicket)
		}

		// История результатов
		health := api.Group("/health")
		health.Use(authMiddleware.RequireAuth())
		{
			health.POST("/entries", healthHandler.CreateEntry)
			health.POST("/entries/import", healthHandler.ImportEntries)
			health.GET("/entries", healthHandler.ListEntries)

			entryWithID := health.Group("/entries/:id")
			entryWithID.Use(middleware.ExtractUintParam("id", "entryID"))
			{
				entryWithID.GET("", healthHandler.GetEntry)
				entryWithID.DELETE("", healthHandler.DeleteEntry)
			}

			health.GET("/stats", healthHandler.GetStats)
			health.POST("/score", healthHandler.PreviewScore)
		}

		// Профиль и настройки
		user := api.Group("/user")
		user.Use(authMiddleware.RequireAuth())
		{
			user.GET("/profile", userHandler.GetProfile)
			user.PUT("/profile", userHandler.UpdateProfile)
			user.PUT("/password", userHandler.ChangePassword)
			user.PUT("/notifications", userHandler.UpdateNotifications)
			user.PUT("/privacy", userHandler.UpdatePrivacy)
			user.GET("/settings", userHandler.GetSettings)
			user.POST("/export-data", userHandler.ExportData)
			user.DELETE("/account", userHandler.DeleteAccount)
		}
	}

	// WebSocket маршрут
	router.GET("/ws", wsHandler.HandleConnection)

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	// После получения SIGINT или SIGTERM вызываем cancel() для завершения горутин
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	cancel()

	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Закрываем WebSocket соединения, которые не отслеживаются http.Server
	wsHub.Shutdown()

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}
	if sqlDB, err := database.GetSQLDB(db); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}

	log.Println("Server exited properly")
}
