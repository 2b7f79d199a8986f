package app

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/pressly/goose"
	"go.uber.org/zap"

	"github.com/thekim123/sns-maker-hub/internal/config"
	"github.com/thekim123/sns-maker-hub/internal/handlers"
	"github.com/thekim123/sns-maker-hub/internal/repositories"
	"github.com/thekim123/sns-maker-hub/internal/routes"
	"github.com/thekim123/sns-maker-hub/internal/services"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/thekim123/sns-maker-hub/docs"
)

func Run() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg := config.LoadConfig()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		zap.S().Fatalf("Ошибка подключения к БД: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			zap.S().Errorf("Ошибка закрытия БД: %v", err)
		}
	}()

	if err := goose.SetDialect("postgres"); err != nil {
		zap.S().Fatalf("goose dialect: %v", err)
	}
	if err := goose.Up(db, "db/migrations"); err != nil {
		zap.S().Fatalf("Ошибка применения миграций: %v", err)
	}

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	jobRepo := repositories.NewJobRepository(db)
	postRepo := repositories.NewPostRepository(db)
	verificationRepo := repositories.NewVerificationRepository(db)

	// === Telegram (опционально) ===
	var tg *services.TelegramService
	if cfg.Telegram.BotToken != "" {
		tg, err = services.NewTelegramService(cfg.Telegram.BotToken)
		if err != nil {
			// Хаб живёт и без бота: верификацию завершает внешний
			// бот-сервер через HTTP.
			zap.S().Warnf("[tg][init] интеграция выключена: %v", err)
			tg = nil
		}
	}

	botUsername := cfg.Telegram.BotUsername
	if tg != nil {
		botUsername = tg.Username()
		if cfg.Hub.PublicBaseURL != "" {
			if err := tg.SetWebhook(cfg.Hub.PublicBaseURL); err != nil {
				zap.S().Warnf("[tg][webhook] не установлен: %v", err)
			}
		}
	}

	// === Services ===
	userService := services.NewUserService(userRepo, cfg.Hub.AllowNewUsers)
	jobService := services.NewJobService(jobRepo, userRepo)
	postService := services.NewPostService(postRepo)
	verificationService := services.NewVerificationService(verificationRepo, cfg.Verification, botUsername)
	statusService := services.NewStatusService(userRepo, jobRepo, postRepo, cfg.Jobs.RecentLimit, time.Now())

	janitor := services.NewJanitorService(verificationRepo, jobRepo, cfg.Jobs.RequeueAfterSeconds)
	if err := janitor.Start(); err != nil {
		zap.S().Fatalf("Ошибка запуска janitor: %v", err)
	}
	defer janitor.Stop()

	// === Handlers ===
	statusHandler := handlers.NewStatusHandler(statusService)
	userHandler := handlers.NewUserHandler(userService)
	jobHandler := handlers.NewJobHandler(jobService)
	postHandler := handlers.NewPostHandler(postService)
	verifyHandler := handlers.NewVerifyHandler(verificationService)

	var integrationsHandler *handlers.IntegrationsHandler
	if tg != nil {
		integrationsHandler = handlers.NewIntegrationsHandler(tg, verificationService)
	}

	// === Gin ===
	router := gin.Default()
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		cfg,
		statusHandler,
		userHandler,
		jobHandler,
		postHandler,
		verifyHandler,
		integrationsHandler,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	zap.S().Infof("Сервер запущен на %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		zap.S().Fatalf("Ошибка запуска сервера: %v", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-API-Key, X-Internal-API-Key")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
