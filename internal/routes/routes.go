package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/thekim123/sns-maker-hub/internal/config"
	"github.com/thekim123/sns-maker-hub/internal/handlers"
	"github.com/thekim123/sns-maker-hub/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	cfg *config.Config,
	statusHandler *handlers.StatusHandler,
	userHandler *handlers.UserHandler,
	jobHandler *handlers.JobHandler,
	postHandler *handlers.PostHandler,
	verifyHandler *handlers.VerifyHandler,
	integrationsHandler *handlers.IntegrationsHandler, // может быть nil, если бот не настроен
) *gin.Engine {

	// ---- public
	r.GET("/health", statusHandler.Health)

	// Telegram webhook публикуем только если есть интеграция
	if integrationsHandler != nil {
		r.POST("/integrations/telegram/webhook", integrationsHandler.Webhook)
	}

	// ---- API key: дашборд и воркеры
	api := r.Group("/", middleware.RequireAPIKey(cfg.Auth.APIKey))
	{
		api.GET("/status", statusHandler.GetStatus)
		api.POST("/register", userHandler.Register)

		api.POST("/jobs", jobHandler.Create)
		api.GET("/jobs/next", jobHandler.Next)
		api.POST("/jobs/:id/result", jobHandler.SubmitResult)
		api.GET("/jobs/:id", jobHandler.GetStatus)

		api.GET("/posts/latest", postHandler.Latest)
		api.GET("/posts/:id", postHandler.GetByID)

		api.POST("/telegram/verify/complete", verifyHandler.Complete)
	}

	// ---- JWT: конечные пользователи
	user := r.Group("/", middleware.AuthMiddleware(cfg.Auth.JWTSecret))
	{
		user.GET("/profile", userHandler.GetProfile)
		user.PATCH("/profile", userHandler.UpdateProfile)
		user.POST("/profile/telegram/challenge", verifyHandler.Challenge)
		user.POST("/posts", postHandler.Create)
	}

	// ---- service token: доверенные внутренние сервисы
	internal := r.Group("/internal", middleware.RequireServiceAuth(cfg.Auth.ServiceToken, cfg.Auth.InternalAPIKey))
	{
		internal.POST("/posts", postHandler.CreateInternal)
	}

	return r
}
