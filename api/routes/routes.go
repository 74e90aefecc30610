package routes

import (
	"taskbridge-bot/api/handlers"
	"taskbridge-bot/api/middleware"
	"taskbridge-bot/pkg/logger"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, logger *logger.Logger, processor handlers.WebhookProcessor, providerName, webhookSecret string) {
	router.Use(middleware.RequestLogging(logger))
	router.Use(gin.Recovery())

	healthHandler := handlers.NewHealthHandler(providerName, logger)
	webhookHandler := handlers.NewWebhookHandler(processor, logger)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthHandler.Check)
		v1.POST("/telegram/webhook", middleware.TelegramSecret(webhookSecret, logger), webhookHandler.HandleTelegramWebhook)
	}

	router.GET("/health", healthHandler.Check)
}
