package handlers

import (
	"net/http"
	"time"

	"taskbridge-bot/pkg/logger"
	"taskbridge-bot/version"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	providerName string
	logger       *logger.Logger
}

func NewHealthHandler(providerName string, logger *logger.Logger) *HealthHandler {
	return &HealthHandler{
		providerName: providerName,
		logger:       logger,
	}
}

func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "taskbridge-bot",
		"provider":  h.providerName,
		"version":   version.String(),
	})
}
