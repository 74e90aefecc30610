package handlers

import (
	"io"
	"net/http"

	"taskbridge-bot/pkg/logger"

	"github.com/gin-gonic/gin"
)

// WebhookProcessor consumes one raw Telegram update.
type WebhookProcessor interface {
	HandleWebhook(webhookData []byte) error
}

// WebhookHandler handles Telegram webhook requests
type WebhookHandler struct {
	processor WebhookProcessor
	logger    *logger.Logger
}

// NewWebhookHandler creates a new WebhookHandler instance
func NewWebhookHandler(processor WebhookProcessor, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		processor: processor,
		logger:    logger,
	}
}

// HandleTelegramWebhook processes incoming Telegram webhook updates. The
// response is always 200 so Telegram does not redeliver the update.
func (h *WebhookHandler) HandleTelegramWebhook(c *gin.Context) {
	log := requestLogger(c, h.logger)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Errorw("Failed to read webhook body", "error", err)
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	if len(body) == 0 {
		log.Warnw("Received empty webhook body")
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	if err := h.processor.HandleWebhook(body); err != nil {
		log.Errorw("Failed to process webhook",
			"error", err,
			"body_size", len(body))
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	log.Debugw("Webhook processed successfully", "body_size", len(body))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// requestLogger returns the request-scoped logger set by the logging
// middleware, or fallback when the handler runs without it.
func requestLogger(c *gin.Context, fallback *logger.Logger) *logger.Logger {
	if v, ok := c.Get("logger"); ok {
		if l, ok := v.(*logger.Logger); ok {
			return l
		}
	}
	return fallback
}
