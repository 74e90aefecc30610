package middleware

import (
	"crypto/subtle"
	"net/http"

	"taskbridge-bot/pkg/logger"

	"github.com/gin-gonic/gin"
)

// TelegramSecretHeader carries the secret_token registered with setWebhook.
const TelegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// TelegramSecret rejects requests whose secret header does not match secret.
// An empty secret rejects every request.
func TelegramSecret(secret string, logger *logger.Logger) gin.HandlerFunc {
	want := []byte(secret)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader(TelegramSecretHeader))
		if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
			logger.Warnw("Rejected webhook request with invalid secret token",
				"client_ip", c.ClientIP(),
				"header_present", len(got) > 0)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false})
			return
		}
		c.Next()
	}
}
