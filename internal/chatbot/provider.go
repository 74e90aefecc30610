package chatbot

import (
	"context"
	"io"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramProvider defines the contract for Telegram API operations
type TelegramProvider interface {
	// SendMessage sends an HTML formatted message to the specified chat
	SendMessage(chatID int64, text string) error

	// DownloadFile streams the content of an uploaded file such as a voice
	// message. The caller closes the reader.
	DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, error)

	// GetUpdatesChan starts long polling and delivers updates on the channel
	GetUpdatesChan(timeout int) tgbotapi.UpdatesChannel

	// StopReceivingUpdates ends long polling started by GetUpdatesChan
	StopReceivingUpdates()

	// SetWebhook configures the webhook URL and the secret token Telegram
	// sends back with every update
	SetWebhook(webhookURL, secretToken string) error

	// DeleteWebhook removes the configured webhook
	DeleteWebhook() error

	// GetMe returns information about the bot
	GetMe() (*tgbotapi.User, error)
}
