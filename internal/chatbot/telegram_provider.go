package chatbot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"taskbridge-bot/internal/config"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// telegramProvider implements the TelegramProvider interface using the telegram-bot-api library
type telegramProvider struct {
	bot          *tgbotapi.BotAPI
	logger       *zap.Logger
	config       config.TelegramConfig
	httpClient   *http.Client
	fileEndpoint string
	newBackoff   func() backoff.BackOff
}

// NewTelegramProvider creates a new TelegramProvider instance. The token is
// validated with getMe.
func NewTelegramProvider(cfg config.TelegramConfig, logger *zap.Logger) (TelegramProvider, error) {
	return newTelegramProvider(cfg, logger, tgbotapi.APIEndpoint, tgbotapi.FileEndpoint)
}

func newTelegramProvider(cfg config.TelegramConfig, logger *zap.Logger, apiEndpoint, fileEndpoint string) (*telegramProvider, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	// Long polling holds the request open for UpdateTimeout seconds.
	httpClient := &http.Client{
		Timeout: time.Duration(cfg.Timeout+cfg.UpdateTimeout) * time.Second,
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, apiEndpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	logger.Info("Telegram bot initialized successfully", zap.String("username", bot.Self.UserName))

	maxRetries := uint64(cfg.MaxRetries)
	return &telegramProvider{
		bot:    bot,
		logger: logger,
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		fileEndpoint: fileEndpoint,
		newBackoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			b.MaxElapsedTime = 30 * time.Second
			return backoff.WithMaxRetries(b, maxRetries)
		},
	}, nil
}

// SendMessage sends an HTML formatted message to the specified chat
func (p *telegramProvider) SendMessage(chatID int64, text string) error {
	p.logger.Debug("Sending message",
		zap.Int64("chat_id", chatID),
		zap.Int("text_length", len(text)))

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML

	if _, err := p.bot.Send(msg); err != nil {
		p.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		return newTelegramAPIError("send message", err)
	}

	return nil
}

// DownloadFile resolves the file path with getFile and downloads the file,
// retrying transient failures.
func (p *telegramProvider) DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, error) {
	file, err := p.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, newTelegramAPIError("get file", err)
	}
	link := fmt.Sprintf(p.fileEndpoint, p.bot.Token, file.FilePath)

	var body io.ReadCloser
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := p.httpClient.Do(req)
		if err != nil {
			p.logger.Warn("File download failed, will retry", zap.String("file_id", fileID), zap.Error(err))
			return err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			apiErr := TelegramAPIError{
				Operation:   "download file",
				StatusCode:  resp.StatusCode,
				Description: resp.Status,
			}
			if apiErr.Temporary() {
				return apiErr
			}
			return backoff.Permanent(apiErr)
		}

		body = resp.Body
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(p.newBackoff(), ctx)); err != nil {
		return nil, fmt.Errorf("failed to download file %s: %w", fileID, err)
	}

	p.logger.Debug("Downloading file",
		zap.String("file_id", fileID),
		zap.Int("file_size", file.FileSize))
	return body, nil
}

// GetUpdatesChan starts long polling from the latest offset
func (p *telegramProvider) GetUpdatesChan(timeout int) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeout
	return p.bot.GetUpdatesChan(u)
}

// StopReceivingUpdates stops long polling
func (p *telegramProvider) StopReceivingUpdates() {
	p.bot.StopReceivingUpdates()
}

// SetWebhook registers webhookURL together with the secret Telegram echoes in
// the X-Telegram-Bot-Api-Secret-Token header of every delivery.
func (p *telegramProvider) SetWebhook(webhookURL, secretToken string) error {
	p.logger.Info("Setting webhook", zap.String("webhook_url", webhookURL))

	if _, err := url.ParseRequestURI(webhookURL); err != nil {
		return fmt.Errorf("failed to create webhook config: %w", err)
	}

	// tgbotapi.WebhookConfig has no secret_token field.
	params := tgbotapi.Params{"url": webhookURL}
	params.AddNonEmpty("secret_token", secretToken)

	if _, err := p.bot.MakeRequest("setWebhook", params); err != nil {
		p.logger.Error("Failed to set webhook",
			zap.String("webhook_url", webhookURL),
			zap.Error(err))
		return newTelegramAPIError("set webhook", err)
	}

	p.logger.Info("Webhook set successfully", zap.String("webhook_url", webhookURL))
	return nil
}

// DeleteWebhook removes the configured webhook
func (p *telegramProvider) DeleteWebhook() error {
	p.logger.Info("Deleting webhook")

	if _, err := p.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		p.logger.Error("Failed to delete webhook", zap.Error(err))
		return newTelegramAPIError("delete webhook", err)
	}

	return nil
}

// GetMe returns information about the bot
func (p *telegramProvider) GetMe() (*tgbotapi.User, error) {
	me, err := p.bot.GetMe()
	if err != nil {
		p.logger.Error("Failed to get bot information", zap.Error(err))
		return nil, newTelegramAPIError("get me", err)
	}

	return &me, nil
}
