// Package chatbot is the Telegram transport: it authorizes senders, answers
// commands, turns messages into pipeline events and delivers the replies.
package chatbot

import (
	"context"
	"fmt"

	"taskbridge-bot/internal/config"
	"taskbridge-bot/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Service routes Telegram updates for the single allowed user.
type Service struct {
	eventBus events.EventBus
	logger   *zap.Logger
	provider TelegramProvider
	parser   *WebhookParser
	commands *CommandProcessor
	config   config.TelegramConfig
}

// NewService creates the chatbot service and subscribes it to pipeline
// results.
func NewService(eventBus events.EventBus, logger *zap.Logger, provider TelegramProvider, cfg config.TelegramConfig, providerName string) (*Service, error) {
	s := &Service{
		eventBus: eventBus,
		logger:   logger,
		provider: provider,
		parser:   NewWebhookParser(),
		commands: NewCommandProcessor(providerName, logger),
		config:   cfg,
	}

	if err := s.setupEventSubscriptions(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) setupEventSubscriptions() error {
	if err := s.eventBus.SubscribeAsync(events.TopicTaskCreated, s.handleTaskCreated); err != nil {
		return fmt.Errorf("failed to subscribe to TaskCreated events: %w", err)
	}
	if err := s.eventBus.SubscribeAsync(events.TopicTaskFailed, s.handleTaskFailed); err != nil {
		return fmt.Errorf("failed to subscribe to TaskFailed events: %w", err)
	}
	return nil
}

// HandleWebhook processes incoming webhook data from Telegram
func (s *Service) HandleWebhook(webhookData []byte) error {
	update, err := s.parser.ParseUpdate(webhookData)
	if err != nil {
		return err
	}
	return s.HandleUpdate(*update)
}

// HandleUpdate authorizes the sender and routes one update. Messages from
// other users get the denial text and an AuthorizationDenied error.
func (s *Service) HandleUpdate(update tgbotapi.Update) error {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		s.logger.Debug("Ignoring update without message", zap.Int("update_id", update.UpdateID))
		return nil
	}

	chatID := msg.Chat.ID
	userID := s.parser.Sender(msg)
	if userID == 0 || userID != s.config.AllowedUserID {
		s.logger.Warn("Rejected message from unauthorized user", zap.Int64("user_id", userID))
		s.reply(chatID, DenialText)
		return AuthorizationDenied{UserID: userID}
	}

	switch s.parser.Classify(msg) {
	case UpdateKindCommand:
		s.reply(chatID, s.commands.Process(msg.Command()))
		return nil

	case UpdateKindVoice:
		event := events.VoiceReceived{
			Event:     events.NewEvent(),
			UserID:    userID,
			ChatID:    chatID,
			MessageID: msg.MessageID,
			FileID:    msg.Voice.FileID,
			Duration:  msg.Voice.Duration,
			MimeType:  msg.Voice.MimeType,
		}
		s.logger.Info("Voice message received",
			zap.String("correlation_id", event.CorrelationID),
			zap.Int("duration", event.Duration))
		return s.eventBus.Publish(events.TopicVoiceReceived, event)

	case UpdateKindText:
		event := events.MessageReceived{
			Event:     events.NewEvent(),
			UserID:    userID,
			ChatID:    chatID,
			MessageID: msg.MessageID,
			Text:      msg.Text,
		}
		s.logger.Info("Text message received",
			zap.String("correlation_id", event.CorrelationID),
			zap.Int("text_length", len(event.Text)))
		return s.eventBus.Publish(events.TopicMessageReceived, event)

	default:
		s.reply(chatID, UnsupportedText)
		return nil
	}
}

// Run consumes long-polling updates until ctx is cancelled or the update
// channel closes.
func (s *Service) Run(ctx context.Context) error {
	if err := s.provider.DeleteWebhook(); err != nil {
		return fmt.Errorf("failed to delete webhook before polling: %w", err)
	}

	updates := s.provider.GetUpdatesChan(s.config.UpdateTimeout)
	s.logger.Info("Started long polling", zap.Int("timeout", s.config.UpdateTimeout))

	for {
		select {
		case <-ctx.Done():
			s.provider.StopReceivingUpdates()
			s.logger.Info("Stopped long polling")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if err := s.HandleUpdate(update); err != nil && !IsAuthorizationDenied(err) {
				s.logger.Error("Failed to handle update",
					zap.Int("update_id", update.UpdateID),
					zap.Error(err))
			}
		}
	}
}

func (s *Service) handleTaskCreated(event events.TaskCreated) {
	s.logger.Debug("Delivering task confirmation",
		zap.String("correlation_id", event.CorrelationID),
		zap.String("task_id", event.TaskID))
	s.reply(event.ChatID, event.Reply)
}

func (s *Service) handleTaskFailed(event events.TaskFailed) {
	s.logger.Debug("Delivering failure reply",
		zap.String("correlation_id", event.CorrelationID),
		zap.String("reason", event.Reason))
	s.reply(event.ChatID, event.Reply)
}

func (s *Service) reply(chatID int64, text string) {
	if err := s.provider.SendMessage(chatID, text); err != nil {
		s.logger.Error("Failed to send reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
