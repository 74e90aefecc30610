package chatbot

import (
	"encoding/json"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// UpdateKind classifies an incoming update for routing.
type UpdateKind string

const (
	UpdateKindCommand UpdateKind = "command"
	UpdateKindText    UpdateKind = "text"
	UpdateKindVoice   UpdateKind = "voice"
	UpdateKindOther   UpdateKind = "other"
)

// WebhookParser provides utilities for parsing Telegram webhook updates
type WebhookParser struct{}

// NewWebhookParser creates a new WebhookParser instance
func NewWebhookParser() *WebhookParser {
	return &WebhookParser{}
}

// ParseUpdate unmarshals webhook data into a Telegram Update struct
func (p *WebhookParser) ParseUpdate(updateData []byte) (*tgbotapi.Update, error) {
	if len(updateData) == 0 {
		return nil, WebhookParsingError{Details: "empty update data"}
	}

	var update tgbotapi.Update
	if err := json.Unmarshal(updateData, &update); err != nil {
		return nil, WebhookParsingError{Details: "failed to unmarshal update data", Cause: err}
	}

	if update.UpdateID == 0 {
		return nil, WebhookParsingError{Details: "invalid update: missing update ID"}
	}

	return &update, nil
}

// Classify determines how a message should be routed
func (p *WebhookParser) Classify(msg *tgbotapi.Message) UpdateKind {
	switch {
	case msg == nil:
		return UpdateKindOther
	case msg.IsCommand():
		return UpdateKindCommand
	case msg.Voice != nil:
		return UpdateKindVoice
	case msg.Text != "":
		return UpdateKindText
	default:
		return UpdateKindOther
	}
}

// Sender returns the id of the user who sent msg, or 0 if unknown
func (p *WebhookParser) Sender(msg *tgbotapi.Message) int64 {
	if msg == nil || msg.From == nil {
		return 0
	}
	return msg.From.ID
}
