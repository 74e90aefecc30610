package chatbot

import (
	"errors"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ChatbotError defines the interface for chatbot-specific errors
type ChatbotError interface {
	error
	Code() string
	Message() string
	Temporary() bool
}

// TelegramAPIError represents errors from Telegram Bot API
type TelegramAPIError struct {
	Operation   string
	StatusCode  int
	Description string
	RetryAfter  int
	Cause       error
}

func (e TelegramAPIError) Error() string {
	return fmt.Sprintf("telegram API error during %s: %s (status: %d)", e.Operation, e.Description, e.StatusCode)
}

func (e TelegramAPIError) Code() string {
	return "TELEGRAM_API_ERROR"
}

func (e TelegramAPIError) Message() string {
	return e.Description
}

func (e TelegramAPIError) Temporary() bool {
	// Rate limiting and server errors are temporary
	return e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError ||
		e.RetryAfter > 0
}

func (e TelegramAPIError) Unwrap() error {
	return e.Cause
}

// newTelegramAPIError converts errors of the bot API library, keeping the
// status code and retry hint when Telegram reported them.
func newTelegramAPIError(operation string, err error) TelegramAPIError {
	apiErr := TelegramAPIError{Operation: operation, Description: err.Error(), Cause: err}

	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		apiErr.StatusCode = tgErr.Code
		apiErr.Description = tgErr.Message
		apiErr.RetryAfter = tgErr.RetryAfter
	}
	return apiErr
}

// WebhookParsingError represents errors when parsing webhook data
type WebhookParsingError struct {
	Details string
	Cause   error
}

func (e WebhookParsingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("webhook parsing error: %s (caused by: %v)", e.Details, e.Cause)
	}
	return fmt.Sprintf("webhook parsing error: %s", e.Details)
}

func (e WebhookParsingError) Code() string {
	return "WEBHOOK_PARSING_ERROR"
}

func (e WebhookParsingError) Message() string {
	return e.Details
}

func (e WebhookParsingError) Temporary() bool {
	return false
}

func (e WebhookParsingError) Unwrap() error {
	return e.Cause
}

// AuthorizationDenied is returned for messages from anyone but the allowed
// user. The sender has already been told.
type AuthorizationDenied struct {
	UserID int64
}

func (e AuthorizationDenied) Error() string {
	return fmt.Sprintf("user %d is not allowed to use this bot", e.UserID)
}

func (e AuthorizationDenied) Code() string {
	return "AUTHORIZATION_DENIED"
}

func (e AuthorizationDenied) Message() string {
	return DenialText
}

func (e AuthorizationDenied) Temporary() bool {
	return false
}

// IsAuthorizationDenied reports whether err is an AuthorizationDenied.
func IsAuthorizationDenied(err error) bool {
	var denied AuthorizationDenied
	return errors.As(err, &denied)
}
