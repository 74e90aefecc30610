package events

import (
	"time"

	"github.com/google/uuid"
)

// Event represents the base event structure with common fields
type Event struct {
	CorrelationID string    `json:"correlation_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewEvent creates a new base event with generated correlation ID
func NewEvent() Event {
	return Event{
		CorrelationID: uuid.New().String(),
		Timestamp:     time.Now(),
	}
}

// Source tells which inbound path produced a task.
type Source string

const (
	SourceText  Source = "text"
	SourceVoice Source = "voice"
)

// MessageReceived is published for every authorized non-command text message
type MessageReceived struct {
	Event
	UserID    int64  `json:"user_id"`
	ChatID    int64  `json:"chat_id"`
	MessageID int    `json:"message_id"`
	Text      string `json:"text"`
}

// VoiceReceived is published for every authorized voice message
type VoiceReceived struct {
	Event
	UserID    int64  `json:"user_id"`
	ChatID    int64  `json:"chat_id"`
	MessageID int    `json:"message_id"`
	FileID    string `json:"file_id"`
	Duration  int    `json:"duration"`
	MimeType  string `json:"mime_type,omitempty"`
}

// TaskCreated is published once a provider accepted the task
type TaskCreated struct {
	Event
	ChatID     int64  `json:"chat_id"`
	Source     Source `json:"source"`
	Provider   string `json:"provider"`
	TaskID     string `json:"task_id"`
	Content    string `json:"content"`
	URL        string `json:"url,omitempty"`
	DueDropped bool   `json:"due_dropped"`
	Reply      string `json:"reply"`
}

// TaskFailed is published when a request ended without a task
type TaskFailed struct {
	Event
	ChatID int64  `json:"chat_id"`
	Source Source `json:"source"`
	Reason string `json:"reason"`
	Reply  string `json:"reply"`
}

// Event topics constants
const (
	TopicMessageReceived = "message.received"
	TopicVoiceReceived   = "voice.received"
	TopicTaskCreated     = "task.created"
	TopicTaskFailed      = "task.failed"
)
